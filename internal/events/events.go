// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentVerified    = "payment.verified"
	TopicBusinessDeleted    = "business.deleted"
)

// Publisher sends one JSON-encoded payload to topic, partitioned by key.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

type OrderCreated struct {
	OrderID       string    `json:"order_id"`
	CheckoutID    string    `json:"checkout_id"`
	CustomerID    string    `json:"customer_id"`
	BusinessID    string    `json:"business_id"`
	TotalAmount   string    `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type OrderStatusChanged struct {
	OrderID    string    `json:"order_id"`
	BusinessID string    `json:"business_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PaymentVerified struct {
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BusinessDeleted struct {
	BusinessID      string    `json:"business_id"`
	CancelledOrders int       `json:"cancelled_orders"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// KafkaPublisher writes events through a synchronous sarama producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	logger   *log.Logger
}

// NewKafkaPublisher dials brokers; the producer waits for all in-sync
// replicas before acknowledging.
func NewKafkaPublisher(brokers []string, logger *log.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newKafkaPublisher(producer, logger), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &KafkaPublisher{producer: producer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Printf("events: publish topic=%s key=%s error=%v", topic, key, err)
		return err
	}
	p.logger.Printf("events: publish topic=%s key=%s partition=%d offset=%d", topic, key, partition, offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.logger.Printf("events: %s key=%s %s", topic, key, data)
	return nil
}
