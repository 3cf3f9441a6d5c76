package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis stores drafts as JSON strings and implements locks with SET NX PX.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, draftTTL time.Duration) *Redis {
	return &Redis{client: client, ttl: draftTTL}
}

func (r *Redis) Save(ctx context.Context, customerID string, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, draftKey(customerID), data, r.ttl).Err()
}

func (r *Redis) Load(ctx context.Context, customerID string) (Draft, error) {
	data, err := r.client.Get(ctx, draftKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Draft{}, ErrNoDraft
		}
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (r *Redis) Clear(ctx context.Context, customerID string) error {
	return r.client.Del(ctx, draftKey(customerID)).Err()
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	key = lockKey(key)
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCheckoutInProgress
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}
