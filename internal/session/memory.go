package session

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
)

type entry struct {
	value     string
	draft     Draft
	expiresAt time.Time
}

// Memory is a single-process DraftStore and Locker used when Redis is not
// configured.
type Memory struct {
	mu      sync.Mutex
	drafts  map[string]entry
	locks   map[string]entry
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewMemory(draftTTL time.Duration) *Memory {
	return &Memory{
		drafts:  make(map[string]entry),
		locks:   make(map[string]entry),
		ttl:     draftTTL,
		nowFunc: time.Now,
	}
}

func (m *Memory) Save(ctx context.Context, customerID string, d Draft) error {
	m.mu.Lock()
	m.drafts[draftKey(customerID)] = entry{draft: d, expiresAt: m.nowFunc().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(ctx context.Context, customerID string) (Draft, error) {
	key := draftKey(customerID)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.drafts[key]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	if m.nowFunc().After(e.expiresAt) {
		delete(m.drafts, key)
		return Draft{}, ErrNoDraft
	}
	return e.draft, nil
}

func (m *Memory) Clear(ctx context.Context, customerID string) error {
	m.mu.Lock()
	delete(m.drafts, draftKey(customerID))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	key = lockKey(key)
	token := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.locks[key]; ok && m.nowFunc().Before(e.expiresAt) {
		return nil, domain.ErrCheckoutInProgress
	}
	m.locks[key] = entry{value: token, expiresAt: m.nowFunc().Add(ttl)}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// An expired lock may have been taken over by someone else.
		if e, ok := m.locks[key]; ok && e.value == token {
			delete(m.locks, key)
		}
	}, nil
}
