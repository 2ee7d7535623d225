package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

// DraftStore keeps in-progress emergency drafts with a sliding TTL.
type DraftStore struct {
	client *goredis.Client
	prefix string
}

func NewDraftStore(r *Redis, prefix string) *DraftStore {
	if prefix == "" {
		prefix = "emergency:draft:"
	}
	return &DraftStore{client: r.Client, prefix: prefix}
}

func (s *DraftStore) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

func (s *DraftStore) Save(ctx context.Context, d *domain.EmergencyDraft, ttl time.Duration) error {
	const op = "redis.DraftStore.Save"

	if d == nil || d.ID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	b, err := json.Marshal(d)
	if err != nil {
		return e.Wrap(op, err)
	}
	if err := s.client.Set(ctx, s.key(d.ID), b, ttl).Err(); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

func (s *DraftStore) Get(ctx context.Context, id uuid.UUID) (*domain.EmergencyDraft, error) {
	const op = "redis.DraftStore.Get"

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return nil, e.Wrap(op, err)
	}

	var d domain.EmergencyDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, e.Wrap(op, err)
	}
	return &d, nil
}

func (s *DraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "redis.DraftStore.Delete"

	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return e.Wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (s *DraftStore) lockKey(id uuid.UUID) string {
	return s.prefix + "lock:" + id.String()
}

// Lock sets the draft's lock key only if it is absent. The ttl bounds how
// long a crashed holder can keep the draft busy.
func (s *DraftStore) Lock(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	const op = "redis.DraftStore.Lock"

	ok, err := s.client.SetNX(ctx, s.lockKey(id), 1, ttl).Result()
	if err != nil {
		return false, e.Wrap(op, err)
	}
	return ok, nil
}

func (s *DraftStore) Unlock(ctx context.Context, id uuid.UUID) error {
	const op = "redis.DraftStore.Unlock"

	if err := s.client.Del(ctx, s.lockKey(id)).Err(); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}
