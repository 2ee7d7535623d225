package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bloodLink/internal/domain"
	"bloodLink/internal/service"
	"bloodLink/pkg/e"
)

const donorPoolKey = "donors:pool"

// DonorCache stores the full donor pool as one JSON value.
type DonorCache struct {
	client *goredis.Client
	key    string
}

func NewDonorCache(r *Redis) *DonorCache {
	return &DonorCache{
		client: r.Client,
		key:    donorPoolKey,
	}
}

func (c *DonorCache) GetAll(ctx context.Context) ([]domain.DonorRecord, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, e.Wrap("redis.DonorCache.GetAll", err)
	}

	var donors []domain.DonorRecord
	if err := json.Unmarshal(data, &donors); err != nil {
		return nil, e.Wrap("redis.DonorCache.GetAll.Unmarshal", err)
	}
	return donors, nil
}

func (c *DonorCache) SetAll(ctx context.Context, donors []domain.DonorRecord, ttl time.Duration) error {
	if donors == nil {
		donors = []domain.DonorRecord{}
	}
	b, err := json.Marshal(donors)
	if err != nil {
		return e.Wrap("redis.DonorCache.SetAll.Marshal", err)
	}
	return c.client.Set(ctx, c.key, b, ttl).Err()
}

func (c *DonorCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

var (
	_ service.DonorCache = (*DonorCache)(nil)
	_ service.DraftStore = (*DraftStore)(nil)
)
