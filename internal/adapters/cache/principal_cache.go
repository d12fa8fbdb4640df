package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/smart-daycare/identity-access-service/internal/config"
	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// RedisPrincipalCache caches resolved accounts for the auth middleware.
// The TTL must stay well below the token TTL so a stale role can never
// outlive a token; entries are also invalidated explicitly when a role
// changes. All failures degrade to a cache miss.
type RedisPrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
}

var _ ports.PrincipalCache = (*RedisPrincipalCache)(nil)

func NewRedisPrincipalCache(client *redis.Client, ttl time.Duration) *RedisPrincipalCache {
	return &RedisPrincipalCache{
		client: client,
		ttl:    ttl,
		cb:     config.NewCircuitBreaker("Redis-Auth"),
	}
}

func principalKey(accountID string) string {
	return "principal:" + accountID
}

func (c *RedisPrincipalCache) Get(ctx context.Context, accountID string) (*domain.Account, bool) {
	var miss bool
	val, err := c.cb.Execute(func() (interface{}, error) {
		v, err := c.client.Get(ctx, principalKey(accountID)).Result()
		if err == redis.Nil {
			// A miss is a normal outcome, not a breaker failure.
			miss = true
			return "", nil
		}
		return v, err
	})
	if err != nil {
		log.Printf("principal cache: get failed: %v", err)
		return nil, false
	}
	if miss {
		return nil, false
	}

	var account domain.Account
	if err := json.Unmarshal([]byte(val.(string)), &account); err != nil {
		log.Printf("principal cache: corrupt entry for %s: %v", accountID, err)
		return nil, false
	}
	return &account, true
}

func (c *RedisPrincipalCache) Set(ctx context.Context, account *domain.Account) {
	data, err := json.Marshal(account)
	if err != nil {
		log.Printf("principal cache: marshal failed: %v", err)
		return
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, principalKey(account.ID), data, c.ttl).Err()
	})
	if err != nil {
		log.Printf("principal cache: set failed: %v", err)
	}
}

func (c *RedisPrincipalCache) Invalidate(ctx context.Context, accountID string) {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, principalKey(accountID)).Err()
	})
	if err != nil {
		log.Printf("principal cache: invalidate failed for %s: %v", accountID, err)
	}
}
