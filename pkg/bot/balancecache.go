// File: pkg/bot/balancecache.go
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// DefaultBalanceTTL is how long a fetched balance stays fresh.
const DefaultBalanceTTL = 5 * time.Minute

type cachedBalance struct {
	amount    float64
	fetchedAt time.Time
}

// BalanceCache memoizes broker balance lookups per user. Balance calls are the
// most rate-limited broker endpoint, so dashboard polls and stake sizing share
// one fetch per TTL window.
type BalanceCache struct {
	mu      sync.Mutex
	entries map[int64]cachedBalance
	ttl     time.Duration
	now     func() time.Time
	logger  *utilities.Logger
}

func NewBalanceCache(ttl time.Duration, logger *utilities.Logger) *BalanceCache {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &BalanceCache{
		entries: make(map[int64]cachedBalance),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Get returns the cached balance for the user, fetching from the broker when
// the entry is missing or stale. A fetch error is returned as-is and does not
// overwrite a stale entry.
func (c *BalanceCache) Get(ctx context.Context, userID int64, b broker.Broker) (float64, error) {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.amount, nil
	}

	amount, err := b.GetBalance(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[userID] = cachedBalance{amount: amount, fetchedAt: c.now()}
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.LogDebug("BalanceCache: refreshed user %d balance=%.2f", userID, amount)
	}
	return amount, nil
}

// Peek returns the cached balance without fetching, even when stale. The
// dashboard prefers a slightly old number over a broker round-trip.
func (c *BalanceCache) Peek(userID int64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	return entry.amount, ok
}

// Invalidate drops the cached entry for the user, forcing the next Get to hit
// the broker. Called after a trade settles.
func (c *BalanceCache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Set stores a balance directly, stamping it fresh now.
func (c *BalanceCache) Set(userID int64, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cachedBalance{amount: amount, fetchedAt: c.now()}
}
