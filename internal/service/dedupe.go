package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// DedupeStore answers whether an event fingerprint has been seen before.
type DedupeStore interface {
	// FirstDelivery records the fingerprint and reports true when this is
	// the first time it has been observed within the retention window.
	FirstDelivery(ctx context.Context, fingerprint string) (bool, error)
}

// Fingerprint derives a stable identity for an event delivery. Two deliveries
// of the same transition for the same employee at the same instant collapse
// into one fingerprint regardless of source formatting.
func Fingerprint(event domain.HREvent) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s",
		event.Kind, event.EmployeeID, event.Timestamp.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

// RedisDedupe stores fingerprints as SETNX keys with a TTL, so duplicate
// suppression survives restarts and is shared across replicas.
type RedisDedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultDedupeTTL bounds how long a fingerprint blocks redelivery.
const DefaultDedupeTTL = 24 * time.Hour

func NewRedisDedupe(client *redis.Client, ttl time.Duration) *RedisDedupe {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &RedisDedupe{client: client, ttl: ttl}
}

func (d *RedisDedupe) FirstDelivery(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "jml:event:"+fingerprint, 1, d.ttl).Result()
	if err != nil {
		return false, jmlerrors.Wrap(err, jmlerrors.CodeUnavailable, "dedupe backend unavailable")
	}
	return ok, nil
}

// MemoryDedupe suppresses duplicates within a single process. Used when no
// Redis address is configured and in tests.
type MemoryDedupe struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryDedupe(ttl time.Duration) *MemoryDedupe {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &MemoryDedupe{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (d *MemoryDedupe) FirstDelivery(_ context.Context, fingerprint string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for fp, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, fp)
		}
	}
	if _, ok := d.seen[fingerprint]; ok {
		return false, nil
	}
	d.seen[fingerprint] = now
	return true, nil
}
