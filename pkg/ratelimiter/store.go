package ratelimiter

import (
	"context"
	"time"
)

// Record is one observed request attempt. Records are immutable after
// creation: the store only grows via inserts and shrinks via expiry,
// which keeps concurrent writers trivially safe.
type Record struct {
	Key       string    `bson:"key" json:"key"`
	Endpoint  string    `bson:"endpoint" json:"endpoint"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// Store persists attempt records shared by all processes enforcing the
// same limits. Implementations are expected to expire records past
// ExpiresAt on their own, but callers must not rely on eager deletion:
// Count and Oldest take an explicit lower bound so an expired-but-not-
// yet-deleted record is excluded by timestamp comparison.
type Store interface {
	// Record inserts one attempt record.
	Record(ctx context.Context, rec Record) error

	// Count returns the number of records for (key, endpoint) with
	// CreatedAt >= since.
	Count(ctx context.Context, key, endpoint string, since time.Time) (int64, error)

	// Oldest returns the CreatedAt of the oldest record for
	// (key, endpoint) with CreatedAt >= since. The boolean reports
	// whether such a record exists.
	Oldest(ctx context.Context, key, endpoint string, since time.Time) (time.Time, bool, error)
}
