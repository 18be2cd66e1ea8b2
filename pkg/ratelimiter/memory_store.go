package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type bucketKey struct {
	key      string
	endpoint string
}

// MemoryStore implements Store with in-process storage. Queries filter
// by timestamp, so correctness never depends on sweep timing; the sweep
// only bounds memory. Suitable for tests and single-instance
// deployments; limits are not shared across processes.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[bucketKey][]Record

	// Configuration
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	recordsStored  atomic.Int64
	recordsExpired atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging.
type MemoryStoreStats struct {
	RecordsStored  int64 // Total number of records inserted
	RecordsExpired int64 // Total number of records removed by the sweep
	LiveRecords    int   // Current number of records held (including not-yet-swept expired ones)
	IsRunning      bool  // Whether the sweep goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets the interval for removing expired records.
// Set to 0 to disable the background sweep.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.sweepInterval = interval
	}
}

// WithMemoryStoreShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start() to begin the background sweep.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[bucketKey][]Record),
		sweepInterval:   time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// Record appends one attempt record.
func (ms *MemoryStore) Record(ctx context.Context, rec Record) error {
	bk := bucketKey{key: rec.Key, endpoint: rec.Endpoint}

	ms.mu.Lock()
	ms.buckets[bk] = append(ms.buckets[bk], rec)
	ms.mu.Unlock()

	ms.recordsStored.Add(1)
	return nil
}

// Count returns the number of records for (key, endpoint) created at or
// after since.
func (ms *MemoryStore) Count(ctx context.Context, key, endpoint string, since time.Time) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var n int64
	for _, rec := range ms.buckets[bucketKey{key: key, endpoint: endpoint}] {
		if !rec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Oldest returns the creation time of the oldest in-window record.
func (ms *MemoryStore) Oldest(ctx context.Context, key, endpoint string, since time.Time) (time.Time, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var oldest time.Time
	found := false
	for _, rec := range ms.buckets[bucketKey{key: key, endpoint: endpoint}] {
		if rec.CreatedAt.Before(since) {
			continue
		}
		if !found || rec.CreatedAt.Before(oldest) {
			oldest = rec.CreatedAt
			found = true
		}
	}
	return oldest, found, nil
}

// Start begins the background sweep goroutine. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern
// or call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store already started")
	}

	if ms.sweepInterval <= 0 {
		ms.mu.Unlock()
		return fmt.Errorf("sweep interval must be > 0, got %v (use WithSweepInterval to configure)", ms.sweepInterval)
	}

	ms.ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ms.ctx, "memory store sweep started",
		slog.Duration("sweep_interval", ms.sweepInterval))

	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			ms.logger.InfoContext(context.Background(), "memory store sweep stopping")
			return ms.ctx.Err()
		case <-ticker.C:
			ms.sweepWithWait()
		}
	}
}

// Stop gracefully shuts down the background sweep with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store not started")
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ms.logger.InfoContext(context.Background(), "memory store stopping, waiting for sweep to complete",
		slog.Duration("timeout", ms.shutdownTimeout))

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ms.logger.InfoContext(context.Background(), "memory store stopped cleanly")
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "memory store shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the sweep, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop() // Ignore stop error in normal shutdown
			<-errCh       // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// sweepWithWait wraps removeExpired so Stop can wait for an in-progress sweep.
func (ms *MemoryStore) sweepWithWait() {
	ms.mu.RLock()
	if ms.cancel == nil {
		ms.mu.RUnlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.RUnlock()

	defer ms.wg.Done()
	ms.removeExpired(time.Now())
}

// removeExpired drops records whose ExpiresAt has passed and empty buckets.
func (ms *MemoryStore) removeExpired(now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := 0
	for bk, recs := range ms.buckets {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.ExpiresAt.After(now) {
				kept = append(kept, rec)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(ms.buckets, bk)
		} else {
			ms.buckets[bk] = kept
		}
	}

	if removed > 0 {
		ms.recordsExpired.Add(int64(removed))
	}
}

// Sweep removes expired records immediately. Exposed for deployments
// that drive cleanup from their own scheduler instead of Start.
func (ms *MemoryStore) Sweep(now time.Time) {
	ms.removeExpired(now)
}

// Stats returns current memory store statistics for observability and
// monitoring. This method is thread-safe and can be called at any time.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.RLock()
	isRunning := ms.cancel != nil
	live := 0
	for _, recs := range ms.buckets {
		live += len(recs)
	}
	ms.mu.RUnlock()

	return MemoryStoreStats{
		RecordsStored:  ms.recordsStored.Load(),
		RecordsExpired: ms.recordsExpired.Load(),
		LiveRecords:    live,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the memory store is operational.
// Returns nil if healthy, or an error describing the health issue.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	stats := ms.Stats()

	if ms.sweepInterval > 0 && !stats.IsRunning {
		return fmt.Errorf("sweep is configured but not running")
	}

	return nil
}
