package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
)

type pendingSnapshot struct {
	adapter Adapter
	items   []model.LineItem
}

// Writer flushes cart snapshots to their adapters in the background. Pending
// snapshots coalesce per slot: only the latest state of a cart is ever
// written, so a burst of mutations costs one write. A single goroutine
// performs all writes, which keeps per-slot writes ordered.
type Writer struct {
	mu           sync.Mutex
	pending      map[string]pendingSnapshot
	notify       chan struct{}
	interval     time.Duration
	shuttingDown atomic.Bool

	enqueued atomic.Uint64
	written  atomic.Uint64
	failed   atomic.Uint64
	inFlight atomic.Int64
}

// NewWriter creates a Writer flushing at least every interval.
func NewWriter(interval time.Duration) *Writer {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Writer{
		pending:  make(map[string]pendingSnapshot),
		notify:   make(chan struct{}, 1),
		interval: interval,
	}
}

// Start runs the flush loop until ctx is done.
func (w *Writer) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Writer) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.flushOnce()
		select {
		case <-ctx.Done():
			w.flushOnce()
			return
		case <-w.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce writes every pending snapshot once. Failures are non-fatal: the
// in-memory cart stays authoritative, the failure is logged and counted.
func (w *Writer) flushOnce() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]pendingSnapshot)
	w.inFlight.Add(int64(len(batch)))
	w.mu.Unlock()
	for slot, ps := range batch {
		if err := ps.adapter.Save(ps.items); err != nil {
			w.failed.Add(1)
			obs.Logger.Warn("snapshot_write_failed", "slot", slot, "error", err)
		} else {
			w.written.Add(1)
		}
		w.inFlight.Add(-1)
	}
}

// Enqueue schedules a snapshot for the given slot, replacing any pending
// snapshot for the same slot. It reports false once intake is closed.
func (w *Writer) Enqueue(slot string, adapter Adapter, items []model.LineItem) bool {
	if w.shuttingDown.Load() {
		return false
	}
	w.enqueued.Add(1)
	w.mu.Lock()
	w.pending[slot] = pendingSnapshot{adapter: adapter, items: items}
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
	return true
}

// PendingSize returns the number of slots with an unwritten snapshot.
func (w *Writer) PendingSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Metrics returns counters and sizes for observability.
func (w *Writer) Metrics() (enqueued, written, failed uint64, pending int) {
	return w.enqueued.Load(), w.written.Load(), w.failed.Load(), w.PendingSize()
}

// CloseIntake disallows future enqueues.
func (w *Writer) CloseIntake() { w.shuttingDown.Store(true) }

// IsShuttingDown reports if intake has been closed.
func (w *Writer) IsShuttingDown() bool { return w.shuttingDown.Load() }

// DrainUntil blocks until all pending snapshots have been attempted or ctx
// is done.
func (w *Writer) DrainUntil(ctx context.Context) bool {
	for {
		if w.PendingSize() == 0 && w.inFlight.Load() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
