package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
)

type recordingAdapter struct {
	mu    sync.Mutex
	saves [][]model.LineItem
	fail  bool
}

func (a *recordingAdapter) Save(items []model.LineItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("disk full")
	}
	a.saves = append(a.saves, items)
	return nil
}

func (a *recordingAdapter) Load() ([]model.LineItem, error) { return nil, nil }

func (a *recordingAdapter) lastSave() []model.LineItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.saves) == 0 {
		return nil
	}
	return a.saves[len(a.saves)-1]
}

func oneItem(qty int) []model.LineItem {
	return []model.LineItem{{ProductID: "p1", Size: "M", Color: "red", UnitPrice: decimal.New(1, 0), Quantity: qty}}
}

func TestWriterWritesLatestSnapshot(t *testing.T) {
	obs.InitLogger()
	w := NewWriter(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	ad := &recordingAdapter{}
	for q := 1; q <= 5; q++ {
		if ok := w.Enqueue("default", ad, oneItem(q)); !ok {
			t.Fatalf("enqueue %d failed", q)
		}
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer drainCancel()
	if !w.DrainUntil(drainCtx) {
		t.Fatalf("drain timeout")
	}
	last := ad.lastSave()
	if len(last) != 1 || last[0].Quantity != 5 {
		t.Fatalf("expected final snapshot with quantity 5, got %+v", last)
	}
}

func TestWriterFailureIsNonFatal(t *testing.T) {
	obs.InitLogger()
	w := NewWriter(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	ad := &recordingAdapter{fail: true}
	w.Enqueue("default", ad, oneItem(1))
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer drainCancel()
	if !w.DrainUntil(drainCtx) {
		t.Fatalf("drain timeout")
	}
	_, written, failed, _ := w.Metrics()
	if written != 0 || failed == 0 {
		t.Fatalf("expected only failures, written=%d failed=%d", written, failed)
	}
}

func TestWriterShutdownIntake(t *testing.T) {
	obs.InitLogger()
	w := NewWriter(10 * time.Millisecond)
	w.CloseIntake()
	if !w.IsShuttingDown() {
		t.Fatalf("expected shutting down true")
	}
	if ok := w.Enqueue("default", &recordingAdapter{}, oneItem(1)); ok {
		t.Fatalf("expected enqueue false when shutting down")
	}
}

func TestWriterCoalescesPerSlot(t *testing.T) {
	obs.InitLogger()
	// Not started: everything stays pending, so coalescing is observable.
	w := NewWriter(time.Hour)
	ad := &recordingAdapter{}
	w.Enqueue("a", ad, oneItem(1))
	w.Enqueue("a", ad, oneItem(2))
	w.Enqueue("b", ad, oneItem(1))
	if got := w.PendingSize(); got != 2 {
		t.Fatalf("expected 2 pending slots, got %d", got)
	}
	w.flushOnce()
	if got := w.PendingSize(); got != 0 {
		t.Fatalf("expected drained, got %d pending", got)
	}
	enq, written, _, _ := w.Metrics()
	if enq != 3 || written != 2 {
		t.Fatalf("expected 3 enqueued and 2 written, got %d/%d", enq, written)
	}
}
