package recommend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Batches tracks the newest recommendation batch per UI slot. Starting a
// batch for a slot supersedes the previous one: its context is cancelled
// and it reports itself stale.
type Batches struct {
	mu    sync.Mutex
	seq   uint64
	slots map[string]*Batch
}

// Batch is one tagged run of the pipeline.
type Batch struct {
	ID   string
	Seq  uint64
	Slot string

	owner  *Batches
	cancel context.CancelFunc
	stale  atomic.Bool
}

// NewBatches returns an empty tracker.
func NewBatches() *Batches {
	return &Batches{slots: make(map[string]*Batch)}
}

// Start registers a new batch for slot and returns a context that is
// cancelled when a newer batch starts or the batch is done.
func (b *Batches) Start(ctx context.Context, slot string) (context.Context, *Batch) {
	ctx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	batch := &Batch{
		ID:     uuid.NewString(),
		Seq:    b.seq,
		Slot:   slot,
		owner:  b,
		cancel: cancel,
	}
	if prev, ok := b.slots[slot]; ok {
		prev.stale.Store(true)
		prev.cancel()
	}
	b.slots[slot] = batch
	return ctx, batch
}

// Stale reports whether a newer batch has started for the same slot.
func (x *Batch) Stale() bool {
	return x.stale.Load()
}

// Done releases the batch. The slot is freed if no newer batch took it.
func (x *Batch) Done() {
	x.cancel()

	x.owner.mu.Lock()
	defer x.owner.mu.Unlock()
	if current, ok := x.owner.slots[x.Slot]; ok && current.Seq == x.Seq {
		delete(x.owner.slots, x.Slot)
	}
}
