package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/catalog"
)

// Flusher writes snapshots in the background so the ingestion pipeline never
// waits on disk. Only the latest submitted snapshot is written; snapshots
// superseded before the writer gets to them are dropped, which is safe
// because every snapshot is a full replacement.
type Flusher struct {
	store  Store
	logger *zap.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	pending   *catalog.Snapshot
	submitted uint64
	written   uint64
	lastErr   error
	closed    bool

	wake chan struct{}
	done chan struct{}
}

// NewFlusher starts the background writer for s.
func NewFlusher(s Store, logger *zap.Logger) *Flusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Flusher{
		store:  s,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	go f.loop()
	return f
}

// Submit queues snap for writing and returns immediately.
func (f *Flusher) Submit(snap catalog.Snapshot) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.pending = &snap
	f.submitted++
	select {
	case f.wake <- struct{}{}:
	default:
	}
	f.mu.Unlock()
}

// Flush blocks until every snapshot submitted so far has been written (or
// superseded) and returns the error of the last write attempt.
func (f *Flusher) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.submitted
	for f.written < target && !f.closed {
		f.cond.Wait()
	}
	return f.lastErr
}

// Close flushes outstanding snapshots and stops the writer.
func (f *Flusher) Close() error {
	err := f.Flush()
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return err
	}
	f.closed = true
	close(f.wake)
	f.mu.Unlock()
	<-f.done
	return err
}

func (f *Flusher) loop() {
	defer close(f.done)
	for range f.wake {
		f.mu.Lock()
		snap := f.pending
		seq := f.submitted
		f.pending = nil
		f.mu.Unlock()
		if snap == nil {
			continue
		}

		err := f.store.Save(context.Background(), *snap)
		if err != nil {
			f.logger.Error("persist snapshot", zap.Error(err))
		} else {
			f.logger.Debug("snapshot persisted",
				zap.Int("stars", len(snap.Stars)),
				zap.Int("files", len(snap.ProcessedFiles)))
		}

		f.mu.Lock()
		f.written = seq
		f.lastErr = err
		f.cond.Broadcast()
		f.mu.Unlock()
	}
}
