package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/store"
	"github.com/papapumpkin/parallax/internal/telemetry"
)

// DefaultRescanInterval is how often Run re-lists the journal directory.
const DefaultRescanInterval = 30 * time.Second

// ServiceConfig holds the configuration for creating a Service.
type ServiceConfig struct {
	Dir            string
	Pattern        string
	Workers        int
	PollInterval   time.Duration
	RescanInterval time.Duration
	// Stream enables Run: tail the active journal and keep rescanning.
	Stream bool
	// AutoScan starts a pass as soon as a new journal appears instead of
	// waiting for the next rescan tick.
	AutoScan bool

	Store     store.Store
	Logger    *zap.Logger
	Telemetry *telemetry.Emitter
	Now       func() time.Time
}

type tailHandle struct {
	tailer *Tailer
	cancel context.CancelFunc
	done   chan struct{}
}

// Service wires the catalog, the coordinator, the tail reader and the
// persistence flusher together. It is the only type the CLI and the live
// view talk to.
type Service struct {
	cfg     ServiceConfig
	cat     *catalog.Catalog
	store   store.Store
	flusher *store.Flusher
	coord   *Coordinator
	logger  *zap.Logger
	emitter *telemetry.Emitter

	// passMu serializes passes against Reset.
	passMu sync.Mutex

	mu     sync.Mutex
	tail   *tailHandle
	subs   []chan View
	status error

	rescan chan struct{}
}

// NewService loads persisted state from cfg.Store and returns a ready
// Service. Corrupt persisted documents are logged and start empty; the
// error is kept in the View's Status.
func NewService(ctx context.Context, cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = DefaultRescanInterval
	}

	s := &Service{
		cfg:     cfg,
		cat:     catalog.New(cfg.Logger.Named("catalog")),
		store:   cfg.Store,
		logger:  cfg.Logger,
		emitter: cfg.Telemetry,
		rescan:  make(chan struct{}, 1),
	}
	s.flusher = store.NewFlusher(cfg.Store, cfg.Logger.Named("store"))
	s.coord = NewCoordinator(CoordinatorConfig{
		Dir:       cfg.Dir,
		Pattern:   cfg.Pattern,
		Workers:   cfg.Workers,
		Catalog:   s.cat,
		Persister: s.flusher,
		Logger:    cfg.Logger.Named("coordinator"),
		Telemetry: cfg.Telemetry,
		Now:       cfg.Now,
	})

	snap, err := cfg.Store.Load(ctx)
	if err != nil {
		s.logger.Warn("persisted state partly unreadable, starting affected parts empty", zap.Error(err))
		s.status = err
	}
	s.cat.Restore(snap)
	s.logger.Debug("state loaded",
		zap.Int("stars", len(snap.Stars)),
		zap.Int("files", len(snap.ProcessedFiles)),
		zap.Int("bodies", len(snap.ProcessedBodies)))
	return s
}

// Catalog returns the catalog the service feeds.
func (s *Service) Catalog() *catalog.Catalog { return s.cat }

// RunOnce performs a single batch pass and waits until its snapshot is on
// disk. An active file is detected but not tailed.
func (s *Service) RunOnce(ctx context.Context) (PassResult, error) {
	s.passMu.Lock()
	res, err := s.coord.Pass(ctx)
	s.passMu.Unlock()
	s.setStatus(err)

	if ferr := s.flusher.Flush(); ferr != nil {
		_ = s.emitter.Record(telemetry.KindPersistFailed, "", ferr.Error())
		if err == nil {
			err = ferr
		}
		s.setStatus(err)
	}
	s.publish()
	return res, err
}

// Run performs a pass, tails the active file and keeps rescanning until ctx
// is cancelled. Directory failures are reported through the View and
// retried at the next rescan.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Stream {
		return ErrNotStreaming
	}

	var changes <-chan Change
	w, err := NewWatcher(s.cfg.Dir, s.cfg.Pattern)
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		s.logger.Warn("directory watch unavailable, polling only", zap.String("dir", s.cfg.Dir), zap.Error(err))
	} else {
		changes = w.Changes
		defer w.Stop()
	}
	defer s.stopTail()

	s.pass(ctx)

	ticker := time.NewTicker(s.cfg.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.dispatch(c)
		case <-ticker.C:
			s.pass(ctx)
		case <-s.rescan:
			s.pass(ctx)
		}
	}
}

// dispatch routes one directory change: writes to the tailed file wake the
// tailer, anything else new schedules a pass when auto scan is on.
func (s *Service) dispatch(c Change) {
	s.mu.Lock()
	h := s.tail
	s.mu.Unlock()

	if h != nil && h.tailer.Name() == c.Name {
		h.tailer.Notify()
		return
	}
	if s.cfg.AutoScan && (c.Kind == ChangeCreated || !s.cat.FileProcessed(c.Name)) {
		s.signalRescan()
	}
}

func (s *Service) signalRescan() {
	select {
	case s.rescan <- struct{}{}:
	default:
	}
}

// pass runs one coordinator pass and hands a newly claimed file to a tailer.
func (s *Service) pass(ctx context.Context) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	res, err := s.coord.Pass(ctx)
	if ctx.Err() != nil {
		return
	}
	s.setStatus(err)
	if err != nil {
		s.logger.Warn("pass failed, retrying at next rescan", zap.Error(err))
	}
	if res.Claimed != nil {
		s.startTail(ctx, *res.Claimed)
	}
	s.publish()
}

// startTail launches the tail reader for fr. The caller holds passMu.
func (s *Service) startTail(ctx context.Context, fr FileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tail != nil {
		return
	}

	t := NewTailer(TailerConfig{
		Name:         fr.Name,
		Path:         fr.Path,
		Offset:       fr.Offset,
		ModTime:      fr.ModTime,
		Catalog:      s.cat,
		Logger:       s.logger.Named("tail"),
		PollInterval: s.cfg.PollInterval,
	})
	tctx, cancel := context.WithCancel(ctx)
	h := &tailHandle{tailer: t, cancel: cancel, done: make(chan struct{})}
	s.tail = h

	s.logger.Info("tailing active journal", zap.String("file", fr.Name), zap.String("offset", humanize.Bytes(uint64(fr.Offset))))
	_ = s.emitter.Record(telemetry.KindTailStart, fr.Name, map[string]int64{"offset": fr.Offset})

	go func() {
		defer close(h.done)
		err := t.Run(tctx, s.onDelta(t))
		if err != nil {
			// Cancelled by Reset or shutdown; the file stays active.
			return
		}
		s.finishTail(h)
	}()
}

// onDelta drains and persists after every tail read.
func (s *Service) onDelta(t *Tailer) func(TailDelta) {
	return func(d TailDelta) {
		s.logger.Debug("tail delta",
			zap.String("file", t.Name()),
			zap.String("read", humanize.Bytes(uint64(d.Bytes))),
			zap.Int("lines", d.Lines),
			zap.Int("skipped", d.Skipped),
			zap.Bool("truncated", d.Truncated))
		_ = s.emitter.Record(telemetry.KindTailDelta, t.Name(), d)

		if d.Shutdown {
			s.coord.CompleteActive(t.Name())
		}
		s.drain()
		s.flusher.Submit(s.cat.Snapshot())
		s.publish()
	}
}

func (s *Service) drain() {
	res, err := s.cat.Drain(s.coord.Settled())
	switch {
	case err == nil:
		if res.Counted+res.Unknown > 0 {
			_ = s.emitter.Record(telemetry.KindDrain, "", res)
		}
	case errors.Is(err, catalog.ErrNotReady):
		s.logger.Debug("drain deferred to running pass")
	default:
		s.logger.Warn("drain failed", zap.Error(err))
	}
}

// finishTail releases the active slot after the tailed file reached its
// Shutdown event and asks for a rescan so a newer journal can take over.
func (s *Service) finishTail(h *tailHandle) {
	name := h.tailer.Name()
	s.mu.Lock()
	if s.tail == h {
		s.tail = nil
	}
	s.mu.Unlock()
	h.cancel()

	s.logger.Info("active journal complete", zap.String("file", name))
	_ = s.emitter.Record(telemetry.KindTailDone, name, map[string]int64{"offset": h.tailer.Offset()})
	s.publish()
	s.signalRescan()
}

// stopTail cancels the tail reader, if any, and waits for it to exit.
func (s *Service) stopTail() {
	s.mu.Lock()
	h := s.tail
	s.tail = nil
	s.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Reset stops any tail, clears every entity and removes the persisted
// state. A running Service rescans from scratch afterwards.
func (s *Service) Reset(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.stopTail()
	if err := s.flusher.Flush(); err != nil {
		s.logger.Debug("pending write failed before reset", zap.Error(err))
	}
	s.cat.Reset()
	s.coord.Reset()
	err := s.store.Reset(ctx)
	if err != nil {
		s.logger.Error("reset persisted state", zap.Error(err))
	} else {
		s.logger.Info("state reset")
	}
	_ = s.emitter.Record(telemetry.KindReset, "", nil)

	s.setStatus(err)
	s.publish()
	s.signalRescan()
	return err
}

// Close stops the tail reader, flushes pending writes, closes the store and
// every subscriber channel.
func (s *Service) Close() error {
	s.stopTail()
	ferr := s.flusher.Close()
	if ferr != nil {
		_ = s.emitter.Record(telemetry.KindPersistFailed, "", ferr.Error())
	}
	serr := s.store.Close()

	s.mu.Lock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()
	return errors.Join(ferr, serr)
}
