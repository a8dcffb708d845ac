// Package ingest drives journal files through the decode/classify/catalog
// pipeline. The Coordinator reads every unprocessed file in a batch pass and
// decides, per file, whether it is complete or still being written; the
// Tailer follows the one file that is still being written; the Service ties
// both to persistence, directory watching and the reset command.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/journal"
	"github.com/papapumpkin/parallax/internal/telemetry"
)

// FileState is the per-file ingestion state.
type FileState int

const (
	FileUnseen   FileState = iota // listed but not yet read (or read failed)
	FileReading                   // lines are being streamed
	FileComplete                  // Shutdown seen, or EOF on a file from an earlier day
	FileActive                    // EOF without Shutdown on a file modified today
	FileParked                    // qualified as active while another file held the slot
)

// String returns a lowercase name for logs.
func (s FileState) String() string {
	switch s {
	case FileReading:
		return "reading"
	case FileComplete:
		return "complete"
	case FileActive:
		return "active"
	case FileParked:
		return "parked"
	default:
		return "unseen"
	}
}

// Persister accepts snapshots for durable storage without blocking.
type Persister interface {
	Submit(snap catalog.Snapshot)
}

// FileResult is the outcome of reading one file in a pass.
type FileResult struct {
	Name    string
	Path    string
	State   FileState
	Offset  int64 // bytes consumed; the tail reader resumes here
	ModTime time.Time
	Lines   int // lines handed to the catalog
	Skipped int // lines that failed to decode
	Err     error

	events []journal.Event // decoded lines, applied after the read
}

// PassResult summarizes one batch pass.
type PassResult struct {
	Files   []FileResult
	Claimed *FileResult // file that took the active slot in this pass, if any
	Drain   catalog.DrainResult
	Drained bool
}

// CoordinatorConfig holds the configuration for creating a Coordinator.
type CoordinatorConfig struct {
	Dir       string
	Pattern   string
	Workers   int
	Catalog   *catalog.Catalog
	Persister Persister
	Logger    *zap.Logger
	Telemetry *telemetry.Emitter
	// Now returns the current time; the zero value uses time.Now.
	Now func() time.Time
}

// Coordinator owns the per-file state machine: which files are processed,
// which one is active, and which same-day files were parked.
type Coordinator struct {
	dir       string
	pattern   string
	workers   int
	cat       *catalog.Catalog
	persister Persister
	logger    *zap.Logger
	emitter   *telemetry.Emitter
	now       func() time.Time

	mu      sync.Mutex
	active  *FileResult
	parked  map[string]struct{}
	reading int
}

// NewCoordinator creates a Coordinator with the given configuration.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		dir:       cfg.Dir,
		pattern:   cfg.Pattern,
		workers:   cfg.Workers,
		cat:       cfg.Catalog,
		persister: cfg.Persister,
		logger:    cfg.Logger,
		emitter:   cfg.Telemetry,
		now:       cfg.Now,
		parked:    make(map[string]struct{}),
	}
	if c.pattern == "" {
		c.pattern = DefaultPattern
	}
	if c.workers < 1 {
		c.workers = 1
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Active returns the file holding the active slot, if any.
func (c *Coordinator) Active() (FileResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return FileResult{}, false
	}
	return *c.active, true
}

// Settled reports whether no file is currently being read.
func (c *Coordinator) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading == 0
}

// CompleteActive marks the active file complete and frees the slot so a
// newer file can claim it.
func (c *Coordinator) CompleteActive(name string) {
	c.cat.MarkFileComplete(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.Name == name {
		c.active = nil
	}
}

// Reset forgets the active and parked files.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
	c.parked = make(map[string]struct{})
}

func (c *Coordinator) skip(name string) bool {
	if c.cat.FileProcessed(name) {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.Name == name {
		return true
	}
	_, parked := c.parked[name]
	return parked
}

// Pass reads every journal file not yet processed, active or parked, then
// drains the catalog and submits a snapshot. Files are decoded concurrently,
// but their events reach the catalog one file at a time in name order, so a
// system's stars keep the order in which they were discovered. A directory
// listing failure returns a *DirectoryError.
func (c *Coordinator) Pass(ctx context.Context) (PassResult, error) {
	files, err := listJournals(c.dir, c.pattern)
	if err != nil {
		return PassResult{}, err
	}

	var todo []journalFile
	for _, f := range files {
		if !c.skip(f.Name) {
			todo = append(todo, f)
		}
	}
	_ = c.emitter.Record(telemetry.KindPassStart, "", map[string]int{"listed": len(files), "unread": len(todo)})

	c.mu.Lock()
	c.reading += len(todo)
	c.mu.Unlock()
	applied := 0
	defer func() { c.doneReading(len(todo) - applied) }()

	results := make([]FileResult, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, f := range todo {
		g.Go(func() error {
			results[i] = c.readFile(gctx, f)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		for i := range results {
			results[i].events = nil
		}
		return PassResult{Files: results}, err
	}

	res := PassResult{Files: results}
	for i := range results {
		c.apply(&results[i])
		c.settle(&results[i], &res)
		applied++
		c.doneReading(1)
	}

	drain, err := c.cat.Drain(c.Settled())
	switch {
	case err == nil:
		res.Drain, res.Drained = drain, true
		_ = c.emitter.Record(telemetry.KindDrain, "", drain)
	case errors.Is(err, catalog.ErrNotReady):
		// A concurrent pass or pending star holds the drain; it drains later.
		c.logger.Debug("drain deferred", zap.Error(err))
	default:
		return res, err
	}

	if len(todo) > 0 && c.persister != nil {
		c.persister.Submit(c.cat.Snapshot())
	}
	return res, nil
}

func (c *Coordinator) doneReading(n int) {
	c.mu.Lock()
	c.reading -= n
	c.mu.Unlock()
}

// apply hands a file's decoded events to the catalog. A file whose read
// failed contributes nothing; it is read again on the next pass.
func (c *Coordinator) apply(r *FileResult) {
	events := r.events
	r.events = nil
	if r.State == FileUnseen {
		return
	}
	for _, ev := range events {
		c.cat.Apply(ev)
	}
}

// settle applies a file's outcome to the processed set and the active slot.
// Files are settled in name order, so the earliest same-day file claims the
// slot and later ones are parked.
func (c *Coordinator) settle(r *FileResult, res *PassResult) {
	switch r.State {
	case FileComplete:
		c.cat.MarkFileComplete(r.Name)
	case FileActive:
		c.mu.Lock()
		if c.active == nil {
			claimed := *r
			c.active = &claimed
			res.Claimed = &claimed
		} else {
			r.State = FileParked
			c.parked[r.Name] = struct{}{}
			c.logger.Warn("second active journal parked",
				zap.String("file", r.Name),
				zap.String("active", c.active.Name))
		}
		c.mu.Unlock()
	default:
		if r.Err != nil {
			c.logger.Warn("journal read failed", zap.String("file", r.Name), zap.Error(r.Err))
		}
	}
	c.logger.Debug("journal settled",
		zap.String("file", r.Name),
		zap.Stringer("state", r.State),
		zap.Int("lines", r.Lines),
		zap.Int("skipped", r.Skipped))
	_ = c.emitter.Record(telemetry.KindFileSettled, r.Name, map[string]any{
		"state": r.State.String(), "lines": r.Lines, "skipped": r.Skipped, "offset": r.Offset,
	})
}
