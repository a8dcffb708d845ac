// Package catalog owns the derived state built from journal events: the star
// catalog, the pending star and body queues, the classification table and
// the processed file and body sets.
//
// Bodies are never classified on arrival. They are cached until the caller
// reports that every known file has settled and no star scan is pending, and
// then drained against the now-stable star catalog. A Catalog is the single
// serialization point of the pipeline: every method takes its mutex.
package catalog

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/journal"
)

// Phase is the state of the body resolution engine.
type Phase int

const (
	PhaseIdle     Phase = iota // cache empty
	PhaseCaching               // bodies waiting for a stable star catalog
	PhaseDraining              // resolving cached bodies
)

// String returns a lowercase name for logs and status output.
func (p Phase) String() string {
	switch p {
	case PhaseCaching:
		return "caching"
	case PhaseDraining:
		return "draining"
	default:
		return "idle"
	}
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Counted int // bodies added to a star row
	Unknown int // bodies added to the Unknown row
	Skipped int // bodies already in the processed set
}

// Catalog is the owned context passed to every pipeline stage. Construct a
// fresh one per ingestion run (or per test) with New.
type Catalog struct {
	mu     sync.Mutex
	logger *zap.Logger

	classifier      *journal.Classifier
	stars           *Stars
	pendingStars    map[starToken]struct{}
	cache           []journal.Event
	processedBodies map[string]struct{}
	processedFiles  map[string]struct{}
	table           Table
	phase           Phase
}

// New returns an empty catalog. A nil logger disables logging.
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{logger: logger}
	c.clear()
	return c
}

func (c *Catalog) clear() {
	c.classifier = journal.NewClassifier()
	c.stars = NewStars()
	c.pendingStars = make(map[starToken]struct{})
	c.cache = nil
	c.processedBodies = make(map[string]struct{})
	c.processedFiles = make(map[string]struct{})
	c.table = make(Table)
	c.phase = PhaseIdle
}

// Reset clears every entity back to the empty state.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// Apply classifies ev and applies its side effects. Star scans are committed
// immediately; tracked planet scans are cached for the next drain. The
// returned class tells the caller whether the file reached its terminal
// Shutdown event.
func (c *Catalog) Apply(ev journal.Event) journal.Class {
	c.mu.Lock()
	defer c.mu.Unlock()

	class := c.classifier.Classify(ev)
	switch class {
	case journal.ClassStarScan:
		system := ev.StarSystem
		if system == "" {
			system = journal.SystemFromBody(ev.BodyName)
		}
		tok := starToken{System: system, BodyID: int(ev.BodyID)}
		c.observeStarLocked(tok)
		c.commitStarLocked(StarRecord{System: system, BodyID: tok.BodyID, StarType: ev.StarLabel()})
	case journal.ClassBodyScan:
		c.cache = append(c.cache, ev)
		c.phase = PhaseCaching
	}
	return class
}

// observeStar records that a star scan for tok has been seen but not yet
// committed. Drain refuses to run until a matching commitStar. Apply commits
// a star in the same step it observes it, so the gate only holds while a
// commit is deferred.
func (c *Catalog) observeStar(tok starToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observeStarLocked(tok)
}

// commitStar stores rec and clears its pending token.
func (c *Catalog) commitStar(rec StarRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitStarLocked(rec)
}

func (c *Catalog) observeStarLocked(tok starToken) {
	c.pendingStars[tok] = struct{}{}
}

func (c *Catalog) commitStarLocked(rec StarRecord) {
	c.stars.Put(rec)
	c.table.ensure(rec.StarType)
	delete(c.pendingStars, starToken{System: rec.System, BodyID: rec.BodyID})
}

// pendingStarCount returns the number of observed but uncommitted star scans.
func (c *Catalog) pendingStarCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pendingStars)
}

// PendingBodies returns the number of cached bodies awaiting a drain.
func (c *Catalog) PendingBodies() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Phase returns the current engine phase.
func (c *Catalog) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Drain resolves every cached body. filesSettled is the coordinator's
// statement that every known file has reached end-of-file or its terminal
// event; together with an empty pending star set it gates the drain.
func (c *Catalog) Drain(filesSettled bool) (DrainResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !filesSettled || len(c.pendingStars) > 0 {
		return DrainResult{}, ErrNotReady
	}

	c.phase = PhaseDraining
	var res DrainResult
	for _, ev := range c.cache {
		if _, done := c.processedBodies[ev.BodyName]; done {
			res.Skipped++
			continue
		}
		cat, _ := journal.CategoryOf(ev.PlanetClass)
		label, err := c.resolveLocked(ev)
		if err != nil {
			c.logger.Debug("body routed to unknown",
				zap.String("body", ev.BodyName),
				zap.String("system", ev.StarSystem),
				zap.Error(err))
			label = UnknownLabel
			res.Unknown++
		} else {
			res.Counted++
		}
		c.table.increment(label, cat)
		c.processedBodies[ev.BodyName] = struct{}{}
	}
	c.cache = nil
	c.phase = PhaseIdle
	return res, nil
}

// MarkFileComplete adds a journal file to the processed set.
func (c *Catalog) MarkFileComplete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processedFiles[name] = struct{}{}
}

// FileProcessed reports whether name is in the processed set.
func (c *Catalog) FileProcessed(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.processedFiles[name]
	return ok
}

// bodyProcessed reports whether a body has already been counted.
func (c *Catalog) bodyProcessed(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.processedBodies[name]
	return ok
}

// Table returns a copy of the classification table.
func (c *Catalog) Table() Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Clone()
}

// Star returns the star recorded under (system, bodyID).
func (c *Catalog) Star(system string, bodyID int) (StarRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stars.Get(system, bodyID)
}

// Snapshot is the durable form of a Catalog.
type Snapshot struct {
	Stars           []StarRecord
	ProcessedFiles  []string
	ProcessedBodies []string
	Table           Table
}

// Snapshot copies the persistent state. Cached bodies and pending stars are
// runtime-only and not included.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Stars:           c.stars.All(),
		ProcessedFiles:  sortedKeys(c.processedFiles),
		ProcessedBodies: sortedKeys(c.processedBodies),
		Table:           c.table.Clone(),
	}
}

// Restore replaces the catalog's state with snap.
func (c *Catalog) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	for _, rec := range snap.Stars {
		c.stars.Put(rec)
	}
	for _, f := range snap.ProcessedFiles {
		c.processedFiles[f] = struct{}{}
	}
	for _, b := range snap.ProcessedBodies {
		c.processedBodies[b] = struct{}{}
	}
	for label, counts := range snap.Table {
		c.table[label] = counts
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
