package ingest

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of journal file change detected.
type ChangeKind int

const (
	ChangeWritten ChangeKind = iota // existing journal grew
	ChangeCreated                   // new journal appeared
)

// Change is a debounced notification about one journal file.
type Change struct {
	Kind ChangeKind
	Name string // base name
}

// Watcher monitors the journal directory using fsnotify and reports debounced
// changes to files matching the journal pattern.
type Watcher struct {
	Dir     string
	Changes <-chan Change // Read-only external channel

	pattern  string
	debounce time.Duration
	changes  chan Change // Internal write channel
	done     chan struct{}
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for dir reporting files matching pattern.
func NewWatcher(dir, pattern string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:      dir,
		Changes:  ch,
		pattern:  pattern,
		debounce: 100 * time.Millisecond,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: the game flushes a line at a time, so coalesce bursts per file.
	// A create seen within the window wins over later writes.
	type pendingChange struct {
		kind ChangeKind
		at   time.Time
	}
	pending := make(map[string]pendingChange)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !matchJournal(w.pattern, name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				pending[name] = pendingChange{kind: ChangeCreated, at: time.Now()}
			case event.Has(fsnotify.Write):
				p, seen := pending[name]
				if !seen {
					p.kind = ChangeWritten
				}
				p.at = time.Now()
				pending[name] = p
			}

		case <-ticker.C:
			now := time.Now()
			for name, p := range pending {
				if now.Sub(p.at) < w.debounce {
					continue
				}
				select {
				case w.changes <- Change{Kind: p.kind, Name: name}:
					delete(pending, name)
				default:
					// Consumer is behind; retry on the next tick.
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the poll fallbacks cover gaps.
		}
	}
}
