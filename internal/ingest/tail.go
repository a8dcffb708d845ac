package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/catalog"
)

// DefaultPollInterval is the fallback wake-up interval for the tail reader
// when no filesystem notification arrives.
const DefaultPollInterval = 2 * time.Second

// TailDelta describes one read of newly appended bytes.
type TailDelta struct {
	Bytes     int64 // bytes read in this delta
	Lines     int   // complete lines handed to the catalog
	Skipped   int   // lines that failed to decode
	Truncated bool  // the file shrank and was re-read from the start
	Shutdown  bool  // a Shutdown event was read
	Offset    int64 // offset after the read
}

// Tailer follows one growing journal file from a byte offset, feeding each
// completed line through the catalog.
type Tailer struct {
	name    string
	path    string
	cat     *catalog.Catalog
	logger  *zap.Logger
	poll    time.Duration
	wake    chan struct{}
	offset  int64
	modTime time.Time
	partial []byte
}

// TailerConfig holds the configuration for creating a Tailer.
type TailerConfig struct {
	Name         string
	Path         string
	Offset       int64
	ModTime      time.Time
	Catalog      *catalog.Catalog
	Logger       *zap.Logger
	PollInterval time.Duration
}

// NewTailer creates a Tailer that resumes at cfg.Offset.
func NewTailer(cfg TailerConfig) *Tailer {
	t := &Tailer{
		name:    cfg.Name,
		path:    cfg.Path,
		cat:     cfg.Catalog,
		logger:  cfg.Logger,
		poll:    cfg.PollInterval,
		wake:    make(chan struct{}, 1),
		offset:  cfg.Offset,
		modTime: cfg.ModTime,
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.poll <= 0 {
		t.poll = DefaultPollInterval
	}
	return t
}

// Name returns the base name of the followed file.
func (t *Tailer) Name() string { return t.name }

// Offset returns the number of bytes consumed so far.
func (t *Tailer) Offset() int64 { return t.offset }

// Notify wakes the tailer after a filesystem change. It never blocks.
func (t *Tailer) Notify() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Run reads deltas until a Shutdown event is seen (returns nil) or ctx is
// cancelled (returns ctx.Err()). onDelta is called after every read that
// consumed bytes. Read errors are logged and retried on the next wake.
func (t *Tailer) Run(ctx context.Context, onDelta func(TailDelta)) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		d, err := t.Poll()
		if err != nil {
			t.logger.Warn("tail read failed", zap.String("file", t.name), zap.Error(err))
		} else if d.Bytes > 0 || d.Truncated {
			if onDelta != nil {
				onDelta(d)
			}
			if d.Shutdown {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.wake:
		case <-ticker.C:
		}
	}
}

// Poll performs one read step: stat the file, detect truncation, read the
// bytes appended since the last step with a positioned read and apply every
// completed line. An unterminated trailing fragment is kept for the next
// step.
func (t *Tailer) Poll() (TailDelta, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return TailDelta{Offset: t.offset}, fmt.Errorf("stat %s: %w", t.name, err)
	}

	var d TailDelta
	size := info.Size()
	if size < t.offset {
		t.logger.Info("journal truncated, rereading", zap.String("file", t.name),
			zap.Int64("size", size), zap.Int64("offset", t.offset))
		t.offset = 0
		t.partial = nil
		d.Truncated = true
	}
	if size == t.offset {
		t.modTime = info.ModTime()
		d.Offset = t.offset
		return d, nil
	}

	buf, err := t.readAt(t.offset, size-t.offset)
	if err != nil {
		d.Offset = t.offset
		return d, err
	}
	t.offset += int64(len(buf))
	t.modTime = info.ModTime()
	d.Bytes = int64(len(buf))

	data := append(t.partial, buf...)
	t.partial = nil
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			t.partial = append([]byte(nil), data...)
			break
		}
		line := data[:i]
		data = data[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		shutdown, ok := applyLine(t.cat, t.logger, t.name, line)
		if !ok {
			d.Skipped++
			continue
		}
		d.Lines++
		if shutdown {
			d.Shutdown = true
			t.partial = nil
			break
		}
	}
	d.Offset = t.offset
	return d, nil
}

// readAt reads exactly n bytes at off, or fewer if the file shrank between
// the stat and the read.
func (t *Tailer) readAt(off, n int64) ([]byte, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.name, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s at %d: %w", t.name, off, err)
	}
	return buf[:read], nil
}
