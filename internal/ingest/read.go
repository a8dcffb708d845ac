package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/journal"
)

// readFile decodes one file into its result's event buffer and stops at a
// Shutdown event. A trailing line without a newline is consumed only when
// the file turns out to be complete; for an active file the offset stays at
// the last newline so the tail reader sees the full line once it is finished.
func (c *Coordinator) readFile(ctx context.Context, jf journalFile) FileResult {
	res := FileResult{Name: jf.Name, Path: jf.Path, State: FileUnseen, ModTime: jf.ModTime}

	f, err := os.Open(jf.Path)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", jf.Name, err)
		return res
	}
	defer f.Close()

	res.State = FileReading
	r := bufio.NewReaderSize(f, 64*1024)
	var partial []byte
	for {
		if err := ctx.Err(); err != nil {
			res.State, res.Err = FileUnseen, err
			return res
		}
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				partial = line
			} else {
				res.Offset += int64(len(line))
				if c.feed(line, &res) {
					res.State = FileComplete
					return res
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.State, res.Err = FileUnseen, fmt.Errorf("read %s: %w", jf.Name, err)
			return res
		}
	}

	if info, err := f.Stat(); err == nil {
		res.ModTime = info.ModTime()
	}
	if sameDay(res.ModTime, c.now()) {
		res.State = FileActive
		return res
	}

	res.State = FileComplete
	if len(partial) > 0 {
		res.Offset += int64(len(partial))
		c.feed(partial, &res)
	}
	return res
}

// feed decodes one line and queues its event. It reports whether the line
// was the file's Shutdown event.
func (c *Coordinator) feed(line []byte, res *FileResult) bool {
	ev, ok := decodeLine(c.logger, res.Name, line)
	if !ok {
		res.Skipped++
		return false
	}
	res.Lines++
	if ev == nil {
		return false
	}
	res.events = append(res.events, *ev)
	return ev.Event == journal.EventShutdown
}

// decodeLine decodes a single journal line. ok is false for lines that did
// not decode; a blank line is ok with a nil event.
func decodeLine(logger *zap.Logger, file string, line []byte) (*journal.Event, bool) {
	line = bytes.TrimRight(line, "\r\n")
	ev, err := journal.Decode(line)
	if errors.Is(err, journal.ErrEmptyLine) {
		return nil, true
	}
	if err != nil {
		logger.Warn("skipping journal line", zap.String("file", file), zap.Error(err))
		return nil, false
	}
	return &ev, true
}

// applyLine decodes and applies a single journal line.
func applyLine(cat *catalog.Catalog, logger *zap.Logger, file string, line []byte) (shutdown, ok bool) {
	ev, ok := decodeLine(logger, file, line)
	if !ok || ev == nil {
		return false, ok
	}
	return cat.Apply(*ev) == journal.ClassShutdown, true
}
