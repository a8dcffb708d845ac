package ingest

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/papapumpkin/parallax/internal/catalog"
)

func newTestTailer(t *testing.T, path string, offset int64) (*Tailer, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New(nil)
	tl := NewTailer(TailerConfig{
		Name:         "Journal.2024-05-01T100000.01.log",
		Path:         path,
		Offset:       offset,
		Catalog:      cat,
		PollInterval: 10 * time.Millisecond,
	})
	return tl, cat
}

func mustPoll(t *testing.T, tl *Tailer) TailDelta {
	t.Helper()
	d, err := tl.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	return d
}

func TestTailer_ReadsOnlyAppendedBytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := starLine("Sol", "Sol", 0, "K", "V")
	path := writeJournal(t, dir, "Journal.2024-05-01T100000.01.log", first)
	tl, cat := newTestTailer(t, path, int64(len(first)+1))

	if d := mustPoll(t, tl); d.Bytes != 0 || d.Lines != 0 {
		t.Fatalf("idle poll = %+v, want nothing read", d)
	}
	if _, ok := cat.Star("Sol", 0); ok {
		t.Fatal("tailer re-read bytes before its offset")
	}

	line := starLine("Lave", "Lave", 0, "G", "V") + "\n"
	appendJournal(t, path, line)
	d := mustPoll(t, tl)

	if d.Bytes != int64(len(line)) || d.Lines != 1 {
		t.Errorf("delta = %+v, want %d bytes and 1 line", d, len(line))
	}
	if _, ok := cat.Star("Lave", 0); !ok {
		t.Error("appended star not recorded")
	}
	if tl.Offset() != int64(len(first)+1+len(line)) {
		t.Errorf("offset = %d", tl.Offset())
	}
}

func TestTailer_KeepsPartialLine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeJournal(t, dir, "Journal.2024-05-01T100000.01.log")
	tl, cat := newTestTailer(t, path, 0)

	line := starLine("Sol", "Sol", 0, "K", "V")
	appendJournal(t, path, line[:20])
	if d := mustPoll(t, tl); d.Lines != 0 || d.Skipped != 0 {
		t.Fatalf("partial poll = %+v, want no lines", d)
	}

	appendJournal(t, path, line[20:]+"\r\n")
	if d := mustPoll(t, tl); d.Lines != 1 || d.Skipped != 0 {
		t.Fatalf("completing poll = %+v, want 1 line", d)
	}
	if _, ok := cat.Star("Sol", 0); !ok {
		t.Error("star split across reads not recorded")
	}
}

func TestTailer_TruncationRereadsFromStart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeJournal(t, dir, "Journal.2024-05-01T100000.01.log",
		starLine("Sol", "Sol", 0, "K", "V"),
		starLine("Lave", "Lave", 0, "G", "V"),
	)
	tl, cat := newTestTailer(t, path, 0)
	mustPoll(t, tl)

	short := starLine("Diso", "Diso", 0, "M", "V") + "\n"
	if err := os.WriteFile(path, []byte(short), 0o644); err != nil {
		t.Fatal(err)
	}
	d := mustPoll(t, tl)

	if !d.Truncated {
		t.Error("truncation not reported")
	}
	if d.Offset != int64(len(short)) {
		t.Errorf("offset = %d, want %d", d.Offset, len(short))
	}
	if _, ok := cat.Star("Diso", 0); !ok {
		t.Error("rewritten content not read")
	}
}

func TestTailer_RunStopsAtShutdown(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeJournal(t, dir, "Journal.2024-05-01T100000.01.log",
		starLine("Sol", "Sol", 0, "K", "V"),
		bodyLine("Sol", "Sol 1", 1, "Earthlike body", 0),
	)
	tl, cat := newTestTailer(t, path, 0)

	deltas := make(chan TailDelta, 16)
	errc := make(chan error, 1)
	go func() { errc <- tl.Run(context.Background(), func(d TailDelta) { deltas <- d }) }()

	first := <-deltas
	if first.Lines != 2 || first.Shutdown {
		t.Fatalf("first delta = %+v", first)
	}

	appendJournal(t, path, shutdownLine+"\n"+starLine("Lave", "Lave", 0, "G", "V")+"\n")
	tl.Notify()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run = %v, want nil after Shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	last := <-deltas
	if !last.Shutdown {
		t.Errorf("last delta = %+v, want Shutdown", last)
	}
	if _, ok := cat.Star("Lave", 0); ok {
		t.Error("line after Shutdown was applied")
	}
}

func TestTailer_RunCancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeJournal(t, dir, "Journal.2024-05-01T100000.01.log")
	tl, _ := newTestTailer(t, path, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- tl.Run(ctx, nil) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
}

func TestTailer_MissingFileIsRetried(t *testing.T) {
	t.Parallel()
	tl, _ := newTestTailer(t, t.TempDir()+"/gone.log", 0)

	if _, err := tl.Poll(); err == nil {
		t.Fatal("Poll on missing file returned nil error")
	}
	if tl.Offset() != 0 {
		t.Errorf("offset moved to %d", tl.Offset())
	}
}
