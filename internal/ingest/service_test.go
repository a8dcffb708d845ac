package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/store"
)

func newTestService(t *testing.T, journalDir, stateDir string, stream bool) *Service {
	t.Helper()
	st, err := store.NewJSONStore(stateDir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	s := NewService(context.Background(), ServiceConfig{
		Dir:            journalDir,
		Workers:        2,
		PollInterval:   20 * time.Millisecond,
		RescanInterval: time.Hour,
		Stream:         stream,
		Store:          st,
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadState(t *testing.T, stateDir string) catalog.Snapshot {
	t.Helper()
	st, err := store.NewJSONStore(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return snap
}

func waitForView(t *testing.T, ch <-chan View, ok func(View) bool) View {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-ch:
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for view")
			return View{}
		}
	}
}

func TestService_RunOncePersists(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	name := "Journal.2024-05-01T100000.01.log"
	writeJournal(t, journals, name,
		starLine("Sol", "Sol", 0, "K", "V"),
		bodyLine("Sol", "Sol 1", 1, "Earthlike body", 0),
		shutdownLine,
	)
	s := newTestService(t, journals, state, false)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	v := s.Snapshot()
	if v.Table["K V"].EarthlikeBody != 1 || v.ActiveFile != "" || v.Status != nil {
		t.Errorf("view = %+v", v)
	}
	snap := loadState(t, state)
	if !slices.Contains(snap.ProcessedFiles, name) {
		t.Errorf("persisted files = %v, want %s", snap.ProcessedFiles, name)
	}
	if snap.Table["K V"].EarthlikeBody != 1 {
		t.Errorf("persisted table = %+v", snap.Table)
	}
}

func TestService_RestoresPersistedState(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	writeJournal(t, journals, "Journal.2024-05-01T100000.01.log",
		starLine("Sol", "Sol", 0, "K", "V"),
		bodyLine("Sol", "Sol 1", 1, "Earthlike body", 0),
		shutdownLine,
	)
	first := newTestService(t, journals, state, false)
	if _, err := first.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := newTestService(t, journals, state, false)
	res, err := second.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 0 {
		t.Errorf("restarted service re-read %d files", len(res.Files))
	}
	if got := second.Snapshot().Table["K V"].EarthlikeBody; got != 1 {
		t.Errorf("earthlike after restart = %d, want 1", got)
	}
}

func TestService_FailedSaveDoesNotDoubleCount(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	// Today's journal without Shutdown stays unprocessed and is read again
	// after a restart.
	writeJournal(t, journals, "Journal.2024-05-01T100000.01.log",
		starLine("Sol", "Sol", 0, "K", "V"),
		bodyLine("Sol", "Sol 1", 1, "Earthlike body", 0),
	)
	if err := os.Mkdir(filepath.Join(state, "bodies.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	first := newTestService(t, journals, state, false)
	if _, err := first.RunOnce(context.Background()); !errors.Is(err, store.ErrWrite) {
		t.Fatalf("RunOnce err = %v, want ErrWrite", err)
	}
	if first.Snapshot().Status == nil {
		t.Error("failed save not reported in status")
	}
	_ = first.Close()

	second := newTestService(t, journals, state, false)
	if _, err := second.RunOnce(context.Background()); !errors.Is(err, store.ErrWrite) {
		t.Fatalf("RunOnce err = %v, want ErrWrite", err)
	}

	if got := second.Snapshot().Table["K V"].EarthlikeBody; got != 1 {
		t.Errorf("earthlike after restart = %d, want 1", got)
	}
}

func TestService_Reset(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	writeJournal(t, journals, "Journal.2024-05-01T100000.01.log",
		starLine("Sol", "Sol", 0, "K", "V"),
		bodyLine("Sol", "Sol 1", 1, "Earthlike body", 0),
		shutdownLine,
	)
	s := newTestService(t, journals, state, false)
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if v := s.Snapshot(); len(v.Table) != 0 || len(v.ProcessedFiles) != 0 {
		t.Errorf("view after reset = %+v", v)
	}
	if snap := loadState(t, state); len(snap.ProcessedFiles) != 0 || len(snap.Stars) != 0 {
		t.Errorf("persisted after reset = %+v", snap)
	}

	// Everything is counted again exactly once.
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Table["K V"].EarthlikeBody; got != 1 {
		t.Errorf("earthlike after rescan = %d, want 1", got)
	}
}

func TestService_DirectoryErrorInStatus(t *testing.T) {
	t.Parallel()
	s := newTestService(t, t.TempDir()+"/missing", t.TempDir(), false)

	_, err := s.RunOnce(context.Background())

	if !errors.Is(err, ErrDirectory) {
		t.Fatalf("RunOnce = %v, want ErrDirectory", err)
	}
	if !errors.Is(s.Snapshot().Status, ErrDirectory) {
		t.Errorf("status = %v", s.Snapshot().Status)
	}
}

func TestService_RunRequiresStream(t *testing.T) {
	t.Parallel()
	s := newTestService(t, t.TempDir(), t.TempDir(), false)

	if err := s.Run(context.Background()); !errors.Is(err, ErrNotStreaming) {
		t.Errorf("Run = %v, want ErrNotStreaming", err)
	}
}

func TestService_TailsActiveFileUntilShutdown(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	name := "Journal.2024-05-01T100000.01.log"
	path := writeJournal(t, journals, name, starLine("Sol", "Sol", 0, "K", "V"))
	s := newTestService(t, journals, state, true)
	views := s.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitForView(t, views, func(v View) bool { return v.ActiveFile == name })

	appendJournal(t, path, bodyLine("Sol", "Sol 2", 2, "Water world", 0)+"\n")
	waitForView(t, views, func(v View) bool { return v.Table["K V"].WaterWorld == 1 })

	appendJournal(t, path, shutdownLine+"\n")
	v := waitForView(t, views, func(v View) bool {
		return v.ActiveFile == "" && slices.Contains(v.ProcessedFiles, name)
	})
	if v.Table["K V"].WaterWorld != 1 {
		t.Errorf("water worlds = %d, want 1", v.Table["K V"].WaterWorld)
	}
}

func TestService_ResetStopsTail(t *testing.T) {
	t.Parallel()
	journals, state := t.TempDir(), t.TempDir()
	name := "Journal.2024-05-01T100000.01.log"
	writeJournal(t, journals, name, starLine("Sol", "Sol", 0, "K", "V"))
	s := newTestService(t, journals, state, true)
	views := s.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	waitForView(t, views, func(v View) bool { return v.ActiveFile == name })

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// The rescan after reset re-reads the file and claims it again.
	waitForView(t, views, func(v View) bool { return v.ActiveFile == name && len(v.Table) == 1 })
}
