package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/parallax/internal/catalog"
)

func starLine(system, body string, id int, class, lum string) string {
	return fmt.Sprintf(`{"timestamp":"2024-05-01T10:00:00Z","event":"Scan","ScanType":"Detailed","StarSystem":%q,"BodyName":%q,"BodyID":%d,"StarType":%q,"Luminosity":%q}`,
		system, body, id, class, lum)
}

func bodyLine(system, body string, id int, planetClass string, starParent int) string {
	return fmt.Sprintf(`{"timestamp":"2024-05-01T10:01:00Z","event":"Scan","ScanType":"Detailed","StarSystem":%q,"BodyName":%q,"BodyID":%d,"PlanetClass":%q,"Parents":[{"Star":%d}]}`,
		system, body, id, planetClass, starParent)
}

// orbitLine is a planet scan whose parents name no star, as logged for
// bodies orbiting a barycenter.
func orbitLine(system, body string, id int, planetClass string) string {
	return fmt.Sprintf(`{"timestamp":"2024-05-01T10:02:00Z","event":"Scan","ScanType":"Detailed","StarSystem":%q,"BodyName":%q,"BodyID":%d,"PlanetClass":%q,"Parents":[{"Null":%d}]}`,
		system, body, id, planetClass, id-1)
}

const fsdJumpLine = `{"timestamp":"2024-05-01T09:59:00Z","event":"FSDJump","StarSystem":"Xi"}`

const shutdownLine = `{"timestamp":"2024-05-01T11:00:00Z","event":"Shutdown"}`

// writeJournal writes lines (newline-terminated) to dir/name and returns the
// full path.
func writeJournal(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func appendJournal(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
}

// age sets a file's mtime two days into the past so it no longer counts as
// today's journal.
func age(t *testing.T, path string) {
	t.Helper()
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// recordingPersister remembers submitted snapshots.
type recordingPersister struct {
	count int
}

func (p *recordingPersister) Submit(catalog.Snapshot) { p.count++ }
