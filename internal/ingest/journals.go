package ingest

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultPattern matches the game's journal file names, e.g.
// "Journal.2024-05-01T101010.01.log".
const DefaultPattern = "Journal.*.log"

// journalFile is one candidate file from a directory listing.
type journalFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// listJournals returns the regular files in dir whose names match pattern,
// sorted by name. Journal names embed their creation timestamp, so name order
// is chronological.
func listJournals(dir, pattern string) ([]journalFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Err: err}
	}

	var out []journalFile
	for _, e := range entries {
		if e.IsDir() || !matchJournal(pattern, e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, journalFile{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func matchJournal(pattern, name string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// sameDay reports whether a and b fall on the same local calendar date.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
