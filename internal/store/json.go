package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/papapumpkin/parallax/internal/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document file names inside the state directory.
const (
	docStars   = "stars.json"   // "<system>#<bodyID>" -> star type
	docSystems = "systems.json" // system -> stars in insertion order
	docFiles   = "files.json"   // processed journal file names
	docTable   = "table.json"   // star label -> category counts
	docBodies  = "bodies.json"  // processed body names
)

var documents = []string{docStars, docSystems, docFiles, docTable, docBodies}

type systemStar struct {
	BodyID   int    `json:"body_id"`
	StarType string `json:"star_type"`
}

// JSONStore keeps each part of the snapshot in its own document so a corrupt
// file only loses that part.
type JSONStore struct {
	dir string
}

// NewJSONStore creates dir if needed and returns a store rooted there.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create state dir: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Load reads every document. Missing documents are empty; if none exist an
// empty snapshot is written so later runs find a store in place.
func (s *JSONStore) Load(ctx context.Context) (catalog.Snapshot, error) {
	var (
		snap    catalog.Snapshot
		errs    []error
		missing int
	)
	note := func(found bool, err error) {
		if err != nil {
			errs = append(errs, err)
		}
		if !found {
			missing++
		}
	}

	flat, found, err := readDoc[map[string]string](s.dir, docStars)
	note(found, err)
	systems, found, err := readDoc[map[string][]systemStar](s.dir, docSystems)
	note(found, err)
	snap.ProcessedFiles, found, err = readDoc[[]string](s.dir, docFiles)
	note(found, err)
	snap.ProcessedBodies, found, err = readDoc[[]string](s.dir, docBodies)
	note(found, err)
	snap.Table, found, err = readDoc[catalog.Table](s.dir, docTable)
	note(found, err)

	snap.Stars = mergeStars(systems, flat)
	if snap.Table == nil {
		snap.Table = make(catalog.Table)
	}

	if missing == len(documents) {
		if err := s.Save(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return snap, errors.Join(errs...)
}

// readDoc decodes one document. found is false when the file does not
// exist. A corrupt document yields the zero value and a *ReadError.
func readDoc[T any](dir, doc string) (v T, found bool, err error) {
	data, err := os.ReadFile(filepath.Join(dir, doc))
	if err != nil {
		if os.IsNotExist(err) {
			return v, false, nil
		}
		return v, false, &ReadError{Document: doc, Err: err}
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v, true, &ReadError{Document: doc, Err: err}
	}
	return out, true, nil
}

// mergeStars rebuilds the ordered star list. systems.json carries insertion
// order; stars.json entries missing from it (or all of them, when
// systems.json is lost) are appended in key order.
func mergeStars(systems map[string][]systemStar, flat map[string]string) []catalog.StarRecord {
	var out []catalog.StarRecord
	seen := make(map[string]bool)

	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, st := range systems[name] {
			key := starKey(name, st.BodyID)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, catalog.StarRecord{System: name, BodyID: st.BodyID, StarType: st.StarType})
		}
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		system, id, ok := parseStarKey(k)
		if !ok {
			continue
		}
		out = append(out, catalog.StarRecord{System: system, BodyID: id, StarType: flat[k]})
	}
	return out
}

func starKey(system string, bodyID int) string {
	return system + "#" + strconv.Itoa(bodyID)
}

func parseStarKey(key string) (string, int, bool) {
	i := strings.LastIndexByte(key, '#')
	if i < 0 {
		return "", 0, false
	}
	id, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, false
	}
	return key[:i], id, true
}

// Save writes every document with temp-file-and-rename. The star documents
// are independent. Bodies, table and files are written in that order and a
// failure stops the chain: a body may then be missing from the table, but
// never counted without its dedup entry or skipped as a processed file
// without its counts.
func (s *JSONStore) Save(_ context.Context, snap catalog.Snapshot) error {
	flat := make(map[string]string, len(snap.Stars))
	systems := make(map[string][]systemStar)
	for _, rec := range snap.Stars {
		flat[starKey(rec.System, rec.BodyID)] = rec.StarType
		systems[rec.System] = append(systems[rec.System], systemStar{BodyID: rec.BodyID, StarType: rec.StarType})
	}
	files := snap.ProcessedFiles
	if files == nil {
		files = []string{}
	}
	bodies := snap.ProcessedBodies
	if bodies == nil {
		bodies = []string{}
	}
	table := snap.Table
	if table == nil {
		table = catalog.Table{}
	}

	var errs []error
	for _, w := range []docWrite{{docStars, flat}, {docSystems, systems}} {
		if err := s.writeDoc(w.doc, w.v); err != nil {
			errs = append(errs, err)
		}
	}
	for _, w := range []docWrite{{docBodies, bodies}, {docTable, table}, {docFiles, files}} {
		if err := s.writeDoc(w.doc, w.v); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return errors.Join(errs...)
}

type docWrite struct {
	doc string
	v   any
}

func (s *JSONStore) writeDoc(doc string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{Document: doc, Err: err}
	}

	path := filepath.Join(s.dir, doc)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &WriteError{Document: doc, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &WriteError{Document: doc, Err: err}
	}
	return nil
}

// Reset deletes every document.
func (s *JSONStore) Reset(_ context.Context) error {
	var errs []error
	for _, doc := range documents {
		if err := os.Remove(filepath.Join(s.dir, doc)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, &WriteError{Document: doc, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Close is a no-op; documents are not held open.
func (s *JSONStore) Close() error { return nil }
