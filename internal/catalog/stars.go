package catalog

import (
	"sort"
	"strings"
)

// StarRecord is one committed star: its system, per-system body ID and the
// derived type label ("K1 V").
type StarRecord struct {
	System   string `json:"system"`
	BodyID   int    `json:"body_id"`
	StarType string `json:"star_type"`
}

// starToken identifies a star scan that has been observed but not yet
// committed.
type starToken struct {
	System string
	BodyID int
}

type system struct {
	byID  map[int]StarRecord
	order []int // body IDs in first-insertion order
}

// Stars maps system name -> body ID -> StarRecord and remembers the order in
// which each system's stars were first recorded. Not safe for concurrent use.
type Stars struct {
	systems map[string]*system
}

// NewStars returns an empty star catalog.
func NewStars() *Stars {
	return &Stars{systems: make(map[string]*system)}
}

// Put inserts or overwrites a star. Re-recording an existing (system, body)
// pair replaces its label and keeps its original position.
func (s *Stars) Put(rec StarRecord) {
	sys, ok := s.systems[rec.System]
	if !ok {
		sys = &system{byID: make(map[int]StarRecord)}
		s.systems[rec.System] = sys
	}
	if _, exists := sys.byID[rec.BodyID]; !exists {
		sys.order = append(sys.order, rec.BodyID)
	}
	sys.byID[rec.BodyID] = rec
}

// Get returns the star recorded under (systemName, bodyID).
func (s *Stars) Get(systemName string, bodyID int) (StarRecord, bool) {
	sys, ok := s.systems[systemName]
	if !ok {
		return StarRecord{}, false
	}
	rec, ok := sys.byID[bodyID]
	return rec, ok
}

// HasSystem reports whether any star has been recorded for systemName.
func (s *Stars) HasSystem(systemName string) bool {
	_, ok := s.systems[systemName]
	return ok
}

// Ordered returns the system's stars in insertion order.
func (s *Stars) Ordered(systemName string) []StarRecord {
	sys, ok := s.systems[systemName]
	if !ok {
		return nil
	}
	out := make([]StarRecord, 0, len(sys.order))
	for _, id := range sys.order {
		out = append(out, sys.byID[id])
	}
	return out
}

// Systems returns every known system name, sorted.
func (s *Stars) Systems() []string {
	names := make([]string, 0, len(s.systems))
	for name := range s.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// count returns the total number of stars across all systems.
func (s *Stars) count() int {
	n := 0
	for _, sys := range s.systems {
		n += len(sys.byID)
	}
	return n
}

// MatchSystem returns the longest known system name that prefixes bodyName
// on a word boundary, or "" when none does.
func (s *Stars) MatchSystem(bodyName string) string {
	best := ""
	for name := range s.systems {
		if len(name) <= len(best) || !strings.HasPrefix(bodyName, name) {
			continue
		}
		if len(bodyName) > len(name) && bodyName[len(name)] != ' ' {
			continue
		}
		best = name
	}
	return best
}

// All returns every star grouped by system (sorted) in insertion order.
func (s *Stars) All() []StarRecord {
	var out []StarRecord
	for _, name := range s.Systems() {
		out = append(out, s.Ordered(name)...)
	}
	return out
}
