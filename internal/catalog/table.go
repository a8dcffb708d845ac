package catalog

import (
	"sort"

	"github.com/papapumpkin/parallax/internal/journal"
)

// UnknownLabel is the synthetic row for bodies whose governing star could not
// be determined.
const UnknownLabel = "Unknown"

// Counts holds per-category planet counts for one star label.
type Counts struct {
	EarthlikeBody int `json:"EarthlikeBody" toml:"EarthlikeBody"`
	AmmoniaWorld  int `json:"AmmoniaWorld" toml:"AmmoniaWorld"`
	WaterWorld    int `json:"WaterWorld" toml:"WaterWorld"`
}

// Get returns the count for cat.
func (c Counts) Get(cat journal.Category) int {
	switch cat {
	case journal.EarthlikeBody:
		return c.EarthlikeBody
	case journal.AmmoniaWorld:
		return c.AmmoniaWorld
	case journal.WaterWorld:
		return c.WaterWorld
	}
	return 0
}

// Total returns the sum over all categories.
func (c Counts) Total() int {
	return c.EarthlikeBody + c.AmmoniaWorld + c.WaterWorld
}

func (c *Counts) add(cat journal.Category) {
	switch cat {
	case journal.EarthlikeBody:
		c.EarthlikeBody++
	case journal.AmmoniaWorld:
		c.AmmoniaWorld++
	case journal.WaterWorld:
		c.WaterWorld++
	}
}

// Table maps a star label to its category counts.
type Table map[string]Counts

// ensure creates a zero row for label if it is missing.
func (t Table) ensure(label string) {
	if _, ok := t[label]; !ok {
		t[label] = Counts{}
	}
}

func (t Table) increment(label string, cat journal.Category) {
	c := t[label]
	c.add(cat)
	t[label] = c
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Labels returns the row labels sorted, with UnknownLabel last.
func (t Table) Labels() []string {
	labels := make([]string, 0, len(t))
	for k := range t {
		if k != UnknownLabel {
			labels = append(labels, k)
		}
	}
	sort.Strings(labels)
	if _, ok := t[UnknownLabel]; ok {
		labels = append(labels, UnknownLabel)
	}
	return labels
}

// Totals sums every row.
func (t Table) Totals() Counts {
	var sum Counts
	for _, c := range t {
		sum.EarthlikeBody += c.EarthlikeBody
		sum.AmmoniaWorld += c.AmmoniaWorld
		sum.WaterWorld += c.WaterWorld
	}
	return sum
}
