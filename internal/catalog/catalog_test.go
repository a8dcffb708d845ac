package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/papapumpkin/parallax/internal/journal"
)

func starScan(system, body string, id int, class string, sub *int, lum string) journal.Event {
	ev := journal.Event{
		Event:      journal.EventScan,
		StarSystem: system,
		BodyName:   body,
		BodyID:     journal.Number(id),
		StarType:   class,
		Luminosity: lum,
	}
	if sub != nil {
		n := journal.Number(*sub)
		ev.Subclass = &n
	}
	return ev
}

func bodyScan(system, body, planetClass string, parents ...map[string]journal.Number) journal.Event {
	return journal.Event{
		Event:       journal.EventScan,
		StarSystem:  system,
		BodyName:    body,
		PlanetClass: planetClass,
		Parents:     parents,
	}
}

func starParent(id int) map[string]journal.Number {
	return map[string]journal.Number{journal.ParentStar: journal.Number(id)}
}

func nullParent(id int) map[string]journal.Number {
	return map[string]journal.Number{"Null": journal.Number(id)}
}

func intp(n int) *int { return &n }

func mustDrain(t *testing.T, c *Catalog) DrainResult {
	t.Helper()
	res, err := c.Drain(true)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	return res
}

func TestCatalog_DirectParent(t *testing.T) {
	t.Parallel()
	c := New(nil)

	c.Apply(starScan("Sol", "Sol", 0, "K", nil, "V"))
	if got := c.Apply(bodyScan("Sol", "Sol 3", "Earthlike body", starParent(0))); got != journal.ClassBodyScan {
		t.Fatalf("Apply() = %v, want body scan", got)
	}
	if c.Phase() != PhaseCaching {
		t.Errorf("Phase() = %v, want caching", c.Phase())
	}

	res := mustDrain(t, c)
	if res.Counted != 1 || res.Unknown != 0 {
		t.Errorf("DrainResult = %+v, want 1 counted", res)
	}
	want := Table{"K V": {EarthlikeBody: 1}}
	if got := c.Table(); !reflect.DeepEqual(got, want) {
		t.Errorf("Table() = %v, want %v", got, want)
	}
	if c.Phase() != PhaseIdle {
		t.Errorf("Phase() = %v, want idle", c.Phase())
	}
}

func TestCatalog_BodyBeforeStar(t *testing.T) {
	t.Parallel()
	c := New(nil)

	c.Apply(bodyScan("Wolf 359", "Wolf 359 2", "Water world", starParent(0)))
	c.Apply(starScan("Wolf 359", "Wolf 359", 0, "M", intp(6), "Va"))

	mustDrain(t, c)
	got := c.Table()
	if got["M6 Va"].WaterWorld != 1 {
		t.Errorf("Table()[M6 Va] = %+v, want one water world", got["M6 Va"])
	}
	if _, ok := got[UnknownLabel]; ok {
		t.Errorf("unexpected Unknown row: %v", got)
	}
}

func TestCatalog_DrainGate(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(bodyScan("Sol", "Sol 3", "Earthlike body", starParent(0)))

	if _, err := c.Drain(false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Drain(false) err = %v, want ErrNotReady", err)
	}

	tok := starToken{System: "Sol", BodyID: 0}
	c.observeStar(tok)
	if _, err := c.Drain(true); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Drain with pending star err = %v, want ErrNotReady", err)
	}
	if c.PendingBodies() != 1 {
		t.Fatalf("PendingBodies() = %d, want 1 (cache untouched)", c.PendingBodies())
	}

	c.commitStar(StarRecord{System: "Sol", BodyID: 0, StarType: "G2 V"})
	if c.pendingStarCount() != 0 {
		t.Fatalf("pendingStarCount() = %d, want 0", c.pendingStarCount())
	}
	mustDrain(t, c)
	if got := c.Table()["G2 V"].EarthlikeBody; got != 1 {
		t.Errorf("G2 V earthlike = %d, want 1", got)
	}
}

func TestCatalog_Barycenter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"two stars", "Luyten AB 1", "Barycenter(K1 V, M2 V)"},
		{"single letter", "Luyten B 2", "M2 V"},
		{"missing letter skipped", "Luyten BC 3", "M2 V"},
		{"moon letters ignored", "Luyten AB 1 a", "Barycenter(K1 V, M2 V)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(nil)
			c.Apply(starScan("Luyten", "Luyten A", 0, "K", intp(1), "V"))
			c.Apply(starScan("Luyten", "Luyten B", 1, "M", intp(2), "V"))
			c.Apply(bodyScan("Luyten", tt.body, "Ammonia world", nullParent(2)))
			mustDrain(t, c)

			if got := c.Table()[tt.want].AmmoniaWorld; got != 1 {
				t.Errorf("Table()[%q].AmmoniaWorld = %d, want 1 (table %v)", tt.want, got, c.Table())
			}
		})
	}
}

func TestCatalog_BarycenterFollowsInsertionOrder(t *testing.T) {
	t.Parallel()
	c := New(nil)
	// Star 1 is recorded before star 0; letter A indexes the first recorded.
	c.Apply(starScan("Kappa", "Kappa B", 1, "M", intp(2), "V"))
	c.Apply(starScan("Kappa", "Kappa A", 0, "K", intp(1), "V"))
	c.Apply(bodyScan("Kappa", "Kappa A 1", "Water world", nullParent(3)))
	mustDrain(t, c)

	if got := c.Table()["M2 V"].WaterWorld; got != 1 {
		t.Errorf("M2 V water = %d, want 1 (table %v)", got, c.Table())
	}
}

func TestCatalog_PrimaryFallback(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(starScan("Sol", "Sol", 0, "G", intp(2), "V"))
	// Parent star 5 was never scanned.
	c.Apply(bodyScan("Sol", "Sol 4", "Water world", starParent(5)))
	mustDrain(t, c)

	if got := c.Table()["G2 V"].WaterWorld; got != 1 {
		t.Errorf("G2 V water = %d, want 1", got)
	}
}

func TestCatalog_UnknownBucket(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(bodyScan("Nowhere", "Nowhere 1", "Earthlike body", starParent(0)))
	res := mustDrain(t, c)

	if res.Unknown != 1 {
		t.Errorf("Unknown = %d, want 1", res.Unknown)
	}
	if got := c.Table()[UnknownLabel].EarthlikeBody; got != 1 {
		t.Errorf("Unknown earthlike = %d, want 1", got)
	}
	if !c.bodyProcessed("Nowhere 1") {
		t.Error("unknown body not recorded as processed")
	}
}

func TestCatalog_SystemPrefixMatch(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(starScan("Col 285 Sector AB", "Col 285 Sector AB", 0, "F", intp(5), "VI"))
	c.Apply(bodyScan("", "Col 285 Sector AB 1", "Water world", starParent(0)))
	mustDrain(t, c)

	if got := c.Table()["F5 VI"].WaterWorld; got != 1 {
		t.Errorf("F5 VI water = %d, want 1 (table %v)", got, c.Table())
	}
}

func TestCatalog_DedupAcrossRestore(t *testing.T) {
	t.Parallel()
	events := []journal.Event{
		starScan("Sol", "Sol", 0, "G", intp(2), "V"),
		bodyScan("Sol", "Earth", "Earthlike body", starParent(0)),
		bodyScan("Sol", "Sol 5 a", "Water world", starParent(0)),
	}

	first := New(nil)
	for _, ev := range events {
		first.Apply(ev)
	}
	mustDrain(t, first)
	snap := first.Snapshot()

	second := New(nil)
	second.Restore(snap)
	for _, ev := range events {
		second.Apply(ev)
	}
	res := mustDrain(t, second)
	if res.Skipped != 2 || res.Counted != 0 {
		t.Errorf("DrainResult = %+v, want 2 skipped", res)
	}
	if !reflect.DeepEqual(second.Table(), first.Table()) {
		t.Errorf("Table() changed after replay: %v vs %v", second.Table(), first.Table())
	}
}

func TestCatalog_DrainIsReentrant(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(starScan("Sol", "Sol", 0, "G", intp(2), "V"))
	c.Apply(bodyScan("Sol", "Sol 3", "Earthlike body", starParent(0)))
	mustDrain(t, c)
	res := mustDrain(t, c)
	if res != (DrainResult{}) {
		t.Errorf("second Drain() = %+v, want zero", res)
	}
	c.Apply(bodyScan("Sol", "Sol 4", "Water world", starParent(0)))
	mustDrain(t, c)

	want := Counts{EarthlikeBody: 1, WaterWorld: 1}
	if got := c.Table()["G2 V"]; got != want {
		t.Errorf("G2 V = %+v, want %+v", got, want)
	}
}

func TestCatalog_Reset(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Apply(starScan("Sol", "Sol", 0, "G", intp(2), "V"))
	c.MarkFileComplete("Journal.1.log")
	c.Reset()

	snap := c.Snapshot()
	if len(snap.Stars) != 0 || len(snap.ProcessedFiles) != 0 || len(snap.Table) != 0 {
		t.Errorf("Snapshot() after Reset = %+v, want empty", snap)
	}
	// The classifier is fresh: the same star is accepted again.
	if got := c.Apply(starScan("Sol", "Sol", 0, "G", intp(2), "V")); got != journal.ClassStarScan {
		t.Errorf("Apply() after Reset = %v, want star scan", got)
	}
}
