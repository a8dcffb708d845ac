package journal

import "strings"

// Class is the pipeline's verdict on a decoded event.
type Class int

const (
	ClassIgnored  Class = iota // not relevant to the catalog
	ClassStarScan              // carries StarType and Luminosity
	ClassBodyScan              // planet of a tracked category
	ClassShutdown              // terminal event for the owning file
)

// String returns a lowercase name suitable for logs.
func (c Class) String() string {
	switch c {
	case ClassStarScan:
		return "star_scan"
	case ClassBodyScan:
		return "body_scan"
	case ClassShutdown:
		return "shutdown"
	default:
		return "ignored"
	}
}

// Category is one of the planet classes the catalog counts. The set is
// closed: every other planet class is ignored.
type Category string

// Tracked categories, keyed by the names used in persisted tables.
const (
	EarthlikeBody Category = "EarthlikeBody"
	AmmoniaWorld  Category = "AmmoniaWorld"
	WaterWorld    Category = "WaterWorld"
)

// Categories lists the tracked categories in display order.
var Categories = []Category{EarthlikeBody, AmmoniaWorld, WaterWorld}

// planetClasses maps the journal's PlanetClass values onto categories.
var planetClasses = map[string]Category{
	"Earthlike body": EarthlikeBody,
	"Ammonia world":  AmmoniaWorld,
	"Water world":    WaterWorld,
}

// CategoryOf returns the tracked category for a PlanetClass value.
func CategoryOf(planetClass string) (Category, bool) {
	c, ok := planetClasses[planetClass]
	return c, ok
}

// Classifier decides what each event represents. It remembers body names it
// has already accepted so a body scanned twice in one run is only handled
// once. A Classifier is not safe for concurrent use; the catalog serializes
// access to it.
type Classifier struct {
	seen map[string]struct{}
}

// NewClassifier returns a Classifier with an empty seen set.
func NewClassifier() *Classifier {
	return &Classifier{seen: make(map[string]struct{})}
}

// Classify returns the class of ev and records its body name as seen when
// the event is a star or body scan.
func (c *Classifier) Classify(ev Event) Class {
	if ev.Event == EventShutdown {
		return ClassShutdown
	}
	if ev.Event != EventScan || ev.ScanType == ScanTypeNavBeaconDetail {
		return ClassIgnored
	}
	if _, dup := c.seen[ev.BodyName]; dup {
		return ClassIgnored
	}

	class := ClassIgnored
	switch {
	case ev.StarType != "" && ev.Luminosity != "":
		class = ClassStarScan
	case ev.PlanetClass != "":
		if _, ok := CategoryOf(ev.PlanetClass); ok {
			class = ClassBodyScan
		}
	}
	if class != ClassIgnored && ev.BodyName != "" {
		c.seen[ev.BodyName] = struct{}{}
	}
	return class
}

// SystemFromBody derives a system name from a body name by stripping the
// trailing star designators ("Sol A" -> "Sol", "HIP 1234 AB" -> "HIP 1234").
// A single-token name is returned unchanged.
func SystemFromBody(bodyName string) string {
	fields := strings.Fields(bodyName)
	for len(fields) > 1 && isDesignator(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isDesignator(tok string) bool {
	if len(tok) == 0 || len(tok) > 4 {
		return false
	}
	for _, r := range tok {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
