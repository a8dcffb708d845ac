package catalog

import (
	"fmt"

	"github.com/papapumpkin/parallax/internal/journal"
)

// resolveLocked finds the star label governing a planet. Order: the direct
// Star parent, then for barycentric planets the designator letters in the
// body name, then the system's star 0 and star 1.
func (c *Catalog) resolveLocked(ev journal.Event) (string, error) {
	system := ev.StarSystem
	if system == "" || !c.stars.HasSystem(system) {
		if match := c.stars.MatchSystem(ev.BodyName); match != "" {
			system = match
		}
	}
	if !c.stars.HasSystem(system) {
		return "", fmt.Errorf("%w: no stars known for system of %q", ErrAmbiguous, ev.BodyName)
	}

	if id, ok := ev.ParentStarID(); ok {
		if rec, found := c.stars.Get(system, id); found {
			return rec.StarType, nil
		}
	} else if label := c.stars.Barycenter(system, ev.BodyName); label != "" {
		return label, nil
	}

	for _, id := range []int{0, 1} {
		if rec, ok := c.stars.Get(system, id); ok {
			return rec.StarType, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %q", ErrAmbiguous, ev.BodyName, system)
}
