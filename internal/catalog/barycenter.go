package catalog

import (
	"strconv"
	"strings"
)

// barycenterOffset turns a base-36 digit value into a 1-based star index:
// 'A' parses as 10, so A->1, B->2 and so on. The value was derived from
// sample journals, not from a published format.
const barycenterOffset = 9

// Barycenter decodes the star designator letters embedded in a body name
// ("Sys AB 1" -> "AB") into the labels of the stars the body orbits. Each
// letter indexes the system's stars in insertion order; letters without a
// matching star are skipped. A single hit returns that star's label, several
// return "Barycenter(l1, l2, ...)", none returns "".
func (s *Stars) Barycenter(systemName, bodyName string) string {
	stars := s.Ordered(systemName)
	if len(stars) == 0 {
		return ""
	}

	var labels []string
	for _, r := range suffixCode(systemName, bodyName) {
		ord, err := strconv.ParseInt(string(r), 36, 0)
		if err != nil {
			continue
		}
		idx := int(ord) - barycenterOffset
		if idx < 1 || idx > len(stars) {
			continue
		}
		labels = append(labels, stars[idx-1].StarType)
	}

	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return "Barycenter(" + strings.Join(labels, ", ") + ")"
	}
}

// suffixCode strips the system prefix, digits and whitespace from bodyName
// and keeps the upper-case designator letters. Lower-case letters name moons
// and are dropped.
func suffixCode(systemName, bodyName string) string {
	rest := strings.TrimPrefix(bodyName, systemName)
	var b strings.Builder
	for _, r := range rest {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
