// Package journal decodes and classifies the newline-delimited JSON records
// the game writes to its journal directory.
package journal

import (
	"bytes"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Journal event names and scan sub-types the pipeline cares about.
const (
	EventShutdown = "Shutdown"
	EventScan     = "Scan"

	ScanTypeNavBeaconDetail = "NavBeaconDetail"

	// ParentStar is the key of a Parents entry that points at a star body.
	ParentStar = "Star"
)

// maxLoggedLine caps how much of a bad line is copied into a DecodeError.
const maxLoggedLine = 120

// Number is an integer that also accepts its quoted form ("3") on decode.
// Journals written by older game builds quote some identifiers.
type Number int

// UnmarshalJSON accepts bare or quoted integers and integral floats.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*n = Number(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(int(f))
	return nil
}

// Event is one decoded journal record. Only the fields the catalog consumes
// are mapped; everything else in the line is ignored.
type Event struct {
	Timestamp   string              `json:"timestamp"`
	Event       string              `json:"event"`
	ScanType    string              `json:"ScanType"`
	StarSystem  string              `json:"StarSystem"`
	BodyName    string              `json:"BodyName"`
	BodyID      Number              `json:"BodyID"`
	StarType    string              `json:"StarType"`
	Subclass    *Number             `json:"Subclass"`
	Luminosity  string              `json:"Luminosity"`
	PlanetClass string              `json:"PlanetClass"`
	Parents     []map[string]Number `json:"Parents"`
}

// Decode turns one raw journal line into an Event. Blank lines return
// ErrEmptyLine; anything else that is not a JSON object with an "event"
// field returns a *DecodeError.
func Decode(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Event{}, ErrEmptyLine
	}

	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, &DecodeError{Line: truncate(line), Err: err}
	}
	if ev.Event == "" {
		return Event{}, &DecodeError{Line: truncate(line), Err: ErrMissingEvent}
	}
	return ev, nil
}

// StarLabel returns the derived star-type label, e.g. "K1 V", or "K V" when
// the record carries no subclass.
func (e Event) StarLabel() string {
	var b strings.Builder
	b.WriteString(e.StarType)
	if e.Subclass != nil {
		b.WriteString(strconv.Itoa(int(*e.Subclass)))
	}
	b.WriteByte(' ')
	b.WriteString(e.Luminosity)
	return b.String()
}

// ParentStarID reports the body ID of the first direct star parent, if any.
func (e Event) ParentStarID() (int, bool) {
	for _, p := range e.Parents {
		if id, ok := p[ParentStar]; ok {
			return int(id), true
		}
	}
	return 0, false
}

func truncate(line []byte) string {
	if len(line) <= maxLoggedLine {
		return string(line)
	}
	return string(line[:maxLoggedLine]) + "..."
}
