package tui

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/parallax/internal/catalog"
)

// StatusBar renders the top bar: processed file count, active journal and
// engine phase.
type StatusBar struct {
	Processed     int
	ActiveFile    string
	Phase         catalog.Phase
	PendingBodies int
	Resetting     bool
	Width         int
}

// View renders the status bar as a single line.
func (s StatusBar) View() string {
	compact := s.Width > 0 && s.Width < CompactWidth

	segs := []string{
		styleStatusLabel.Render("parallax"),
		styleStatusValue.Render(humanize.Comma(int64(s.Processed)) + " journals"),
	}
	switch {
	case s.Resetting:
		segs = append(segs, styleStatusActive.Render(iconWorking+" resetting"))
	case s.ActiveFile != "":
		segs = append(segs, styleStatusActive.Render(iconWorking+" "+s.ActiveFile))
	default:
		segs = append(segs, styleStatusValue.Render(iconIdle+" no active journal"))
	}
	if !compact {
		phase := s.Phase.String()
		if s.PendingBodies > 0 {
			phase += " (" + humanize.Comma(int64(s.PendingBodies)) + " waiting)"
		}
		segs = append(segs, styleStatusValue.Render(phase))
	}

	line := strings.Join(segs, "  ")
	if s.Width > 0 {
		return styleStatusBar.Width(s.Width).Render(line)
	}
	return styleStatusBar.Render(line)
}
