// Package ui renders parallax output for the terminal: short progress
// messages on stderr and the classification table on stdout.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Printer writes human-oriented status lines. The zero value writes to
// os.Stderr.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to os.Stderr.
func New() *Printer {
	return &Printer{w: os.Stderr}
}

// NewWithWriter returns a Printer that writes to w.
func NewWithWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) out() io.Writer {
	if p.w == nil {
		return os.Stderr
	}
	return p.w
}

// PassSummary is what one scan pass did, in printable form.
type PassSummary struct {
	Read    int
	Skipped int // undecodable lines
	Active  string
	Parked  []string
	Counted int
	Unknown int
	Drained bool
}

// Banner announces which directory is being scanned.
func (p *Printer) Banner(dir string) {
	fmt.Fprintf(p.out(), bold+cyan+"parallax"+reset+dim+" scanning %s"+reset+"\n", dir)
}

// Pass prints what a scan pass read and classified.
func (p *Printer) Pass(s PassSummary) {
	w := p.out()
	if s.Read == 0 {
		fmt.Fprintln(w, dim+"no new journals"+reset)
	} else {
		fmt.Fprintf(w, green+"✓ read %s journal(s)"+reset, humanize.Comma(int64(s.Read)))
		if s.Skipped > 0 {
			fmt.Fprintf(w, yellow+" (%s bad line(s) skipped)"+reset, humanize.Comma(int64(s.Skipped)))
		}
		fmt.Fprintln(w)
	}
	if s.Drained && s.Counted+s.Unknown > 0 {
		fmt.Fprintf(w, "  classified %s bod(ies)", humanize.Comma(int64(s.Counted+s.Unknown)))
		if s.Unknown > 0 {
			fmt.Fprintf(w, dim+", %s without a known star"+reset, humanize.Comma(int64(s.Unknown)))
		}
		fmt.Fprintln(w)
	}
	if s.Active != "" {
		fmt.Fprintf(w, cyan+"◆ active"+reset+" %s\n", s.Active)
	}
	for _, name := range s.Parked {
		fmt.Fprintf(w, yellow+"⚠ parked"+reset+" %s (another journal is active)\n", name)
	}
}

// ResetDone confirms that persisted state was removed.
func (p *Printer) ResetDone(dir string) {
	fmt.Fprintf(p.out(), green+bold+"✓ reset"+reset+" cleared %s\n", dir)
}

// Error prints msg as an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.out(), red+bold+"error: "+reset+"%s\n", msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.out(), dim+"%s"+reset+"\n", msg)
}
