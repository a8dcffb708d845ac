package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/parallax/internal/ingest"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a BubbleTea program for the live view.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(src Source, updates <-chan ingest.View, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(NewModel(src, updates), allOpts...)
}

// Run creates and runs the live view, blocking until the user quits or the
// update channel closes.
func Run(src Source, updates <-chan ingest.View) error {
	_, err := NewProgram(src, updates).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
