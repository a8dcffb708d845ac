package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/ui"
)

// Output formats accepted by status --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatTOML  = "toml"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted catalog without reading journals",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("format", formatTable, "output format: table, json or toml")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the structured form of status for json and toml output.
type statusReport struct {
	Journals int                       `json:"journals" toml:"journals"`
	Stars    int                       `json:"stars" toml:"stars"`
	Bodies   int                       `json:"bodies" toml:"bodies"`
	Totals   catalog.Counts            `json:"totals" toml:"totals"`
	Table    map[string]catalog.Counts `json:"table" toml:"table"`
}

func newStatusReport(snap catalog.Snapshot) statusReport {
	r := statusReport{
		Journals: len(snap.ProcessedFiles),
		Stars:    len(snap.Stars),
		Bodies:   len(snap.ProcessedBodies),
		Totals:   snap.Table.Totals(),
		Table:    make(map[string]catalog.Counts, len(snap.Table)),
	}
	for label, c := range snap.Table {
		r.Table[label] = c
	}
	return r
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	printer := ui.New()

	a, err := newApp(cmd.Context())
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer a.Close()

	snap := a.svc.Catalog().Snapshot()
	if err := writeStatus(cmd.OutOrStdout(), format, snap); err != nil {
		printer.Error(err.Error())
		return err
	}
	return nil
}

func writeStatus(w io.Writer, format string, snap catalog.Snapshot) error {
	switch format {
	case "", formatTable:
		_, err := fmt.Fprint(w, ui.RenderTable(snap.Table))
		return err
	case formatJSON:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newStatusReport(snap))
	case formatTOML:
		return toml.NewEncoder(w).Encode(newStatusReport(snap))
	default:
		return fmt.Errorf("unknown format %q (want table, json or toml)", format)
	}
}
