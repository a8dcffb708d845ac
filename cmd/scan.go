package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/parallax/internal/ingest"
	"github.com/papapumpkin/parallax/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read new journals and update the star catalog",
	Long: `Reads every journal not yet processed, classifies the bodies it finds and
prints the table. With --stream the command keeps running: it follows the
journal still being written and picks up new journals until interrupted.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Bool("stream", false, "keep following the active journal")
	scanCmd.Flags().Bool("auto-scan", false, "start a pass as soon as a new journal appears (with --stream)")
	scanCmd.Flags().Int("workers", 0, "files read concurrently (default 4)")

	_ = viper.BindPFlag("stream", scanCmd.Flags().Lookup("stream"))
	_ = viper.BindPFlag("auto_scan", scanCmd.Flags().Lookup("auto-scan"))
	_ = viper.BindPFlag("ingest.workers", scanCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	printer := ui.New()

	a, err := newApp(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer a.Close()

	printer.Banner(a.cfg.Journal.Dir)

	if a.cfg.Stream {
		printer.Info("following journals, press Ctrl+C to stop")
		if err := a.svc.Run(ctx); err != nil {
			printer.Error(err.Error())
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderTable(a.svc.Snapshot().Table))
		return nil
	}

	res, err := a.svc.RunOnce(ctx)
	if err != nil {
		printer.Error(err.Error())
		if errors.Is(err, ingest.ErrDirectory) {
			return err
		}
	}
	printer.Pass(summarize(res))
	fmt.Fprint(cmd.OutOrStdout(), ui.RenderTable(a.svc.Snapshot().Table))
	return nil
}

// summarize converts a pass result into the printer's summary.
func summarize(res ingest.PassResult) ui.PassSummary {
	s := ui.PassSummary{
		Counted: res.Drain.Counted,
		Unknown: res.Drain.Unknown,
		Drained: res.Drained,
	}
	for _, f := range res.Files {
		s.Skipped += f.Skipped
		switch f.State {
		case ingest.FileComplete, ingest.FileActive:
			s.Read++
		case ingest.FileParked:
			s.Read++
			s.Parked = append(s.Parked, f.Name)
		}
	}
	if res.Claimed != nil {
		s.Active = res.Claimed.Name
	}
	return s
}
