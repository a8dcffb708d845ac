package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/parallax/internal/ui"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every processed journal and clear the catalog",
	Long: `Removes all persisted state. The next scan reads every journal in the
directory again from the beginning.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	printer := ui.New()

	a, err := newApp(cmd.Context())
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer a.Close()

	if err := a.svc.Reset(cmd.Context()); err != nil {
		printer.Error(err.Error())
		return err
	}
	printer.ResetDone(a.cfg.Store.Dir)
	return nil
}
