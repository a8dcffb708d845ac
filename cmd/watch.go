package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/parallax/internal/config"
	"github.com/papapumpkin/parallax/internal/tui"
	"github.com/papapumpkin/parallax/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow journals live in a full-screen view",
	Long: `Runs in streaming mode and shows the catalog as it changes. Press r to
reset all state and q to quit. Logs go to parallax.log in the state
directory unless log.file is set.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func streaming(cfg *config.Config) { cfg.Stream = true }

func runWatch(cmd *cobra.Command, _ []string) error {
	printer := ui.New()

	a, err := newApp(cmd.Context(), streaming, logToFile)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer a.Close()

	updates := a.svc.Subscribe()
	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- a.svc.Run(ctx) }()

	err = tui.Run(a.svc, updates)
	cancel()
	if runErr := <-done; runErr != nil && err == nil {
		err = runErr
	}
	return err
}
