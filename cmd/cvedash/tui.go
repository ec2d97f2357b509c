package main

import (
	"os"
	"os/signal"
	"syscall"

	"cvedash/internal/config"
	"cvedash/internal/telemetry"
	"cvedash/internal/ui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal dashboard",
	Long:  `The terminal dashboard shows the bulletin table and every chart, filtered by bulletin type.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := config.Current()
		// Logs would corrupt the screen; keep only the file sink.
		telemetry.InitLogger(s.Verbose, s.LogFile, true)

		loader, closeFn, err := newLoader(nil)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return ui.StartDashboard(ctx, loader, s.PageSize)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
