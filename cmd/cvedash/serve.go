package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cvedash/internal/config"
	"cvedash/internal/metrics"
	"cvedash/internal/web"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Serve the collection on /fetch_data, the aggregated series and the table under
/api, Prometheus metrics on /metrics and the dashboard page on /.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := config.Current()
		if !useStore && s.ReadsOwnEndpoint() {
			return fmt.Errorf("%s %s points at this server's own /fetch_data on %s; use another port, --file or --store",
				config.KeySourceURL, s.SourceURL, s.Addr())
		}
		m := metrics.NewMetrics()

		loader, closeFn, err := newLoader(m)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Dashboard available at http://%s\n", s.Addr())
		return web.NewServer(loader, m, s.Addr(), s.PageSize).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Interface to listen on (overrides server.host)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides server.port)")
	viper.BindPFlag(config.KeyServerHost, serveCmd.Flags().Lookup("host"))
	viper.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
}
