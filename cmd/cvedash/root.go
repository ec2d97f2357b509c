package main

import (
	"context"
	"fmt"
	"os"

	"cvedash/internal/config"
	"cvedash/internal/datasource"
	"cvedash/internal/metrics"
	"cvedash/internal/model"
	"cvedash/internal/store"
	"cvedash/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string
var useStore bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cvedash",
	Short: "Dashboard for CVE bulletins with CVSS and EPSS scores",
	Long: `cvedash fetches the consolidated bulletin collection (CVE, CWE, CVSS, EPSS,
vendor and product metadata) and serves it as charts and a searchable table,
over HTTP, in the terminal or as plain command output.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'cvedash --help' for usage.")
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("source", "", "URL of the /fetch_data endpoint (overrides source.url)")
	rootCmd.PersistentFlags().String("file", "", "Read the collection from a JSON file instead of the endpoint")
	rootCmd.PersistentFlags().String("db", "", "SQLite snapshot database (overrides store.path)")
	rootCmd.PersistentFlags().BoolVar(&useStore, "store", false, "Read the collection from the imported SQLite snapshot")

	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag(config.KeySourceURL, rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag(config.KeySourceFile, rootCmd.PersistentFlags().Lookup("file"))
	viper.BindPFlag(config.KeyStorePath, rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	s := config.Current()
	telemetry.InitLogger(s.Verbose, s.LogFile, false)
}

// openSource returns the configured collection source and its closer.
func openSource(m *metrics.Metrics) (datasource.Source, func(), error) {
	s := config.Current()

	switch {
	case useStore:
		st, err := store.NewSQLiteStore(s.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open store at %s: %w", s.StorePath, err)
		}
		telemetry.LogDebug("Reading collection from store", "path", s.StorePath)
		return st, func() { st.Close() }, nil
	case s.SourceFile != "":
		src := datasource.NewFileSource(s.SourceFile)
		src.Metrics = m
		telemetry.LogDebug("Reading collection from file", "path", s.SourceFile)
		return src, func() {}, nil
	default:
		src := datasource.NewHTTPSource(s.SourceURL, s.SourceTimeout)
		src.Metrics = m
		telemetry.LogDebug("Reading collection from endpoint", "url", s.SourceURL)
		return src, func() {}, nil
	}
}

// newLoader wraps the configured source in the shared loader.
func newLoader(m *metrics.Metrics) (*datasource.Loader, func(), error) {
	src, closeFn, err := openSource(m)
	if err != nil {
		return nil, nil, err
	}
	return datasource.NewLoader(src, config.Current().CacheTTL, datasource.WithMetrics(m)), closeFn, nil
}

// loadRecords fetches the collection once, for the one-shot commands.
func loadRecords(ctx context.Context) ([]model.VulnerabilityRecord, error) {
	loader, closeFn, err := newLoader(nil)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	snap, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return snap.Records, nil
}
