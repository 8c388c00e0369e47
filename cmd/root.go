package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loadprobe/internal/banner"
	"loadprobe/internal/cli"
	"loadprobe/internal/dummy"
	"loadprobe/internal/metrics"
	"loadprobe/internal/report"
	"loadprobe/internal/runner"
	"loadprobe/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

const envPrefix = "LOADPROBE"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "loadprobe",
	Short: "loadprobe - HTTP load testing in fixed-size batches",
	Long: `
loadprobe sends a fixed number of GET requests to one URL, at most
--concurrent at a time, and reports latency and error statistics.

Requests go out in batches; each batch completes before the next one
starts. Ctrl+C stops after the current batch and reports what completed.

Output modes:
1. Console (Default): progress bar and a text report
2. JSON: machine-readable report on stdout (--output json)
3. TUI: interactive live view (--tui)`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		metricsAddr := viper.GetString("metrics-addr")
		if viper.GetBool("tui") {
			return runTUI(cmd.Context(), cfg, metricsAddr)
		}

		return cli.Start(cmd.Context(), cfg, cli.Options{
			Format:      viper.GetString("output"),
			MetricsAddr: metricsAddr,
		})
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loadprobe.yaml)")

	f := rootCmd.Flags()
	f.StringP("url", "u", "", "Target URL (required)")
	f.IntP("concurrent", "c", 10, "Number of concurrent requests per batch")
	f.IntP("total", "n", 100, "Total number of measured requests")
	f.IntP("timeout", "t", 30, "Request timeout in seconds")
	f.Duration("warmup-pause", runner.DefaultWarmupPause, "Pause between warmup and the measured phase")
	f.Bool("no-warmup", false, "Skip the warmup batch")
	f.BoolP("insecure", "k", false, "Skip TLS certificate verification")
	f.Bool("http2", false, "Enable HTTP/2 on the transport")
	f.StringP("output", "o", cli.FormatConsole, "Report format: console or json")
	f.Bool("tui", false, "Show the interactive live view")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".loadprobe")
		}
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// loadConfig merges flags, environment and the config file into a
// runner.Config and validates it.
func loadConfig(v *viper.Viper) (runner.Config, error) {
	var cfg runner.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", runner.ErrInvalidConfig, err)
	}

	switch format := v.GetString("output"); format {
	case "", cli.FormatConsole, cli.FormatJSON:
	default:
		return cfg, fmt.Errorf("%w: unknown output format %q", runner.ErrInvalidConfig, format)
	}

	return cfg, cfg.Validate()
}

// --- Runners ---

func runTUI(ctx context.Context, cfg runner.Config, metricsAddr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	updates := make(runner.ProgressChan, 100)
	run, err := runner.NewRunner(cfg, updates)
	if err != nil {
		return err
	}

	sig := runner.NewSignal(ctx)
	stop := sig.NotifyInterrupt(nil)
	defer stop()

	if metricsAddr != "" {
		collector := metrics.NewCollector(run.RunID)
		run.AddObserver(collector)
		metricsCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go collector.Serve(metricsCtx, metricsAddr)
	}

	p := tea.NewProgram(tui.NewModel(run, sig), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running loadprobe: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		m = tui.NewModel(run, sig)
	}

	// The alt screen is gone; leave the report in the terminal.
	report.WriteConsole(os.Stdout, m.Summary())

	if m.Err != nil {
		return fmt.Errorf("error during test execution: %w", m.Err)
	}
	return nil
}

// --- Dummy Subcommand ---
var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run internal dummy server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return dummy.Start(ctx, dummy.ServerConfig{Port: port})
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8080, "Port to run dummy server on")
}
