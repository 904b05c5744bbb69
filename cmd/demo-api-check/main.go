package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clusterx/demo-api-check/internal/checks"
	"github.com/clusterx/demo-api-check/internal/demoapi"
	"github.com/clusterx/demo-api-check/internal/metrics"
	"github.com/clusterx/demo-api-check/internal/report"
	"github.com/clusterx/demo-api-check/internal/utils"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errChecksFailed signals a completed run with failures; it maps to exit code 1
// without an extra error line since the results were already printed.
var errChecksFailed = errors.New("one or more checks failed")

// globalOptions holds the persistent flags
type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	v := utils.NewViper()

	rootCmd := &cobra.Command{
		Use:   "demo-api-check",
		Short: "Integration checks for the demo call API",
		Long: `A command-line utility that exercises the /api/demo/call endpoint of a
running backend, validating status codes and error messages for valid,
invalid and missing phone numbers, and writes a JSON report.

Examples:
  demo-api-check run
  demo-api-check run --base-url http://staging.internal:5000
  demo-api-check run --format json --report ./out/results.json`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !utils.IsValidLogLevel(opts.logLevel) {
				return fmt.Errorf("invalid log level: %s (supported: debug, info, warn, error)", opts.logLevel)
			}
			if !utils.IsValidLogFormat(opts.logFormat) {
				return fmt.Errorf("invalid log format: %s (supported: text, json)", opts.logFormat)
			}

			loggerConfig := utils.LoggerConfig{
				Level:  utils.LogLevel(opts.logLevel),
				Format: utils.LogFormat(opts.logFormat),
				Output: cmd.ErrOrStderr(),
			}
			if opts.verbose {
				loggerConfig.Level = utils.LogLevelDebug
			}
			logger := utils.NewLogger(loggerConfig)

			cmd.SetContext(utils.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Set log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Set log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output (equivalent to --log-level debug)")

	rootCmd.AddCommand(newRunCommand(opts, v))

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}

	return rootCmd
}

// newRunCommand creates the run subcommand
func newRunCommand(opts *globalOptions, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo call checks against a backend",
		Long: `Run the server health gate followed by the valid, invalid and missing
phone number checks against the demo call endpoint.

If the health gate fails the remaining checks are skipped. The command exits
with status 1 when any check fails.

Every flag may also be set in the config file or through a DEMOCHECK_
environment variable, e.g. DEMOCHECK_BASE_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, opts, v)
		},
	}

	flags := cmd.Flags()
	flags.String("base-url", utils.DefaultBaseURL, "Base URL of the backend under test")
	flags.String("report", utils.DefaultReportPath, "Path of the JSON report file")
	flags.StringP("format", "f", utils.DefaultFormat, "Output format (json, text)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.Duration("health-timeout", utils.DefaultHealthTimeout, "Timeout of the health probe")
	flags.Duration("request-timeout", utils.DefaultRequestTimeout, "Timeout of each demo call request")

	bindings := map[string]string{
		"base_url":        "base-url",
		"report_path":     "report",
		"format":          "format",
		"metrics_file":    "metrics-file",
		"health_timeout":  "health-timeout",
		"request_timeout": "request-timeout",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

// runChecks executes the run command
func runChecks(cmd *cobra.Command, opts *globalOptions, v *viper.Viper) error {
	logger := utils.LoggerFromContext(cmd.Context())
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	log := logger.WithComponent("run")

	cfg, err := utils.LoadConfig(v, opts.configFile)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	log.WithFields(map[string]interface{}{
		"run_id":          runID,
		"base_url":        cfg.BaseURL,
		"health_timeout":  cfg.HealthTimeout,
		"request_timeout": cfg.RequestTimeout,
	}).Info("Running demo call checks")

	registry := checks.NewCheckRegistry()
	if err := registerAllChecks(registry, cfg); err != nil {
		return fmt.Errorf("failed to register checks: %w", err)
	}
	log.Debugf("Registered %d checks", registry.Count())

	client := demoapi.NewClient(cfg.BaseURL, demoapi.WithUserAgent("demo-api-check/"+version))
	m := metrics.New(runID, cfg.BaseURL)

	// JSON output keeps stdout machine-readable, so progress lines are dropped.
	var progress io.Writer = cmd.OutOrStdout()
	if cfg.Format == "json" {
		progress = io.Discard
	}

	runner := checks.NewCheckRunner(registry, client,
		checks.WithOutput(progress),
		checks.WithLogger(logger),
		checks.WithObserver(m),
		checks.WithRunID(runID),
	)

	summary, err := runner.RunAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to run checks: %w", err)
	}
	m.RecordSummary(summary)

	if err := report.WriteFile(cfg.ReportPath, summary); err != nil {
		return err
	}
	log.WithField("path", cfg.ReportPath).Info("Report written")

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.WithError(err).Warn("Failed to write metrics file")
		} else {
			log.WithField("path", cfg.MetricsFile).Debug("Metrics written")
		}
	}

	if cfg.Format == "text" {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if err := report.Output(cmd.OutOrStdout(), summary, cfg.Format); err != nil {
		return fmt.Errorf("failed to output report: %w", err)
	}

	if !summary.IsPassing() {
		log.Warnf("Demo call checks failed: %d/%d passed", summary.PassedTests, summary.TotalTests)
		return errChecksFailed
	}

	log.Infof("All demo call checks passed: %d/%d", summary.PassedTests, summary.TotalTests)
	return nil
}

// registerAllChecks registers the health gate and the demo call checks
func registerAllChecks(registry *checks.CheckRegistry, cfg *utils.Config) error {
	expect := checks.Expectations{
		NotConfigured: checks.ContainsFold(cfg.Expect.NotConfigured),
		Invalid:       checks.ContainsFold(cfg.Expect.Invalid),
		Required:      checks.ContainsFold(cfg.Expect.Required),
	}

	if err := registry.SetGate(&checks.ServerHealthCheck{Timeout: cfg.HealthTimeout}); err != nil {
		return fmt.Errorf("failed to register server health check: %w", err)
	}

	if err := registry.Register(&checks.ValidPhoneCheck{
		PhoneNumber: cfg.ValidPhone,
		Timeout:     cfg.RequestTimeout,
		Expect:      expect,
	}); err != nil {
		return fmt.Errorf("failed to register valid phone check: %w", err)
	}

	if err := registry.Register(&checks.InvalidPhoneCheck{
		PhoneNumbers: cfg.InvalidPhones,
		Timeout:      cfg.RequestTimeout,
		Expect:       expect,
	}); err != nil {
		return fmt.Errorf("failed to register invalid phone check: %w", err)
	}

	if err := registry.Register(&checks.MissingPhoneCheck{
		Timeout: cfg.RequestTimeout,
		Expect:  expect,
	}); err != nil {
		return fmt.Errorf("failed to register missing phone check: %w", err)
	}

	return nil
}
