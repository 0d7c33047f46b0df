package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/bannerscan/internal/assess"
	"github.com/nao1215/bannerscan/internal/config"
	bslog "github.com/nao1215/bannerscan/internal/log"
	"github.com/nao1215/bannerscan/internal/model"
	"github.com/nao1215/bannerscan/internal/pipeline"
	"github.com/nao1215/bannerscan/internal/probe"
	"github.com/nao1215/bannerscan/internal/protocol"
	"github.com/nao1215/bannerscan/internal/report"
	"github.com/nao1215/bannerscan/internal/verify"
	"github.com/spf13/cobra"
	"golang.org/x/net/proxy"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a port range and identify the services behind open ports",
		Long: `Scan connects to every port in the range, reads the banner of each open
port and classifies it as HTTP, FTP, SMTP or unknown.

By default only open ports are listed. Use --verbose to list closed,
timed out and failed ports as well.

With --assess every open port is also rated LOW to CRITICAL from what
its banner reveals, such as a plaintext protocol or missing HTTP
security headers. Nothing extra is sent to the host.

With --output the report goes to the file and a short summary is
printed instead.

Exit status is 0 when the scan completes (even with no open ports),
2 for invalid arguments and 1 for any other failure, including an
interrupted scan. An interrupted scan still prints what it found.

Examples:
  # Scan the first 1024 ports
  bannerscan scan --host 192.0.2.10 --ports 1-1024

  # Scan a single port with a longer read timeout
  bannerscan scan --host mail.example.com --ports 25 --read-timeout 5

  # Query FTP/SMTP capabilities and write JSON to a file
  bannerscan scan --host example.com --ports 1-1024 --follow-up --json -o scan.json

  # Scan through a SOCKS5 proxy
  bannerscan scan --host example.com --ports 80-90 --proxy socks5://127.0.0.1:1080

  # Rate the risk of the services found
  bannerscan scan --host 192.0.2.10 --ports 1-1024 --assess --markdown -o risk.md

  # Cross-check open ports with nmap afterwards
  bannerscan scan --host 127.0.0.1 --ports 1-1024 --verify`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	addTargetFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("color", false,
		"Color port states in the text report")
	cmd.Flags().Bool("verify", false,
		"Compare open ports with an nmap scan afterwards (requires nmap)")
	cmd.Flags().Bool("assess", false,
		"Rate the risk of open ports from their banners and list the findings")

	return cmd
}

// addTargetFlags adds the flags shared by scan and verify.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("host", "H", "",
		"Target host name or IP address")
	cmd.Flags().StringP("ports", "p", "",
		"Port range START-END or a single port")
	cmd.Flags().Float64P("timeout", "t", config.DefaultConnectTimeout.Seconds(),
		"Connect timeout per port in seconds")
	cmd.Flags().Float64("read-timeout", config.DefaultReadTimeout.Seconds(),
		"Banner read timeout per port in seconds")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of ports probed at once")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy, host:port or socks5://[user:pass@]host:port")
	cmd.Flags().Bool("follow-up", false,
		"Send HELP to FTP and EHLO to SMTP servers and record the reply")
	cmd.Flags().UintSlice("http-ports", nil,
		"Ports that receive an HTTP HEAD request immediately (replaces the default set)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .bannerscan in current or home directory)")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runScan(ctx, cmd.OutOrStdout(), cfg, logger)
}

// newLogger creates the secure stderr logger and makes it the default.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := bslog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received shutdown signal, cancelling...", "signal", sig.String())
			cancel(fmt.Errorf("received %s: %w", sig, context.Canceled))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(context.Canceled)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a validated Config: defaults, then the configuration
// file, then the flags that were set explicitly. All errors are usage
// errors.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Host, err = flags.GetString("host"); err != nil {
		return nil, newUsageError(err)
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, newUsageError(err)
	}

	// An explicitly given file must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, newUsageError(fmt.Errorf("failed to load config file %s: %w", configPath, err))
		}
		cfg.ApplyHostConfig(file.HostConfig(cfg.Host))
	case cfg.ConfigFilePath != "":
		return nil, newUsageError(fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath))
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, newUsageError(err)
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return nil, newUsageError(fmt.Errorf("configuration error: %w", err))
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg. Flags the command does
// not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	var err error
	if changed("ports") {
		if cfg.Ports, err = flags.GetString("ports"); err != nil {
			return err
		}
	}
	if changed("timeout") {
		seconds, err := flags.GetFloat64("timeout")
		if err != nil {
			return err
		}
		cfg.ConnectTimeout = secondsToDuration(seconds)
	}
	if changed("read-timeout") {
		seconds, err := flags.GetFloat64("read-timeout")
		if err != nil {
			return err
		}
		cfg.ReadTimeout = secondsToDuration(seconds)
	}
	if changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if changed("follow-up") {
		if cfg.FollowUp, err = flags.GetBool("follow-up"); err != nil {
			return err
		}
	}
	if changed("http-ports") {
		ports, err := flags.GetUintSlice("http-ports")
		if err != nil {
			return err
		}
		if cfg.HTTPPorts, err = toPorts(ports); err != nil {
			return err
		}
	}
	if changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if changed("color") {
		if cfg.Color, err = flags.GetBool("color"); err != nil {
			return err
		}
	}
	if changed("verify") {
		if cfg.Verify, err = flags.GetBool("verify"); err != nil {
			return err
		}
	}
	if changed("assess") {
		if cfg.Assess, err = flags.GetBool("assess"); err != nil {
			return err
		}
	}
	return nil
}

// secondsToDuration converts fractional seconds from the command line.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// toPorts narrows flag values to port numbers.
func toPorts(values []uint) ([]uint16, error) {
	ports := make([]uint16, 0, len(values))
	for _, v := range values {
		if v == 0 || v > 65535 {
			return nil, fmt.Errorf("%w: %d", config.ErrInvalidHTTPPort, v)
		}
		ports = append(ports, uint16(v))
	}
	return ports, nil
}

// newConnector builds the connector, dialing through the proxy when one
// is configured.
func newConnector(cfg *config.Config, logger *slog.Logger) (*probe.Connector, error) {
	if cfg.Proxy == "" {
		return probe.NewConnector(probe.WithConnectorLogger(logger)), nil
	}

	settings, err := config.ParseProxy(cfg.Proxy)
	if err != nil {
		return nil, newUsageError(err)
	}
	var auth *proxy.Auth
	if settings.HasAuth() {
		auth = &proxy.Auth{User: settings.Username, Password: settings.Password}
	}

	logger.Debug("dialing through proxy", "proxy", cfg.Proxy)
	return probe.NewSOCKS5Connector(settings.Address, auth, probe.WithConnectorLogger(logger))
}

// newCoordinator wires the connector, banner reader and coordinator.
func newCoordinator(cfg *config.Config, logger *slog.Logger) (*pipeline.Coordinator, error) {
	connector, err := newConnector(cfg, logger)
	if err != nil {
		return nil, err
	}

	reader := protocol.NewReader(
		protocol.WithHTTPPorts(cfg.HTTPPorts...),
		protocol.WithFollowUp(cfg.FollowUp),
		protocol.WithHeloName(cfg.HeloName),
		protocol.WithReaderLogger(logger),
	)

	opts := []pipeline.Option{
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithConnectTimeout(cfg.ConnectTimeout),
		pipeline.WithReadTimeout(cfg.ReadTimeout),
		pipeline.WithConnector(connector),
		pipeline.WithReader(reader),
		pipeline.WithLogger(logger),
	}
	if cfg.Assess {
		opts = append(opts, pipeline.WithAssessor(assess.NewAssessor(assess.WithLogger(logger))))
	}
	if cfg.Verbose {
		opts = append(opts, pipeline.WithProgress(func(res model.PortResult) {
			logger.Debug("port scanned",
				"port", res.Port(),
				"state", res.State.String(),
				"elapsed", res.Elapsed,
			)
		}))
	}

	return pipeline.NewCoordinator(opts...), nil
}

// runScan executes the scan and writes the report. A partial report is
// still written when the scan is interrupted.
func runScan(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	coordinator, err := newCoordinator(cfg, logger)
	if err != nil {
		return err
	}

	scanReport, scanErr := coordinator.Scan(ctx, cfg.Host, cfg.Ports)
	if scanReport == nil {
		return scanErr
	}

	if err := outputReport(out, cfg, scanReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if scanErr != nil {
		return scanErr
	}

	if cfg.Verify {
		runVerification(ctx, out, scanReport, logger)
	}
	return nil
}

// runVerification compares the report with nmap and prints the outcome.
// nmap problems are reported but do not fail the scan.
func runVerification(ctx context.Context, out io.Writer, scanReport *model.ScanReport, logger *slog.Logger) {
	fmt.Fprintln(out, "\n[Verification] Running nmap for comparison...")

	runner := verify.NewRunner(verify.WithRunnerLogger(logger))
	nmapOpen, err := runner.OpenPorts(ctx, scanReport.Host, scanReport.StartPort, scanReport.EndPort)
	if err != nil {
		logger.Warn("verification failed", "error", err)
		fmt.Fprintf(out, "Failed to run nmap: %v\n", err)
		return
	}

	fmt.Fprintln(out, "[Verification] Comparison with nmap:")
	fmt.Fprintf(out, "  %s\n", verify.Compare(scanReport, nmapOpen))
}

// outputReport writes the report in the requested format to out, or to the
// report file with a short summary on out.
func outputReport(out io.Writer, cfg *config.Config, scanReport *model.ScanReport) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(out, cfg).Write(scanReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Banners can reveal internal host names, so the file is owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := report.NewMultiWriter(newReportWriter(f, cfg), report.NewSummaryWriter(out))
	if _, err := writer.Write(scanReport); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Report written to %s\n", cfg.ReportFile)
	return nil
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(out io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out, report.WithMarkdownVerbose(cfg.Verbose))
	default:
		return report.NewSimpleWriter(out,
			report.WithVerboseOutput(cfg.Verbose),
			report.WithColorOutput(cfg.Color),
		)
	}
}
