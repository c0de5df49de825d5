// Package cli implements the preflight command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/preflight/internal/config"
	"github.com/crimson-sun/preflight/internal/logging"

	// Register connector implementations.
	_ "github.com/crimson-sun/preflight/internal/connector/givebutter"
	_ "github.com/crimson-sun/preflight/internal/connector/jotform"
	_ "github.com/crimson-sun/preflight/internal/connector/supabase"
)

// Exit codes.
const (
	// ExitCodeSuccess indicates every check passed or the exploration ran.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed connectivity check or a runtime error.
	ExitCodeError = 1
	// ExitCodeUsage indicates an invalid invocation or configuration.
	ExitCodeUsage = 2
)

// ErrChecksFailed is returned by the check command when any probe fails. The
// report has already been written, so it is not printed again.
var ErrChecksFailed = errors.New("one or more connectivity checks failed")

type globalFlags struct {
	envFile  string
	keyring  bool
	logLevel string
	output   string
	jq       string
	quiet    bool
	limit    int
	timeout  time.Duration
	history  string
	maxSize  int64
	webhook  string
	headers  map[string]string
}

// app carries the state shared by all subcommands of one invocation.
type app struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree writing reports to stdout and
// diagnostics to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "preflight",
		Short: "Verify credentials and inspect data shapes before building a sync pipeline",
		Long: `preflight checks that the form service (Jotform), the campaign service
(Givebutter) and the data store (Supabase) are reachable with the configured
credentials, and samples their records so field names and types are known
before any sync logic is written.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment")
	pf.BoolVar(&a.flags.keyring, "keyring", false, "look up missing API keys in the OS keyring")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&a.flags.output, "output", "o", "", "output format: console, json, yaml, csv")
	pf.StringVar(&a.flags.jq, "jq", "", "jq expression applied to json or yaml output")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "no spinner, hints or console echo")
	pf.IntVar(&a.flags.limit, "limit", 0, "records sampled per endpoint")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout")
	pf.StringVar(&a.flags.history, "history-file", "", "append every check report to this NDJSON file")
	pf.Int64Var(&a.flags.maxSize, "history-max-size", 0, "rotate the history file at this size in bytes (0: never)")
	pf.StringVar(&a.flags.webhook, "webhook", "", "POST every report to this URL")
	pf.StringToStringVar(&a.flags.headers, "webhook-header", nil, "extra webhook header as Name=value (repeatable)")

	root.AddCommand(a.newCheckCmd(), a.newExploreCmd())
	return root
}

// setup loads configuration, applies flag overrides and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{EnvFile: a.flags.envFile, UseKeyring: a.flags.keyring})
	if err != nil {
		return usageError{err}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if flags.Changed("output") {
		cfg.Output.Format = a.flags.output
	}
	if flags.Changed("limit") {
		cfg.Output.SampleLimit = a.flags.limit
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = a.flags.timeout
	}
	if flags.Changed("history-file") {
		cfg.Output.HistoryFile = a.flags.history
	}
	if flags.Changed("history-max-size") {
		cfg.Output.HistoryMaxSize = a.flags.maxSize
	}
	if flags.Changed("webhook") {
		cfg.Output.WebhookURL = a.flags.webhook
	}
	if flags.Changed("webhook-header") {
		cfg.Output.WebhookHeaders = a.flags.headers
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}

	a.cfg = cfg
	a.logger = logging.Init(a.stderr, cfg.Output.Format != "console", logging.ParseLevel(cfg.Log.Level))
	a.logger.Debug("configuration loaded", "output", cfg.Output.Format, "limit", cfg.Output.SampleLimit, "timeout", cfg.HTTP.Timeout)
	return nil
}

// usageError marks failures caused by the invocation itself.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		return ExitCodeUsage
	}
	return ExitCodeError
}

// Execute runs the command line with the process arguments and returns the
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	// A bare ErrChecksFailed has already been reported; anything joined to it
	// has not.
	if err != nil && err != ErrChecksFailed {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return ExitCode(err)
}
