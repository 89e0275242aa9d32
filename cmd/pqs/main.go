// pqs runs Rector and PHPStan on a PHP project with one shared
// configuration.
//
// Usage:
//
//	pqs rector --level=5 --sets=deadCode:3,naming --dry-run
//	pqs phpstan --include=src --level=6 -- --memory-limit=1G
//	pqs analyze --include=src
//	pqs config rector --level=5
//	pqs rules --php=8.2 --symfony=6.4
//
// Parameters resolve from the command line, then PQS_* environment
// variables, then the parameters section of pqs.yml, then built-in
// defaults. Arguments pqs does not own are forwarded to the analyzer;
// everything after a literal "--" is forwarded verbatim.
//
// Exit codes: the analyzer's exit code when it ran, 2 for usage and
// configuration errors, 1 when an analyzer could not be started.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/internal/logging"
	"github.com/dkoosis/pqs/internal/report"
	"github.com/dkoosis/pqs/internal/runner"
	"github.com/dkoosis/pqs/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, config.OSEnv))
}

func run(args []string, stdout, stderr io.Writer, env config.EnvFunc) int {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "pqs: %v\n", err)
		return 1
	}

	debug, _ := env(config.EnvDebug)
	log := logging.New(stderr, debug != "")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(stdout, stderr, env, dir, log, runner.New(stdout, stderr, log))
	return a.execute(ctx, args)
}

// executor starts analyzers and probes the php binary.
type executor interface {
	Run(ctx context.Context, cmd runner.Command) (runner.Result, error)
	Output(ctx context.Context, cmd runner.Command) ([]byte, error)
}

type app struct {
	stdout   io.Writer
	stderr   io.Writer
	env      config.EnvFunc
	dir      string
	log      *zap.Logger
	exec     executor
	reporter *report.Reporter
	errTheme report.Theme
}

func newApp(stdout, stderr io.Writer, env config.EnvFunc, dir string, log *zap.Logger, exec executor) *app {
	if env == nil {
		env = config.NoEnv
	}
	if log == nil {
		log = logging.Nop()
	}
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		env:      env,
		dir:      dir,
		log:      log,
		exec:     exec,
		reporter: report.New(stdout, report.ThemeFor(stdout, env)),
		errTheme: report.ThemeFor(stderr, env),
	}
}

// exitError carries an analyzer's non-zero exit code up through cobra.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("analyzer exited with status %d", e.code) }

// launchError marks failures to start an analyzer, as opposed to usage or
// configuration errors.
type launchError struct{ err error }

func (e *launchError) Error() string { return e.err.Error() }

func (e *launchError) Unwrap() error { return e.err }

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(a.stderr, a.errTheme.Failure(err))

	var launch *launchError
	if errors.As(err, &launch) {
		return 1
	}
	return 2
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pqs",
		Short: "pqs - PHP quality suite",
		Long: `pqs runs Rector and PHPStan against a PHP project. Paths, rule
exclusions and analyzer parameters come from one pqs.yml, PQS_* environment
variables and the command line.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate("pqs version {{.Version}}\n")

	root.AddCommand(
		a.rectorCmd(),
		a.phpstanCmd(),
		a.analyzeCmd(),
		a.configCmd(),
		a.rulesCmd(),
		a.versionCmd(),
	)
	return root
}

// wantsHelp reports a -h or --help ahead of any "--" separator. Commands
// that parse their own arguments check it themselves.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "-h", "--help":
			return true
		}
	}
	return false
}
