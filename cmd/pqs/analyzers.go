package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkoosis/pqs/internal/analyzer"
	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/internal/phpenv"
	"github.com/dkoosis/pqs/internal/report"
	"github.com/dkoosis/pqs/pkg/semver"
)

func (a *app) rectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rector [parameters] [-- rector arguments]",
		Short: "Run rector process with the resolved configuration",
		Long: `Run rector process with a rector.php generated from pqs.yml.

Parameters: ` + keyList(config.ScopeRector) + `
Symfony versions: ` + strings.Join(config.SymfonyVersions(), ", "),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			code, err := a.runRector(cmd.Context(), args)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}
}

func (a *app) phpstanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phpstan [parameters] [-- phpstan arguments]",
		Short: "Run phpstan analyse on the included paths",
		Long: `Run phpstan analyse on the paths selected from pqs.yml.

Parameters: ` + keyList(config.ScopePHPStan),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			code, err := a.runPHPStan(cmd.Context(), args)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [parameters] [-- analyzer arguments]",
		Short: "Run phpstan, then rector; the first non-zero exit code wins",
		Long: `Run phpstan, then rector, with the same parameters. Only parameters
that apply to both analyzers are accepted.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			// Resolve both scopes up front so a parameter only one analyzer
			// accepts fails before anything runs.
			for _, scope := range []config.Scope{config.ScopePHPStan, config.ScopeRector} {
				if _, _, err := config.SplitArguments(args, scope); err != nil {
					return err
				}
			}

			phpstan, err := a.runPHPStan(cmd.Context(), args)
			if err != nil {
				return err
			}
			rector, err := a.runRector(cmd.Context(), args)
			if err != nil {
				return err
			}
			if phpstan != 0 {
				return exitWith(phpstan)
			}
			return exitWith(rector)
		},
	}
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

func keyList(scope config.Scope) string {
	var names []string
	for _, k := range config.Keys() {
		if k.In(scope) {
			names = append(names, k.Flag())
		}
	}
	return strings.Join(names, ", ")
}

// resolve loads the configuration and resolves args for scope.
func (a *app) resolve(args []string, scope config.Scope) (*config.File, *config.Store, error) {
	file, err := config.Load(a.dir, a.env)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("loaded configuration", zap.String("path", file.Path))

	store, err := config.Resolve(config.Inputs{Args: args, Env: a.env, File: file, Scope: scope})
	if err != nil {
		return nil, nil, err
	}
	for _, res := range store.Trail() {
		a.log.Debug("resolved parameter",
			zap.String("key", res.Key),
			zap.String("value", res.Value),
			zap.String("source", string(res.Source)),
			zap.String("origin", res.Origin),
		)
	}
	a.log.Debug("forwarded arguments", zap.Strings("args", store.Remaining()))
	return file, store, nil
}

// projectPHP returns the project PHP version from composer.json, or nil
// with a warning when it cannot be determined. Version-gated exclusions
// then do not apply.
func (a *app) projectPHP() *semver.Version {
	v, err := phpenv.ResolveProjectVersion(a.dir)
	if err != nil {
		a.log.Warn("php version unknown, version-gated rule exclusions are not applied", zap.Error(err))
		return nil
	}
	a.log.Debug("project php version", zap.String("version", v.String()))
	return &v
}

func (a *app) runRector(ctx context.Context, args []string) (int, error) {
	file, store, err := a.resolve(args, config.ScopeRector)
	if err != nil {
		return 0, err
	}
	php := a.projectPHP()

	plan, err := analyzer.BuildRector(store, file, php, a.dir)
	if err != nil {
		return 0, err
	}
	a.log.Debug("rector plan",
		zap.Strings("paths", plan.Paths),
		zap.Int("exclusions", len(plan.Exclusions)),
		zap.Strings("rules", plan.Rules),
		zap.Strings("sets", plan.EnabledSets()),
	)

	if _, err := a.reporter.PrintRectorOverview(report.NewRectorOverview(store, php)); err != nil {
		return 0, &launchError{err: err}
	}

	configPath, cleanup, err := analyzer.WriteRectorConfig(plan)
	if err != nil {
		return 0, &launchError{err: err}
	}
	defer cleanup()

	res, err := a.exec.Run(ctx, analyzer.RectorCommand("", a.dir, configPath, plan))
	if err != nil {
		return 0, &launchError{err: err}
	}
	if err := a.reporter.PrintResult(res.Changed, res.Changeable); err != nil {
		return 0, &launchError{err: err}
	}
	return res.ExitCode, nil
}

func (a *app) runPHPStan(ctx context.Context, args []string) (int, error) {
	file, store, err := a.resolve(args, config.ScopePHPStan)
	if err != nil {
		return 0, err
	}

	plan, err := analyzer.BuildPHPStan(store, file)
	if err != nil {
		return 0, err
	}
	if len(plan.Pruned) > 0 {
		a.log.Info("included paths skipped by paths-excluded", zap.Strings("paths", plan.Pruned))
	}

	var php *semver.Version
	if v, err := phpenv.ResolveRuntimeVersion(ctx, a.exec, ""); err != nil {
		a.log.Warn("cannot determine running php version", zap.Error(err))
	} else {
		php = &v
	}

	if _, err := a.reporter.PrintPHPStanOverview(report.NewPHPStanOverview(store, php)); err != nil {
		return 0, &launchError{err: err}
	}

	res, err := a.exec.Run(ctx, analyzer.PHPStanCommand("", a.dir, plan))
	if err != nil {
		return 0, &launchError{err: err}
	}
	return res.ExitCode, nil
}
