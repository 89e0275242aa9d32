package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoosis/pqs/internal/config"
	"github.com/dkoosis/pqs/internal/version"
	"github.com/dkoosis/pqs/pkg/semver"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [rector|phpstan] [parameters]",
		Short: "Print every resolved parameter and where it came from",
		Long: `Print every resolved parameter with the layer that decided it:
cli, env, file or default. The scope defaults to rector.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			scope := config.ScopeRector
			if len(args) > 0 {
				switch config.Scope(args[0]) {
				case config.ScopeRector, config.ScopePHPStan:
					scope = config.Scope(args[0])
					args = args[1:]
				}
			}

			file, store, err := a.resolve(args, scope)
			if err != nil {
				return err
			}
			return a.reporter.PrintTrail(file.Path, scope, store.Trail())
		},
	}
}

func (a *app) rulesCmd() *cobra.Command {
	var phpFlag, symfonyFlag string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the rules-excluded entries that apply to a PHP and Symfony version",
		Long: `Print the rules-excluded entries that apply to a PHP and Symfony version.
Without --php the version is read from composer.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.Load(a.dir, a.env)
			if err != nil {
				return err
			}
			catalog, err := file.RuleCatalog()
			if err != nil {
				return err
			}

			var php *semver.Version
			if phpFlag != "" {
				v, err := semver.ParseShort(phpFlag)
				if err != nil {
					return fmt.Errorf("--php: %w", err)
				}
				php = &v
			} else {
				php = a.projectPHP()
			}

			var framework *semver.Version
			if symfonyFlag != "" {
				v, err := semver.ParseShort(symfonyFlag)
				if err != nil {
					return fmt.Errorf("--symfony: %w", err)
				}
				framework = &v
			}

			return a.reporter.PrintRules(php, framework, catalog.ResolveExclusions(php, framework))
		},
	}
	cmd.Flags().StringVar(&phpFlag, "php", "", "PHP version, e.g. 8.2")
	cmd.Flags().StringVar(&symfonyFlag, "symfony", "", "Symfony version, e.g. 6.4")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "pqs %s (commit %s, built %s)\n", version.Version, version.CommitHash, version.BuildDate)
			return err
		},
	}
}
