package analyzer

import (
	"path/filepath"

	"github.com/dkoosis/pqs/internal/runner"
)

// Analyzer entry points, relative to the project root.
const (
	RectorBin  = "vendor/bin/rector"
	PHPStanBin = "vendor/bin/phpstan"
)

// RectorCommand runs rector against the generated configuration file.
func RectorCommand(php, dir, configPath string, plan *RectorPlan) runner.Command {
	args := []string{filepath.Join(dir, RectorBin), "process", "--ansi", "--config=" + configPath}
	return runner.Command{
		Name:       "rector",
		Path:       phpBinary(php),
		Args:       append(args, plan.Args...),
		WorkingDir: dir,
	}
}

// PHPStanCommand runs "phpstan analyse" with the plan's arguments.
func PHPStanCommand(php, dir string, plan *PHPStanPlan) runner.Command {
	args := []string{filepath.Join(dir, PHPStanBin), "analyse"}
	return runner.Command{
		Name:       "phpstan",
		Path:       phpBinary(php),
		Args:       append(args, plan.Arguments()...),
		WorkingDir: dir,
	}
}

func phpBinary(php string) string {
	if php == "" {
		return "php"
	}
	return php
}
