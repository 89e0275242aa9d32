//go:build mage

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/dkoosis/pqs"
	binPath    = "bin/pqs"
)

// Default target - build the binary
var Default = Build

// Build builds the pqs binary with version information.
func Build() error {
	fmt.Println("Building pqs...")
	if err := sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binPath, "./cmd/pqs"); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Printf("Built: %s\n", binPath)
	return nil
}

// Clean removes build artifacts
func Clean() error {
	if err := sh.Rm("bin"); err != nil {
		return err
	}
	return sh.Run("go", "clean", "-testcache")
}

// Install installs pqs into GOBIN with version information
func Install() error {
	return sh.RunV("go", "install", "-ldflags", ldflags(), "./cmd/pqs")
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci)
}

// Format checks code formatting
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint when it is installed
func (Lint) Golangci() error {
	err := sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
	if isCommandNotFound(err) {
		fmt.Fprintln(os.Stderr, "golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
		return nil
	}
	return err
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Coverage runs tests with coverage
func (Test) Coverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// QA runs formatting, vet, lint, tests and a build
func QA() {
	mg.SerialDeps(Lint.All, Test.Race, Build)
}

// ldflags stamps build information into internal/version.
func ldflags() string {
	date := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("-s -w -X '%[1]s/internal/version.Version=%[2]s' -X '%[1]s/internal/version.CommitHash=%[3]s' -X '%[1]s/internal/version.BuildDate=%[4]s'",
		modulePath, gitVersion(), gitCommit(), date)
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty", "--match=v*")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(out)
}

func gitCommit() string {
	out, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out)
}

// isCommandNotFound matches exec.ErrNotFound and, since sh formats the
// underlying error into its message, the text it produces.
func isCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "executable file not found")
}
