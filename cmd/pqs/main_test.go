package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pqs/internal/runner"
)

const projectYAML = `paths-included:
  src: src
  tests: tests
paths-excluded:
  - var
rules-included:
  arrow: ArrowRector
rules-excluded:
  - ArrowRector
  - ReadonlyRector:php<8.1
  - AttributeRector:symfony<6.1
parameters:
  details: false
`

// fakeExec records analyzer invocations instead of starting processes.
type fakeExec struct {
	runs         []runner.Command
	exit         map[string]int
	changed      int
	runErr       error
	probe        []byte
	probeErr     error
	rectorConfig string
	configPath   string
}

func (f *fakeExec) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.runs = append(f.runs, cmd)
	if f.runErr != nil {
		return runner.Result{}, f.runErr
	}
	for _, arg := range cmd.Args {
		if path, ok := strings.CutPrefix(arg, "--config="); ok {
			f.configPath = path
			data, _ := os.ReadFile(path)
			f.rectorConfig = string(data)
		}
	}
	return runner.Result{Command: cmd, ExitCode: f.exit[cmd.Name], Changed: f.changed}, nil
}

func (f *fakeExec) Output(context.Context, runner.Command) ([]byte, error) {
	if f.probe == nil && f.probeErr == nil {
		return []byte("80300"), nil
	}
	return f.probe, f.probeErr
}

func (f *fakeExec) names() []string {
	var out []string
	for _, c := range f.runs {
		out = append(out, c.Name)
	}
	return out
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pqs.yml"), []byte(projectYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "composer.json"), []byte(`{"require": {"php": "^8.1"}}`), 0o644))
	return dir
}

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

type harness struct {
	dir    string
	exec   *fakeExec
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{dir: newProject(t), exec: &fakeExec{exit: map[string]int{}}}
}

func (h *harness) run(env map[string]string, args ...string) int {
	a := newApp(&h.stdout, &h.stderr, envOf(env), h.dir, nil, h.exec)
	return a.execute(context.Background(), args)
}

func TestRector_RunsWithGeneratedConfig(t *testing.T) {
	h := newHarness(t)

	code := h.run(nil, "rector", "--level=5", "--dry-run", "--", "--debug")
	require.Equal(t, 0, code, h.stderr.String())

	require.Len(t, h.exec.runs, 1)
	cmd := h.exec.runs[0]
	assert.Equal(t, "php", cmd.Path)
	assert.Equal(t, filepath.Join(h.dir, "vendor/bin/rector"), cmd.Args[0])
	assert.Equal(t, []string{"--debug", "--dry-run"}, cmd.Args[len(cmd.Args)-2:])
	assert.Equal(t, h.dir, cmd.WorkingDir)

	assert.Contains(t, h.exec.rectorConfig, "->withPhpLevel(5)")
	assert.Contains(t, h.exec.rectorConfig, "'ArrowRector',")
	assert.NotContains(t, h.exec.rectorConfig, "ReadonlyRector")
	assert.NotContains(t, h.exec.rectorConfig, "AttributeRector")

	_, err := os.Stat(h.exec.configPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "generated config is removed after the run")

	out := h.stdout.String()
	assert.Contains(t, out, "With php version:                   8.1.x (8.1)")
	assert.Contains(t, out, "Dry run mode:                       Yes")
	assert.Contains(t, out, "No file changeable or changed.")
}

func TestRector_SymfonyExclusions(t *testing.T) {
	h := newHarness(t)

	code := h.run(map[string]string{"PQS_WITH_SYMFONY": "6.0"}, "rector")
	require.Equal(t, 0, code, h.stderr.String())
	assert.Contains(t, h.exec.rectorConfig, "'AttributeRector',")
	assert.Contains(t, h.exec.rectorConfig, "SymfonySetList::SYMFONY_60,")
}

func TestRector_PropagatesExitCode(t *testing.T) {
	h := newHarness(t)
	h.exec.exit["rector"] = 3
	h.exec.changed = 2

	assert.Equal(t, 3, h.run(nil, "rector"))
	assert.Contains(t, h.stdout.String(), "Total 2 files changed.")
	assert.Empty(t, h.stderr.String())
}

func TestRector_UnknownKey(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(nil, "rector", "--frobnicate=1"))
	assert.Contains(t, h.stderr.String(), "unknown key")
	assert.Empty(t, h.exec.runs)
}

func TestRector_InvalidEnvValue(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(map[string]string{"PQS_LEVEL": "high"}, "rector"))
	assert.Contains(t, h.stderr.String(), "PQS_LEVEL")
	assert.Empty(t, h.exec.runs)
}

func TestRector_LaunchFailure(t *testing.T) {
	h := newHarness(t)
	h.exec.runErr = errors.New("run rector: exec: \"php\": executable file not found in $PATH")

	assert.Equal(t, 1, h.run(nil, "rector"))
	assert.Contains(t, h.stderr.String(), "executable file not found")
}

func TestRector_Help(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 0, h.run(nil, "rector", "--help"))
	assert.Contains(t, h.stdout.String(), "--with-symfony")
	assert.Contains(t, h.stdout.String(), "Symfony versions: 2.5, 2.6")
	assert.Contains(t, h.stdout.String(), "7.3, 7.4")
	assert.Empty(t, h.exec.runs)
}

func TestPHPStan(t *testing.T) {
	h := newHarness(t)

	code := h.run(nil, "phpstan", "--level=6", "--include=src", "--", "--memory-limit=1G")
	require.Equal(t, 0, code, h.stderr.String())

	require.Len(t, h.exec.runs, 1)
	assert.Equal(t, []string{
		filepath.Join(h.dir, "vendor/bin/phpstan"), "analyse", "src", "--level", "6", "--memory-limit=1G",
	}, h.exec.runs[0].Args)
	assert.Contains(t, h.stdout.String(), "Running PHP version:                8.3.0 (8.3)")
}

func TestPHPStan_RejectsRectorOnlyKey(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(nil, "phpstan", "--sets=naming"))
	assert.Contains(t, h.stderr.String(), "not available for phpstan")
	assert.Empty(t, h.exec.runs)
}

func TestPHPStan_UnknownRuntimeVersion(t *testing.T) {
	h := newHarness(t)
	h.exec.probeErr = errors.New("php: not found")

	assert.Equal(t, 0, h.run(nil, "phpstan"))
	assert.Contains(t, h.stdout.String(), "Running PHP version:                unknown")
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		phpstan int
		rector  int
		want    int
	}{
		{"both pass", 0, 0, 0},
		{"phpstan fails", 1, 0, 1},
		{"rector fails", 0, 2, 2},
		{"phpstan wins", 1, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.exec.exit["phpstan"] = tt.phpstan
			h.exec.exit["rector"] = tt.rector

			assert.Equal(t, tt.want, h.run(nil, "analyze", "--level=4"))
			assert.Equal(t, []string{"phpstan", "rector"}, h.exec.names())
		})
	}
}

func TestAnalyze_RejectsSingleScopeKey(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(nil, "analyze", "--with-symfony=6.4"))
	assert.Empty(t, h.exec.runs)
}

func TestConfig_PrintsTrail(t *testing.T) {
	h := newHarness(t)

	code := h.run(map[string]string{"PQS_DETAILS": "1"}, "config", "phpstan", "--level=4")
	require.Equal(t, 0, code, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, "Analyzer:                           phpstan")
	assert.Contains(t, out, filepath.Join(h.dir, "pqs.yml"))
	assert.Contains(t, out, "cli (--level=4)")
	assert.Contains(t, out, "env (PQS_DETAILS)")
	assert.Empty(t, h.exec.runs)
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(map[string]string{"PQS_CONFIG": "missing.yml"}, "config"))
	assert.Contains(t, h.stderr.String(), "config file not found")
}

func TestRules(t *testing.T) {
	h := newHarness(t)

	code := h.run(nil, "rules", "--php=8.0", "--symfony=6.0")
	require.Equal(t, 0, code, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, "ArrowRector\nReadonlyRector\nAttributeRector\n")
	assert.Contains(t, out, "Total 3 rules excluded.")
}

func TestRules_ComposerVersion(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(nil, "rules"))
	out := h.stdout.String()
	assert.Contains(t, out, "PHP version:                        8.1")
	assert.Contains(t, out, "Total 1 rule excluded.")
}

func TestRules_BadVersion(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(nil, "rules", "--php=eight"))
	assert.Contains(t, h.stderr.String(), "--php")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 0, h.run(nil, "version"))
	assert.Contains(t, h.stdout.String(), "pqs dev")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run(nil, "frobnicate"))
	assert.True(t, strings.HasPrefix(h.stderr.String(), "pqs: "))
	assert.Contains(t, h.stderr.String(), "unknown command")
}
