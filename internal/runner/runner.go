// Package runner executes a wrapped analyzer and relays its output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Command defines an analyzer invocation.
type Command struct {
	Name       string   // Display name (e.g., "rector")
	Path       string   // Executable (e.g., "php")
	Args       []string // Command arguments
	WorkingDir string   // Working directory (empty = current)
	Env        []string // Extra KEY=VALUE pairs added to the inherited environment
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result holds the outcome of one run.
type Result struct {
	Command  Command
	ExitCode int
	Duration time.Duration
	// Changed and Changeable are taken from Rector's "[OK]" summary line.
	Changed    int
	Changeable int
}

var (
	changedLine    = regexp.MustCompile(`\[OK\] (\d+) files? (?:has|have) been changed`)
	changeableLine = regexp.MustCompile(`\[OK\] (\d+) files? would have been changed`)
	ansiEscape     = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
)

// Runner runs commands, copying their output to Stdout and Stderr.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	log    *zap.Logger
}

// New returns a Runner. A nil logger discards logs.
func New(stdout, stderr io.Writer, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Stdout: stdout, Stderr: stderr, log: log}
}

// Run executes cmd and waits for it. A non-zero exit is reported in
// Result.ExitCode, not as an error; the error is reserved for commands that
// could not run at all.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	start := time.Now()
	result := Result{Command: cmd}

	c := r.command(ctx, cmd)
	stdout, err := c.StdoutPipe()
	if err != nil {
		return result, fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	r.log.Debug("starting analyzer", zap.String("name", cmd.Name), zap.String("command", cmd.String()), zap.String("dir", cmd.WorkingDir))
	if err := c.Start(); err != nil {
		return result, fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		changed, changeable, err := relay(stdout, r.Stdout)
		result.Changed, result.Changeable = changed, changeable
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(r.Stderr, stderr)
		return err
	})
	relayErr := g.Wait()

	waitErr := c.Wait()
	result.Duration = time.Since(start)
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("run %s: %w", cmd.Name, waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	if relayErr != nil {
		return result, fmt.Errorf("relay %s output: %w", cmd.Name, relayErr)
	}

	r.log.Debug("analyzer finished",
		zap.String("name", cmd.Name),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Int("changed", result.Changed),
		zap.Int("changeable", result.Changeable),
	)
	return result, nil
}

// Output runs cmd and returns its standard output. Standard error is
// included in the error when the command fails.
func (r *Runner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c := r.command(ctx, cmd)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	r.log.Debug("probing", zap.String("command", cmd.String()))
	out, err := c.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", cmd.Name, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	return out, nil
}

func (r *Runner) command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	if cmd.WorkingDir != "" {
		c.Dir = cmd.WorkingDir
	}
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	return c
}

// relay copies src to dst as it arrives and picks up Rector's summary.
// Progress redraws without a newline reach dst immediately.
func relay(src io.Reader, dst io.Writer) (changed, changeable int, err error) {
	var counter summaryCounter
	if _, err := io.Copy(io.MultiWriter(dst, &counter), src); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, src)
		return counter.changed, counter.changeable, err
	}
	counter.flush()
	return counter.changed, counter.changeable, nil
}

// maxSummaryLine bounds the bytes kept of an unterminated line. Summary
// lines are far shorter; longer runs are progress redraws.
const maxSummaryLine = 4096

// summaryCounter matches Rector's summary lines in a stream split on
// \n and \r.
type summaryCounter struct {
	line       []byte
	changed    int
	changeable int
}

func (c *summaryCounter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexAny(p, "\r\n")
		if i < 0 {
			c.buffer(p)
			break
		}
		c.buffer(p[:i])
		c.flush()
		p = p[i+1:]
	}
	return n, nil
}

func (c *summaryCounter) buffer(p []byte) {
	c.line = append(c.line, p...)
	if over := len(c.line) - maxSummaryLine; over > 0 {
		c.line = append(c.line[:0], c.line[over:]...)
	}
}

func (c *summaryCounter) flush() {
	if len(c.line) == 0 {
		return
	}
	plain := ansiEscape.ReplaceAllString(string(c.line), "")
	c.line = c.line[:0]
	if m := changedLine.FindStringSubmatch(plain); m != nil {
		c.changed, _ = strconv.Atoi(m[1])
	}
	if m := changeableLine.FindStringSubmatch(plain); m != nil {
		c.changeable, _ = strconv.Atoi(m[1])
	}
}
