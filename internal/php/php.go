// Package php runs code in the target project's PHP runtime: plain
// snippets, snippets inside a booted Laravel application, and the model
// listing built on top of them.
package php

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phobologic/callsite/internal/config"
	"github.com/phobologic/callsite/internal/logging"
	"github.com/phobologic/callsite/internal/project"
)

var (
	// ErrNoProject is returned by RunLaravel when vendor/autoload.php or
	// bootstrap/app.php is missing.
	ErrNoProject = errors.New("laravel application not found")

	// ErrNoOutput is returned when PHP writes nothing to stdout.
	ErrNoOutput = errors.New("php produced no output")
)

// ExecFunc runs a shell command line in dir.
type ExecFunc func(ctx context.Context, dir, command string) (stdout, stderr []byte, err error)

// Client runs PHP for one project. It is safe for concurrent use.
type Client struct {
	command   string
	timeout   time.Duration
	modelsTTL time.Duration
	paths     *project.Paths
	logger    *slog.Logger
	exec      ExecFunc
	unix      bool
	now       func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	models   []string
	modelsAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithExec replaces the shell used to run commands.
func WithExec(fn ExecFunc) Option {
	return func(c *Client) { c.exec = fn }
}

// WithClock replaces time.Now for the models cache.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithUnixQuoting forces the unix (true) or windows (false) escaping rules.
func WithUnixQuoting(unix bool) Option {
	return func(c *Client) { c.unix = unix }
}

// New creates a Client. A nil logger discards output.
func New(cfg config.PHPConfig, paths *project.Paths, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Client{
		command:   cfg.Command,
		timeout:   cfg.Timeout,
		modelsTTL: cfg.ModelsTTL,
		paths:     paths,
		logger:    logger,
		exec:      shellExec,
		unix:      runtime.GOOS != "windows",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunPHP substitutes code into the configured command and runs it,
// returning stdout. Output on stdout counts as success even when the
// process exits non-zero.
func (c *Client) RunPHP(ctx context.Context, code string) (string, error) {
	command := strings.Replace(c.command, "{code}", EscapeCode(code, c.unix), 1)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stdout, stderr, err := c.exec(ctx, c.paths.WorkDir(), command)
	if len(stdout) > 0 {
		return string(stdout), nil
	}

	msg := strings.TrimSpace(string(stderr))
	c.logger.Warn("php command failed", slog.String("stderr", msg))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNoOutput, msg, err)
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutput, msg)
}

// EscapeCode prepares code for the double-quoted {code} slot of the
// command. Unix shells additionally need "$" and backslash-quote pairs
// escaped.
func EscapeCode(code string, unix bool) string {
	code = strings.ReplaceAll(code, `"`, `\"`)
	if unix {
		code = strings.ReplaceAll(code, `$`, `\$`)
		code = strings.ReplaceAll(code, `\\'`, `\\\\'`)
		code = strings.ReplaceAll(code, `\\"`, `\\\\"`)
	}
	return code
}

func shellExec(ctx context.Context, dir, command string) ([]byte, []byte, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
