package flatpak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/flatpak-runtime-updater/internal/logger"
	"github.com/oshokin/flatpak-runtime-updater/internal/looseversion"
)

const (
	// DefaultBinary is the flatpak executable looked up on PATH.
	DefaultBinary = "flatpak"

	searchSubcommand = "search"
	columnsFlag      = "--columns=application,branch"
)

// ExecCommandFunc creates the exec.Cmd for a flatpak invocation.
// Tests inject it to replace the real binary.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Client runs flatpak search.
type Client struct {
	// command is the argv prefix that runs flatpak.
	command []string
	// searchTerm overrides the runtime identifier as the search query.
	searchTerm string
	// timeout bounds a single invocation; zero means no limit.
	timeout time.Duration
	// execCommand builds the process.
	execCommand ExecCommandFunc
}

// Option configures a Client.
type Option func(*Client)

// WithCommand sets the words that run flatpak, e.g. "flatpak-spawn", "--host", "flatpak".
func WithCommand(words ...string) Option {
	return func(c *Client) {
		if len(words) > 0 {
			c.command = append([]string(nil), words...)
		}
	}
}

// WithSearchTerm queries flatpak with a fixed term instead of the runtime identifier.
func WithSearchTerm(term string) Option {
	return func(c *Client) {
		c.searchTerm = term
	}
}

// WithTimeout limits how long a single search may run.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.execCommand = fn
		}
	}
}

// NewClient creates a client that runs DefaultBinary unless configured otherwise.
func NewClient(opts ...Option) *Client {
	c := &Client{
		command:     []string{DefaultBinary},
		execCommand: exec.CommandContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchTerm returns the query used to look up runtimeID.
func (c *Client) SearchTerm(runtimeID string) string {
	if c.searchTerm != "" {
		return c.searchTerm
	}

	return runtimeID
}

// Search runs flatpak search for term and returns the parsed rows.
func (c *Client) Search(ctx context.Context, term string) ([]Row, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(c.command)+2)
	args = append(args, c.command[1:]...)
	args = append(args, searchSubcommand, columnsFlag, term)

	var stdout, stderr bytes.Buffer

	cmd := c.execCommand(ctx, c.command[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := strings.Join(append([]string{c.command[0]}, args...), " ")
	logger.DebugKV(ctx, "Running flatpak", "command", commandLine)

	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{
			Command:  commandLine,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}

		return nil, toolErr
	}

	rows, err := ParseRows(stdout.String())
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Parsed flatpak search output", "rows", len(rows))

	return rows, nil
}

// LatestBranch returns the greatest branch reported for runtimeID.
func (c *Client) LatestBranch(ctx context.Context, runtimeID string) (string, error) {
	rows, err := c.Search(ctx, c.SearchTerm(runtimeID))
	if err != nil {
		return "", err
	}

	latest, ok := looseversion.Max(BranchesOf(rows, runtimeID)...)
	if !ok {
		return "", fmt.Errorf("%s: %w", runtimeID, ErrRuntimeNotFound)
	}

	return latest, nil
}
