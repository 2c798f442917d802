package fetch

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
)

// DefaultCommand downloads a URL to stdout, following redirects.
var DefaultCommand = []string{"curl", "-sL"}

// CommandFetcher runs an external transfer program with the URL as its last
// argument and treats stdout as the manifest text.
type CommandFetcher struct {
	argv     []string
	detector Detector
}

// NewCommandFetcher creates a CommandFetcher. An empty argv selects
// [DefaultCommand]; a nil detector selects [DefaultSentinel].
func NewCommandFetcher(argv []string, detector Detector) *CommandFetcher {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	if detector == nil {
		detector = DefaultSentinel
	}
	return &CommandFetcher{argv: append([]string(nil), argv...), detector: detector}
}

// Fetch runs the command. A non-zero exit or non-UTF-8 output is a
// transport failure.
func (f *CommandFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	args := append(append([]string(nil), f.argv[1:]...), rawURL)
	cmd := exec.CommandContext(ctx, f.argv[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return Result{}, apperr.Wrap(apperr.ErrCodeNetwork, err, "%s %s: %s", f.argv[0], rawURL, msg)
		}
		return Result{}, apperr.Wrap(apperr.ErrCodeNetwork, err, "%s %s", f.argv[0], rawURL)
	}

	text, err := decode(rawURL, stdout.Bytes())
	if err != nil {
		return Result{}, err
	}
	if f.detector.IsAbsent(0, text) {
		return NotFound(), nil
	}
	return Found(text), nil
}

var _ Fetcher = (*CommandFetcher)(nil)
