package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vidsink/vidsink/internal/logger"
)

// ErrCancelled reports a run that ended because the caller asked for it,
// not because yt-dlp failed.
var ErrCancelled = errors.New("download cancelled")

type Runner struct {
	Logger  *logger.Logger
	BinPath string
}

func NewRunner(binPath string, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Default()
	}
	return &Runner{BinPath: binPath, Logger: log.WithComponent("ytdlp")}
}

// Run executes yt-dlp and relays parsed progress lines to the progress
// channel. Sends never block; a full channel drops the update. Closing cancel
// kills the process and Run returns ErrCancelled after the process is reaped.
// On success the printed output path is returned, which may be empty when
// yt-dlp did not emit one.
func (r *Runner) Run(ctx context.Context, args []string, progress chan<- Progress, cancel <-chan struct{}) (string, error) {
	cmd := exec.Command(r.BinPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", r.BinPath, err)
	}

	var outputPath string
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if p, ok := ParseProgress(line); ok {
				select {
				case progress <- p:
				default:
				}
				continue
			}
			if path, ok := ParseOutputPath(line); ok {
				outputPath = path
			}
		}
	}()

	// Wait only after the reader drained stdout, so outputPath is settled
	// and the pipe is not closed under the scanner.
	waitCh := make(chan error, 1)
	go func() {
		<-readerDone
		waitCh <- cmd.Wait()
	}()

	select {
	case <-cancel:
		_ = cmd.Process.Kill()
		<-waitCh
		return "", ErrCancelled
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitCh
		return "", ctx.Err()
	case waitErr := <-waitCh:
		if waitErr != nil {
			return "", runError(waitErr, &stderr)
		}
		return outputPath, nil
	}
}

// Output runs yt-dlp with the given args and returns its stdout, for JSON
// metadata queries.
func (r *Runner) Output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.BinPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, runError(err, &stderr)
	}
	return out, nil
}

func runError(waitErr error, stderr *bytes.Buffer) error {
	detail := lastLine(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if detail != "" {
			return fmt.Errorf("yt-dlp exited with code %d: %s", exitErr.ExitCode(), detail)
		}
		return fmt.Errorf("yt-dlp exited with code %d", exitErr.ExitCode())
	}
	if detail != "" {
		return fmt.Errorf("yt-dlp failed: %w: %s", waitErr, detail)
	}
	return fmt.Errorf("yt-dlp failed: %w", waitErr)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
