package rungauss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/queue"
	"bwestbro.com/gausswrangler/internal/status"
	"bwestbro.com/gausswrangler/internal/tpl"
)

var ErrJobFailed = errors.New("Job failed")

// Runner runs and submits the chains of one Config
type Runner struct {
	Cfg    Config
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// NewRunner returns a Runner for cfg writing program output to stdout
// and job output to stderr
func NewRunner(cfg Config, stdout, stderr io.Writer, logger *slog.Logger) *Runner {
	return &Runner{Cfg: cfg, Stdout: stdout, Stderr: stderr, Logger: logger}
}

func (r *Runner) submitter() queue.Submitter {
	return queue.Submitter{Cmd: r.Cfg.Profile.SubmitCmd}
}

// RunJob runs job, the next job of the chain after cur. It writes the
// run script, runs it to completion, and unless testing checks that
// the job's log ends with Gaussian's normal termination line. On
// success the script is removed and the new Job returned.
func (r *Runner) RunJob(ctx context.Context, job, base string, cur Job) (Job, error) {
	next, err := Next(r.Cfg, job, base, cur)
	if err != nil {
		return cur, err
	}
	if !fsutil.Exists(next.InputFile) {
		return cur, status.Errorf(status.IO,
			"Could not find input file %s", next.InputFile)
	}
	script := fsutil.OutName(next.Name, "", ".sh", r.Cfg.OutDir)
	fmt.Fprintf(r.Stdout, "Running %s\n", next.Name)
	text, err := tpl.ReadFile(r.Cfg.RunTpl)
	if err != nil {
		return cur, err
	}
	if err := tpl.FillSave(r.Cfg.RunTpl, text, next.values(), script, 0755); err != nil {
		return cur, err
	}
	r.Logger.Debug("wrote run script", "file", script)

	abs, err := filepath.Abs(script)
	if err != nil {
		return cur, status.Wrap(status.IO, err)
	}
	cmd := exec.CommandContext(ctx, abs)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return cur, status.Errorf(status.Data, "%w: %s exited with code %d",
				ErrJobFailed, script, exitErr.ExitCode())
		}
		return cur, status.Errorf(status.IO, "Could not run %s: %v", script, err)
	}

	if r.Cfg.Testing {
		fmt.Fprintln(r.Stdout, "Testing mode; did not check for normal Gaussian termination.")
		return next, nil
	}
	logFile := next.Name + ".log"
	last, err := fsutil.LastLine(logFile)
	if err != nil {
		return cur, status.Errorf(status.IO, "Could not read %s: %v", logFile, err)
	}
	if !gaussian.NormalTermination.MatchString(last) {
		return cur, status.Errorf(status.Data, "%w: %s", ErrJobFailed, logFile)
	}
	fmt.Fprintf(r.Stdout, "Successfully completed %s\n", logFile)
	if err := os.Remove(script); err != nil {
		r.Logger.Warn("could not remove run script", "file", script, "err", err)
	}
	return next, nil
}

// RunChain runs the jobs of chain in order, stopping at the first
// failure
func (r *Runner) RunChain(ctx context.Context, chain []string, base string, cur Job) (Job, error) {
	for _, job := range chain {
		var err error
		if cur, err = r.RunJob(ctx, job, base, cur); err != nil {
			return cur, err
		}
	}
	return cur, nil
}
