// Package queue sends generated job scripts to the cluster's batch
// queue.
package queue

import (
	"context"
	_ "embed"
	"os/exec"
	"strings"

	"bwestbro.com/gausswrangler/internal/status"
)

// SbatchTemplate is the submission script used when a configuration
// does not name its own
//
//go:embed sbatch.tmpl
var SbatchTemplate string

// SbatchTemplateName identifies SbatchTemplate in error messages
const SbatchTemplateName = "sbatch.tmpl (built in)"

// Submitter runs the queue submission command
type Submitter struct {
	// Cmd is the submission command, sbatch on a SLURM cluster
	Cmd string
}

// Result is what the queue said about a submission
type Result struct {
	Output string
	JobID  string
}

// Submit sends filename to the queue. The job runs in the current
// directory.
func (s Submitter) Submit(ctx context.Context, filename string) (Result, error) {
	cmd := exec.CommandContext(ctx, s.Cmd, filename)
	byts, err := cmd.Output()
	if err != nil {
		return Result{}, status.Errorf(status.IO,
			"error on %q: %w", cmd.String(), err)
	}
	out := strings.TrimSpace(string(byts))
	return Result{Output: out, JobID: JobID(out)}, nil
}

// JobID extracts the id from output like "Submitted batch job
// 49229449". It returns "" for anything else.
func JobID(output string) string {
	fields := strings.Fields(output)
	if len(fields) == 4 && fields[0] == "Submitted" {
		return fields[3]
	}
	return ""
}
