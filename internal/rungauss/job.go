package rungauss

import (
	"bwestbro.com/gausswrangler/internal/tpl"
)

// Placeholders available to the run script and old_check_echo
// templates
const (
	PhJobName      = "job_name"
	PhInputFile    = "input_file"
	PhOldJobName   = "old_job_name"
	PhOldCheckEcho = "old_check_echo"
)

// Job is the state carried from one job of a chain to the next. Each
// stage returns a new Job rather than changing the one it was given.
type Job struct {
	// Name is the Gaussian job name, which also names the run script
	// and the log file
	Name      string
	InputFile string
	// OldName names the job whose checkpoint this one reads
	OldName      string
	OldCheckEcho string
}

// NewJob returns the Job for the initial input file of base
func NewJob(name, inputFile string) Job {
	return Job{Name: name, InputFile: inputFile}
}

func (j Job) values() map[string]string {
	return map[string]string{
		PhJobName:      j.Name,
		PhInputFile:    j.InputFile,
		PhOldJobName:   j.OldName,
		PhOldCheckEcho: j.OldCheckEcho,
	}
}

// checkEcho fills the old_check_echo template so that it reads the
// checkpoint of oldName
func checkEcho(cfg Config, oldName string) (string, error) {
	return tpl.Fill(KeyOldCheckEcho, cfg.OldCheckEcho,
		map[string]string{PhOldJobName: oldName})
}

// Next returns the Job that runs job after cur. The empty job name is
// the initial job, which reads base plus the input extension.
func Next(cfg Config, job, base string, cur Job) (Job, error) {
	var (
		next Job
		err  error
	)
	if job == "" {
		next = cur
		next.InputFile = base + cfg.InputExt
		next.OldCheckEcho = ""
		if cfg.FirstJobChk != "" {
			next.OldCheckEcho, err = checkEcho(cfg, cfg.FirstJobChk)
		}
		return next, err
	}
	next = Job{
		Name:      cur.Name + "_" + job,
		InputFile: cfg.TplPaths[job],
		OldName:   cur.Name,
	}
	next.OldCheckEcho, err = checkEcho(cfg, cur.Name)
	return next, err
}
