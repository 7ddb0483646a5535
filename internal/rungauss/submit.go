package rungauss

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/queue"
	"bwestbro.com/gausswrangler/internal/status"
	"bwestbro.com/gausswrangler/internal/tpl"
)

// Placeholders available to the sbatch template
const (
	PhPartition   = "partition"
	PhRunTime     = "run_time"
	PhAccount     = "account"
	PhQOS         = "qos"
	PhIni         = "run_gauss_ini"
	PhOptOldName  = "opt_old_name"
	PhEmail       = "email"
	emailTemplate = "#SBATCH --mail-type=FAIL\n#SBATCH --mail-type=END\n#SBATCH --mail-user=%s"
)

// checkpointGuard fails when inputFile's route would read a checkpoint
// that no option supplies
func checkpointGuard(inputFile string) error {
	f, err := os.Open(inputFile)
	if err != nil {
		return status.Errorf(status.IO, "Could not read file %s", inputFile)
	}
	defer f.Close()
	line, err := gaussian.RouteReadsCheckpoint(f)
	if err != nil {
		return status.Errorf(status.IO, "Could not read file %s: %v", inputFile, err)
	}
	if line != "" {
		return status.Errorf(status.Data,
			"Did not find an old checkpoint file to read, but the Gaussian "+
				"input header indicates that Gaussian will attempt and fail to "+
				"read from a checkpoint:\n   file:  %s\n  route:  %s",
			inputFile, line)
	}
	return nil
}

// SbatchValues returns the values for the sbatch template of a
// submission of chain starting from cur, whose config file is iniName
func (r *Runner) SbatchValues(cur Job, iniName string, chain []string) (map[string]string, error) {
	cfg := r.Cfg
	ret := map[string]string{
		PhPartition: cfg.Profile.Partition,
		PhRunTime:   cfg.Profile.RunTime,
		PhAccount:   cfg.Profile.Account,
		PhJobName:   cur.Name,
		PhIni:       iniName,
		PhQOS:       cfg.Profile.QOS,
		PhEmail:     "",
	}
	switch {
	case cfg.FirstJobChk != "":
		ret[PhOptOldName] = "-o " + cfg.FirstJobChk
	case cfg.StartFromSameChk:
		ret[PhOptOldName] = "-o " + cur.Name
	default:
		ret[PhOptOldName] = ""
		if len(chain) > 0 && chain[0] == "" && cfg.CheckForChk {
			if err := checkpointGuard(cur.InputFile); err != nil {
				return nil, err
			}
		}
	}
	if cfg.Profile.Email != "" {
		ret[PhEmail] = fmt.Sprintf(emailTemplate, cfg.Profile.Email)
	}
	return ret, nil
}

func relPath(name string) string {
	wd, err := os.Getwd()
	if err != nil {
		return name
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return name
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil {
		return name
	}
	return rel
}

// SetupAndSubmit writes the sbatch script and config file that run
// chain as a new queue job, then submits the script unless NoSubmit is
// set. The files are named after the job when setting up jobs, and
// after the config file otherwise, followed by suffix.
func (r *Runner) SetupAndSubmit(ctx context.Context, suffix string, chain []string, cur Job) error {
	cfg := r.Cfg
	base := cfg.ConfigFile
	if cfg.Spawning() {
		base = cur.Name
	}
	iniName := fsutil.OutName(base, suffix, ".ini", cfg.OutDir)
	slurmName := fsutil.OutName(base, suffix, ".slurm", cfg.OutDir)

	values, err := r.SbatchValues(cur, relPath(iniName), chain)
	if err != nil {
		return err
	}
	name, text := queue.SbatchTemplateName, queue.SbatchTemplate
	if cfg.SbatchTpl != "" {
		name = cfg.SbatchTpl
		if text, err = tpl.ReadFile(cfg.SbatchTpl); err != nil {
			return err
		}
	}
	if err := tpl.FillSave(name, text, values, slurmName, 0644); err != nil {
		return err
	}
	fmt.Fprintf(r.Stdout, "Wrote file: %s\n", slurmName)

	if err := fsutil.WriteString(iniName, IniText(cfg, chain), 0644); err != nil {
		return status.Errorf(status.IO, "Could not write %s: %v", iniName, err)
	}
	fmt.Fprintf(r.Stdout, "Wrote file: %s\n", iniName)

	if cfg.NoSubmit {
		return nil
	}
	res, err := r.submitter().Submit(ctx, slurmName)
	if err != nil {
		return err
	}
	r.Logger.Debug("submitted", "script", slurmName, "id", res.JobID)
	fmt.Fprintln(r.Stdout, res.Output)
	return nil
}
