// Package rungauss runs chains of Gaussian jobs, checking between jobs
// for normal termination, and sets up and submits chains as new queue
// jobs.
package rungauss

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/status"
)

func (r *Runner) initialJob(jobName string) (base string, cur Job) {
	base = fsutil.TrimExt(jobName)
	return base, NewJob(filepath.Base(base), base+r.Cfg.InputExt)
}

func (r *Runner) submitChains(ctx context.Context, cur Job) error {
	chains := r.Cfg.Chains
	for i, chain := range chains {
		suffix := ""
		if len(chains) > 1 {
			suffix = strconv.Itoa(i)
		}
		if err := r.SetupAndSubmit(ctx, suffix, chain, cur); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the job chain for jobName, whose extension is ignored. After
// the primary chain, every follow-up chain except the first is
// submitted, and the first is then run here. With AllNew set, every
// follow-up chain is submitted and none is run.
func (r *Runner) Run(ctx context.Context, jobName string) error {
	cfg := r.Cfg
	base, cur := r.initialJob(jobName)
	var chain []string
	if len(cfg.Chains) > 0 {
		chain = cfg.Chains[0]
	}
	cur, err := r.RunChain(ctx, chain, base, cur)
	if err != nil {
		return err
	}
	if len(cfg.FollowChains) > 1 {
		for i, chain := range cfg.FollowChains {
			if i == 0 && !cfg.AllNew {
				continue
			}
			if err := r.SetupAndSubmit(ctx, strconv.Itoa(i), chain, cur); err != nil {
				return err
			}
		}
	}
	if len(cfg.FollowChains) > 0 && !cfg.AllNew {
		_, err = r.RunChain(ctx, cfg.FollowChains[0], base, cur)
	}
	return err
}

// SubmitAll sets up and submits every chain for jobName
func (r *Runner) SubmitAll(ctx context.Context, jobName string) error {
	_, cur := r.initialJob(jobName)
	return r.submitChains(ctx, cur)
}

// SubmitList sets up and submits every chain for each job named in
// listFile, one per line
func (r *Runner) SubmitList(ctx context.Context, listFile string) error {
	names, err := fsutil.ReadList(listFile)
	if err != nil {
		return status.Errorf(status.IO, "Could not read %s: %v", listFile, err)
	}
	for _, name := range names {
		_, cur := r.initialJob(name)
		r.Logger.Debug("setting up", "job", cur.Name, "input", cur.InputFile)
		if err := r.submitChains(ctx, cur); err != nil {
			return err
		}
	}
	return nil
}

const (
	usage = "job_name [-c config] [-o old_chk_file] [-s | -l] [-n] [-t]"
	desc  = "Sets up and runs series of Gaussian jobs, checking between jobs " +
		"for normal termination."
)

type options struct {
	config      string
	oldChk      string
	setupSubmit bool
	listOfJobs  bool
	noSubmit    bool
	testing     bool
	verbose     bool
}

// Main is the run_gauss command. It returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := cli.NewFlagSet("run_gauss", usage, desc, stdout)
	cli.String(fs, &opts.config, "c", "config", DefConfigFile,
		"the configuration file in ini format")
	cli.String(fs, &opts.oldChk, "o", "old_chk_file", "",
		"the base name of the checkpoint file to be used for the first job")
	cli.Bool(fs, &opts.setupSubmit, "s", "setup_submit", false,
		"set up and submit, rather than run, job_name")
	cli.Bool(fs, &opts.listOfJobs, "l", "list_of_jobs", false,
		"read job_name as a file listing the jobs to set up and submit")
	cli.Bool(fs, &opts.noSubmit, "n", "no_submit", false,
		"set up jobs without submitting them; only affects -s and -l")
	cli.Bool(fs, &opts.testing, "t", "testing", false,
		"do not check for normal Gaussian termination between jobs")
	cli.Bool(fs, &opts.verbose, "v", "verbose", false, "log debugging output")

	logger := cli.NewLogger(stderr, "")
	pos, help, err := cli.Parse(fs, args)
	if help {
		return status.GoodRet
	}
	if opts.verbose {
		logger = cli.NewLogger(stderr, "debug")
	}
	if err != nil {
		return cli.Exit(logger, err)
	}
	if len(pos) != 1 {
		fs.Usage()
		return cli.Exit(logger, status.Errorf(status.Input,
			"expected one job_name, got %d", len(pos)))
	}
	return cli.Exit(logger, run(opts, pos[0], stdout, stderr, logger))
}

func run(opts options, jobName string, stdout, stderr io.Writer, logger *slog.Logger) error {
	if opts.setupSubmit && opts.listOfJobs {
		return status.Errorf(status.Input,
			"Cannot choose both 'setup_submit' and 'list_of_jobs' options")
	}
	if opts.listOfJobs && !fsutil.Exists(jobName) {
		return status.Errorf(status.IO,
			"When using the 'list_of_jobs' option, the first positional "+
				"argument ('job_name') must be the name of the file with the "+
				"list of jobs. Could not read: %s", jobName)
	}
	cfg, err := LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.oldChk != "" {
		cfg.FirstJobChk = fsutil.TrimExt(opts.oldChk)
	}
	cfg.SetupSubmit = opts.setupSubmit
	cfg.ListOfJobs = opts.listOfJobs
	cfg.NoSubmit = opts.noSubmit
	cfg.Testing = opts.testing
	if !cfg.Spawning() && len(cfg.Chains) > 1 {
		return status.Errorf(status.Input,
			"Found '%s' in the '%s'. Setting up multiple job threads is only "+
				"supported when setting up (and optionally submitting) jobs "+
				"with the '-s' or '-l' options.", ThreadSep, KeyJobList)
	}

	r := NewRunner(cfg, stdout, stderr, logger)
	ctx := context.Background()
	switch {
	case cfg.ListOfJobs:
		return r.SubmitList(ctx, jobName)
	case cfg.SetupSubmit:
		return r.SubmitAll(ctx, jobName)
	default:
		return r.Run(ctx, jobName)
	}
}
