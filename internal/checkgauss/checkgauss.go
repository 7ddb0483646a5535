// Package checkgauss reports on the state of Gaussian output files:
// which finished, failed, or may still be running, and how close each
// optimization step came to convergence.
package checkgauss

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/status"
)

const (
	DefExt    = ".log"
	DefOutDir = "for_hartree"
	// BestSteps is the number of steps -b reports
	BestSteps = 10

	finalHeader = "%-37s%11s %s\n"
	finalRow    = "%-37s%11.4f %s\n"
	stepHeader  = "    StepNum  Convergence"
	stepRow     = "%11d%11.3f\n"
	csvHeader   = "StepNum,Convergence"
	csvRow      = "%d,%.3f"
	csvSuffix   = "_conv_steps"
)

// Options select the files to check and what to report about them
type Options struct {
	Dir  string
	File string
	List string
	Ext  string

	Final   bool
	StepCSV bool
	// ToStep, when positive, reports the steps up to this number
	ToStep int
	Best   bool
	All    bool

	Plot   bool
	OutDir string
}

func (o Options) modes() int {
	n := 0
	for _, b := range []bool{o.Final, o.StepCSV, o.ToStep > 0, o.Best, o.All} {
		if b {
			n++
		}
	}
	return n
}

func (o Options) dirFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read directory %s", dir)
	}
	var ret []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, o.Ext) || strings.HasSuffix(name, o.Ext+fsutil.GzipExt) {
			ret = append(ret, filepath.Join(dir, name))
		}
	}
	return ret, nil
}

// Files returns the files named by o. With no file, list or directory
// given, the current directory is searched.
func (o Options) Files() ([]string, error) {
	var ret []string
	if o.File != "" {
		if !fsutil.Exists(o.File) {
			return nil, status.Errorf(status.IO, "Could not find file %s", o.File)
		}
		ret = append(ret, o.File)
	}
	if o.List != "" {
		names, err := fsutil.ReadList(o.List)
		if err != nil {
			return nil, status.Errorf(status.IO, "Could not read %s: %v", o.List, err)
		}
		for _, n := range names {
			if !fsutil.Exists(n) {
				return nil, status.Errorf(status.IO, "Could not find file %s", n)
			}
		}
		ret = append(ret, names...)
	}
	dir := o.Dir
	if dir == "" && o.File == "" && o.List == "" {
		dir = "."
	}
	if dir != "" {
		found, err := o.dirFiles(dir)
		if err != nil {
			return nil, err
		}
		ret = append(ret, found...)
	}
	if len(ret) == 0 {
		return nil, status.Errorf(status.Input,
			"Could not find files with extension '%s' to check", o.Ext)
	}
	return ret, nil
}

// Checker writes reports for a set of logs
type Checker struct {
	Opts   Options
	Out    io.Writer
	Logger *slog.Logger
}

func readLog(filename string) (*gaussian.Log, error) {
	l, err := gaussian.ReadLogFile(filename)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s: %v", filename, err)
	}
	return l, nil
}

// Status sorts files by how their jobs ended and moves the ones that
// completed normally into the output directory. A log that cannot be
// read is listed as running, since Gaussian may be midway through
// writing it.
func (c *Checker) Status(files []string) error {
	var done, failed, running []string
	for _, f := range files {
		l, err := readLog(f)
		if err != nil {
			c.Logger.Warn("not read", "file", f, "err", err)
			running = append(running, f)
			continue
		}
		switch {
		case l.Normal:
			done = append(done, f)
		case l.ErrorTermination:
			failed = append(failed, f)
		default:
			running = append(running, f)
		}
	}
	sections := []struct {
		title string
		files []string
	}{
		{"The following files completed normally:", done},
		{"The following files may have failed:", failed},
		{"The following files may still be running:", running},
	}
	for _, s := range sections {
		if len(s.files) == 0 {
			continue
		}
		fmt.Fprintln(c.Out, s.title)
		for _, f := range s.files {
			fmt.Fprintf(c.Out, "    %s\n", f)
		}
	}
	if len(done) == 0 {
		return nil
	}
	if err := os.MkdirAll(c.Opts.OutDir, 0755); err != nil {
		return status.Errorf(status.IO, "Could not create directory %s: %v", c.Opts.OutDir, err)
	}
	for _, f := range done {
		dst := filepath.Join(c.Opts.OutDir, filepath.Base(f))
		if err := os.Rename(f, dst); err != nil {
			return status.Errorf(status.IO, "Could not move %s: %v", f, err)
		}
		c.Logger.Debug("moved", "file", f, "to", dst)
	}
	return nil
}

// Final prints the final convergence of each file, best converged
// first. Files without convergence data, or that cannot be read, are
// reported and skipped.
func (c *Checker) Final(files []string) error {
	var (
		names []string
		convs []float64
		errs  []bool
	)
	for _, f := range files {
		l, err := readLog(f)
		if err != nil {
			c.Logger.Warn("not read", "file", f, "err", err)
			continue
		}
		conv, err := l.Convergence()
		if err != nil {
			c.Logger.Warn("skipping", "file", f, "err", err)
			continue
		}
		names = append(names, filepath.Base(f))
		convs = append(convs, conv)
		errs = append(errs, l.ConvergenceError())
	}
	inds := make([]int, len(convs))
	floats.ArgsortStable(convs, inds)
	fmt.Fprintf(c.Out, finalHeader, "File", "Convergence", "Convergence_Error")
	for i, ind := range inds {
		fmt.Fprintf(c.Out, finalRow, names[ind], convs[i], pyBool(errs[ind]))
	}
	return nil
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// SortSteps returns steps ordered by increasing convergence, keeping
// file order among ties
func SortSteps(steps []gaussian.Step) []gaussian.Step {
	convs := make([]float64, len(steps))
	for i, s := range steps {
		convs[i] = s.Convergence
	}
	inds := make([]int, len(steps))
	floats.ArgsortStable(convs, inds)
	ret := make([]gaussian.Step, len(steps))
	for i, ind := range inds {
		ret[i] = steps[ind]
	}
	return ret
}

func (c *Checker) printSteps(title string, steps []gaussian.Step) {
	fmt.Fprintln(c.Out, title)
	fmt.Fprintln(c.Out, stepHeader)
	for _, s := range steps {
		fmt.Fprintf(c.Out, stepRow, s.Num, s.Convergence)
	}
}

func (c *Checker) steps(f string) ([]gaussian.Step, bool, error) {
	l, err := readLog(f)
	if err != nil {
		c.Logger.Warn("not read", "file", f, "err", err)
		return nil, false, nil
	}
	if len(l.Steps) == 0 {
		c.Logger.Warn("skipping", "file", f, "err", gaussian.ErrNoConvergence)
		return nil, false, nil
	}
	return l.Steps, true, nil
}

// Steps prints the step table that o selects for each file
func (c *Checker) Steps(files []string) error {
	for _, f := range files {
		steps, ok, err := c.steps(f)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		base := filepath.Base(f)
		switch {
		case c.Opts.ToStep > 0:
			var upTo []gaussian.Step
			for _, s := range steps {
				if s.Num <= c.Opts.ToStep {
					upTo = append(upTo, s)
				}
			}
			c.printSteps(fmt.Sprintf("Steps sorted by convergence to step number %d for file: %s",
				c.Opts.ToStep, base), SortSteps(upTo))
		case c.Opts.Best:
			sorted := SortSteps(steps)
			if len(sorted) > BestSteps {
				sorted = sorted[:BestSteps]
			}
			c.printSteps(fmt.Sprintf("Best (up to %d) steps sorted by convergence for file: %s",
				BestSteps, base), sorted)
		case c.Opts.All:
			c.printSteps("Convergence of all steps for file: "+base, steps)
		}
	}
	return nil
}

func outName(f, suffix, ext string) string {
	return fsutil.OutName(strings.TrimSuffix(f, fsutil.GzipExt), suffix, ext, "")
}

// StepCSV writes the convergence of every step of each file to
// <base>_conv_steps.csv
func (c *Checker) StepCSV(files []string) error {
	for _, f := range files {
		steps, ok, err := c.steps(f)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		lines := []string{csvHeader}
		for _, s := range steps {
			lines = append(lines, fmt.Sprintf(csvRow, s.Num, s.Convergence))
		}
		out := outName(f, csvSuffix, ".csv")
		if err := fsutil.WriteLines(out, lines); err != nil {
			return status.Errorf(status.IO, "Could not write %s: %v", out, err)
		}
		fmt.Fprintf(c.Out, "Wrote file: %s\n", out)
	}
	return nil
}

// Run produces the report o selects for files
func (c *Checker) Run(files []string) error {
	if c.Opts.Plot {
		for _, f := range files {
			steps, ok, err := c.steps(f)
			if err != nil {
				return err
			}
			if ok {
				if err := c.PlotSteps(f, steps); err != nil {
					return err
				}
			}
		}
	}
	switch {
	case c.Opts.Final:
		return c.Final(files)
	case c.Opts.StepCSV:
		return c.StepCSV(files)
	case c.Opts.ToStep > 0 || c.Opts.Best || c.Opts.All:
		return c.Steps(files)
	case c.Opts.Plot:
		return nil
	default:
		return c.Status(files)
	}
}

const (
	usage = "[-d dir | -f file | -l list] [-e ext] [-z | -s | -t N | -b | -a] [-p] [-o dir]"
	desc  = "Checks Gaussian output files for normal termination and reports " +
		"convergence of optimization steps."
)

// Main is the check_gauss command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		o       Options
		verbose bool
	)
	fs := cli.NewFlagSet("check_gauss", usage, desc, stdout)
	cli.String(fs, &o.Dir, "d", "dir_name", "", "the directory with the files to check")
	cli.String(fs, &o.File, "f", "file_name", "", "a file to check")
	cli.String(fs, &o.List, "l", "list", "", "a file listing the files to check")
	cli.String(fs, &o.Ext, "e", "extension", DefExt, "the extension of files to find in a directory")
	cli.Bool(fs, &o.Final, "z", "final_convergence", false,
		"print the final convergence of each file")
	cli.Bool(fs, &o.StepCSV, "s", "step_converg", false,
		"write the convergence of each step to a csv file")
	cli.Int(fs, &o.ToStep, "t", "to_step", 0,
		"print the steps up to this step number, sorted by convergence")
	cli.Bool(fs, &o.Best, "b", "best_conv", false,
		fmt.Sprintf("print the %d best converged steps", BestSteps))
	cli.Bool(fs, &o.All, "a", "all", false, "print the convergence of every step")
	cli.Bool(fs, &o.Plot, "p", "plot", false, "plot the convergence of each step to a png file")
	cli.String(fs, &o.OutDir, "o", "out_dir", DefOutDir,
		"the directory to move files that completed normally into")
	cli.Bool(fs, &verbose, "v", "verbose", false, "log debugging output")
	_, help, err := cli.Parse(fs, args)
	if help {
		return status.GoodRet
	}
	level := ""
	if verbose {
		level = "debug"
	}
	logger := cli.NewLogger(stderr, level)
	if err != nil {
		return cli.Exit(logger, err)
	}
	if o.modes() > 1 {
		return cli.Exit(logger, status.Errorf(status.Input,
			"Choose either '-z', '-s', '-t', '-b', or '-a'; they cannot be combined"))
	}
	files, err := o.Files()
	if err != nil {
		return cli.Exit(logger, err)
	}
	c := &Checker{Opts: o, Out: stdout, Logger: logger}
	return cli.Exit(logger, c.Run(files))
}
