// Package gausslogunique finds the distinct conformations among a set
// of Gaussian output files, dropping duplicates by energy and enthalpy.
package gausslogunique

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/status"
)

const (
	DefListFile = "list.txt"
	// Tol is the largest difference in Hartrees between the energies, or
	// enthalpies, of two files holding the same conformation
	Tol = 1e-6
	// MaxConv is the largest final convergence that is not reported
	MaxConv = 1.0

	header = "File,Convergence,Energy,Enthalpy"
	none   = "None"
)

// Entry is what gets compared and reported for one log
type Entry struct {
	File          string
	Stoichiometry string
	Conv          float64
	HasConv       bool
	Energy        float64
	EnergyRaw     string
	Enthalpy      float64
	EnthalpyRaw   string
}

// HasEnthalpy reports whether the log had a frequency calculation
func (e Entry) HasEnthalpy() bool {
	return e.EnthalpyRaw != ""
}

// Row returns e as a line of the report
func (e Entry) Row() string {
	conv, enth := none, none
	if e.HasConv {
		conv = fmt.Sprintf("%.4f", e.Conv)
	}
	if e.HasEnthalpy() {
		enth = e.EnthalpyRaw
	}
	return strings.Join([]string{filepath.Base(e.File), conv, e.EnergyRaw, enth}, ",")
}

// Same reports whether e and o hold the same conformation
func (e Entry) Same(o Entry) bool {
	if e.Stoichiometry != o.Stoichiometry {
		return false
	}
	if !scalar.EqualWithinAbs(e.Energy, o.Energy, Tol) {
		return false
	}
	if e.HasEnthalpy() != o.HasEnthalpy() {
		return false
	}
	return !e.HasEnthalpy() || scalar.EqualWithinAbs(e.Enthalpy, o.Enthalpy, Tol)
}

// better reports whether e is converged more tightly than o
func (e Entry) better(o Entry) bool {
	switch {
	case !e.HasConv:
		return false
	case !o.HasConv:
		return true
	}
	return e.Conv < o.Conv
}

// ReadEntry reads the entry for filename
func ReadEntry(filename string) (Entry, error) {
	l, err := gaussian.ReadLogFile(filename)
	if err != nil {
		return Entry{}, status.Errorf(status.IO, "Could not read file %s: %v", filename, err)
	}
	e := Entry{
		File:          filename,
		Stoichiometry: l.Stoichiometry,
		EnergyRaw:     l.EnergyRaw,
		EnthalpyRaw:   l.EnthalpyRaw,
	}
	if e.Energy, err = l.Energy(); err != nil {
		return Entry{}, status.Errorf(status.Data, "In file %s: %v", filename, err)
	}
	if e.HasEnthalpy() {
		if e.Enthalpy, err = l.Enthalpy(); err != nil {
			return Entry{}, status.Errorf(status.Data, "In file %s: %v", filename, err)
		}
	}
	if conv, err := l.Convergence(); err == nil {
		e.Conv, e.HasConv = conv, true
	}
	return e, nil
}

// Unique drops every entry that holds the same conformation as an
// earlier one, keeping whichever of the two is better converged.
// Entries are grouped by stoichiometry, and first appearance order is
// kept within each group.
func Unique(entries []Entry, logger *slog.Logger) []Entry {
	groups := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		g, ok := groups[e.Stoichiometry]
		if !ok {
			order = append(order, e.Stoichiometry)
		}
		dup := false
		for i, kept := range g {
			if !kept.Same(e) {
				continue
			}
			dup = true
			if e.better(kept) {
				logger.Debug("duplicate", "kept", e.File, "dropped", kept.File)
				g[i] = e
			} else {
				logger.Debug("duplicate", "kept", kept.File, "dropped", e.File)
			}
			break
		}
		if !dup {
			g = append(g, e)
		}
		groups[e.Stoichiometry] = g
	}
	var ret []Entry
	for _, s := range order {
		ret = append(ret, groups[s]...)
	}
	return ret
}

// SortBy orders entries
type SortBy int

const (
	ByName SortBy = iota
	ByEnergy
	ByEnthalpy
)

// Sort returns entries in the order by selects. Entries without an
// enthalpy sort last by enthalpy.
func Sort(entries []Entry, by SortBy) []Entry {
	ret := slices.Clone(entries)
	if by == ByName {
		slices.SortStableFunc(ret, func(a, b Entry) int {
			return strings.Compare(filepath.Base(a.File), filepath.Base(b.File))
		})
		return ret
	}
	keys := make([]float64, len(entries))
	for i, e := range entries {
		switch {
		case by == ByEnergy:
			keys[i] = e.Energy
		case e.HasEnthalpy():
			keys[i] = e.Enthalpy
		default:
			keys[i] = math.Inf(1)
		}
	}
	inds := make([]int, len(keys))
	floats.ArgsortStable(keys, inds)
	for i, ind := range inds {
		ret[i] = entries[ind]
	}
	return ret
}

// Report writes the header and a row for each entry to w, and warns
// about any entry whose final convergence exceeds MaxConv
func Report(w io.Writer, entries []Entry, logger *slog.Logger) {
	fmt.Fprintln(w, header)
	var loose []string
	for _, e := range entries {
		fmt.Fprintln(w, e.Row())
		if e.HasConv && e.Conv > MaxConv {
			loose = append(loose, filepath.Base(e.File))
		}
	}
	if len(loose) > 0 {
		logger.Warn("Check convergence", "files", strings.Join(loose, ", "))
	}
}

// Files returns the logs named in listFile followed by extra, failing
// when any of them is missing or there are fewer than two
func Files(listFile string, extra []string) ([]string, error) {
	var files []string
	if listFile != "" {
		var err error
		if files, err = fsutil.ReadList(listFile); err != nil {
			return nil, status.Errorf(status.IO, "Problems reading file %s: %v", listFile, err)
		}
	}
	files = append(files, extra...)
	var missing []string
	for _, f := range files {
		if !fsutil.Exists(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, status.Errorf(status.IO, "Could not find the following file(s): %s",
			strings.Join(missing, ", "))
	}
	if len(files) < 2 {
		return nil, errTooFew
	}
	return files, nil
}

var errTooFew = status.Errorf(status.Data,
	"This program expects at least two files to compare to determine if "+
		"they have the same conformation. Check input.")

// ReadEntries reads the entry of each file, skipping with a warning the
// logs that cannot be read or hold no energy
func ReadEntries(files []string, logger *slog.Logger) ([]Entry, error) {
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		e, err := ReadEntry(f)
		if err != nil {
			logger.Warn("skipping", "file", f, "err", err,
				"hint", "check that the job finished, or remove the file from the list")
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) < 2 {
		return nil, errTooFew
	}
	return entries, nil
}

// Main is the gausslog_unique command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		list     string
		energy   bool
		enthalpy bool
		verbose  bool
	)
	fs := cli.NewFlagSet("gausslog_unique", "[-l list] [-e | -n] [file ...]",
		"Finds the unique conformations among Gaussian output files.", stdout)
	cli.String(fs, &list, "l", "list", "",
		"a file listing the Gaussian output files to compare (default "+DefListFile+
			" when no files are given)")
	cli.Bool(fs, &energy, "e", "energy", false, "sort by energy instead of file name")
	cli.Bool(fs, &enthalpy, "n", "enthalpy", false, "sort by enthalpy instead of file name")
	cli.Bool(fs, &verbose, "v", "verbose", false, "log debugging output")
	pos, help, err := cli.Parse(fs, args)
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
	by := ByName
	switch {
	case energy && enthalpy:
		return cli.Exit(logger, status.Errorf(status.Input,
			"Cannot sort by both energy and enthalpy"))
	case energy:
		by = ByEnergy
	case enthalpy:
		by = ByEnthalpy
	}
	if list == "" && len(pos) == 0 {
		list = DefListFile
	}
	files, err := Files(list, pos)
	if err != nil {
		return cli.Exit(logger, err)
	}
	entries, err := ReadEntries(files, logger)
	if err != nil {
		return cli.Exit(logger, err)
	}
	Report(stdout, Sort(Unique(entries, logger), by), logger)
	return status.GoodRet
}
