package bde

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/inicfg"
	"bwestbro.com/gausswrangler/internal/rungauss"
	"bwestbro.com/gausswrangler/internal/status"
)

const DefConfigFile = "run_gauss_bde.ini"

// Configuration keys
const (
	KeyBondList    = "bond_list"
	KeyGauTpl      = "gau_tpl_file"
	KeyOutDir      = "out_dir"
	KeyRunGaussIni = "run_gauss_ini"
)

const chkPrefix = "%chk="

// Config is the run_gauss_bde configuration
type Config struct {
	Bonds []Bond
	// GauTpl supplies the lines before the atoms of every fragment. When
	// empty, the parent's own are used.
	GauTpl      string
	OutDir      string
	RunGaussIni string
}

// LoadConfig reads the run_gauss_bde configuration file path
func LoadConfig(path string) (Config, error) {
	sec, err := inicfg.Load(path, nil, []string{KeyBondList})
	if err != nil {
		return Config{}, err
	}
	bonds, err := ParseBonds(sec.Str(KeyBondList))
	if err != nil {
		return Config{}, status.Errorf(status.Input, "In %s: %v", path, err)
	}
	cfg := Config{
		Bonds:       bonds,
		GauTpl:      sec.Str(KeyGauTpl),
		OutDir:      sec.Str(KeyOutDir),
		RunGaussIni: sec.Str(KeyRunGaussIni),
	}
	if cfg.GauTpl != "" && !fsutil.Exists(cfg.GauTpl) {
		return Config{}, status.Errorf(status.IO, "Could not find %s '%s'", KeyGauTpl, cfg.GauTpl)
	}
	if cfg.OutDir != "" && !fsutil.DirExists(cfg.OutDir) {
		return Config{}, status.Errorf(status.IO, "Could not find %s '%s'", KeyOutDir, cfg.OutDir)
	}
	return cfg, nil
}

func readCom(filename string) (*gaussian.Com, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read %s: %v", filename, err)
	}
	defer f.Close()
	c, err := gaussian.ParseCom(f)
	if err != nil {
		return nil, status.Errorf(status.Data, "In gausscom file: %s\n  %v", filename, err)
	}
	return c, nil
}

// InputName returns name, or name with a .com extension when name has no
// extension and does not exist
func InputName(name string) string {
	if filepath.Ext(name) == "" && !fsutil.Exists(name) {
		return name + ".com"
	}
	return name
}

// FragmentName returns the input file for fragment i, counting from 1,
// of bond in parent
func FragmentName(parent string, bond Bond, i int, outDir string) string {
	return fsutil.OutName(parent, fmt.Sprintf("_%d_%d_f%d", bond.A, bond.B, i), ".com", outDir)
}

// FragmentLines returns the input for atoms, using the lines before the
// atoms of tpl with the checkpoint renamed to chk and the charge and
// multiplicity line replaced by a neutral one of multiplicity mult
func FragmentLines(tpl *gaussian.Com, chk string, mult int, atoms []gaussian.Atom) []string {
	head := make([]string, len(tpl.Head))
	for i, line := range tpl.Head {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), chkPrefix) {
			line = chkPrefix + chk
		}
		head[i] = line
	}
	if len(head) > 0 {
		head[len(head)-1] = fmt.Sprintf("0 %d", mult)
	}
	frag := gaussian.Com{Head: head, Tail: tpl.Tail}
	atomLines := make([]string, len(atoms))
	for i, a := range atoms {
		atomLines[i] = a.String()
	}
	return frag.Lines(atomLines)
}

// Setup writes the fragment inputs for a molecule
type Setup struct {
	Cfg    Config
	Out    io.Writer
	Logger *slog.Logger
}

// Write writes the inputs of both fragments of every bond in s.Cfg for
// the molecule in input, returning their names
func (s *Setup) Write(input string) ([]string, error) {
	parent, err := readCom(input)
	if err != nil {
		return nil, err
	}
	if parent.Charge != 0 {
		return nil, status.Errorf(status.Data,
			"In gausscom file: %s\n  only neutral molecules are supported, found charge %d",
			input, parent.Charge)
	}
	tpl := parent
	if s.Cfg.GauTpl != "" {
		if tpl, err = readCom(s.Cfg.GauTpl); err != nil {
			return nil, err
		}
	}
	g := BondGraph(parent.Atoms)
	s.Logger.Debug("bonds", "file", input, "atoms", len(parent.Atoms), "bonds", g.Edges().Len())
	var written []string
	for _, bond := range s.Cfg.Bonds {
		frags, err := Fragments(g, bond)
		if err != nil {
			return nil, status.Errorf(status.Data, "In gausscom file: %s\n  %v", input, err)
		}
		for i, ids := range frags {
			atoms := make([]gaussian.Atom, len(ids))
			for j, id := range ids {
				atoms[j] = parent.Atoms[id]
			}
			name := FragmentName(input, bond, i+1, s.Cfg.OutDir)
			mult := Multiplicity(atoms)
			lines := FragmentLines(tpl, filepath.Base(fsutil.TrimExt(name))+".chk", mult, atoms)
			if err := fsutil.WriteLines(name, lines); err != nil {
				return nil, status.Errorf(status.IO, "Could not write %s: %v", name, err)
			}
			s.Logger.Debug("fragment", "bond", bond, "atoms", len(atoms), "multiplicity", mult)
			fmt.Fprintf(s.Out, "Wrote file: %s\n", name)
			written = append(written, name)
		}
	}
	return written, nil
}

const (
	usage = "input [-c config] [-n]"
	desc  = "Sets up, and optionally submits, the fragment calculations for " +
		"the bond dissociation energies of a molecule."
)

// Main is the run_gauss_bde command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		config   string
		noSubmit bool
		verbose  bool
	)
	fs := cli.NewFlagSet("run_gauss_bde", usage, desc, stdout)
	cli.String(fs, &config, "c", "config", DefConfigFile, "the configuration file in ini format")
	cli.Bool(fs, &noSubmit, "n", "no_submit", false,
		"set up the run_gauss jobs of the fragments without submitting them")
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
	cfg, err := LoadConfig(config)
	if err != nil {
		return cli.Exit(logger, err)
	}
	if len(pos) != 1 {
		fs.Usage()
		return cli.Exit(logger, status.Errorf(status.Input, "expected one input, got %d", len(pos)))
	}
	return cli.Exit(logger, run(cfg, InputName(pos[0]), noSubmit, stdout, stderr, logger))
}

func run(cfg Config, input string, noSubmit bool, stdout, stderr io.Writer, logger *slog.Logger) error {
	if !fsutil.Exists(input) {
		return status.Errorf(status.IO, "Could not find input file '%s'", input)
	}
	s := &Setup{Cfg: cfg, Out: stdout, Logger: logger}
	frags, err := s.Write(input)
	if err != nil {
		return err
	}
	if cfg.RunGaussIni == "" {
		return nil
	}
	rcfg, err := rungauss.LoadConfig(cfg.RunGaussIni)
	if err != nil {
		return err
	}
	rcfg.SetupSubmit = true
	rcfg.NoSubmit = noSubmit
	r := rungauss.NewRunner(rcfg, stdout, stderr, logger)
	ctx := context.Background()
	for _, f := range frags {
		if err := r.SubmitAll(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
