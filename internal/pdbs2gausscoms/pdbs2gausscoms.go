// Package pdbs2gausscoms writes a Gaussian input file for every
// structure in a set of PDB files, using a Gaussian input template for
// everything but the atoms.
package pdbs2gausscoms

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/inicfg"
	"bwestbro.com/gausswrangler/internal/pdb"
	"bwestbro.com/gausswrangler/internal/status"
)

const DefConfigFile = "pdb2gau.ini"

// Config keys
const (
	KeyGauTpl       = "gau_tpl_file"
	KeyListFile     = "pdb_list_file"
	KeyFile         = "pdb_file"
	KeyRemoveFinalH = "remove_final_h"
	KeyFirstOnly    = "first_only"
	KeyOutDir       = "output_directory"
)

// AtomFormat is the layout of the atom lines written
const AtomFormat = "%-6s %8.3f%8.3f%8.3f"

type Config struct {
	GauTpl string
	Files  []string
	OutDir string
	// RemoveFinalH drops the last atom of every structure
	RemoveFinalH bool
	// FirstOnly stops each file after its first structure
	FirstOnly bool
}

func LoadConfig(path string) (Config, error) {
	sec, err := inicfg.Load(path, map[string]string{
		KeyListFile:     "pdb_list.txt",
		KeyRemoveFinalH: "false",
		KeyFirstOnly:    "false",
	}, []string{KeyGauTpl})
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		GauTpl: sec.Str(KeyGauTpl),
		OutDir: sec.Str(KeyOutDir),
	}
	if cfg.RemoveFinalH, err = sec.Bool(KeyRemoveFinalH); err != nil {
		return Config{}, err
	}
	if cfg.FirstOnly, err = sec.Bool(KeyFirstOnly); err != nil {
		return Config{}, err
	}
	if f := sec.Str(KeyFile); f != "" && fsutil.Exists(f) {
		cfg.Files = append(cfg.Files, f)
	}
	if list := sec.Str(KeyListFile); fsutil.Exists(list) {
		names, err := fsutil.ReadList(list)
		if err != nil {
			return Config{}, status.Errorf(status.IO, "Could not read %s: %v", list, err)
		}
		cfg.Files = append(cfg.Files, names...)
	}
	if len(cfg.Files) == 0 {
		return Config{}, status.Errorf(status.Data, "No pdb files found to process.")
	}
	return cfg, nil
}

// AtomLine returns the Gaussian atom line for rec
func AtomLine(rec pdb.Record) string {
	return fmt.Sprintf(AtomFormat, rec.Element, rec.Coords[0], rec.Coords[1], rec.Coords[2])
}

func readTemplate(filename string) (*gaussian.Com, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s", filename)
	}
	defer f.Close()
	c, err := gaussian.ParseCom(f)
	if err != nil {
		return nil, status.Errorf(status.Data, "In template %s: %v", filename, err)
	}
	return c, nil
}

// Converter writes Gaussian input files from PDB structures
type Converter struct {
	Cfg    Config
	Tpl    *gaussian.Com
	Logger *slog.Logger
}

// ConvertFile writes one input file per structure in pdbFile and
// returns their names. Structures are named after pdbFile, with the
// model number appended when the file has MODEL records.
func (c *Converter) ConvertFile(pdbFile string) ([]string, error) {
	f, err := os.Open(pdbFile)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s", pdbFile)
	}
	defer f.Close()
	models, err := pdb.Models(f)
	if err != nil {
		return nil, status.Errorf(status.Data, "In pdb file %s: %v", pdbFile, err)
	}
	var written []string
	for _, m := range models {
		atoms := m.Atoms
		if c.Cfg.RemoveFinalH && len(atoms) > 0 {
			atoms = atoms[:len(atoms)-1]
		}
		lines := make([]string, len(atoms))
		for i, a := range atoms {
			lines[i] = AtomLine(a)
		}
		suffix := ""
		if m.Num > 0 {
			suffix = "_" + strconv.Itoa(m.Num)
		}
		out := fsutil.OutName(pdbFile, suffix, ".com", c.Cfg.OutDir)
		if err := fsutil.WriteLines(out, c.Tpl.Lines(lines)); err != nil {
			return written, status.Errorf(status.IO, "Could not write %s: %v", out, err)
		}
		c.Logger.Debug("wrote", "file", out, "atoms", len(atoms))
		written = append(written, out)
		if c.Cfg.FirstOnly {
			break
		}
	}
	return written, nil
}

// Run converts every file in cfg
func Run(cfg Config, logger *slog.Logger) error {
	t, err := readTemplate(cfg.GauTpl)
	if err != nil {
		return err
	}
	c := &Converter{Cfg: cfg, Tpl: t, Logger: logger}
	for _, f := range cfg.Files {
		if _, err := c.ConvertFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Main is the pdbs2gausscoms command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		config  string
		verbose bool
	)
	fs := cli.NewFlagSet("pdbs2gausscoms", "[-c config]",
		"Creates Gaussian input files from pdb files, given a template input file.", stdout)
	cli.String(fs, &config, "c", "config", DefConfigFile,
		"the configuration file in ini format")
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
	cfg, err := LoadConfig(config)
	if err != nil {
		return cli.Exit(logger, err)
	}
	return cli.Exit(logger, Run(cfg, logger))
}
