// Package gausscom2pdb writes PDB files from the coordinates in
// Gaussian input files, optionally copying every other column from a
// template PDB file.
package gausscom2pdb

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/gaussian"
	"bwestbro.com/gausswrangler/internal/inicfg"
	"bwestbro.com/gausswrangler/internal/pdb"
	"bwestbro.com/gausswrangler/internal/status"
)

const DefConfigFile = "gausscom2pdb.ini"

// Config keys
const (
	KeyPdbTpl   = "pdb_tpl_file"
	KeyListFile = "gausscom_list_file"
	KeyFile     = "gausscom_file"
	KeyOutDir   = "output_directory"
)

// Config is the processed configuration file
type Config struct {
	PdbTpl string
	Files  []string
	OutDir string
}

// LoadConfig reads path and collects the Gaussian input files to
// convert: those listed in the list file, if it exists, then the
// single gausscom_file
func LoadConfig(path string) (Config, error) {
	sec, err := inicfg.Load(path, map[string]string{
		KeyListFile: "gausscom_list.txt",
	}, nil)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		PdbTpl: sec.Str(KeyPdbTpl),
		OutDir: sec.Str(KeyOutDir),
	}
	list := sec.Str(KeyListFile)
	if fsutil.Exists(list) {
		if cfg.Files, err = fsutil.ReadList(list); err != nil {
			return Config{}, status.Errorf(status.IO, "Could not read %s: %v", list, err)
		}
	}
	if f := sec.Str(KeyFile); f != "" {
		cfg.Files = append(cfg.Files, f)
	}
	if len(cfg.Files) == 0 {
		return Config{}, status.Errorf(status.Data,
			"No files to process: no '%s' specified and no list of files found for: %s",
			KeyFile, list)
	}
	return cfg, nil
}

func readTemplate(filename string) (*pdb.Template, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s", filename)
	}
	defer f.Close()
	t, err := pdb.ReadTemplate(f)
	if err != nil {
		return nil, status.Errorf(status.Data, "In pdb file %s: %v", filename, err)
	}
	return t, nil
}

func readCom(filename string) (*gaussian.Com, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s", filename)
	}
	defer f.Close()
	c, err := gaussian.ParseCom(f)
	if err != nil {
		return nil, status.Errorf(status.Data, "In gausscom file %s: %v", filename, err)
	}
	return c, nil
}

// Convert returns the PDB lines for the atoms of comFile. With a nil
// template every atom becomes a HETATM record.
func Convert(comFile string, tpl *pdb.Template, logger *slog.Logger) ([]string, error) {
	c, err := readCom(comFile)
	if err != nil {
		return nil, err
	}
	recs, mismatched, err := gaussian.PDBRecords(c.Atoms, tpl)
	if err != nil {
		return nil, status.Errorf(status.Data, "In gausscom file: %s\n  %v", comFile, err)
	}
	for _, i := range mismatched {
		logger.Warn("Atom types do not match", "file", comFile, "atom", i+1,
			"pdb", recs[i].Element, "gausscom", c.Atoms[i].Symbol)
	}
	if tpl == nil {
		tpl = &pdb.Template{
			Head: []string{"TITLE     " + comFile},
			Tail: []string{"END"},
		}
	}
	return tpl.Lines(recs), nil
}

// Run converts every file in cfg
func Run(cfg Config, stdout io.Writer, logger *slog.Logger) error {
	var tpl *pdb.Template
	if cfg.PdbTpl != "" {
		var err error
		if tpl, err = readTemplate(cfg.PdbTpl); err != nil {
			return err
		}
	}
	for _, comFile := range cfg.Files {
		lines, err := Convert(comFile, tpl, logger)
		if err != nil {
			return err
		}
		out := fsutil.OutName(comFile, "", ".pdb", cfg.OutDir)
		if err := fsutil.WriteLines(out, lines); err != nil {
			return status.Errorf(status.IO, "Could not write %s: %v", out, err)
		}
		fmt.Fprintf(stdout, "Wrote file: %s\n", out)
	}
	return nil
}

// Main is the gausscom2pdb command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		config  string
		verbose bool
	)
	fs := cli.NewFlagSet("gausscom2pdb", "[-c config]",
		"Creates pdb files from Gaussian input files, given a template pdb file.", stdout)
	cli.String(fs, &config, "c", "config", DefConfigFile,
		"the configuration file in ini format")
	cli.Bool(fs, &verbose, "v", "verbose", false, "log debugging output")
	_, help, err := cli.Parse(fs, args)
	if help {
		return status.GoodRet
	}
	logger := cli.NewLogger(stderr, "")
	if verbose {
		logger = cli.NewLogger(stderr, "debug")
	}
	if err != nil {
		return cli.Exit(logger, err)
	}
	cfg, err := LoadConfig(config)
	if err != nil {
		return cli.Exit(logger, err)
	}
	return cli.Exit(logger, Run(cfg, stdout, logger))
}
