// Package gausslog2pdb writes the geometries found in Gaussian output
// files as PDB files.
package gausslog2pdb

import (
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
	"bwestbro.com/gausswrangler/internal/pdb"
	"bwestbro.com/gausswrangler/internal/status"
)

const DefConfigFile = "gausslog2pdb.ini"

// Config keys
const (
	KeyPdbTpl    = "pdb_tpl_file"
	KeyListFile  = "gausslog_list_file"
	KeyFile      = "gausslog_file"
	KeyOnlyLast  = "only_last_coords"
	KeyCombLogs  = "comb_logs"
	KeyOutDir    = "output_directory"
	combSuffix   = "_comb"
	combFallback = "gausslog"
)

// Config is the processed configuration file
type Config struct {
	PdbTpl string
	Files  []string
	OutDir string
	// OnlyLast writes only the final geometry of each log
	OnlyLast bool
	// Comb writes the final geometry of every log to one file
	Comb bool
}

// LoadConfig reads path. A non-empty logFile or outDir overrides the
// matching key of the file.
func LoadConfig(path, logFile, outDir string) (Config, error) {
	sec, err := inicfg.Load(path, map[string]string{
		KeyListFile: "gausslog_list.txt",
		KeyOnlyLast: "false",
		KeyCombLogs: "false",
	}, nil)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		PdbTpl: sec.Str(KeyPdbTpl),
		OutDir: sec.Str(KeyOutDir),
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if cfg.OnlyLast, err = sec.Bool(KeyOnlyLast); err != nil {
		return Config{}, err
	}
	if cfg.Comb, err = sec.Bool(KeyCombLogs); err != nil {
		return Config{}, err
	}
	if cfg.OutDir != "" && !fsutil.DirExists(cfg.OutDir) {
		return Config{}, status.Errorf(status.IO, "Could not find output directory %s", cfg.OutDir)
	}
	list := sec.Str(KeyListFile)
	if fsutil.Exists(list) {
		if cfg.Files, err = fsutil.ReadList(list); err != nil {
			return Config{}, status.Errorf(status.IO, "Could not read %s: %v", list, err)
		}
	}
	if logFile == "" {
		logFile = sec.Str(KeyFile)
	}
	if logFile != "" {
		cfg.Files = append(cfg.Files, logFile)
	}
	if len(cfg.Files) == 0 {
		return Config{}, status.Errorf(status.Data,
			"No files to process: no '%s' specified and no list of files found for: %s",
			KeyFile, list)
	}
	return cfg, nil
}

// baseName returns the name of filename without its directory, a
// compression extension, or its own extension
func baseName(filename string) string {
	return fsutil.TrimExt(strings.TrimSuffix(filepath.Base(filename), fsutil.GzipExt))
}

// CombName returns the file that the final geometries of logs are
// combined into: the longest common prefix of their base names,
// stripped of trailing underscores, followed by _comb.pdb
func CombName(logs []string, outDir string) string {
	prefix := baseName(logs[0])
	for _, l := range logs[1:] {
		b := baseName(l)
		n := 0
		for n < len(prefix) && n < len(b) && prefix[n] == b[n] {
			n++
		}
		prefix = prefix[:n]
	}
	prefix = strings.TrimRight(prefix, "_")
	if prefix == "" {
		prefix = combFallback
	}
	if outDir == "" {
		outDir = filepath.Dir(logs[0])
	}
	return filepath.Join(outDir, prefix+combSuffix+".pdb")
}

// Lines returns the file for models, which are wrapped in MODEL and
// ENDMDL records when there is more than one
func Lines(tpl *pdb.Template, models [][]pdb.Record) []string {
	if len(models) == 1 {
		return tpl.Lines(models[0])
	}
	body := &pdb.Template{}
	ret := append([]string{}, tpl.Head...)
	for i, m := range models {
		ret = append(ret, fmt.Sprintf("MODEL     %4d", i+1))
		ret = append(ret, body.Lines(m)...)
		ret = append(ret, "ENDMDL")
	}
	return append(ret, tpl.Tail...)
}

// Converter turns log geometries into PDB records
type Converter struct {
	Cfg    Config
	Tpl    *pdb.Template
	Logger *slog.Logger
}

func (c *Converter) records(logFile string, atoms []gaussian.Atom) ([]pdb.Record, error) {
	if c.Tpl != nil && len(atoms) != c.Tpl.NumAtoms() {
		return nil, status.Errorf(status.Data,
			"In log file: %s\n  found %d atoms, but pdb expects %d atoms",
			logFile, len(atoms), c.Tpl.NumAtoms())
	}
	recs, mismatched, err := gaussian.PDBRecords(atoms, c.Tpl)
	if err != nil {
		return nil, status.Errorf(status.Data, "In log file: %s\n  %v", logFile, err)
	}
	for _, i := range mismatched {
		c.Logger.Warn("Atom types do not match", "file", logFile, "atom", i+1,
			"pdb", recs[i].Element, "gausslog", atoms[i].Symbol)
	}
	return recs, nil
}

// Models returns one set of records for each geometry of l, read from
// logFile, to be written
func (c *Converter) Models(logFile string, l *gaussian.Log) ([][]pdb.Record, error) {
	geoms := l.Geometries
	if len(geoms) == 0 {
		return nil, status.Errorf(status.Data, "In log file: %s\n  %v", logFile, gaussian.ErrNoGeometry)
	}
	if c.Cfg.OnlyLast || c.Cfg.Comb {
		geoms = geoms[len(geoms)-1:]
	}
	ret := make([][]pdb.Record, 0, len(geoms))
	for _, g := range geoms {
		recs, err := c.records(logFile, g)
		if err != nil {
			return nil, err
		}
		ret = append(ret, recs)
	}
	return ret, nil
}

func (c *Converter) template(title string) *pdb.Template {
	if c.Tpl != nil {
		return c.Tpl
	}
	return &pdb.Template{
		Head: []string{"TITLE     " + title},
		Tail: []string{"END"},
	}
}

func (c *Converter) write(filename string, models [][]pdb.Record) error {
	lines := Lines(c.template(filename), models)
	if err := fsutil.WriteLines(filename, lines); err != nil {
		return status.Errorf(status.IO, "Could not write %s: %v", filename, err)
	}
	c.Logger.Info("wrote", "file", filename, "models", len(models))
	return nil
}

// Run converts every log in c.Cfg. Logs that cannot be read are
// skipped, and named in the returned error once the rest are written.
func (c *Converter) Run() error {
	var (
		comb    [][]pdb.Record
		skipped []string
	)
	for _, logFile := range c.Cfg.Files {
		l, err := gaussian.ReadLogFile(logFile)
		if err != nil {
			c.Logger.Warn("not read", "file", logFile, "err", err)
			skipped = append(skipped, logFile)
			continue
		}
		models, err := c.Models(logFile, l)
		if err != nil {
			return err
		}
		if c.Cfg.Comb {
			comb = append(comb, models...)
			continue
		}
		out := fsutil.OutName(strings.TrimSuffix(logFile, fsutil.GzipExt), "", ".pdb", c.Cfg.OutDir)
		if err := c.write(out, models); err != nil {
			return err
		}
	}
	if c.Cfg.Comb && len(comb) > 0 {
		if err := c.write(CombName(c.Cfg.Files, c.Cfg.OutDir), comb); err != nil {
			return err
		}
	}
	if len(skipped) > 0 {
		return status.Errorf(status.Data,
			"Could not read the following log file(s): %s\n  "+
				"check that their jobs finished, or remove them from the list and rerun",
			strings.Join(skipped, ", "))
	}
	return nil
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

// Main is the gausslog2pdb command
func Main(args []string, stdout, stderr io.Writer) int {
	var (
		config, logFile, outDir string
		verbose                 bool
	)
	fs := cli.NewFlagSet("gausslog2pdb", "[-c config] [-f file] [-o dir]",
		"Creates pdb files from Gaussian output files, given a template pdb file.", stdout)
	cli.String(fs, &config, "c", "config", DefConfigFile,
		"the configuration file in ini format")
	cli.String(fs, &logFile, "f", "file", "",
		"a Gaussian output file to convert, in place of 'gausslog_file'")
	cli.String(fs, &outDir, "o", "out_dir", "",
		"the directory for output files, in place of 'output_directory'")
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
	cfg, err := LoadConfig(config, logFile, outDir)
	if err != nil {
		return cli.Exit(logger, err)
	}
	c := &Converter{Cfg: cfg, Logger: logger}
	if cfg.PdbTpl != "" {
		if c.Tpl, err = readTemplate(cfg.PdbTpl); err != nil {
			return cli.Exit(logger, err)
		}
	}
	return cli.Exit(logger, c.Run())
}
