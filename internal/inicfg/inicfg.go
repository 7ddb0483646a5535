// Package inicfg reads the single-section INI files every tool is
// configured with, filling in defaults and checking required keys.
package inicfg

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"bwestbro.com/gausswrangler/internal/status"
)

// MainSec is the only section the tools read
const MainSec = "main"

// Section is the processed [main] section of a configuration file
type Section struct {
	// Path is the file the section was read from
	Path string

	values map[string]string
	set    map[string]bool
}

// Load reads the [main] section of path. Keys missing from the file
// take their value from defaults; every key in required must be
// present in the file.
func Load(path string, defaults map[string]string, required []string) (*Section, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, status.Errorf(status.IO, "Could not read file %s", path)
	}
	f, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:         true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, status.Errorf(status.Input, "Could not parse %s: %v", path, err)
	}
	raw, err := f.GetSection(MainSec)
	if err != nil {
		return nil, status.Errorf(status.Input,
			"File %s is missing the [%s] section", path, MainSec)
	}
	s := &Section{
		Path:   path,
		values: make(map[string]string),
		set:    make(map[string]bool),
	}
	for k, v := range defaults {
		s.values[k] = v
	}
	for _, key := range raw.Keys() {
		s.values[key.Name()] = strings.TrimSpace(key.Value())
		s.set[key.Name()] = true
	}
	var missing []string
	for _, req := range required {
		if !s.set[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, status.Errorf(status.Input,
			"Missing config val for key(s) '%s' in %s",
			strings.Join(missing, "', '"), path)
	}
	return s, nil
}

// Str returns the value of key, or "" if it has neither a value nor a
// default
func (s *Section) Str(key string) string {
	return s.values[key]
}

// Lookup returns the value of key and whether it was given in the
// file
func (s *Section) Lookup(key string) (string, bool) {
	return s.values[key], s.set[key]
}

// Bool parses the value of key as a boolean. A blank value is false.
func (s *Section) Bool(key string) (bool, error) {
	v := strings.TrimSpace(s.values[key])
	if v == "" {
		return false, nil
	}
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, status.Errorf(status.Input,
			"Could not convert value '%s' for key '%s' to a boolean", v, key)
	}
	return b, nil
}

// DotEnv is the environment file read by LoadEnv
const DotEnv = ".env"

// LoadEnv loads filenames, or DotEnv when none are given, into the
// process environment without overriding variables that are already
// set. Missing files are skipped.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{DotEnv}
	}
	var present []string
	for _, f := range filenames {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return status.Errorf(status.Input, "Could not load environment file: %v", err)
	}
	return nil
}
