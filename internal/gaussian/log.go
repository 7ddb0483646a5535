package gaussian

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"bwestbro.com/gausswrangler/internal/fsutil"
)

// NormalTermination matches the last line of a log from a job that
// finished
var NormalTermination = regexp.MustCompile(`^Normal termination of Gaussian`)

var (
	ErrFileNotFound     = errors.New("Output file not found")
	ErrEnergyNotFound   = errors.New("Energy not found in Gaussian output")
	ErrEnthalpyNotFound = errors.New("Enthalpy not found in Gaussian output")
	ErrNoConvergence    = errors.New("No convergence data in Gaussian output")
	ErrNoGeometry       = errors.New("No geometry found in Gaussian output")
)

const (
	stepKey      = "Step number"
	scfKey       = "SCF Done"
	enthalpyKey  = "Sum of electronic and thermal Enthalpies="
	stoichKey    = "Stoichiometry"
	standardKey  = "Standard orientation:"
	inputKey     = "Input orientation:"
	errorTermKey = "Error termination"
	convFailKey  = "Convergence failure"
	// criteria in a convergence table: max force, rms force, max
	// displacement, rms displacement
	convCriteria = 4
	// lines between an orientation title and its first atom
	orientSkip = 4
	// stands in for a convergence value too wide for its field, which
	// Gaussian prints as asterisks
	overflowValue = 1e5
)

// Step is one optimization step
type Step struct {
	Num int
	// Convergence sums, over the four criteria, how far each value is
	// above its threshold relative to that threshold. A converged step
	// has Convergence 0.
	Convergence float64
}

// Log holds what the tools need from a Gaussian output file. Raw
// fields keep the text exactly as Gaussian printed it.
type Log struct {
	Steps         []Step
	EnergyRaw     string
	EnthalpyRaw   string
	Stoichiometry string
	// Geometries are the standard orientations, or the input
	// orientations when a job printed no standard ones
	Geometries         [][]Atom
	Normal             bool
	ErrorTermination   bool
	ConvergenceFailure bool
}

// Energy returns the last SCF energy in Hartrees
func (l *Log) Energy() (float64, error) {
	if l.EnergyRaw == "" {
		return 0, ErrEnergyNotFound
	}
	return parseFloat(l.EnergyRaw)
}

// Enthalpy returns the sum of electronic and thermal enthalpies in
// Hartrees
func (l *Log) Enthalpy() (float64, error) {
	if l.EnthalpyRaw == "" {
		return 0, ErrEnthalpyNotFound
	}
	return parseFloat(l.EnthalpyRaw)
}

// Convergence returns the convergence of the last step
func (l *Log) Convergence() (float64, error) {
	if len(l.Steps) == 0 {
		return 0, ErrNoConvergence
	}
	return l.Steps[len(l.Steps)-1].Convergence, nil
}

// ConvergenceError reports whether the job ended in an error or failed
// to converge
func (l *Log) ConvergenceError() bool {
	return l.ErrorTermination || l.ConvergenceFailure
}

// LastGeometry returns the final geometry in the log
func (l *Log) LastGeometry() ([]Atom, error) {
	if len(l.Geometries) == 0 {
		return nil, ErrNoGeometry
	}
	return l.Geometries[len(l.Geometries)-1], nil
}

// parseFloat accepts Fortran D exponents
func parseFloat(s string) (float64, error) {
	s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	return strconv.ParseFloat(s, 64)
}

// StepConvergence computes the convergence of one table from its
// values and thresholds
func StepConvergence(values, thresholds []float64) float64 {
	var sum float64
	for i := range values {
		sum += math.Max(0, (values[i]-thresholds[i])/thresholds[i])
	}
	return sum
}

type logReader struct {
	log       *Log
	stepNum   int
	convLeft  int
	values    []float64
	thresh    []float64
	orient    string
	skip      int
	geom      []Atom
	inputs    [][]Atom
	standards [][]Atom
	last      string
}

func (lr *logReader) convLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("bad convergence line %q", line)
	}
	t, err := parseFloat(fields[len(fields)-2])
	if err != nil || t == 0 {
		return fmt.Errorf("bad convergence threshold in %q", line)
	}
	v, err := convValue(fields[len(fields)-3])
	if err != nil {
		return fmt.Errorf("bad convergence value in %q", line)
	}
	lr.values = append(lr.values, v)
	lr.thresh = append(lr.thresh, t)
	lr.convLeft--
	if lr.convLeft == 0 {
		lr.log.Steps = append(lr.log.Steps, Step{
			Num:         lr.stepNum,
			Convergence: StepConvergence(lr.values, lr.thresh),
		})
	}
	return nil
}

// convValue parses one convergence value. An overflowed field is far
// from converged.
func convValue(s string) (float64, error) {
	if strings.Trim(s, "*") == "" {
		return overflowValue, nil
	}
	return parseFloat(s)
}

func (lr *logReader) geomLine(line string) error {
	if lr.skip > 0 {
		lr.skip--
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(line), "---") {
		if lr.orient == standardKey {
			lr.standards = append(lr.standards, lr.geom)
		} else {
			lr.inputs = append(lr.inputs, lr.geom)
		}
		lr.orient = ""
		lr.geom = nil
		return nil
	}
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return fmt.Errorf("bad geometry line %q", line)
	}
	z, err := strconv.Atoi(fields[1])
	if err != nil || Symbol(z) == "" {
		return fmt.Errorf("bad atomic number in %q", line)
	}
	a := Atom{Symbol: Symbol(z)}
	for i, s := range fields[len(fields)-3:] {
		if a.Coords[i], err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("bad coordinate in %q", line)
		}
	}
	lr.geom = append(lr.geom, a)
	return nil
}

func isConvHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) == 4 && fields[0] == "Item" && fields[3] == "Converged?"
}

func (lr *logReader) line(line string) error {
	lr.last = line
	switch {
	case lr.convLeft > 0:
		return lr.convLine(line)
	case lr.orient != "":
		return lr.geomLine(line)
	case strings.Contains(line, stepKey):
		fields := strings.Fields(line)
		if len(fields) > 2 {
			if n, err := strconv.Atoi(fields[2]); err == nil {
				lr.stepNum = n
			}
		}
	case isConvHeader(line):
		lr.convLeft = convCriteria
		lr.values = lr.values[:0]
		lr.thresh = lr.thresh[:0]
	case strings.Contains(line, scfKey):
		if fields := strings.Fields(line); len(fields) > 4 {
			lr.log.EnergyRaw = fields[4]
		}
	case strings.Contains(line, enthalpyKey):
		fields := strings.Fields(line)
		lr.log.EnthalpyRaw = fields[len(fields)-1]
	case strings.Contains(line, stoichKey):
		if fields := strings.Fields(line); len(fields) > 1 {
			lr.log.Stoichiometry = fields[1]
		}
	case strings.Contains(line, standardKey):
		lr.orient = standardKey
		lr.skip = orientSkip
	case strings.Contains(line, inputKey):
		lr.orient = inputKey
		lr.skip = orientSkip
	case strings.Contains(line, errorTermKey):
		lr.log.ErrorTermination = true
	case strings.Contains(line, convFailKey):
		lr.log.ConvergenceFailure = true
	}
	return nil
}

// ReadLog scans a Gaussian output file
func ReadLog(r io.Reader) (*Log, error) {
	lr := &logReader{log: new(Log)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for i := 1; scanner.Scan(); i++ {
		if err := lr.line(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lr.standards) > 0 {
		lr.log.Geometries = lr.standards
	} else {
		lr.log.Geometries = lr.inputs
	}
	lr.log.Normal = NormalTermination.MatchString(strings.TrimSpace(lr.last))
	return lr.log, nil
}

// ReadLogFile reads filename, which may be gzipped
func ReadLogFile(filename string) (*Log, error) {
	f, err := fsutil.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}
	defer f.Close()
	l, err := ReadLog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return l, nil
}
