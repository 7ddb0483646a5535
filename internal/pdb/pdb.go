// Package pdb reads and writes the fixed-column atom records of Protein
// Data Bank files.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column boundaries of an atom record
const (
	TypeEnd    = 6
	SerialEnd  = 11
	NameEnd    = 17
	ResEnd     = 22
	ResNumEnd  = 28
	XEnd       = 38
	YEnd       = 46
	ZEnd       = 54
	ElemStart  = 76
	ElemEnd    = 78
	coordStart = 30
)

// Format is the layout Record.String writes
const Format = "%s%s%s%s%4d    %8.3f%8.3f%8.3f%s"

// Record is one ATOM or HETATM line. The text fields keep their
// padding so that a record is written back exactly as it was read.
type Record struct {
	Type    string
	Serial  string
	Name    string
	ResName string
	ResNum  int
	Coords  [3]float64
	// Tail is everything after the z coordinate, including the
	// occupancy, temperature factor and element columns
	Tail string
	// Element is the trimmed element column, or the trimmed atom name
	// when that column is blank
	Element string
}

// IsAtom reports whether line holds an ATOM or HETATM record
func IsAtom(line string) bool {
	return strings.HasPrefix(line, "ATOM  ") || strings.HasPrefix(line, "HETATM")
}

// IsEnd reports whether line terminates a structure
func IsEnd(line string) bool {
	return strings.TrimSpace(line) == "END"
}

// IsModel reports whether line opens a new model
func IsModel(line string) bool {
	return strings.HasPrefix(line, "MODEL ")
}

func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

// Parse splits an atom line into its columns
func Parse(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < ZEnd {
		return Record{}, fmt.Errorf("atom line too short: %q", line)
	}
	r := Record{
		Type:    line[:TypeEnd],
		Serial:  line[TypeEnd:SerialEnd],
		Name:    line[SerialEnd:NameEnd],
		ResName: line[NameEnd:ResEnd],
		Tail:    line[ZEnd:],
	}
	var err error
	resNum := strings.TrimSpace(line[ResEnd:ResNumEnd])
	if resNum != "" {
		r.ResNum, err = strconv.Atoi(resNum)
		if err != nil {
			return Record{}, fmt.Errorf("bad residue number in %q", line)
		}
	}
	bounds := [4]int{coordStart, XEnd, YEnd, ZEnd}
	for i := 0; i < 3; i++ {
		s := strings.TrimSpace(line[bounds[i]:bounds[i+1]])
		r.Coords[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Record{}, fmt.Errorf("bad coordinate %q in %q", s, line)
		}
	}
	r.Element = strings.TrimSpace(field(line, ElemStart, ElemEnd))
	if r.Element == "" {
		r.Element = strings.TrimSpace(r.Name)
	}
	return r, nil
}

// NewHetatm returns the record written for atom i (0-based) when no
// template supplies one
func NewHetatm(i int, element string, coords [3]float64) Record {
	return Record{
		Type:    "HETATM",
		Serial:  fmt.Sprintf("%5d", i+1),
		Name:    fmt.Sprintf("  %-4s", element),
		ResName: "UNL  ",
		ResNum:  1,
		Coords:  coords,
		Tail:    fmt.Sprintf("  1.00  0.00          %2s", element),
		Element: element,
	}
}

func (r Record) String() string {
	return fmt.Sprintf(Format, r.Type, r.Serial, r.Name, r.ResName,
		r.ResNum, r.Coords[0], r.Coords[1], r.Coords[2], r.Tail)
}

// Template is a PDB file split around its atom records
type Template struct {
	Head  []string
	Atoms []Record
	Tail  []string
}

// NumAtoms returns the number of atom records in t
func (t *Template) NumAtoms() int {
	return len(t.Atoms)
}

// Lines returns the lines of t with atoms in place of its own
func (t *Template) Lines(atoms []Record) []string {
	ret := make([]string, 0, len(t.Head)+len(atoms)+len(t.Tail))
	ret = append(ret, t.Head...)
	for _, a := range atoms {
		ret = append(ret, a.String())
	}
	return append(ret, t.Tail...)
}

// ReadTemplate reads a PDB file. Lines before the first atom record
// form the head, and every line after the last one forms the tail.
func ReadTemplate(r io.Reader) (*Template, error) {
	t := new(Template)
	scanner := bufio.NewScanner(r)
	var pending []string
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !IsAtom(line) {
			if len(t.Atoms) == 0 {
				t.Head = append(t.Head, line)
			} else {
				pending = append(pending, line)
			}
			continue
		}
		if len(pending) > 0 {
			return nil, fmt.Errorf("line %d: atom records must be contiguous", i)
		}
		rec, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		t.Atoms = append(t.Atoms, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	t.Tail = pending
	return t, nil
}

// Model is one structure of a multi-structure file
type Model struct {
	// Num counts the MODEL lines seen so far, so it is 0 for files
	// without them
	Num   int
	Atoms []Record
}

// Models splits a file into the structures terminated by END lines.
// Atoms after the last END are dropped.
func Models(r io.Reader) ([]Model, error) {
	var (
		ret   []Model
		num   int
		atoms []Record
	)
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case IsModel(line):
			num++
		case IsAtom(line):
			rec, err := Parse(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i, err)
			}
			atoms = append(atoms, rec)
		case IsEnd(line):
			ret = append(ret, Model{Num: num, Atoms: atoms})
			atoms = nil
		}
	}
	return ret, scanner.Err()
}
