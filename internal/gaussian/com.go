package gaussian

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	// RoutePattern matches the first line of a route section
	RoutePattern = regexp.MustCompile(`^#`)
	// GuessReadPattern matches route text that makes Gaussian read a
	// guess or geometry from a checkpoint file
	GuessReadPattern = regexp.MustCompile(`(?i)^.*\b(guess.*read|geom.*check)\b.*$`)
)

var (
	ErrNoRoute      = errors.New("no route section found")
	ErrNoChargeMult = errors.New("no charge and multiplicity line found")
)

// AtomFormat is the layout of atom lines written by Atom.String
const AtomFormat = "%-2s %15.8f %15.8f %15.8f"

// Atom is an element symbol with Cartesian coordinates in Angstroms
type Atom struct {
	Symbol string
	Coords [3]float64
}

func (a Atom) String() string {
	return fmt.Sprintf(AtomFormat, a.Symbol, a.Coords[0], a.Coords[1], a.Coords[2])
}

// Com is a Gaussian input file. Head holds every line before the first
// atom, and Tail every line after the last one, starting with the blank
// line that ends the molecule specification.
type Com struct {
	Link0        []string
	Route        []string
	Title        []string
	Charge       int
	Multiplicity int
	Atoms        []Atom
	Head         []string
	Tail         []string
}

// Lines returns the lines of c with atomLines in place of its atoms
func (c *Com) Lines(atomLines []string) []string {
	ret := make([]string, 0, len(c.Head)+len(atomLines)+len(c.Tail)+1)
	ret = append(ret, c.Head...)
	ret = append(ret, atomLines...)
	if len(c.Tail) == 0 {
		return append(ret, "")
	}
	return append(ret, c.Tail...)
}

type comSection int

const (
	secLink0 comSection = iota
	secRoute
	secTitle
	secChargeMult
	secAtoms
	secTail
)

// parseAtom reads a line like "C  0.0 1.0 2.0". A freeze code between
// the element and the coordinates, and decorations like C(Fragment=1),
// are allowed.
func parseAtom(line string) (Atom, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Atom{}, fmt.Errorf("too few fields in atom line %q", line)
	}
	sym := fields[0]
	if i := strings.IndexAny(sym, "(-"); i > 0 {
		sym = sym[:i]
	}
	if z, err := strconv.Atoi(sym); err == nil {
		sym = Symbol(z)
	}
	if _, ok := AtomicNumber(sym); !ok {
		return Atom{}, fmt.Errorf("unknown element %q", fields[0])
	}
	a := Atom{Symbol: sym}
	xyz := fields[len(fields)-3:]
	for i, s := range xyz {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Atom{}, fmt.Errorf("bad coordinate %q in %q", s, line)
		}
		a.Coords[i] = v
	}
	return a, nil
}

// ParseCom reads a Gaussian input file with Cartesian coordinates
func ParseCom(r io.Reader) (*Com, error) {
	c := new(Com)
	sec := secLink0
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)
		switch sec {
		case secLink0:
			if RoutePattern.MatchString(line) {
				c.Route = append(c.Route, line)
				sec = secRoute
			} else if line != "" {
				c.Link0 = append(c.Link0, line)
			}
		case secRoute:
			if line == "" {
				sec = secTitle
			} else {
				c.Route = append(c.Route, line)
			}
		case secTitle:
			if line == "" {
				if len(c.Title) > 0 {
					sec = secChargeMult
				}
			} else {
				c.Title = append(c.Title, line)
			}
		case secChargeMult:
			if line == "" {
				break
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %w", i, ErrNoChargeMult)
			}
			var err1, err2 error
			c.Charge, err1 = strconv.Atoi(fields[0])
			c.Multiplicity, err2 = strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("line %d: %w", i, ErrNoChargeMult)
			}
			sec = secAtoms
		case secAtoms:
			if line == "" {
				sec = secTail
				c.Tail = append(c.Tail, raw)
				continue
			}
			a, err := parseAtom(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i, err)
			}
			c.Atoms = append(c.Atoms, a)
			continue
		case secTail:
			c.Tail = append(c.Tail, raw)
			continue
		}
		c.Head = append(c.Head, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(c.Route) == 0:
		return nil, ErrNoRoute
	case sec < secAtoms:
		return nil, ErrNoChargeMult
	}
	return c, nil
}

// RouteReadsCheckpoint returns the first route line of the input in r
// that asks Gaussian to read a guess or geometry from a checkpoint, or
// "" if there is none. A route continues from its # line until a blank
// line.
func RouteReadsCheckpoint(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	inRoute := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inRoute {
			inRoute = RoutePattern.MatchString(line)
		}
		if !inRoute {
			continue
		}
		if line == "" {
			inRoute = false
			continue
		}
		if GuessReadPattern.MatchString(line) {
			return line, nil
		}
	}
	return "", scanner.Err()
}
