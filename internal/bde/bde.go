// Package bde sets up bond dissociation energy calculations: for each
// requested bond of a molecule it writes a Gaussian input file for each
// of the two fragments left when the bond is broken.
package bde

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"bwestbro.com/gausswrangler/internal/gaussian"
)

// Bond perception thresholds in Angstroms, from DOI:10.1186/1758-2946-3-33
const (
	TooClose = 0.63
	BondTol  = 0.45
)

var (
	ErrNotBonded = errors.New("atoms are not bonded")
	ErrRing      = errors.New("breaking the bond does not give two fragments")
)

// Bond names two atoms by their 1-based position in the input
type Bond struct {
	A, B int
}

func (b Bond) String() string {
	return fmt.Sprintf("%d-%d", b.A, b.B)
}

// ParseBonds reads a list like "1-2, 3-4; 5-6"
func ParseBonds(s string) ([]Bond, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	var ret []Bond
	for _, f := range fields {
		a, b, ok := strings.Cut(f, "-")
		if !ok {
			return nil, fmt.Errorf("bond %q is not of the form a-b", f)
		}
		i, err1 := strconv.Atoi(a)
		j, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || i < 1 || j < 1 || i == j {
			return nil, fmt.Errorf("bond %q must join two different atom numbers", f)
		}
		ret = append(ret, Bond{A: i, B: j})
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no bonds in %q", s)
	}
	return ret, nil
}

// Bonded reports whether atoms a and b are close enough, for their
// covalent radii, to be bonded
func Bonded(a, b gaussian.Atom) bool {
	ra, okA := gaussian.CovalentRadius(a.Symbol)
	rb, okB := gaussian.CovalentRadius(b.Symbol)
	if !okA || !okB {
		return false
	}
	d := floats.Distance(a.Coords[:], b.Coords[:], 2)
	return d > TooClose && d < ra+rb+BondTol
}

// BondGraph returns the bonds of atoms as a graph whose node IDs are
// the atoms' 0-based positions
func BondGraph(atoms []gaussian.Atom) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := range atoms {
		g.AddNode(simple.Node(i))
	}
	for i := range atoms {
		for j := i + 1; j < len(atoms); j++ {
			if Bonded(atoms[i], atoms[j]) {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	return g
}

// Fragments breaks bond in g and returns the 0-based atom positions of
// the two pieces, each sorted, with the piece holding bond.A first. g
// is left unchanged.
func Fragments(g *simple.UndirectedGraph, bond Bond) ([][]int, error) {
	a, b := int64(bond.A-1), int64(bond.B-1)
	if g.Node(a) == nil || g.Node(b) == nil {
		return nil, fmt.Errorf("bond %v: atom number out of range", bond)
	}
	if !g.HasEdgeBetween(a, b) {
		return nil, fmt.Errorf("bond %v: %w", bond, ErrNotBonded)
	}
	broken := simple.NewUndirectedGraph()
	graph.Copy(broken, g)
	broken.RemoveEdge(a, b)
	comps := topo.ConnectedComponents(broken)
	if len(comps) != 2 {
		return nil, fmt.Errorf("bond %v: %w, got %d", bond, ErrRing, len(comps))
	}
	ret := make([][]int, 2)
	for i, comp := range comps {
		ids := make([]int, len(comp))
		for j, n := range comp {
			ids[j] = int(n.ID())
		}
		slices.Sort(ids)
		ret[i] = ids
	}
	if !slices.Contains(ret[0], int(a)) {
		ret[0], ret[1] = ret[1], ret[0]
	}
	return ret, nil
}

// Multiplicity returns the lowest spin multiplicity of a neutral
// fragment made of atoms
func Multiplicity(atoms []gaussian.Atom) int {
	electrons := 0
	for _, a := range atoms {
		z, _ := gaussian.AtomicNumber(a.Symbol)
		electrons += z
	}
	if electrons%2 == 1 {
		return 2
	}
	return 1
}
