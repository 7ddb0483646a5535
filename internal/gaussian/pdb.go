package gaussian

import (
	"fmt"
	"strings"

	"bwestbro.com/gausswrangler/internal/pdb"
)

// PDBRecords returns the atom records for atoms. With a template, its
// records are copied in order with their coordinates replaced, atoms
// beyond the template's count are ignored, and mismatched holds the
// indices whose element differs from the template's. Without one,
// every atom becomes a HETATM record.
func PDBRecords(atoms []Atom, tpl *pdb.Template) (recs []pdb.Record, mismatched []int, err error) {
	if tpl == nil {
		recs = make([]pdb.Record, len(atoms))
		for i, a := range atoms {
			recs[i] = pdb.NewHetatm(i, a.Symbol, a.Coords)
		}
		return recs, nil, nil
	}
	if len(atoms) < tpl.NumAtoms() {
		return nil, nil, fmt.Errorf("found %d atoms, but pdb expects %d atoms",
			len(atoms), tpl.NumAtoms())
	}
	recs = make([]pdb.Record, tpl.NumAtoms())
	copy(recs, tpl.Atoms)
	for i := range recs {
		if !strings.EqualFold(atoms[i].Symbol, recs[i].Element) {
			mismatched = append(mismatched, i)
		}
		recs[i].Coords = atoms[i].Coords
	}
	return recs, mismatched, nil
}
