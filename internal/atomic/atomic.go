// Package atomic holds the static reference data for ions and their energy
// levels. The tables are populated once at startup and are read-only
// afterwards, so they are shared between workers without locking.
package atomic

import (
	"fmt"
)

// Level is one discrete quantum state of an ion.
type Level struct {
	G   float64 // statistical weight
	Ex  float64 // excitation energy [erg]
	Ion int     // index of the owning ion
}

// Ion is one ionization stage of an element.
type Ion struct {
	Z      int     // atomic number
	Istate int     // ionization stage, 1 = neutral
	G      float64 // ground state statistical weight

	NLevels    int // number of levels with full data, 0 if none
	FirstLevel int // index of the first full-data level

	NLTE      int // number of explicitly tracked ("non-LTE") levels
	FirstNLTE int // index of the first tracked level

	// FirstLevDen is the offset of this ion's tracked levels in a cell's
	// level-density array. Filled in by Finalize.
	FirstLevDen int

	Macro         bool // full macro-atom treatment
	HasSuperlevel bool
}

// Data bundles the ion and level tables for one run.
type Data struct {
	Ions   []Ion
	Levels []Level

	// MacroSimple forces simple-atom physics for ions flagged Macro.
	MacroSimple bool

	nLevDen int
}

// Finalize assigns level-density offsets and validates the tables. It must be
// called once before the tables are shared.
func (d *Data) Finalize() error {
	offset := 0
	for i := range d.Ions {
		ion := &d.Ions[i]
		if ion.G < 1 {
			return fmt.Errorf("ion %d: ground statistical weight %g < 1", i, ion.G)
		}
		if err := d.checkRange(i, ion.FirstLevel, ion.NLevels); err != nil {
			return err
		}
		if err := d.checkRange(i, ion.FirstNLTE, ion.NLTE); err != nil {
			return err
		}
		if ion.HasSuperlevel && ion.NLTE < 2 {
			return fmt.Errorf("ion %d: superlevel flagged with %d tracked levels", i, ion.NLTE)
		}
		ion.FirstLevDen = offset
		offset += ion.NLTE
	}
	d.nLevDen = offset
	return nil
}

func (d *Data) checkRange(ion, first, count int) error {
	if count == 0 {
		return nil
	}
	if first < 0 || first+count > len(d.Levels) {
		return fmt.Errorf("ion %d: level range [%d,%d) outside table of %d levels",
			ion, first, first+count, len(d.Levels))
	}
	for m := first; m < first+count; m++ {
		if d.Levels[m].Ion != ion {
			return fmt.Errorf("level %d belongs to ion %d, referenced by ion %d",
				m, d.Levels[m].Ion, ion)
		}
		if d.Levels[m].G <= 0 {
			return fmt.Errorf("level %d: statistical weight %g", m, d.Levels[m].G)
		}
	}
	return nil
}

// NLevDen is the total tracked-level count across all ions, i.e. the length
// of a cell's level-density array.
func (d *Data) NLevDen() int { return d.nLevDen }

// LevDenIndex maps a level (by table index) of the given ion to its slot in a
// cell's level-density array.
func (d *Data) LevDenIndex(ion, level int) int {
	return d.Ions[ion].FirstLevDen + (level - d.Ions[ion].FirstNLTE)
}

// SimpleTreatment reports whether the boltzmann population path may touch the
// given ion's level densities. Ions under full macro-atom treatment keep the
// populations from their detailed-balance solve.
func (d *Data) SimpleTreatment(ion int) bool {
	return !d.Ions[ion].Macro || d.MacroSimple
}
