package levels

import (
	"math"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/plasma"
)

// boltzmannPopulations fills dst (length = the ion's tracked-level count)
// with fractional occupations relative to the ion total: the ground slot
// gets g_ground/z and level n gets w·g_n·exp(-(E_n-E_ground)/kT)/z. The
// first tracked level is assumed to be the ground state, the same assumption
// partitionOne makes.
func boltzmannPopulations(dst []float64, atoms *atomic.Data, nion int, w, t, z float64) {
	ion := &atoms.Ions[nion]
	ground := atoms.Levels[ion.FirstNLTE]
	kt := constants.Boltzmann * t

	dst[0] = ground.G / z
	for n := 1; n < ion.NLTE; n++ {
		m := atoms.Levels[ion.FirstNLTE+n]
		dst[n] = w * m.G * math.Exp(-(m.Ex-ground.Ex)/kt) / z
	}
}

// Populations fills the cell's tracked level densities for every ion with
// tracked levels, using the cell's current partition functions. Ions under
// full macro-atom treatment are skipped: their populations come from the
// detailed-balance solve, not from this Boltzmann shortcut.
func Populations(c *plasma.Cell, atoms *atomic.Data, mode Mode) error {
	t, w, err := mode.temperatureWeight(c.Scalars())
	if err != nil {
		return err
	}
	for nion := range atoms.Ions {
		ion := &atoms.Ions[nion]
		if ion.NLTE == 0 || !atoms.SimpleTreatment(nion) {
			continue
		}
		dst := c.LevDen[ion.FirstLevDen : ion.FirstLevDen+ion.NLTE]
		boltzmannPopulations(dst, atoms, nion, w, t, c.Partition[nion])
	}
	return nil
}

// EquilibriumState recomputes the cell's partition functions and tracked
// level populations for the given mode. This is the single-cell entry point
// used both by the distributed update and for diagnostics.
func EquilibriumState(c *plasma.Cell, atoms *atomic.Data, mode Mode) error {
	return PartitionFunctions(c, atoms, mode)
}

// LTEReference computes the partition functions and level populations a cell
// with the given scalars would have in strict LTE at its radiation
// temperature. It is a pure function: nothing in the live cell is touched,
// and the returned slices are freshly allocated. Departure-coefficient
// calculations compare against this state.
func LTEReference(s plasma.Scalars, atoms *atomic.Data) (partition, levden []float64) {
	partition = make([]float64, len(atoms.Ions))
	levden = make([]float64, atoms.NLevDen())
	kt := constants.Boltzmann * s.TR
	for nion := range atoms.Ions {
		partition[nion] = partitionOne(atoms, nion, 1, kt)
		ion := &atoms.Ions[nion]
		if ion.NLTE == 0 {
			continue
		}
		dst := levden[ion.FirstLevDen : ion.FirstLevDen+ion.NLTE]
		boltzmannPopulations(dst, atoms, nion, 1, s.TR, partition[nion])
	}
	return partition, levden
}
