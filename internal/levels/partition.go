package levels

import (
	"math"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/plasma"
)

// boltzmannSum is the weight-corrected Boltzmann sum over a contiguous level
// range, relative to the first level of the range (the ground state). This is
// the single formula both the partition pass and the population pass are
// built on; the two must never diverge.
func boltzmannSum(lv []atomic.Level, first, count int, w, kt float64) float64 {
	ground := lv[first]
	z := ground.G
	for n := 1; n < count; n++ {
		m := lv[first+n]
		z += w * m.G * math.Exp(-(m.Ex-ground.Ex)/kt)
	}
	return z
}

// partitionOne computes one ion's partition function: the Boltzmann sum over
// full level data if present, over the tracked non-LTE levels otherwise, and
// the bare ground-state weight when the ion has no level data at all.
func partitionOne(atoms *atomic.Data, nion int, w, kt float64) float64 {
	ion := &atoms.Ions[nion]
	switch {
	case ion.NLevels > 0:
		return boltzmannSum(atoms.Levels, ion.FirstLevel, ion.NLevels, w, kt)
	case ion.NLTE > 0:
		return boltzmannSum(atoms.Levels, ion.FirstNLTE, ion.NLTE, w, kt)
	default:
		return ion.G
	}
}

// PartitionFunctions fills the cell's per-ion partition functions for the
// given mode and then recomputes the tracked level populations from them.
func PartitionFunctions(c *plasma.Cell, atoms *atomic.Data, mode Mode) error {
	t, w, err := mode.temperatureWeight(c.Scalars())
	if err != nil {
		return err
	}
	kt := constants.Boltzmann * t
	for nion := range atoms.Ions {
		c.Partition[nion] = partitionOne(atoms, nion, w, kt)
	}
	return Populations(c, atoms, mode)
}

// PartitionFunctionsPair recomputes the partition functions of an ion pair
// (upper and the stage below it) at an explicit temperature and weight,
// leaving every other ion untouched. The ionization solve applies the Saha
// equation pairwise at temperatures that are not the cell's own, so it is
// wasteful to recompute every stage.
func PartitionFunctionsPair(c *plasma.Cell, atoms *atomic.Data, upper int, t, w float64) {
	kt := constants.Boltzmann * t
	for nion := upper - 1; nion <= upper; nion++ {
		if nion < 0 || nion >= len(atoms.Ions) {
			continue
		}
		c.Partition[nion] = partitionOne(atoms, nion, w, kt)
	}
}
