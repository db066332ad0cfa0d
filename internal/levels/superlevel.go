package levels

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/plasma"
)

// DepartureBand is the factor F of the symmetric band (1/F, F): a level
// whose departure coefficient stays inside it is folded into the superlevel.
const DepartureBand = 2.0

// DefaultThresholdFloor is the default minimum distance, in levels, that the
// superlevel boundary keeps from the ground state.
const DefaultThresholdFloor = 2

// SetupCellSuperlevels recomputes the superlevel state of one cell from its
// current electron temperature and the level densities observed in the
// previous cycle. For every ion flagged with a superlevel it stores the
// ground-relative LTE ratios, the boundary from SuperlevelThreshold, and the
// weight-corrected normalization over the aggregated range. The previous
// cycle's state is overwritten.
func SetupCellSuperlevels(c *plasma.Cell, atoms *atomic.Data, cycle, floor int) {
	kt := constants.Boltzmann * c.TE
	for nion := range atoms.Ions {
		ion := &atoms.Ions[nion]
		if !ion.HasSuperlevel {
			continue
		}
		ground := atoms.Levels[ion.FirstNLTE]

		c.SuperLTEPop[ion.FirstLevDen] = 1.0
		for n := 1; n < ion.NLTE; n++ {
			m := atoms.Levels[ion.FirstNLTE+n]
			c.SuperLTEPop[ion.FirstLevDen+n] = (m.G / ground.G) * math.Exp(-(m.Ex-ground.Ex)/kt)
		}

		threshold := SuperlevelThreshold(c, atoms, nion, cycle, floor)
		c.SuperThreshold[nion] = threshold

		norm := 0.0
		for m := threshold; m < ion.FirstNLTE+ion.NLTE; m++ {
			norm += c.SuperLTEPop[atoms.LevDenIndex(nion, m)] / atoms.Levels[m].G
		}
		c.SuperNorm[nion] = norm
	}
}

// SetupSuperlevels recomputes the superlevel state of every cell in the
// grid. Workers updating a shard call SetupCellSuperlevels directly.
func SetupSuperlevels(g *plasma.Grid, atoms *atomic.Data, cycle, floor int) {
	for i := range g.Cells {
		SetupCellSuperlevels(&g.Cells[i], atoms, cycle, floor)
	}
}

// SuperlevelThreshold finds the level above which the ion's tracked levels
// are treated as one LTE superlevel. On the first cycle there is no density
// history to judge near-LTE behaviour, so the boundary sits at the last
// explicit level and nothing is aggregated. On later cycles the boundary
// walks down from the last level while the departure coefficient — the LTE
// ratio over the observed population ratio from the previous cycle — stays
// inside (1/F, F) and the boundary is more than floor levels from the
// ground; as soon as either condition fails the walk stops and the boundary
// steps back up one level. A borderline level therefore stays explicit. The
// result is clamped to the last explicit level, so it is always inside the
// ion's tracked range and never closer than floor+1 levels to the ground.
func SuperlevelThreshold(c *plasma.Cell, atoms *atomic.Data, nion, cycle, floor int) int {
	ion := &atoms.Ions[nion]
	ground := ion.FirstNLTE
	last := ground + ion.NLTE - 1

	if cycle == 0 {
		return last
	}

	groundDen := c.LevDen[ion.FirstLevDen]
	if groundDen <= 0 {
		return last
	}

	depCoef := func(m int) float64 {
		slot := atoms.LevDenIndex(nion, m)
		observed := c.LevDen[slot] / groundDen
		if observed <= 0 {
			return math.Inf(1)
		}
		return c.SuperLTEPop[slot] / observed
	}

	threshold := last
	dep := depCoef(threshold)
	for dep < DepartureBand && dep > 1/DepartureBand && threshold-ground > floor {
		threshold--
		dep = depCoef(threshold)
	}
	threshold++
	if threshold > last {
		threshold = last
	}
	return threshold
}

// ErrSuperlevelSample marks a sampling walk that exhausted the superlevel's
// range without reaching its target: the stored normalization disagrees with
// the stored ratios, a numerical inconsistency that must never be clamped
// away.
type ErrSuperlevelSample struct {
	Cell, Ion            int
	RunTot, Target, Norm float64
}

func (e *ErrSuperlevelSample) Error() string {
	return fmt.Sprintf("superlevel sampling walk exhausted for cell %d ion %d: run total %8.4e target %8.4e norm %8.4e",
		e.Cell, e.Ion, e.RunTot, e.Target, e.Norm)
}

// ChooseSuperlevelDeactivation picks the level a macro-atom in the
// superlevel deactivates from. uplvl is the level-table index identifying
// the active superlevel's ion. One uniform draw in (0,1) is scaled by the
// ion's superlevel normalization, and the discrete distribution implied by
// ltePop/g over the aggregated range is walked from the boundary upward
// until the running sum reaches that target.
func ChooseSuperlevelDeactivation(c *plasma.Cell, atoms *atomic.Data, uplvl int, rng *rand.Rand) (int, error) {
	nion := atoms.Levels[uplvl].Ion
	ion := &atoms.Ions[nion]
	last := ion.FirstNLTE + ion.NLTE - 1
	threshold := c.SuperThreshold[nion]

	z := rng.Float64()
	for z == 0 {
		z = rng.Float64()
	}
	target := z * c.SuperNorm[nion]

	runTot := 0.0
	n := threshold
	for runTot < target && n <= last {
		runTot += c.SuperLTEPop[atoms.LevDenIndex(nion, n)] / atoms.Levels[n].G
		n++
	}
	// The walk adds one past the chosen level; step back unless the very
	// first level already reached the target.
	if n > threshold {
		n--
	}
	if runTot < target {
		return 0, &ErrSuperlevelSample{
			Cell: c.Index, Ion: nion,
			RunTot: runTot, Target: target, Norm: c.SuperNorm[nion],
		}
	}
	return n, nil
}
