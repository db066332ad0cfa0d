package levels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/plasma"
)

// superAtoms builds a single superlevel ion with six tracked levels spaced
// one eV apart, so the threshold walk has room to move.
func superAtoms(t *testing.T) *atomic.Data {
	t.Helper()
	ev := constants.EV2Ergs
	d := &atomic.Data{
		Ions: []atomic.Ion{
			{Z: 2, Istate: 1, G: 1, NLevels: 6, FirstLevel: 0, NLTE: 6, FirstNLTE: 0, HasSuperlevel: true},
		},
	}
	for n := 0; n < 6; n++ {
		d.Levels = append(d.Levels, atomic.Level{G: 2, Ex: float64(n) * ev, Ion: 0})
	}
	require.NoError(t, d.Finalize())
	return d
}

func superCell(t *testing.T, atoms *atomic.Data) *plasma.Cell {
	t.Helper()
	c := plasma.NewCell(3, atoms)
	c.TR = 3e4
	c.TE = 3e4
	c.W = 1
	return &c
}

// lteHistory runs a first setup to get the LTE ratios and copies them into
// the cell as the "observed" densities of the previous cycle, so every
// departure coefficient is exactly one.
func lteHistory(c *plasma.Cell, atoms *atomic.Data) {
	SetupCellSuperlevels(c, atoms, 0, DefaultThresholdFloor)
	for n := range c.LevDen {
		c.LevDen[n] = 0.3 * c.SuperLTEPop[n]
	}
}

func TestThresholdFirstCycle(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)

	// No density history yet: nothing is aggregated.
	SetupCellSuperlevels(c, atoms, 0, DefaultThresholdFloor)
	assert.Equal(t, 5, c.SuperThreshold[0])
}

func TestThresholdEmptyGround(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)
	assert.Equal(t, 5, SuperlevelThreshold(c, atoms, 0, 3, DefaultThresholdFloor))
}

func TestThresholdWalksToFloor(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)
	lteHistory(c, atoms)

	// Perfect departure coefficients everywhere: the walk stops at the
	// floor and steps back up one level.
	SetupCellSuperlevels(c, atoms, 1, 2)
	assert.Equal(t, 3, c.SuperThreshold[0])

	SetupCellSuperlevels(c, atoms, 1, 4)
	assert.Equal(t, 5, c.SuperThreshold[0])
}

func TestThresholdStopsAtDeparture(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)
	lteHistory(c, atoms)

	// Overpopulate level 2 well outside the departure band: the boundary
	// must keep it explicit.
	c.LevDen[2] *= 5
	SetupCellSuperlevels(c, atoms, 1, 1)
	assert.Equal(t, 3, c.SuperThreshold[0])
}

func TestSuperlevelNorm(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)

	SetupCellSuperlevels(c, atoms, 0, DefaultThresholdFloor)

	// Boundary at the last level: the norm is that single level's ratio
	// over its weight.
	want := c.SuperLTEPop[5] / atoms.Levels[5].G
	assert.InEpsilon(t, want, c.SuperNorm[0], 1e-12)
}

func TestSetupSuperlevelsWholeGrid(t *testing.T) {
	atoms := superAtoms(t)
	g := plasma.NewGrid(4, atoms)
	for i := range g.Cells {
		g.Cells[i].TE = 3e4
	}

	SetupSuperlevels(g, atoms, 0, DefaultThresholdFloor)
	for i := range g.Cells {
		assert.Equal(t, 5, g.Cells[i].SuperThreshold[0])
		assert.Equal(t, 1.0, g.Cells[i].SuperLTEPop[0])
	}
}

func TestChooseDeactivationDistribution(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)
	lteHistory(c, atoms)
	SetupCellSuperlevels(c, atoms, 1, 2)
	require.Equal(t, 3, c.SuperThreshold[0])

	// The deactivation level must follow the ltePop/g distribution over
	// the aggregated range. Pearson test against the stored ratios.
	probs := make(map[int]float64)
	for n := 3; n <= 5; n++ {
		probs[n] = c.SuperLTEPop[n] / atoms.Levels[n].G / c.SuperNorm[0]
	}

	const draws = 20000
	rng := rand.New(rand.NewSource(42))
	counts := make(map[int]int)
	for i := 0; i < draws; i++ {
		n, err := ChooseSuperlevelDeactivation(c, atoms, 4, rng)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 3)
		require.LessOrEqual(t, n, 5)
		counts[n]++
	}

	chi2 := 0.0
	for n, p := range probs {
		expected := p * draws
		diff := float64(counts[n]) - expected
		chi2 += diff * diff / expected
	}
	limit := distuv.ChiSquared{K: 2}.Quantile(0.999)
	assert.Less(t, chi2, limit, "sampled counts %v", counts)
}

func TestChooseDeactivationInconsistentNorm(t *testing.T) {
	atoms := superAtoms(t)
	c := superCell(t, atoms)
	SetupCellSuperlevels(c, atoms, 0, DefaultThresholdFloor)

	// A norm that disagrees with the stored ratios must surface as an
	// error, never as a clamped level.
	c.SuperNorm[0] *= 10
	rng := rand.New(rand.NewSource(1))
	_, err := ChooseSuperlevelDeactivation(c, atoms, 4, rng)
	var serr *ErrSuperlevelSample
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Cell)
	assert.Equal(t, 0, serr.Ion)
	assert.Greater(t, serr.Target, serr.RunTot)
}
