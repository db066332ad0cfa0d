package plasma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfall/speq/internal/atomic"
)

func testAtoms(t *testing.T) *atomic.Data {
	t.Helper()
	d := &atomic.Data{
		Ions: []atomic.Ion{
			{Z: 1, Istate: 1, G: 2, NLevels: 2, FirstLevel: 0, NLTE: 2, FirstNLTE: 0},
			{Z: 1, Istate: 2, G: 1},
		},
		Levels: []atomic.Level{
			{G: 2, Ex: 0, Ion: 0},
			{G: 8, Ex: 1.6e-11, Ion: 0},
		},
	}
	require.NoError(t, d.Finalize())
	return d
}

func TestNewCellSizes(t *testing.T) {
	atoms := testAtoms(t)
	c := NewCell(7, atoms)

	assert.Equal(t, 7, c.Index)
	assert.True(t, c.InDomain)
	assert.Len(t, c.Density, 2)
	assert.Len(t, c.Partition, 2)
	assert.Len(t, c.LevDen, 2)
	assert.Len(t, c.SuperLTEPop, 2)
	assert.Len(t, c.SuperThreshold, 2)
	assert.Len(t, c.SuperNorm, 2)
}

func TestCellCloneIsDeep(t *testing.T) {
	atoms := testAtoms(t)
	c := NewCell(0, atoms)
	c.TR = 1e4
	c.Density[0] = 5
	c.LevDen[1] = 0.25
	c.SuperThreshold[0] = 1

	cp := c.Clone()
	cp.Density[0] = 99
	cp.LevDen[1] = 99
	cp.SuperThreshold[0] = 99

	assert.Equal(t, 5.0, c.Density[0])
	assert.Equal(t, 0.25, c.LevDen[1])
	assert.Equal(t, 1, c.SuperThreshold[0])
	assert.Equal(t, 1e4, cp.TR)
}

func TestGridCloneIsDeep(t *testing.T) {
	atoms := testAtoms(t)
	g := NewGrid(3, atoms)
	g.Cells[1].Partition[0] = 4

	cp := g.Clone()
	require.Equal(t, 3, cp.NCells())
	cp.Cells[1].Partition[0] = 8

	assert.Equal(t, 4.0, g.Cells[1].Partition[0])
	assert.Equal(t, 1, cp.Cells[1].Index)
}

func TestScalarsByValue(t *testing.T) {
	atoms := testAtoms(t)
	c := NewCell(0, atoms)
	c.TR, c.TE, c.W, c.Ne = 4e4, 3e4, 0.1, 1e10

	s := c.Scalars()
	s.TR = 0

	assert.Equal(t, 4e4, c.TR)
	assert.Equal(t, 3e4, s.TE)
	assert.Equal(t, 0.1, s.W)
}
