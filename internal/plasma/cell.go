// Package plasma defines the per-cell thermodynamic and ionization state and
// the arena holding the global cell array. During a compute phase each cell
// is owned by exactly one worker; after reconciliation every worker holds an
// identical read-only copy of the whole arena.
package plasma

import "github.com/ashfall/speq/internal/atomic"

// Cell is one spatial volume element of the simulated medium.
type Cell struct {
	Index    int
	InDomain bool // false for boundary cells outside the active domain

	TR    float64 // radiation temperature [K]
	TE    float64 // electron temperature [K]
	TROld float64
	TEOld float64
	W     float64 // dilution weight
	Ne    float64 // electron density [cm^-3]
	Rho   float64 // mass density [g cm^-3]
	Vol   float64 // [cm^3]

	Density   []float64 // ion number densities, one per ion
	Partition []float64 // partition function, one per ion
	LevDen    []float64 // fractional level occupations, tracked levels only

	// Superlevel state, recomputed once per equilibrium cycle.
	SuperLTEPop    []float64 // LTE population ratio to ground, per tracked level
	SuperThreshold []int     // per ion, level-table index of the superlevel boundary
	SuperNorm      []float64 // per ion, weight-corrected ratio sum above the threshold

	// Monte Carlo estimators. Raw sums during transport, physical values
	// after normalization.
	NTot     int     // photon passages through the cell
	J        float64 // mean intensity estimator
	AveFreq  float64 // mean photon frequency [Hz]
	HeatTot  float64
	HeatFF   float64
	HeatComp float64
	CoolTot  float64
	CoolAdia float64
	LumTot   float64
	AbsTot   float64
	FluxTot  float64

	// FluxPersist blends each cycle's flux estimator into a persistent
	// value so that low-count cells do not lose the field entirely.
	FluxPersist float64

	// Snapshots of the cooling state frozen at the end of the ionization
	// cycle, for post-run bookkeeping.
	CoolTotIoniz float64
	LumTotIoniz  float64

	Converged bool
}

// NewCell allocates a cell with per-ion and per-level storage sized for the
// given tables.
func NewCell(index int, atoms *atomic.Data) Cell {
	nions := len(atoms.Ions)
	return Cell{
		Index:          index,
		InDomain:       true,
		Density:        make([]float64, nions),
		Partition:      make([]float64, nions),
		LevDen:         make([]float64, atoms.NLevDen()),
		SuperLTEPop:    make([]float64, atoms.NLevDen()),
		SuperThreshold: make([]int, nions),
		SuperNorm:      make([]float64, nions),
	}
}

// Scalars is the subset of a cell's state that parameterizes a pure LTE
// reference computation. It replaces the shadow-cell copy pattern: callers
// take a value, never an aliased partial copy.
type Scalars struct {
	TR, TE float64
	W      float64
	Ne     float64
	Rho    float64
	Vol    float64
}

// Scalars returns the cell's thermodynamic scalars by value.
func (c *Cell) Scalars() Scalars {
	return Scalars{TR: c.TR, TE: c.TE, W: c.W, Ne: c.Ne, Rho: c.Rho, Vol: c.Vol}
}

// Grid is the global cell arena.
type Grid struct {
	Cells []Cell
}

// NewGrid allocates ncells cells sized for the given tables.
func NewGrid(ncells int, atoms *atomic.Data) *Grid {
	g := &Grid{Cells: make([]Cell, ncells)}
	for i := range g.Cells {
		g.Cells[i] = NewCell(i, atoms)
	}
	return g
}

// NCells is the size of the global cell array.
func (g *Grid) NCells() int { return len(g.Cells) }
