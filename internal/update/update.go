// Package update drives one statistical-equilibrium cycle over the global
// cell array: estimator normalization, partitioning of the cells into
// per-worker shards, the per-cell equilibrium update, collective
// reconciliation of the shards, and post-cycle bookkeeping.
package update

import (
	"fmt"
	"math"
	"sync"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/comm"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/diag"
	"github.com/ashfall/speq/internal/levels"
	"github.com/ashfall/speq/internal/matrix"
	"github.com/ashfall/speq/internal/plasma"
)

// RateMatrixBuilder fills the ionization rate matrix and right-hand side for
// one cell. The physical rate coefficients are outside this core; the
// builder is a black box that returns a dense n×n system ready for the
// solver backend.
type RateMatrixBuilder func(c *plasma.Cell, atoms *atomic.Data) (a, b []float64, n int)

// Hooks are the external collaborators of the update cycle. Nil members
// select built-in placeholders.
type Hooks struct {
	// Rates builds the per-cell ionization system. Nil skips the matrix
	// ionization solve.
	Rates RateMatrixBuilder
	// CoolAdiabatic returns the adiabatic cooling rate of a cell at its
	// current (pre-update) electron temperature.
	CoolAdiabatic func(c *plasma.Cell) float64
	// SolveTemperature adjusts the cell's electron temperature toward
	// heating/cooling balance. Nil selects a bounded relaxation step.
	SolveTemperature func(c *plasma.Cell)
}

// Options configure the orchestrator for a run.
type Options struct {
	Workers          int
	Backend          string      // matrix backend, "cpu" or "gpu"
	Mode             levels.Mode // population mode for the local update
	ThresholdFloor   int         // superlevel boundary floor, in levels above ground
	ConvergenceEps   float64     // relative temperature-change tolerance
	FluxPersistScale float64     // fraction of the new flux blended into the persistent flux
	MinPhotons       int         // photon count below which a cell is reported
}

// Orchestrator owns the cycle state machine. One Orchestrator drives one
// grid for the whole run; UpdateAllCells advances it by one cycle.
type Orchestrator struct {
	grid    *plasma.Grid
	atoms   *atomic.Data
	opts    Options
	hooks   Hooks
	solvers []matrix.Solver
	cycle   int
}

// New validates the configuration and builds the per-worker solver
// backends. A solver that is not shareable between goroutines is
// instantiated once per worker so no accelerator context is ever used
// concurrently.
func New(grid *plasma.Grid, atoms *atomic.Data, opts Options, hooks Hooks) (*Orchestrator, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backend == "" {
		opts.Backend = matrix.BackendCPU
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %d", levels.ErrUnknownMode, int(opts.Mode))
	}
	if opts.ThresholdFloor <= 0 {
		opts.ThresholdFloor = levels.DefaultThresholdFloor
	}
	if opts.ConvergenceEps <= 0 {
		opts.ConvergenceEps = 0.05
	}
	if opts.FluxPersistScale <= 0 {
		opts.FluxPersistScale = 0.5
	}
	if opts.MinPhotons <= 0 {
		opts.MinPhotons = 100
	}

	first, err := matrix.New(opts.Backend)
	if err != nil {
		return nil, err
	}
	solvers := make([]matrix.Solver, opts.Workers)
	solvers[0] = first
	for r := 1; r < opts.Workers; r++ {
		if first.Shareable() {
			solvers[r] = first
			continue
		}
		s, err := matrix.New(opts.Backend)
		if err != nil {
			for _, done := range solvers[:r] {
				done.Close()
			}
			return nil, err
		}
		solvers[r] = s
	}

	return &Orchestrator{grid: grid, atoms: atoms, opts: opts, hooks: hooks, solvers: solvers}, nil
}

// Close releases the solver backends.
func (o *Orchestrator) Close() {
	seen := map[matrix.Solver]bool{}
	for _, s := range o.solvers {
		if !seen[s] {
			seen[s] = true
			s.Close()
		}
	}
}

// Grid returns the canonical cell arena.
func (o *Orchestrator) Grid() *plasma.Grid { return o.grid }

// Cycle is the number of completed equilibrium cycles.
func (o *Orchestrator) Cycle() int { return o.cycle }

// Summary reports what one cycle did to the grid.
type Summary struct {
	Cycle              int
	MaxDTr, MaxDTe     float64
	CellMaxTr          int
	CellMaxTe          int
	AvgTr, AvgTe       float64
	AvgTrOld, AvgTeOld float64
	HeatTot, CoolTot   float64
	LumTot             float64
	ConvergedFraction  float64
}

// UpdateAllCells runs one full cycle: Normalize, Partition, Local Update,
// Reconcile, Post-process. On return every worker replica has been merged
// back into one consistent global array.
func (o *Orchestrator) UpdateAllCells() (Summary, error) {
	// Normalize every cell's raw estimators first, while the temperatures
	// they were accumulated under are still in place. Some estimator
	// corrections carry temperature terms; normalizing after a temperature
	// change would apply the wrong correction.
	for i := range o.grid.Cells {
		o.normalizeCell(&o.grid.Cells[i])
	}

	nworkers := o.opts.Workers
	group := comm.NewGroup(nworkers)
	replicas := make([]*plasma.Grid, nworkers)
	for r := range replicas {
		replicas[r] = o.grid.Clone()
	}

	var wg sync.WaitGroup
	for r := 0; r < nworkers; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			o.workerCycle(group.Worker(rank), replicas[rank])
		}(r)
	}
	wg.Wait()

	// All replicas are identical now; adopt one as the canonical state.
	o.grid.Cells = replicas[0].Cells

	s := o.postProcess()
	o.cycle++
	return s, nil
}

// workerCycle is one worker's compute phase: the local update over its own
// shard of its own replica, then the collective reconciliation. Any failure
// inside reconciliation desynchronizes the group and cannot be recovered
// locally, so it terminates the run.
func (o *Orchestrator) workerCycle(w *comm.Worker, g *plasma.Grid) {
	ncells := g.NCells()
	nworkers := o.opts.Workers
	rank := w.Rank()
	solver := o.solvers[rank]

	start, stop := ShardRange(rank, ncells, nworkers)
	for i := start; i < stop; i++ {
		c := &g.Cells[i]
		if !c.InDomain {
			// Boundary cells get their state by extrapolation in
			// post-processing.
			continue
		}
		o.localUpdate(c, solver)
	}

	for root := 0; root < nworkers; root++ {
		var buf []float64
		if root == rank {
			buf = packShard(g, o.atoms, start, stop)
		}
		out, err := w.Broadcast(root, buf)
		if err != nil {
			diag.Fatal("update: reconcile round %d on worker %d: %v", root, rank, err)
		}
		if root != rank {
			if err := unpackShard(g, o.atoms, out); err != nil {
				diag.Fatal("update: reconcile round %d on worker %d: %v", root, rank, err)
			}
		}
	}
}

// normalizeCell freezes the cycle's temperatures and turns the raw
// Monte Carlo sums into physical estimators.
func (o *Orchestrator) normalizeCell(c *plasma.Cell) {
	c.TROld, c.TEOld = c.TR, c.TE

	if c.InDomain && c.NTot < o.opts.MinPhotons {
		diag.Log("!!update: cell %4d vol %8.2e has only %4d photons", c.Index, c.Vol, c.NTot)
	}
	if c.Vol <= 0 {
		return
	}
	inv := 1. / c.Vol
	if c.J > 0 {
		c.AveFreq /= c.J
		c.J *= inv / (4. * constants.Pi)
	} else {
		c.AveFreq = 0
	}
	// Stimulated correction at the frozen electron temperature.
	if c.TEOld > 0 && c.AveFreq > 0 {
		c.HeatComp *= 1 - math.Exp(-constants.Planck*c.AveFreq/(constants.Boltzmann*c.TEOld))
	}
	c.HeatTot *= inv
	c.HeatFF *= inv
	c.HeatComp *= inv
	c.AbsTot *= inv
	c.LumTot *= inv
	c.CoolTot *= inv

	s := o.opts.FluxPersistScale
	c.FluxPersist = (1-s)*c.FluxPersist + s*c.FluxTot
}

// localUpdate recomputes one cell's state from its normalized estimators:
// radiation-field summaries, adiabatic cooling, the electron temperature
// step, the equilibrium populations, the matrix ionization solve, and the
// cell's superlevel state for the coming cycle.
func (o *Orchestrator) localUpdate(c *plasma.Cell, solver matrix.Solver) {
	if c.NTot > 0 && c.AveFreq > 0 {
		c.TR = constants.Planck * c.AveFreq / (constants.TRad * constants.Boltzmann)
		if c.TR > 0 {
			tr2 := c.TR * c.TR
			c.W = constants.Pi * c.J / (constants.StefanBoltzmann * tr2 * tr2)
		}
	}

	if o.hooks.CoolAdiabatic != nil {
		c.CoolAdia = o.hooks.CoolAdiabatic(c)
	} else {
		c.CoolAdia = 0
	}

	if o.hooks.SolveTemperature != nil {
		o.hooks.SolveTemperature(c)
	} else {
		relaxTemperature(c)
	}

	if err := levels.EquilibriumState(c, o.atoms, o.opts.Mode); err != nil {
		// The mode was validated at construction.
		diag.Fatal("update: cell %d: %v", c.Index, err)
	}

	if o.hooks.Rates != nil {
		o.ionizationSolve(c, solver)
	}

	levels.SetupCellSuperlevels(c, o.atoms, o.cycle, o.opts.ThresholdFloor)
}

// ionizationSolve runs the dense rate-matrix solve for one cell. A solver
// failure is fatal to the cell only: the previous cycle's densities stay in
// place and the failure is counted.
func (o *Orchestrator) ionizationSolve(c *plasma.Cell, solver matrix.Solver) {
	a, b, n := o.hooks.Rates(c, o.atoms)
	x, err := solver.Solve(a, b, n)
	if err != nil {
		diag.Error("update: ionization solve skipped for cell %4d (ne %8.2e t_e %8.2e): %s",
			c.Index, c.Ne, c.TE, matrix.ErrorString(err))
		return
	}
	for j := 0; j < n && j < len(c.Density); j++ {
		if x[j] < 0 {
			if x[j] < -1e-10 {
				diag.Error("update: negative ion density %8.2e for cell %4d ion %2d", x[j], c.Index, j)
			}
			x[j] = 0
		}
		c.Density[j] = x[j]
	}
}

// relaxTemperature is the built-in electron temperature step: move a
// bounded fraction of the way toward the temperature that would balance
// heating against cooling.
func relaxTemperature(c *plasma.Cell) {
	if c.HeatTot <= 0 || c.CoolTot <= 0 {
		return
	}
	ratio := math.Sqrt(math.Sqrt(c.HeatTot / c.CoolTot))
	if ratio > 1.3 {
		ratio = 1.3
	} else if ratio < 0.7 {
		ratio = 0.7
	}
	c.TE *= 0.5 * (1 + ratio)
}
