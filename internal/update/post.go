package update

import (
	"math"

	"github.com/ashfall/speq/internal/diag"
	"github.com/ashfall/speq/internal/plasma"
	"github.com/ashfall/speq/internal/utils"
)

// postProcess runs after reconciliation on the canonical grid: extend state
// into out-of-domain cells, sanity-check the solved state, take the
// end-of-cycle snapshots, judge per-cell convergence, and build the cycle
// summary.
func (o *Orchestrator) postProcess() Summary {
	o.extendState()

	s := Summary{Cycle: o.cycle, CellMaxTr: -1, CellMaxTe: -1}

	var cells []int
	var dtr, dte, trs, tes, trOlds, teOlds []float64
	converged := 0
	for i := range o.grid.Cells {
		c := &o.grid.Cells[i]
		if !c.InDomain {
			continue
		}

		o.checkSane(c)

		c.CoolTotIoniz = c.CoolTot
		c.LumTotIoniz = c.LumTot

		cells = append(cells, c.Index)
		dtr = append(dtr, relChange(c.TR, c.TROld))
		dte = append(dte, relChange(c.TE, c.TEOld))
		trs = append(trs, c.TR)
		tes = append(tes, c.TE)
		trOlds = append(trOlds, c.TROld)
		teOlds = append(teOlds, c.TEOld)
		s.HeatTot += c.HeatTot
		s.CoolTot += c.CoolTot
		s.LumTot += c.LumTot

		c.Converged = dtr[len(dtr)-1] < o.opts.ConvergenceEps &&
			dte[len(dte)-1] < o.opts.ConvergenceEps &&
			balanced(c.HeatTot, c.CoolTot, o.opts.ConvergenceEps)
		if c.Converged {
			converged++
		}
	}
	if len(cells) > 0 {
		iTr, iTe := utils.Argmax(dtr), utils.Argmax(dte)
		s.MaxDTr, s.CellMaxTr = dtr[iTr], cells[iTr]
		s.MaxDTe, s.CellMaxTe = dte[iTe], cells[iTe]
		s.AvgTr = utils.Average(trs)
		s.AvgTrOld = utils.Average(trOlds)
		s.AvgTeOld = utils.Average(teOlds)
		s.ConvergedFraction = float64(converged) / float64(len(cells))

		var teVar float64
		s.AvgTe, teVar = utils.MeanAndVariance(tes, false)
		diag.Debug("update: t_e scatter %8.2e over %d active cells", math.Sqrt(teVar), len(cells))
	}

	diag.Log("!!update: t_r %8.2e -> %8.2e  t_e %8.2e -> %8.2e (grid averages)",
		s.AvgTrOld, s.AvgTr, s.AvgTeOld, s.AvgTe)
	diag.Log("!!update: max dt_r %6.3f in cell %4d  max dt_e %6.3f in cell %4d",
		s.MaxDTr, s.CellMaxTr, s.MaxDTe, s.CellMaxTe)
	diag.Log("!!update: heat %10.3e cool %10.3e lum %10.3e  converged %5.1f%%",
		s.HeatTot, s.CoolTot, s.LumTot, 100*s.ConvergedFraction)

	return s
}

// extendState copies densities, partition functions and level occupations
// from the nearest in-domain cell into cells outside the active domain, so
// that lookups near the boundary never read uninitialized state.
func (o *Orchestrator) extendState() {
	for i := range o.grid.Cells {
		c := &o.grid.Cells[i]
		if c.InDomain {
			continue
		}
		src := o.nearestInDomain(i)
		if src == nil {
			continue
		}
		copy(c.Density, src.Density)
		copy(c.Partition, src.Partition)
		copy(c.LevDen, src.LevDen)
	}
}

func (o *Orchestrator) nearestInDomain(i int) *plasma.Cell {
	for d := 1; d < o.grid.NCells(); d++ {
		if j := i - d; j >= 0 && o.grid.Cells[j].InDomain {
			return &o.grid.Cells[j]
		}
		if j := i + d; j < o.grid.NCells() && o.grid.Cells[j].InDomain {
			return &o.grid.Cells[j]
		}
	}
	return nil
}

// checkSane flags non-finite or negative state a solver failure could have
// left behind. The counted errors surface in the end-of-run summary.
func (o *Orchestrator) checkSane(c *plasma.Cell) {
	if !finite(c.TR) || !finite(c.TE) || c.TR < 0 || c.TE < 0 {
		diag.Error("update: unphysical temperatures t_r %8.2e t_e %8.2e in cell %4d", c.TR, c.TE, c.Index)
	}
	if !finite(c.Ne) || c.Ne < 0 {
		diag.Error("update: unphysical electron density %8.2e in cell %4d", c.Ne, c.Index)
	}
	for j, d := range c.Density {
		if !finite(d) {
			diag.Error("update: non-finite density for ion %2d in cell %4d", j, c.Index)
			c.Density[j] = 0
		}
	}
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func relChange(now, old float64) float64 {
	if old == 0 {
		if now == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(now-old) / old
}

func balanced(heat, cool, eps float64) bool {
	if heat <= 0 || cool <= 0 {
		return false
	}
	return math.Abs(heat-cool)/(heat+cool) < eps
}
