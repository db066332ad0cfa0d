package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/config"
	"github.com/ashfall/speq/internal/constants"
	"github.com/ashfall/speq/internal/diag"
	"github.com/ashfall/speq/internal/plasma"
	"github.com/ashfall/speq/internal/update"
	"github.com/ashfall/speq/internal/utils"
)

func main() {
	var inputFlag = flag.String("input", "run", "run configuration in toml format")
	var verboseFlag = flag.Bool("v", false, "verbose diagnostics")
	flag.Parse()

	startTime := time.Now()
	fmt.Printf("Current time: %s\n", startTime.UTC().Format(time.UnixDate))

	name := strings.TrimSuffix(*inputFlag, ".toml")
	cfg, err := config.Load(name + ".toml")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	diag.SetVerbose(cfg.Verbose || *verboseFlag)

	atoms, err := atomic.Load(cfg.AtomicData)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	grid := buildGrid(&cfg, atoms)
	rng := rand.New(rand.NewSource(cfg.Seed))

	orch, err := update.New(grid, atoms, update.Options{
		Workers:          cfg.Workers,
		Backend:          cfg.Backend,
		Mode:             cfg.PopulationMode(),
		ThresholdFloor:   cfg.ThresholdFloor,
		ConvergenceEps:   cfg.ConvergenceEps,
		FluxPersistScale: cfg.FluxPersistScale,
		MinPhotons:       cfg.MinPhotons,
	}, update.Hooks{Rates: demoRateMatrix})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer orch.Close()

	for cycle := 0; cycle < cfg.Cycles; cycle++ {
		seedEstimators(grid, &cfg, rng)
		s, err := orch.UpdateAllCells()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("cycle %2d: t_r %8.2e t_e %8.2e  max dt_r %6.3f max dt_e %6.3f  converged %5.1f%%\n",
			s.Cycle, s.AvgTr, s.AvgTe, s.MaxDTr, s.MaxDTe, 100*s.ConvergedFraction)
		if s.ConvergedFraction >= 1 {
			break
		}
	}

	if err := writeCellTable(cfg.OutputDir, grid); err != nil {
		fmt.Fprintln(os.Stderr, "unable to save cell table:", err)
	}
	if err := writeIonTable(cfg.OutputDir, grid, atoms); err != nil {
		fmt.Fprintln(os.Stderr, "unable to save ion table:", err)
	}
	if err := writeLevelTable(cfg.OutputDir, grid, atoms); err != nil {
		fmt.Fprintln(os.Stderr, "unable to save level table:", err)
	}

	diag.ErrorSummary("end of run")
	fmt.Printf("Elapsed time: %v\n", time.Since(startTime))
}

// buildGrid lays out a uniform active domain with one guard cell at each
// end, all cells starting from the configured initial state.
func buildGrid(cfg *config.Config, atoms *atomic.Data) *plasma.Grid {
	g := plasma.NewGrid(cfg.NCells, atoms)
	nh := cfg.Rho * constants.Rho2NH
	for i := range g.Cells {
		c := &g.Cells[i]
		c.InDomain = i > 0 && i < cfg.NCells-1
		c.TR = cfg.TRad
		c.TE = cfg.TElec
		c.W = cfg.Weight
		c.Rho = cfg.Rho
		c.Vol = cfg.CellVol
		c.Ne = nh
		for n := range c.Density {
			c.Density[n] = nh / float64(len(c.Density))
		}
	}
	return g
}

// seedEstimators plays the role of the photon transport pass, which is not
// part of this program: it fills each cell's raw estimator sums with the
// values a dilute Planckian field at the configured radiation temperature
// would accumulate, with a little sampling noise on top.
func seedEstimators(g *plasma.Grid, cfg *config.Config, rng *rand.Rand) {
	for i := range g.Cells {
		c := &g.Cells[i]
		if !c.InDomain {
			continue
		}
		jitter := 1 + 0.05*(rng.Float64()-0.5)

		// Mean intensity of a dilute blackbody, in raw (volume-summed) form.
		t4 := cfg.TRad * cfg.TRad * cfg.TRad * cfg.TRad
		jPhys := cfg.Weight * constants.StefanBoltzmann * t4 / constants.Pi
		c.J = jPhys * 4 * constants.Pi * c.Vol * jitter
		c.AveFreq = c.J * constants.TRad * constants.Boltzmann * cfg.TRad / constants.Planck

		c.NTot = int(float64(cfg.MinPhotons) * 10 * jitter)
		heat := jPhys * c.Ne * 1e-20
		c.HeatTot = heat * c.Vol
		c.HeatFF = 0.3 * c.HeatTot
		c.HeatComp = 0.1 * c.HeatTot
		c.AbsTot = c.HeatTot
		c.CoolTot = 0.9 * heat * c.Vol * jitter
		c.LumTot = c.CoolTot
		c.FluxTot = jPhys * jitter
	}
}

// demoRateMatrix is a stand-in for the photoionization network: a
// diagonally dominant system whose solution is the partition-weighted
// share of the cell's hydrogen-scaled number density. It keeps the total
// ion density fixed while exercising the full matrix path.
func demoRateMatrix(c *plasma.Cell, atoms *atomic.Data) (a, b []float64, n int) {
	n = len(atoms.Ions)
	nh := c.Rho * constants.Rho2NH
	ztot := utils.SumSlice(c.Partition)
	target := make([]float64, n)
	for i := range target {
		if ztot > 0 {
			target[i] = nh * c.Partition[i] / ztot
		} else {
			target[i] = nh / float64(n)
		}
	}

	a = make([]float64, n*n)
	b = make([]float64, n)
	for i := 0; i < n; i++ {
		a[i*n+i] = 3
		b[i] = 3 * target[i]
		if i > 0 {
			a[i*n+i-1] = -1
			b[i] -= target[i-1]
		}
		if i+1 < n {
			a[i*n+i+1] = -1
			b[i] -= target[i+1]
		}
	}
	return a, b, n
}
