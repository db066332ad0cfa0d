package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/plasma"
	"github.com/ashfall/speq/internal/utils"
)

type cellRow struct {
	Cell        int     `csv:"cell"`
	InDomain    bool    `csv:"in_domain"`
	TR          float64 `csv:"t_r"`
	TE          float64 `csv:"t_e"`
	W           float64 `csv:"w"`
	Ne          float64 `csv:"n_e"`
	J           float64 `csv:"j"`
	AveFreq     float64 `csv:"ave_freq"`
	HeatTot     float64 `csv:"heat_tot"`
	CoolTot     float64 `csv:"cool_tot"`
	LumTot      float64 `csv:"lum_tot"`
	FluxPersist float64 `csv:"flux_persist"`
	NPhot       int     `csv:"nphot"`
	Converged   bool    `csv:"converged"`
}

func writeCellTable(dir string, g *plasma.Grid) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	rows := make([]*cellRow, 0, g.NCells())
	for i := range g.Cells {
		c := &g.Cells[i]
		rows = append(rows, &cellRow{
			Cell:        c.Index,
			InDomain:    c.InDomain,
			TR:          c.TR,
			TE:          c.TE,
			W:           c.W,
			Ne:          c.Ne,
			J:           c.J,
			AveFreq:     c.AveFreq,
			HeatTot:     c.HeatTot,
			CoolTot:     c.CoolTot,
			LumTot:      c.LumTot,
			FluxPersist: c.FluxPersist,
			NPhot:       c.NTot,
			Converged:   c.Converged,
		})
	}
	file, err := os.Create(filepath.Join(dir, "cells.csv"))
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&rows, file)
}

// writeIonTable dumps per-cell ion state keyed so that natural sorting
// groups a cell's ions together in charge order.
func writeIonTable(dir string, g *plasma.Grid, atoms *atomic.Data) error {
	var rows utils.CSV
	for i := range g.Cells {
		c := &g.Cells[i]
		if !c.InDomain {
			continue
		}
		for n, ion := range atoms.Ions {
			key := fmt.Sprintf("c%d_z%d_i%d", c.Index, ion.Z, ion.Istate)
			rows = append(rows, []string{
				key,
				strconv.Itoa(c.Index),
				strconv.Itoa(ion.Z),
				strconv.Itoa(ion.Istate),
				strconv.FormatFloat(c.Density[n], 'e', 6, 64),
				strconv.FormatFloat(c.Partition[n], 'e', 6, 64),
			})
		}
	}
	return utils.WriteAsCSV(rows, dir, "ions.csv",
		[]string{"key", "cell", "z", "istate", "density", "partition"})
}

// writeLevelTable dumps the fractional level occupations of the tracked
// levels, one row per (cell, ion, level).
func writeLevelTable(dir string, g *plasma.Grid, atoms *atomic.Data) error {
	var rows utils.CSV
	for i := range g.Cells {
		c := &g.Cells[i]
		if !c.InDomain {
			continue
		}
		for n, ion := range atoms.Ions {
			for lvl := ion.FirstNLTE; lvl < ion.FirstNLTE+ion.NLTE; lvl++ {
				key := fmt.Sprintf("c%d_z%d_i%d_l%d", c.Index, ion.Z, ion.Istate, lvl-ion.FirstNLTE)
				rows = append(rows, []string{
					key,
					strconv.Itoa(c.Index),
					strconv.Itoa(n),
					strconv.Itoa(lvl - ion.FirstNLTE),
					strconv.FormatFloat(utils.Ergs2eV(atoms.Levels[lvl].Ex), 'f', 4, 64),
					strconv.FormatFloat(c.LevDen[atoms.LevDenIndex(n, lvl)], 'e', 6, 64),
				})
			}
		}
	}
	return utils.WriteAsCSV(rows, dir, "levels.csv",
		[]string{"key", "cell", "ion", "level", "ex_ev", "occupation"})
}
