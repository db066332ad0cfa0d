package plasma

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() Cell {
	cp := *c
	cp.Density = append([]float64(nil), c.Density...)
	cp.Partition = append([]float64(nil), c.Partition...)
	cp.LevDen = append([]float64(nil), c.LevDen...)
	cp.SuperLTEPop = append([]float64(nil), c.SuperLTEPop...)
	cp.SuperThreshold = append([]int(nil), c.SuperThreshold...)
	cp.SuperNorm = append([]float64(nil), c.SuperNorm...)
	return cp
}

// Clone returns a deep copy of the whole arena. Each worker computes on its
// own replica during a cycle; reconciliation makes all replicas identical
// again.
func (g *Grid) Clone() *Grid {
	cp := &Grid{Cells: make([]Cell, len(g.Cells))}
	for i := range g.Cells {
		cp.Cells[i] = g.Cells[i].Clone()
	}
	return cp
}
