package update

import (
	"fmt"

	"github.com/ashfall/speq/internal/atomic"
	"github.com/ashfall/speq/internal/plasma"
)

// The reconciliation buffer carries only the fields the local update phase
// mutates, as raw float64 values so nothing is lost to re-encoding. Layout:
// one header word (cell count), then per cell the global index, the scalar
// block, and the per-ion and per-level arrays. Integer values (indices,
// superlevel thresholds) ride as float64; they are small enough to be exact.

const cellScalarWords = 8

func cellStride(atoms *atomic.Data) int {
	return 1 + cellScalarWords + 4*len(atoms.Ions) + 2*atoms.NLevDen()
}

// packShard serializes the updated state of cells [start, stop) of the grid.
// An empty shard packs to just the zero header, which still occupies its
// broadcast round.
func packShard(g *plasma.Grid, atoms *atomic.Data, start, stop int) []float64 {
	buf := make([]float64, 0, 1+(stop-start)*cellStride(atoms))
	buf = append(buf, float64(stop-start))
	for i := start; i < stop; i++ {
		c := &g.Cells[i]
		buf = append(buf, float64(c.Index))
		buf = append(buf, c.TR, c.TE, c.W, c.Ne, c.CoolAdia, c.FluxPersist, c.HeatComp, c.CoolTot)
		buf = append(buf, c.Density...)
		buf = append(buf, c.Partition...)
		buf = append(buf, c.LevDen...)
		buf = append(buf, c.SuperLTEPop...)
		buf = append(buf, c.SuperNorm...)
		for _, t := range c.SuperThreshold {
			buf = append(buf, float64(t))
		}
	}
	return buf
}

// unpackShard merges a packed shard into the receiver's replica of the grid.
func unpackShard(g *plasma.Grid, atoms *atomic.Data, buf []float64) error {
	if len(buf) < 1 {
		return fmt.Errorf("reconcile: empty buffer")
	}
	count := int(buf[0])
	stride := cellStride(atoms)
	if len(buf) != 1+count*stride {
		return fmt.Errorf("reconcile: buffer holds %d words, want %d for %d cells",
			len(buf), 1+count*stride, count)
	}
	pos := 1
	for i := 0; i < count; i++ {
		index := int(buf[pos])
		pos++
		if index < 0 || index >= g.NCells() {
			return fmt.Errorf("reconcile: cell index %d outside grid of %d", index, g.NCells())
		}
		c := &g.Cells[index]
		c.TR, c.TE, c.W, c.Ne = buf[pos], buf[pos+1], buf[pos+2], buf[pos+3]
		c.CoolAdia, c.FluxPersist = buf[pos+4], buf[pos+5]
		c.HeatComp, c.CoolTot = buf[pos+6], buf[pos+7]
		pos += cellScalarWords
		pos += copy(c.Density, buf[pos:pos+len(atoms.Ions)])
		pos += copy(c.Partition, buf[pos:pos+len(atoms.Ions)])
		pos += copy(c.LevDen, buf[pos:pos+atoms.NLevDen()])
		pos += copy(c.SuperLTEPop, buf[pos:pos+atoms.NLevDen()])
		pos += copy(c.SuperNorm, buf[pos:pos+len(atoms.Ions)])
		for n := range c.SuperThreshold {
			c.SuperThreshold[n] = int(buf[pos])
			pos++
		}
	}
	return nil
}
