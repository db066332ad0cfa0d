package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastDelivers(t *testing.T) {
	const n = 4
	g := NewGroup(n)
	require.Equal(t, n, g.Size())

	payloads := [][]float64{
		{1, 2, 3},
		{0},
		{4.5},
		{6, 7},
	}
	results := make([][][]float64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			w := g.Worker(rank)
			// Every worker takes every root's round in the same order.
			for root := 0; root < n; root++ {
				var buf []float64
				if rank == root {
					buf = payloads[root]
				}
				out, err := w.Broadcast(root, buf)
				if err != nil {
					errs[rank] = err
					return
				}
				results[rank] = append(results[rank], out)
			}
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < n; rank++ {
		require.NoError(t, errs[rank])
		for root := 0; root < n; root++ {
			assert.Equal(t, payloads[root], results[rank][root],
				"worker %d, round of root %d", rank, root)
		}
	}
}

func TestBroadcastCopies(t *testing.T) {
	g := NewGroup(2)
	src := []float64{1, 2}
	var got []float64
	var sendErr, recvErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, sendErr = g.Worker(0).Broadcast(0, src)
	}()
	go func() {
		defer wg.Done()
		got, recvErr = g.Worker(1).Broadcast(0, nil)
	}()
	wg.Wait()
	require.NoError(t, sendErr)
	require.NoError(t, recvErr)

	// The receiver owns a fresh slice; mutating it must not reach back.
	got[0] = 99
	assert.Equal(t, []float64{1, 2}, src)
}

func TestBroadcastRootOutOfRange(t *testing.T) {
	g := NewGroup(2)
	_, err := g.Worker(0).Broadcast(5, nil)
	require.ErrorIs(t, err, ErrDesync)
	_, err = g.Worker(0).Broadcast(-1, nil)
	require.ErrorIs(t, err, ErrDesync)
}

func TestBroadcastDetectsDesync(t *testing.T) {
	g := NewGroup(2)
	w := g.Worker(1)

	// A packet from a future round must not be accepted.
	go func() {
		g.inbox[1] <- packet{round: 5, root: 0, data: []float64{1}}
	}()
	_, err := w.Broadcast(0, nil)
	require.ErrorIs(t, err, ErrDesync)

	// Nor one carrying the wrong root tag.
	go func() {
		g.inbox[1] <- packet{round: 2, root: 1, data: []float64{1}}
	}()
	_, err = w.Broadcast(0, nil)
	require.ErrorIs(t, err, ErrDesync)
}
