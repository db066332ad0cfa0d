// Package comm implements the collective communication used to reconcile
// worker shards. A Group connects a fixed set of workers; reconciliation is
// a sequence of broadcast rounds, one producer per round, and every worker
// must take part in every round to keep the group's round counters aligned.
// There is no cancellation and no timeout: a stalled worker stalls the whole
// group, by design of the fail-stop model.
package comm

import (
	"errors"
	"fmt"
)

// ErrDesync marks a worker whose broadcast round does not line up with the
// group. A desynchronized collective cannot be recovered locally; callers
// must treat this as fatal.
var ErrDesync = errors.New("comm: broadcast sequence desynchronized")

type packet struct {
	round int
	root  int
	data  []float64
}

// Group is the communicator shared by a set of workers.
type Group struct {
	inbox []chan packet
}

// NewGroup creates a communicator for n workers.
func NewGroup(n int) *Group {
	g := &Group{inbox: make([]chan packet, n)}
	for i := range g.inbox {
		g.inbox[i] = make(chan packet)
	}
	return g
}

// Size is the number of workers in the group.
func (g *Group) Size() int { return len(g.inbox) }

// Worker returns the per-worker view of the group. Each worker must use its
// own view from its own goroutine.
func (g *Group) Worker(rank int) *Worker {
	return &Worker{group: g, rank: rank}
}

// Worker is one participant's handle on the group.
type Worker struct {
	group *Group
	rank  int
	round int
}

// Rank is the worker's index within the group.
func (w *Worker) Rank() int { return w.rank }

// Broadcast performs one collective round with the given producer. The
// producer passes its payload (which may be empty) and gets it back; every
// other worker ignores buf and receives the producer's payload as a fresh
// slice. Values transfer bit-exactly. Every worker must call Broadcast with
// the same root in the same round, whether or not it has data to contribute.
func (w *Worker) Broadcast(root int, buf []float64) ([]float64, error) {
	if root < 0 || root >= w.group.Size() {
		return nil, fmt.Errorf("%w: worker %d broadcast with root %d of %d",
			ErrDesync, w.rank, root, w.group.Size())
	}
	w.round++
	if w.rank == root {
		for rank, inbox := range w.group.inbox {
			if rank == w.rank {
				continue
			}
			cp := append([]float64(nil), buf...)
			inbox <- packet{round: w.round, root: root, data: cp}
		}
		return buf, nil
	}
	p := <-w.group.inbox[w.rank]
	if p.round != w.round || p.root != root {
		return nil, fmt.Errorf("%w: worker %d expected round %d root %d, got round %d root %d",
			ErrDesync, w.rank, w.round, root, p.round, p.root)
	}
	return p.data, nil
}
