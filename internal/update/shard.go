package update

// ShardRange returns the contiguous index range [start, stop) of the global
// cell array owned by the given worker. The ranges of all workers are
// disjoint, cover the whole array, differ in size by at most one cell, and
// depend only on (rank, ncells, nworkers), so every worker computes the same
// partition. A worker may legitimately receive an empty range.
func ShardRange(rank, ncells, nworkers int) (start, stop int) {
	ndo := ncells / nworkers
	rem := ncells % nworkers
	start = rank*ndo + min(rank, rem)
	stop = start + ndo
	if rank < rem {
		stop++
	}
	return start, stop
}
