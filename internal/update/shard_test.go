package update

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardRangePartitions(t *testing.T) {
	cases := []struct{ ncells, nworkers int }{
		{0, 1}, {1, 1}, {1, 3}, {5, 2}, {7, 3}, {8, 8}, {100, 7}, {3, 5},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%dcells_%dworkers", tc.ncells, tc.nworkers), func(t *testing.T) {
			covered := make([]int, tc.ncells)
			prev := 0
			for rank := 0; rank < tc.nworkers; rank++ {
				start, stop := ShardRange(rank, tc.ncells, tc.nworkers)
				require.LessOrEqual(t, start, stop)
				// Ranges are contiguous in rank order.
				require.Equal(t, prev, start)
				prev = stop
				for i := start; i < stop; i++ {
					covered[i]++
				}
			}
			require.Equal(t, tc.ncells, prev)
			for i, n := range covered {
				assert.Equal(t, 1, n, "cell %d", i)
			}
		})
	}
}

func TestShardRangeBalance(t *testing.T) {
	// Shard sizes differ by at most one, with the remainder on low ranks.
	sizes := make([]int, 4)
	for rank := range sizes {
		start, stop := ShardRange(rank, 10, 4)
		sizes[rank] = stop - start
	}
	assert.Equal(t, []int{3, 3, 2, 2}, sizes)
}
