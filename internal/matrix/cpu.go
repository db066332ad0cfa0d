package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// cpuSolver is the LU-decomposition backend. It holds no state between calls
// and is safe for concurrent use.
type cpuSolver struct{}

func (s *cpuSolver) Solve(a, b []float64, n int) ([]float64, error) {
	if err := checkDims(a, b, n); err != nil {
		return nil, err
	}
	var lu mat.LU
	lu.Factorize(mat.NewDense(n, n, a))
	x := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(n, b)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}
	return x.RawVector().Data, nil
}

func (s *cpuSolver) Invert(a []float64, n int) ([]float64, error) {
	if err := checkDims(a, nil, n); err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(n, n, a)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}
	return inv.RawMatrix().Data, nil
}

func (s *cpuSolver) Shareable() bool { return true }

func (s *cpuSolver) Close() error { return nil }
