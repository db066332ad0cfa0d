//go:build cuda

package matrix

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lcusolver -lgpusolve -lstdc++

extern int gpu_init(void);
extern int gpu_finish(void);
extern int gpu_solve_matrix(double *a_matrix, double *b_vector, int size, double *x_vector);
extern int gpu_invert_matrix(double *matrix, double *inverse, int num_rows);
*/
import "C"

import (
	"fmt"
	"sync"
)

// Status codes returned by the gpusolve helper library.
const (
	gpuOK             = 0
	gpuErrInit        = 1
	gpuErrAlloc       = 2
	gpuErrFactorize   = 3
	gpuErrSingular    = 4
	gpuErrSubstitute  = 5
	gpuErrDeviceComms = 6
)

// gpuSolver owns one process-wide cusolverDn context for its lifetime. It is
// not safe for concurrent use: each caller must own its own context or
// serialize access.
type gpuSolver struct {
	mu     sync.Mutex
	closed bool
}

func newGPUSolver() (Solver, error) {
	if rc := int(C.gpu_init()); rc != gpuOK {
		return nil, fmt.Errorf("%w: gpu_init status %d", ErrNoContext, rc)
	}
	return &gpuSolver{}, nil
}

func (s *gpuSolver) Solve(a, b []float64, n int) ([]float64, error) {
	if err := checkDims(a, b, n); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNoContext
	}
	x := make([]float64, n)
	rc := int(C.gpu_solve_matrix((*C.double)(&a[0]), (*C.double)(&b[0]), C.int(n), (*C.double)(&x[0])))
	if err := gpuError(rc); err != nil {
		return nil, err
	}
	return x, nil
}

func (s *gpuSolver) Invert(a []float64, n int) ([]float64, error) {
	if err := checkDims(a, nil, n); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNoContext
	}
	inv := make([]float64, n*n)
	rc := int(C.gpu_invert_matrix((*C.double)(&a[0]), (*C.double)(&inv[0]), C.int(n)))
	if err := gpuError(rc); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *gpuSolver) Shareable() bool { return false }

func (s *gpuSolver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if rc := int(C.gpu_finish()); rc != gpuOK {
		return fmt.Errorf("%w: gpu_finish status %d", ErrBackend, rc)
	}
	return nil
}

func gpuError(rc int) error {
	switch rc {
	case gpuOK:
		return nil
	case gpuErrSingular:
		return ErrSingularMatrix
	case gpuErrInit:
		return ErrNoContext
	default:
		return fmt.Errorf("%w: status %d", ErrBackend, rc)
	}
}
