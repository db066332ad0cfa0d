// Package matrix presents one contract for dense linear solves over two
// interchangeable backends: a CPU implementation built on gonum's LU
// factorization and a GPU implementation built on cusolver (available behind
// the cuda build tag). Callers select a backend once at startup and never
// branch on which one is active.
//
// A Solver retains no state between calls except, for the GPU backend, its
// accelerator context. Solvers whose Shareable method reports false must not
// be used concurrently from more than one goroutine; give each worker its
// own.
package matrix

import "errors"

// Failure conditions common to both backends.
var (
	ErrSingularMatrix    = errors.New("matrix: matrix is singular or near-singular")
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")
	ErrNoContext         = errors.New("matrix: accelerator context unavailable")
	ErrBackend           = errors.New("matrix: backend failure")
)

// Solver solves dense real linear systems.
type Solver interface {
	// Solve returns x with A·x = b for an n×n row-major matrix a.
	Solve(a, b []float64, n int) ([]float64, error)
	// Invert returns the inverse of the n×n row-major matrix a.
	Invert(a []float64, n int) ([]float64, error)
	// Shareable reports whether the solver may be used concurrently from
	// several goroutines.
	Shareable() bool
	// Close tears down any backend context. The solver must not be used
	// afterwards.
	Close() error
}

// Backends selectable at startup.
const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"
)

// New returns the solver for the configured backend. An unknown backend name
// or an unavailable accelerator is a configuration error.
func New(backend string) (Solver, error) {
	switch backend {
	case BackendCPU:
		return &cpuSolver{}, nil
	case BackendGPU:
		return newGPUSolver()
	default:
		return nil, errors.New("matrix: unknown backend " + backend)
	}
}

// ErrorString maps any error produced by a Solver to a human-readable
// description, independent of the active backend.
func ErrorString(err error) string {
	switch {
	case err == nil:
		return "no error"
	case errors.Is(err, ErrSingularMatrix):
		return "singular or near-singular matrix"
	case errors.Is(err, ErrDimensionMismatch):
		return "matrix dimension mismatch"
	case errors.Is(err, ErrNoContext):
		return "accelerator context unavailable"
	case errors.Is(err, ErrBackend):
		return "internal backend failure"
	default:
		return err.Error()
	}
}

func checkDims(a, b []float64, n int) error {
	if n <= 0 || len(a) != n*n {
		return ErrDimensionMismatch
	}
	if b != nil && len(b) != n {
		return ErrDimensionMismatch
	}
	return nil
}
