//go:build !cuda

package matrix

// Without the cuda build tag the GPU backend cannot provide a context.
func newGPUSolver() (Solver, error) {
	return nil, ErrNoContext
}
