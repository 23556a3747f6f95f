package cost

import (
	"context"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
)

// VQE is the energy <ψ(θ)|H|ψ(θ)> with ψ(θ) = ansatz(θ)·ψ0.
type VQE struct {
	counter
	h       *hamiltonian.Hamiltonian
	ansatz  ansatz.Ansatz
	initial quantum.State
	cache   *Cache
}

// NewVQE binds a Hamiltonian, an ansatz and a fixed initial state.
func NewVQE(h *hamiltonian.Hamiltonian, a ansatz.Ansatz, initial quantum.State) *VQE {
	return &VQE{
		h:       h,
		ansatz:  a,
		initial: initial,
		cache:   NewCache(),
	}
}

// State returns ansatz(params)·ψ0.
func (c *VQE) State(params []float64) (quantum.State, error) {
	return c.ansatz.Apply(c.initial, params)
}

func (c *VQE) Evaluate(params []float64) (float64, error) {
	if len(params) != c.Dimension() {
		return 0, dimensionError(c.Dimension(), len(params))
	}
	c.inc()
	return c.cache.lookup(params, func() (float64, error) {
		psi, err := c.State(params)
		if err != nil {
			return 0, err
		}
		return c.h.ExpectationValue(psi), nil
	})
}

func (c *VQE) Gradient(ctx context.Context, params []float64, method GradientMethod) ([]float64, error) {
	if len(params) != c.Dimension() {
		return nil, dimensionError(c.Dimension(), len(params))
	}
	return ComputeGradient(ctx, c, params, method)
}

func (c *VQE) Dimension() int { return c.ansatz.NumParameters() }

// Cache exposes the evaluation cache.
func (c *VQE) Cache() *Cache { return c.cache }

func dimensionError(expected, actual int) error {
	return &quantum.DimensionMismatchError{What: "cost parameter count", Expected: expected, Actual: actual}
}
