package cost

import (
	"context"
	"fmt"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
)

// QAOA evaluates <ψ(γ,β)|H_C|ψ(γ,β)> where ψ is built from the uniform
// superposition by alternating exp(-iγ_k H_C) and exp(-iβ_k H_M) for
// k = 0..p-1. Both evolutions are exact spectral sums.
//
// Parameters are laid out as [γ_0..γ_{p-1}, β_0..β_{p-1}].
type QAOA struct {
	counter
	cost  *hamiltonian.Hamiltonian
	mixer *hamiltonian.Hamiltonian
	depth int
	cache *Cache
}

func NewQAOA(costH, mixer *hamiltonian.Hamiltonian, depth int) (*QAOA, error) {
	if costH == nil || mixer == nil {
		return nil, fmt.Errorf("qaoa cost: cost and mixer hamiltonians are required")
	}
	if depth <= 0 {
		return nil, fmt.Errorf("qaoa cost: depth must be positive, got %d", depth)
	}
	return &QAOA{cost: costH, mixer: mixer, depth: depth, cache: NewCache()}, nil
}

// State returns the QAOA state for the given angles.
func (c *QAOA) State(params []float64) (quantum.State, error) {
	if len(params) != c.Dimension() {
		return quantum.State{}, dimensionError(c.Dimension(), len(params))
	}
	psi := quantum.UniformSuperposition()
	for k := 0; k < c.depth; k++ {
		psi = c.cost.Evolve(psi, params[k])
		psi = c.mixer.Evolve(psi, params[c.depth+k])
	}
	return psi, nil
}

func (c *QAOA) Evaluate(params []float64) (float64, error) {
	if len(params) != c.Dimension() {
		return 0, dimensionError(c.Dimension(), len(params))
	}
	c.inc()
	return c.cache.lookup(params, func() (float64, error) {
		psi, err := c.State(params)
		if err != nil {
			return 0, err
		}
		return c.cost.ExpectationValue(psi), nil
	})
}

func (c *QAOA) Gradient(ctx context.Context, params []float64, method GradientMethod) ([]float64, error) {
	if len(params) != c.Dimension() {
		return nil, dimensionError(c.Dimension(), len(params))
	}
	return ComputeGradient(ctx, c, params, method)
}

func (c *QAOA) Dimension() int { return 2 * c.depth }

func (c *QAOA) Depth() int { return c.depth }

// CostHamiltonian returns H_C.
func (c *QAOA) CostHamiltonian() *hamiltonian.Hamiltonian { return c.cost }
