// Package walk runs continuous-time quantum walks generated by a Hamiltonian
// and measures how they spread over the graph.
package walk

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
)

// Walk evolves states under exp(-iHt). A positive dephasing rate blends the
// unitary distribution into the long-time average at rate exp(-γt).
type Walk struct {
	h         *hamiltonian.Hamiltonian
	dephasing float64
}

// New creates a purely unitary walk.
func New(h *hamiltonian.Hamiltonian) *Walk {
	return &Walk{h: h}
}

// NewWithDephasing creates a walk with dephasing rate γ >= 0.
func NewWithDephasing(h *hamiltonian.Hamiltonian, rate float64) (*Walk, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return nil, fmt.Errorf("dephasing rate must be finite and non-negative, got %v", rate)
	}
	return &Walk{h: h, dephasing: rate}, nil
}

// Hamiltonian returns the generator of the walk
func (w *Walk) Hamiltonian() *hamiltonian.Hamiltonian { return w.h }

// DephasingRate returns γ
func (w *Walk) DephasingRate() float64 { return w.dephasing }

// Evolve returns exp(-iHt)|initial>.
func (w *Walk) Evolve(initial quantum.State, t float64) quantum.State {
	return w.h.Evolve(initial, t)
}

// Propagator projects initial onto the eigenbasis once so that the walk
// can be sampled at many times without repeating the projection.
func (w *Walk) Propagator(initial quantum.State) *Propagator {
	p := &Propagator{
		walk:     w,
		overlaps: w.h.ProjectOntoEigenbasis(initial),
	}
	p.average = p.timeAverage()
	return p
}

// Propagator evaluates one walk at arbitrary times.
type Propagator struct {
	walk     *Walk
	overlaps []complex128
	average  []float64
}

// Overlaps returns <k|initial> for every eigenstate k.
func (p *Propagator) Overlaps() []complex128 {
	return append([]complex128(nil), p.overlaps...)
}

// StateAt returns sum_k exp(-i E_k t) <k|initial> |k>.
func (p *Propagator) StateAt(t float64) quantum.State {
	h := p.walk.h
	energies := h.Eigenvalues()
	amps := make([]complex128, quantum.Dimension)
	for k, c := range p.overlaps {
		if c == 0 {
			continue
		}
		_, v, _ := h.Eigenstate(k)
		c *= cmplx.Exp(complex(0, -energies[k]*t))
		for i := range amps {
			amps[i] += c * v.Amplitude(i)
		}
	}
	s, err := quantum.NewState(amps, false)
	if err != nil {
		panic(err)
	}
	return s
}

// ProbabilitiesAt returns the node distribution at time t. With dephasing
// it is exp(-γt)·P_unitary(t) + (1 - exp(-γt))·TimeAverage().
func (p *Propagator) ProbabilitiesAt(t float64) []float64 {
	probs := p.StateAt(t).Probabilities()
	gamma := p.walk.dephasing
	if gamma == 0 {
		return probs
	}
	decay := math.Exp(-gamma * t)
	for i := range probs {
		probs[i] = decay*probs[i] + (1-decay)*p.average[i]
	}
	return probs
}

// TimeAverage returns the long-time (Cesàro) mean of the node distribution.
// Overlaps within a degenerate level keep their interference, so the result
// is sum over levels λ of |P_λ initial|^2, renormalized.
func (p *Propagator) TimeAverage() []float64 {
	return append([]float64(nil), p.average...)
}

func (p *Propagator) timeAverage() []float64 {
	h := p.walk.h
	energies := h.Eigenvalues()
	dist := make([]float64, quantum.Dimension)

	for start := 0; start < len(energies); {
		end := start + 1
		for end < len(energies) && energies[end]-energies[end-1] <= hamiltonian.DegeneracyTolerance {
			end++
		}

		// project onto the eigenspace spanned by levels start..end-1
		proj := make([]complex128, quantum.Dimension)
		for k := start; k < end; k++ {
			c := p.overlaps[k]
			if c == 0 {
				continue
			}
			_, v, _ := h.Eigenstate(k)
			for i := range proj {
				proj[i] += c * v.Amplitude(i)
			}
		}
		for i, a := range proj {
			dist[i] += real(a)*real(a) + imag(a)*imag(a)
		}
		start = end
	}

	if norm := floats.Sum(dist); norm > 0 {
		floats.Scale(1/norm, dist)
	}
	return dist
}
