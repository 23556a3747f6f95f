package walk

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
)

// Lanczos holds an orthonormal Krylov basis of H from a start vector and
// the tridiagonal projection of H onto it.
type Lanczos struct {
	Basis [][]complex128
	Alpha []float64
	Beta  []float64

	// next is the coupling out of the subspace; zero when it is invariant
	next float64
}

// NewLanczos builds at most dimension Krylov vectors. The recursion stops
// early once the next coupling drops below tol, in which case the subspace
// is invariant and Evolve is exact.
func NewLanczos(h *hamiltonian.Hamiltonian, initial quantum.State, dimension int, tol float64) (*Lanczos, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("krylov dimension must be at least 1, got %d", dimension)
	}
	dimension = min(dimension, quantum.Dimension)

	current := initial.Amplitudes()
	if n := cmplxs.Norm(current, 2); n > 0 {
		cmplxs.Scale(complex(1/n, 0), current)
	} else {
		current = quantum.MustBasisState(0).Amplitudes()
	}

	l := &Lanczos{Basis: [][]complex128{current}}
	var previous []complex128
	var previousBeta float64

	for {
		w, err := apply(h, current)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			cmplxs.AddScaled(w, complex(-previousBeta, 0), previous)
		}
		alpha := real(cmplxs.Dot(current, w))
		cmplxs.AddScaled(w, complex(-alpha, 0), current)
		l.Alpha = append(l.Alpha, alpha)

		// full reorthogonalization keeps the basis orthonormal in floating point
		for _, b := range l.Basis {
			cmplxs.AddScaled(w, -cmplxs.Dot(b, w), b)
		}

		beta := cmplxs.Norm(w, 2)
		if beta < tol {
			return l, nil
		}
		if len(l.Alpha) == dimension {
			l.next = beta
			return l, nil
		}

		cmplxs.Scale(complex(1/beta, 0), w)
		l.Beta = append(l.Beta, beta)
		previous, current, previousBeta = current, w, beta
		l.Basis = append(l.Basis, current)
	}
}

func apply(h *hamiltonian.Hamiltonian, v []complex128) ([]complex128, error) {
	s, err := quantum.NewState(v, false)
	if err != nil {
		return nil, err
	}
	return s.Apply(h.Matrix()).Amplitudes(), nil
}

// Dimension is the size of the Krylov subspace actually built.
func (l *Lanczos) Dimension() int { return len(l.Alpha) }

// Tridiagonal returns T with Alpha on the diagonal and Beta beside it.
func (l *Lanczos) Tridiagonal() *mat.SymDense {
	m := l.Dimension()
	t := mat.NewSymDense(m, nil)
	for i, a := range l.Alpha {
		t.SetSym(i, i, a)
	}
	for i, b := range l.Beta {
		t.SetSym(i, i+1, b)
	}
	return t
}

// KrylovEvolution is an approximate exp(-iHt)|initial>.
type KrylovEvolution struct {
	State quantum.State
	// ResidualNorm estimates the error from truncating the subspace
	ResidualNorm float64
}

// Evolve computes V·exp(-iTt)·e1 and maps it back to the full space.
func (l *Lanczos) Evolve(t float64) (*KrylovEvolution, error) {
	m := l.Dimension()
	var eig mat.EigenSym
	if ok := eig.Factorize(l.Tridiagonal(), true); !ok {
		return nil, fmt.Errorf("krylov eigendecomposition did not converge")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	rotated := make([]complex128, m)
	for k, e := range values {
		weight := complex(vectors.At(0, k), 0) * cmplx.Exp(complex(0, -e*t))
		for i := range rotated {
			rotated[i] += weight * complex(vectors.At(i, k), 0)
		}
	}

	amps := make([]complex128, quantum.Dimension)
	for i, c := range rotated {
		cmplxs.AddScaled(amps, c, l.Basis[i])
	}
	s, err := quantum.NewState(amps, true)
	if err != nil {
		return nil, err
	}
	return &KrylovEvolution{
		State:        s,
		ResidualNorm: l.next * cmplx.Abs(rotated[m-1]),
	}, nil
}
