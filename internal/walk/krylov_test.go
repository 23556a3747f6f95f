package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
)

func TestKrylovMatchesExactEvolution(t *testing.T) {
	h := hamiltonian.Default()
	initial := quantum.MustBasisState(0)

	l, err := NewLanczos(h, initial, 6, 1e-10)
	require.NoError(t, err)
	evo, err := l.Evolve(0.25)
	require.NoError(t, err)

	exact := h.Evolve(initial, 0.25)
	if f := evo.State.Fidelity(exact); f < 1-1e-10 {
		t.Errorf("Expected Krylov fidelity ~1, got %.12f", f)
	}
}

func TestKrylovFullDimensionIsExact(t *testing.T) {
	h := rampHamiltonian(t)
	initial := quantum.RandomState(3)

	l, err := NewLanczos(h, initial, quantum.Dimension, 1e-12)
	require.NoError(t, err)
	assert.LessOrEqual(t, l.Dimension(), quantum.Dimension)
	assert.Len(t, l.Basis, l.Dimension())
	assert.Len(t, l.Beta, l.Dimension()-1)

	// the basis is orthonormal
	for i, u := range l.Basis {
		for j, v := range l.Basis {
			su, _ := quantum.NewState(u, false)
			sv, _ := quantum.NewState(v, false)
			want := 0.0
			if i == j {
				want = 1
			}
			ip := su.InnerProduct(sv)
			assert.InDelta(t, want, real(ip), 1e-8, "<%d|%d>", i, j)
			assert.InDelta(t, 0, imag(ip), 1e-8, "<%d|%d>", i, j)
		}
	}

	for _, tm := range []float64{0.1, 1, 4} {
		evo, err := l.Evolve(tm)
		require.NoError(t, err)
		if f := evo.State.Fidelity(h.Evolve(initial, tm)); f < 1-1e-8 {
			t.Errorf("Expected fidelity ~1 at t=%g, got %.12f", tm, f)
		}
	}
}

func TestKrylovTruncationReportsResidual(t *testing.T) {
	h := rampHamiltonian(t)
	initial := quantum.RandomState(3)

	l, err := NewLanczos(h, initial, 2, 1e-12)
	require.NoError(t, err)
	require.Equal(t, 2, l.Dimension())

	evo, err := l.Evolve(1)
	require.NoError(t, err)
	assert.Positive(t, evo.ResidualNorm)
	assert.True(t, evo.State.IsNormalized(1e-10))

	tri := l.Tridiagonal()
	assert.Equal(t, l.Alpha[0], tri.At(0, 0))
	assert.Equal(t, l.Beta[0], tri.At(0, 1))
	assert.Equal(t, l.Beta[0], tri.At(1, 0))
}

func TestNewLanczosValidation(t *testing.T) {
	_, err := NewLanczos(hamiltonian.Default(), quantum.MustBasisState(0), 0, 1e-10)
	assert.Error(t, err)
}
