package hamiltonian

import (
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rampParameters gives every node a distinct potential so the spectrum is
// non-degenerate.
func rampParameters() Parameters {
	p := DefaultParameters()
	for i := range p.Epsilon {
		p.Epsilon[i] = 0.1 * float64(i)
	}
	return p
}

func TestEigenvaluesAscending(t *testing.T) {
	for _, params := range []Parameters{DefaultParameters(), rampParameters()} {
		h, err := NewMetatron(params)
		require.NoError(t, err)

		ev := h.Eigenvalues()
		for i := 1; i < len(ev); i++ {
			if ev[i] < ev[i-1] {
				t.Errorf("Eigenvalues not ascending at %d: %f < %f", i, ev[i], ev[i-1])
			}
		}
	}
}

func TestGroundStateIsEigenvector(t *testing.T) {
	h, err := NewMetatron(rampParameters())
	require.NoError(t, err)

	v := h.GroundState()
	hv := v.Apply(h.Matrix())
	e := h.GroundStateEnergy()
	for i := 0; i < quantum.Dimension; i++ {
		diff := cmplx.Abs(hv.Amplitude(i) - complex(e, 0)*v.Amplitude(i))
		if diff > 1e-8 {
			t.Errorf("Component %d: |Hv - Ev| = %e", i, diff)
		}
	}
	assert.True(t, v.IsNormalized(1e-10))
}

func TestMetatronDefaultSpectrum(t *testing.T) {
	// The Metatron Cube is complete, so -L has eigenvalue -13 (12-fold)
	// and 0 for the uniform state.
	h := Default()

	ev := h.Eigenvalues()
	for i := 0; i < 12; i++ {
		assert.InDelta(t, -13.0, ev[i], 1e-9)
	}
	assert.InDelta(t, 0.0, ev[12], 1e-9)

	info := h.SpectrumInfo()
	assert.InDelta(t, -13.0, info.GroundStateEnergy, 1e-9)
	assert.InDelta(t, 13.0, info.EnergyGap, 1e-9)
	assert.InDelta(t, 13.0, info.EnergySpread, 1e-9)
	assert.InDelta(t, 0.0, info.MaxEnergy, 1e-9)
	assert.True(t, h.IsDegenerateGround())
	assert.InDelta(t, 0.0, h.FirstExcitedEnergy(), 1e-9)

	assert.InDelta(t, 0.0, h.ExpectationValue(quantum.UniformSuperposition()), 1e-9)
	assert.InDelta(t, -13.0, h.ExpectationValue(quantum.MustBasisState(0))*13/12, 1e-9)
}

func TestEigenstateOutOfRange(t *testing.T) {
	h := Default()
	_, _, err := h.Eigenstate(quantum.Dimension)
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)

	e, s, err := h.Eigenstate(3)
	require.NoError(t, err)
	assert.Equal(t, h.Eigenvalues()[3], e)
	assert.True(t, s.IsNormalized(1e-10))
}

func TestTimeEvolution(t *testing.T) {
	h, err := NewMetatron(rampParameters())
	require.NoError(t, err)

	u0 := h.TimeEvolutionOperator(0)
	for i := 0; i < quantum.Dimension; i++ {
		for j := 0; j < quantum.Dimension; j++ {
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(u0.At(i, j)-want) > 1e-10 {
				t.Fatalf("U(0) entry (%d,%d) = %v, expected %v", i, j, u0.At(i, j), want)
			}
		}
	}

	u := h.TimeEvolutionOperator(0.7)
	assert.True(t, u.IsUnitary(1e-10))

	psi := quantum.RandomState(5)
	viaOperator := psi.Apply(u)
	viaEigenbasis := h.Evolve(psi, 0.7)
	for i := 0; i < quantum.Dimension; i++ {
		assert.InDelta(t, 0.0, cmplx.Abs(viaOperator.Amplitude(i)-viaEigenbasis.Amplitude(i)), 1e-10)
	}
	assert.True(t, viaEigenbasis.IsNormalized(1e-10))
}

func TestEvolvingEigenstateOnlyChangesPhase(t *testing.T) {
	h, err := NewMetatron(rampParameters())
	require.NoError(t, err)

	ground := h.GroundState()
	evolved := h.Evolve(ground, 2.5)
	assert.InDelta(t, 1.0, ground.Fidelity(evolved), 1e-10)
}

func TestProjectOntoEigenbasisIsComplete(t *testing.T) {
	h, err := NewMetatron(rampParameters())
	require.NoError(t, err)

	var total float64
	for _, c := range h.ProjectOntoEigenbasis(quantum.RandomState(9)) {
		total += real(c)*real(c) + imag(c)*imag(c)
	}
	assert.InDelta(t, 1.0, total, 1e-10)
}

func TestNewRejectsWrongGraphSize(t *testing.T) {
	g, err := graph.FromEdges(3, [][2]int{{0, 1}, {1, 2}})
	require.NoError(t, err)

	_, err = New(g, DefaultParameters())
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)
}

func TestFromMatrixDiagonal(t *testing.T) {
	m := mat.NewSymDense(quantum.Dimension, nil)
	for i := 0; i < quantum.Dimension; i++ {
		m.SetSym(i, i, float64(quantum.Dimension-i))
	}
	h, err := FromMatrix(m)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, h.GroundStateEnergy(), 1e-12)
	assert.InDelta(t, 1.0, h.GroundState().ProbabilityAt(quantum.Dimension-1), 1e-12)
	assert.False(t, h.IsDegenerateGround())
}

func TestParametersValidate(t *testing.T) {
	p := DefaultParameters()
	require.NoError(t, p.Validate())

	p.Epsilon = p.Epsilon[:5]
	require.ErrorIs(t, p.Validate(), quantum.ErrDimensionMismatch)

	p = DefaultParameters()
	p.J = math.NaN()
	assert.Error(t, p.Validate())

	p = DefaultParameters()
	p.DephasingRate = -1
	assert.Error(t, p.Validate())
}

func TestLoadParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	content := `j: 2.0
epsilon: [0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1, 1.2]
kappa: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.J)
	assert.Equal(t, 0.5, p.Kappa)
	assert.InDelta(t, 1.2, p.Epsilon[12], 1e-12)
	assert.Len(t, p.Omega, quantum.Dimension)

	_, err = LoadParameters(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadParametersRejectsShortEpsilon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epsilon: [1, 2]\n"), 0644))

	_, err := LoadParameters(path)
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)
}
