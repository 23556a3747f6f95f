package quantum

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestIdentityProperties(t *testing.T) {
	id := Identity()

	if !id.IsUnitary(1e-12) {
		t.Error("Identity should be unitary")
	}
	if !id.IsHermitian(1e-12) {
		t.Error("Identity should be Hermitian")
	}
	if tr := id.Trace(); tr != complex(Dimension, 0) {
		t.Errorf("Expected trace %d, got %v", Dimension, tr)
	}
}

func TestPermutationIsUnitary(t *testing.T) {
	perm := []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	op, err := FromPermutation(perm)
	require.NoError(t, err)

	assert.True(t, op.IsUnitary(1e-12))
	assert.True(t, op.IsHermitian(1e-12))
}

func TestFromPermutationRejectsDuplicates(t *testing.T) {
	perm := make([]int, Dimension)
	_, err := FromPermutation(perm)
	require.ErrorIs(t, err, ErrInvalidPermutation)

	_, err = FromPermutation([]int{0, 1})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestComposeWithIdentity(t *testing.T) {
	perm := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 0}
	op, err := FromPermutation(perm)
	require.NoError(t, err)

	left := Identity().Compose(op)
	right := op.Compose(Identity())
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			if left.At(i, j) != op.At(i, j) || right.At(i, j) != op.At(i, j) {
				t.Fatalf("Compose with identity changed entry (%d,%d)", i, j)
			}
		}
	}
}

func TestComposeOrder(t *testing.T) {
	// other applied first: (A*B)|s> == A(B|s>)
	a, err := FromPermutation([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 0})
	require.NoError(t, err)
	d := make([]complex128, Dimension)
	for i := range d {
		d[i] = cmplx.Exp(complex(0, float64(i)))
	}
	b, err := Diagonal(d)
	require.NoError(t, err)

	s := RandomState(11)
	viaCompose := s.Apply(a.Compose(b))
	stepwise := s.Apply(b).Apply(a)
	for i := 0; i < Dimension; i++ {
		assert.InDelta(t, 0.0, cmplx.Abs(viaCompose.Amplitude(i)-stepwise.Amplitude(i)), 1e-12)
	}
}

func TestAdjointOfDiagonalPhase(t *testing.T) {
	d := make([]complex128, Dimension)
	for i := range d {
		d[i] = cmplx.Exp(complex(0, 0.1*float64(i)))
	}
	op, err := Diagonal(d)
	require.NoError(t, err)

	assert.True(t, op.IsUnitary(1e-12))
	assert.False(t, op.IsHermitian(1e-6))
	for i := 0; i < Dimension; i++ {
		assert.Equal(t, cmplx.Conj(d[i]), op.Adjoint().At(i, i))
	}
}

func TestFromRealRejectsWrongSize(t *testing.T) {
	_, err := FromReal(mat.NewDense(3, 3, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	op, err := FromReal(mat.NewDiagDense(Dimension, nil))
	require.NoError(t, err)
	assert.Equal(t, complex(0, 0), op.Trace())
}

func TestTransformRebuildsOperator(t *testing.T) {
	perm := []int{3, 0, 1, 2, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	want, err := FromPermutation(perm)
	require.NoError(t, err)

	got, err := Transform(func(s State) (State, error) { return s.Apply(want), nil })
	require.NoError(t, err)
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			if got.At(i, j) != want.At(i, j) {
				t.Fatalf("Entry (%d,%d): expected %v, got %v", i, j, want.At(i, j), got.At(i, j))
			}
		}
	}
}
