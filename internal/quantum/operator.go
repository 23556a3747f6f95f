package quantum

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Operator is a dense Dimension x Dimension complex matrix acting on states.
// Operators are treated as immutable once built; all methods return new values.
type Operator struct {
	m [Dimension][Dimension]complex128
}

// Identity returns the identity operator.
func Identity() *Operator {
	op := &Operator{}
	for i := 0; i < Dimension; i++ {
		op.m[i][i] = 1
	}
	return op
}

// NewOperator builds an operator from row-major entries.
func NewOperator(rows [][]complex128) (*Operator, error) {
	if len(rows) != Dimension {
		return nil, &DimensionMismatchError{What: "operator rows", Expected: Dimension, Actual: len(rows)}
	}
	op := &Operator{}
	for i, row := range rows {
		if len(row) != Dimension {
			return nil, &DimensionMismatchError{What: fmt.Sprintf("operator row %d", i), Expected: Dimension, Actual: len(row)}
		}
		copy(op.m[i][:], row)
	}
	return op, nil
}

// FromReal converts a real Dimension x Dimension gonum matrix.
func FromReal(a mat.Matrix) (*Operator, error) {
	r, c := a.Dims()
	if r != Dimension || c != Dimension {
		return nil, &DimensionMismatchError{What: "operator size", Expected: Dimension, Actual: r}
	}
	op := &Operator{}
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			op.m[i][j] = complex(a.At(i, j), 0)
		}
	}
	return op, nil
}

// FromPermutation returns the operator mapping |i> to |perm[i]>.
func FromPermutation(perm []int) (*Operator, error) {
	if len(perm) != Dimension {
		return nil, &DimensionMismatchError{What: "permutation length", Expected: Dimension, Actual: len(perm)}
	}
	seen := make([]bool, Dimension)
	op := &Operator{}
	for i, target := range perm {
		if target < 0 || target >= Dimension || seen[target] {
			return nil, fmt.Errorf("%w: entry %d maps to %d", ErrInvalidPermutation, i, target)
		}
		seen[target] = true
		op.m[target][i] = 1
	}
	return op, nil
}

// Diagonal returns the diagonal operator with the given entries.
func Diagonal(d []complex128) (*Operator, error) {
	if len(d) != Dimension {
		return nil, &DimensionMismatchError{What: "diagonal length", Expected: Dimension, Actual: len(d)}
	}
	op := &Operator{}
	for i, v := range d {
		op.m[i][i] = v
	}
	return op, nil
}

// At returns the entry at row i, column j.
func (o *Operator) At(i, j int) complex128 {
	return o.m[i][j]
}

// Compose returns o * other, i.e. other is applied first.
func (o *Operator) Compose(other *Operator) *Operator {
	out := &Operator{}
	for i := 0; i < Dimension; i++ {
		for k := 0; k < Dimension; k++ {
			a := o.m[i][k]
			if a == 0 {
				continue
			}
			for j := 0; j < Dimension; j++ {
				out.m[i][j] += a * other.m[k][j]
			}
		}
	}
	return out
}

// Adjoint returns the conjugate transpose.
func (o *Operator) Adjoint() *Operator {
	out := &Operator{}
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			out.m[j][i] = cmplx.Conj(o.m[i][j])
		}
	}
	return out
}

// Scale returns c * o.
func (o *Operator) Scale(c complex128) *Operator {
	out := &Operator{}
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			out.m[i][j] = c * o.m[i][j]
		}
	}
	return out
}

// Trace returns the sum of the diagonal entries.
func (o *Operator) Trace() complex128 {
	var t complex128
	for i := 0; i < Dimension; i++ {
		t += o.m[i][i]
	}
	return t
}

// IsUnitary reports whether o†o equals the identity within tol, entrywise.
func (o *Operator) IsUnitary(tol float64) bool {
	p := o.Adjoint().Compose(o)
	for i := 0; i < Dimension; i++ {
		for j := 0; j < Dimension; j++ {
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(p.m[i][j]-want) > tol {
				return false
			}
		}
	}
	return true
}

// IsHermitian reports whether o equals its adjoint within tol.
func (o *Operator) IsHermitian(tol float64) bool {
	for i := 0; i < Dimension; i++ {
		for j := i; j < Dimension; j++ {
			if cmplx.Abs(o.m[i][j]-cmplx.Conj(o.m[j][i])) > tol {
				return false
			}
		}
	}
	return true
}

// TwoLevel embeds the 2x2 matrix u on indices i and j into an identity.
func TwoLevel(i, j int, u [2][2]complex128) (*Operator, error) {
	if i < 0 || i >= Dimension || j < 0 || j >= Dimension {
		return nil, &DimensionMismatchError{What: "two-level index", Expected: Dimension, Actual: max(i, j)}
	}
	if i == j {
		return nil, fmt.Errorf("two-level gate needs distinct indices, got %d twice", i)
	}
	op := Identity()
	op.m[i][i] = u[0][0]
	op.m[i][j] = u[0][1]
	op.m[j][i] = u[1][0]
	op.m[j][j] = u[1][1]
	return op, nil
}

// FromColumns builds the operator whose k-th column is the image of |k>.
func FromColumns(cols []State) (*Operator, error) {
	if len(cols) != Dimension {
		return nil, &DimensionMismatchError{What: "column count", Expected: Dimension, Actual: len(cols)}
	}
	op := &Operator{}
	for k, c := range cols {
		for i := 0; i < Dimension; i++ {
			op.m[i][k] = c.amps[i]
		}
	}
	return op, nil
}

// Transform returns the operator obtained by applying fn to every basis
// state. fn must be linear.
func Transform(fn func(State) (State, error)) (*Operator, error) {
	cols := make([]State, Dimension)
	for k := 0; k < Dimension; k++ {
		out, err := fn(MustBasisState(k))
		if err != nil {
			return nil, err
		}
		cols[k] = out
	}
	return FromColumns(cols)
}
