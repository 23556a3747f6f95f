package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dimension is the size of the Hilbert space, one basis state per graph node.
const Dimension = 13

// NormTolerance is the default tolerance for normalization checks.
const NormTolerance = 1e-10

// State is an immutable quantum state vector over Dimension basis states.
// Every transform returns a new State; the zero value has zero norm and is
// only useful as a placeholder.
type State struct {
	amps [Dimension]complex128
}

// NewState builds a state from exactly Dimension amplitudes.
// With normalize set the amplitudes are rescaled to unit norm.
func NewState(amps []complex128, normalize bool) (State, error) {
	if len(amps) != Dimension {
		return State{}, &DimensionMismatchError{What: "amplitude count", Expected: Dimension, Actual: len(amps)}
	}

	var s State
	copy(s.amps[:], amps)

	if normalize {
		n := s.Norm()
		if n == 0 {
			return State{}, &ZeroNormError{Op: "normalize"}
		}
		cmplxs.Scale(complex(1/n, 0), s.amps[:])
	}
	return s, nil
}

// BasisState returns |index>.
func BasisState(index int) (State, error) {
	if index < 0 || index >= Dimension {
		return State{}, &DimensionMismatchError{What: "basis index", Expected: Dimension, Actual: index}
	}
	var s State
	s.amps[index] = 1
	return s, nil
}

// MustBasisState is like BasisState but panics on an out-of-range index.
func MustBasisState(index int) State {
	s, err := BasisState(index)
	if err != nil {
		panic(err)
	}
	return s
}

// UniformSuperposition returns the state with every amplitude equal to 1/sqrt(N).
func UniformSuperposition() State {
	var s State
	a := complex(1/math.Sqrt(Dimension), 0)
	for i := range s.amps {
		s.amps[i] = a
	}
	return s
}

// RandomState draws real and imaginary parts of every amplitude from a
// standard normal distribution and normalizes. The same seed always yields
// the same state.
func RandomState(seed uint64) State {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}

	var s State
	for i := range s.amps {
		s.amps[i] = complex(normal.Rand(), normal.Rand())
	}

	n := s.Norm()
	if n == 0 {
		return MustBasisState(0)
	}
	cmplxs.Scale(complex(1/n, 0), s.amps[:])
	return s
}

// Amplitudes returns a copy of the amplitude vector.
func (s State) Amplitudes() []complex128 {
	out := make([]complex128, Dimension)
	copy(out, s.amps[:])
	return out
}

// Amplitude returns the amplitude of basis state i. The index must lie in
// [0, Dimension); otherwise Amplitude panics with a *DimensionMismatchError.
func (s State) Amplitude(i int) complex128 {
	mustIndex("amplitude index", i)
	return s.amps[i]
}

func mustIndex(what string, i int) {
	if i < 0 || i >= Dimension {
		panic(&DimensionMismatchError{What: what, Expected: Dimension, Actual: i})
	}
}

// Norm returns sqrt(<psi|psi>).
func (s State) Norm() float64 {
	return math.Sqrt(real(cmplxs.Dot(s.amps[:], s.amps[:])))
}

// IsNormalized reports whether |norm - 1| < tol.
func (s State) IsNormalized(tol float64) bool {
	return math.Abs(s.Norm()-1) < tol
}

// Normalized returns a unit-norm copy of the state.
func (s State) Normalized() (State, error) {
	return NewState(s.amps[:], true)
}

// Probabilities returns the Born-rule probability of every basis state.
func (s State) Probabilities() []float64 {
	probs := make([]float64, Dimension)
	for i, a := range s.amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// ProbabilityAt returns |a_i|^2 for a single node. Like Amplitude it panics
// on an index outside [0, Dimension).
func (s State) ProbabilityAt(i int) float64 {
	mustIndex("probability index", i)
	a := s.amps[i]
	return real(a)*real(a) + imag(a)*imag(a)
}

// InnerProduct returns <s|other>, conjugating the receiver.
func (s State) InnerProduct(other State) complex128 {
	return cmplxs.Dot(s.amps[:], other.amps[:])
}

// Fidelity returns |<s|other>|^2.
func (s State) Fidelity(other State) float64 {
	ip := s.InnerProduct(other)
	return real(ip)*real(ip) + imag(ip)*imag(ip)
}

// Apply returns op|s>. The result is not renormalized.
func (s State) Apply(op *Operator) State {
	var out State
	for i := 0; i < Dimension; i++ {
		var sum complex128
		for j := 0; j < Dimension; j++ {
			sum += op.m[i][j] * s.amps[j]
		}
		out.amps[i] = sum
	}
	return out
}

// ExpectationValue returns <s|op|s>. Its real part is the observable mean
// for Hermitian operators.
func (s State) ExpectationValue(op *Operator) complex128 {
	return s.InnerProduct(s.Apply(op))
}

// Measure samples a basis index according to the Born rule and returns it
// together with the collapsed basis state. The receiver is never modified.
func (s State) Measure(src rand.Source) (int, State, error) {
	probs := s.Probabilities()
	var total float64
	for _, p := range probs {
		total += p
	}
	if total == 0 {
		return 0, s, &ZeroNormError{Op: "measure"}
	}

	idx := int(distuv.NewCategorical(probs, src).Rand())
	return idx, MustBasisState(idx), nil
}

// String formats the state as a list of amplitudes.
func (s State) String() string {
	out := "["
	for i, a := range s.amps {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%.4f%+.4fi", real(a), imag(a))
	}
	return out + "]"
}

// IsFinite reports whether every amplitude is finite.
func (s State) IsFinite() bool {
	for _, a := range s.amps {
		if cmplx.IsNaN(a) || cmplx.IsInf(a) {
			return false
		}
	}
	return true
}

// ApplyTwoLevel applies the 2x2 matrix u to the subspace spanned by |i> and
// |j>, leaving every other amplitude untouched. For unitary u the result is
// a unitary transform of the full space.
func (s State) ApplyTwoLevel(i, j int, u [2][2]complex128) State {
	out := s
	a, b := s.amps[i], s.amps[j]
	out.amps[i] = u[0][0]*a + u[0][1]*b
	out.amps[j] = u[1][0]*a + u[1][1]*b
	return out
}

// ApplyPhases multiplies amplitude k by phases[k].
func (s State) ApplyPhases(phases *[Dimension]complex128) State {
	out := s
	for k := range out.amps {
		out.amps[k] *= phases[k]
	}
	return out
}
