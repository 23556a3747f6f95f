package hamiltonian

import (
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"gonum.org/v1/gonum/mat"
)

// DegeneracyTolerance separates distinct energy levels.
const DegeneracyTolerance = 1e-9

// Hamiltonian is an immutable real symmetric Hamiltonian together with its
// full eigendecomposition. Eigenpairs are ordered by ascending energy, so
// index 0 is always the ground state. A Hamiltonian is safe for concurrent
// use.
type Hamiltonian struct {
	matrix       *mat.SymDense
	op           *quantum.Operator
	eigenvalues  []float64
	eigenvectors []quantum.State
}

// SpectrumInfo summarizes the energy spectrum.
type SpectrumInfo struct {
	Eigenvalues       []float64 `json:"eigenvalues"`
	GroundStateEnergy float64   `json:"groundStateEnergy"`
	// EnergyGap is the distance from the ground energy to the next distinct level
	EnergyGap    float64 `json:"energyGap"`
	MaxEnergy    float64 `json:"maxEnergy"`
	EnergySpread float64 `json:"energySpread"`
}

// New builds H = -J·L + diag(Epsilon) from the graph Laplacian.
func New(g *graph.Graph, params Parameters) (*Hamiltonian, error) {
	if g.NodeCount() != quantum.Dimension {
		return nil, &quantum.DimensionMismatchError{What: "graph node count", Expected: quantum.Dimension, Actual: g.NodeCount()}
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hamiltonian parameters: %w", err)
	}

	h := mat.NewSymDense(quantum.Dimension, nil)
	h.ScaleSym(-params.J, g.Laplacian())
	for i, e := range params.Epsilon {
		h.SetSym(i, i, h.At(i, i)+e)
	}
	return FromMatrix(h)
}

// NewMetatron builds the Hamiltonian of the Metatron Cube.
func NewMetatron(params Parameters) (*Hamiltonian, error) {
	return New(graph.NewMetatron().Graph, params)
}

// Default returns the Metatron Hamiltonian with DefaultParameters.
func Default() *Hamiltonian {
	h, err := NewMetatron(DefaultParameters())
	if err != nil {
		panic(err)
	}
	return h
}

// FromMatrix diagonalizes an arbitrary real symmetric matrix.
func FromMatrix(m mat.Symmetric) (*Hamiltonian, error) {
	if m.SymmetricDim() != quantum.Dimension {
		return nil, &quantum.DimensionMismatchError{What: "hamiltonian size", Expected: quantum.Dimension, Actual: m.SymmetricDim()}
	}

	matrix := mat.NewSymDense(quantum.Dimension, nil)
	matrix.CopySym(m)

	var eig mat.EigenSym
	if ok := eig.Factorize(matrix, true); !ok {
		return nil, fmt.Errorf("eigendecomposition did not converge")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// The solver's ordering is not part of its contract; sort explicitly.
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	h := &Hamiltonian{
		matrix:       matrix,
		eigenvalues:  make([]float64, len(values)),
		eigenvectors: make([]quantum.State, len(values)),
	}
	for k, col := range order {
		h.eigenvalues[k] = values[col]
		amps := make([]complex128, quantum.Dimension)
		for row := 0; row < quantum.Dimension; row++ {
			amps[row] = complex(vectors.At(row, col), 0)
		}
		state, err := quantum.NewState(amps, true)
		if err != nil {
			return nil, fmt.Errorf("eigenvector %d: %w", k, err)
		}
		h.eigenvectors[k] = state
	}

	op, err := quantum.FromReal(matrix)
	if err != nil {
		return nil, err
	}
	h.op = op
	return h, nil
}

// Matrix returns the Hamiltonian as an operator.
func (h *Hamiltonian) Matrix() *quantum.Operator {
	return h.op
}

// Dense returns a copy of the real symmetric matrix.
func (h *Hamiltonian) Dense() *mat.SymDense {
	out := mat.NewSymDense(quantum.Dimension, nil)
	out.CopySym(h.matrix)
	return out
}

// Eigenvalues returns the energies in ascending order.
func (h *Hamiltonian) Eigenvalues() []float64 {
	out := make([]float64, len(h.eigenvalues))
	copy(out, h.eigenvalues)
	return out
}

// GroundStateEnergy returns the smallest eigenvalue.
func (h *Hamiltonian) GroundStateEnergy() float64 {
	return h.eigenvalues[0]
}

// GroundState returns the eigenvector of the smallest eigenvalue.
func (h *Hamiltonian) GroundState() quantum.State {
	return h.eigenvectors[0]
}

// Eigenstate returns the i-th eigenpair in ascending energy order.
func (h *Hamiltonian) Eigenstate(i int) (float64, quantum.State, error) {
	if i < 0 || i >= len(h.eigenvalues) {
		return 0, quantum.State{}, &quantum.DimensionMismatchError{What: "eigenstate index", Expected: len(h.eigenvalues), Actual: i}
	}
	return h.eigenvalues[i], h.eigenvectors[i], nil
}

// FirstExcitedEnergy returns the lowest level strictly above the ground
// energy, skipping degenerate copies of the ground level. When the spectrum
// is fully degenerate it returns the ground energy.
func (h *Hamiltonian) FirstExcitedEnergy() float64 {
	ground := h.eigenvalues[0]
	for _, e := range h.eigenvalues[1:] {
		if e-ground > DegeneracyTolerance {
			return e
		}
	}
	return ground
}

// SpectrumInfo derives spectral diagnostics for reporting.
func (h *Hamiltonian) SpectrumInfo() SpectrumInfo {
	ground := h.eigenvalues[0]
	maxE := h.eigenvalues[len(h.eigenvalues)-1]
	return SpectrumInfo{
		Eigenvalues:       h.Eigenvalues(),
		GroundStateEnergy: ground,
		EnergyGap:         h.FirstExcitedEnergy() - ground,
		MaxEnergy:         maxE,
		EnergySpread:      maxE - ground,
	}
}

// ExpectationValue returns Re<psi|H|psi>.
func (h *Hamiltonian) ExpectationValue(s quantum.State) float64 {
	return real(s.ExpectationValue(h.op))
}

// ProjectOntoEigenbasis returns the coefficients <k|psi> for every eigenstate.
func (h *Hamiltonian) ProjectOntoEigenbasis(s quantum.State) []complex128 {
	coeffs := make([]complex128, len(h.eigenvectors))
	for k, v := range h.eigenvectors {
		coeffs[k] = v.InnerProduct(s)
	}
	return coeffs
}

// TimeEvolutionOperator returns U(t) = exp(-iHt) = sum_k exp(-i E_k t) |k><k|.
func (h *Hamiltonian) TimeEvolutionOperator(t float64) *quantum.Operator {
	rows := make([][]complex128, quantum.Dimension)
	for i := range rows {
		rows[i] = make([]complex128, quantum.Dimension)
	}
	for k, v := range h.eigenvectors {
		phase := cmplx.Exp(complex(0, -h.eigenvalues[k]*t))
		for i := 0; i < quantum.Dimension; i++ {
			vi := v.Amplitude(i)
			if vi == 0 {
				continue
			}
			for j := 0; j < quantum.Dimension; j++ {
				rows[i][j] += phase * vi * cmplx.Conj(v.Amplitude(j))
			}
		}
	}
	op, err := quantum.NewOperator(rows)
	if err != nil {
		panic(err)
	}
	return op
}

// Evolve returns exp(-iHt)|psi> using the eigenbasis directly.
func (h *Hamiltonian) Evolve(s quantum.State, t float64) quantum.State {
	out := make([]complex128, quantum.Dimension)
	for k, c := range h.ProjectOntoEigenbasis(s) {
		if c == 0 {
			continue
		}
		c *= cmplx.Exp(complex(0, -h.eigenvalues[k]*t))
		v := h.eigenvectors[k]
		for i := range out {
			out[i] += c * v.Amplitude(i)
		}
	}
	evolved, err := quantum.NewState(out, false)
	if err != nil {
		panic(err)
	}
	return evolved
}

// IsDegenerateGround reports whether more than one eigenstate shares the
// ground energy.
func (h *Hamiltonian) IsDegenerateGround() bool {
	return len(h.eigenvalues) > 1 && h.eigenvalues[1]-h.eigenvalues[0] <= DegeneracyTolerance
}
