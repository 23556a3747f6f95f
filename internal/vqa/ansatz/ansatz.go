// Package ansatz implements the parametrized circuits trained by the
// variational algorithms. Every circuit is a sequence of two-level unitaries
// and diagonal phases on the 13-dimensional state space, so every circuit is
// unitary for any parameter values.
package ansatz

import (
	"fmt"
	"strings"

	"github.com/cwbudde/metatronqso/internal/quantum"
)

// Type selects a circuit family.
type Type string

const (
	HardwareEfficient Type = "hardware_efficient"
	EfficientSU2      Type = "efficient_su2"
	Metatron          Type = "metatron"
)

// ParseType accepts the canonical names plus a few common spellings.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "hardware_efficient", "hea", "hardwareefficient":
		return HardwareEfficient, nil
	case "efficient_su2", "su2", "efficientsu2":
		return EfficientSU2, nil
	case "metatron":
		return Metatron, nil
	default:
		return "", fmt.Errorf("unknown ansatz type: %s", s)
	}
}

// EntanglementStrategy selects which index pairs the Metatron ansatz entangles.
type EntanglementStrategy string

const (
	// Ring entangles each node with its successor, N gates per layer
	Ring EntanglementStrategy = "ring"
	// Full entangles every pair of nodes, N(N-1)/2 gates per layer
	Full EntanglementStrategy = "full"
)

// ParseEntanglement resolves a strategy name; empty selects Ring.
func ParseEntanglement(s string) (EntanglementStrategy, error) {
	switch EntanglementStrategy(strings.ToLower(s)) {
	case Ring, "":
		return Ring, nil
	case Full:
		return Full, nil
	default:
		return "", fmt.Errorf("unknown entanglement strategy: %s", s)
	}
}

// Ansatz is a deterministic parametrized transform of a quantum state.
type Ansatz interface {
	// Apply runs the circuit on s. The parameter count must equal
	// NumParameters(), otherwise a DimensionMismatchError is returned
	// before any gate is applied.
	Apply(s quantum.State, params []float64) (quantum.State, error)

	// NumParameters is the exact length of the parameter vector Apply consumes
	NumParameters() int

	Depth() int
	Type() Type
}

// New creates an ansatz of the given type. Metatron uses Ring entanglement;
// use NewMetatron for the Full strategy.
func New(t Type, depth int) (Ansatz, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("ansatz depth must be positive, got %d", depth)
	}
	switch t {
	case HardwareEfficient:
		return NewHardwareEfficient(depth), nil
	case EfficientSU2:
		return NewEfficientSU2(depth), nil
	case Metatron:
		return NewMetatron(depth, Ring), nil
	default:
		return nil, fmt.Errorf("unknown ansatz type: %q", t)
	}
}

// Circuit returns the full unitary implemented by a for the given
// parameters, column by column.
func Circuit(a Ansatz, params []float64) (*quantum.Operator, error) {
	if err := validate(a, params); err != nil {
		return nil, err
	}
	return quantum.Transform(func(s quantum.State) (quantum.State, error) {
		return a.Apply(s, params)
	})
}

func validate(a Ansatz, params []float64) error {
	if len(params) != a.NumParameters() {
		return &quantum.DimensionMismatchError{What: "ansatz parameter count", Expected: a.NumParameters(), Actual: len(params)}
	}
	return nil
}

// next returns the ring successor of index q.
func next(q int) int {
	return (q + 1) % quantum.Dimension
}
