package ansatz

import (
	"math"

	"github.com/cwbudde/metatronqso/internal/quantum"
)

// HardwareEfficientAnsatz alternates RY and RZ rotations on every ring pair
// (q, q+1 mod N) with a ring of XX entanglers. The entangler on pair q uses
// half of the layer's RY angle for q, so a layer has 2N parameters.
type HardwareEfficientAnsatz struct {
	depth int
}

// NewHardwareEfficient creates a hardware-efficient ansatz.
func NewHardwareEfficient(depth int) *HardwareEfficientAnsatz {
	return &HardwareEfficientAnsatz{depth: depth}
}

func (a *HardwareEfficientAnsatz) Apply(s quantum.State, params []float64) (quantum.State, error) {
	if err := validate(a, params); err != nil {
		return quantum.State{}, err
	}

	const n = quantum.Dimension
	for layer := 0; layer < a.depth; layer++ {
		p := params[layer*2*n : (layer+1)*2*n]

		for q := 0; q < n; q++ {
			s = s.ApplyTwoLevel(q, next(q), ry(p[q]))
		}
		for q := 0; q < n; q++ {
			s = s.ApplyTwoLevel(q, next(q), rz(p[n+q]))
		}
		for q := 0; q < n; q++ {
			s = s.ApplyTwoLevel(q, next(q), xx(0.5*p[q]))
		}
	}
	return s, nil
}

func (a *HardwareEfficientAnsatz) NumParameters() int { return 2 * quantum.Dimension * a.depth }
func (a *HardwareEfficientAnsatz) Depth() int         { return a.depth }
func (a *HardwareEfficientAnsatz) Type() Type         { return HardwareEfficient }

// EfficientSU2Ansatz applies a three-angle SU(2) block to every ring pair,
// followed by a ring of fixed pi/4 entanglers. A layer has 3N parameters.
type EfficientSU2Ansatz struct {
	depth int
}

// NewEfficientSU2 creates an EfficientSU2 ansatz.
func NewEfficientSU2(depth int) *EfficientSU2Ansatz {
	return &EfficientSU2Ansatz{depth: depth}
}

func (a *EfficientSU2Ansatz) Apply(s quantum.State, params []float64) (quantum.State, error) {
	if err := validate(a, params); err != nil {
		return quantum.State{}, err
	}

	const n = quantum.Dimension
	entangler := xx(math.Pi / 4)
	for layer := 0; layer < a.depth; layer++ {
		p := params[layer*3*n : (layer+1)*3*n]

		for q := 0; q < n; q++ {
			s = s.ApplyTwoLevel(q, next(q), su2(p[3*q], p[3*q+1], p[3*q+2]))
		}
		for q := 0; q < n; q++ {
			s = s.ApplyTwoLevel(q, next(q), entangler)
		}
	}
	return s, nil
}

func (a *EfficientSU2Ansatz) NumParameters() int { return 3 * quantum.Dimension * a.depth }
func (a *EfficientSU2Ansatz) Depth() int         { return a.depth }
func (a *EfficientSU2Ansatz) Type() Type         { return EfficientSU2 }
