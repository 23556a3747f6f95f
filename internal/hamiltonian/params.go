package hamiltonian

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/metatronqso/internal/quantum"
	"gopkg.in/yaml.v3"
)

// Parameters configures the Metatron Hamiltonian and the surrounding
// dynamics. Omega, Kappa and DephasingRate are carried for collaborators;
// the Hamiltonian itself only reads J and Epsilon.
type Parameters struct {
	// J is the coupling constant multiplying the graph Laplacian
	J float64 `yaml:"j" json:"j"`

	// Epsilon holds the on-site potentials, one per node
	Epsilon []float64 `yaml:"epsilon" json:"epsilon"`

	// Omega holds the intrinsic resonator frequencies (unused by H)
	Omega []float64 `yaml:"omega" json:"omega"`

	// Kappa is the mixer coupling strength
	Kappa float64 `yaml:"kappa" json:"kappa"`

	// DephasingRate is 0 for purely unitary dynamics
	DephasingRate float64 `yaml:"dephasing_rate" json:"dephasingRate"`
}

// DefaultParameters returns J=1, zero potentials and frequencies, Kappa=1.
func DefaultParameters() Parameters {
	return Parameters{
		J:             1.0,
		Epsilon:       make([]float64, quantum.Dimension),
		Omega:         make([]float64, quantum.Dimension),
		Kappa:         1.0,
		DephasingRate: 0,
	}
}

// Validate checks array lengths and finiteness.
func (p Parameters) Validate() error {
	if math.IsNaN(p.J) || math.IsInf(p.J, 0) {
		return fmt.Errorf("coupling j must be finite, got %v", p.J)
	}
	if len(p.Epsilon) != quantum.Dimension {
		return &quantum.DimensionMismatchError{What: "epsilon length", Expected: quantum.Dimension, Actual: len(p.Epsilon)}
	}
	if len(p.Omega) != 0 && len(p.Omega) != quantum.Dimension {
		return &quantum.DimensionMismatchError{What: "omega length", Expected: quantum.Dimension, Actual: len(p.Omega)}
	}
	for i, e := range p.Epsilon {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("epsilon[%d] must be finite, got %v", i, e)
		}
	}
	if p.DephasingRate < 0 {
		return fmt.Errorf("dephasing rate cannot be negative, got %v", p.DephasingRate)
	}
	return nil
}

// LoadParameters reads parameters from a YAML file. Fields missing from the
// file keep their default values.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params := DefaultParameters()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return Parameters{}, fmt.Errorf("failed to parse parameters file: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Parameters{}, fmt.Errorf("invalid parameters in %s: %w", path, err)
	}
	return params, nil
}
