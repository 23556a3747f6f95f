package vqa

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/metatronqso/internal/quantum"
)

// Encoding selects how a classical feature vector becomes a state.
type Encoding string

const (
	// AmplitudeEncoding pads or truncates x to N entries and normalizes
	AmplitudeEncoding Encoding = "amplitude"
	// AngleEncoding rotates neighbouring levels by pi·x_i
	AngleEncoding Encoding = "angle"
	// BasisEncoding marks every level whose feature exceeds 0.5
	BasisEncoding Encoding = "basis"
)

// BasisThreshold is the feature value above which BasisEncoding sets a level.
const BasisThreshold = 0.5

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "amplitude":
		return AmplitudeEncoding, nil
	case "angle", "":
		return AngleEncoding, nil
	case "basis":
		return BasisEncoding, nil
	default:
		return "", fmt.Errorf("unknown encoding: %s", s)
	}
}

// Encode maps features (normally scaled to [0, 1]) to a normalized state.
func Encode(e Encoding, x []float64) (quantum.State, error) {
	switch e {
	case AmplitudeEncoding:
		return encodeAmplitude(x)
	case AngleEncoding:
		return encodeAngle(x), nil
	case BasisEncoding:
		return encodeBasis(x)
	default:
		return quantum.State{}, fmt.Errorf("unknown encoding: %q", e)
	}
}

func encodeAmplitude(x []float64) (quantum.State, error) {
	amps := make([]complex128, quantum.Dimension)
	for i := 0; i < len(x) && i < quantum.Dimension; i++ {
		amps[i] = complex(x[i], 0)
	}
	return stateOrUniform(amps)
}

// encodeAngle starts from |0>, mixes levels 0 and 1 with a Hadamard block
// and then applies RY(pi·x_i) on (i, i+1) for as many features as fit.
func encodeAngle(x []float64) quantum.State {
	h := 1 / math.Sqrt2
	s := quantum.MustBasisState(0).ApplyTwoLevel(0, 1, [2][2]complex128{
		{complex(h, 0), complex(h, 0)},
		{complex(h, 0), complex(-h, 0)},
	})
	for i, v := range x {
		if i >= quantum.Dimension-1 {
			break
		}
		c, sn := math.Cos(math.Pi*v/2), math.Sin(math.Pi*v/2)
		s = s.ApplyTwoLevel(i, i+1, [2][2]complex128{
			{complex(c, 0), complex(-sn, 0)},
			{complex(sn, 0), complex(c, 0)},
		})
	}
	return s
}

func encodeBasis(x []float64) (quantum.State, error) {
	amps := make([]complex128, quantum.Dimension)
	for i := 0; i < len(x) && i < quantum.Dimension; i++ {
		if x[i] > BasisThreshold {
			amps[i] = 1
		}
	}
	return stateOrUniform(amps)
}

func stateOrUniform(amps []complex128) (quantum.State, error) {
	for _, a := range amps {
		if a != 0 {
			return quantum.NewState(amps, true)
		}
	}
	return quantum.UniformSuperposition(), nil
}

// ErrNonFiniteFeature is returned for NaN or infinite feature values.
var ErrNonFiniteFeature = errors.New("feature value is not finite")

func checkFinite(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %d is %v", ErrNonFiniteFeature, i, v)
		}
	}
	return nil
}

// FeatureRange is a per-feature min/max scaling fitted on training data.
type FeatureRange struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitRange computes the per-feature minimum and maximum of X.
func FitRange(X [][]float64) (*FeatureRange, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("cannot fit feature range on empty data")
	}
	width := len(X[0])
	r := &FeatureRange{Min: make([]float64, width), Max: make([]float64, width)}
	copy(r.Min, X[0])
	copy(r.Max, X[0])
	for row, x := range X {
		if len(x) != width {
			return nil, &quantum.DimensionMismatchError{What: fmt.Sprintf("feature count of sample %d", row), Expected: width, Actual: len(x)}
		}
		if err := checkFinite(x); err != nil {
			return nil, fmt.Errorf("sample %d: %w", row, err)
		}
		for i, v := range x {
			r.Min[i] = math.Min(r.Min[i], v)
			r.Max[i] = math.Max(r.Max[i], v)
		}
	}
	return r, nil
}

// Normalize scales x into [0, 1]. A constant feature maps to 0.5.
func (r *FeatureRange) Normalize(x []float64) ([]float64, error) {
	if len(x) != len(r.Min) {
		return nil, &quantum.DimensionMismatchError{What: "feature count", Expected: len(r.Min), Actual: len(x)}
	}
	if err := checkFinite(x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		span := r.Max[i] - r.Min[i]
		if span < 1e-10 {
			out[i] = 0.5
			continue
		}
		out[i] = (v - r.Min[i]) / span
	}
	return out, nil
}
