package ansatz

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/metatronqso/internal/quantum"
)

// MetatronAnsatz follows the Metatron Cube: the center node drives a phase
// rotation across the whole spectrum, every other node rotates into its
// successor, and the entangling stage runs over ring or all-pairs edges.
type MetatronAnsatz struct {
	depth    int
	strategy EntanglementStrategy
	pairs    [][2]int
}

// NewMetatron creates a Metatron ansatz. Any strategy other than Full builds
// the ring layout; validate user input with ParseEntanglement first.
func NewMetatron(depth int, strategy EntanglementStrategy) *MetatronAnsatz {
	if strategy != Full {
		strategy = Ring
	}
	return &MetatronAnsatz{
		depth:    depth,
		strategy: strategy,
		pairs:    entanglingPairs(strategy),
	}
}

func entanglingPairs(strategy EntanglementStrategy) [][2]int {
	const n = quantum.Dimension
	var pairs [][2]int
	if strategy == Full {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
		return pairs
	}
	for i := 0; i < n; i++ {
		pairs = append(pairs, [2]int{i, next(i)})
	}
	return pairs
}

// Strategy returns the entanglement strategy.
func (a *MetatronAnsatz) Strategy() EntanglementStrategy {
	return a.strategy
}

func (a *MetatronAnsatz) Apply(s quantum.State, params []float64) (quantum.State, error) {
	if err := validate(a, params); err != nil {
		return quantum.State{}, err
	}

	const n = quantum.Dimension
	perLayer := a.paramsPerLayer()
	for layer := 0; layer < a.depth; layer++ {
		p := params[layer*perLayer : (layer+1)*perLayer]

		s = s.ApplyPhases(centerPhases(p[0]))
		for node := 1; node < n; node++ {
			s = s.ApplyTwoLevel(node, next(node), rxHalf(p[node]))
		}
		for k, pair := range a.pairs {
			s = s.ApplyTwoLevel(pair[0], pair[1], xx(p[n+k]))
		}
	}
	return s, nil
}

// centerPhases returns exp(i·theta·2·pi·k/N) for every index k.
func centerPhases(theta float64) *[quantum.Dimension]complex128 {
	var phases [quantum.Dimension]complex128
	for k := range phases {
		phases[k] = cmplx.Exp(complex(0, theta*2*math.Pi*float64(k)/quantum.Dimension))
	}
	return &phases
}

func (a *MetatronAnsatz) paramsPerLayer() int {
	return quantum.Dimension + len(a.pairs)
}

func (a *MetatronAnsatz) NumParameters() int { return a.paramsPerLayer() * a.depth }
func (a *MetatronAnsatz) Depth() int         { return a.depth }
func (a *MetatronAnsatz) Type() Type         { return Metatron }
