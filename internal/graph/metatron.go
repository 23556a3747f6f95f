package graph

import (
	"fmt"
	"math"
)

// MetatronNodes is the node count of the Metatron Cube.
const MetatronNodes = 13

// NodeKind classifies a Metatron Cube node.
type NodeKind string

const (
	KindCenter  NodeKind = "center"
	KindHexagon NodeKind = "hexagon"
	KindCube    NodeKind = "cube"
)

// Node carries the geometric metadata of one Metatron node.
type Node struct {
	Index       int        `json:"index"`
	Kind        NodeKind   `json:"kind"`
	Coordinates [3]float64 `json:"coordinates"`
	Label       string     `json:"label"`
}

// Metatron is the Metatron Cube: a center node, a planar hexagon (1..6) and
// six cube vertices (7..12), fully connected with unit weights.
type Metatron struct {
	*Graph
	nodes []Node
}

// NewMetatron builds the canonical 13-node, 78-edge Metatron Cube.
func NewMetatron() *Metatron {
	g, err := New(MetatronNodes)
	if err != nil {
		panic(err)
	}
	m := &Metatron{Graph: g, nodes: metatronNodes()}

	hexagon := m.HexagonNodes()
	cube := m.CubeNodes()

	// Spokes from the center.
	for _, v := range append(append([]int{}, hexagon...), cube...) {
		m.mustAdd(0, v)
	}
	// Hexagon ring, then its chords.
	for k, v := range hexagon {
		m.mustAdd(v, hexagon[(k+1)%len(hexagon)])
	}
	m.connectAll(hexagon)
	// Cube frame and diagonals.
	m.connectAll(cube)
	// Hexagon to cube links.
	for _, h := range hexagon {
		for _, c := range cube {
			m.mustAdd(h, c)
		}
	}
	return m
}

func (m *Metatron) mustAdd(i, j int) {
	if m.Weight(i, j) != 0 {
		return
	}
	if err := m.AddEdge(i, j, 1); err != nil {
		panic(fmt.Sprintf("metatron edge (%d,%d): %v", i, j, err))
	}
}

func (m *Metatron) connectAll(nodes []int) {
	for a := 0; a < len(nodes); a++ {
		for b := a + 1; b < len(nodes); b++ {
			m.mustAdd(nodes[a], nodes[b])
		}
	}
}

// Nodes returns the node metadata.
func (m *Metatron) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// NodeKind returns the classification of node i.
func (m *Metatron) NodeKind(i int) NodeKind {
	return m.nodes[i].Kind
}

// Coordinates returns the 3D embedding of node i.
func (m *Metatron) Coordinates(i int) [3]float64 {
	return m.nodes[i].Coordinates
}

// HexagonNodes returns the indices of the hexagon ring.
func (m *Metatron) HexagonNodes() []int {
	return []int{1, 2, 3, 4, 5, 6}
}

// CubeNodes returns the indices of the cube vertices.
func (m *Metatron) CubeNodes() []int {
	return []int{7, 8, 9, 10, 11, 12}
}

func metatronNodes() []Node {
	nodes := make([]Node, 0, MetatronNodes)
	nodes = append(nodes, Node{Index: 0, Kind: KindCenter, Label: "v1 (C)"})

	for k := 0; k < 6; k++ {
		angle := 2 * math.Pi * float64(k) / 6
		nodes = append(nodes, Node{
			Index:       k + 1,
			Kind:        KindHexagon,
			Coordinates: [3]float64{math.Cos(angle), math.Sin(angle), 0},
			Label:       fmt.Sprintf("v%d (H%d)", k+2, k+1),
		})
	}

	s := 1 / math.Sqrt2
	cube := [6][3]float64{
		{s, s, s},
		{s, s, -s},
		{s, -s, s},
		{s, -s, -s},
		{-s, s, s},
		{-s, -s, -s},
	}
	for k, c := range cube {
		nodes = append(nodes, Node{
			Index:       k + 7,
			Kind:        KindCube,
			Coordinates: c,
			Label:       fmt.Sprintf("v%d (Q%d)", k+8, k+1),
		})
	}
	return nodes
}
