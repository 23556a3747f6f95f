package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Edge is an undirected weighted edge with U < V.
type Edge struct {
	U      int     `json:"u" yaml:"u"`
	V      int     `json:"v" yaml:"v"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Graph is a weighted undirected graph over a fixed number of nodes.
type Graph struct {
	n     int
	edges []Edge
	adj   *mat.SymDense
}

// New creates an empty graph with n nodes.
func New(n int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("node count must be positive, got %d", n)
	}
	return &Graph{
		n:   n,
		adj: mat.NewSymDense(n, nil),
	}, nil
}

// FromEdges creates a graph with n nodes and unit-weight edges.
func FromEdges(n int, pairs [][2]int) (*Graph, error) {
	g, err := New(n)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if err := g.AddEdge(p[0], p[1], 1); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddEdge inserts or reweights the edge between i and j.
func (g *Graph) AddEdge(i, j int, weight float64) error {
	if i < 0 || i >= g.n || j < 0 || j >= g.n {
		return fmt.Errorf("edge (%d,%d) out of range for %d nodes", i, j, g.n)
	}
	if i == j {
		return fmt.Errorf("self-loop on node %d not allowed", i)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return fmt.Errorf("edge (%d,%d) weight must be positive and finite, got %v", i, j, weight)
	}
	if i > j {
		i, j = j, i
	}

	if g.adj.At(i, j) != 0 {
		for k := range g.edges {
			if g.edges[k].U == i && g.edges[k].V == j {
				g.edges[k].Weight = weight
			}
		}
	} else {
		g.edges = append(g.edges, Edge{U: i, V: j, Weight: weight})
	}
	g.adj.SetSym(i, j, weight)
	return nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.n
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Weight returns the weight between i and j, zero when not adjacent.
func (g *Graph) Weight(i, j int) float64 {
	return g.adj.At(i, j)
}

// Degree returns the weighted degree of node i.
func (g *Graph) Degree(i int) float64 {
	var d float64
	for j := 0; j < g.n; j++ {
		d += g.adj.At(i, j)
	}
	return d
}

// Neighbours returns the nodes adjacent to i in ascending order.
func (g *Graph) Neighbours(i int) []int {
	var out []int
	for j := 0; j < g.n; j++ {
		if g.adj.At(i, j) != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Adjacency returns a copy of the weighted adjacency matrix.
func (g *Graph) Adjacency() *mat.SymDense {
	out := mat.NewSymDense(g.n, nil)
	out.CopySym(g.adj)
	return out
}

// Laplacian returns L = D - A.
func (g *Graph) Laplacian() *mat.SymDense {
	l := mat.NewSymDense(g.n, nil)
	for i := 0; i < g.n; i++ {
		for j := i; j < g.n; j++ {
			if i == j {
				l.SetSym(i, i, g.Degree(i))
			} else {
				l.SetSym(i, j, -g.adj.At(i, j))
			}
		}
	}
	return l
}

// Statistics summarizes the structure of a graph.
type Statistics struct {
	Nodes     int     `json:"nodes"`
	Edges     int     `json:"edges"`
	MinDegree int     `json:"minDegree"`
	MaxDegree int     `json:"maxDegree"`
	AvgDegree float64 `json:"avgDegree"`
	Degrees   []int   `json:"degrees"`
	Connected bool    `json:"connected"`
	Diameter  int     `json:"diameter"`
}

// Statistics computes unweighted degree and distance statistics.
func (g *Graph) Statistics() Statistics {
	degrees := make([]int, g.n)
	minDeg, maxDeg, total := math.MaxInt, 0, 0
	for i := 0; i < g.n; i++ {
		d := len(g.Neighbours(i))
		degrees[i] = d
		minDeg = min(minDeg, d)
		maxDeg = max(maxDeg, d)
		total += d
	}

	connected := true
	diameter := 0
	for start := 0; start < g.n; start++ {
		for _, d := range g.distances(start) {
			if d < 0 {
				connected = false
				continue
			}
			diameter = max(diameter, d)
		}
	}

	return Statistics{
		Nodes:     g.n,
		Edges:     len(g.edges),
		MinDegree: minDeg,
		MaxDegree: maxDeg,
		AvgDegree: float64(total) / float64(g.n),
		Degrees:   degrees,
		Connected: connected,
		Diameter:  diameter,
	}
}

// distances runs a breadth-first search from start; unreachable nodes get -1.
func (g *Graph) distances(start int) []int {
	dist := make([]int, g.n)
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0
	queue := []int{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, nb := range g.Neighbours(node) {
			if dist[nb] < 0 {
				dist[nb] = dist[node] + 1
				queue = append(queue, nb)
			}
		}
	}
	return dist
}
