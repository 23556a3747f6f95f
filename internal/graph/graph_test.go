package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetatronSize(t *testing.T) {
	m := NewMetatron()

	if m.NodeCount() != 13 {
		t.Errorf("Expected 13 nodes, got %d", m.NodeCount())
	}
	if len(m.Edges()) != 78 {
		t.Errorf("Expected 78 edges, got %d", len(m.Edges()))
	}

	stats := m.Statistics()
	assert.True(t, stats.Connected)
	assert.Equal(t, 1, stats.Diameter)
	assert.Equal(t, 12, stats.MinDegree)
	assert.Equal(t, 12, stats.MaxDegree)
}

func TestMetatronNodeKinds(t *testing.T) {
	m := NewMetatron()

	assert.Equal(t, KindCenter, m.NodeKind(0))
	for _, h := range m.HexagonNodes() {
		assert.Equal(t, KindHexagon, m.NodeKind(h))
		c := m.Coordinates(h)
		assert.InDelta(t, 1.0, c[0]*c[0]+c[1]*c[1], 1e-12)
		assert.Equal(t, 0.0, c[2])
	}
	for _, q := range m.CubeNodes() {
		assert.Equal(t, KindCube, m.NodeKind(q))
		c := m.Coordinates(q)
		assert.InDelta(t, 1.5, c[0]*c[0]+c[1]*c[1]+c[2]*c[2], 1e-12)
	}
}

func TestLaplacianRowsSumToZero(t *testing.T) {
	g, err := FromEdges(4, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(3, 0, 2.5))

	l := g.Laplacian()
	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			sum += l.At(i, j)
		}
		if sum > 1e-12 || sum < -1e-12 {
			t.Errorf("Row %d: expected zero sum, got %f", i, sum)
		}
	}
	assert.Equal(t, 3.5, l.At(0, 0))
	assert.Equal(t, -2.5, l.At(0, 3))
}

func TestAddEdgeValidation(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	tests := []struct {
		name   string
		i, j   int
		weight float64
	}{
		{"self loop", 1, 1, 1},
		{"out of range", 0, 3, 1},
		{"negative index", -1, 0, 1},
		{"zero weight", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.i, tt.j, tt.weight); err == nil {
				t.Errorf("Expected error for edge (%d,%d) weight %v", tt.i, tt.j, tt.weight)
			}
		})
	}
}

func TestAddEdgeReweights(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(0, 1, 1))
	require.NoError(t, g.AddEdge(1, 0, 3))

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, Edge{U: 0, V: 1, Weight: 3}, edges[0])
	assert.Equal(t, 3.0, g.Degree(1))
}

func TestStatisticsDisconnected(t *testing.T) {
	g, err := FromEdges(4, [][2]int{{0, 1}, {2, 3}})
	require.NoError(t, err)

	stats := g.Statistics()
	assert.False(t, stats.Connected)
	assert.Equal(t, 1, stats.Diameter)
	assert.Equal(t, 2, stats.Edges)
}
