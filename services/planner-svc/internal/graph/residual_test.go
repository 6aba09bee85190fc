package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetwork(t *testing.T) {
	nw := NewNetwork(3)

	require.NotNil(t, nw)
	assert.Equal(t, 3, nw.StationCount())
	assert.Equal(t, 0, nw.EdgeCount())
}

func TestNetwork_AddEdge_Pairing(t *testing.T) {
	nw := NewNetwork(2)

	idx := nw.AddEdge(0, 1, 10)

	require.Equal(t, 0, idx)
	assert.Equal(t, 1, nw.EdgeCount())

	forward := nw.Edge(idx)
	reverse := nw.Edge(idx ^ 1)

	assert.Equal(t, 1, forward.To)
	assert.Equal(t, int64(10), forward.Capacity)
	assert.Equal(t, 0, reverse.To)
	assert.Equal(t, int64(0), reverse.Capacity)
}

func TestNetwork_AddEdge_AdjacencyBothEnds(t *testing.T) {
	nw := NewNetwork(3)

	nw.AddEdge(0, 1, 5)
	nw.AddEdge(1, 2, 7)

	// Station 1 sees the reverse of 0->1 and the forward of 1->2
	out := nw.OutEdges(1)
	require.Len(t, out, 2)
	assert.Equal(t, int32(1), out[0])
	assert.Equal(t, int32(2), out[1])
}

func TestNetwork_ForwardCapacity(t *testing.T) {
	nw := NewNetwork(3)
	nw.AddEdge(0, 1, 5)
	nw.AddEdge(1, 2, 7)

	assert.Equal(t, int64(5), nw.ForwardCapacity(0, 1))
	assert.Equal(t, int64(7), nw.ForwardCapacity(1, 2))
	assert.Equal(t, int64(0), nw.ForwardCapacity(1, 0), "reverse direction has no forward edge")
	assert.Equal(t, int64(0), nw.ForwardCapacity(0, 2))
}

func TestResidual_PushAndFlow(t *testing.T) {
	nw := NewNetwork(2)
	idx := nw.AddEdge(0, 1, 10)

	r := NewResidual(nw)
	assert.Equal(t, int64(10), r.Capacity(idx))

	r.Push(idx, 4)

	assert.Equal(t, int64(6), r.Capacity(idx))
	assert.Equal(t, int64(4), r.Capacity(idx^1))
	assert.Equal(t, int64(4), r.Flow(idx))
}

func TestResidual_IndependentOfBase(t *testing.T) {
	nw := NewNetwork(2)
	idx := nw.AddEdge(0, 1, 10)

	r1 := NewResidual(nw)
	r1.Push(idx, 10)

	// A second residual starts from the original capacities
	r2 := NewResidual(nw)
	assert.Equal(t, int64(10), r2.Capacity(idx))
	assert.Equal(t, int64(10), nw.Edge(idx).Capacity)
}

func TestResidual_Reset(t *testing.T) {
	nw := NewNetwork(2)
	idx := nw.AddEdge(0, 1, 10)

	r := NewResidual(nw)
	r.Push(idx, 7)
	r.Reset()

	assert.Equal(t, int64(10), r.Capacity(idx))
	assert.Equal(t, int64(0), r.Capacity(idx^1))
	assert.Equal(t, int64(0), r.Flow(idx))
}
