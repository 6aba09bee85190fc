// Package graph provides the flow-network representation used by the
// planning engine.
//
// Stations are addressed by dense zero-based indices assigned at build time,
// so traversal never hashes identifiers. Edges are stored in a single flat
// slice with forward and reverse edges paired: the forward edge sits at an
// even position i and its reverse at i^1. A flow query works on a Residual
// view that copies only the capacity slice, leaving the shared topology
// untouched.
package graph

// =============================================================================
// Edge
// =============================================================================

// Edge is one directed arc in the flow network.
//
// Reverse edges are created automatically with zero original capacity; they
// exist so augmentations can cancel previously pushed flow.
type Edge struct {
	// To is the dense index of the destination station.
	To int

	// Capacity is the original capacity of the edge.
	// Zero for reverse edges.
	Capacity int64
}

// =============================================================================
// Network
// =============================================================================

// Network is the immutable topology: paired edges plus a per-station list of
// edge indices. It is built once and shared by every query.
//
// The pairing invariant: for any edge index i, edges[i^1] is its companion in
// the opposite direction. Even indices are forward edges, odd indices are
// their reverses.
type Network struct {
	n     int
	edges []Edge
	adj   [][]int32
}

// NewNetwork creates an empty network with n stations and no edges.
func NewNetwork(n int) *Network {
	return &Network{
		n:   n,
		adj: make([][]int32, n),
	}
}

// AddEdge inserts a forward edge from→to together with its zero-capacity
// reverse, and returns the forward edge index.
//
// Callers merge parallel edges before insertion; AddEdge itself never
// deduplicates.
func (nw *Network) AddEdge(from, to int, capacity int64) int {
	idx := len(nw.edges)
	nw.edges = append(nw.edges,
		Edge{To: to, Capacity: capacity},
		Edge{To: from, Capacity: 0},
	)
	nw.adj[from] = append(nw.adj[from], int32(idx))
	nw.adj[to] = append(nw.adj[to], int32(idx+1))
	return idx
}

// StationCount returns the number of stations.
func (nw *Network) StationCount() int {
	return nw.n
}

// EdgeCount returns the number of forward edges.
func (nw *Network) EdgeCount() int {
	return len(nw.edges) / 2
}

// Edge returns the edge at the given index.
func (nw *Network) Edge(i int) Edge {
	return nw.edges[i]
}

// OutEdges returns the edge indices incident to a station, forward and
// reverse alike, in insertion order. The slice must not be modified.
func (nw *Network) OutEdges(station int) []int32 {
	return nw.adj[station]
}

// ForwardCapacity returns the original capacity of the forward edge from→to,
// or 0 if no such edge exists. Linear in the out-degree of from.
func (nw *Network) ForwardCapacity(from, to int) int64 {
	for _, idx := range nw.adj[from] {
		if idx%2 == 0 && nw.edges[idx].To == to {
			return nw.edges[idx].Capacity
		}
	}
	return 0
}

// =============================================================================
// Residual view
// =============================================================================

// Residual is a query-scoped working copy of the network capacities.
//
// Only the capacity slice is owned by the Residual; topology is shared with
// the underlying Network. Creating one per query keeps queries independent
// and side-effect-free on the base graph.
type Residual struct {
	net *Network
	cap []int64
}

// NewResidual creates a fresh residual view with all capacities reset to
// their original values.
func NewResidual(nw *Network) *Residual {
	caps := make([]int64, len(nw.edges))
	for i, e := range nw.edges {
		caps[i] = e.Capacity
	}
	return &Residual{net: nw, cap: caps}
}

// Network returns the shared topology.
func (r *Residual) Network() *Network {
	return r.net
}

// Capacity returns the remaining capacity of the edge at idx.
func (r *Residual) Capacity(idx int) int64 {
	return r.cap[idx]
}

// Push moves flow across the edge at idx: its capacity decreases and the
// paired edge's capacity increases by the same amount.
func (r *Residual) Push(idx int, flow int64) {
	r.cap[idx] -= flow
	r.cap[idx^1] += flow
}

// Flow returns the flow pushed through a forward edge so far, derived from
// how much capacity has accumulated on its reverse.
func (r *Residual) Flow(idx int) int64 {
	return r.cap[idx^1] - r.net.edges[idx^1].Capacity
}

// Reset restores every capacity to its original value, allowing the residual
// to be reused for another query.
func (r *Residual) Reset() {
	for i, e := range r.net.edges {
		r.cap[i] = e.Capacity
	}
}
