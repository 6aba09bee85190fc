package graph

// =============================================================================
// Queue
// =============================================================================

// Queue is a FIFO queue over dense station indices.
//
// It uses a slice with a head pointer so a full BFS performs a single
// allocation. Reset keeps the underlying storage for reuse.
type Queue struct {
	data []int
	head int
}

// NewQueue creates a queue with the given initial capacity, typically the
// station count of the network being searched.
func NewQueue(capacity int) *Queue {
	return &Queue{data: make([]int, 0, capacity)}
}

// Push adds a station index to the back of the queue.
func (q *Queue) Push(v int) {
	q.data = append(q.data, v)
}

// Pop removes and returns the front element. The caller must check Empty
// first; popping an empty queue panics.
func (q *Queue) Pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty reports whether the queue has no elements.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of queued elements.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset clears the queue, keeping its capacity.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Augmenting-path search
// =============================================================================

// Search holds the reusable state for repeated BFS runs over one residual.
// parentEdge[v] records the edge index through which v was first reached,
// or -1 when unvisited, which doubles as the visited marker.
type Search struct {
	parentEdge []int
	queue      *Queue
}

// NewSearch allocates search state for a network with n stations.
func NewSearch(n int) *Search {
	return &Search{
		parentEdge: make([]int, n),
		queue:      NewQueue(n),
	}
}

// FindPath runs a breadth-first search from source over edges with positive
// residual capacity and reports whether sink was reached.
//
// Adjacency lists are traversed in insertion order, so the path found is
// deterministic for a given network. The search terminates as soon as the
// sink is discovered.
func (s *Search) FindPath(r *Residual, source, sink int) bool {
	for i := range s.parentEdge {
		s.parentEdge[i] = -1
	}
	s.queue.Reset()

	s.queue.Push(source)

	for !s.queue.Empty() {
		u := s.queue.Pop()

		for _, idx := range r.net.adj[u] {
			if r.cap[idx] <= 0 {
				continue
			}
			v := r.net.edges[idx].To
			if v == source || s.parentEdge[v] != -1 {
				continue
			}
			s.parentEdge[v] = int(idx)
			if v == sink {
				return true
			}
			s.queue.Push(v)
		}
	}

	return false
}

// Bottleneck returns the minimum residual capacity along the path recorded
// by the last successful FindPath, walking parent edges back from sink.
func (s *Search) Bottleneck(r *Residual, source, sink int) int64 {
	var bottleneck int64 = -1

	for v := sink; v != source; {
		idx := s.parentEdge[v]
		if c := r.cap[idx]; bottleneck < 0 || c < bottleneck {
			bottleneck = c
		}
		v = r.net.edges[idx^1].To
	}

	if bottleneck < 0 {
		return 0
	}
	return bottleneck
}

// Augment pushes flow along the recorded path: each forward edge loses the
// given amount of capacity and its reverse gains it.
func (s *Search) Augment(r *Residual, source, sink int, flow int64) {
	for v := sink; v != source; {
		idx := s.parentEdge[v]
		r.Push(idx, flow)
		v = r.net.edges[idx^1].To
	}
}
