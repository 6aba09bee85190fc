package engine

import (
	"context"

	"transit/pkg/domain"
	"transit/services/planner-svc/internal/graph"
)

// =============================================================================
// Max-flow query
// =============================================================================
//
// Shortest-augmenting-path max flow (Edmonds-Karp): repeated BFS over a
// residual view, pushing the bottleneck of each discovered path until the
// sink is unreachable. Integer capacities guarantee termination: every
// augmentation adds at least 1 unit and total flow is bounded by the sum of
// source-adjacent capacities. Worst case O(V*E) augmentations, each BFS O(E).
// =============================================================================

// FlowResult carries the outcome of one flow query.
type FlowResult struct {
	// MaxFlow is the total flow pushed from source to sink.
	MaxFlow int64

	// Iterations is the number of augmenting paths found.
	Iterations int64

	// Canceled is set when the query stopped early on context cancellation.
	// MaxFlow then holds the flow accumulated so far.
	Canceled bool
}

// MaxFlow returns the maximum sustainable passenger throughput between two
// stations. See SolveFlow for the full result.
func (e *Engine) MaxFlow(ctx context.Context, from, to domain.StationID) (int64, error) {
	res, err := e.SolveFlow(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return res.MaxFlow, nil
}

// SolveFlow runs the max-flow computation between two stations.
//
// Edge cases, checked in order before any traversal:
//  1. Unknown station IDs are lookup errors.
//  2. If either endpoint has zero occupants the flow is 0.
//  3. If source and sink are the same station the flow equals the combined
//     effective capacity of that station's self-loop tracks, or 0 when none
//     exist. The query is idempotent: self-loop capacity is not consumed
//     across calls.
//
// The query never mutates the base graph; it works on a residual capacity
// copy scoped to this call.
func (e *Engine) SolveFlow(ctx context.Context, from, to domain.StationID) (*FlowResult, error) {
	source, err := e.stationIndex(from)
	if err != nil {
		return nil, err
	}
	sink, err := e.stationIndex(to)
	if err != nil {
		return nil, err
	}

	if e.occupancy[source] == 0 || e.occupancy[sink] == 0 {
		return &FlowResult{}, nil
	}

	if source == sink {
		return &FlowResult{MaxFlow: e.selfLoop[source]}, nil
	}

	residual := graph.NewResidual(e.net)
	search := graph.NewSearch(e.net.StationCount())

	var (
		maxFlow    int64
		iterations int64
	)

	const checkInterval = 100

	for e.opts.MaxIterations <= 0 || iterations < e.opts.MaxIterations {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return &FlowResult{
					MaxFlow:    maxFlow,
					Iterations: iterations,
					Canceled:   true,
				}, nil
			default:
			}
		}

		if !search.FindPath(residual, source, sink) {
			break
		}

		pathFlow := search.Bottleneck(residual, source, sink)
		if pathFlow <= 0 {
			break
		}
		search.Augment(residual, source, sink, pathFlow)

		maxFlow += pathFlow
		iterations++
	}

	return &FlowResult{
		MaxFlow:    maxFlow,
		Iterations: iterations,
	}, nil
}
