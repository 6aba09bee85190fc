package engine

import (
	"sort"

	"transit/pkg/domain"
	"transit/pkg/dsu"
)

// =============================================================================
// Spanning-network selection
// =============================================================================
//
// Kruskal's algorithm with a custom edge weight: tracks are ranked by
// goodness (effective capacity over cost, integer division) and greedily
// accepted when they connect two components not yet joined. Directionality
// is incidental here; tracks are treated as undirected edges.
// =============================================================================

// NetworkResult carries the outcome of a spanning-network selection.
type NetworkResult struct {
	// TrackIDs lists the accepted tracks in selection order.
	TrackIDs []domain.TrackID

	// TotalCost is the summed cost of the accepted tracks.
	TotalCost int64

	// TotalGoodness is the summed goodness of the accepted tracks.
	TotalGoodness int64
}

// rankedTrack pairs a raw track with its precomputed goodness.
type rankedTrack struct {
	track    domain.Track
	goodness int64
}

// BestNetwork returns the tracks forming the best spanning network.
// See SelectNetwork for the full result.
func (e *Engine) BestNetwork() []domain.TrackID {
	return e.SelectNetwork().TrackIDs
}

// SelectNetwork picks a minimum-cost, maximum-goodness subset of tracks
// connecting every station.
//
// Each raw track is ranked by goodness = effective capacity / cost (integer
// division; effective capacity caps the declared capacity by the occupancy
// of both endpoints). Tracks are scanned in order of goodness descending,
// cost ascending, declared capacity descending; a track is accepted when its
// endpoints lie in different components. Selection stops at stationCount-1
// accepted tracks; on a disconnected network the result is the partial
// spanning forest.
//
// Parallel raw tracks are ranked individually here, unlike flow queries
// which see them merged.
func (e *Engine) SelectNetwork() *NetworkResult {
	ranked := make([]rankedTrack, 0, len(e.tracks))
	for _, tr := range e.tracks {
		eff := effectiveCapacity(tr.Capacity, e.occupancy[e.index[tr.From]], e.occupancy[e.index[tr.To]])
		ranked = append(ranked, rankedTrack{
			track:    tr,
			goodness: eff / tr.Cost,
		})
	}

	// Stable beyond the three-key chain: equal tracks keep input order.
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.goodness != b.goodness {
			return a.goodness > b.goodness
		}
		if a.track.Cost != b.track.Cost {
			return a.track.Cost < b.track.Cost
		}
		return a.track.Capacity > b.track.Capacity
	})

	components := dsu.New[domain.StationID]()
	for _, st := range e.stations {
		// Stations are unique after construction, so Add cannot fail.
		_ = components.Add(st.ID)
	}

	result := &NetworkResult{}
	want := len(e.stations) - 1

	for _, rt := range ranked {
		if len(result.TrackIDs) >= want {
			break
		}

		connected, err := components.Connected(rt.track.From, rt.track.To)
		if err != nil || connected {
			continue
		}
		if err := components.Union(rt.track.From, rt.track.To); err != nil {
			continue
		}

		result.TrackIDs = append(result.TrackIDs, rt.track.ID)
		result.TotalCost += rt.track.Cost
		result.TotalGoodness += rt.goodness
	}

	return result
}
