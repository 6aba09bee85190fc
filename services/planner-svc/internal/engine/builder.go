// Package engine implements the transit planning core: graph construction
// from raw station and track records, max-flow queries between stations, and
// greedy spanning-network selection.
//
// An Engine is immutable once built. Every query works on query-scoped
// temporaries (a residual capacity slice, a disjoint set), so concurrent
// queries on one engine need no locking.
package engine

import (
	"transit/pkg/apperror"
	"transit/pkg/domain"
	"transit/services/planner-svc/internal/graph"
)

// Engine holds the built graph together with the raw records that feed the
// spanning-network selector.
type Engine struct {
	stations []domain.Station
	tracks   []domain.Track

	// index maps station ID to its dense index, assigned in input order.
	index     map[domain.StationID]int
	occupancy []int64

	// net is the merged adjacency: one edge per ordered station pair, with
	// parallel tracks combined additively. Self-loops are kept out of the
	// adjacency and accumulated separately.
	net      *graph.Network
	selfLoop []int64

	opts Options
}

// Options bound a single engine instance.
type Options struct {
	// MaxIterations limits the number of augmenting paths per flow query.
	// Zero or negative means unlimited.
	MaxIterations int64
}

// New builds an engine from raw records.
//
// Stations get sequential dense indices in input order. Each track's
// effective capacity is min(declared capacity, occupancy of both endpoints);
// tracks between the same ordered pair merge additively. A track referencing
// a station absent from the station list is a data-integrity error and
// construction fails without producing a usable engine.
func New(tracks []domain.Track, stations []domain.Station, opts Options) (*Engine, error) {
	e := &Engine{
		stations:  make([]domain.Station, len(stations)),
		tracks:    make([]domain.Track, len(tracks)),
		index:     make(map[domain.StationID]int, len(stations)),
		occupancy: make([]int64, len(stations)),
		selfLoop:  make([]int64, len(stations)),
		opts:      opts,
	}
	copy(e.stations, stations)
	copy(e.tracks, tracks)

	for i, st := range e.stations {
		if _, ok := e.index[st.ID]; ok {
			return nil, apperror.New(apperror.CodeDuplicateStation,
				"duplicate station in input").WithDetails("station_id", st.ID)
		}
		if st.Occupancy < 0 {
			return nil, apperror.New(apperror.CodeNegativeOccupancy,
				"station occupancy must be non-negative").WithDetails("station_id", st.ID)
		}
		e.index[st.ID] = i
		e.occupancy[i] = st.Occupancy
	}

	merged := make(map[[2]int]int64, len(tracks))
	for _, tr := range e.tracks {
		from, ok := e.index[tr.From]
		if !ok {
			return nil, apperror.New(apperror.CodeDanglingTrack,
				"track references unknown station").WithDetails("station_id", tr.From)
		}
		to, ok := e.index[tr.To]
		if !ok {
			return nil, apperror.New(apperror.CodeDanglingTrack,
				"track references unknown station").WithDetails("station_id", tr.To)
		}
		if tr.Capacity < 0 {
			return nil, apperror.New(apperror.CodeNegativeCapacity,
				"track capacity must be non-negative").WithDetails("track_id", tr.ID)
		}
		if tr.Cost <= 0 {
			return nil, apperror.New(apperror.CodeNegativeCost,
				"track cost must be positive").WithDetails("track_id", tr.ID)
		}

		eff := effectiveCapacity(tr.Capacity, e.occupancy[from], e.occupancy[to])
		if from == to {
			e.selfLoop[from] += eff
			continue
		}
		merged[[2]int{from, to}] += eff
	}

	e.net = graph.NewNetwork(len(stations))
	// Insert merged edges in raw track order so adjacency order, and with it
	// the BFS path choice, is stable for identical inputs.
	inserted := make(map[[2]int]bool, len(merged))
	for _, tr := range e.tracks {
		from, to := e.index[tr.From], e.index[tr.To]
		if from == to {
			continue
		}
		key := [2]int{from, to}
		if inserted[key] {
			continue
		}
		inserted[key] = true
		e.net.AddEdge(from, to, merged[key])
	}

	return e, nil
}

// effectiveCapacity caps a track's declared capacity by the occupancy of
// both endpoints.
func effectiveCapacity(capacity, fromOcc, toOcc int64) int64 {
	eff := capacity
	if fromOcc < eff {
		eff = fromOcc
	}
	if toOcc < eff {
		eff = toOcc
	}
	return eff
}

// StationCount returns the number of stations.
func (e *Engine) StationCount() int {
	return len(e.stations)
}

// TrackCount returns the number of raw track records.
func (e *Engine) TrackCount() int {
	return len(e.tracks)
}

// Stations returns the station records in input order.
// The slice must not be modified.
func (e *Engine) Stations() []domain.Station {
	return e.stations
}

// Tracks returns the raw track records in input order.
// The slice must not be modified.
func (e *Engine) Tracks() []domain.Track {
	return e.tracks
}

// stationIndex resolves a station ID to its dense index.
func (e *Engine) stationIndex(id domain.StationID) (int, error) {
	idx, ok := e.index[id]
	if !ok {
		return 0, apperror.New(apperror.CodeUnknownStation,
			"unknown station").WithDetails("station_id", id)
	}
	return idx, nil
}

// EdgeCapacity returns the merged effective capacity of the directed edge
// between two stations, or 0 when no track connects them in that direction.
func (e *Engine) EdgeCapacity(from, to domain.StationID) (int64, error) {
	fi, err := e.stationIndex(from)
	if err != nil {
		return 0, err
	}
	ti, err := e.stationIndex(to)
	if err != nil {
		return 0, err
	}
	if fi == ti {
		return e.selfLoop[fi], nil
	}
	return e.net.ForwardCapacity(fi, ti), nil
}
