package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/pkg/apperror"
	"transit/pkg/domain"
)

func stations(occupancies ...int64) []domain.Station {
	result := make([]domain.Station, len(occupancies))
	for i, occ := range occupancies {
		result[i] = domain.Station{ID: domain.StationID(i + 1), Occupancy: occ}
	}
	return result
}

func track(id, from, to, capacity, cost int64) domain.Track {
	return domain.Track{
		ID:       domain.TrackID(id),
		From:     domain.StationID(from),
		To:       domain.StationID(to),
		Capacity: capacity,
		Cost:     cost,
	}
}

func mustEngine(t *testing.T, tracks []domain.Track, sts []domain.Station) *Engine {
	t.Helper()
	e, err := New(tracks, sts, Options{})
	require.NoError(t, err)
	return e
}

func TestMaxFlow(t *testing.T) {
	tests := []struct {
		name     string
		stations []domain.Station
		tracks   []domain.Track
		from     int64
		to       int64
		expected int64
	}{
		{
			name:     "single_track",
			stations: stations(100, 100),
			tracks:   []domain.Track{track(1, 1, 2, 10, 1)},
			from:     1, to: 2,
			expected: 10,
		},
		{
			name:     "linear_bottleneck",
			stations: stations(100, 100, 100),
			tracks: []domain.Track{
				track(1, 1, 2, 10, 1),
				track(2, 2, 3, 5, 1),
			},
			from: 1, to: 3,
			expected: 5,
		},
		{
			name:     "diamond",
			stations: stations(100, 100, 100, 100),
			tracks: []domain.Track{
				track(1, 1, 2, 10, 1),
				track(2, 1, 3, 10, 1),
				track(3, 2, 4, 10, 1),
				track(4, 3, 4, 10, 1),
			},
			from: 1, to: 4,
			expected: 20,
		},
		{
			name:     "occupancy_caps_capacity",
			stations: stations(5, 5),
			tracks:   []domain.Track{track(1, 1, 2, 10, 1)},
			from:     1, to: 2,
			expected: 5,
		},
		{
			name:     "zero_occupancy_sink",
			stations: stations(5, 5, 0),
			tracks: []domain.Track{
				track(1, 1, 2, 10, 1),
				track(2, 2, 3, 10, 1),
			},
			from: 1, to: 3,
			expected: 0,
		},
		{
			name:     "zero_occupancy_source",
			stations: stations(0, 5),
			tracks:   []domain.Track{track(1, 1, 2, 10, 1)},
			from:     1, to: 2,
			expected: 0,
		},
		{
			name:     "parallel_tracks_sum",
			stations: stations(100, 100),
			tracks: []domain.Track{
				track(1, 1, 2, 3, 1),
				track(2, 1, 2, 4, 1),
			},
			from: 1, to: 2,
			expected: 7,
		},
		{
			name:     "no_route",
			stations: stations(10, 10),
			tracks:   nil,
			from:     1, to: 2,
			expected: 0,
		},
		{
			name:     "direction_matters",
			stations: stations(10, 10),
			tracks:   []domain.Track{track(1, 1, 2, 10, 1)},
			from:     2, to: 1,
			expected: 0,
		},
		{
			name:     "reverse_edge_cancellation",
			stations: stations(100, 100, 100, 100),
			tracks: []domain.Track{
				track(1, 1, 2, 10, 1),
				track(2, 1, 3, 10, 1),
				track(3, 2, 3, 10, 1),
				track(4, 2, 4, 10, 1),
				track(5, 3, 4, 10, 1),
			},
			from: 1, to: 4,
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, tt.tracks, tt.stations)

			flow, err := e.MaxFlow(context.Background(), domain.StationID(tt.from), domain.StationID(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, flow)
		})
	}
}

func TestMaxFlow_UnknownStation(t *testing.T) {
	e := mustEngine(t, []domain.Track{track(1, 1, 2, 10, 1)}, stations(10, 10))

	_, err := e.MaxFlow(context.Background(), 1, 99)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownStation))

	_, err = e.MaxFlow(context.Background(), 99, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownStation))
}

func TestMaxFlow_SelfLoop(t *testing.T) {
	e := mustEngine(t, []domain.Track{
		track(1, 1, 1, 4, 1),
		track(2, 1, 1, 3, 1),
		track(3, 1, 2, 10, 1),
	}, stations(100, 100))

	// Combined self-loop capacity, occupancy-capped
	flow, err := e.MaxFlow(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), flow)

	// The query is idempotent: self-loop capacity is not consumed
	flow, err = e.MaxFlow(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), flow)
}

func TestMaxFlow_SelfLoopAbsent(t *testing.T) {
	e := mustEngine(t, []domain.Track{track(1, 1, 2, 10, 1)}, stations(10, 10))

	flow, err := e.MaxFlow(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flow)
}

func TestMaxFlow_RepeatedQueriesIndependent(t *testing.T) {
	e := mustEngine(t, []domain.Track{
		track(1, 1, 2, 10, 1),
		track(2, 2, 3, 5, 1),
	}, stations(100, 100, 100))

	for i := 0; i < 3; i++ {
		flow, err := e.MaxFlow(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(5), flow, "query %d must not observe earlier residual state", i)
	}
}

func TestMaxFlow_BoundedBySourceCapacity(t *testing.T) {
	e := mustEngine(t, []domain.Track{
		track(1, 1, 2, 7, 1),
		track(2, 1, 3, 4, 1),
		track(3, 2, 4, 100, 1),
		track(4, 3, 4, 100, 1),
	}, stations(1000, 1000, 1000, 1000))

	flow, err := e.MaxFlow(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, flow, int64(11))
	assert.Equal(t, int64(11), flow)
}

func TestSolveFlow_CanceledContext(t *testing.T) {
	e := mustEngine(t, []domain.Track{track(1, 1, 2, 10, 1)}, stations(100, 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.SolveFlow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Equal(t, int64(0), res.MaxFlow)
}

func TestSolveFlow_IterationLimit(t *testing.T) {
	e, err := New([]domain.Track{
		track(1, 1, 2, 10, 1),
		track(2, 1, 3, 10, 1),
		track(3, 2, 4, 10, 1),
		track(4, 3, 4, 10, 1),
	}, stations(100, 100, 100, 100), Options{MaxIterations: 1})
	require.NoError(t, err)

	res, err := e.SolveFlow(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Iterations)
	assert.Equal(t, int64(10), res.MaxFlow)
}

func TestSolveFlow_ConcurrentQueries(t *testing.T) {
	e := mustEngine(t, []domain.Track{
		track(1, 1, 2, 10, 1),
		track(2, 2, 3, 5, 1),
	}, stations(100, 100, 100))

	done := make(chan int64, 16)
	for i := 0; i < 16; i++ {
		go func() {
			flow, err := e.MaxFlow(context.Background(), 1, 3)
			if err != nil {
				done <- -1
				return
			}
			done <- flow
		}()
	}

	for i := 0; i < 16; i++ {
		assert.Equal(t, int64(5), <-done)
	}
}

func TestEndToEndExample(t *testing.T) {
	// Stations A(5), B(5), C(0); tracks A->B cap 10, B->C cap 10.
	sts := []domain.Station{
		{ID: 1, Name: "A", Occupancy: 5},
		{ID: 2, Name: "B", Occupancy: 5},
		{ID: 3, Name: "C", Occupancy: 0},
	}
	tracks := []domain.Track{
		track(1, 1, 2, 10, 1),
		track(2, 2, 3, 10, 1),
	}
	e := mustEngine(t, tracks, sts)

	flow, err := e.MaxFlow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), flow, "occupancy bounds the declared capacity")

	flow, err = e.MaxFlow(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flow, "zero-occupancy sink")

	best := e.BestNetwork()
	assert.ElementsMatch(t, []domain.TrackID{1, 2}, best)
}
