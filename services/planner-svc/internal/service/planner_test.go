package service

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/pkg/apperror"
	"transit/pkg/cache"
	"transit/pkg/logger"
	"transit/services/planner-svc/internal/engine"
	"transit/services/planner-svc/internal/repository"
)

func TestMain(m *testing.M) {
	// Инициализируем логгер для тестов
	logger.Init("error")

	os.Exit(m.Run())
}

// ============================================================
// HELPERS
// ============================================================

func newTestService(t *testing.T) *PlannerService {
	t.Helper()
	planCache := cache.NewPlanCache(cache.NewMemoryCache(nil), 0)
	return NewPlannerService("test", planCache, nil, engine.Options{})
}

func testNetworkInput() *CreateNetworkInput {
	return &CreateNetworkInput{
		Name: "downtown",
		Stations: []StationInput{
			{ID: 1, Name: "A", Occupancy: 5},
			{ID: 2, Name: "B", Occupancy: 5},
			{ID: 3, Name: "C", Occupancy: 0},
		},
		Tracks: []TrackInput{
			{ID: 1, From: 1, To: 2, Capacity: 10, Cost: 1},
			{ID: 2, From: 2, To: 3, Capacity: 10, Cost: 1},
		},
	}
}

func registerNetwork(t *testing.T, s *PlannerService) string {
	t.Helper()
	out, err := s.CreateNetwork(context.Background(), testNetworkInput())
	require.NoError(t, err)
	return out.NetworkID
}

// fakeRepo записывает операции в память
type fakeRepo struct {
	mu      sync.Mutex
	records []*repository.PlanRecord
}

func (r *fakeRepo) Create(_ context.Context, rec *repository.PlanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) GetByID(context.Context, string) (*repository.PlanRecord, error) {
	return nil, repository.ErrPlanNotFound
}

func (r *fakeRepo) Delete(context.Context, string) error {
	return repository.ErrPlanNotFound
}

func (r *fakeRepo) List(context.Context, string, *repository.ListOptions) ([]*repository.PlanSummary, int64, error) {
	return nil, 0, nil
}

func (r *fakeRepo) DeleteByNetworkID(_ context.Context, networkID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*repository.PlanRecord
	var deleted int64
	for _, rec := range r.records {
		if rec.NetworkID == networkID {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

func (r *fakeRepo) GetNetworkStatistics(context.Context, string) (*repository.NetworkStatistics, error) {
	return &repository.NetworkStatistics{OperationsByType: map[string]int{}}, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// ============================================================
// NETWORK REGISTRY
// ============================================================

func TestCreateNetwork(t *testing.T) {
	s := newTestService(t)

	out, err := s.CreateNetwork(context.Background(), testNetworkInput())

	require.NoError(t, err)
	assert.NotEmpty(t, out.NetworkID)
	assert.Equal(t, 3, out.StationCount)
	assert.Equal(t, 2, out.TrackCount)
}

func TestCreateNetwork_DanglingTrack(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateNetwork(context.Background(), &CreateNetworkInput{
		Stations: []StationInput{{ID: 1, Occupancy: 5}},
		Tracks:   []TrackInput{{ID: 1, From: 1, To: 99, Capacity: 10, Cost: 1}},
	})

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeDanglingTrack))
}

func TestCreateNetwork_UniqueIDs(t *testing.T) {
	s := newTestService(t)

	first := registerNetwork(t, s)
	second := registerNetwork(t, s)

	assert.NotEqual(t, first, second)
}

func TestDeleteNetwork(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	require.NoError(t, s.DeleteNetwork(context.Background(), id))

	_, err := s.MaxFlow(context.Background(), id, 1, 2)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestDeleteNetwork_NotFound(t *testing.T) {
	s := newTestService(t)

	err := s.DeleteNetwork(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestSnapshot(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	snap, err := s.Snapshot(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "downtown", snap.Name)
	assert.Len(t, snap.Stations, 3)
	assert.Len(t, snap.Tracks, 2)
	assert.False(t, snap.CreatedAt.IsZero())
}

// ============================================================
// FLOW QUERIES
// ============================================================

func TestMaxFlow_Service(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	out, err := s.MaxFlow(context.Background(), id, 1, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(5), out.MaxFlow)
	assert.False(t, out.Cached)
}

func TestMaxFlow_ZeroOccupancySink(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	out, err := s.MaxFlow(context.Background(), id, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, int64(0), out.MaxFlow)
}

func TestMaxFlow_NetworkNotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.MaxFlow(context.Background(), "missing", 1, 2)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestMaxFlow_UnknownStation_Service(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	_, err := s.MaxFlow(context.Background(), id, 1, 99)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownStation))
}

func TestMaxFlow_CachedSecondQuery(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	first, err := s.MaxFlow(context.Background(), id, 1, 2)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := s.MaxFlow(context.Background(), id, 1, 2)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.MaxFlow, second.MaxFlow)
}

func TestMaxFlow_NoCache(t *testing.T) {
	s := NewPlannerService("test", nil, nil, engine.Options{})
	id := registerNetwork(t, s)

	out, err := s.MaxFlow(context.Background(), id, 1, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(5), out.MaxFlow)
	assert.False(t, out.Cached)
}

func TestMaxFlow_CanceledQueryNotCached(t *testing.T) {
	repo := &fakeRepo{}
	planCache := cache.NewPlanCache(cache.NewMemoryCache(nil), 0)
	s := NewPlannerService("test", planCache, repo, engine.Options{})
	id := registerNetwork(t, s)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.MaxFlow(canceled, id, 1, 2)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	assert.Equal(t, 0, repo.count(), "partial result must not reach history")

	// Живой запрос после прерванного считает поток заново
	out, err := s.MaxFlow(context.Background(), id, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.MaxFlow)
	assert.False(t, out.Cached, "partial result must not be served from cache")
}

// ============================================================
// BEST NETWORK
// ============================================================

func TestBestNetwork_Service(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	out, err := s.BestNetwork(context.Background(), id)

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, out.TrackIDs)
	assert.Equal(t, int64(2), out.TotalCost)
	assert.False(t, out.Cached)
}

func TestBestNetwork_CachedSecondQuery(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	first, err := s.BestNetwork(context.Background(), id)
	require.NoError(t, err)

	second, err := s.BestNetwork(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.TrackIDs, second.TrackIDs)
}

func TestBestNetwork_TrackIDsNotSharedAcrossNetworks(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	makeInput := func(name string, trackID int64) *CreateNetworkInput {
		return &CreateNetworkInput{
			Name: name,
			Stations: []StationInput{
				{ID: 1, Name: "A", Occupancy: 5},
				{ID: 2, Name: "B", Occupancy: 5},
			},
			Tracks: []TrackInput{
				{ID: trackID, From: 1, To: 2, Capacity: 10, Cost: 1},
			},
		}
	}

	// Сети совпадают во всём, кроме ID единственной линии
	first, err := s.CreateNetwork(ctx, makeInput("north", 7))
	require.NoError(t, err)
	second, err := s.CreateNetwork(ctx, makeInput("south", 9))
	require.NoError(t, err)

	outFirst, err := s.BestNetwork(ctx, first.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, outFirst.TrackIDs)

	outSecond, err := s.BestNetwork(ctx, second.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, outSecond.TrackIDs,
		"cached selection from another network must not be served")
}

func TestBestNetwork_NetworkNotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.BestNetwork(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

// ============================================================
// PERSISTENCE
// ============================================================

func TestOperationsPersisted(t *testing.T) {
	repo := &fakeRepo{}
	s := NewPlannerService("test", nil, repo, engine.Options{})
	id := registerNetwork(t, s)

	_, err := s.MaxFlow(context.Background(), id, 1, 2)
	require.NoError(t, err)

	_, err = s.BestNetwork(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, 2, repo.count())
	assert.Equal(t, repository.OperationMaxFlow, repo.records[0].Operation)
	assert.Equal(t, repository.OperationBestNetwork, repo.records[1].Operation)
	assert.Equal(t, 3, repo.records[0].StationCount)
	require.NotNil(t, repo.records[0].FromStation)
	assert.Equal(t, int64(1), *repo.records[0].FromStation)
}

func TestDeleteNetwork_PurgesHistory(t *testing.T) {
	repo := &fakeRepo{}
	s := NewPlannerService("test", nil, repo, engine.Options{})
	id := registerNetwork(t, s)

	_, err := s.MaxFlow(context.Background(), id, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, repo.count())

	require.NoError(t, s.DeleteNetwork(context.Background(), id))
	assert.Equal(t, 0, repo.count())
}

func TestHistory_Disabled(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	_, _, err := s.History(context.Background(), id, nil)
	assert.True(t, apperror.Is(err, apperror.CodeUnimplemented))
}

// ============================================================
// PASSENGER DIRECTORY
// ============================================================

func TestPassengers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.AddPassenger(ctx, "alice"))
	require.NoError(t, s.AddPassenger(ctx, "ALBERT"))
	require.NoError(t, s.AddPassenger(ctx, "bob"))

	assert.Equal(t, []string{"Albert", "Alice"}, s.SearchPassengers(ctx, "al"))
	assert.Empty(t, s.SearchPassengers(ctx, ""))
}

func TestAddPassenger_EmptyName(t *testing.T) {
	s := newTestService(t)

	err := s.AddPassenger(context.Background(), "   ")
	assert.True(t, apperror.Is(err, apperror.CodeEmptyName))
}

// ============================================================
// CHECKER SCHEDULING
// ============================================================

func TestScheduleCheckers(t *testing.T) {
	s := newTestService(t)

	out, err := s.ScheduleCheckers(context.Background(), []ShiftInput{
		{Start: 1, End: 3},
		{Start: 3, End: 5},
		{Start: 2, End: 9},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, out.Offered)
	assert.Equal(t, 2, out.Hired)
}

func TestScheduleCheckers_InvalidShift(t *testing.T) {
	s := newTestService(t)

	_, err := s.ScheduleCheckers(context.Background(), []ShiftInput{
		{Start: 5, End: 5},
	})

	assert.True(t, apperror.Is(err, apperror.CodeInvalidShift))
}

func TestScheduleCheckers_Empty(t *testing.T) {
	s := newTestService(t)

	out, err := s.ScheduleCheckers(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, out.Hired)
}

// ============================================================
// CONCURRENCY
// ============================================================

func TestConcurrentOperations(t *testing.T) {
	s := newTestService(t)
	id := registerNetwork(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.MaxFlow(context.Background(), id, 1, 2)
			assert.NoError(t, err)
			assert.Equal(t, int64(5), out.MaxFlow)
		}()

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.AddPassenger(context.Background(), "rider"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"Rider"}, s.SearchPassengers(context.Background(), "ri"))
}
