package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"transit/pkg/apperror"
	"transit/pkg/cache"
	"transit/pkg/domain"
	"transit/pkg/logger"
	"transit/pkg/metrics"
	"transit/pkg/telemetry"
	"transit/services/planner-svc/internal/directory"
	"transit/services/planner-svc/internal/engine"
	"transit/services/planner-svc/internal/repository"
	"transit/services/planner-svc/internal/schedule"
)

// PlannerService держит реестр загруженных сетей и выполняет операции
// планирования поверх них.
type PlannerService struct {
	version    string
	metrics    *metrics.Metrics
	planCache  *cache.PlanCache
	repo       repository.PlanRepository
	engineOpts engine.Options

	mu       sync.RWMutex
	networks map[string]*plannedNetwork

	dirMu      sync.RWMutex
	passengers *directory.Trie
}

type plannedNetwork struct {
	engine    *engine.Engine
	network   *domain.Network
	name      string
	createdAt time.Time
}

// NewPlannerService создаёт сервис. planCache и repo могут быть nil,
// тогда кэширование и история операций отключены.
func NewPlannerService(
	version string,
	planCache *cache.PlanCache,
	repo repository.PlanRepository,
	engineOpts engine.Options,
) *PlannerService {
	return &PlannerService{
		version:    version,
		metrics:    metrics.Get(),
		planCache:  planCache,
		repo:       repo,
		engineOpts: engineOpts,
		networks:   make(map[string]*plannedNetwork),
		passengers: directory.New(),
	}
}

// ============================================================
// NETWORK REGISTRY
// ============================================================

// StationInput входная запись станции
type StationInput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Occupancy int64  `json:"occupancy"`
}

// TrackInput входная запись линии
type TrackInput struct {
	ID       int64 `json:"id"`
	From     int64 `json:"from"`
	To       int64 `json:"to"`
	Capacity int64 `json:"capacity"`
	Cost     int64 `json:"cost"`
}

// CreateNetworkInput запрос на загрузку сети
type CreateNetworkInput struct {
	Name     string         `json:"name,omitempty"`
	Stations []StationInput `json:"stations"`
	Tracks   []TrackInput   `json:"tracks"`
}

// CreateNetworkOutput результат загрузки сети
type CreateNetworkOutput struct {
	NetworkID    string `json:"network_id"`
	StationCount int    `json:"station_count"`
	TrackCount   int    `json:"track_count"`
}

// CreateNetwork строит неизменяемую сеть из записей станций и линий и
// регистрирует её под новым идентификатором.
func (s *PlannerService) CreateNetwork(ctx context.Context, in *CreateNetworkInput) (*CreateNetworkOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.CreateNetwork",
		trace.WithAttributes(
			attribute.Int("stations", len(in.Stations)),
			attribute.Int("tracks", len(in.Tracks)),
		),
	)
	defer span.End()

	stations := make([]domain.Station, 0, len(in.Stations))
	for _, st := range in.Stations {
		stations = append(stations, domain.Station{
			ID:        domain.StationID(st.ID),
			Name:      st.Name,
			Occupancy: st.Occupancy,
		})
	}

	tracks := make([]domain.Track, 0, len(in.Tracks))
	for _, tr := range in.Tracks {
		tracks = append(tracks, domain.Track{
			ID:       domain.TrackID(tr.ID),
			From:     domain.StationID(tr.From),
			To:       domain.StationID(tr.To),
			Capacity: tr.Capacity,
			Cost:     tr.Cost,
		})
	}

	eng, err := engine.New(tracks, stations, s.engineOpts)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	network := domain.NewNetwork()
	network.Name = in.Name
	for i := range stations {
		network.AddStation(stations[i].Clone())
	}
	for i := range tracks {
		network.AddTrack(tracks[i].Clone())
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.networks[id] = &plannedNetwork{
		engine:    eng,
		network:   network,
		name:      in.Name,
		createdAt: time.Now(),
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordNetworkSize("create", len(stations), len(tracks))
	}

	logger.Log.Info("Network registered",
		"network_id", id,
		"stations", len(stations),
		"tracks", len(tracks),
	)

	return &CreateNetworkOutput{
		NetworkID:    id,
		StationCount: len(stations),
		TrackCount:   len(tracks),
	}, nil
}

// DeleteNetwork снимает сеть с учёта и чистит связанные кэши и историю.
func (s *PlannerService) DeleteNetwork(ctx context.Context, networkID string) error {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.DeleteNetwork")
	defer span.End()

	s.mu.Lock()
	entry, ok := s.networks[networkID]
	if ok {
		delete(s.networks, networkID)
	}
	s.mu.Unlock()

	if !ok {
		return errNetworkNotFound(networkID)
	}

	if s.planCache != nil {
		if err := s.planCache.Invalidate(ctx, entry.network); err != nil {
			logger.Log.Warn("Failed to invalidate plan cache", "network_id", networkID, "error", err)
		}
	}

	if s.repo != nil {
		if _, err := s.repo.DeleteByNetworkID(ctx, networkID); err != nil {
			logger.Log.Warn("Failed to delete network history", "network_id", networkID, "error", err)
		}
	}

	return nil
}

// NetworkSnapshot снимок зарегистрированной сети
type NetworkSnapshot struct {
	NetworkID string
	Name      string
	Stations  []domain.Station
	Tracks    []domain.Track
	CreatedAt time.Time
}

// Snapshot возвращает записи станций и линий, из которых построена сеть.
func (s *PlannerService) Snapshot(_ context.Context, networkID string) (*NetworkSnapshot, error) {
	entry, err := s.lookup(networkID)
	if err != nil {
		return nil, err
	}

	return &NetworkSnapshot{
		NetworkID: networkID,
		Name:      entry.name,
		Stations:  entry.engine.Stations(),
		Tracks:    entry.engine.Tracks(),
		CreatedAt: entry.createdAt,
	}, nil
}

func (s *PlannerService) lookup(networkID string) (*plannedNetwork, error) {
	s.mu.RLock()
	entry, ok := s.networks[networkID]
	s.mu.RUnlock()

	if !ok {
		return nil, errNetworkNotFound(networkID)
	}
	return entry, nil
}

func errNetworkNotFound(networkID string) error {
	return apperror.New(apperror.CodeNotFound, "network not found").
		WithDetails("network_id", networkID)
}

// ============================================================
// FLOW AND SPANNING NETWORK QUERIES
// ============================================================

// FlowOutput результат запроса максимального потока
type FlowOutput struct {
	NetworkID         string  `json:"network_id"`
	From              int64   `json:"from"`
	To                int64   `json:"to"`
	MaxFlow           int64   `json:"max_flow"`
	Iterations        int64   `json:"iterations"`
	Cached            bool    `json:"cached"`
	ComputationTimeMs float64 `json:"computation_time_ms"`
}

// MaxFlow считает максимальный поток пассажиров между двумя станциями.
func (s *PlannerService) MaxFlow(ctx context.Context, networkID string, from, to int64) (*FlowOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.MaxFlow",
		trace.WithAttributes(
			attribute.String("network_id", networkID),
			attribute.Int64("from", from),
			attribute.Int64("to", to),
		),
	)
	defer span.End()

	entry, err := s.lookup(networkID)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	// Проверяем кэш
	if s.planCache != nil {
		cached, found, cerr := s.planCache.GetFlow(ctx, entry.network, domain.StationID(from), domain.StationID(to))
		if cerr == nil && found {
			telemetry.AddEvent(ctx, "cache_hit", attribute.Int64("max_flow", cached.MaxFlow))
			span.SetAttributes(attribute.Bool("cache_hit", true))
			if s.metrics != nil {
				s.metrics.RecordCacheResult(true)
			}

			return &FlowOutput{
				NetworkID:  networkID,
				From:       from,
				To:         to,
				MaxFlow:    cached.MaxFlow,
				Iterations: cached.Iterations,
				Cached:     true,
			}, nil
		}
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if s.metrics != nil {
		s.metrics.RecordCacheResult(false)
	}

	start := time.Now()
	result, err := entry.engine.SolveFlow(ctx, domain.StationID(from), domain.StationID(to))
	elapsed := time.Since(start)

	completed := err == nil && !result.Canceled

	if s.metrics != nil {
		s.metrics.RecordPlanOperation(repository.OperationMaxFlow, completed, elapsed)
	}

	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	// Прерванный запрос несёт частичный поток, кэшировать его нельзя
	if result.Canceled {
		cancelErr := apperror.New(apperror.CodeTimeout, "max flow query canceled before completion").
			WithDetails("network_id", networkID)
		telemetry.SetError(ctx, cancelErr)
		return nil, cancelErr
	}

	if s.metrics != nil {
		s.metrics.RecordMaxFlow(networkID, result.MaxFlow)
	}

	out := &FlowOutput{
		NetworkID:         networkID,
		From:              from,
		To:                to,
		MaxFlow:           result.MaxFlow,
		Iterations:        result.Iterations,
		ComputationTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}

	// Сохраняем в кэш
	if s.planCache != nil {
		cacheErr := s.planCache.SetFlow(ctx, entry.network, &cache.CachedFlowResult{
			From:              from,
			To:                to,
			MaxFlow:           result.MaxFlow,
			Iterations:        result.Iterations,
			ComputationTimeMs: out.ComputationTimeMs,
			ComputedAt:        time.Now(),
		}, 0)
		if cacheErr != nil {
			logger.Log.Warn("Failed to cache flow result", "error", cacheErr)
		}
	}

	s.persist(ctx, entry, &repository.PlanRecord{
		NetworkID:         networkID,
		Operation:         repository.OperationMaxFlow,
		FromStation:       &from,
		ToStation:         &to,
		ResultValue:       result.MaxFlow,
		Iterations:        result.Iterations,
		ComputationTimeMs: out.ComputationTimeMs,
	}, map[string]any{"from": from, "to": to}, out)

	return out, nil
}

// BestNetworkOutput результат выбора оптимальной сети
type BestNetworkOutput struct {
	NetworkID         string  `json:"network_id"`
	TrackIDs          []int64 `json:"track_ids"`
	TotalCost         int64   `json:"total_cost"`
	TotalGoodness     int64   `json:"total_goodness"`
	Cached            bool    `json:"cached"`
	ComputationTimeMs float64 `json:"computation_time_ms"`
}

// BestNetwork выбирает жадный остов сети по качеству линий.
func (s *PlannerService) BestNetwork(ctx context.Context, networkID string) (*BestNetworkOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.BestNetwork",
		trace.WithAttributes(attribute.String("network_id", networkID)),
	)
	defer span.End()

	entry, err := s.lookup(networkID)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	// Проверяем кэш
	if s.planCache != nil {
		cached, found, cerr := s.planCache.GetBestNetwork(ctx, entry.network)
		if cerr == nil && found {
			telemetry.AddEvent(ctx, "cache_hit", attribute.Int("track_count", len(cached.TrackIDs)))
			span.SetAttributes(attribute.Bool("cache_hit", true))
			if s.metrics != nil {
				s.metrics.RecordCacheResult(true)
			}

			return &BestNetworkOutput{
				NetworkID:     networkID,
				TrackIDs:      cached.TrackIDs,
				TotalCost:     cached.TotalCost,
				TotalGoodness: cached.TotalGoodness,
				Cached:        true,
			}, nil
		}
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if s.metrics != nil {
		s.metrics.RecordCacheResult(false)
	}

	start := time.Now()
	result := entry.engine.SelectNetwork()
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordPlanOperation(repository.OperationBestNetwork, true, elapsed)
		s.metrics.RecordNetworkSize(repository.OperationBestNetwork, entry.engine.StationCount(), len(result.TrackIDs))
	}

	trackIDs := make([]int64, 0, len(result.TrackIDs))
	for _, id := range result.TrackIDs {
		trackIDs = append(trackIDs, int64(id))
	}

	out := &BestNetworkOutput{
		NetworkID:         networkID,
		TrackIDs:          trackIDs,
		TotalCost:         result.TotalCost,
		TotalGoodness:     result.TotalGoodness,
		ComputationTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}

	// Сохраняем в кэш
	if s.planCache != nil {
		cacheErr := s.planCache.SetBestNetwork(ctx, entry.network, &cache.CachedBestNetwork{
			TrackIDs:          trackIDs,
			TotalCost:         result.TotalCost,
			TotalGoodness:     result.TotalGoodness,
			ComputationTimeMs: out.ComputationTimeMs,
			ComputedAt:        time.Now(),
		}, 0)
		if cacheErr != nil {
			logger.Log.Warn("Failed to cache best network result", "error", cacheErr)
		}
	}

	s.persist(ctx, entry, &repository.PlanRecord{
		NetworkID:         networkID,
		Operation:         repository.OperationBestNetwork,
		ResultValue:       result.TotalCost,
		ComputationTimeMs: out.ComputationTimeMs,
	}, nil, out)

	return out, nil
}

// persist пишет операцию в историю, ошибки не прерывают запрос
func (s *PlannerService) persist(ctx context.Context, entry *plannedNetwork, rec *repository.PlanRecord, request, result any) {
	if s.repo == nil {
		return
	}

	rec.StationCount = entry.engine.StationCount()
	rec.TrackCount = entry.engine.TrackCount()

	if request != nil {
		if data, err := json.Marshal(request); err == nil {
			rec.RequestData = data
		}
	}
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			rec.ResultData = data
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		logger.Log.Warn("Failed to persist plan record",
			"network_id", rec.NetworkID,
			"operation", rec.Operation,
			"error", err,
		)
	}
}

// History возвращает страницу истории операций сети.
func (s *PlannerService) History(ctx context.Context, networkID string, opts *repository.ListOptions) ([]*repository.PlanSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.History",
		trace.WithAttributes(attribute.String("network_id", networkID)),
	)
	defer span.End()

	if s.repo == nil {
		return nil, 0, apperror.New(apperror.CodeUnimplemented, "plan history is disabled")
	}

	if _, err := s.lookup(networkID); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, networkID, opts)
}

// ============================================================
// PASSENGER DIRECTORY
// ============================================================

// AddPassenger регистрирует пассажира в справочнике.
func (s *PlannerService) AddPassenger(ctx context.Context, name string) error {
	_, span := telemetry.StartSpan(ctx, "PlannerService.AddPassenger")
	defer span.End()

	if domain.NormalizeName(name) == "" {
		return apperror.New(apperror.CodeEmptyName, "passenger name is empty")
	}

	s.dirMu.Lock()
	s.passengers.Insert(name)
	s.dirMu.Unlock()

	return nil
}

// SearchPassengers ищет пассажиров по префиксу имени.
func (s *PlannerService) SearchPassengers(ctx context.Context, prefix string) []string {
	_, span := telemetry.StartSpan(ctx, "PlannerService.SearchPassengers",
		trace.WithAttributes(attribute.String("prefix", prefix)),
	)
	defer span.End()

	s.dirMu.RLock()
	defer s.dirMu.RUnlock()

	return s.passengers.PrefixSearch(prefix)
}

// ============================================================
// CHECKER SCHEDULING
// ============================================================

// ShiftInput кандидатная смена контролёра
type ShiftInput struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ScheduleOutput результат планирования смен
type ScheduleOutput struct {
	Offered int `json:"offered"`
	Hired   int `json:"hired"`
}

// ScheduleCheckers выбирает максимальное число непересекающихся смен.
func (s *PlannerService) ScheduleCheckers(ctx context.Context, shifts []ShiftInput) (*ScheduleOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.ScheduleCheckers",
		trace.WithAttributes(attribute.Int("offered", len(shifts))),
	)
	defer span.End()

	candidates := make([]domain.CheckerShift, 0, len(shifts))
	for i, sh := range shifts {
		candidate := domain.CheckerShift{Start: sh.Start, End: sh.End}
		if !candidate.Valid() {
			err := apperror.New(apperror.CodeInvalidShift, "shift must end after it starts").
				WithDetails("index", i)
			telemetry.SetError(ctx, err)
			if s.metrics != nil {
				s.metrics.RecordCheckersHired(false, 0)
			}
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	hired := schedule.MaxNonOverlapping(candidates)

	telemetry.AddEvent(ctx, "checkers_scheduled",
		telemetry.ScheduleAttributes(len(candidates), hired)...,
	)
	if s.metrics != nil {
		s.metrics.RecordCheckersHired(true, hired)
	}

	return &ScheduleOutput{
		Offered: len(shifts),
		Hired:   hired,
	}, nil
}

// Version возвращает версию сервиса.
func (s *PlannerService) Version() string {
	return s.version
}
