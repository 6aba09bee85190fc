package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"transit/pkg/domain"
)

// PlanCache специализированный кэш для результатов планировщика
type PlanCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedFlowResult кэшированный результат расчёта потока
type CachedFlowResult struct {
	From              int64     `json:"from"`
	To                int64     `json:"to"`
	MaxFlow           int64     `json:"max_flow"`
	Iterations        int64     `json:"iterations"`
	ComputationTimeMs float64   `json:"computation_time_ms"`
	ComputedAt        time.Time `json:"computed_at"`
}

// CachedBestNetwork кэшированный результат выбора остовной сети
type CachedBestNetwork struct {
	TrackIDs          []int64   `json:"track_ids"`
	TotalCost         int64     `json:"total_cost"`
	TotalGoodness     int64     `json:"total_goodness"`
	ComputationTimeMs float64   `json:"computation_time_ms"`
	ComputedAt        time.Time `json:"computed_at"`
}

// NewPlanCache создаёт кэш для результатов планировщика
func NewPlanCache(cache Cache, defaultTTL time.Duration) *PlanCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &PlanCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// GetFlow получает кэшированный результат потока
func (pc *PlanCache) GetFlow(ctx context.Context, network *domain.Network, from, to domain.StationID) (*CachedFlowResult, bool, error) {
	hash := NetworkHash(network)
	key := BuildFlowKey(hash, from, to)

	data, err := pc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedFlowResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// SetFlow сохраняет результат потока в кэш
func (pc *PlanCache) SetFlow(ctx context.Context, network *domain.Network, result *CachedFlowResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	hash := NetworkHash(network)
	key := BuildFlowKey(hash, domain.StationID(result.From), domain.StationID(result.To))

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return pc.cache.Set(ctx, key, data, ttl)
}

// GetBestNetwork получает кэшированный результат остовной сети
func (pc *PlanCache) GetBestNetwork(ctx context.Context, network *domain.Network) (*CachedBestNetwork, bool, error) {
	key := BuildBestNetworkKey(NetworkHash(network))

	data, err := pc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedBestNetwork
	if err := json.Unmarshal(data, &result); err != nil {
		_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// SetBestNetwork сохраняет результат остовной сети в кэш
func (pc *PlanCache) SetBestNetwork(ctx context.Context, network *domain.Network, result *CachedBestNetwork, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	key := BuildBestNetworkKey(NetworkHash(network))

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return pc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет кэш для конкретной сети
func (pc *PlanCache) Invalidate(ctx context.Context, network *domain.Network) error {
	hash := NetworkHash(network)
	if _, err := pc.cache.DeleteByPattern(ctx, fmt.Sprintf("flow:%s:*", hash)); err != nil {
		return err
	}
	_, err := pc.cache.DeleteByPattern(ctx, fmt.Sprintf("best:%s", hash))
	return err
}

// InvalidateAll удаляет весь кэш планировщика
func (pc *PlanCache) InvalidateAll(ctx context.Context) (int64, error) {
	flows, err := pc.cache.DeleteByPattern(ctx, "flow:*")
	if err != nil {
		return flows, err
	}
	best, err := pc.cache.DeleteByPattern(ctx, "best:*")
	return flows + best, err
}
