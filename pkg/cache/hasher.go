package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"transit/pkg/domain"
)

// NetworkHash вычисляет хеш сети для использования как ключ кэша
func NetworkHash(network *domain.Network) string {
	if network == nil {
		return ""
	}

	data := networkToCanonical(network)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// networkToCanonical создаёт детерминированное представление сети
func networkToCanonical(network *domain.Network) []byte {
	// Сортируем станции по ID
	stationIDs := make([]domain.StationID, 0, len(network.Stations))
	occupancies := make(map[domain.StationID]int64)
	for _, station := range network.Stations {
		stationIDs = append(stationIDs, station.ID)
		occupancies[station.ID] = station.Occupancy
	}
	sort.Slice(stationIDs, func(i, j int) bool {
		return stationIDs[i] < stationIDs[j]
	})

	// Сортируем линии по ID: кэшированный остов состоит из ID линий,
	// поэтому они часть канонической формы
	type trackData struct {
		id       domain.TrackID
		from, to domain.StationID
		capacity int64
		cost     int64
	}
	tracks := make([]trackData, 0, len(network.Tracks))
	for _, t := range network.Tracks {
		tracks = append(tracks, trackData{t.ID, t.From, t.To, t.Capacity, t.Cost})
	}
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].id < tracks[j].id
	})

	// Строим каноническую строку
	var result []byte

	for _, id := range stationIDs {
		result = append(result, []byte(fmt.Sprintf("s:%d:%d;", id, occupancies[id]))...)
	}

	for _, t := range tracks {
		result = append(result, []byte(fmt.Sprintf("t:%d:%d:%d:%d:%d;",
			t.id, t.from, t.to, t.capacity, t.cost))...)
	}

	return result
}

// BuildFlowKey строит ключ кэша для результата расчёта потока
func BuildFlowKey(networkHash string, from, to domain.StationID) string {
	return fmt.Sprintf("flow:%s:%d:%d", networkHash, from, to)
}

// BuildBestNetworkKey строит ключ кэша для оптимального остова
func BuildBestNetworkKey(networkHash string) string {
	return fmt.Sprintf("best:%s", networkHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
