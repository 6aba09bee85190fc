package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сеть
	AttrNetworkID       = "network.id"
	AttrNetworkStations = "network.stations"
	AttrNetworkTracks   = "network.tracks"

	// Планирование
	AttrOperation  = "planner.operation"
	AttrFromID     = "planner.from_id"
	AttrToID       = "planner.to_id"
	AttrIterations = "planner.iterations"
	AttrMaxFlow    = "planner.max_flow"
	AttrTotalCost  = "planner.total_cost"
	AttrCacheHit   = "planner.cache_hit"

	// Расписание
	AttrShiftsOffered  = "schedule.shifts_offered"
	AttrCheckersHired  = "schedule.checkers_hired"
	AttrPassengerCount = "directory.passengers"
)

// NetworkAttributes возвращает атрибуты сети
func NetworkAttributes(networkID string, stations, tracks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrNetworkID, networkID),
		attribute.Int(AttrNetworkStations, stations),
		attribute.Int(AttrNetworkTracks, tracks),
	}
}

// FlowAttributes возвращает атрибуты расчёта потока
func FlowAttributes(fromID, toID, maxFlow, iterations int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrFromID, fromID),
		attribute.Int64(AttrToID, toID),
		attribute.Int64(AttrMaxFlow, maxFlow),
		attribute.Int64(AttrIterations, iterations),
	}
}

// ScheduleAttributes возвращает атрибуты расписания контролёров
func ScheduleAttributes(offered, hired int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrShiftsOffered, offered),
		attribute.Int(AttrCheckersHired, hired),
	}
}
