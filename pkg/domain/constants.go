package domain

import "math"

// Граничные значения пропускной способности
const (
	MaxCapacity int64 = math.MaxInt64
	MinCapacity int64 = 0
)

// Пороговые значения загрузки линий для отчётов
const (
	CriticalUtilizationThreshold = 0.99
	HighUtilizationThreshold     = 0.95
	MediumUtilizationThreshold   = 0.90
	LowUtilizationThreshold      = 0.80
)

// MinInt64 возвращает минимум двух int64
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxInt64 возвращает максимум двух int64
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Utilization возвращает коэффициент использования линии
func Utilization(flow, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(flow) / float64(capacity)
}
