package repository

import (
	"context"
	"errors"
	"time"
)

// Стандартные ошибки
var ErrPlanNotFound = errors.New("plan record not found")

// Типы операций планировщика
const (
	OperationMaxFlow     = "max_flow"
	OperationBestNetwork = "best_network"
	OperationSchedule    = "schedule_checkers"
)

// PlanRecord модель выполненной операции планирования
type PlanRecord struct {
	ID                string
	NetworkID         string
	Operation         string
	FromStation       *int64 // только для max_flow
	ToStation         *int64 // только для max_flow
	ResultValue       int64  // максимальный поток, суммарная стоимость или число смен
	Iterations        int64
	ComputationTimeMs float64
	StationCount      int
	TrackCount        int
	RequestData       []byte // JSON
	ResultData        []byte // JSON
	CreatedAt         time.Time
}

// PlanSummary краткая информация об операции
type PlanSummary struct {
	ID                string
	NetworkID         string
	Operation         string
	ResultValue       int64
	ComputationTimeMs float64
	StationCount      int
	TrackCount        int
	CreatedAt         time.Time
}

// SortOrder порядок сортировки
type SortOrder string

const (
	SortByCreatedDesc SortOrder = "created_desc"
	SortByCreatedAsc  SortOrder = "created_asc"
	SortByResultDesc  SortOrder = "result_desc"
)

// ListOptions опции для списка
type ListOptions struct {
	Limit     int
	Offset    int
	Operation string // фильтр по типу операции, пустая строка означает все
	Sort      SortOrder
}

// NetworkStatistics статистика операций по одной сети
type NetworkStatistics struct {
	TotalOperations          int
	AverageComputationTimeMs float64
	OperationsByType         map[string]int
}

// PlanRepository интерфейс репозитория истории планирования
type PlanRepository interface {
	Create(ctx context.Context, rec *PlanRecord) error
	GetByID(ctx context.Context, id string) (*PlanRecord, error)
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, networkID string, opts *ListOptions) ([]*PlanSummary, int64, error)
	DeleteByNetworkID(ctx context.Context, networkID string) (int64, error)

	GetNetworkStatistics(ctx context.Context, networkID string) (*NetworkStatistics, error)
}
