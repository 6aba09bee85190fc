// services/planner-svc/internal/report/report.go

// Package report собирает отчёты по транспортной сети в форматах
// JSON, CSV, Excel и PDF.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"transit/pkg/apperror"
	"transit/pkg/domain"
)

// Format формат отчёта
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat разбирает строковое обозначение формата
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperror.New(apperror.CodeInvalidArgument, "unsupported report format").
			WithDetails("format", s)
	}
}

// ContentType возвращает MIME-тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension возвращает расширение файла для формата
func (f Format) Extension() string {
	switch f {
	case FormatXLSX:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// Options настройки генерации отчёта
type Options struct {
	Title          string
	CompanyName    string
	IncludeRawData bool
	MaxTableRows   int
	PageNumbers    bool
}

// FlowSummary результат расчёта максимального потока между двумя станциями
type FlowSummary struct {
	From              domain.StationID
	To                domain.StationID
	MaxFlow           int64
	Iterations        int64
	ComputationTimeMs float64
}

// SelectionSummary результат отбора остовной сети
type SelectionSummary struct {
	TrackIDs          []int64
	TotalCost         int64
	TotalGoodness     int64
	ComputationTimeMs float64
}

// ReportData данные для генерации отчёта
type ReportData struct {
	NetworkID   string
	NetworkName string
	CreatedAt   time.Time

	// Состав сети
	Stations []domain.Station
	Tracks   []domain.Track

	// Результаты расчётов (опциональные секции)
	Flow      *FlowSummary
	Selection *SelectionSummary

	Options *Options
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	Format() Format
}

// ForFormat возвращает генератор для формата
func ForFormat(f Format) (Generator, error) {
	switch f {
	case FormatJSON:
		return NewJSONGenerator(), nil
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatXLSX:
		return NewExcelGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	default:
		return nil, apperror.New(apperror.CodeInvalidArgument, "unsupported report format").
			WithDetails("format", string(f))
	}
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *ReportData) string {
	if data.Options != nil && data.Options.Title != "" {
		return data.Options.Title
	}
	if data.NetworkName != "" {
		return fmt.Sprintf("Transit Network Report: %s", data.NetworkName)
	}
	return "Transit Network Report"
}

// GetCompany возвращает название компании для футера
func (b *BaseGenerator) GetCompany(data *ReportData) string {
	if data.Options != nil && data.Options.CompanyName != "" {
		return data.Options.CompanyName
	}
	return "Transit Planner"
}

// ShouldIncludeRawData проверяет нужно ли включать таблицы станций и линий
func (b *BaseGenerator) ShouldIncludeRawData(data *ReportData) bool {
	if data.Options == nil {
		return true
	}
	return data.Options.IncludeRawData
}

// MaxTableRows возвращает предел строк для табличных секций
func (b *BaseGenerator) MaxTableRows(data *ReportData) int {
	if data.Options == nil || data.Options.MaxTableRows <= 0 {
		return 30
	}
	return data.Options.MaxTableRows
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// Occupancies строит индекс вместимостей станций по ID
func (b *BaseGenerator) Occupancies(data *ReportData) map[domain.StationID]int64 {
	occ := make(map[domain.StationID]int64, len(data.Stations))
	for _, s := range data.Stations {
		occ[s.ID] = s.Occupancy
	}
	return occ
}

// TrackEffectiveCapacity возвращает пропускную способность линии
// с учётом вместимости конечных станций
func (b *BaseGenerator) TrackEffectiveCapacity(occ map[domain.StationID]int64, t domain.Track) int64 {
	return t.EffectiveCapacity(occ[t.From], occ[t.To])
}

// TrackGoodness возвращает отношение эффективной пропускной
// способности линии к её стоимости
func (b *BaseGenerator) TrackGoodness(occ map[domain.StationID]int64, t domain.Track) int64 {
	if t.Cost <= 0 {
		return 0
	}
	return b.TrackEffectiveCapacity(occ, t) / t.Cost
}

// SelectedTracks строит множество линий, отобранных в остовную сеть
func (b *BaseGenerator) SelectedTracks(data *ReportData) map[domain.TrackID]bool {
	if data.Selection == nil {
		return nil
	}
	selected := make(map[domain.TrackID]bool, len(data.Selection.TrackIDs))
	for _, id := range data.Selection.TrackIDs {
		selected[domain.TrackID(id)] = true
	}
	return selected
}
