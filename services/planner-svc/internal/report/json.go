// services/planner-svc/internal/report/json.go
package report

import (
	"context"
	"encoding/json"
	"time"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

// JSONReport структура JSON отчёта
type JSONReport struct {
	Metadata  JSONMetadata   `json:"metadata"`
	Network   JSONNetwork    `json:"network"`
	Flow      *JSONFlow      `json:"flow,omitempty"`
	Selection *JSONSelection `json:"selection,omitempty"`
	Stations  []JSONStation  `json:"stations,omitempty"`
	Tracks    []JSONTrack    `json:"tracks,omitempty"`
}

type JSONMetadata struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	GeneratedAt string `json:"generatedAt"`
	Version     string `json:"version"`
}

type JSONNetwork struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	StationCount int    `json:"stationCount"`
	TrackCount   int    `json:"trackCount"`
}

type JSONFlow struct {
	From              int64   `json:"from"`
	To                int64   `json:"to"`
	MaxFlow           int64   `json:"maxFlow"`
	Iterations        int64   `json:"iterations"`
	ComputationTimeMs float64 `json:"computationTimeMs"`
}

type JSONSelection struct {
	TrackIDs          []int64 `json:"trackIds"`
	TotalCost         int64   `json:"totalCost"`
	TotalGoodness     int64   `json:"totalGoodness"`
	ComputationTimeMs float64 `json:"computationTimeMs"`
}

type JSONStation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Occupancy int64  `json:"occupancy"`
	Type      string `json:"type"`
}

type JSONTrack struct {
	ID                int64 `json:"id"`
	From              int64 `json:"from"`
	To                int64 `json:"to"`
	Capacity          int64 `json:"capacity"`
	Cost              int64 `json:"cost"`
	EffectiveCapacity int64 `json:"effectiveCapacity"`
	Goodness          int64 `json:"goodness"`
	Selected          bool  `json:"selected,omitempty"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	report := JSONReport{
		Metadata: JSONMetadata{
			Title:       g.GetTitle(data),
			Company:     g.GetCompany(data),
			GeneratedAt: time.Now().Format(time.RFC3339),
			Version:     "1.0",
		},
		Network: JSONNetwork{
			ID:           data.NetworkID,
			Name:         data.NetworkName,
			StationCount: len(data.Stations),
			TrackCount:   len(data.Tracks),
		},
	}

	if !data.CreatedAt.IsZero() {
		report.Network.CreatedAt = data.CreatedAt.Format(time.RFC3339)
	}

	if data.Flow != nil {
		report.Flow = &JSONFlow{
			From:              int64(data.Flow.From),
			To:                int64(data.Flow.To),
			MaxFlow:           data.Flow.MaxFlow,
			Iterations:        data.Flow.Iterations,
			ComputationTimeMs: data.Flow.ComputationTimeMs,
		}
	}

	if data.Selection != nil {
		report.Selection = &JSONSelection{
			TrackIDs:          data.Selection.TrackIDs,
			TotalCost:         data.Selection.TotalCost,
			TotalGoodness:     data.Selection.TotalGoodness,
			ComputationTimeMs: data.Selection.ComputationTimeMs,
		}
	}

	if g.ShouldIncludeRawData(data) {
		occ := g.Occupancies(data)
		selected := g.SelectedTracks(data)

		for _, s := range data.Stations {
			report.Stations = append(report.Stations, JSONStation{
				ID:        int64(s.ID),
				Name:      s.Name,
				Occupancy: s.Occupancy,
				Type:      s.Type.String(),
			})
		}

		for _, t := range data.Tracks {
			report.Tracks = append(report.Tracks, JSONTrack{
				ID:                int64(t.ID),
				From:              int64(t.From),
				To:                int64(t.To),
				Capacity:          t.Capacity,
				Cost:              t.Cost,
				EffectiveCapacity: g.TrackEffectiveCapacity(occ, t),
				Goodness:          g.TrackGoodness(occ, t),
				Selected:          selected[t.ID],
			})
		}
	}

	return json.MarshalIndent(report, "", "  ")
}
