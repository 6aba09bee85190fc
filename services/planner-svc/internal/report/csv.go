// services/planner-svc/internal/report/csv.go
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	g.writeHeader(cw, data)
	g.writeNetworkInfo(cw, data)
	g.writeFlow(cw, data)
	g.writeSelection(cw, data)

	if g.ShouldIncludeRawData(data) {
		g.writeStations(cw, data)
		g.writeTracks(cw, data)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeHeader(w *csvWriter, data *ReportData) {
	w.Write([]string{"# " + g.GetTitle(data)})
	w.Write([]string{"Generated", time.Now().Format("2006-01-02 15:04:05")})
	w.Write([]string{""})
}

func (g *CSVGenerator) writeNetworkInfo(w *csvWriter, data *ReportData) {
	w.Write([]string{"Network Info"})
	w.Write([]string{"Network ID", data.NetworkID})
	if data.NetworkName != "" {
		w.Write([]string{"Name", data.NetworkName})
	}
	if !data.CreatedAt.IsZero() {
		w.Write([]string{"Created", g.FormatTimestamp(data.CreatedAt)})
	}
	w.Write([]string{"Stations", fmt.Sprintf("%d", len(data.Stations))})
	w.Write([]string{"Tracks", fmt.Sprintf("%d", len(data.Tracks))})
	w.Write([]string{""})
}

func (g *CSVGenerator) writeFlow(w *csvWriter, data *ReportData) {
	if data.Flow == nil {
		return
	}

	w.Write([]string{"Flow Results"})
	w.Write([]string{"From Station", fmt.Sprintf("%d", data.Flow.From)})
	w.Write([]string{"To Station", fmt.Sprintf("%d", data.Flow.To)})
	w.Write([]string{"Max Flow", fmt.Sprintf("%d", data.Flow.MaxFlow)})
	w.Write([]string{"Iterations", fmt.Sprintf("%d", data.Flow.Iterations)})
	w.Write([]string{"Computation Time (ms)", fmt.Sprintf("%.2f", data.Flow.ComputationTimeMs)})
	w.Write([]string{""})
}

func (g *CSVGenerator) writeSelection(w *csvWriter, data *ReportData) {
	if data.Selection == nil {
		return
	}

	w.Write([]string{"Selected Network"})
	w.Write([]string{"Selected Tracks", fmt.Sprintf("%d", len(data.Selection.TrackIDs))})
	w.Write([]string{"Total Cost", fmt.Sprintf("%d", data.Selection.TotalCost)})
	w.Write([]string{"Total Goodness", fmt.Sprintf("%d", data.Selection.TotalGoodness)})
	w.Write([]string{"Computation Time (ms)", fmt.Sprintf("%.2f", data.Selection.ComputationTimeMs)})
	w.Write([]string{""})
}

func (g *CSVGenerator) writeStations(w *csvWriter, data *ReportData) {
	if len(data.Stations) == 0 {
		return
	}

	w.Write([]string{"Stations"})
	w.Write([]string{"ID", "Name", "Occupancy", "Type"})
	for _, s := range data.Stations {
		w.Write([]string{
			fmt.Sprintf("%d", s.ID),
			s.Name,
			fmt.Sprintf("%d", s.Occupancy),
			s.Type.String(),
		})
	}
	w.Write([]string{""})
}

func (g *CSVGenerator) writeTracks(w *csvWriter, data *ReportData) {
	if len(data.Tracks) == 0 {
		return
	}

	occ := g.Occupancies(data)
	selected := g.SelectedTracks(data)

	w.Write([]string{"Tracks"})
	w.Write([]string{"ID", "From", "To", "Capacity", "Cost", "Effective Capacity", "Goodness", "Selected"})
	for _, t := range data.Tracks {
		w.Write([]string{
			fmt.Sprintf("%d", t.ID),
			fmt.Sprintf("%d", t.From),
			fmt.Sprintf("%d", t.To),
			fmt.Sprintf("%d", t.Capacity),
			fmt.Sprintf("%d", t.Cost),
			fmt.Sprintf("%d", g.TrackEffectiveCapacity(occ, t)),
			fmt.Sprintf("%d", g.TrackGoodness(occ, t)),
			fmt.Sprintf("%v", selected[t.ID]),
		})
	}
}
