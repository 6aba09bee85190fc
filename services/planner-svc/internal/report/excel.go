// services/planner-svc/internal/report/excel.go
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatXLSX
}

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	g.writeSummary(f, data, headerStyle)

	if g.ShouldIncludeRawData(data) {
		g.writeStations(f, data, headerStyle)
		g.writeTracks(f, data, headerStyle)
	}

	// Удаляем дефолтный лист
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *ReportData, headerStyle int) {
	sheetName := "Summary"
	f.NewSheet(sheetName)

	row := 1

	f.SetCellValue(sheetName, cellAddr("A", row), g.GetTitle(data))
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("D", row))
	row += 2

	f.SetCellValue(sheetName, cellAddr("A", row), "Network Information")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Network ID")
	f.SetCellValue(sheetName, cellAddr("B", row), data.NetworkID)
	row++

	if data.NetworkName != "" {
		f.SetCellValue(sheetName, cellAddr("A", row), "Name")
		f.SetCellValue(sheetName, cellAddr("B", row), data.NetworkName)
		row++
	}

	if !data.CreatedAt.IsZero() {
		f.SetCellValue(sheetName, cellAddr("A", row), "Created")
		f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(data.CreatedAt))
		row++
	}

	f.SetCellValue(sheetName, cellAddr("A", row), "Stations")
	f.SetCellValue(sheetName, cellAddr("B", row), len(data.Stations))
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Tracks")
	f.SetCellValue(sheetName, cellAddr("B", row), len(data.Tracks))
	row += 2

	if data.Flow != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Flow Results")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "From Station")
		f.SetCellValue(sheetName, cellAddr("B", row), int64(data.Flow.From))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "To Station")
		f.SetCellValue(sheetName, cellAddr("B", row), int64(data.Flow.To))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Max Flow")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Flow.MaxFlow)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Iterations")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Flow.Iterations)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Computation Time (ms)")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Flow.ComputationTimeMs)
		row += 2
	}

	if data.Selection != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Selected Network")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Selected Tracks")
		f.SetCellValue(sheetName, cellAddr("B", row), len(data.Selection.TrackIDs))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Total Cost")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Selection.TotalCost)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Total Goodness")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Selection.TotalGoodness)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Computation Time (ms)")
		f.SetCellValue(sheetName, cellAddr("B", row), data.Selection.ComputationTimeMs)
	}

	f.SetColWidth(sheetName, "A", "B", 24)
}

func (g *ExcelGenerator) writeStations(f *excelize.File, data *ReportData, headerStyle int) {
	if len(data.Stations) == 0 {
		return
	}

	sheetName := "Stations"
	f.NewSheet(sheetName)

	headers := []string{"ID", "Name", "Occupancy", "Type"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, cellAddr("A", 1), cellAddr("D", 1), headerStyle)

	row := 2
	for _, s := range data.Stations {
		f.SetCellValue(sheetName, cellAddr("A", row), int64(s.ID))
		f.SetCellValue(sheetName, cellAddr("B", row), s.Name)
		f.SetCellValue(sheetName, cellAddr("C", row), s.Occupancy)
		f.SetCellValue(sheetName, cellAddr("D", row), s.Type.String())
		row++
	}

	f.SetColWidth(sheetName, "A", "D", 16)
}

func (g *ExcelGenerator) writeTracks(f *excelize.File, data *ReportData, headerStyle int) {
	if len(data.Tracks) == 0 {
		return
	}

	sheetName := "Tracks"
	f.NewSheet(sheetName)

	occ := g.Occupancies(data)
	selected := g.SelectedTracks(data)

	headers := []string{"ID", "From", "To", "Capacity", "Cost", "Effective Capacity", "Goodness", "Selected"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, cellAddr("A", 1), cellAddr("H", 1), headerStyle)

	row := 2
	for _, t := range data.Tracks {
		f.SetCellValue(sheetName, cellAddr("A", row), int64(t.ID))
		f.SetCellValue(sheetName, cellAddr("B", row), int64(t.From))
		f.SetCellValue(sheetName, cellAddr("C", row), int64(t.To))
		f.SetCellValue(sheetName, cellAddr("D", row), t.Capacity)
		f.SetCellValue(sheetName, cellAddr("E", row), t.Cost)
		f.SetCellValue(sheetName, cellAddr("F", row), g.TrackEffectiveCapacity(occ, t))
		f.SetCellValue(sheetName, cellAddr("G", row), g.TrackGoodness(occ, t))
		f.SetCellValue(sheetName, cellAddr("H", row), selected[t.ID])
		row++
	}

	f.SetColWidth(sheetName, "A", "H", 16)
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
