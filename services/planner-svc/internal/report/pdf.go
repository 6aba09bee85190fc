// services/planner-svc/internal/report/pdf.go
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"transit/pkg/domain"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	builder := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15)

	if data.Options == nil || data.Options.PageNumbers {
		builder = builder.WithPageNumber()
	}

	m := maroto.New(builder.Build())

	g.addHeader(m, data)
	g.addNetworkSection(m, data)
	g.addFlowSection(m, data)
	g.addSelectionSection(m, data)

	if g.ShouldIncludeRawData(data) {
		g.addTracksTable(m, data)
	}

	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, g.GetTitle(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, g.GetCompany(data), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	m.AddRow(8) // Отступ
}

func (g *PDFGenerator) addNetworkSection(m core.Maroto, data *ReportData) {
	g.addSection(m, "Network Information")

	g.addMetricCards(m, []metricCard{
		{Label: "Stations", Value: fmt.Sprintf("%d", len(data.Stations))},
		{Label: "Tracks", Value: fmt.Sprintf("%d", len(data.Tracks))},
	})

	m.AddRow(5)
	items := []keyValue{
		{"Network ID", data.NetworkID},
	}
	if data.NetworkName != "" {
		items = append(items, keyValue{"Name", data.NetworkName})
	}
	if !data.CreatedAt.IsZero() {
		items = append(items, keyValue{"Created", g.FormatTimestamp(data.CreatedAt)})
	}
	g.addKeyValueTable(m, items)
}

func (g *PDFGenerator) addFlowSection(m core.Maroto, data *ReportData) {
	if data.Flow == nil {
		return
	}

	g.addSection(m, "Maximum Flow")

	g.addMetricCards(m, []metricCard{
		{Label: "Max Flow", Value: fmt.Sprintf("%d", data.Flow.MaxFlow), Highlight: true},
		{Label: "From", Value: fmt.Sprintf("%d", data.Flow.From)},
		{Label: "To", Value: fmt.Sprintf("%d", data.Flow.To)},
	})

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Iterations", fmt.Sprintf("%d", data.Flow.Iterations)},
		{"Computation Time", g.FormatDuration(data.Flow.ComputationTimeMs)},
	})
}

func (g *PDFGenerator) addSelectionSection(m core.Maroto, data *ReportData) {
	if data.Selection == nil {
		return
	}

	g.addSection(m, "Selected Network")

	g.addMetricCards(m, []metricCard{
		{Label: "Total Cost", Value: fmt.Sprintf("%d", data.Selection.TotalCost), Highlight: true},
		{Label: "Total Goodness", Value: fmt.Sprintf("%d", data.Selection.TotalGoodness), Highlight: true},
		{Label: "Tracks Selected", Value: fmt.Sprintf("%d", len(data.Selection.TrackIDs))},
	})

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Computation Time", g.FormatDuration(data.Selection.ComputationTimeMs)},
	})
}

func (g *PDFGenerator) addTracksTable(m core.Maroto, data *ReportData) {
	if len(data.Tracks) == 0 {
		return
	}

	g.addSection(m, "Tracks")

	occ := g.Occupancies(data)
	selected := g.SelectedTracks(data)

	// Заголовок
	m.AddRow(8,
		text.NewCol(1, "ID", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Capacity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Cost", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Goodness", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(1, "Sel", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	// Данные (ограничиваем количество строк для PDF)
	maxRows := g.MaxTableRows(data)
	for i, t := range data.Tracks {
		if i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(data.Tracks)-maxRows), smallStyle),
			)
			break
		}

		g.addTrackRow(m, t, occ, selected)
	}
}

func (g *PDFGenerator) addTrackRow(m core.Maroto, t domain.Track, occ map[domain.StationID]int64, selected map[domain.TrackID]bool) {
	mark := ""
	markStyle := tableCellTextStyle
	if selected[t.ID] {
		mark = "yes"
		markStyle.Color = successColor
	}

	m.AddRow(6,
		text.NewCol(1, fmt.Sprintf("%d", t.ID), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(2, fmt.Sprintf("%d", t.From), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(2, fmt.Sprintf("%d", t.To), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(2, fmt.Sprintf("%d", t.Capacity), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(2, fmt.Sprintf("%d", t.Cost), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(2, fmt.Sprintf("%d", g.TrackGoodness(occ, t)), tableCellTextStyle).WithStyle(tableCellStyle),
		text.NewCol(1, mark, markStyle).WithStyle(tableCellStyle),
	)
}

// === Вспомогательные методы ===

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Key, boldStyle),
			text.NewCol(6, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *ReportData) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by %s | %s", g.GetCompany(data), time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
