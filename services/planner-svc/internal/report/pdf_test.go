// services/planner-svc/internal/report/pdf_test.go

package report

import (
	"bytes"
	"context"
	"testing"

	"transit/pkg/domain"
)

func TestPDFGenerator_Generate(t *testing.T) {
	g := NewPDFGenerator()

	result, err := g.Generate(context.Background(), sampleReportData())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Fatal("result doesn't look like a valid PDF file")
	}
}

func TestPDFGenerator_Generate_MinimalData(t *testing.T) {
	g := NewPDFGenerator()

	data := &ReportData{NetworkID: "net-empty"}
	result, err := g.Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Fatal("result doesn't look like a valid PDF file")
	}
}

func TestPDFGenerator_Generate_ManyTracks(t *testing.T) {
	g := NewPDFGenerator()

	data := sampleReportData()
	data.Options.MaxTableRows = 10
	for i := 0; i < 50; i++ {
		data.Tracks = append(data.Tracks, domain.Track{
			ID:       domain.TrackID(100 + i),
			From:     1,
			To:       2,
			Capacity: 10,
			Cost:     2,
		})
	}

	result, err := g.Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Fatal("result doesn't look like a valid PDF file")
	}
}
