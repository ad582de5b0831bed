package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/dto"
	"github.com/vsinha/procure/pkg/domain/entities"
)

func sampleResponse(t *testing.T) *dto.OptimizationResponse {
	t.Helper()
	option, err := entities.NewProcurementOption(3, "PUMP-1", "Acme Industrial", entities.MustMoney(250, "EUR"), decimal.Zero, 10, entities.CashTerms{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	purchase := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	decision, err := entities.NewDecision(entities.ItemRef{ProjectID: 1, ItemCode: "PUMP-1"}, option, 1, 2,
		purchase, purchase.AddDate(0, 0, 10), 2, entities.MustMoney(250, "EUR"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	return &dto.OptimizationResponse{
		RunID:          "run-42",
		Status:         dto.RunCompleted,
		TotalCost:      decimal.NewFromInt(500),
		ItemsOptimized: 1,
		BestProposal:   "Lowest Cost",
		Proposals: []entities.Proposal{
			{
				Name:         "Lowest Cost",
				Strategy:     entities.LowestCost,
				Status:       entities.StatusOptimal,
				TotalCost:    decimal.NewFromInt(500),
				ItemsCount:   1,
				Decisions:    []entities.Decision{*decision},
				SummaryNotes: []string{"Selected 1 of 1 items (100.0%)"},
			},
			{
				Name:         "Smooth Cashflow",
				Strategy:     entities.SmoothCashflow,
				Status:       entities.StatusInfeasible,
				SummaryNotes: []string{"Hint: raise budgets"},
			},
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(sampleResponse(t), Config{Format: "text", Writer: &buf}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := buf.String()
	for _, expected := range []string{"Run ID: run-42", "Best Proposal: Lowest Cost", "PUMP-1", "500.00 EUR", "Hint: raise budgets"} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected output to contain %q, got:\n%s", expected, text)
		}
	}
	if strings.Contains(text, "Selected 1 of 1 items") {
		t.Error("Expected notes of solved proposals to be hidden without verbose")
	}
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(sampleResponse(t), Config{Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded["run_id"] != "run-42" {
		t.Errorf("Expected run_id run-42, got %v", decoded["run_id"])
	}
}

func TestGenerate_CSV(t *testing.T) {
	if err := Generate(sampleResponse(t), Config{Format: "csv"}); err == nil {
		t.Error("Expected error for CSV output without directory")
	}

	dir := t.TempDir()
	if err := Generate(sampleResponse(t), Config{Format: "csv", OutputDir: dir}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "decisions.csv"))
	if err != nil {
		t.Fatalf("Expected decisions.csv, got %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Unexpected error reading decisions.csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header and 1 decision row, got %d rows", len(rows))
	}
	if rows[1][2] != "PUMP-1" || rows[1][11] != "500.00" || rows[1][12] != "EUR" {
		t.Errorf("Expected PUMP-1 costing 500.00 EUR, got %v", rows[1])
	}

	proposals, err := os.ReadFile(filepath.Join(dir, "proposals.csv"))
	if err != nil {
		t.Fatalf("Expected proposals.csv, got %v", err)
	}
	if lines := strings.Count(string(proposals), "\n"); lines != 3 {
		t.Errorf("Expected 3 lines in proposals.csv, got %d", lines)
	}
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	if err := Generate(sampleResponse(t), Config{Format: "xml"}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestGenerateAnalysis_Text(t *testing.T) {
	analysis := &entities.DependencyAnalysis{
		NodeCount:      3,
		EdgeCount:      2,
		ComponentCount: 1,
		CriticalPath: entities.CriticalPath{
			TotalLeadTime:  12,
			PathLength:     2,
			Path:           []entities.DependencyNode{{ItemCode: "MOTOR-3"}, {ItemCode: "PUMP-1"}},
			BottleneckItem: entities.ItemRef{ProjectID: 1, ItemCode: "MOTOR-3"},
		},
		MostCentral: []entities.DependencyNode{{ProjectID: 1, ItemCode: "PUMP-1", LeadTimeDays: 4, Betweenness: 1, Degree: 2}},
	}

	var buf bytes.Buffer
	if err := GenerateAnalysis(analysis, Config{Writer: &buf}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := buf.String()
	for _, expected := range []string{"Critical Path: 12 days over 2 items", "Path: MOTOR-3 -> PUMP-1", "Independent Groups: 1"} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected output to contain %q, got:\n%s", expected, text)
		}
	}

	if err := GenerateAnalysis(analysis, Config{Format: "csv"}); err == nil {
		t.Error("Expected error for CSV analysis output")
	}
}
