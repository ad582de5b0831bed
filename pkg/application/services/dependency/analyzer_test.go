package dependency

import (
	"context"
	"testing"

	testhelpers "github.com/vsinha/procure/pkg/application/services/testing"
	"github.com/vsinha/procure/pkg/domain/entities"
)

func TestAnalyzer_MultiProject(t *testing.T) {
	ds := testhelpers.BuildMultiProjectScenario().MustDataset()

	analysis, err := NewAnalyzer(3).Analyze(context.Background(), ds.Items, ds.Options)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if analysis.NodeCount != 5 {
		t.Errorf("Expected 5 nodes, got %d", analysis.NodeCount)
	}
	// Project 1 chains three items, project 2 chains two
	if analysis.EdgeCount != 3 {
		t.Errorf("Expected 3 edges, got %d", analysis.EdgeCount)
	}
	if analysis.ComponentCount != 2 {
		t.Errorf("Expected 2 components, got %d", analysis.ComponentCount)
	}

	cp := analysis.CriticalPath
	// MOTOR-3 (3 days) -> PUMP-1 (1 day) -> VALVE-2 (1 day)
	if cp.TotalLeadTime != 5 {
		t.Errorf("Expected critical path of 5 days, got %d", cp.TotalLeadTime)
	}
	if cp.PathLength != 3 {
		t.Errorf("Expected path length 3, got %d", cp.PathLength)
	}
	if got := cp.GetPathSummary(); got != "MOTOR-3 -> PUMP-1 -> VALVE-2" {
		t.Errorf("Expected path 'MOTOR-3 -> PUMP-1 -> VALVE-2', got '%s'", got)
	}
	if cp.BottleneckItem != (entities.ItemRef{ProjectID: 1, ItemCode: "MOTOR-3"}) {
		t.Errorf("Expected bottleneck 1/MOTOR-3, got %s", cp.BottleneckItem)
	}

	if len(analysis.MostCentral) != 3 {
		t.Fatalf("Expected 3 central nodes, got %d", len(analysis.MostCentral))
	}
	top := analysis.MostCentral[0]
	if top.ItemCode != "PUMP-1" || top.ProjectID != 1 {
		t.Errorf("Expected 1/PUMP-1 as most central, got %d/%s", top.ProjectID, top.ItemCode)
	}
	if top.Betweenness <= 0 || top.Degree != 2 {
		t.Errorf("Expected positive betweenness and degree 2, got %.2f and %d", top.Betweenness, top.Degree)
	}
}

func TestAnalyzer_Empty(t *testing.T) {
	analysis, err := NewAnalyzer(0).Analyze(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if analysis.NodeCount != 0 || analysis.CriticalPath.PathLength != 0 {
		t.Errorf("Expected empty analysis, got %+v", analysis)
	}
	if analysis.GetCriticalPathSummary() != "No critical path found" {
		t.Errorf("Expected 'No critical path found', got '%s'", analysis.GetCriticalPathSummary())
	}
}

func TestAnalyzer_ItemWithoutOptions(t *testing.T) {
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP-1", 1, 100, 3).
		Item(1, "PUMP-2", 1, 100, 3).
		Option(1, "PUMP-1", 100, "EUR", 4).
		Budgets(3, "EUR", 1000).
		MustDataset()

	analysis, err := NewAnalyzer(5).Analyze(context.Background(), ds.Items, ds.Options)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if analysis.CriticalPath.TotalLeadTime != 4 {
		t.Errorf("Expected 4 days, got %d", analysis.CriticalPath.TotalLeadTime)
	}
	if analysis.CriticalPath.PathLength != 2 {
		t.Errorf("Expected both items on the path, got %d", analysis.CriticalPath.PathLength)
	}
}
