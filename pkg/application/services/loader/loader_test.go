package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/procure/pkg/application/services/loader"
	testhelpers "github.com/vsinha/procure/pkg/application/services/testing"
	"github.com/vsinha/procure/pkg/domain/entities"
)

func load(scenario *testhelpers.ScenarioBuilder, filter loader.Filter) (*loader.Dataset, error) {
	return loader.NewDataLoader(scenario.Store().Catalog(), 1).Load(context.Background(), filter)
}

func TestDataLoader_Load(t *testing.T) {
	ds, err := load(testhelpers.BuildMultiProjectScenario(), loader.Filter{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(ds.Projects) != 2 {
		t.Errorf("Expected 2 projects, got %d", len(ds.Projects))
	}
	if len(ds.Items) != 5 {
		t.Fatalf("Expected 5 items, got %d", len(ds.Items))
	}
	expectedOrder := []string{"1/MOTOR-3", "1/PUMP-1", "1/VALVE-2", "2/PUMP-1", "2/SENSOR-4"}
	for i, item := range ds.Items {
		if item.Ref().String() != expectedOrder[i] {
			t.Errorf("Expected item %d to be %s, got %s", i, expectedOrder[i], item.Ref())
		}
	}

	pumps := ds.Options["PUMP-1"]
	if len(pumps) != 3 {
		t.Fatalf("Expected 3 PUMP-1 options, got %d", len(pumps))
	}
	for i := 1; i < len(pumps); i++ {
		if pumps[i].ID < pumps[i-1].ID {
			t.Errorf("Expected options ordered by id, got %d after %d", pumps[i].ID, pumps[i-1].ID)
		}
	}

	if ds.Calendar.Len() != 6 {
		t.Errorf("Expected 6 slots, got %d", ds.Calendar.Len())
	}
	entry, ok := ds.Budget(2, "USD")
	if !ok || entry.Limit.String() != "800.00 USD" {
		t.Errorf("Expected USD budget 800.00 in slot 2, got %v (ok=%v)", entry.Limit, ok)
	}
	if _, ok := ds.Budget(2, "GBP"); ok {
		t.Error("Expected no GBP budget")
	}
	if ds.Priority(1) != 9 || ds.Priority(42) != 1 {
		t.Errorf("Expected priorities 9 and 1, got %d and %d", ds.Priority(1), ds.Priority(42))
	}
}

func TestDataLoader_ProjectFilterAndExclusions(t *testing.T) {
	scenario := testhelpers.BuildMultiProjectScenario().
		Decision(1, "PUMP-1", 1, entities.DecisionLocked).
		Decision(1, "VALVE-2", 4, entities.DecisionReverted)

	ds, err := load(scenario, loader.Filter{ProjectIDs: []entities.ProjectID{1}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ds.Projects) != 1 {
		t.Errorf("Expected only project 1, got %d projects", len(ds.Projects))
	}
	if len(ds.Items) != 2 {
		t.Errorf("Expected MOTOR-3 and VALVE-2 to remain, got %d items", len(ds.Items))
	}
	if len(ds.Excluded) != 1 || ds.Excluded[0].ItemCode != "PUMP-1" {
		t.Errorf("Expected PUMP-1 to be excluded, got %v", ds.Excluded)
	}
	if _, ok := ds.Options["SENSOR-4"]; ok {
		t.Error("Expected options of unused item codes to be dropped")
	}
}

func TestDataLoader_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name     string
		scenario *testhelpers.ScenarioBuilder
		filter   loader.Filter
		expected loader.ValidationKind
	}{
		{
			"no active projects",
			testhelpers.NewScenario().InactiveProject(1),
			loader.Filter{},
			loader.NoActiveProjects,
		},
		{
			"filtered to an unknown project",
			testhelpers.BuildScenarioB(),
			loader.Filter{ProjectIDs: []entities.ProjectID{99}},
			loader.NoActiveProjects,
		},
		{
			"every item decided",
			testhelpers.BuildScenarioB().Decision(1, "PUMP", 1, entities.DecisionProposed),
			loader.Filter{},
			loader.NoEligibleItems,
		},
		{
			"no options",
			testhelpers.NewScenario().Project(1, 5).Item(1, "PUMP", 1, 100, 3).Budgets(3, "EUR", 100),
			loader.Filter{},
			loader.NoFinalizedOptions,
		},
		{
			"options for other items",
			testhelpers.NewScenario().
				Project(1, 5).
				Item(1, "PUMP", 1, 100, 3).
				Option(1, "VALVE", 10, "EUR", 1).
				Budgets(3, "EUR", 100),
			loader.Filter{},
			loader.NoMatchingOptions,
		},
		{
			"no budgets",
			testhelpers.NewScenario().Project(1, 5).Item(1, "PUMP", 1, 100, 3).Option(1, "PUMP", 10, "EUR", 1),
			loader.Filter{},
			loader.NoBudgetData,
		},
		{
			"budgets outside the window",
			testhelpers.BuildScenarioB(),
			loader.Filter{Window: entities.DateRange{Start: testhelpers.SlotDate(30)}},
			loader.NoBudgetData,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(tc.scenario, tc.filter)
			var validationErr *loader.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Kind != tc.expected {
				t.Errorf("Expected kind %s, got %s", tc.expected, validationErr.Kind)
			}
			if validationErr.Remediation == "" {
				t.Error("Expected a remediation message")
			}
		})
	}
}

func TestDataLoader_WindowNarrowsCalendar(t *testing.T) {
	ds, err := load(testhelpers.BuildScenarioB(), loader.Filter{
		Window: entities.DateRange{Start: testhelpers.SlotDate(2), End: testhelpers.SlotDate(4)},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ds.Calendar.Len() != 3 {
		t.Errorf("Expected 3 slots inside the window, got %d", ds.Calendar.Len())
	}
	if !ds.Calendar.Date(1).Equal(testhelpers.SlotDate(2)) {
		t.Errorf("Expected slot 1 to start at %s, got %s", testhelpers.SlotDate(2), ds.Calendar.Date(1))
	}
}
