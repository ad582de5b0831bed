package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r, err := NewRecorder("procure")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r.RunFinished("COMPLETED")
	r.RunFinished("COMPLETED")
	r.ValidationFailed("NO_BUDGET_DATA")
	r.ProposalGenerated("LOWEST_COST", "OPTIMAL")

	if got := testutil.ToFloat64(r.runsTotal.WithLabelValues("COMPLETED")); got != 2 {
		t.Errorf("Expected 2 completed runs, got %v", got)
	}
	if got := testutil.ToFloat64(r.validationFailures.WithLabelValues("NO_BUDGET_DATA")); got != 1 {
		t.Errorf("Expected 1 validation failure, got %v", got)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r, err := NewRecorder("procure")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r.ModelBuilt("LOWEST_COST", 42)
	r.SolveFinished("CP", "LOWEST_COST", "OPTIMAL", 20*time.Millisecond)

	path := filepath.Join(t.TempDir(), "procure.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `procure_decision_variables{strategy="LOWEST_COST"} 42`) {
		t.Errorf("Expected decision variable gauge in output, got:\n%s", content)
	}
	if !strings.Contains(content, "procure_solve_duration_seconds_count") {
		t.Errorf("Expected solve duration histogram in output, got:\n%s", content)
	}
}
