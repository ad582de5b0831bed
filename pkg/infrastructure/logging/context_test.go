package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_ReturnsAttachedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core).With(zap.String("run_id", "abc"))

	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info("solving")

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["run_id"] != "abc" {
		t.Errorf("Expected run_id field abc, got %v", entry.ContextMap()["run_id"])
	}
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != L() {
		t.Error("Expected global logger when none is attached")
	}
}

func TestInit_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger, err := Init(Config{Level: "chatty", Environment: "development", ServiceName: "procure"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zap.InfoLevel) || logger.Core().Enabled(zap.DebugLevel) {
		t.Error("Expected info level to be enabled and debug disabled")
	}
}
