package log

import (
	"context"
	"fmt"
	"testing"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorConvergence)
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorSingularMatrix)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON numbers decode as float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrorKey, "boom") {
		t.Error("Expected leading error to be recorded under the error key")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "LinearRegression",
		RunIDKey, "run-1",
	)
	contextLogger.Info("contextual message", SelectionMethodKey, "akaike")

	entries := testLogger.EntriesWithMessage("contextual message")
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	want := map[string]interface{}{
		ModelNameKey:       "LinearRegression",
		RunIDKey:           "run-1",
		SelectionMethodKey: "akaike",
	}
	for k, v := range want {
		if entries[0][k] != v {
			t.Errorf("field %s = %v, want %v", k, entries[0][k], v)
		}
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) || !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Info and Error")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("hidden")
	testLogger.Info("shown")
	if testLogger.ContainsMessage("hidden") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("shown") {
		t.Error("Info message should appear when level is Info")
	}

	testLogger.Clear()
	if testLogger.ContainsMessage("shown") {
		t.Error("Clear should discard captured records")
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelWarn)

	provider.GetLogger().Info("dropped")
	provider.SetLevel(LevelInfo)
	provider.GetLoggerWithName("linear").Info("named logger message")

	if buffer.String() == "" {
		t.Fatal("Expected log output from provider")
	}
	if provider.Logger().ContainsMessage("dropped") {
		t.Error("record below the provider level was kept")
	}
	if !provider.Logger().ContainsField(ComponentKey, "linear") {
		t.Error("Component name not found in named logger output")
	}
}

func TestLevelString(t *testing.T) {
	tests := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for lvl, want := range tests {
		if got := lvl.String(); got != want {
			t.Errorf("Level(%d).String() = %s, want %s", int(lvl), got, want)
		}
	}
}
