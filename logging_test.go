package icall

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestLoggingSystem(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelDebug, &buf)

	logger.Info("Starting test")
	logger.Debug("Debug message")
	logger.Trace("Trace message (should not appear)")
	logger.Step("Processing data", "item1", "item2")
	logger.Warning("Warning message")
	logger.Error("Error message")

	output := buf.String()

	if !strings.Contains(output, "Starting test") {
		t.Error("Info message not found")
	}
	if !strings.Contains(output, "Debug message") {
		t.Error("Debug message not found")
	}
	if strings.Contains(output, "Trace message") {
		t.Error("Trace message should not appear at debug level")
	}
	if !strings.Contains(output, "Processing data: item1, item2") {
		t.Error("Step message not formatted correctly")
	}
}

func TestLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo, &buf).WithPrefix("load").WithPrefix("ssa")

	logger.Info("built %d packages", 3)

	if got, want := buf.String(), "• [load ssa] built 3 packages\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseLogLevel(t *testing.T) {
	for verbosity, want := range map[int]LogLevel{
		-1: LogLevelSilent,
		0:  LogLevelSilent,
		1:  LogLevelInfo,
		2:  LogLevelDebug,
		3:  LogLevelTrace,
		7:  LogLevelTrace,
	} {
		if got := ParseLogLevel(verbosity); got != want {
			t.Errorf("ParseLogLevel(%d) = %v, want %v", verbosity, got, want)
		}
	}
}

func TestFromContextSilent(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.Level() != LogLevelSilent {
		t.Fatalf("got level %v, want silent", logger.Level())
	}
	// Must not panic on a logger nobody configured.
	logger.Error("dropped")
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelTrace, &buf)
	ctx := WithLogger(context.Background(), logger)

	tracker := NewProgressTracker(ctx, "Test operation", 5)

	for i := 0; i < 5; i++ {
		tracker.Update(fmt.Sprintf("Item %d", i+1))
	}

	tracker.Complete()
	tracker.Complete()

	output := buf.String()
	if !strings.Contains(output, "Test operation (5/5): Item 5") {
		t.Error("Per item trace message not found")
	}
	if n := strings.Count(output, "Test operation complete"); n != 1 {
		t.Errorf("Completion message logged %d times, want 1", n)
	}
}
