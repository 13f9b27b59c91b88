package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	Configure(Config{Long: time.Minute})

	want := Config{Ping: DefaultPing, Short: 7 * time.Second, Medium: DefaultMedium, Long: time.Minute}
	if got := Current(); got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
	if Short() != 7*time.Second || Long() != time.Minute {
		t.Errorf("accessors disagree with Current: short=%v long=%v", Short(), Long())
	}

	// Negative values are ignored like zero.
	Configure(Config{Medium: -time.Second})
	if Medium() != DefaultMedium {
		t.Errorf("Medium() = %v, want %v", Medium(), DefaultMedium)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Second, Long: time.Minute})
	Reset()

	if got := Current(); got != defaults() {
		t.Errorf("Current() = %+v, want %+v", got, defaults())
	}
}

func TestWithTimeout_LogsOnlyDeadlines(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "orgchart.update")
	<-ctx.Done()
	cancel()
	if logs.Len() != 1 {
		t.Fatalf("expected one warning after a deadline, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "orgchart.update" {
		t.Errorf("operation field = %v", op)
	}

	// Finishing early is silent.
	_, cancel = WithTimeout(context.Background(), time.Minute, log, "orgchart.list")
	cancel()

	// A caller that went away is not our timeout.
	parent, parentCancel := context.WithCancel(context.Background())
	parentCancel()
	_, cancel = WithTimeout(parent, time.Minute, log, "orgchart.tree")
	cancel()

	if logs.Len() != 1 {
		t.Errorf("unexpected extra warnings: %d", logs.Len())
	}
}
