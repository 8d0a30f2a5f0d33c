package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLoggerWritesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Info).With(F("run_id", "r1"))
	logger.Debug("hidden")
	logger.Info("engine_started", F("workspace", "my ws"), F("count", 3), Err(errors.New("boom")), F("took", 2*time.Second))

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record should be filtered: %q", line)
	}
	for _, want := range []string{
		"level=info",
		"msg=engine_started",
		"run_id=r1",
		`workspace="my ws"`,
		"count=3",
		"error=boom",
		"took=2s",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"verbose": Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNopLoggerDropsEverything(t *testing.T) {
	logger := Nop()
	if logger.Enabled(Error) {
		t.Fatalf("expected nop logger to be disabled")
	}
	logger.With(F("a", 1)).Error("ignored")
}

func TestNewRunIDIsUUID(t *testing.T) {
	if _, err := uuid.Parse(NewRunID()); err != nil {
		t.Fatalf("expected uuid run id: %v", err)
	}
}
