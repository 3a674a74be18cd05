package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandler(t *testing.T) {
	var text, js bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		nil,
		slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("host", "example.com").WithGroup("export")

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(Debug) = false, want true when any handler accepts it")
	}

	logger.Debug("captured", "items", 3)
	logger.Warn("skipped", "items", 1)

	if strings.Contains(text.String(), "captured") {
		t.Error("text handler should drop debug records")
	}
	if !strings.Contains(text.String(), "skipped") || !strings.Contains(text.String(), "host=example.com") {
		t.Errorf("text output = %q", text.String())
	}
	if got := strings.Count(js.String(), "\n"); got != 2 {
		t.Errorf("json handler records = %d, want 2", got)
	}
	if !strings.Contains(js.String(), `"export":{"items":3}`) {
		t.Errorf("json output missing group: %s", js.String())
	}
}
