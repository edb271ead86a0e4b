package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestHandler(buf *bytes.Buffer, format logFormat, outputs ...output) (*structuredHandler, *asyncWriter) {
	if len(outputs) == 0 {
		outputs = []output{{w: buf, min: levelAll}}
	}
	aw := newAsyncWriter(outputs, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, slog.New(h).With("component", CompMeals), slog.LevelInfo, "meal.logged",
		slog.String("status", "ok"),
		slog.Int("calories", 640),
	)
	closeWriter(t, aw)

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	expected := []string{"ts=", "level=INFO", "component=service.meals", "event=meal.logged", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), buf.String())
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(buf.String(), "user_id=7") {
		t.Fatalf("expected user_id from context, got %s", buf.String())
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatJSON)
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-json"), 11, 22, 33)

	LogEvent(ctx, slog.New(h).With("component", CompAI), slog.LevelError, "classify.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"ai"`, `"event":"classify.failed"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	raw := "123:456:789"
	for _, tc := range []struct {
		format   logFormat
		want     string
		wantFull bool
	}{
		{formatKV, "rid=" + CompactRID(raw), false},
		{formatJSON, `"rid":"` + CompactRID(raw) + `"`, true},
	} {
		buf := &bytes.Buffer{}
		h, aw := newTestHandler(buf, tc.format)
		LogEvent(WithRID(context.Background(), raw), slog.New(h), slog.LevelInfo, "rid.test")
		closeWriter(t, aw)

		line := buf.String()
		if !strings.Contains(line, tc.want) {
			t.Fatalf("%s: expected %s in %s", tc.format, tc.want, line)
		}
		if got := strings.Contains(line, "rid_full"); got != tc.wantFull {
			t.Fatalf("%s: rid_full present=%v, want %v: %s", tc.format, got, tc.wantFull, line)
		}
	}
}

func TestErrorSinkOnlyReceivesWarnings(t *testing.T) {
	all, errs := &bytes.Buffer{}, &bytes.Buffer{}
	h, aw := newTestHandler(nil, formatKV,
		output{w: all, min: levelAll},
		output{w: errs, min: slog.LevelWarn},
	)
	log := slog.New(h).With("component", CompStorage)
	LogEvent(context.Background(), log, slog.LevelInfo, "rewrite.done")
	LogEvent(context.Background(), log, slog.LevelWarn, "field.unparsable")
	closeWriter(t, aw)

	if n := strings.Count(all.String(), "\n"); n != 2 {
		t.Fatalf("main sink lines = %d, want 2: %s", n, all.String())
	}
	if strings.Contains(errs.String(), "rewrite.done") || !strings.Contains(errs.String(), "field.unparsable") {
		t.Fatalf("error sink content unexpected: %s", errs.String())
	}
}

func TestDurationKeysCarryUnit(t *testing.T) {
	if got := durationKey("duration"); got != "duration_ms" {
		t.Fatalf("duration -> %s", got)
	}
	if got := durationKey("startup_duration"); got != "startup_duration_ms" {
		t.Fatalf("startup_duration -> %s", got)
	}
	if got := durationKey("elapsed_ms"); got != "elapsed_ms" {
		t.Fatalf("elapsed_ms -> %s", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	if num, den := parseRatioSpec("5"); num != 1 || den != 5 {
		t.Fatalf("parseRatioSpec(5) = %d/%d", num, den)
	}
}
