package calendar_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nevindra/ragforge/tools/calendar"
)

func TestExecuteReportsWeekday(t *testing.T) {
	tool := calendar.New()
	out, err := tool.Execute(context.Background(), json.RawMessage(`{"date":"2026-07-31"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Friday") {
		t.Fatalf("out = %q, want mention of Friday", out)
	}
}

func TestExecuteAppliesOffset(t *testing.T) {
	tool := calendar.New()
	out, err := tool.Execute(context.Background(), json.RawMessage(`{"date":"2026-07-31","offsetDays":5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "2026-08-05") {
		t.Fatalf("out = %q, want 2026-08-05", out)
	}
}

func TestExecuteRejectsUnparsableDate(t *testing.T) {
	tool := calendar.New()
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"date":"not-a-date"}`)); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestFallbackReturnsCannedMessage(t *testing.T) {
	tool := calendar.New()
	if tool.Fallback(json.RawMessage(`{}`), nil) == "" {
		t.Fatal("expected non-empty fallback")
	}
}
