// Package calendar implements the calendar tool: date arithmetic and
// day-of-week lookups against a stdlib-only calendar model, following the
// same parameter-struct Execute convention as the other tools.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tool answers simple calendar questions: what day of the week a date falls
// on, and what date lies N days before or after a given date.
type Tool struct{}

// New constructs the calendar tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() string { return "calendar" }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"date":{"type":"string","description":"RFC3339 or YYYY-MM-DD date"},"offsetDays":{"type":"integer","description":"Days to add (negative to subtract); optional"}},"required":["date"]}`)
}

type params struct {
	Date       string `json:"date"`
	OffsetDays int    `json:"offsetDays"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("calendar: invalid params: %w", err)
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return "", fmt.Errorf("calendar: %w", err)
	}
	if p.OffsetDays != 0 {
		target := date.AddDate(0, 0, p.OffsetDays)
		return fmt.Sprintf("%s (%s)", target.Format("2006-01-02"), target.Weekday()), nil
	}
	return fmt.Sprintf("%s falls on a %s", date.Format("2006-01-02"), date.Weekday()), nil
}

func (t *Tool) Fallback(raw json.RawMessage, cause error) string {
	return "I couldn't resolve that date."
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
