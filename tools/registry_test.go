package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nevindra/ragforge/errs"
	"github.com/nevindra/ragforge/tools"
)

type stubTool struct {
	name   string
	schema string
}

func (s stubTool) Name() string             { return s.name }
func (s stubTool) Schema() json.RawMessage  { return json.RawMessage(s.schema) }
func (s stubTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	return "ok", nil
}
func (s stubTool) Fallback(params json.RawMessage, cause error) string { return "fallback" }

func TestRegisterAndGet(t *testing.T) {
	r := tools.NewRegistry()
	tool := stubTool{name: "calculator", schema: `{"required":["expression"]}`}
	if err := r.Register(tool); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.Get("calculator")
	if !ok || got.Name() != "calculator" {
		t.Fatal("expected to retrieve registered tool")
	}
}

func TestRegisterRejectsNameCollision(t *testing.T) {
	r := tools.NewRegistry()
	tool := stubTool{name: "calculator", schema: `{}`}
	if err := r.Register(tool); err != nil {
		t.Fatalf("unexpected error on first registration: %v", err)
	}
	err := r.Register(tool)
	if err == nil {
		t.Fatal("expected error on duplicate registration")
	}
	if errs.KindOf(err) != errs.Tool {
		t.Fatalf("kind = %v, want Tool", errs.KindOf(err))
	}
}

func TestNamesListsRegisteredTools(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(stubTool{name: "calculator", schema: `{}`})
	r.Register(stubTool{name: "weather", schema: `{}`})
	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("names = %v, want 2 entries", names)
	}
}

func TestValidateInputMissingRequiredField(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(stubTool{name: "calculator", schema: `{"required":["expression"]}`})
	err := r.ValidateInput("calculator", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestValidateInputSucceedsWhenFieldsPresent(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(stubTool{name: "calculator", schema: `{"required":["expression"]}`})
	err := r.ValidateInput("calculator", json.RawMessage(`{"expression":"1+1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInputUnknownTool(t *testing.T) {
	r := tools.NewRegistry()
	if err := r.ValidateInput("nonexistent", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestValidateInputRejectsNonObjectParams(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(stubTool{name: "calculator", schema: `{"required":["expression"]}`})
	if err := r.ValidateInput("calculator", json.RawMessage(`"not an object"`)); err == nil {
		t.Fatal("expected error for non-object params")
	}
}

func TestValidateInputSkipsCheckWhenNoRequiredFields(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(stubTool{name: "calendar", schema: `{}`})
	if err := r.ValidateInput("calendar", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
