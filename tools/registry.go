// Package tools implements the tool registry: name-collision-checked
// registration plus a best-effort input validator ahead of execution.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nevindra/ragforge/errs"
)

// Tool is a single named capability exposed to the RAG graph's tool_router
// and run_tool nodes.
type Tool interface {
	// Name is the tool's unique registration key.
	Name() string
	// Schema is a JSON Schema document describing the tool's parameters.
	Schema() json.RawMessage
	// Execute runs the tool. params is validated by the registry first, but
	// implementations should still defend against malformed input.
	Execute(ctx context.Context, params json.RawMessage) (string, error)
	// Fallback produces a canned response when Execute exhausts its retries,
	// so a failing tool never aborts answer generation.
	Fallback(params json.RawMessage, cause error) string
}

// schemaShape is the subset of JSON Schema the registry understands for its
// best-effort pre-check: which top-level properties are required.
type schemaShape struct {
	Required []string `json:"required"`
}

// Registry holds the minimum tool set plus any tools registered by the host
// application. Registration is collision-checked: two tools may not share a
// name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t under t.Name(). Returns an error if the name is already
// taken.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return errs.NewTool(name, "a tool is already registered under this name", nil)
	}
	r.tools[name] = t
	return nil
}

// Get returns the tool registered under name, or ok=false.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the currently registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}

// ValidateInput checks params against name's schema's required-property
// list. It is intentionally shallow (no type/format checking) — each tool's
// Execute still validates its own unmarshalled params.
func (r *Registry) ValidateInput(name string, params json.RawMessage) error {
	t, ok := r.Get(name)
	if !ok {
		return errs.NewTool(name, "unknown tool", nil)
	}

	var shape schemaShape
	if err := json.Unmarshal(t.Schema(), &shape); err != nil {
		return nil // schema isn't shaped as expected; skip the pre-check
	}
	if len(shape.Required) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(params, &fields); err != nil {
		return errs.NewTool(name, fmt.Sprintf("params must be a JSON object: %v", err), err)
	}
	for _, req := range shape.Required {
		if _, ok := fields[req]; !ok {
			return errs.NewTool(name, fmt.Sprintf("missing required parameter %q", req), nil)
		}
	}
	return nil
}
