// Package calculator implements the calculator tool: a parameter-struct
// Execute convention over Go's own expression parser.
package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// Tool evaluates arithmetic expressions using Go's own expression grammar
// for parsing (+ - * / % and parentheses), so it never shells out to eval.
type Tool struct{}

// New constructs the calculator tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() string { return "calculator" }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"expression":{"type":"string","description":"An arithmetic expression, e.g. \"2 * (3 + 4)\""}},"required":["expression"]}`)
}

type params struct {
	Expression string `json:"expression"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("calculator: invalid params: %w", err)
	}
	result, err := evaluate(p.Expression)
	if err != nil {
		return "", fmt.Errorf("calculator: %w", err)
	}
	return fmt.Sprintf("%g", result), nil
}

func (t *Tool) Fallback(raw json.RawMessage, cause error) string {
	return "I couldn't evaluate that expression."
}

// evaluate parses expr as a Go expression and reduces it to a float64,
// rejecting anything but numeric literals, + - * / %, unary -, and
// parentheses.
func evaluate(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("not a valid arithmetic expression: %w", err)
	}
	return evalNode(node)
}

func evalNode(n ast.Expr) (float64, error) {
	switch e := n.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %q", e.Value)
		}
		var v float64
		if _, err := fmt.Sscanf(e.Value, "%g", &v); err != nil {
			return 0, fmt.Errorf("unparsable number %q", e.Value)
		}
		return v, nil
	case *ast.ParenExpr:
		return evalNode(e.X)
	case *ast.UnaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		default:
			return 0, fmt.Errorf("unsupported unary operator %q", e.Op)
		}
	case *ast.BinaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		case token.REM:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return float64(int64(x) % int64(y)), nil
		default:
			return 0, fmt.Errorf("unsupported operator %q", e.Op)
		}
	default:
		return 0, fmt.Errorf("unsupported expression syntax")
	}
}
