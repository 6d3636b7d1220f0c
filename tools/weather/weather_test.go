package weather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nevindra/ragforge/tools/weather"
)

func TestExecuteParsesCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_weather":{"temperature":21.5,"windspeed":8.2}}`))
	}))
	defer srv.Close()

	tool := weather.New(srv.URL)
	out, err := tool.Execute(context.Background(), json.RawMessage(`{"latitude":35.6,"longitude":139.7}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "21.5") {
		t.Fatalf("out = %q, want temperature mention", out)
	}
}

func TestExecuteReturnsErrorOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	tool := weather.New(srv.URL)
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"latitude":0,"longitude":0}`)); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestExecuteRejectsMalformedParams(t *testing.T) {
	tool := weather.New("")
	if _, err := tool.Execute(context.Background(), json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected error for malformed params")
	}
}

func TestFallbackReturnsCannedMessage(t *testing.T) {
	tool := weather.New("")
	if tool.Fallback(json.RawMessage(`{}`), nil) == "" {
		t.Fatal("expected non-empty fallback")
	}
}
