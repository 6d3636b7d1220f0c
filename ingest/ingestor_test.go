package ingest

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestIngestorIngestText(t *testing.T) {
	ing := NewIngestor()

	r, err := ing.IngestText(context.Background(), "user-1", "note", "Hello, world!")
	if err != nil {
		t.Fatal(err)
	}
	if r.Item.ID == "" {
		t.Error("expected content ID")
	}
	if r.Item.UserID != "user-1" {
		t.Errorf("wrong user id: %s", r.Item.UserID)
	}
	if r.Item.Body != "Hello, world!" {
		t.Errorf("wrong body: %s", r.Item.Body)
	}
	if len(r.Chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(r.Chunks))
	}
}

func TestIngestorIngestFile(t *testing.T) {
	ing := NewIngestor()

	r, err := ing.IngestFile(context.Background(), "user-1", []byte("<p>Hello</p>"), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if r.Item.MimeType != string(TypeHTML) {
		t.Errorf("wrong mime type: %s", r.Item.MimeType)
	}
	if len(r.Chunks) == 0 {
		t.Error("expected chunks")
	}
}

func TestIngestorIngestReader(t *testing.T) {
	ing := NewIngestor()

	r, err := ing.IngestReader(context.Background(), "user-1", io.NopCloser(strings.NewReader("test content")), "file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(r.Chunks))
	}
}

func TestIngestorChunkIndicesContiguous(t *testing.T) {
	ing := NewIngestor(WithChunker(NewRecursiveChunker(WithMaxTokens(25), WithOverlapTokens(0))))

	var parts []string
	for i := 0; i < 20; i++ {
		parts = append(parts, "This is paragraph number one with several words.")
	}
	text := strings.Join(parts, "\n\n")

	r, err := ing.IngestText(context.Background(), "user-1", "note", text)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks) <= 2 {
		t.Fatalf("expected >2 chunks, got %d", len(r.Chunks))
	}
	for i, c := range r.Chunks {
		if c.Index != uint32(i) {
			t.Errorf("chunk %d has index %d, want contiguous index", i, c.Index)
		}
	}
}

func TestIngestorCustomExtractor(t *testing.T) {
	customType := ContentType("text/custom")
	custom := PlainTextExtractor{} // just reuse plain text for testing

	ing := NewIngestor(WithExtractor(customType, custom))

	if _, ok := ing.extractors[customType]; !ok {
		t.Error("custom extractor not registered")
	}
}

func TestIngestorWithChunker(t *testing.T) {
	rc := NewRecursiveChunker(WithMaxTokens(100))

	ing := NewIngestor(WithChunker(rc))
	r, err := ing.IngestText(context.Background(), "user-1", "note", "Hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(r.Chunks))
	}
}

func TestIngestorMaxContentSize(t *testing.T) {
	ing := NewIngestor(WithMaxContentSize(4))

	_, err := ing.IngestFile(context.Background(), "user-1", []byte("too long"), "file.txt")
	if err == nil {
		t.Fatal("expected error for oversized content")
	}
}

func TestIngestorOnErrorCallback(t *testing.T) {
	var gotSource string
	ing := NewIngestor(
		WithMaxContentSize(4),
		WithOnError(func(source string, err error) { gotSource = source }),
	)

	_, _ = ing.IngestFile(context.Background(), "user-1", []byte("too long"), "file.txt")
	if gotSource != "file.txt" {
		t.Errorf("onError source = %q, want %q", gotSource, "file.txt")
	}
}

func TestIngestorOnSuccessCallback(t *testing.T) {
	var got IngestResult
	ing := NewIngestor(WithOnSuccess(func(r IngestResult) { got = r }))

	r, err := ing.IngestText(context.Background(), "user-1", "note", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got.Item.ID != r.Item.ID {
		t.Error("onSuccess callback did not receive the result")
	}
}
