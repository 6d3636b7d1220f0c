package ingest

import "log/slog"

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithChunker overrides the default chunker for every content type.
func WithChunker(c Chunker) Option {
	return func(ing *Ingestor) {
		ing.chunker = c
		ing.customChunker = true
	}
}

// WithExtractor registers an Extractor for a given ContentType, overriding
// the built-in one.
func WithExtractor(ct ContentType, e Extractor) Option {
	return func(ing *Ingestor) { ing.extractors[ct] = e }
}

// WithMaxContentSize sets the maximum accepted raw content size in bytes.
// Zero disables the check.
func WithMaxContentSize(n int) Option {
	return func(ing *Ingestor) { ing.maxContentSize = n }
}

// WithLogger sets the structured logger used for ingest progress and errors.
func WithLogger(l *slog.Logger) Option {
	return func(ing *Ingestor) { ing.logger = l }
}

// WithOnSuccess registers a callback invoked after each successful ingest.
func WithOnSuccess(f func(IngestResult)) Option {
	return func(ing *Ingestor) { ing.onSuccess = f }
}

// WithOnError registers a callback invoked when extraction or chunking fails.
func WithOnError(f func(source string, err error)) Option {
	return func(ing *Ingestor) { ing.onError = f }
}
