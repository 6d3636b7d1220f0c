package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/nevindra/ragforge"
)

// defaultMaxContentSize is the default maximum content size for extraction (50 MB).
const defaultMaxContentSize = 50 << 20

// IngestResult holds the outcome of an ingest operation: a content item
// ready to be stored (e.g. via contentstore.MemoryStore.Put) and the flat chunk sequence produced
// from it, for callers that want to inspect or enrich chunks (see
// EnrichChunksWithContext) before publishing the ContentEvent onto the
// queue for the embedding pipeline to pick up.
type IngestResult struct {
	Item   ragforge.ContentItem
	Chunks []ragforge.Chunk
}

// Ingestor extracts plain text from raw documents and chunks it, stopping
// short of embedding and storage — those are the embedding pipeline's job
// once the resulting ContentItem has been published as a ContentEvent.
type Ingestor struct {
	chunker        Chunker
	customChunker  bool // true when chunker was set via WithChunker
	extractors     map[ContentType]Extractor
	maxContentSize int

	mdChunker *MarkdownChunker

	logger *slog.Logger

	onSuccess func(IngestResult)
	onError   func(source string, err error)
}

// NewIngestor creates an Ingestor with sensible defaults: a recursive
// chunker, 512-token/50-token overlap chunking, and built-in extractors for
// plain text, HTML, Markdown, CSV, JSON, DOCX, and PDF.
func NewIngestor(opts ...Option) *Ingestor {
	ing := &Ingestor{
		chunker: NewRecursiveChunker(),
		extractors: map[ContentType]Extractor{
			TypePlainText: PlainTextExtractor{},
			TypeHTML:      HTMLExtractor{},
			TypeMarkdown:  MarkdownExtractor{},
			TypeCSV:       NewCSVExtractor(),
			TypeJSON:      NewJSONExtractor(),
			TypeDOCX:      NewDOCXExtractor(),
			TypePDF:       NewPDFExtractor(),
		},
		maxContentSize: defaultMaxContentSize,
		mdChunker:      NewMarkdownChunker(),
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(ing)
	}
	return ing
}

// IngestText ingests plain text content directly, without going through an
// Extractor.
func (ing *Ingestor) IngestText(ctx context.Context, userID, category, text string) (IngestResult, error) {
	id := ragforge.NewID()
	now := ragforge.NowUnix()

	ing.logger.Info("ingest started",
		"content_id", id, "user_id", userID, "category", category,
		"content_type", string(TypePlainText), "content_bytes", len(text))

	chunks, err := ing.chunk(ctx, text, id, TypePlainText, nil)
	if err != nil {
		ing.logger.Error("chunk failed", "content_id", id, "err", err)
		ing.notifyError(id, err)
		return IngestResult{}, err
	}

	item := ragforge.ContentItem{
		ContentEvent: ragforge.ContentEvent{
			ID:                    id,
			UserID:                userID,
			Category:              category,
			MimeType:              string(TypePlainText),
			CreatedAtEpochSeconds: now,
		},
		Body: text,
	}

	result := IngestResult{Item: item, Chunks: chunks}
	ing.logger.Info("ingest completed", "content_id", id, "chunk_count", len(chunks))
	if ing.onSuccess != nil {
		ing.onSuccess(result)
	}
	return result, nil
}

// IngestFile extracts plain text from content, detecting the content type
// from filename's extension, then chunks it.
func (ing *Ingestor) IngestFile(ctx context.Context, userID string, content []byte, filename string) (IngestResult, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	ct := ContentTypeFromExtension(ext)

	if ing.maxContentSize > 0 && len(content) > ing.maxContentSize {
		err := fmt.Errorf("content size %d exceeds limit %d", len(content), ing.maxContentSize)
		ing.logger.Error("content size exceeds limit",
			"source", filename, "content_bytes", len(content), "max_bytes", ing.maxContentSize)
		ing.notifyError(filename, err)
		return IngestResult{}, err
	}

	extractor, ok := ing.extractors[ct]
	if !ok {
		ing.logger.Warn("no extractor registered, falling back to plain text",
			"source", filename, "content_type", string(ct))
		extractor = PlainTextExtractor{}
	}

	id := ragforge.NewID()
	ing.logger.Info("ingest started",
		"content_id", id, "user_id", userID, "source", filename,
		"content_type", string(ct), "content_bytes", len(content))

	var text string
	var pageMeta []PageMeta
	if me, ok := extractor.(MetadataExtractor); ok {
		res, err := safeExtractWithMeta(me, content)
		if err != nil {
			err = fmt.Errorf("extract %s: %w", ct, err)
			ing.logger.Error("metadata extraction failed", "content_id", id, "source", filename, "err", err)
			ing.notifyError(filename, err)
			return IngestResult{}, err
		}
		text, pageMeta = res.Text, res.Meta
	} else {
		var err error
		text, err = safeExtract(extractor, content)
		if err != nil {
			err = fmt.Errorf("extract %s: %w", ct, err)
			ing.logger.Error("extraction failed", "content_id", id, "source", filename, "err", err)
			ing.notifyError(filename, err)
			return IngestResult{}, err
		}
	}

	chunks, err := ing.chunk(ctx, text, id, ct, pageMeta)
	if err != nil {
		ing.logger.Error("chunk failed", "content_id", id, "source", filename, "err", err)
		ing.notifyError(filename, err)
		return IngestResult{}, err
	}

	item := ragforge.ContentItem{
		ContentEvent: ragforge.ContentEvent{
			ID:                    id,
			UserID:                userID,
			Category:              filepath.Base(filename),
			MimeType:              string(ct),
			CreatedAtEpochSeconds: ragforge.NowUnix(),
		},
		Body: text,
	}

	result := IngestResult{Item: item, Chunks: chunks}
	ing.logger.Info("ingest completed", "content_id", id, "source", filename, "chunk_count", len(chunks))
	if ing.onSuccess != nil {
		ing.onSuccess(result)
	}
	return result, nil
}

// IngestReader reads all content from r and ingests it, detecting content
// type from filename.
func (ing *Ingestor) IngestReader(ctx context.Context, userID string, r io.Reader, filename string) (IngestResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read: %w", err)
	}
	return ing.IngestFile(ctx, userID, data, filename)
}

// chunk splits text with the content-type-appropriate chunker and assigns
// each resulting piece a contiguous ragforge.Chunk index.
func (ing *Ingestor) chunk(ctx context.Context, text, contentID string, ct ContentType, pageMeta []PageMeta) ([]ragforge.Chunk, error) {
	chunker := ing.selectChunker(ct)

	chunkTexts, err := chunkWith(ctx, chunker, text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunkTexts) == 0 {
		ing.logger.Warn("chunker produced zero chunks", "content_id", contentID)
		return nil, nil
	}

	chunks := make([]ragforge.Chunk, len(chunkTexts))
	for i, t := range chunkTexts {
		chunks[i] = ragforge.Chunk{Index: uint32(i), Text: t}
	}
	return chunks, nil
}

func (ing *Ingestor) notifyError(source string, err error) {
	if ing.onError != nil {
		ing.onError(source, err)
	}
}

// selectChunker returns the appropriate chunker based on content type.
// If an explicit chunker was set via WithChunker, it is always used.
func (ing *Ingestor) selectChunker(ct ContentType) Chunker {
	if ing.customChunker {
		return ing.chunker
	}
	if ct == TypeMarkdown {
		return ing.mdChunker
	}
	return ing.chunker
}

// safeExtract calls e.Extract, recovering any panic into an error.
func safeExtract(e Extractor, content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return e.Extract(content)
}

// safeExtractWithMeta calls me.ExtractWithMeta, recovering any panic into an error.
func safeExtractWithMeta(me MetadataExtractor, content []byte) (result ExtractResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return me.ExtractWithMeta(content)
}

// chunkWith calls ChunkContext if the chunker implements ContextChunker,
// otherwise falls back to Chunk.
func chunkWith(ctx context.Context, chunker Chunker, text string) ([]string, error) {
	if cc, ok := chunker.(ContextChunker); ok {
		return cc.ChunkContext(ctx, text)
	}
	return chunker.Chunk(text), nil
}
