package ragnodes

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/contentstore"
	"github.com/nevindra/ragforge/embed"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/vectorstore"
)

// titleMaxChars bounds the synthesized title derived from a content item's
// body when no separate title field exists in the content model.
const titleMaxChars = 80

// defaultWideningThreshold is dynamic_widen's "too few docs" cutoff.
const defaultWideningThreshold = 3

// maxTopK caps dynamic_widen's growth.
const maxTopK = 50

// Retrieve embeds the current query and queries the vector store scoped to
// the requesting user (plus globally public content). On any failure it
// returns an empty doc set rather than propagating — the run continues with
// no context instead of failing the request.
func Retrieve(embedder *embed.Embedder, store *vectorstore.Store, content contentstore.Store) graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()
		query := out.Tasks.Query()
		if query == "" {
			return out, nil
		}

		topK := out.Options.MaxContextItems
		if topK <= 0 {
			topK = ragforge.DefaultOptions().MaxContextItems
		}
		if out.Tasks.WideningAttempts > 0 {
			topK = widenedTopK(topK, out.Tasks.WideningAttempts)
		}

		vecs, err := embedder.Embed(ctx, []string{query})
		if err != nil || len(vecs) == 0 {
			out.Metadata.RecordError("retrieve", errString(err, "embedding produced no vector"), time.Now().Unix())
			out.Docs = nil
			return out, nil
		}

		matches, err := store.Query(ctx, vecs[0], vectorstore.Filter{UserID: out.UserID}, topK)
		if err != nil {
			out.Metadata.RecordError("retrieve", err.Error(), time.Now().Unix())
			out.Docs = nil
			return out, nil
		}

		docs := make([]ragforge.Doc, 0, len(matches))
		for _, m := range matches {
			title, body := titleAndBody(ctx, content, m.Metadata.ContentID)
			docs = append(docs, ragforge.Doc{
				ID:        m.Metadata.ContentID,
				Score:     m.Score,
				Title:     title,
				Body:      body,
				CreatedAt: m.Metadata.CreatedAt,
				SourceRef: m.ID,
			})
		}
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
		out.Docs = docs
		out.Tasks.RequiredTools = DetectToolPatterns(query)
		return out, nil
	}
}

func widenedTopK(base int, attempts uint32) int {
	widened := base
	for i := uint32(0); i < attempts; i++ {
		widened *= 2
	}
	if widened > maxTopK {
		widened = maxTopK
	}
	return widened
}

// titleAndBody fetches a content item and derives a short title from its
// body's leading text, since the content model carries no separate title
// field. A lookup failure degrades to the content ID as title and an empty
// body rather than dropping the match.
func titleAndBody(ctx context.Context, content contentstore.Store, contentID string) (string, string) {
	if content == nil {
		return contentID, ""
	}
	item, ok, err := content.Get(ctx, contentID)
	if err != nil || !ok {
		return contentID, ""
	}
	return synthesizeTitle(item.Body), item.Body
}

// synthesizeTitle takes the first line (or titleMaxChars runes, whichever
// comes first) of body as a stand-in title.
func synthesizeTitle(body string) string {
	firstLine := body
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine = body[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	runes := []rune(firstLine)
	if len(runes) > titleMaxChars {
		return string(runes[:titleMaxChars]) + "…"
	}
	if firstLine == "" {
		return "Untitled"
	}
	return firstLine
}

func errString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
