package dlq

import (
	"encoding/json"

	"github.com/nevindra/ragforge"
)

// wireEntry mirrors the tagged envelope the pipeline publishes: {"kind":
// "...", "entry": {...}}.
type wireEntry struct {
	Kind  string          `json:"kind"`
	Entry json.RawMessage `json:"entry"`
}

// Decode parses a raw DLQ message into its concrete entry type. A message
// that doesn't match any known kind decodes to an UnknownEntry rather than
// failing — the reprocessor always acknowledges those.
func Decode(raw []byte) ragforge.DLQEntry {
	var w wireEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return ragforge.UnknownEntry{Raw: raw}
	}

	switch w.Kind {
	case "ParseError":
		var e ragforge.ParseErrorEntry
		if err := json.Unmarshal(w.Entry, &e); err == nil {
			return e
		}
	case "EmbedError":
		var e ragforge.EmbedErrorEntry
		if err := json.Unmarshal(w.Entry, &e); err == nil {
			return e
		}
	}
	return ragforge.UnknownEntry{Raw: raw}
}
