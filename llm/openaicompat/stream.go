package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/nevindra/ragforge/llm"
)

// streamSSE reads an OpenAI-format SSE stream from body, forwarding text
// deltas to ch as they arrive without buffering the whole response, and
// returns the fully accumulated response. ch is always closed before return.
func streamSSE(ctx context.Context, body io.Reader, ch chan<- llm.StreamEvent) (llm.Response, error) {
	defer close(ch)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var full strings.Builder
	var u llm.Usage

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Usage != nil {
			u = llm.Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		select {
		case ch <- llm.StreamEvent{Type: llm.EventTextDelta, Content: delta}:
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Content: full.String(), Usage: u}, nil
}
