package llm

import "strings"

// Output item and content block kinds.
const (
	ItemMessage      = "message"
	ItemFunctionCall = "function_call"
	ItemReasoning    = "reasoning"

	BlockOutputText = "output_text"
	BlockRefusal    = "refusal"
)

// Response is a provider-neutral generation response: an ordered list of output
// items, each optionally carrying typed content blocks.
type Response struct {
	Output []OutputItem
	Usage  Usage
}

// OutputItem is one item emitted by the generator (message, tool call, reasoning).
type OutputItem struct {
	Type    string
	Content []ContentBlock
}

// ContentBlock is a typed piece of content within an output item.
type ContentBlock struct {
	Type string
	Text string
}

// Usage holds token accounting reported by the provider, zero when unknown.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// ExtractText returns the first output_text block of the response, trimmed.
// Missing items, missing content and other block kinds are treated as not found.
func ExtractText(resp *Response) string {
	if resp == nil {
		return ""
	}
	for _, item := range resp.Output {
		for _, block := range item.Content {
			if block.Type == BlockOutputText {
				return strings.TrimSpace(block.Text)
			}
		}
	}
	return ""
}
