package service

import (
	"context"
	"sync"

	"github.com/raphaelgruber/closeout/internal/llm"
)

// stubGenerator returns canned text or an error and records every call.
type stubGenerator struct {
	mu      sync.Mutex
	text    string
	resp    *llm.Response
	err     error
	calls   int
	models  []string
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, modelID, prompt string) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.models = append(s.models, modelID)
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return textResponse(s.text), nil
}

func textResponse(text string) *llm.Response {
	return &llm.Response{
		Output: []llm.OutputItem{{
			Type:    llm.ItemMessage,
			Content: []llm.ContentBlock{{Type: llm.BlockOutputText, Text: text}},
		}},
		Usage: llm.Usage{InputTokens: 50, OutputTokens: 10},
	}
}
