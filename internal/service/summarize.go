package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/closeout/internal/llm"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/raphaelgruber/closeout/internal/transcript"
)

const summaryInstruction = "Resume la siguiente conversación con un cliente en UN SOLO PÁRRAFO breve. " +
	"No uses listas ni encabezados. " +
	"Describe la intención del cliente y cómo terminó la conversación. " +
	"Responde en el mismo idioma de la conversación.\n\n"

// Summarizer produces one-paragraph summaries of conversation transcripts.
type Summarizer struct {
	gen     llm.Generator
	model   string
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewSummarizer creates a summarizer. collector may be nil.
func NewSummarizer(gen llm.Generator, model string, collector *metrics.Collector, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		gen:     gen,
		model:   model,
		metrics: collector,
		logger:  logger,
	}
}

// Summarize returns the generated summary verbatim (trimmed). Transcripts without
// content are rejected with ErrEmptyTranscript before any generation call.
func (s *Summarizer) Summarize(ctx context.Context, turns []models.Turn) (string, error) {
	text := transcript.Flatten(turns)
	if text == "" {
		return "", ErrEmptyTranscript
	}

	s.logger.Debug("summarizing transcript", "model", s.model, "turns", len(turns), "text_len", len(text))

	start := time.Now()
	resp, err := s.gen.Generate(ctx, s.model, summaryInstruction+text)
	duration := time.Since(start)

	if s.metrics != nil {
		var usage llm.Usage
		if resp != nil {
			usage = resp.Usage
		}
		s.metrics.RecordLLMUsage(metrics.OpSummarize, duration, usage.InputTokens, usage.OutputTokens)
	}

	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return llm.ExtractText(resp), nil
}
