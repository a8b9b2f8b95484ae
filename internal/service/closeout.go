package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/raphaelgruber/closeout/internal/sink"
	"github.com/raphaelgruber/closeout/internal/transcript"
)

// TimestampLayout is the wire and sheet format of conversation timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// CloseoutRequest is the after-conversation payload sent by the voice/chat platform.
type CloseoutRequest struct {
	ConversationID string        `json:"conversation_id"`
	Channel        string        `json:"channel"`
	StartedAt      string        `json:"conversation_started_at"`
	EndedAt        string        `json:"conversation_ended_at"`
	Transcript     []models.Turn `json:"transcript"`
	ConfirmedVisit *models.Visit `json:"confirmed_visit"`
}

// CloseoutResult reports what was written for a conversation.
type CloseoutResult struct {
	Records       []models.Record
	Summarized    bool
	SummaryFailed bool
}

// CloseoutService turns finished conversations into call/chat and visit records.
type CloseoutService struct {
	summarizer *Summarizer
	sink       sink.Appender
	sheets     config.Sheets
	loc        *time.Location
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewCloseoutService creates a close-out service. collector may be nil.
func NewCloseoutService(summarizer *Summarizer, appender sink.Appender, sheets config.Sheets, loc *time.Location, collector *metrics.Collector, logger *slog.Logger) *CloseoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloseoutService{
		summarizer: summarizer,
		sink:       appender,
		sheets:     sheets,
		loc:        loc,
		metrics:    collector,
		logger:     logger,
	}
}

// Parse validates req and converts it into a Conversation.
func (s *CloseoutService) Parse(req CloseoutRequest) (models.Conversation, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return models.Conversation{}, fmt.Errorf("%w: conversation_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Channel) == "" {
		return models.Conversation{}, fmt.Errorf("%w: channel is required", ErrInvalidInput)
	}

	started, err := s.parseTimestamp("conversation_started_at", req.StartedAt)
	if err != nil {
		return models.Conversation{}, err
	}
	ended, err := s.parseTimestamp("conversation_ended_at", req.EndedAt)
	if err != nil {
		return models.Conversation{}, err
	}
	if ended.Before(started) {
		return models.Conversation{}, fmt.Errorf("%w: conversation_ended_at is before conversation_started_at", ErrInvalidInput)
	}

	if v := req.ConfirmedVisit; v != nil {
		if v.Name == "" || v.Purpose == "" || v.VisitDate == "" || v.VisitTime == "" {
			return models.Conversation{}, fmt.Errorf("%w: confirmed_visit requires name, purpose, visit_date and visit_time", ErrInvalidInput)
		}
	}

	return models.Conversation{
		ID:             req.ConversationID,
		Channel:        models.Channel(strings.ToLower(req.Channel)),
		StartedAt:      started,
		EndedAt:        ended,
		Transcript:     req.Transcript,
		ConfirmedVisit: req.ConfirmedVisit,
	}, nil
}

func (s *CloseoutService) parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	t, err := time.ParseInLocation(TimestampLayout, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted as YYYY-MM-DD HH:MM:SS", ErrInvalidInput, field)
	}
	return t, nil
}

// Close summarizes the conversation (when it has content), writes the call or chat
// record and, if a visit was confirmed, the visit record. A failed summary never
// fails the close-out; the record is written without it.
func (s *CloseoutService) Close(ctx context.Context, req CloseoutRequest) (*CloseoutResult, error) {
	conv, err := s.Parse(req)
	if err != nil {
		return nil, err
	}

	result := &CloseoutResult{}

	var summary *string
	if transcript.HasContent(conv.Transcript) {
		text, err := s.summarizer.Summarize(ctx, conv.Transcript)
		switch {
		case err == nil:
			summary = &text
			result.Summarized = true
		case errors.Is(err, ErrEmptyTranscript):
		default:
			result.SummaryFailed = true
			s.outcome("summary_failed")
			s.logger.Warn("summary failed, writing record without it", "conversation_id", conv.ID, "error", err)
		}
	}

	records := []models.Record{s.ConversationRecord(conv, summary)}
	if conv.ConfirmedVisit != nil {
		records = append(records, s.VisitRecord(conv))
	}

	for _, rec := range records {
		start := time.Now()
		err := s.sink.Append(ctx, rec.Sheet, rec.Headers, rec.Row)
		if s.metrics != nil {
			s.metrics.RecordTiming(metrics.OpSinkAppend, time.Since(start))
		}
		if err != nil {
			return nil, fmt.Errorf("append %s record: %w", rec.Sheet, err)
		}
		result.Records = append(result.Records, rec)
	}

	s.logger.Info("conversation closed",
		"conversation_id", conv.ID,
		"channel", conv.Channel,
		"records", len(result.Records),
		"summarized", result.Summarized,
	)
	return result, nil
}

// ConversationRecord builds the call (voice) or chat record. Unknown channels
// are recorded as chats.
func (s *CloseoutService) ConversationRecord(conv models.Conversation, summary *string) models.Record {
	created := conv.EndedAt.In(s.loc).Format(TimestampLayout)
	started := conv.StartedAt.In(s.loc).Format(TimestampLayout)
	ended := conv.EndedAt.In(s.loc).Format(TimestampLayout)

	var summaryValue any
	if summary != nil {
		summaryValue = *summary
	}

	row := models.Row{
		models.ColCreated:    created,
		models.ColDuration:   conv.Duration(),
		models.ColTranscript: transcript.Flatten(conv.Transcript),
		models.ColSummary:    summaryValue,
		models.ColID:         conv.ID,
	}

	switch conv.Channel {
	case models.ChannelVoice:
		row["Empiezo Llamada"] = started
		row["Termino Llamada"] = ended
		return models.Record{Sheet: s.sheets.Calls, Headers: models.CallHeaders, Row: row}
	case models.ChannelChat:
	default:
		s.logger.Warn("unknown channel, recording as chat", "channel", conv.Channel, "conversation_id", conv.ID)
	}

	row["Empiezo Chat"] = started
	row["Termino Chat"] = ended
	return models.Record{Sheet: s.sheets.Chats, Headers: models.ChatHeaders, Row: row}
}

// VisitRecord builds the visit record of a conversation with a confirmed visit.
func (s *CloseoutService) VisitRecord(conv models.Conversation) models.Record {
	v := conv.ConfirmedVisit
	return models.Record{
		Sheet:   s.sheets.Visits,
		Headers: models.VisitHeaders,
		Row: models.Row{
			models.ColCreated:        conv.EndedAt.In(s.loc).Format(TimestampLayout),
			models.ColName:           v.Name,
			models.ColPurpose:        v.Purpose,
			models.ColDate:           v.VisitDate,
			models.ColTime:           v.VisitTime,
			models.ColConversationID: conv.ID,
			models.ColChannel:        string(conv.Channel),
		},
	}
}

func (s *CloseoutService) outcome(name string) {
	if s.metrics != nil {
		s.metrics.RecordOutcome(name)
	}
}
