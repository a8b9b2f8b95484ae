package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/closeout/internal/llm"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Resolver turns natural-language visit dates and times into explicit values.
// It never fails: anything it cannot trust comes back with low confidence.
type Resolver struct {
	gen     llm.Generator
	model   string
	loc     *time.Location
	now     func() time.Time
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewResolver creates a resolver anchored to loc. collector may be nil.
func NewResolver(gen llm.Generator, model string, loc *time.Location, collector *metrics.Collector, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		gen:     gen,
		model:   model,
		loc:     loc,
		now:     time.Now,
		metrics: collector,
		logger:  logger,
	}
}

// WithClock replaces the reference clock.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Location returns the anchor zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve resolves visitDate and visitTime against the current instant in the anchor zone.
func (r *Resolver) Resolve(ctx context.Context, visitDate, visitTime string) models.ResolutionResult {
	if strings.TrimSpace(visitDate) == "" && strings.TrimSpace(visitTime) == "" {
		return r.low(models.ResolutionResult{}, "empty input")
	}

	reference := r.now().In(r.loc)
	prompt := r.buildPrompt(visitDate, visitTime, reference)

	start := time.Now()
	resp, err := r.gen.Generate(ctx, r.model, prompt)
	r.record(time.Since(start), resp)
	if err != nil {
		r.logger.Warn("resolver generation failed", "error", err)
		return r.low(models.ResolutionResult{}, "generation failed")
	}

	raw := llm.ExtractText(resp)
	r.logger.Debug("resolver raw output", "text", raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return r.low(models.ResolutionResult{}, "output is not a JSON object")
	}

	var res models.ResolutionResult
	date, dateOK := stringField(fields, "date", &res.RawDate)
	tm, timeOK := stringField(fields, "time", &res.RawTime)
	if dateOK {
		res.VisitDate = &date
	}
	if timeOK {
		res.VisitTime = &tm
	}
	if !dateOK || !timeOK {
		return r.low(res, "date or time is not a string")
	}

	d, err := time.ParseInLocation(dateLayout, date, r.loc)
	if err != nil {
		return r.low(res, "date is not YYYY-MM-DD")
	}
	t, err := time.ParseInLocation(timeLayout, tm, r.loc)
	if err != nil {
		return r.low(res, "time is not HH:MM")
	}

	if confidence, _ := stringField(fields, "confidence", nil); confidence != string(models.ConfidenceHigh) {
		return r.low(res, "generator reported low confidence")
	}

	at := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, r.loc)
	if at.Hour() != t.Hour() || at.Minute() != t.Minute() {
		return r.low(res, "local time does not exist in anchor zone")
	}

	canonDate := at.Format(dateLayout)
	canonTime := at.Format(timeLayout)
	iso := at.Format(time.RFC3339)
	result := models.ResolutionResult{
		VisitDate:        &canonDate,
		VisitTime:        &canonTime,
		VisitDatetimeISO: &iso,
		Timezone:         r.loc.String(),
		Confidence:       models.ConfidenceHigh,
	}

	r.outcome("resolve_high")
	r.logger.Info("visit datetime resolved", "state", "HIGH_CONFIDENCE", "datetime", iso)
	return result
}

// low finalizes res as a low-confidence result. The timestamp is always dropped.
func (r *Resolver) low(res models.ResolutionResult, reason string) models.ResolutionResult {
	res.VisitDatetimeISO = nil
	res.Timezone = r.loc.String()
	res.Confidence = models.ConfidenceLow

	r.outcome("resolve_low")
	r.logger.Info("visit datetime not resolved", "state", "LOW_CONFIDENCE", "reason", reason,
		"raw_date", deref(res.VisitDate), "raw_time", deref(res.VisitTime))
	return res
}

func (r *Resolver) buildPrompt(visitDate, visitTime string, reference time.Time) string {
	zone := r.loc.String()
	return fmt.Sprintf(`Resuelve fecha y hora a valores explícitos.

REGLAS OBLIGATORIAS:
- Devuelve SOLO JSON válido.
- No agregues texto adicional.
- No expliques nada.
- No inventes valores.
- Asume SIEMPRE la zona horaria %s.
- Si la fecha y hora pueden resolverse sin ambigüedad, confidence = "high".
- Si existe cualquier ambigüedad real, confidence = "low".

Referencia actual (%s):
Fecha: %s
Hora: %s

Entrada:
fecha: "%s"
hora: "%s"

Formato EXACTO requerido:
{"date": "YYYY-MM-DD", "time": "HH:MM", "confidence": "high|low"}`,
		zone, zone,
		reference.Format(dateLayout), reference.Format(timeLayout),
		visitDate, visitTime)
}

func (r *Resolver) record(d time.Duration, resp *llm.Response) {
	if r.metrics == nil {
		return
	}
	var usage llm.Usage
	if resp != nil {
		usage = resp.Usage
	}
	r.metrics.RecordLLMUsage(metrics.OpResolve, d, usage.InputTokens, usage.OutputTokens)
}

func (r *Resolver) outcome(name string) {
	if r.metrics != nil {
		r.metrics.RecordOutcome(name)
	}
}

// stringField reads key as a JSON string. When the key holds any other kind of
// value, its JSON text is stored in raw (if non-nil) and ok is false.
func stringField(fields map[string]json.RawMessage, key string, raw *string) (string, bool) {
	msg, present := fields[key]
	if !present {
		return "", false
	}
	var v any
	if err := json.Unmarshal(msg, &v); err == nil {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	if raw != nil {
		*raw = string(msg)
	}
	return "", false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
