package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/closeout/internal/llm"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func newTestResolver(t *testing.T, gen llm.Generator) *Resolver {
	t.Helper()
	loc := pacific(t)
	ref := time.Date(2026, 1, 19, 17, 45, 0, 0, loc)
	return NewResolver(gen, "gpt-5-mini", loc, metrics.NewCollector(), nil).
		WithClock(func() time.Time { return ref })
}

func strPtr(s string) *string { return &s }

func TestResolveHighConfidence(t *testing.T) {
	gen := &stubGenerator{text: `{"date":"2026-01-20","time":"19:00","confidence":"high"}`}
	r := newTestResolver(t, gen)

	res := r.Resolve(context.Background(), "2026-01-20", "19:00")

	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	assert.Equal(t, strPtr("2026-01-20"), res.VisitDate)
	assert.Equal(t, strPtr("19:00"), res.VisitTime)
	assert.Equal(t, strPtr("2026-01-20T19:00:00-08:00"), res.VisitDatetimeISO)
	assert.Equal(t, "America/Los_Angeles", res.Timezone)
	assert.True(t, res.Committable())

	require.Equal(t, 1, gen.calls)
	assert.Equal(t, "gpt-5-mini", gen.models[0])
}

func TestResolvePrompt(t *testing.T) {
	gen := &stubGenerator{text: `{}`}
	r := newTestResolver(t, gen)

	r.Resolve(context.Background(), "el 20 de enero", "7 pm")

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Fecha: 2026-01-19")
	assert.Contains(t, prompt, "Hora: 17:45")
	assert.Contains(t, prompt, `fecha: "el 20 de enero"`)
	assert.Contains(t, prompt, `hora: "7 pm"`)
	assert.Contains(t, prompt, "America/Los_Angeles")
	assert.Contains(t, prompt, `"confidence"`)
	assert.Contains(t, prompt, "No inventes valores")
}

func TestResolveReferenceUsesAnchorZone(t *testing.T) {
	gen := &stubGenerator{text: `{}`}
	r := newTestResolver(t, gen)
	// 03:30 UTC on the 20th is still the 19th in Pacific time.
	r.WithClock(func() time.Time { return time.Date(2026, 1, 20, 3, 30, 0, 0, time.UTC) })

	r.Resolve(context.Background(), "hoy", "8 pm")

	assert.Contains(t, gen.prompts[0], "Fecha: 2026-01-19")
	assert.Contains(t, gen.prompts[0], "Hora: 19:30")
}

func TestResolveLowConfidence(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantDate *string
		wantTime *string
		rawDate  string
		rawTime  string
	}{
		{"generator says low", `{"date":"2026-01-20","time":"19:00","confidence":"low"}`, strPtr("2026-01-20"), strPtr("19:00"), "", ""},
		{"confidence missing", `{"date":"2026-01-20","time":"19:00"}`, strPtr("2026-01-20"), strPtr("19:00"), "", ""},
		{"confidence wrong case", `{"date":"2026-01-20","time":"19:00","confidence":"High"}`, strPtr("2026-01-20"), strPtr("19:00"), "", ""},
		{"confidence not a string", `{"date":"2026-01-20","time":"19:00","confidence":true}`, strPtr("2026-01-20"), strPtr("19:00"), "", ""},
		{"invalid month and day", `{"date":"2026-13-40","time":"19:00","confidence":"high"}`, strPtr("2026-13-40"), strPtr("19:00"), "", ""},
		{"february 30", `{"date":"2026-02-30","time":"10:00","confidence":"high"}`, strPtr("2026-02-30"), strPtr("10:00"), "", ""},
		{"twelve hour time", `{"date":"2026-01-20","time":"7 pm","confidence":"high"}`, strPtr("2026-01-20"), strPtr("7 pm"), "", ""},
		{"hour out of range", `{"date":"2026-01-20","time":"24:30","confidence":"high"}`, strPtr("2026-01-20"), strPtr("24:30"), "", ""},
		{"slash date", `{"date":"20/01/2026","time":"19:00","confidence":"high"}`, strPtr("20/01/2026"), strPtr("19:00"), "", ""},
		{"date is a number", `{"date":20260120,"time":"19:00","confidence":"high"}`, nil, strPtr("19:00"), "20260120", ""},
		{"time is null", `{"date":"2026-01-20","time":null,"confidence":"high"}`, strPtr("2026-01-20"), nil, "", "null"},
		{"time missing", `{"date":"2026-01-20","confidence":"high"}`, strPtr("2026-01-20"), nil, "", ""},
		{"time is an object", `{"date":"2026-01-20","time":{"h":19},"confidence":"high"}`, strPtr("2026-01-20"), nil, "", `{"h":19}`},
		{"nonexistent local time", `{"date":"2026-03-08","time":"02:30","confidence":"high"}`, strPtr("2026-03-08"), strPtr("02:30"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, &stubGenerator{text: tt.output})

			res := r.Resolve(context.Background(), "20 de enero", "7pm")

			assert.Equal(t, models.ConfidenceLow, res.Confidence)
			assert.Nil(t, res.VisitDatetimeISO)
			assert.False(t, res.Committable())
			assert.Equal(t, "America/Los_Angeles", res.Timezone)
			assert.Equal(t, tt.wantDate, res.VisitDate)
			assert.Equal(t, tt.wantTime, res.VisitTime)
			assert.Equal(t, tt.rawDate, res.RawDate)
			assert.Equal(t, tt.rawTime, res.RawTime)
		})
	}
}

func TestResolveUnparseableOutput(t *testing.T) {
	outputs := []string{
		"",
		"null",
		"[]",
		`"2026-01-20"`,
		"El 20 de enero a las 7pm",
		"```json\n{\"date\":\"2026-01-20\",\"time\":\"19:00\",\"confidence\":\"high\"}\n```",
		`{"date":"2026-01-20","time":"19:00","confidence":"high"} gracias`,
		`{"date":"2026-01-20"`,
	}

	for i, out := range outputs {
		t.Run(fmt.Sprintf("output_%d", i), func(t *testing.T) {
			r := newTestResolver(t, &stubGenerator{text: out})

			res := r.Resolve(context.Background(), "mañana", "en la tarde")

			assert.Equal(t, models.ConfidenceLow, res.Confidence)
			assert.Nil(t, res.VisitDate)
			assert.Nil(t, res.VisitTime)
			assert.Nil(t, res.VisitDatetimeISO)
		})
	}
}

func TestResolveGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: connection reset", llm.ErrGeneration)}
	r := newTestResolver(t, gen)

	res := r.Resolve(context.Background(), "2026-01-20", "19:00")

	assert.Equal(t, models.ConfidenceLow, res.Confidence)
	assert.Nil(t, res.VisitDate)
	assert.Nil(t, res.VisitTime)
	assert.Nil(t, res.VisitDatetimeISO)
	assert.Equal(t, "America/Los_Angeles", res.Timezone)
}

func TestResolveNoTextItems(t *testing.T) {
	gen := &stubGenerator{resp: &llm.Response{Output: []llm.OutputItem{{Type: llm.ItemReasoning}}}}
	res := newTestResolver(t, gen).Resolve(context.Background(), "2026-01-20", "19:00")
	assert.Equal(t, models.ConfidenceLow, res.Confidence)
}

func TestResolveEmptyInputSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{text: `{"date":"2026-01-20","time":"19:00","confidence":"high"}`}
	res := newTestResolver(t, gen).Resolve(context.Background(), " ", "")

	assert.Equal(t, models.ConfidenceLow, res.Confidence)
	assert.Equal(t, 0, gen.calls)
}

func TestResolveCanonicalizesSingleDigitHour(t *testing.T) {
	gen := &stubGenerator{text: `{"date":"2026-07-04","time":"9:05","confidence":"high"}`}
	res := newTestResolver(t, gen).Resolve(context.Background(), "4 de julio", "9:05 am")

	require.Equal(t, models.ConfidenceHigh, res.Confidence)
	assert.Equal(t, strPtr("09:05"), res.VisitTime)
	assert.Equal(t, strPtr("2026-07-04T09:05:00-07:00"), res.VisitDatetimeISO)
}

func TestResolveRoundTrip(t *testing.T) {
	loc := pacific(t)
	pairs := [][2]string{
		{"2026-01-20", "19:00"},
		{"2026-03-08", "03:00"},
		{"2026-06-15", "00:00"},
		{"2026-11-01", "01:30"},
		{"2026-12-31", "23:59"},
		{"2028-02-29", "12:15"},
	}

	for _, p := range pairs {
		t.Run(p[0]+"_"+p[1], func(t *testing.T) {
			out := fmt.Sprintf(`{"date":%q,"time":%q,"confidence":"high"}`, p[0], p[1])
			res := newTestResolver(t, &stubGenerator{text: out}).Resolve(context.Background(), p[0], p[1])
			require.Equal(t, models.ConfidenceHigh, res.Confidence)
			require.NotNil(t, res.VisitDatetimeISO)

			parsed, err := time.Parse(time.RFC3339, *res.VisitDatetimeISO)
			require.NoError(t, err)
			local := parsed.In(loc)
			assert.Equal(t, p[0], local.Format("2006-01-02"))
			assert.Equal(t, p[1], local.Format("15:04"))
		})
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	loc := pacific(t)
	high := NewResolver(&stubGenerator{text: `{"date":"2026-01-20","time":"19:00","confidence":"high"}`}, "m", loc, collector, nil)
	failing := NewResolver(&stubGenerator{err: errors.New("boom")}, "m", loc, collector, nil)

	high.Resolve(context.Background(), "2026-01-20", "19:00")
	failing.Resolve(context.Background(), "2026-01-20", "19:00")

	snap := collector.Snapshot()
	require.NotNil(t, snap.Resolve)
	assert.Equal(t, int64(2), snap.Resolve.Count)
	assert.Equal(t, int64(1), snap.Outcomes["resolve_high"])
	assert.Equal(t, int64(1), snap.Outcomes["resolve_low"])
}

func TestResolvePromptEmbedsInputVerbatim(t *testing.T) {
	gen := &stubGenerator{text: `{}`}
	input := `el "próximo" martes`
	newTestResolver(t, gen).Resolve(context.Background(), input, "7pm")
	assert.True(t, strings.Contains(gen.prompts[0], input))
}
