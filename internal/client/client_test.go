package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "salon-ibargo", time.Second)
}

func TestNewDefaults(t *testing.T) {
	c := New("", "salon-ibargo", 0)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, 2*time.Minute, c.httpClient.Timeout)
}

func TestResolveDatetime(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/salon-ibargo/resolve-datetime", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mañana", body["visit_date"])
		assert.Equal(t, "7 pm", body["visit_time"])

		_, _ = w.Write([]byte(`{"visit_date":"2026-01-20","visit_time":"19:00","visit_datetime_iso":"2026-01-20T19:00:00-08:00","timezone":"America/Los_Angeles","confidence":"high"}`))
	})

	res, err := c.ResolveDatetime(context.Background(), "mañana", "7 pm")
	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	require.NotNil(t, res.VisitDatetimeISO)
	assert.Equal(t, "2026-01-20T19:00:00-08:00", *res.VisitDatetimeISO)
}

func TestSummarize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/salon-ibargo/summarize", r.URL.Path)
		var body struct {
			Transcript []models.Turn `json:"transcript"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Transcript, 1)
		_, _ = w.Write([]byte(`{"summary":"Cliente pidió informes."}`))
	})

	summary, err := c.Summarize(context.Background(), []models.Turn{{Role: models.RoleUser, Content: "Hola"}})
	require.NoError(t, err)
	assert.Equal(t, "Cliente pidió informes.", summary)
}

func TestQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/salon-ibargo/cotizar-evento", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","tipo_evento":"boda","numero_invitados":100,"estimated_price_mxn":48000,"message":"ok"}`))
	})

	q, err := c.Quote(context.Background(), "boda", 100)
	require.NoError(t, err)
	assert.Equal(t, 48000, q.PriceMXN)
	assert.Equal(t, "success", q.Status)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid input: numero_invitados must not be negative"}`))
	})

	_, err := c.Quote(context.Background(), "boda", -1)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "numero_invitados")
}

func TestAPIErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Contains(t, err.Error(), "boom")
}

func TestStatsAndHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stats":
			_, _ = w.Write([]byte(`{"uptime_seconds":12.5,"outcomes":{"resolve_high":3}}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok","campaign":"salon-ibargo","version":"dev"}`))
		default:
			http.NotFound(w, r)
		}
	})

	snap, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Outcomes["resolve_high"])

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}
