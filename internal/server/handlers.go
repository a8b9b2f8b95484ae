package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/raphaelgruber/closeout/internal/service"
)

// maxBodyBytes caps request bodies; transcripts of long calls stay well below it.
const maxBodyBytes = 1 << 20

type handler struct {
	deps    *Dependencies
	version string
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusResponse is returned by the index and health endpoints.
type StatusResponse struct {
	Status   string `json:"status"`
	Campaign string `json:"campaign"`
	Timezone string `json:"timezone"`
	Version  string `json:"version"`
}

// MultiplyRequest is the body of the multiplication action.
type MultiplyRequest struct {
	Number1 *float64 `json:"number1"`
	Number2 *float64 `json:"number2"`
}

// MultiplyResponse carries the product.
type MultiplyResponse struct {
	Status  string  `json:"status"`
	Result  float64 `json:"result"`
	Message string  `json:"message"`
}

// QuoteRequest is the body of the quote action.
type QuoteRequest struct {
	EventType string `json:"tipo_evento"`
	Guests    *int   `json:"numero_invitados"`
}

// ResolveRequest is the body of the operator resolve tool.
type ResolveRequest struct {
	VisitDate string `json:"visit_date"`
	VisitTime string `json:"visit_time"`
}

// SummarizeRequest is the body of the operator summarize tool.
type SummarizeRequest struct {
	Transcript []models.Turn `json:"transcript"`
}

// SummarizeResponse carries a transcript summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decode reads a JSON body into v, writing a 400 and returning false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// campaign rejects requests whose campaign path segment is not the configured slug.
func (h *handler) campaign(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if slug := r.PathValue("campaign"); slug != h.deps.Campaign.Slug {
			writeError(w, http.StatusNotFound, "unknown campaign: "+slug)
			return
		}
		next(w, r)
	}
}

func (h *handler) status() StatusResponse {
	return StatusResponse{
		Status:   "ok",
		Campaign: h.deps.Campaign.Slug,
		Timezone: h.deps.Resolver.Location().String(),
		Version:  h.version,
	}
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Metrics.Snapshot())
}

func (h *handler) afterCall(w http.ResponseWriter, r *http.Request) {
	var req service.CloseoutRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.deps.Closeout.Close(r.Context(), req); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.deps.Logger.Error("close-out failed", "conversation_id", req.ConversationID, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "could not write conversation records")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *handler) scheduleVisit(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.deps.Booking.Schedule(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result.Status != service.BookingConfirmed {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) quoteEvent(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decode(w, r, &req) {
		return
	}

	if req.EventType == "" || req.Guests == nil {
		writeError(w, http.StatusBadRequest, "tipo_evento and numero_invitados are required")
		return
	}

	quote, err := service.QuoteEvent(h.deps.Campaign.Pricing, req.EventType, *req.Guests)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handler) multiply(w http.ResponseWriter, r *http.Request) {
	var req MultiplyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Number1 == nil || req.Number2 == nil {
		writeError(w, http.StatusBadRequest, "number1 and number2 are required")
		return
	}
	a, b := *req.Number1, *req.Number2
	result := service.Multiply(a, b)
	writeJSON(w, http.StatusOK, MultiplyResponse{
		Status:  "success",
		Result:  result,
		Message: fmt.Sprintf("The product of %s and %s is %s", formatNumber(a), formatNumber(b), formatNumber(result)),
	})
}

func (h *handler) resolveDatetime(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Resolver.Resolve(r.Context(), req.VisitDate, req.VisitTime))
}

func (h *handler) summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !decode(w, r, &req) {
		return
	}

	summary, err := h.deps.Summarizer.Summarize(r.Context(), req.Transcript)
	if err != nil && !errors.Is(err, service.ErrEmptyTranscript) {
		h.deps.Logger.Warn("summary failed", "error", err, "turns", len(req.Transcript),
			"first_turn", firstTurn(req.Transcript), "request_id", RequestID(r.Context()))
		summary = ""
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func firstTurn(turns []models.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return truncate(turns[0].Content, 80)
}
