package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/closeout/internal/models"
)

// Booking statuses.
const (
	BookingConfirmed     = "confirmed"
	BookingLowConfidence = "low_confidence"
)

// BookingRequest asks to schedule a visit from natural-language date and time.
type BookingRequest struct {
	Name      string `json:"name"`
	VisitDate string `json:"visit_date"`
	VisitTime string `json:"visit_time"`
	Purpose   string `json:"purpose"`
}

// BookingResult is the outcome of a scheduling attempt. Visit is set only when
// Status is BookingConfirmed.
type BookingResult struct {
	Status     string                  `json:"status"`
	Visit      *models.Visit           `json:"confirmed_visit,omitempty"`
	Resolution models.ResolutionResult `json:"resolution"`
	Message    string                  `json:"message"`
}

// BookingService confirms visits only when their date/time resolves with high confidence.
type BookingService struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewBookingService creates a booking service.
func NewBookingService(resolver *Resolver, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{resolver: resolver, logger: logger}
}

// Schedule validates req and resolves its date/time. Low confidence is a normal
// outcome (ask the customer to clarify), not an error.
func (s *BookingService) Schedule(ctx context.Context, req BookingRequest) (BookingResult, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"visit_date", req.VisitDate},
		{"visit_time", req.VisitTime},
		{"purpose", req.Purpose},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return BookingResult{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	res := s.resolver.Resolve(ctx, req.VisitDate, req.VisitTime)
	if !res.Committable() {
		s.logger.Info("visit not booked", "name", req.Name, "visit_date", req.VisitDate, "visit_time", req.VisitTime)
		return BookingResult{
			Status:     BookingLowConfidence,
			Resolution: res,
			Message:    "No pude confirmar la fecha y hora de tu visita. ¿Podrías indicarme el día y la hora exactos?",
		}, nil
	}

	visit := &models.Visit{
		Name:      req.Name,
		Purpose:   req.Purpose,
		VisitDate: *res.VisitDate,
		VisitTime: *res.VisitTime,
	}

	s.logger.Info("visit booked", "name", visit.Name, "visit_date", visit.VisitDate, "visit_time", visit.VisitTime)
	return BookingResult{
		Status:     BookingConfirmed,
		Visit:      visit,
		Resolution: res,
		Message: fmt.Sprintf("Perfecto %s. Tu visita quedó agendada para el %s a las %s.",
			visit.Name, visit.VisitDate, visit.VisitTime),
	}, nil
}
