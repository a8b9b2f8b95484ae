package service

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/closeout/internal/config"
)

// Quote is an estimated event price.
type Quote struct {
	Status    string `json:"status"`
	EventType string `json:"tipo_evento"`
	Guests    int    `json:"numero_invitados"`
	PriceMXN  int    `json:"estimated_price_mxn"`
	Message   string `json:"message"`
}

// QuoteEvent prices an event as base + guests*per-guest, scaled by the event type
// multiplier and truncated to whole pesos.
func QuoteEvent(p config.Pricing, eventType string, guests int) (Quote, error) {
	if strings.TrimSpace(eventType) == "" {
		return Quote{}, fmt.Errorf("%w: tipo_evento is required", ErrInvalidInput)
	}
	if guests < 0 {
		return Quote{}, fmt.Errorf("%w: numero_invitados must not be negative", ErrInvalidInput)
	}

	price := float64(p.Base + guests*p.PerGuest)
	if m, ok := p.Multipliers[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		price *= m
	}
	total := int(price)

	return Quote{
		Status:    "success",
		EventType: eventType,
		Guests:    guests,
		PriceMXN:  total,
		Message: fmt.Sprintf("Para un %s con aproximadamente %d invitados, la cotización estimada es de %d MXN.",
			eventType, guests, total),
	}, nil
}

// Multiply returns a*b.
func Multiply(a, b float64) float64 {
	return a * b
}
