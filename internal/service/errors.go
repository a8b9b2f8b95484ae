// Package service implements conversation close-out: summarization, date/time
// resolution, record building and visit booking.
package service

import "errors"

var (
	// ErrInvalidInput marks caller input that is missing or malformed.
	// It is the only service error meant to reach HTTP callers as a 4xx.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyTranscript is returned when summarization is requested for a
	// transcript without any content.
	ErrEmptyTranscript = errors.New("empty transcript")
)
