package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGeneration wraps every failure of a generation call (transport, auth, quota).
	ErrGeneration = errors.New("generation failed")

	// ErrFatalAPI marks failures that will not go away by retrying: bad credentials,
	// exhausted credit or quota. Operators need to act on these.
	ErrFatalAPI = errors.New("fatal API error")
)

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like an auth, billing or quota failure.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps err with ErrFatalAPI when it is fatal, otherwise returns it unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
