package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by the core workflow. Handlers map these onto HTTP
// status codes; no storage or model internals leak to the caller.
var (
	ErrUnauthorized      = errors.New("unauthorized")                  // No valid caller identity
	ErrForbidden         = errors.New("forbidden")                     // Authenticated but lacking the required role
	ErrNotFound          = errors.New("not found")                     // Referenced account or template missing
	ErrModelUnavailable  = errors.New("image model unavailable")       // Missing/invalid model credentials or unreachable endpoint
	ErrGenerationFailed  = errors.New("image generation failed")       // Every image attempt in the batch failed
	ErrStorageFailed     = errors.New("image storage failed")          // Upload failure, absorbed per image
	ErrValidation        = errors.New("invalid request")               // Empty prompt, bad aspect ratio, malformed image data
	ErrInvalidTransition = errors.New("invalid moderation transition") // Approve/reject on the opposite terminal state
)

// InsufficientCreditsError reports a rejected generation request with the
// cost that was required and the balance that was available.
type InsufficientCreditsError struct {
	Needed    int // Credits the request would have cost
	Available int // Credits on the account at authorization time
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Needed, e.Available)
}
