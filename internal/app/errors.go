package app

import (
	"errors"
	"fmt"

	"facelyze-api/internal/ai"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPhoto       = errors.New("invalid photo")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrAnalysisNotFound   = errors.New("analysis not found")
	ErrPreviewNotFound    = errors.New("preview not found or expired")
	ErrPhotoRejected      = errors.New("photo does not show a face")
	ErrModelOutputInvalid = errors.New("analysis result was malformed, please try again")
	ErrModelUnavailable   = errors.New("analysis service is temporarily unavailable")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnknownPack        = errors.New("unknown token pack")
	ErrReferenceUsed      = errors.New("reference already used")
)

func mapModelError(err error) error {
	switch {
	case errors.Is(err, ai.ErrInvalidOutput):
		return fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	case errors.Is(err, ai.ErrUnavailable):
		return ErrModelUnavailable
	default:
		return fmt.Errorf("model call failed: %w", err)
	}
}

// Metrics is the slice of the metrics collector services report into.
type Metrics interface {
	AnalysisOutcome(kind, outcome string)
	Charged(reason string, tokens int)
	Credited(reason string, tokens int)
	CacheLookup(cache string, hit bool)
}

type noopMetrics struct{}

func (noopMetrics) AnalysisOutcome(string, string) {}
func (noopMetrics) Charged(string, int)            {}
func (noopMetrics) Credited(string, int)           {}
func (noopMetrics) CacheLookup(string, bool)       {}

func orNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
