package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownReport = errors.New("unknown report type")
	ErrConversion    = errors.New("report conversion failed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTemporary     = errors.New("temporary failure")

	ErrBackendUnreachable = errors.New("extraction backend unreachable")
	ErrBackendTimeout     = errors.New("extraction backend timeout")
	ErrSchemaMismatch     = errors.New("payload does not match report schema")
)

// DetectionReason names why automatic converter selection failed.
type DetectionReason string

const (
	DetectionNoMatch       DetectionReason = "no_match"
	DetectionAmbiguous     DetectionReason = "ambiguous"
	DetectionLowConfidence DetectionReason = "low_confidence"
)

// DetectionError is returned when a converter cannot be uniquely determined.
// Candidates carry enough data for the caller to render a manual-selection
// menu without re-running detection.
type DetectionError struct {
	Reason     DetectionReason
	Message    string
	Candidates []ReportCandidate
}

func (e *DetectionError) Error() string {
	return e.Message
}

func AsDetectionError(err error) (*DetectionError, bool) {
	var det *DetectionError
	if errors.As(err, &det) {
		return det, true
	}
	return nil, false
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
