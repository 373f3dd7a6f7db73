// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Verification errors
	ErrVerificationNotFound = errors.New("verification not found")
	ErrDocumentNumberExists = errors.New("document number already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrValidationFailed     = errors.New("validation failed")
	ErrVerifierUnavailable  = errors.New("external verification service temporarily unavailable")

	// Document errors
	ErrDocumentNotFound = errors.New("document not found")

	// Risk assessment errors
	ErrAssessmentNotFound    = errors.New("risk assessment not found")
	ErrEmptyRiskFactors      = errors.New("risk assessment requires at least one risk factor")
	ErrInvalidValidityWindow = errors.New("assessment expiry must be after assessment date")
	ErrInvalidRiskLevel      = errors.New("invalid risk level")
	ErrScoreOutOfRange       = errors.New("risk score must be between 0 and 100")
)

// New returns an error with the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
