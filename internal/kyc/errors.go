package kyc

import (
	"net/http"

	"kycore/pkg/errors"
)

// HTTPStatus maps an engine error onto the HTTP status the surrounding API
// layer should return. Unknown errors are treated as internal and their
// detail is not exposed to callers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrValidationFailed),
		errors.Is(err, errors.ErrEmptyRiskFactors),
		errors.Is(err, errors.ErrInvalidValidityWindow),
		errors.Is(err, errors.ErrInvalidRiskLevel),
		errors.Is(err, errors.ErrScoreOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrDocumentNumberExists):
		return http.StatusConflict
	case errors.Is(err, errors.ErrVerificationNotFound),
		errors.Is(err, errors.ErrDocumentNotFound),
		errors.Is(err, errors.ErrAssessmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrVerifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the operation with backoff.
// Only transient verifier failures qualify; the engine itself never retries.
func Retryable(err error) bool {
	return errors.Is(err, errors.ErrVerifierUnavailable)
}
