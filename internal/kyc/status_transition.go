// ==============================================================================
// STATUS TRANSITION MANAGEMENT - internal/kyc/status_transition.go
// ==============================================================================
// Exhaustive transition table for the verification workflow and the document
// cascade that follows a terminal decision.
// ==============================================================================

package kyc

import (
	"fmt"
	"time"

	"kycore/internal/domain"
	"kycore/pkg/errors"
)

type transitionKey struct {
	From domain.VerificationStatus
	To   domain.VerificationStatus
}

// allowedTransitions is the complete set of legal status changes. Anything
// absent from this table is rejected; there is no implicit fall-through.
var allowedTransitions = map[transitionKey]struct{}{
	// Reviewer picks up a pending submission.
	{domain.VerificationStatusPending, domain.VerificationStatusInProgress}: {},

	// Direct decisions on a pending submission.
	{domain.VerificationStatusPending, domain.VerificationStatusApproved}: {},
	{domain.VerificationStatusPending, domain.VerificationStatusRejected}: {},

	// Decisions after review.
	{domain.VerificationStatusInProgress, domain.VerificationStatusApproved}: {},
	{domain.VerificationStatusInProgress, domain.VerificationStatusRejected}: {},

	// Expiry sweep, once the document expiry date has passed.
	{domain.VerificationStatusApproved, domain.VerificationStatusExpired}: {},
}

// ValidateTransition checks a status change against the transition table.
func ValidateTransition(from, to domain.VerificationStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", errors.ErrValidationFailed, to)
	}
	if _, ok := allowedTransitions[transitionKey{From: from, To: to}]; !ok {
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, from, to)
	}
	return nil
}

// CascadeStatus maps a terminal verification status onto the document status
// that must be mirrored to every owned document. The expiry sweep does not
// re-touch documents, so expired returns no cascade.
func CascadeStatus(to domain.VerificationStatus) (domain.DocumentStatus, bool) {
	switch to {
	case domain.VerificationStatusApproved:
		return domain.DocumentStatusVerified, true
	case domain.VerificationStatusRejected:
		return domain.DocumentStatusRejected, true
	default:
		return "", false
	}
}

// ApplyTransition validates the change, mutates the verification's workflow
// fields, and returns the document cascade target if one applies. The caller
// persists the verification and cascade atomically.
func ApplyTransition(
	v *domain.KYCVerification,
	to domain.VerificationStatus,
	reviewer string,
	notes string,
	now time.Time,
) (domain.DocumentStatus, bool, error) {
	if err := ValidateTransition(v.Status, to); err != nil {
		return "", false, err
	}

	v.Status = to
	v.VerifiedBy = reviewer
	v.VerifiedAt = &now
	v.UpdatedAt = now
	if notes != "" {
		v.VerificationNotes = notes
	}

	docStatus, cascade := CascadeStatus(to)
	return docStatus, cascade, nil
}
