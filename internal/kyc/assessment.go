package kyc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kycore/internal/domain"
	"kycore/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssessmentRepository persists immutable risk-assessment records.
type AssessmentRepository interface {
	Create(ctx context.Context, a *domain.RiskAssessment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.RiskAssessment, error)
	FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.RiskAssessment, error)
}

var (
	assessmentScoreMin = decimal.Zero
	assessmentScoreMax = decimal.NewFromInt(100)
)

// AssessmentRequest carries one manual or automated risk assessment to record
// against an existing verification.
type AssessmentRequest struct {
	VerificationID uuid.UUID
	OverallScore   decimal.Decimal
	RiskLevel      domain.RiskLevel
	RiskFactors    domain.RiskFactorItems
	AssessmentDate time.Time
	ExpiryDate     time.Time
	AssessedBy     string
}

func (r *AssessmentRequest) validate() error {
	if r.VerificationID == uuid.Nil {
		return fmt.Errorf("%w: verificationId is required", errors.ErrValidationFailed)
	}
	if strings.TrimSpace(r.AssessedBy) == "" {
		return fmt.Errorf("%w: assessedBy is required", errors.ErrValidationFailed)
	}
	if !r.RiskLevel.IsValid() {
		return fmt.Errorf("%w: %q", errors.ErrInvalidRiskLevel, r.RiskLevel)
	}
	if r.OverallScore.LessThan(assessmentScoreMin) || r.OverallScore.GreaterThan(assessmentScoreMax) {
		return fmt.Errorf("%w: %s", errors.ErrScoreOutOfRange, r.OverallScore)
	}
	if len(r.RiskFactors) == 0 {
		return errors.ErrEmptyRiskFactors
	}
	for _, f := range r.RiskFactors {
		if f.Score.LessThan(assessmentScoreMin) || f.Score.GreaterThan(assessmentScoreMax) {
			return fmt.Errorf("%w: factor %q scored %s", errors.ErrScoreOutOfRange, f.Category, f.Score)
		}
	}
	if !r.ExpiryDate.After(r.AssessmentDate) {
		return fmt.Errorf("%w: expiry %s is not after assessment %s",
			errors.ErrInvalidValidityWindow,
			r.ExpiryDate.Format("2006-01-02"),
			r.AssessmentDate.Format("2006-01-02"))
	}
	return nil
}

// RecordAssessment validates and persists one risk assessment. The referenced
// verification must exist; assessments never mutate the verification itself
// and are never updated after creation.
func (s *Service) RecordAssessment(ctx context.Context, req AssessmentRequest) (*domain.RiskAssessment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	verification, err := s.verifications.FindByID(ctx, req.VerificationID)
	if err != nil {
		return nil, err
	}

	assessment := &domain.RiskAssessment{
		ID:             uuid.New(),
		UserID:         verification.UserID,
		VerificationID: verification.ID,
		OverallScore:   req.OverallScore,
		RiskLevel:      req.RiskLevel,
		RiskFactors:    req.RiskFactors,
		AssessmentDate: req.AssessmentDate,
		ExpiryDate:     req.ExpiryDate,
		AssessedBy:     req.AssessedBy,
		CreatedAt:      time.Now(),
	}

	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, errors.Wrap(err, "failed to persist risk assessment")
	}

	s.logger.Info("Risk assessment recorded", map[string]interface{}{
		"assessment_id":   assessment.ID,
		"verification_id": assessment.VerificationID,
		"risk_level":      assessment.RiskLevel,
		"overall_score":   assessment.OverallScore.String(),
	})

	return assessment, nil
}

// GetAssessment loads one assessment by ID.
func (s *Service) GetAssessment(ctx context.Context, id uuid.UUID) (*domain.RiskAssessment, error) {
	return s.assessments.FindByID(ctx, id)
}

// ListVerificationAssessments lists a verification's assessments, newest
// first.
func (s *Service) ListVerificationAssessments(ctx context.Context, verificationID uuid.UUID) ([]*domain.RiskAssessment, error) {
	if _, err := s.verifications.FindByID(ctx, verificationID); err != nil {
		return nil, err
	}
	return s.assessments.FindByVerificationID(ctx, verificationID)
}
