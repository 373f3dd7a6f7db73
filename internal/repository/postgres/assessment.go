package postgres

import (
	"context"
	"database/sql"

	"kycore/internal/domain"
	"kycore/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AssessmentRepository implements kyc.AssessmentRepository on PostgreSQL.
// There is no update path: assessments are immutable once written.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new risk assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *domain.RiskAssessment) error {
	query := `
		INSERT INTO risk_assessments (
			id, user_id, verification_id, overall_score, risk_level,
			risk_factors, assessment_date, expiry_date, assessed_by, created_at
		) VALUES (
			:id, :user_id, :verification_id, :overall_score, :risk_level,
			:risk_factors, :assessment_date, :expiry_date, :assessed_by, :created_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return errors.Wrap(err, "failed to create risk assessment")
	}

	return nil
}

// FindByID retrieves an assessment by ID.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	query := `SELECT * FROM risk_assessments WHERE id = $1`

	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAssessmentNotFound
		}
		return nil, errors.Wrap(err, "failed to get risk assessment")
	}

	return &a, nil
}

// FindByVerificationID retrieves a verification's assessments, newest first.
func (r *AssessmentRepository) FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.RiskAssessment, error) {
	assessments := []*domain.RiskAssessment{}
	query := `
		SELECT * FROM risk_assessments
		WHERE verification_id = $1
		ORDER BY assessment_date DESC, created_at DESC
	`

	if err := r.db.SelectContext(ctx, &assessments, query, verificationID); err != nil {
		return nil, errors.Wrap(err, "failed to list risk assessments")
	}

	return assessments, nil
}
