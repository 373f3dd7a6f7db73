// ==============================================================================
// VERIFICATION REPOSITORY IMPLEMENTATION
// ==============================================================================
// PostgreSQL persistence for KYC verifications and their documents. The
// unique index on document_number is the authoritative uniqueness check; the
// status-conditioned update backs the decide/sweep concurrency guarantee.
// ==============================================================================

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kycore/internal/domain"
	"kycore/internal/kyc"
	"kycore/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// VerificationRepository implements kyc.VerificationRepository on PostgreSQL.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository creates a new VerificationRepository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const insertVerificationQuery = `
	INSERT INTO kyc_verifications (
		id, user_id, type, first_name, last_name, date_of_birth, nationality,
		street, city, state, country_code, postal_code, phone_number, email,
		document_type, document_number, document_expiry_date,
		document_front_url, document_back_url, selfie_url,
		status, risk_score, risk_factors, verification_notes,
		verified_by, verified_at, created_at, updated_at
	) VALUES (
		:id, :user_id, :type, :first_name, :last_name, :date_of_birth, :nationality,
		:street, :city, :state, :country_code, :postal_code, :phone_number, :email,
		:document_type, :document_number, :document_expiry_date,
		:document_front_url, :document_back_url, :selfie_url,
		:status, :risk_score, :risk_factors, :verification_notes,
		:verified_by, :verified_at, :created_at, :updated_at
	)
`

const insertDocumentQuery = `
	INSERT INTO kyc_documents (
		id, user_id, verification_id, kind, status, file_name, file_url,
		file_size_bytes, mime_type, verified_by, verified_at, created_at, updated_at
	) VALUES (
		:id, :user_id, :verification_id, :kind, :status, :file_name, :file_url,
		:file_size_bytes, :mime_type, :verified_by, :verified_at, :created_at, :updated_at
	)
`

// Create inserts the verification and its documents in one transaction. A
// document-number unique violation is translated to ErrDocumentNumberExists.
func (r *VerificationRepository) Create(ctx context.Context, v *domain.KYCVerification, docs []*domain.Document) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertVerificationQuery, v); err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDocumentNumberExists
		}
		return errors.Wrap(err, "failed to insert verification")
	}

	for _, doc := range docs {
		if _, err := tx.NamedExecContext(ctx, insertDocumentQuery, doc); err != nil {
			return errors.Wrap(err, "failed to insert document")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit verification")
	}

	return nil
}

// FindByID retrieves a verification by ID.
func (r *VerificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	var v domain.KYCVerification
	query := `SELECT * FROM kyc_verifications WHERE id = $1`

	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrVerificationNotFound
		}
		return nil, errors.Wrap(err, "failed to get verification")
	}

	return &v, nil
}

// ExistsByDocumentNumber reports whether any verification already references
// the document number.
func (r *VerificationRepository) ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM kyc_verifications WHERE document_number = $1)`

	if err := r.db.GetContext(ctx, &exists, query, documentNumber); err != nil {
		return false, errors.Wrap(err, "failed to check document number")
	}

	return exists, nil
}

// FindByUserID retrieves a user's verifications, newest first.
func (r *VerificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.KYCVerification, error) {
	verifications := []*domain.KYCVerification{}
	query := `
		SELECT * FROM kyc_verifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	if err := r.db.SelectContext(ctx, &verifications, query, userID, limit, offset); err != nil {
		return nil, errors.Wrap(err, "failed to list user verifications")
	}

	return verifications, nil
}

// CountByUserID counts a user's verifications.
func (r *VerificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM kyc_verifications WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, errors.Wrap(err, "failed to count user verifications")
	}

	return count, nil
}

func buildListClauses(filter kyc.ListFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	arg := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", arg))
		args = append(args, filter.Status)
		arg++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", arg))
		args = append(args, filter.Type)
		arg++
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", arg))
		args = append(args, *filter.StartDate)
		arg++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", arg))
		args = append(args, *filter.EndDate)
		arg++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args
}

// List retrieves verifications matching the filter, newest first.
func (r *VerificationRepository) List(ctx context.Context, filter kyc.ListFilter, limit, offset int) ([]*domain.KYCVerification, error) {
	where, args := buildListClauses(filter)

	query := fmt.Sprintf(
		"SELECT * FROM kyc_verifications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	verifications := []*domain.KYCVerification{}
	if err := r.db.SelectContext(ctx, &verifications, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list verifications")
	}

	return verifications, nil
}

// Count counts verifications matching the filter.
func (r *VerificationRepository) Count(ctx context.Context, filter kyc.ListFilter) (int, error) {
	where, args := buildListClauses(filter)

	var count int
	query := "SELECT COUNT(*) FROM kyc_verifications" + where
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "failed to count verifications")
	}

	return count, nil
}

// UpdateStatusWithCascade persists the verification's workflow fields and the
// document cascade atomically. The update is conditional on the stored status
// still matching from; losing that race surfaces as ErrInvalidTransition, and
// a missing row as ErrVerificationNotFound.
func (r *VerificationRepository) UpdateStatusWithCascade(
	ctx context.Context,
	v *domain.KYCVerification,
	from domain.VerificationStatus,
	cascade *domain.DocumentStatus,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		UPDATE kyc_verifications SET
			status = $1,
			verification_notes = $2,
			verified_by = $3,
			verified_at = $4,
			updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := tx.ExecContext(ctx, query,
		v.Status, v.VerificationNotes, v.VerifiedBy, v.VerifiedAt, v.UpdatedAt,
		v.ID, from,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update verification status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rows == 0 {
		// Distinguish a vanished record from a concurrent transition.
		var current domain.VerificationStatus
		err := tx.GetContext(ctx, &current, `SELECT status FROM kyc_verifications WHERE id = $1`, v.ID)
		if err == sql.ErrNoRows {
			return errors.ErrVerificationNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to reread verification status")
		}
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, current, v.Status)
	}

	if cascade != nil {
		docQuery := `
			UPDATE kyc_documents SET
				status = $1,
				verified_by = $2,
				verified_at = $3,
				updated_at = $4
			WHERE verification_id = $5
		`
		if _, err := tx.ExecContext(ctx, docQuery,
			*cascade, v.VerifiedBy, v.VerifiedAt, v.UpdatedAt, v.ID,
		); err != nil {
			return errors.Wrap(err, "failed to cascade document status")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit status update")
	}

	return nil
}

// FindExpiredApproved retrieves approved verifications whose document expiry
// date has passed the cutoff.
func (r *VerificationRepository) FindExpiredApproved(ctx context.Context, cutoff time.Time) ([]*domain.KYCVerification, error) {
	verifications := []*domain.KYCVerification{}
	query := `
		SELECT * FROM kyc_verifications
		WHERE status = $1 AND document_expiry_date < $2
		ORDER BY document_expiry_date ASC
	`

	if err := r.db.SelectContext(ctx, &verifications, query, domain.VerificationStatusApproved, cutoff); err != nil {
		return nil, errors.Wrap(err, "failed to find expired verifications")
	}

	return verifications, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}
