package postgres

import (
	"context"
	"database/sql"

	"kycore/internal/domain"
	"kycore/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DocumentRepository implements kyc.DocumentRepository on PostgreSQL.
// Documents are written through the verification repository; this type only
// reads them.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID retrieves a document by ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	query := `SELECT * FROM kyc_documents WHERE id = $1`

	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrDocumentNotFound
		}
		return nil, errors.Wrap(err, "failed to get document")
	}

	return &doc, nil
}

// FindByVerificationID retrieves a verification's documents in creation order.
func (r *DocumentRepository) FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.Document, error) {
	docs := []*domain.Document{}
	query := `
		SELECT * FROM kyc_documents
		WHERE verification_id = $1
		ORDER BY created_at ASC
	`

	if err := r.db.SelectContext(ctx, &docs, query, verificationID); err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}

	return docs, nil
}
