// ==============================================================================
// KYC VERIFICATION SERVICE - internal/kyc/service.go
// ==============================================================================
// Orchestrates the verification pipeline: uniqueness check, external identity
// match, risk scoring, persistence, review decisions, and the expiry sweep.
// ==============================================================================

package kyc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kycore/internal/domain"
	"kycore/pkg/errors"
	"kycore/pkg/logger"

	"github.com/google/uuid"
)

// ExpiryNote is the standard note stamped by the expiry sweep.
const ExpiryNote = "Verification expired due to document expiry"

const (
	verificationCacheTTL = 5 * time.Minute
	defaultPageSize      = 10
	maxPageSize          = 100
)

// ==============================================================================
// DEPENDENCY CONTRACTS
// ==============================================================================

// VerificationRepository persists verifications and their documents. Create
// inserts the verification and its documents in one transaction and must
// translate a document-number unique violation into ErrDocumentNumberExists:
// the constraint, not the pre-check, is the source of truth for uniqueness.
type VerificationRepository interface {
	Create(ctx context.Context, v *domain.KYCVerification, docs []*domain.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error)
	ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.KYCVerification, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*domain.KYCVerification, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	// UpdateStatusWithCascade persists the verification's workflow fields and,
	// when cascade is non-nil, the bulk document update in the same
	// transaction. The update is conditional on the record still holding the
	// from status; a lost race surfaces as ErrInvalidTransition.
	UpdateStatusWithCascade(ctx context.Context, v *domain.KYCVerification, from domain.VerificationStatus, cascade *domain.DocumentStatus) error

	FindExpiredApproved(ctx context.Context, cutoff time.Time) ([]*domain.KYCVerification, error)
}

// DocumentRepository reads evidentiary documents.
type DocumentRepository interface {
	FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.Document, error)
}

// Cache is the optional read-through cache for verification lookups.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ==============================================================================
// SERVICE
// ==============================================================================

// Service is the KYC verification engine.
type Service struct {
	verifications VerificationRepository
	documents     DocumentRepository
	assessments   AssessmentRepository
	verifier      Verifier
	scoring       ScoringConfig
	cache         Cache
	logger        logger.Logger
}

// NewService wires the engine. cache may be nil for callers that do not need
// read caching (e.g. the sweep binary).
func NewService(
	verifications VerificationRepository,
	documents DocumentRepository,
	assessments AssessmentRepository,
	verifier Verifier,
	scoring ScoringConfig,
	cache Cache,
	log logger.Logger,
) *Service {
	return &Service{
		verifications: verifications,
		documents:     documents,
		assessments:   assessments,
		verifier:      verifier,
		scoring:       scoring,
		cache:         cache,
		logger:        log,
	}
}

// ==============================================================================
// SUBMISSION
// ==============================================================================

// SubmitRequest carries one identity-verification submission.
type SubmitRequest struct {
	UserID             uuid.UUID
	Type               domain.VerificationType
	FirstName          string
	LastName           string
	DateOfBirth        string // YYYY-MM-DD
	Nationality        string
	Street             string
	City               string
	State              string
	CountryCode        string
	PostalCode         string
	PhoneNumber        string
	Email              string
	DocumentType       string
	DocumentNumber     string
	DocumentExpiryDate string // YYYY-MM-DD
	DocumentFrontURL   string
	DocumentBackURL    string
	SelfieURL          string
}

func (r *SubmitRequest) validate() (dob, expiry time.Time, err error) {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required", errors.ErrValidationFailed, field)
	}

	switch {
	case r.UserID == uuid.Nil:
		return dob, expiry, missing("userId")
	case strings.TrimSpace(r.FirstName) == "":
		return dob, expiry, missing("firstName")
	case strings.TrimSpace(r.LastName) == "":
		return dob, expiry, missing("lastName")
	case strings.TrimSpace(r.Email) == "":
		return dob, expiry, missing("email")
	case strings.TrimSpace(r.DocumentType) == "":
		return dob, expiry, missing("documentType")
	case strings.TrimSpace(r.DocumentNumber) == "":
		return dob, expiry, missing("documentNumber")
	case strings.TrimSpace(r.DocumentFrontURL) == "":
		return dob, expiry, missing("documentFrontUrl")
	case strings.TrimSpace(r.DocumentBackURL) == "":
		return dob, expiry, missing("documentBackUrl")
	case strings.TrimSpace(r.SelfieURL) == "":
		return dob, expiry, missing("selfieUrl")
	}

	dob, err = time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return dob, expiry, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", errors.ErrValidationFailed)
	}

	expiry, err = time.Parse("2006-01-02", r.DocumentExpiryDate)
	if err != nil {
		return dob, expiry, fmt.Errorf("%w: documentExpiryDate must be YYYY-MM-DD", errors.ErrValidationFailed)
	}

	return dob, expiry, nil
}

// Submit runs the verification pipeline for one submission. The duplicate
// pre-check avoids a wasted external call; the unique constraint on insert
// remains authoritative for races. A verifier failure persists nothing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.KYCVerification, error) {
	dob, expiry, err := req.validate()
	if err != nil {
		return nil, err
	}

	exists, err := s.verifications.ExistsByDocumentNumber(ctx, req.DocumentNumber)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check document number")
	}
	if exists {
		return nil, errors.ErrDocumentNumberExists
	}

	result, err := s.verifier.Verify(ctx, Submission{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		Nationality:    req.Nationality,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
	})
	if err != nil {
		s.logger.Error("External verification failed", map[string]interface{}{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		if errors.Is(err, errors.ErrVerifierUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrVerifierUnavailable, err)
	}

	score := CalculateRiskScore(result, s.scoring)

	now := time.Now()
	verification := &domain.KYCVerification{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		Type:               verificationType(req.Type),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        dob,
		Nationality:        req.Nationality,
		Street:             req.Street,
		City:               req.City,
		State:              req.State,
		CountryCode:        req.CountryCode,
		PostalCode:         req.PostalCode,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		DocumentType:       req.DocumentType,
		DocumentNumber:     req.DocumentNumber,
		DocumentExpiryDate: expiry,
		DocumentFrontURL:   req.DocumentFrontURL,
		DocumentBackURL:    req.DocumentBackURL,
		SelfieURL:          req.SelfieURL,
		Status:             domain.VerificationStatusPending,
		RiskScore:          score.Score,
		RiskFactors:        score.Factors,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	docs := buildDocuments(verification, now)

	if err := s.verifications.Create(ctx, verification, docs); err != nil {
		if errors.Is(err, errors.ErrDocumentNumberExists) {
			// Lost the check-then-act race; the constraint is authoritative.
			return nil, errors.ErrDocumentNumberExists
		}
		return nil, errors.Wrap(err, "failed to persist verification")
	}

	s.logger.Info("KYC verification submitted", map[string]interface{}{
		"verification_id": verification.ID,
		"user_id":         verification.UserID,
		"risk_score":      verification.RiskScore,
		"risk_factors":    []string(verification.RiskFactors),
	})

	return verification, nil
}

func verificationType(t domain.VerificationType) domain.VerificationType {
	if t == domain.VerificationTypeBusiness {
		return t
	}
	return domain.VerificationTypeIndividual
}

func buildDocuments(v *domain.KYCVerification, now time.Time) []*domain.Document {
	newDoc := func(kind domain.DocumentKind, name, url string) *domain.Document {
		return &domain.Document{
			ID:             uuid.New(),
			UserID:         v.UserID,
			VerificationID: v.ID,
			Kind:           kind,
			Status:         domain.DocumentStatusPending,
			FileName:       name,
			FileURL:        url,
			MimeType:       "image/jpeg",
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	return []*domain.Document{
		newDoc(domain.DocumentKindFront, "document_front", v.DocumentFrontURL),
		newDoc(domain.DocumentKindBack, "document_back", v.DocumentBackURL),
		newDoc(domain.DocumentKindSelfie, "selfie", v.SelfieURL),
	}
}

// ==============================================================================
// DECISIONS
// ==============================================================================

// Decide applies a reviewer decision. The verification update and the
// document cascade are persisted atomically; a concurrent transition on the
// same record loses the optimistic status check and fails rather than
// double-transitioning.
func (s *Service) Decide(
	ctx context.Context,
	id uuid.UUID,
	to domain.VerificationStatus,
	reviewer string,
	notes string,
) (*domain.KYCVerification, error) {
	if strings.TrimSpace(reviewer) == "" {
		return nil, fmt.Errorf("%w: reviewer is required", errors.ErrValidationFailed)
	}

	verification, err := s.verifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := verification.Status
	docStatus, cascade, err := ApplyTransition(verification, to, reviewer, notes, time.Now())
	if err != nil {
		return nil, err
	}

	var cascadeTo *domain.DocumentStatus
	if cascade {
		cascadeTo = &docStatus
	}

	if err := s.verifications.UpdateStatusWithCascade(ctx, verification, from, cascadeTo); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	s.logger.Info("KYC verification decided", map[string]interface{}{
		"verification_id": id,
		"from_status":     from,
		"to_status":       to,
		"reviewer":        reviewer,
	})

	return verification, nil
}

// ==============================================================================
// EXPIRY SWEEP
// ==============================================================================

// SweepExpired transitions approved verifications whose document expiry date
// has passed to expired, stamping the system reviewer. Safe to run
// repeatedly: already-expired records are skipped, and a record decided
// concurrently simply loses its optimistic update and is left alone.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.verifications.FindExpiredApproved(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to find expired verifications")
	}

	swept := 0
	for _, verification := range expired {
		from := verification.Status
		if _, _, err := ApplyTransition(verification, domain.VerificationStatusExpired, domain.SystemReviewer, ExpiryNote, now); err != nil {
			// Already terminal by the time we got here; not an error for the sweep.
			continue
		}

		if err := s.verifications.UpdateStatusWithCascade(ctx, verification, from, nil); err != nil {
			if errors.Is(err, errors.ErrInvalidTransition) || errors.Is(err, errors.ErrVerificationNotFound) {
				continue
			}
			return swept, errors.Wrap(err, "failed to expire verification")
		}

		s.invalidate(ctx, verification.ID)
		swept++
	}

	if swept > 0 {
		s.logger.Info("Expiry sweep completed", map[string]interface{}{
			"expired": swept,
			"cutoff":  now.Format(time.RFC3339),
		})
	}

	return swept, nil
}

// ==============================================================================
// QUERIES
// ==============================================================================

// ListFilter narrows admin verification listings.
type ListFilter struct {
	Status    domain.VerificationStatus
	Type      domain.VerificationType
	StartDate *time.Time
	EndDate   *time.Time
}

// VerificationPage is one page of verification results.
type VerificationPage struct {
	Verifications []*domain.KYCVerification `json:"verifications"`
	Total         int                       `json:"total"`
	Page          int                       `json:"page"`
	Pages         int                       `json:"pages"`
}

// GetVerification loads a verification, reading through the cache when one
// is configured.
func (s *Service) GetVerification(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	key := verificationCacheKey(id)
	if s.cache != nil {
		var cached domain.KYCVerification
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	verification, err := s.verifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, verification, verificationCacheTTL); err != nil {
			s.logger.Warn("Failed to cache verification", map[string]interface{}{
				"verification_id": id,
				"error":           err.Error(),
			})
		}
	}

	return verification, nil
}

// GetVerificationDocuments lists the documents attached to a verification.
func (s *Service) GetVerificationDocuments(ctx context.Context, id uuid.UUID) ([]*domain.Document, error) {
	if _, err := s.verifications.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.documents.FindByVerificationID(ctx, id)
}

// GetUserVerifications returns one page of a user's verification history,
// newest first.
func (s *Service) GetUserVerifications(ctx context.Context, userID uuid.UUID, page, limit int) (*VerificationPage, error) {
	page, limit = normalizePage(page, limit)

	verifications, err := s.verifications.FindByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user verifications")
	}

	total, err := s.verifications.CountByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count user verifications")
	}

	return &VerificationPage{
		Verifications: verifications,
		Total:         total,
		Page:          page,
		Pages:         pageCount(total, limit),
	}, nil
}

// ListVerifications returns one page of verifications matching the filter,
// newest first.
func (s *Service) ListVerifications(ctx context.Context, filter ListFilter, page, limit int) (*VerificationPage, error) {
	page, limit = normalizePage(page, limit)

	verifications, err := s.verifications.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list verifications")
	}

	total, err := s.verifications.Count(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count verifications")
	}

	return &VerificationPage{
		Verifications: verifications,
		Total:         total,
		Page:          page,
		Pages:         pageCount(total, limit),
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func verificationCacheKey(id uuid.UUID) string {
	return "kyc:verification:" + id.String()
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, verificationCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate verification cache", map[string]interface{}{
			"verification_id": id,
			"error":           err.Error(),
		})
	}
}
