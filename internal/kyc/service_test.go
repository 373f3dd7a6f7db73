package kyc

import (
	"context"
	"testing"
	"time"

	"kycore/internal/domain"
	"kycore/pkg/errors"
	"kycore/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, v *domain.KYCVerification, docs []*domain.Document) error {
	args := m.Called(ctx, v, docs)
	return args.Error(0)
}

func (m *MockVerificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KYCVerification), args.Error(1)
}

func (m *MockVerificationRepository) ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error) {
	args := m.Called(ctx, documentNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.KYCVerification, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KYCVerification), args.Error(1)
}

func (m *MockVerificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockVerificationRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*domain.KYCVerification, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KYCVerification), args.Error(1)
}

func (m *MockVerificationRepository) Count(ctx context.Context, filter ListFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockVerificationRepository) UpdateStatusWithCascade(ctx context.Context, v *domain.KYCVerification, from domain.VerificationStatus, cascade *domain.DocumentStatus) error {
	args := m.Called(ctx, v, from, cascade)
	return args.Error(0)
}

func (m *MockVerificationRepository) FindExpiredApproved(ctx context.Context, cutoff time.Time) ([]*domain.KYCVerification, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KYCVerification), args.Error(1)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.Document, error) {
	args := m.Called(ctx, verificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Create(ctx context.Context, a *domain.RiskAssessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RiskAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskAssessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindByVerificationID(ctx context.Context, verificationID uuid.UUID) ([]*domain.RiskAssessment, error) {
	args := m.Called(ctx, verificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RiskAssessment), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, sub Submission) (MatchResult, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(MatchResult), args.Error(1)
}

// --- Helpers ---

func newTestService(repo *MockVerificationRepository, docRepo *MockDocumentRepository, assessRepo *MockAssessmentRepository, verifier Verifier) *Service {
	return NewService(repo, docRepo, assessRepo, verifier, DefaultScoringConfig(), nil, logger.NewNop())
}

func validSubmitRequest(userID uuid.UUID) SubmitRequest {
	return SubmitRequest{
		UserID:             userID,
		Type:               domain.VerificationTypeIndividual,
		FirstName:          "John",
		LastName:           "Doe",
		DateOfBirth:        "1990-01-01",
		Nationality:        "Nigerian",
		Street:             "1 Broad Street",
		City:               "Lagos",
		CountryCode:        "NG",
		PhoneNumber:        "+2348012345678",
		Email:              "john.doe@example.com",
		DocumentType:       "passport",
		DocumentNumber:     "12345678901",
		DocumentExpiryDate: "2030-06-30",
		DocumentFrontURL:   "https://cdn.example.com/docs/front.jpg",
		DocumentBackURL:    "https://cdn.example.com/docs/back.jpg",
		SelfieURL:          "https://cdn.example.com/docs/selfie.jpg",
	}
}

// --- Submit ---

func TestSubmitHappyPath(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	userID := uuid.New()
	req := validSubmitRequest(userID)

	mockRepo.On("ExistsByDocumentNumber", ctx, req.DocumentNumber).Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.KYCVerification"), mock.AnythingOfType("[]*domain.Document")).Return(nil)

	verification, err := service.Submit(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, userID, verification.UserID)
	assert.Equal(t, domain.VerificationStatusPending, verification.Status)
	assert.Equal(t, 100, verification.RiskScore)
	assert.Empty(t, verification.RiskFactors)
	assert.NotEqual(t, uuid.Nil, verification.ID)
	assert.Equal(t, "John Doe", verification.FullName())

	createCall := mockRepo.Calls[len(mockRepo.Calls)-1]
	docs := createCall.Arguments.Get(2).([]*domain.Document)
	require.Len(t, docs, 3)
	assert.Equal(t, domain.DocumentKindFront, docs[0].Kind)
	assert.Equal(t, domain.DocumentKindBack, docs[1].Kind)
	assert.Equal(t, domain.DocumentKindSelfie, docs[2].Kind)
	for _, doc := range docs {
		assert.Equal(t, domain.DocumentStatusPending, doc.Status)
		assert.Equal(t, verification.ID, doc.VerificationID)
		assert.Equal(t, userID, doc.UserID)
	}

	mockRepo.AssertExpectations(t)
}

func TestSubmitPartialMatchScoresMedium(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	mockVerifier := new(MockVerifier)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), mockVerifier)
	ctx := context.Background()

	req := validSubmitRequest(uuid.New())

	mockRepo.On("ExistsByDocumentNumber", ctx, req.DocumentNumber).Return(false, nil)
	mockVerifier.On("Verify", ctx, mock.AnythingOfType("Submission")).
		Return(MatchResult{FullNameMatch: true, DOBMatch: true, NINMatch: true}, nil)
	mockRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	verification, err := service.Submit(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, 58, verification.RiskScore)
	assert.Equal(t, []string{RuleBVNMatch, RuleEmailMatch}, []string(verification.RiskFactors))
}

func TestSubmitDuplicateDocumentNumber(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	mockVerifier := new(MockVerifier)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), mockVerifier)
	ctx := context.Background()

	req := validSubmitRequest(uuid.New())
	mockRepo.On("ExistsByDocumentNumber", ctx, req.DocumentNumber).Return(true, nil)

	_, err := service.Submit(ctx, req)

	assert.ErrorIs(t, err, errors.ErrDocumentNumberExists)
	// The external verifier must not be called for a known duplicate
	mockVerifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitVerifierUnavailablePersistsNothing(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	verifier := NewStaticVerifier()
	verifier.Fail = errors.ErrVerifierUnavailable
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), verifier)
	ctx := context.Background()

	req := validSubmitRequest(uuid.New())
	mockRepo.On("ExistsByDocumentNumber", ctx, req.DocumentNumber).Return(false, nil)

	_, err := service.Submit(ctx, req)

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitLosesUniquenessRace(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	req := validSubmitRequest(uuid.New())

	// Pre-check passes but the insert hits the unique constraint
	mockRepo.On("ExistsByDocumentNumber", ctx, req.DocumentNumber).Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(errors.ErrDocumentNumberExists)

	_, err := service.Submit(ctx, req)

	assert.ErrorIs(t, err, errors.ErrDocumentNumberExists)
}

func TestSubmitValidation(t *testing.T) {
	service := newTestService(new(MockVerificationRepository), new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SubmitRequest)
	}{
		{"missing user", func(r *SubmitRequest) { r.UserID = uuid.Nil }},
		{"missing first name", func(r *SubmitRequest) { r.FirstName = "  " }},
		{"missing document number", func(r *SubmitRequest) { r.DocumentNumber = "" }},
		{"missing selfie", func(r *SubmitRequest) { r.SelfieURL = "" }},
		{"bad date of birth", func(r *SubmitRequest) { r.DateOfBirth = "01/01/1990" }},
		{"bad expiry date", func(r *SubmitRequest) { r.DocumentExpiryDate = "soon" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmitRequest(uuid.New())
			tc.mutate(&req)

			_, err := service.Submit(ctx, req)
			assert.ErrorIs(t, err, errors.ErrValidationFailed)
		})
	}
}

// --- Decide ---

func TestDecideApproveCascadesDocuments(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	id := uuid.New()
	stored := &domain.KYCVerification{ID: id, Status: domain.VerificationStatusInProgress}

	mockRepo.On("FindByID", ctx, id).Return(stored, nil)
	mockRepo.On("UpdateStatusWithCascade", ctx, stored, domain.VerificationStatusInProgress,
		mock.MatchedBy(func(cascade *domain.DocumentStatus) bool {
			return cascade != nil && *cascade == domain.DocumentStatusVerified
		})).Return(nil)

	verification, err := service.Decide(ctx, id, domain.VerificationStatusApproved, "reviewer-1", "all checks passed")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusApproved, verification.Status)
	assert.Equal(t, "reviewer-1", verification.VerifiedBy)
	assert.NotNil(t, verification.VerifiedAt)
	assert.Equal(t, "all checks passed", verification.VerificationNotes)
	mockRepo.AssertExpectations(t)
}

func TestDecidePickUpDoesNotCascade(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	id := uuid.New()
	stored := &domain.KYCVerification{ID: id, Status: domain.VerificationStatusPending}

	mockRepo.On("FindByID", ctx, id).Return(stored, nil)
	mockRepo.On("UpdateStatusWithCascade", ctx, stored, domain.VerificationStatusPending,
		(*domain.DocumentStatus)(nil)).Return(nil)

	verification, err := service.Decide(ctx, id, domain.VerificationStatusInProgress, "reviewer-1", "")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusInProgress, verification.Status)
	mockRepo.AssertExpectations(t)
}

func TestDecideInvalidTransition(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	id := uuid.New()
	mockRepo.On("FindByID", ctx, id).Return(&domain.KYCVerification{ID: id, Status: domain.VerificationStatusRejected}, nil)

	_, err := service.Decide(ctx, id, domain.VerificationStatusApproved, "reviewer-1", "")

	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	mockRepo.AssertNotCalled(t, "UpdateStatusWithCascade", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDecideNotFound(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	id := uuid.New()
	mockRepo.On("FindByID", ctx, id).Return(nil, errors.ErrVerificationNotFound)

	_, err := service.Decide(ctx, id, domain.VerificationStatusApproved, "reviewer-1", "")

	assert.ErrorIs(t, err, errors.ErrVerificationNotFound)
}

func TestDecideRequiresReviewer(t *testing.T) {
	service := newTestService(new(MockVerificationRepository), new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())

	_, err := service.Decide(context.Background(), uuid.New(), domain.VerificationStatusApproved, " ", "")

	assert.ErrorIs(t, err, errors.ErrValidationFailed)
}

func TestDecideLosesConcurrentRace(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	id := uuid.New()
	stored := &domain.KYCVerification{ID: id, Status: domain.VerificationStatusInProgress}

	mockRepo.On("FindByID", ctx, id).Return(stored, nil)
	// Another reviewer decided first; the optimistic status check fails
	mockRepo.On("UpdateStatusWithCascade", ctx, stored, domain.VerificationStatusInProgress, mock.Anything).
		Return(errors.ErrInvalidTransition)

	_, err := service.Decide(ctx, id, domain.VerificationStatusApproved, "reviewer-2", "")

	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

// --- SweepExpired ---

func TestSweepExpired(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()
	now := time.Now()

	first := &domain.KYCVerification{ID: uuid.New(), Status: domain.VerificationStatusApproved}
	second := &domain.KYCVerification{ID: uuid.New(), Status: domain.VerificationStatusApproved}

	mockRepo.On("FindExpiredApproved", ctx, now).Return([]*domain.KYCVerification{first, second}, nil)
	mockRepo.On("UpdateStatusWithCascade", ctx, mock.AnythingOfType("*domain.KYCVerification"),
		domain.VerificationStatusApproved, (*domain.DocumentStatus)(nil)).Return(nil)

	swept, err := service.SweepExpired(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 2, swept)
	assert.Equal(t, domain.VerificationStatusExpired, first.Status)
	assert.Equal(t, domain.SystemReviewer, first.VerifiedBy)
	assert.Equal(t, ExpiryNote, first.VerificationNotes)
	assert.Equal(t, domain.VerificationStatusExpired, second.Status)
	mockRepo.AssertExpectations(t)
}

func TestSweepExpiredNothingToDo(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()
	now := time.Now()

	mockRepo.On("FindExpiredApproved", ctx, now).Return([]*domain.KYCVerification{}, nil)

	swept, err := service.SweepExpired(ctx, now)

	require.NoError(t, err)
	assert.Zero(t, swept)
	mockRepo.AssertNotCalled(t, "UpdateStatusWithCascade", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepExpiredSkipsLostRaces(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()
	now := time.Now()

	raced := &domain.KYCVerification{ID: uuid.New(), Status: domain.VerificationStatusApproved}
	clean := &domain.KYCVerification{ID: uuid.New(), Status: domain.VerificationStatusApproved}

	mockRepo.On("FindExpiredApproved", ctx, now).Return([]*domain.KYCVerification{raced, clean}, nil)
	mockRepo.On("UpdateStatusWithCascade", ctx, raced, domain.VerificationStatusApproved, (*domain.DocumentStatus)(nil)).
		Return(errors.ErrInvalidTransition)
	mockRepo.On("UpdateStatusWithCascade", ctx, clean, domain.VerificationStatusApproved, (*domain.DocumentStatus)(nil)).
		Return(nil)

	swept, err := service.SweepExpired(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
}

// --- Queries ---

func TestGetUserVerificationsPagination(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	userID := uuid.New()
	records := []*domain.KYCVerification{{ID: uuid.New(), UserID: userID}}

	mockRepo.On("FindByUserID", ctx, userID, 10, 10).Return(records, nil)
	mockRepo.On("CountByUserID", ctx, userID).Return(25, nil)

	page, err := service.GetUserVerifications(ctx, userID, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Verifications, 1)
}

func TestGetUserVerificationsClampsPaging(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	userID := uuid.New()
	mockRepo.On("FindByUserID", ctx, userID, 100, 0).Return([]*domain.KYCVerification{}, nil)
	mockRepo.On("CountByUserID", ctx, userID).Return(0, nil)

	page, err := service.GetUserVerifications(ctx, userID, -3, 5000)

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.Pages)
}

// --- Assessments ---

func validAssessmentRequest(verificationID uuid.UUID) AssessmentRequest {
	return AssessmentRequest{
		VerificationID: verificationID,
		OverallScore:   decimal.NewFromInt(42),
		RiskLevel:      domain.RiskLevelMedium,
		RiskFactors: domain.RiskFactorItems{
			{Category: "identity", Description: "BVN could not be confirmed", Score: decimal.NewFromInt(15)},
		},
		AssessmentDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:     time.Date(2027, 8, 1, 0, 0, 0, 0, time.UTC),
		AssessedBy:     "analyst-1",
	}
}

func TestRecordAssessment(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	mockAssessRepo := new(MockAssessmentRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), mockAssessRepo, NewStaticVerifier())
	ctx := context.Background()

	verificationID := uuid.New()
	userID := uuid.New()
	req := validAssessmentRequest(verificationID)

	mockRepo.On("FindByID", ctx, verificationID).Return(&domain.KYCVerification{ID: verificationID, UserID: userID}, nil)
	mockAssessRepo.On("Create", ctx, mock.AnythingOfType("*domain.RiskAssessment")).Return(nil)

	assessment, err := service.RecordAssessment(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, verificationID, assessment.VerificationID)
	assert.Equal(t, userID, assessment.UserID)
	assert.Equal(t, domain.RiskLevelMedium, assessment.RiskLevel)
	assert.True(t, assessment.OverallScore.Equal(decimal.NewFromInt(42)))
	mockAssessRepo.AssertExpectations(t)
}

func TestRecordAssessmentValidation(t *testing.T) {
	service := newTestService(new(MockVerificationRepository), new(MockDocumentRepository), new(MockAssessmentRepository), NewStaticVerifier())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*AssessmentRequest)
		want   error
	}{
		{"empty factors", func(r *AssessmentRequest) { r.RiskFactors = nil }, errors.ErrEmptyRiskFactors},
		{"expiry before assessment", func(r *AssessmentRequest) { r.ExpiryDate = r.AssessmentDate.AddDate(0, -1, 0) }, errors.ErrInvalidValidityWindow},
		{"expiry equals assessment", func(r *AssessmentRequest) { r.ExpiryDate = r.AssessmentDate }, errors.ErrInvalidValidityWindow},
		{"score above range", func(r *AssessmentRequest) { r.OverallScore = decimal.NewFromInt(101) }, errors.ErrScoreOutOfRange},
		{"score below range", func(r *AssessmentRequest) { r.OverallScore = decimal.NewFromInt(-1) }, errors.ErrScoreOutOfRange},
		{"factor score above range", func(r *AssessmentRequest) { r.RiskFactors[0].Score = decimal.NewFromInt(500) }, errors.ErrScoreOutOfRange},
		{"factor score below range", func(r *AssessmentRequest) { r.RiskFactors[0].Score = decimal.NewFromInt(-5) }, errors.ErrScoreOutOfRange},
		{"unknown level", func(r *AssessmentRequest) { r.RiskLevel = "severe" }, errors.ErrInvalidRiskLevel},
		{"missing assessor", func(r *AssessmentRequest) { r.AssessedBy = "" }, errors.ErrValidationFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validAssessmentRequest(uuid.New())
			tc.mutate(&req)

			_, err := service.RecordAssessment(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRecordAssessmentVerificationMissing(t *testing.T) {
	mockRepo := new(MockVerificationRepository)
	mockAssessRepo := new(MockAssessmentRepository)
	service := newTestService(mockRepo, new(MockDocumentRepository), mockAssessRepo, NewStaticVerifier())
	ctx := context.Background()

	req := validAssessmentRequest(uuid.New())
	mockRepo.On("FindByID", ctx, req.VerificationID).Return(nil, errors.ErrVerificationNotFound)

	_, err := service.RecordAssessment(ctx, req)

	assert.ErrorIs(t, err, errors.ErrVerificationNotFound)
	mockAssessRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
