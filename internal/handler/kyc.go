// ==============================================================================
// KYC HTTP HANDLER - internal/handler/kyc.go
// ==============================================================================
// Handles KYC verification endpoints with validation, error handling, and logging
// ==============================================================================

package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"kycore/internal/domain"
	"kycore/internal/kyc"
	"kycore/internal/middleware"
	"kycore/pkg/logger"
	"kycore/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// ==============================================================================
// KYC HANDLER STRUCT
// ==============================================================================

// KYCHandler exposes the verification engine over HTTP.
type KYCHandler struct {
	service   *kyc.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewKYCHandler creates a new KYCHandler with required dependencies.
func NewKYCHandler(service *kyc.Service, val *validator.Validator, log logger.Logger) *KYCHandler {
	return &KYCHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// RegisterRoutes mounts all KYC routes on the router. The caller applies
// authentication middleware to the subrouter before registration; routes that
// decide verifications, read or record assessments, list across users, or
// trigger the expiry sweep are additionally restricted to the reviewer role.
func (h *KYCHandler) RegisterRoutes(r *mux.Router) {
	reviewer := middleware.RequireRole(middleware.RoleReviewer)

	r.HandleFunc("/kyc/submit", h.Submit).Methods(http.MethodPost)
	r.Handle("/kyc/verifications", reviewer(http.HandlerFunc(h.ListVerifications))).Methods(http.MethodGet)
	r.HandleFunc("/kyc/verifications/{id}", h.GetVerification).Methods(http.MethodGet)
	r.HandleFunc("/kyc/verifications/{id}/documents", h.GetVerificationDocuments).Methods(http.MethodGet)
	r.Handle("/kyc/verifications/{id}/status", reviewer(http.HandlerFunc(h.UpdateStatus))).Methods(http.MethodPut)
	r.Handle("/kyc/verifications/{id}/assessments", reviewer(http.HandlerFunc(h.RecordAssessment))).Methods(http.MethodPost)
	r.Handle("/kyc/verifications/{id}/assessments", reviewer(http.HandlerFunc(h.ListAssessments))).Methods(http.MethodGet)
	r.Handle("/kyc/assessments/{id}", reviewer(http.HandlerFunc(h.GetAssessment))).Methods(http.MethodGet)
	r.HandleFunc("/kyc/users/{userId}/verifications", h.GetUserVerifications).Methods(http.MethodGet)
	r.Handle("/kyc/sweep", reviewer(http.HandlerFunc(h.Sweep))).Methods(http.MethodPost)
}

// ==============================================================================
// HELPER METHODS
// ==============================================================================

// respondJSON sends a JSON response with proper content type and status code
func (h *KYCHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "kyc",
		})
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// respondError sends a standardized error response
func (h *KYCHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps an engine error onto its HTTP status. Internal
// detail is logged, not exposed.
func (h *KYCHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := kyc.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("KYC request failed", map[string]interface{}{
			"error":    err.Error(),
			"endpoint": r.URL.Path,
		})
		h.respondError(w, status, "Internal server error")
		return
	}
	h.respondError(w, status, err.Error())
}

// parseAndValidateRequest parses and validates JSON request body
func (h *KYCHandler) parseAndValidateRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	// KYC submissions carry document URLs and address data; 2MB is generous.
	r.Body = http.MaxBytesReader(w, r.Body, 2<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"error":    err.Error(),
			"handler":  "kyc",
			"endpoint": r.URL.Path,
		})
		h.respondError(w, http.StatusBadRequest, "Invalid request body format")
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		h.logger.Warn("Request validation failed", map[string]interface{}{
			"error":    err.Error(),
			"handler":  "kyc",
			"endpoint": r.URL.Path,
		})
		h.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

// getUserIDFromContext extracts user ID from request context (JWT)
func (h *KYCHandler) getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.logger.Warn("Missing user ID in context", map[string]interface{}{
			"handler":  "kyc",
			"endpoint": r.URL.Path,
			"ip":       r.RemoteAddr,
		})
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path variable.
func (h *KYCHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// ==============================================================================
// ENDPOINT 1: SUBMIT VERIFICATION
// ==============================================================================

// SubmitKYCRequest is the submission payload.
type SubmitKYCRequest struct {
	Type               string `json:"type" validate:"omitempty,oneof=individual business"`
	FirstName          string `json:"firstName" validate:"required,min=1,max=100"`
	LastName           string `json:"lastName" validate:"required,min=1,max=100"`
	DateOfBirth        string `json:"dateOfBirth" validate:"required,date"`
	Nationality        string `json:"nationality" validate:"required,min=2,max=100"`
	Street             string `json:"street" validate:"required,max=255"`
	City               string `json:"city" validate:"required,max=100"`
	State              string `json:"state" validate:"omitempty,max=100"`
	CountryCode        string `json:"countryCode" validate:"required,len=2"`
	PostalCode         string `json:"postalCode" validate:"omitempty,max=20"`
	PhoneNumber        string `json:"phoneNumber" validate:"required,min=7,max=20"`
	Email              string `json:"email" validate:"required,email"`
	DocumentType       string `json:"documentType" validate:"required,oneof=passport drivers_license national_id"`
	DocumentNumber     string `json:"documentNumber" validate:"required,min=5,max=50"`
	DocumentExpiryDate string `json:"documentExpiryDate" validate:"required,date"`
	DocumentFrontURL   string `json:"documentFrontUrl" validate:"required,url"`
	DocumentBackURL    string `json:"documentBackUrl" validate:"required,url"`
	SelfieURL          string `json:"selfieUrl" validate:"required,url"`
}

// Submit handles submission of a KYC verification
// POST /kyc/submit
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.getUserIDFromContext(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubmitKYCRequest
	if !h.parseAndValidateRequest(w, r, &req) {
		return
	}

	verification, err := h.service.Submit(r.Context(), kyc.SubmitRequest{
		UserID:             userID,
		Type:               domain.VerificationType(req.Type),
		FirstName:          validator.Sanitize(req.FirstName),
		LastName:           validator.Sanitize(req.LastName),
		DateOfBirth:        req.DateOfBirth,
		Nationality:        validator.Sanitize(req.Nationality),
		Street:             validator.Sanitize(req.Street),
		City:               validator.Sanitize(req.City),
		State:              validator.Sanitize(req.State),
		CountryCode:        req.CountryCode,
		PostalCode:         req.PostalCode,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		DocumentType:       req.DocumentType,
		DocumentNumber:     req.DocumentNumber,
		DocumentExpiryDate: req.DocumentExpiryDate,
		DocumentFrontURL:   req.DocumentFrontURL,
		DocumentBackURL:    req.DocumentBackURL,
		SelfieURL:          req.SelfieURL,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, verification)
}

// ==============================================================================
// ENDPOINT 2: VERIFICATION LOOKUPS
// ==============================================================================

// GetVerification retrieves a single verification
// GET /kyc/verifications/{id}
func (h *KYCHandler) GetVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	verification, err := h.service.GetVerification(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, verification)
}

// GetVerificationDocuments retrieves a verification's documents
// GET /kyc/verifications/{id}/documents
func (h *KYCHandler) GetVerificationDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.service.GetVerificationDocuments(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// GetUserVerifications retrieves a user's verification history
// GET /kyc/users/{userId}/verifications?page=&limit=
func (h *KYCHandler) GetUserVerifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userId")
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.service.GetUserVerifications(r.Context(), userID, page, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListVerifications retrieves verifications for review queues
// GET /kyc/verifications?status=&type=&startDate=&endDate=&page=&limit=
func (h *KYCHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	filter := kyc.ListFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.VerificationStatus(status)
		if !s.IsValid() {
			h.respondError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = s
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		filter.Type = domain.VerificationType(typ)
	}
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid endDate, expected YYYY-MM-DD")
			return
		}
		filter.EndDate = &t
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.service.ListVerifications(r.Context(), filter, page, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ==============================================================================
// ENDPOINT 3: REVIEW DECISION
// ==============================================================================

// UpdateStatusRequest carries a reviewer decision.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress approved rejected expired"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateStatus applies a reviewer decision to a verification
// PUT /kyc/verifications/{id}/status
func (h *KYCHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := h.getUserIDFromContext(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !h.parseAndValidateRequest(w, r, &req) {
		return
	}

	verification, err := h.service.Decide(
		r.Context(),
		id,
		domain.VerificationStatus(req.Status),
		reviewerID.String(),
		validator.Sanitize(req.Notes),
	)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, verification)
}

// ==============================================================================
// ENDPOINT 4: RISK ASSESSMENTS
// ==============================================================================

// RecordAssessmentRequest carries one risk assessment.
type RecordAssessmentRequest struct {
	OverallScore   decimal.Decimal         `json:"overallScore" validate:"gte=0,lte=100"`
	RiskLevel      string                  `json:"riskLevel" validate:"required,oneof=low medium high critical"`
	RiskFactors    []RiskFactorItemRequest `json:"riskFactors" validate:"required,min=1,dive"`
	AssessmentDate string                  `json:"assessmentDate" validate:"required,date"`
	ExpiryDate     string                  `json:"expiryDate" validate:"required,date"`
}

// RiskFactorItemRequest is one itemized assessment factor.
type RiskFactorItemRequest struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description" validate:"required,max=500"`
	Score       decimal.Decimal `json:"score" validate:"gte=0,lte=100"`
}

// RecordAssessment records a risk assessment against a verification
// POST /kyc/verifications/{id}/assessments
func (h *KYCHandler) RecordAssessment(w http.ResponseWriter, r *http.Request) {
	assessorID, ok := h.getUserIDFromContext(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req RecordAssessmentRequest
	if !h.parseAndValidateRequest(w, r, &req) {
		return
	}

	assessmentDate, _ := time.Parse("2006-01-02", req.AssessmentDate)
	expiryDate, _ := time.Parse("2006-01-02", req.ExpiryDate)

	factors := make(domain.RiskFactorItems, 0, len(req.RiskFactors))
	for _, f := range req.RiskFactors {
		factors = append(factors, domain.RiskFactorItem{
			Category:    validator.Sanitize(f.Category),
			Description: validator.Sanitize(f.Description),
			Score:       f.Score,
		})
	}

	assessment, err := h.service.RecordAssessment(r.Context(), kyc.AssessmentRequest{
		VerificationID: id,
		OverallScore:   req.OverallScore,
		RiskLevel:      domain.RiskLevel(req.RiskLevel),
		RiskFactors:    factors,
		AssessmentDate: assessmentDate,
		ExpiryDate:     expiryDate,
		AssessedBy:     assessorID.String(),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, assessment)
}

// GetAssessment retrieves one risk assessment
// GET /kyc/assessments/{id}
func (h *KYCHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	assessment, err := h.service.GetAssessment(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, assessment)
}

// ListAssessments retrieves a verification's assessments
// GET /kyc/verifications/{id}/assessments
func (h *KYCHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	assessments, err := h.service.ListVerificationAssessments(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"assessments": assessments})
}

// ==============================================================================
// ENDPOINT 5: EXPIRY SWEEP
// ==============================================================================

// Sweep triggers the document-expiry sweep
// POST /kyc/sweep
func (h *KYCHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getUserIDFromContext(r); !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	swept, err := h.service.SweepExpired(r.Context(), time.Now())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"expired": swept})
}
