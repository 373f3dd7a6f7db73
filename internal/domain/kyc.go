// Package domain defines the core business entities for the KYC verification engine.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ==============================================================================
// ENUMS & STATUS TYPES
// ==============================================================================

// VerificationType represents the type of KYC verification (individual or business).
type VerificationType string

const (
	VerificationTypeIndividual VerificationType = "individual"
	VerificationTypeBusiness   VerificationType = "business"
)

// VerificationStatus represents the verification workflow status.
type VerificationStatus string

const (
	VerificationStatusPending    VerificationStatus = "pending"
	VerificationStatusInProgress VerificationStatus = "in_progress"
	VerificationStatusApproved   VerificationStatus = "approved"
	VerificationStatusRejected   VerificationStatus = "rejected"
	VerificationStatusExpired    VerificationStatus = "expired"
)

// IsTerminal reports whether no further caller-driven transition is expected
// from the status (the expiry sweep may still move approved to expired).
func (s VerificationStatus) IsTerminal() bool {
	switch s {
	case VerificationStatusApproved, VerificationStatusRejected, VerificationStatusExpired:
		return true
	}
	return false
}

// IsValid reports whether the status is a known workflow status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusInProgress,
		VerificationStatusApproved, VerificationStatusRejected, VerificationStatusExpired:
		return true
	}
	return false
}

// DocumentKind represents the evidentiary role of a document.
type DocumentKind string

const (
	DocumentKindFront  DocumentKind = "document_front"
	DocumentKindBack   DocumentKind = "document_back"
	DocumentKindSelfie DocumentKind = "selfie"
	DocumentKindOther  DocumentKind = "other"
)

// DocumentStatus represents document verification status. It mirrors the
// terminal outcome of the owning verification and is never set independently.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// RiskLevel is the ordered qualitative classification of a risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// riskLevelOrder backs the low < medium < high < critical ordering.
var riskLevelOrder = map[RiskLevel]int{
	RiskLevelLow:      0,
	RiskLevelMedium:   1,
	RiskLevelHigh:     2,
	RiskLevelCritical: 3,
}

// IsValid reports whether the level is a known risk level.
func (l RiskLevel) IsValid() bool {
	_, ok := riskLevelOrder[l]
	return ok
}

// AtLeast reports whether l is equal to or more severe than other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskLevelOrder[l] >= riskLevelOrder[other]
}

// SystemReviewer is the sentinel reviewer identity stamped by the expiry sweep.
const SystemReviewer = "system"

// ==============================================================================
// JSON-MAPPED COLUMN TYPES
// ==============================================================================

// Metadata is a JSON-compatible map stored in a JSONB column.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}

// RiskFactorItem is one itemized contributor to a risk assessment.
type RiskFactorItem struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Score       decimal.Decimal `json:"score"`
	Detail      Metadata        `json:"detail,omitempty"`
}

// RiskFactorItems is a JSONB-stored list of assessment factors.
type RiskFactorItems []RiskFactorItem

func (f RiskFactorItems) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *RiskFactorItems) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, f)
}

// ==============================================================================
// DOMAIN MODELS
// ==============================================================================

// KYCVerification represents one identity-verification submission attempt.
// The submission snapshot fields are immutable after creation; only the
// workflow fields change, and only through state-machine transitions.
type KYCVerification struct {
	ID     uuid.UUID        `json:"id" db:"id"`
	UserID uuid.UUID        `json:"user_id" db:"user_id"`
	Type   VerificationType `json:"type" db:"type"`

	// Submission snapshot
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`
	Nationality string    `json:"nationality" db:"nationality"`
	Street      string    `json:"street" db:"street"`
	City        string    `json:"city" db:"city"`
	State       string    `json:"state,omitempty" db:"state"`
	CountryCode string    `json:"country_code" db:"country_code"`
	PostalCode  string    `json:"postal_code,omitempty" db:"postal_code"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Email       string    `json:"email" db:"email"`

	// Identity document
	DocumentType       string    `json:"document_type" db:"document_type"`
	DocumentNumber     string    `json:"document_number" db:"document_number"`
	DocumentExpiryDate time.Time `json:"document_expiry_date" db:"document_expiry_date"`
	DocumentFrontURL   string    `json:"document_front_url" db:"document_front_url"`
	DocumentBackURL    string    `json:"document_back_url" db:"document_back_url"`
	SelfieURL          string    `json:"selfie_url" db:"selfie_url"`

	// Workflow fields
	Status            VerificationStatus `json:"status" db:"status"`
	RiskScore         int                `json:"risk_score" db:"risk_score"`
	RiskFactors       pq.StringArray     `json:"risk_factors" db:"risk_factors"`
	VerificationNotes string             `json:"verification_notes,omitempty" db:"verification_notes"`
	VerifiedBy        string             `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt        *time.Time         `json:"verified_at,omitempty" db:"verified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the snapshot name as submitted for matching.
func (v *KYCVerification) FullName() string {
	return v.FirstName + " " + v.LastName
}

// Document represents an evidentiary artifact attached to a verification.
type Document struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	VerificationID uuid.UUID      `json:"verification_id" db:"verification_id"`
	Kind           DocumentKind   `json:"kind" db:"kind"`
	Status         DocumentStatus `json:"status" db:"status"`
	FileName       string         `json:"file_name" db:"file_name"`
	FileURL        string         `json:"file_url" db:"file_url"`
	FileSizeBytes  int64          `json:"file_size_bytes" db:"file_size_bytes"`
	MimeType       string         `json:"mime_type" db:"mime_type"`
	VerifiedBy     string         `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt     *time.Time     `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// RiskAssessment is an auditable scoring record referencing a verification.
// Assessments are immutable after creation; corrections create a new one.
type RiskAssessment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	VerificationID uuid.UUID       `json:"verification_id" db:"verification_id"`
	OverallScore   decimal.Decimal `json:"overall_score" db:"overall_score"`
	RiskLevel      RiskLevel       `json:"risk_level" db:"risk_level"`
	RiskFactors    RiskFactorItems `json:"risk_factors" db:"risk_factors"`
	AssessmentDate time.Time       `json:"assessment_date" db:"assessment_date"`
	ExpiryDate     time.Time       `json:"expiry_date" db:"expiry_date"`
	AssessedBy     string          `json:"assessed_by" db:"assessed_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
