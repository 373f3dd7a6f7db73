package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kycore/pkg/errors"
	"kycore/pkg/logger"
)

// Submission carries the identity fields sent to the external verifier.
type Submission struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"` // YYYY-MM-DD
	Nationality    string `json:"nationality"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// FullName returns the submitted name as a single matching key.
func (s Submission) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Verifier is the external identity-matching boundary. Implementations must
// return a complete MatchResult or fail; a partial result is never returned.
// Calls are idempotent-safe so callers may retry on ErrVerifierUnavailable.
type Verifier interface {
	Verify(ctx context.Context, sub Submission) (MatchResult, error)
}

// ==============================================================================
// HTTP BUREAU CLIENT
// ==============================================================================

// BureauClient calls a third-party identity bureau over HTTP. Every call is
// bounded by the configured timeout; timeouts, transport failures, and
// non-2xx responses are all classified as ErrVerifierUnavailable so the
// caller can decide whether to retry.
type BureauClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewBureauClient constructs a BureauClient with an explicit request timeout.
func NewBureauClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *BureauClient {
	return &BureauClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

func (c *BureauClient) Verify(ctx context.Context, sub Submission) (MatchResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return MatchResult{}, errors.Wrap(err, "failed to encode verifier request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return MatchResult{}, errors.Wrap(err, "failed to build verifier request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Identity bureau request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return MatchResult{}, fmt.Errorf("%w: %v", errors.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Identity bureau returned non-success status", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return MatchResult{}, fmt.Errorf("%w: bureau responded %d", errors.ErrVerifierUnavailable, resp.StatusCode)
	}

	var result MatchResult
	dec := json.NewDecoder(resp.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		// A response we cannot fully decode is treated as no response at all.
		return MatchResult{}, fmt.Errorf("%w: malformed bureau response", errors.ErrVerifierUnavailable)
	}

	return result, nil
}

// ==============================================================================
// STATIC VERIFIER (deterministic reference implementation)
// ==============================================================================

// ReferenceRecord is a known identity the static verifier matches against,
// keyed by document number.
type ReferenceRecord struct {
	FullName    string
	DateOfBirth string // YYYY-MM-DD
	Email       string
	NINValid    bool
	BVNValid    bool
}

// StaticVerifier is a deterministic in-process Verifier for development and
// tests. Failure injection is explicit via Fail; there is no randomness in
// either results or availability.
type StaticVerifier struct {
	Records map[string]ReferenceRecord
	Fail    error
}

// NewStaticVerifier returns a StaticVerifier with a small seed registry.
func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{
		Records: map[string]ReferenceRecord{
			"12345678901": {
				FullName:    "John Doe",
				DateOfBirth: "1990-01-01",
				Email:       "john.doe@example.com",
				NINValid:    true,
				BVNValid:    true,
			},
		},
	}
}

func (v *StaticVerifier) Verify(_ context.Context, sub Submission) (MatchResult, error) {
	if v.Fail != nil {
		return MatchResult{}, v.Fail
	}

	record, known := v.Records[sub.DocumentNumber]
	if !known {
		return MatchResult{}, nil
	}

	return MatchResult{
		FullNameMatch: Similar(sub.FullName(), record.FullName),
		DOBMatch:      sub.DateOfBirth == record.DateOfBirth,
		NINMatch:      record.NINValid,
		BVNMatch:      record.BVNValid,
		EmailMatch:    sub.Email == record.Email,
	}, nil
}
