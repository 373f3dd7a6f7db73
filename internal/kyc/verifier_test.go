package kyc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kycore/pkg/errors"
	"kycore/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVerifierKnownRecord(t *testing.T) {
	v := NewStaticVerifier()

	sub := Submission{
		FirstName:      "John",
		LastName:       "Doe",
		DateOfBirth:    "1990-01-01",
		Email:          "john.doe@example.com",
		DocumentNumber: "12345678901",
	}

	result, err := v.Verify(context.Background(), sub)

	assert.NoError(t, err)
	assert.Equal(t, MatchResult{
		FullNameMatch: true,
		DOBMatch:      true,
		NINMatch:      true,
		BVNMatch:      true,
		EmailMatch:    true,
	}, result)
}

func TestStaticVerifierIsDeterministic(t *testing.T) {
	v := NewStaticVerifier()
	sub := Submission{
		FirstName:      "John",
		LastName:       "Doe",
		DateOfBirth:    "1990-01-01",
		Email:          "john.doe@example.com",
		DocumentNumber: "12345678901",
	}

	first, err := v.Verify(context.Background(), sub)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := v.Verify(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestStaticVerifierFuzzyNameMatch(t *testing.T) {
	v := NewStaticVerifier()

	// Typo in the surname still matches above the similarity threshold
	result, err := v.Verify(context.Background(), Submission{
		FirstName:      "Jon",
		LastName:       "Doe",
		DateOfBirth:    "1990-01-01",
		Email:          "other@example.com",
		DocumentNumber: "12345678901",
	})

	assert.NoError(t, err)
	assert.True(t, result.FullNameMatch)
	assert.False(t, result.EmailMatch)
}

func TestStaticVerifierUnknownDocument(t *testing.T) {
	v := NewStaticVerifier()

	result, err := v.Verify(context.Background(), Submission{DocumentNumber: "00000000000"})

	assert.NoError(t, err)
	assert.Equal(t, MatchResult{}, result)
}

func TestStaticVerifierFailureInjection(t *testing.T) {
	v := NewStaticVerifier()
	v.Fail = errors.ErrVerifierUnavailable

	_, err := v.Verify(context.Background(), Submission{DocumentNumber: "12345678901"})

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
}

func TestBureauClientSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/match", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var sub Submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "12345678901", sub.DocumentNumber)

		json.NewEncoder(w).Encode(MatchResult{FullNameMatch: true, NINMatch: true})
	}))
	defer srv.Close()

	client := NewBureauClient(srv.URL, "test-key", time.Second, logger.NewNop())

	result, err := client.Verify(context.Background(), Submission{DocumentNumber: "12345678901"})

	assert.NoError(t, err)
	assert.True(t, result.FullNameMatch)
	assert.True(t, result.NINMatch)
	assert.False(t, result.BVNMatch)
}

func TestBureauClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewBureauClient(srv.URL, "", time.Second, logger.NewNop())

	_, err := client.Verify(context.Background(), Submission{})

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
}

func TestBureauClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewBureauClient(srv.URL, "", 20*time.Millisecond, logger.NewNop())

	_, err := client.Verify(context.Background(), Submission{})

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
}

func TestBureauClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"full_name_match": "yes"}`))
	}))
	defer srv.Close()

	client := NewBureauClient(srv.URL, "", time.Second, logger.NewNop())

	_, err := client.Verify(context.Background(), Submission{})

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
}

func TestBureauClientUnreachable(t *testing.T) {
	client := NewBureauClient("http://127.0.0.1:1", "", 100*time.Millisecond, logger.NewNop())

	_, err := client.Verify(context.Background(), Submission{})

	assert.ErrorIs(t, err, errors.ErrVerifierUnavailable)
}
