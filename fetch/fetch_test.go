package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/pkg/retry"
)

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(`{"@context": {"name": "https://schema.org/name"}}`))
	}))
	defer server.Close()

	f := NewHTTP()
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "@context")
}

func TestFetchNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"redirect not followed to success", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewHTTP()
			_, err := f.Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.True(t, errors.IsRetrieval(err), "non-2xx must surface as retrieval failure")
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	f := NewHTTP(WithTimeout(20 * time.Millisecond))
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.IsRetrieval(err))
}

func TestFetchTransportFailure(t *testing.T) {
	f := NewHTTP(WithTimeout(200 * time.Millisecond))
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/context.jsonld")
	require.Error(t, err)
	assert.True(t, errors.IsRetrieval(err))
}

func TestFetchRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	f := NewHTTP(WithRetry(retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}))

	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTP(WithRetry(retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}))

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestFetchBodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	f := NewHTTP(WithMaxBodySize(1024))
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.False(t, errors.IsRetrieval(err), "oversize body is invalid data, not a retrieval failure")
}

func TestFuncAdapter(t *testing.T) {
	var f Fetcher = Func(func(_ context.Context, url string) ([]byte, error) {
		return []byte(url), nil
	})
	body, err := f.Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", string(body))
}
