package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		HTTP: config.HTTPConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 3,
			UserAgent:  "fincal-test",
		},
	}
}

func TestNew(t *testing.T) {
	client := New(testConfig(), logger.Nop())
	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}
	if client.retryConfig.MaxRetries != 3 || !client.retryConfig.Enabled {
		t.Errorf("Expected 3 enabled retries, got %+v", client.retryConfig)
	}
	if client.limiter != nil {
		t.Error("Expected no limiter when HTTP_RATE_LIMIT is 0")
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := &config.Config{Env: "test", HTTP: config.HTTPConfig{RateLimit: 5}}
	client := New(cfg, nil)

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.False(t, client.retryConfig.Enabled)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 1, client.limiter.Burst())
	assert.NotNil(t, client.logger)
}

func TestNewWithTimeout(t *testing.T) {
	client := NewWithTimeout(testConfig(), logger.Nop(), time.Second)
	assert.Equal(t, time.Second, client.httpClient.Timeout)
}

func TestWithRetry(t *testing.T) {
	client := New(testConfig(), logger.Nop()).WithRetry(5, 2*time.Second)

	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)

	client.DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestWithRateLimit(t *testing.T) {
	client := New(testConfig(), logger.Nop()).WithRateLimit(10, 0)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 1, client.limiter.Burst())

	client.WithRateLimit(0, 0)
	assert.Nil(t, client.limiter)
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "fincal-test" {
			t.Errorf("Expected User-Agent=fincal-test, got %s", ua)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<table></table>`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())
	body, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", string(body))
}

func TestGetBody_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())
	_, err := client.GetBody(context.Background(), server.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			// Return 503 for first 2 attempts
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(3, 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetry_GivesUp(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(2, time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetry_LogsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := New(testConfig(), logger.NewWithWriter(&buf, "warn")).WithRetry(2, time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := buf.String()
	assert.Contains(t, out, "Retrying HTTP request (attempt 1/2")
	assert.Contains(t, out, "Retrying HTTP request (attempt 2/2")
	assert.Contains(t, out, server.URL)
}

func TestRetry_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(3, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimit_Waits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRateLimit(20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	// burst 1 at 20 rps: the 2nd and 3rd requests wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true}, // Internal Server Error
		{502, true}, // Bad Gateway
		{503, true}, // Service Unavailable
		{504, true}, // Gateway Timeout
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			got := IsRetryableError(tt.statusCode)
			if got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}
