package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/httputil"
	"github.com/wonny/fincal/pkg/logger"
)

// Example_basic demonstrates fetching a page through the shared client
func Example_basic() {
	cfg := &config.Config{
		Env: "production",
		HTTP: config.HTTPConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 3,
			RateLimit:  2, // 2 req/s
			RateBurst:  1,
		},
	}
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log)

	body, err := client.GetBody(context.Background(), "https://example.com/prices.html")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	fmt.Printf("Fetched %d bytes\n", len(body))
}

// Example_withRetry demonstrates retry configuration
func Example_withRetry() {
	cfg := &config.Config{Env: "production"}
	log := logger.New(cfg)

	// 5 retries, 2s initial delay, no rate limit
	client := httputil.New(cfg, log).
		WithRetry(5, 2*time.Second).
		WithRateLimit(0, 0)

	resp, err := client.Get(context.Background(), "https://example.com/prices.html")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded")
}
