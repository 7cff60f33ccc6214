package billing

import (
	"fmt"
	"strings"
	"time"
)

// StripeConfig holds configuration for the Stripe gateway adapter
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// TestMode requires a test key; live mode requires a live key
	TestMode bool

	// FrontendURL is the base of the checkout success and cancel redirects
	FrontendURL string

	// Timeout bounds each HTTP request to Stripe
	Timeout time.Duration

	// MaxNetworkRetries is how often the client retries transport failures.
	// Zero disables retries; each attempt may hold a user row lock for up to Timeout.
	MaxNetworkRetries int64
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.TestMode && strings.HasPrefix(c.SecretKey, "sk_live") {
		return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
	}
	if !c.TestMode && strings.HasPrefix(c.SecretKey, "sk_test") {
		return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
	}
	if c.FrontendURL == "" {
		return fmt.Errorf("stripe: frontend url is required for checkout redirects")
	}
	return nil
}

// SuccessURL is where Stripe sends the customer after paying.
// Stripe substitutes the session id placeholder.
func (c *StripeConfig) SuccessURL() string {
	return strings.TrimRight(c.FrontendURL, "/") + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where Stripe sends the customer after abandoning checkout
func (c *StripeConfig) CancelURL() string {
	return strings.TrimRight(c.FrontendURL, "/") + "/payment/cancel"
}

func (c *StripeConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}
