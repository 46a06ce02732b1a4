package twilio

import (
	"errors"
	"fmt"

	twclient "github.com/twilio/twilio-go/client"
)

// AuthError reports that the provider rejected the submitted credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("twilio: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Code implements the handler summary error-code contract.
func (e *AuthError) Code() string { return "auth_failed" }

// ProviderError wraps any failure from a provisioning, search, release or
// message-fetch call, including network and timeout errors.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("twilio: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Code implements the handler summary error-code contract.
func (e *ProviderError) Code() string {
	if code, ok := RestCode(e.Err); ok {
		return fmt.Sprintf("provider_%d", code)
	}
	return "provider_error"
}

// Detail returns the provider-supplied error text shown to the user.
// REST errors collapse to their message so chat output stays on one line.
func (e *ProviderError) Detail() string {
	var rest *twclient.TwilioRestError
	if errors.As(e.Err, &rest) && rest.Message != "" {
		return rest.Message
	}
	return e.Err.Error()
}

// RestCode extracts the Twilio API error code when err carries one.
func RestCode(err error) (int, bool) {
	var rest *twclient.TwilioRestError
	if errors.As(err, &rest) {
		return rest.Code, true
	}
	return 0, false
}

// RestStatus extracts the HTTP status when err carries one.
func RestStatus(err error) (int, bool) {
	var rest *twclient.TwilioRestError
	if errors.As(err, &rest) {
		return rest.Status, true
	}
	return 0, false
}
