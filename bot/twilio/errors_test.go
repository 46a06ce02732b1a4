package twilio

import (
	"errors"
	"testing"

	twclient "github.com/twilio/twilio-go/client"
)

func TestProviderErrorCode(t *testing.T) {
	rest := &twclient.TwilioRestError{
		Code:    21422,
		Status:  400,
		Message: "PhoneNumber is not available",
	}
	err := &ProviderError{Op: "provision number", Err: rest}

	if got := err.Code(); got != "provider_21422" {
		t.Fatalf("Code() = %q, want provider_21422", got)
	}
	if got := err.Detail(); got != "PhoneNumber is not available" {
		t.Fatalf("Detail() = %q", got)
	}

	var target *twclient.TwilioRestError
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to unwrap TwilioRestError")
	}
}

func TestProviderErrorCodeNetworkFailure(t *testing.T) {
	err := &ProviderError{Op: "list messages", Err: errors.New("dial tcp: i/o timeout")}

	if got := err.Code(); got != "provider_error" {
		t.Fatalf("Code() = %q, want provider_error", got)
	}
	if got := err.Detail(); got != "dial tcp: i/o timeout" {
		t.Fatalf("Detail() = %q", got)
	}
}

func TestAuthErrorCode(t *testing.T) {
	err := &AuthError{Err: errors.New("401 unauthorized")}
	if got := err.Code(); got != "auth_failed" {
		t.Fatalf("Code() = %q, want auth_failed", got)
	}
	if err.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}
}

func TestRestStatus(t *testing.T) {
	rest := &twclient.TwilioRestError{Code: 20404, Status: 404, Message: "not found"}
	wrapped := &ProviderError{Op: "release number", Err: rest}

	status, ok := RestStatus(wrapped)
	if !ok || status != 404 {
		t.Fatalf("RestStatus = %d, %v; want 404, true", status, ok)
	}
	if _, ok := RestStatus(errors.New("plain")); ok {
		t.Fatal("plain error should not carry a status")
	}
}
