// Package twilio adapts the Twilio REST API to the narrow surface the bot
// needs: credential validation, local number search, provisioning, release
// and inbound message listing.
package twilio

import "context"

// Candidate is a purchasable number returned by a search.
type Candidate struct {
	PhoneNumber string
}

// Number is a provisioned incoming phone number owned by the account.
type Number struct {
	SID         string
	PhoneNumber string
}

// Message is an inbound SMS addressed to a provisioned number.
type Message struct {
	From string
	Body string
}

// Client is an authenticated handle bound to one set of account credentials.
// All calls are blocking and bounded by the provider HTTP timeout.
type Client interface {
	SearchLocal(ctx context.Context, country string, areaCode int, limit int) ([]Candidate, error)
	Provision(ctx context.Context, phoneNumber string) (Number, error)
	Release(ctx context.Context, sid string) error
	FetchNumber(ctx context.Context, sid string) (Number, error)
	ListInbound(ctx context.Context, to string, limit int) ([]Message, error)
}

// Provider validates credentials and issues authenticated clients.
type Provider interface {
	Authenticate(ctx context.Context, accountSID, authToken string) (Client, error)
}
