package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/numbot/bot/session"
	"github.com/m3rciful/numbot/bot/twilio"

	twclient "github.com/twilio/twilio-go/client"
)

type fakeClient struct {
	calls int

	searchResult []twilio.Candidate
	searchErr    error

	provisionResult twilio.Number
	provisionErr    error

	releaseErr error

	fetchResult twilio.Number
	fetchErr    error

	listResult []twilio.Message
	listErr    error
}

func (f *fakeClient) SearchLocal(_ context.Context, country string, areaCode int, limit int) ([]twilio.Candidate, error) {
	f.calls++
	return f.searchResult, f.searchErr
}

func (f *fakeClient) Provision(_ context.Context, phoneNumber string) (twilio.Number, error) {
	f.calls++
	return f.provisionResult, f.provisionErr
}

func (f *fakeClient) Release(_ context.Context, sid string) error {
	f.calls++
	return f.releaseErr
}

func (f *fakeClient) FetchNumber(_ context.Context, sid string) (twilio.Number, error) {
	f.calls++
	return f.fetchResult, f.fetchErr
}

func (f *fakeClient) ListInbound(_ context.Context, to string, limit int) ([]twilio.Message, error) {
	f.calls++
	return f.listResult, f.listErr
}

type fakeProvider struct {
	calls  int
	client twilio.Client
	err    error
}

func (f *fakeProvider) Authenticate(_ context.Context, accountSID, authToken string) (twilio.Client, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func newService(store session.Store, provider twilio.Provider) *Service {
	return New(store, provider, Options{})
}

func loggedIn(t *testing.T, client twilio.Client) (session.Store, *Service) {
	t.Helper()
	store := session.NewMemoryStore()
	store.Put(&session.Session{UserID: 1, AccountSID: "AC1", Client: client})
	return store, newService(store, &fakeProvider{client: client})
}

func TestLoginBadTokenCount(t *testing.T) {
	provider := &fakeProvider{client: &fakeClient{}}
	svc := newService(session.NewMemoryStore(), provider)

	for _, input := range []string{"", "onlyone", "a b c", "  spaced   out   wide  "} {
		render, err := svc.Login(context.Background(), 1, input)
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("input %q: expected InputError, got %v", input, err)
		}
		if !strings.Contains(render.Text, "credentials like") {
			t.Fatalf("input %q: unexpected render %q", input, render.Text)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider called %d times on malformed input", provider.calls)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	provider := &fakeProvider{err: &twilio.AuthError{Err: errors.New("HTTP 401: authenticate")}}
	store := session.NewMemoryStore()
	svc := newService(store, provider)

	render, err := svc.Login(context.Background(), 1, "ACxxx wrongtoken")
	var ae *twilio.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if !strings.Contains(render.Text, "Login failed") {
		t.Fatalf("render = %q, want login failure text", render.Text)
	}
	if store.Len() != 0 {
		t.Fatal("no session should be created on failed login")
	}
}

func TestLoginSuccessStoresSession(t *testing.T) {
	client := &fakeClient{}
	provider := &fakeProvider{client: client}
	store := session.NewMemoryStore()
	svc := newService(store, provider)

	render, err := svc.Login(context.Background(), 1, "AC123 token456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(render.Text, "Login successful") {
		t.Fatalf("render = %q", render.Text)
	}

	sess, err := store.Get(1)
	if err != nil {
		t.Fatalf("session missing after login: %v", err)
	}
	if sess.AccountSID != "AC123" || sess.AuthToken != "token456" {
		t.Fatalf("session credentials = %q/%q", sess.AccountSID, sess.AuthToken)
	}
	if sess.Client == nil {
		t.Fatal("session must hold the authenticated client")
	}
}

func TestReLoginReplacesSession(t *testing.T) {
	client := &fakeClient{}
	provider := &fakeProvider{client: client}
	store := session.NewMemoryStore()
	svc := newService(store, provider)

	if _, err := svc.Login(context.Background(), 1, "AC_first tok"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := svc.Login(context.Background(), 1, "AC_second tok"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
	sess, _ := store.Get(1)
	if sess.AccountSID != "AC_second" {
		t.Fatalf("AccountSID = %q, want AC_second", sess.AccountSID)
	}
}

func TestSearchWithoutSession(t *testing.T) {
	client := &fakeClient{}
	svc := newService(session.NewMemoryStore(), &fakeProvider{client: client})

	render, err := svc.Search(context.Background(), 99, "825")
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if !strings.Contains(render.Text, "login first") {
		t.Fatalf("render = %q", render.Text)
	}
	if client.calls != 0 {
		t.Fatalf("provider called %d times without a session", client.calls)
	}
}

func TestSearchAreaCodeValidation(t *testing.T) {
	client := &fakeClient{}
	_, svc := loggedIn(t, client)

	cases := []struct {
		raw  string
		want string
	}{
		{"", "Usage"},
		{"82", "3-digit"},
		{"8255", "3-digit"},
		{"8a5", "3-digit"},
		{"-82", "3-digit"},
	}
	for _, tc := range cases {
		render, err := svc.Search(context.Background(), 1, tc.raw)
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("area code %q: expected InputError, got %v", tc.raw, err)
		}
		if !strings.Contains(render.Text, tc.want) {
			t.Fatalf("area code %q: render = %q", tc.raw, render.Text)
		}
	}
	if client.calls != 0 {
		t.Fatalf("provider called %d times on invalid area codes", client.calls)
	}
}

func TestSearchRendersRowsInProviderOrder(t *testing.T) {
	client := &fakeClient{
		searchResult: []twilio.Candidate{
			{PhoneNumber: "+18255550001"},
			{PhoneNumber: "+18255550002"},
			{PhoneNumber: "+18255550003"},
		},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.Search(context.Background(), 1, "825")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if render.Markup == nil {
		t.Fatal("expected inline keyboard")
	}

	rows := render.Markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, row := range rows {
		if len(row) != 2 {
			t.Fatalf("row %d has %d buttons, want 2", i, len(row))
		}
		want := client.searchResult[i].PhoneNumber
		if row[0].Text != want || row[0].Unique != "copy" {
			t.Fatalf("row %d copy button = %+v", i, row[0])
		}
		if row[1].Text != "Buy" || row[1].Unique != "buy" || row[1].Data != want {
			t.Fatalf("row %d buy button = %+v", i, row[1])
		}
	}
}

func TestSearchEmptyResult(t *testing.T) {
	client := &fakeClient{}
	_, svc := loggedIn(t, client)

	render, err := svc.Search(context.Background(), 1, "825")
	if err != nil {
		t.Fatalf("empty result is not an error: %v", err)
	}
	if !strings.Contains(render.Text, "No matching numbers") {
		t.Fatalf("render = %q", render.Text)
	}
	if render.Markup != nil {
		t.Fatal("no keyboard expected for empty result")
	}
}

func TestSearchProviderFailure(t *testing.T) {
	client := &fakeClient{
		searchErr: &twilio.ProviderError{Op: "search local numbers", Err: errors.New("upstream 500")},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.Search(context.Background(), 1, "825")
	var pe *twilio.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !strings.Contains(render.Text, "upstream 500") {
		t.Fatalf("render = %q, want provider detail", render.Text)
	}
}

func TestBuySuccess(t *testing.T) {
	client := &fakeClient{
		provisionResult: twilio.Number{SID: "PN123", PhoneNumber: "+15551234567"},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.Buy(context.Background(), 1, "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(render.Text, "+15551234567") {
		t.Fatalf("render = %q, want purchased number", render.Text)
	}
	if render.Markup == nil || len(render.Markup.InlineKeyboard) != 1 {
		t.Fatal("expected one keyboard row of follow-up actions")
	}
	row := render.Markup.InlineKeyboard[0]
	if len(row) != 2 {
		t.Fatalf("row has %d buttons, want 2", len(row))
	}
	if row[0].Unique != "sms" || row[0].Data != "PN123" {
		t.Fatalf("sms button = %+v", row[0])
	}
	if row[1].Unique != "del" || row[1].Data != "PN123" {
		t.Fatalf("del button = %+v", row[1])
	}
}

func TestBuyAlreadyOwned(t *testing.T) {
	client := &fakeClient{
		provisionErr: &twilio.ProviderError{
			Op: "provision number",
			Err: &twclient.TwilioRestError{
				Code:    21422,
				Status:  400,
				Message: "PhoneNumber is not available",
			},
		},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.Buy(context.Background(), 1, "+15551234567")
	var pe *twilio.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !strings.Contains(render.Text, "Purchase failed") {
		t.Fatalf("render = %q", render.Text)
	}
	if render.Markup != nil {
		t.Fatal("failed purchase must not offer follow-up actions")
	}
}

func TestDeleteUnknownSid(t *testing.T) {
	client := &fakeClient{
		releaseErr: &twilio.ProviderError{
			Op:  "release number",
			Err: &twclient.TwilioRestError{Code: 20404, Status: 404, Message: "The requested resource was not found"},
		},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.Delete(context.Background(), 1, "PNxxxx")
	if err == nil {
		t.Fatal("expected provider error for unknown sid")
	}
	if strings.Contains(render.Text, "deleted successfully") {
		t.Fatalf("render = %q, must not be the success confirmation", render.Text)
	}
	if !strings.Contains(render.Text, "Deletion failed") {
		t.Fatalf("render = %q", render.Text)
	}
}

func TestDeleteSuccess(t *testing.T) {
	client := &fakeClient{}
	_, svc := loggedIn(t, client)

	render, err := svc.Delete(context.Background(), 1, "PN123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(render.Text, "deleted successfully") {
		t.Fatalf("render = %q", render.Text)
	}
}

func TestShowMessagesEmpty(t *testing.T) {
	client := &fakeClient{
		fetchResult: twilio.Number{SID: "PN123", PhoneNumber: "+15551234567"},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.ShowMessages(context.Background(), 1, "PN123")
	if err != nil {
		t.Fatalf("empty inbox is not an error: %v", err)
	}
	if render.Text != "No recent messages received." {
		t.Fatalf("render = %q", render.Text)
	}
}

func TestShowMessagesRendersSenderAndBody(t *testing.T) {
	client := &fakeClient{
		fetchResult: twilio.Number{SID: "PN123", PhoneNumber: "+15551234567"},
		listResult: []twilio.Message{
			{From: "+15559990001", Body: "hello"},
			{From: "+15559990002", Body: "second"},
		},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.ShowMessages(context.Background(), 1, "PN123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := strings.Index(render.Text, "+15559990001")
	second := strings.Index(render.Text, "+15559990002")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("messages out of order or missing: %q", render.Text)
	}
	if strings.Count(render.Text, "---") != 2 {
		t.Fatalf("expected a delimiter per message: %q", render.Text)
	}
	if !strings.Contains(render.Text, "From: +15559990001\nText: hello") {
		t.Fatalf("render = %q", render.Text)
	}
}

func TestShowMessagesFetchFailure(t *testing.T) {
	client := &fakeClient{
		fetchErr: &twilio.ProviderError{Op: "fetch number", Err: errors.New("timeout")},
	}
	_, svc := loggedIn(t, client)

	render, err := svc.ShowMessages(context.Background(), 1, "PN123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(render.Text, "Failed to fetch messages") {
		t.Fatalf("render = %q", render.Text)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d, list must not run after fetch failure", client.calls)
	}
}

func TestActionsWithoutSession(t *testing.T) {
	client := &fakeClient{}
	svc := newService(session.NewMemoryStore(), &fakeProvider{client: client})
	ctx := context.Background()

	actions := []func() (Render, error){
		func() (Render, error) { return svc.Buy(ctx, 99, "+15551234567") },
		func() (Render, error) { return svc.Delete(ctx, 99, "PN123") },
		func() (Render, error) { return svc.ShowMessages(ctx, 99, "PN123") },
	}
	for i, action := range actions {
		render, err := action()
		if !errors.Is(err, session.ErrNoSession) {
			t.Fatalf("action %d: expected ErrNoSession, got %v", i, err)
		}
		if !strings.Contains(render.Text, "login first") {
			t.Fatalf("action %d: render = %q", i, render.Text)
		}
	}
	if client.calls != 0 {
		t.Fatalf("provider called %d times without sessions", client.calls)
	}
}
