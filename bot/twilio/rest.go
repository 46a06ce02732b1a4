package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/numbot/core/logger"
	"github.com/m3rciful/numbot/core/telegram/format"

	twiliosdk "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// RestProvider issues clients backed by the Twilio Go SDK.
type RestProvider struct {
	timeout time.Duration
}

// NewRestProvider builds a provider whose clients bound every HTTP call
// with the given timeout. Zero falls back to 15 seconds.
func NewRestProvider(timeout time.Duration) *RestProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RestProvider{timeout: timeout}
}

// Authenticate validates the credentials with a lightweight account fetch
// and returns a client bound to them. The fetch is the only call made.
func (p *RestProvider) Authenticate(ctx context.Context, accountSID, authToken string) (Client, error) {
	base := &twclient.Client{
		Credentials: twclient.NewCredentials(accountSID, authToken),
	}
	base.SetTimeout(p.timeout)

	rc := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
		Client:     base,
	})

	start := time.Now()
	_, err := rc.Api.FetchAccount(accountSID)
	if err != nil {
		logProviderCall(ctx, "account.fetch", start, err)
		return nil, &AuthError{Err: err}
	}
	logProviderCall(ctx, "account.fetch", start, nil)

	return &restClient{rc: rc, accountSID: accountSID}, nil
}

type restClient struct {
	rc         *twiliosdk.RestClient
	accountSID string
}

func (c *restClient) SearchLocal(ctx context.Context, country string, areaCode int, limit int) ([]Candidate, error) {
	params := &openapi.ListAvailablePhoneNumberLocalParams{}
	params.SetAreaCode(areaCode)
	params.SetSmsEnabled(true)
	params.SetLimit(limit)

	start := time.Now()
	records, err := c.rc.Api.ListAvailablePhoneNumberLocal(country, params)
	logProviderCall(ctx, "numbers.search", start, err,
		slog.String("country", country),
		slog.Int("area_code", areaCode),
	)
	if err != nil {
		return nil, &ProviderError{Op: "search local numbers", Err: err}
	}

	out := make([]Candidate, 0, len(records))
	for _, rec := range records {
		out = append(out, Candidate{PhoneNumber: format.DerefString(rec.PhoneNumber, "")})
	}
	return out, nil
}

func (c *restClient) Provision(ctx context.Context, phoneNumber string) (Number, error) {
	params := &openapi.CreateIncomingPhoneNumberParams{}
	params.SetPhoneNumber(phoneNumber)

	start := time.Now()
	rec, err := c.rc.Api.CreateIncomingPhoneNumber(params)
	logProviderCall(ctx, "numbers.provision", start, err,
		slog.String("number", phoneNumber),
	)
	if err != nil {
		return Number{}, &ProviderError{Op: "provision number", Err: err}
	}

	return Number{
		SID:         format.DerefString(rec.Sid, ""),
		PhoneNumber: format.DerefString(rec.PhoneNumber, ""),
	}, nil
}

func (c *restClient) Release(ctx context.Context, sid string) error {
	start := time.Now()
	err := c.rc.Api.DeleteIncomingPhoneNumber(sid, &openapi.DeleteIncomingPhoneNumberParams{})
	logProviderCall(ctx, "numbers.release", start, err,
		slog.String("number_sid", sid),
	)
	if err != nil {
		return &ProviderError{Op: "release number", Err: err}
	}
	return nil
}

func (c *restClient) FetchNumber(ctx context.Context, sid string) (Number, error) {
	start := time.Now()
	rec, err := c.rc.Api.FetchIncomingPhoneNumber(sid, &openapi.FetchIncomingPhoneNumberParams{})
	logProviderCall(ctx, "numbers.fetch", start, err,
		slog.String("number_sid", sid),
	)
	if err != nil {
		return Number{}, &ProviderError{Op: "fetch number", Err: err}
	}

	return Number{
		SID:         format.DerefString(rec.Sid, ""),
		PhoneNumber: format.DerefString(rec.PhoneNumber, ""),
	}, nil
}

func (c *restClient) ListInbound(ctx context.Context, to string, limit int) ([]Message, error) {
	params := &openapi.ListMessageParams{}
	params.SetTo(to)
	params.SetLimit(limit)

	start := time.Now()
	records, err := c.rc.Api.ListMessage(params)
	logProviderCall(ctx, "messages.list", start, err,
		slog.String("number", to),
	)
	if err != nil {
		return nil, &ProviderError{Op: "list messages", Err: err}
	}

	out := make([]Message, 0, len(records))
	for _, rec := range records {
		out = append(out, Message{
			From: format.DerefString(rec.From, ""),
			Body: format.DerefString(rec.Body, ""),
		})
	}
	return out, nil
}

func logProviderCall(ctx context.Context, op string, start time.Time, err error, extras ...slog.Attr) {
	attrs := make([]slog.Attr, 0, len(extras)+5)
	attrs = append(attrs, slog.String("op", op))
	attrs = append(attrs, extras...)
	attrs = append(attrs, slog.Duration("duration", logger.RoundMS(time.Since(start))))

	if err == nil {
		attrs = append(attrs, slog.String("status", "success"))
		logger.LogEvent(ctx, logger.TW, slog.LevelDebug, op, attrs...)
		return
	}

	attrs = append(attrs, slog.String("status", "fail"))
	if code, ok := RestCode(err); ok {
		attrs = append(attrs, slog.Int("provider_code", code))
	}
	if status, ok := RestStatus(err); ok {
		attrs = append(attrs, slog.Int("provider_status", status))
	}
	attrs = append(attrs, slog.String("error", logger.RedactSecrets(fmt.Sprintf("%v", err))))
	logger.LogEvent(ctx, logger.TW, slog.LevelWarn, op, attrs...)
}
