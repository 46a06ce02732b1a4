// Package service implements the conversation, search and action logic of
// the bot independent of the Telegram transport. Every operation returns a
// Render describing what the user should see; typed errors classify the
// failure for logging while the Render text stays user facing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/numbot/bot/session"
	"github.com/m3rciful/numbot/bot/twilio"
	"github.com/m3rciful/numbot/core/logger"
	"github.com/m3rciful/numbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	msgWelcome = "👋 Welcome! Please send your Twilio AccountSID and AuthToken in the following format:\n\nACxxxxxxxxxxxxxxxx your_token"

	msgCredentialFormat = "⚠️ Please send your credentials like: ACxxxxxxxxxxxxxxxx your_token"
	msgLoginSuccess     = "✅ Login successful!\n\nUse /buy <area_code> to search for Canadian numbers. Example: /buy 825"
	msgLoginFirst       = "❌ Please login first using /start"

	msgBuyUsage       = "⚠️ Usage: /buy <area_code>"
	msgBadAreaCode    = "⚠️ Please enter a valid 3-digit area code."
	msgNoNumbersFound = "❌ No matching numbers found."
	msgNumbersHeader  = "📱 Available Canadian Numbers:"

	msgNumberDeleted = "✅ Number deleted successfully."
	msgNoMessages    = "No recent messages received."
)

// Render is a transport-neutral reply: text plus an optional inline keyboard.
type Render struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Options tunes provider queries. Zero values fall back to defaults.
type Options struct {
	Country      string
	SearchLimit  int
	MessageLimit int
}

// Service wires the credential store to the telephony provider.
type Service struct {
	sessions session.Store
	provider twilio.Provider
	opts     Options
}

// New builds a Service. Both dependencies are required.
func New(sessions session.Store, provider twilio.Provider, opts Options) *Service {
	if opts.Country == "" {
		opts.Country = "CA"
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 30
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = 5
	}
	return &Service{
		sessions: sessions,
		provider: provider,
		opts:     opts,
	}
}

// Sessions reports the number of active logins.
func (s *Service) Sessions() int {
	return s.sessions.Len()
}

// StartLogin returns the credential prompt shown on /start.
func (s *Service) StartLogin(ctx context.Context, userID int64) Render {
	logger.LogEvent(ctx, logger.SVCAuth, slog.LevelInfo, "login.prompt",
		slog.Int64("user_id", userID),
	)
	return Render{Text: msgWelcome}
}

// Login validates a submitted credential line and stores the session.
// The input must split into exactly two whitespace separated tokens.
// On any failure the conversation stays in the credential-entry state.
func (s *Service) Login(ctx context.Context, userID int64, text string) (Render, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) != 2 {
		err := &InputError{Kind: "credentials", Reason: fmt.Sprintf("expected 2 tokens, got %d", len(parts))}
		return Render{Text: msgCredentialFormat}, err
	}

	sid, token := parts[0], parts[1]

	client, err := s.provider.Authenticate(ctx, sid, token)
	if err != nil {
		logger.LogEvent(ctx, logger.SVCAuth, slog.LevelWarn, "login.fail",
			slog.Int64("user_id", userID),
			slog.String("error", logger.RedactSecrets(err.Error())),
		)
		return Render{Text: fmt.Sprintf("❌ Login failed. Try /start again. Error: %v", errDetail(err))}, err
	}

	s.sessions.Put(&session.Session{
		UserID:     userID,
		AccountSID: sid,
		AuthToken:  token,
		Client:     client,
		CreatedAt:  time.Now(),
	})

	logger.LogEvent(ctx, logger.SVCAuth, slog.LevelInfo, "login.success",
		slog.Int64("user_id", userID),
	)
	return Render{Text: msgLoginSuccess}, nil
}

// Search queries purchasable SMS-capable local numbers for the area code.
// Requires a session; the provider is not called on validation failures.
func (s *Service) Search(ctx context.Context, userID int64, rawAreaCode string) (Render, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return Render{Text: msgLoginFirst}, err
	}

	rawAreaCode = strings.TrimSpace(rawAreaCode)
	if rawAreaCode == "" {
		return Render{Text: msgBuyUsage}, &InputError{Kind: "area_code", Reason: "missing"}
	}

	areaCode, ok := parseAreaCode(rawAreaCode)
	if !ok {
		return Render{Text: msgBadAreaCode}, &InputError{Kind: "area_code", Reason: "not 3 digits"}
	}

	candidates, err := sess.Client.SearchLocal(ctx, s.opts.Country, areaCode, s.opts.SearchLimit)
	if err != nil {
		return Render{Text: fmt.Sprintf("❌ Error: %v", errDetail(err))}, err
	}

	if len(candidates) == 0 {
		logger.LogEvent(ctx, logger.SVCNumbers, slog.LevelInfo, "search.empty",
			slog.Int64("user_id", userID),
			slog.Int("area_code", areaCode),
		)
		return Render{Text: msgNoNumbersFound}, nil
	}

	rows := make([][]keyboard.InlineBtn, 0, len(candidates))
	for _, cand := range candidates {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: cand.PhoneNumber, Unique: "copy", Data: cand.PhoneNumber},
			{Text: "Buy", Unique: "buy", Data: cand.PhoneNumber},
		})
	}

	logger.LogEvent(ctx, logger.SVCNumbers, slog.LevelInfo, "search.results",
		slog.Int64("user_id", userID),
		slog.Int("area_code", areaCode),
		slog.Int("count", len(candidates)),
	)
	return Render{Text: msgNumbersHeader, Markup: keyboard.InlineButtonsRows(rows...)}, nil
}

// Buy provisions the given phone number and renders the follow-up actions
// keyed by the provider-assigned sid.
func (s *Service) Buy(ctx context.Context, userID int64, phoneNumber string) (Render, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return Render{Text: msgLoginFirst}, err
	}

	num, err := sess.Client.Provision(ctx, phoneNumber)
	if err != nil {
		return Render{Text: fmt.Sprintf("❌ Purchase failed. Error: %v", errDetail(err))}, err
	}

	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Show Messages", Unique: "sms", Data: num.SID},
		{Text: "Delete", Unique: "del", Data: num.SID},
	})

	logger.LogEvent(ctx, logger.SVCNumbers, slog.LevelInfo, "buy.success",
		slog.Int64("user_id", userID),
		slog.String("number", num.PhoneNumber),
		slog.String("number_sid", num.SID),
	)
	return Render{
		Text:   fmt.Sprintf("✅ Number %s purchased successfully!", num.PhoneNumber),
		Markup: markup,
	}, nil
}

// Delete releases the number identified by the provider-assigned sid.
// Releasing an unknown or already-released sid surfaces the provider error.
func (s *Service) Delete(ctx context.Context, userID int64, sid string) (Render, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return Render{Text: msgLoginFirst}, err
	}

	if err := sess.Client.Release(ctx, sid); err != nil {
		return Render{Text: fmt.Sprintf("❌ Deletion failed: %v", errDetail(err))}, err
	}

	logger.LogEvent(ctx, logger.SVCNumbers, slog.LevelInfo, "delete.success",
		slog.Int64("user_id", userID),
		slog.String("number_sid", sid),
	)
	return Render{Text: msgNumberDeleted}, nil
}

// ShowMessages resolves the sid to its phone number and renders the most
// recent inbound messages, newest first as returned by the provider.
func (s *Service) ShowMessages(ctx context.Context, userID int64, sid string) (Render, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return Render{Text: msgLoginFirst}, err
	}

	num, err := sess.Client.FetchNumber(ctx, sid)
	if err != nil {
		return Render{Text: fmt.Sprintf("❌ Failed to fetch messages: %v", errDetail(err))}, err
	}

	msgs, err := sess.Client.ListInbound(ctx, num.PhoneNumber, s.opts.MessageLimit)
	if err != nil {
		return Render{Text: fmt.Sprintf("❌ Failed to fetch messages: %v", errDetail(err))}, err
	}

	if len(msgs) == 0 {
		return Render{Text: msgNoMessages}, nil
	}

	var b strings.Builder
	b.WriteString("Recent Messages:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "From: %s\nText: %s\n---\n", m.From, m.Body)
	}
	return Render{Text: b.String()}, nil
}

func parseAreaCode(raw string) (int, bool) {
	if len(raw) != 3 {
		return 0, false
	}
	code := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		code = code*10 + int(r-'0')
	}
	return code, true
}

func errDetail(err error) string {
	var pe *twilio.ProviderError
	if errors.As(err, &pe) {
		return pe.Detail()
	}
	var ae *twilio.AuthError
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return err.Error()
}
