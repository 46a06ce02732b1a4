// Package handlers binds the service layer to Telegram updates. Handlers
// stay thin: extract the target from the update, call the service, deliver
// the render. Domain errors are returned after the reply is delivered so
// routing summaries carry the error code.
package handlers

import (
	"github.com/m3rciful/numbot/bot/service"
	"github.com/m3rciful/numbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/numbot/core/telegram/helpers"
	"github.com/m3rciful/numbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// StateAwaitCredentials marks a user mid-login, waiting for a credential line.
const StateAwaitCredentials state.State = "await_credentials"

// Handlers carries the dependencies shared by all update handlers.
type Handlers struct {
	svc *service.Service
	fsm state.Manager
}

// New builds the handler set.
func New(svc *service.Service, fsm state.Manager) *Handlers {
	return &Handlers{svc: svc, fsm: fsm}
}

// Start begins the login conversation.
func (h *Handlers) Start(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	h.fsm.SetState(userID, StateAwaitCredentials)
	render := h.svc.StartLogin(ctx, userID)
	return tghelpers.SendText(c, render.Text)
}

// ReceiveCredentials consumes the credential line while awaiting login.
// The conversation ends only on success; any failure keeps the state so the
// next text is treated as another attempt.
func (h *Handlers) ReceiveCredentials(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	render, err := h.svc.Login(ctx, userID, c.Text())
	if err == nil {
		h.fsm.Clear(userID)
	}
	if sendErr := tghelpers.SendText(c, render.Text); sendErr != nil {
		return sendErr
	}
	return err
}

// Buy handles /buy <areaCode>.
func (h *Handlers) Buy(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	areaCode := ""
	if args := c.Args(); len(args) > 0 {
		areaCode = args[0]
	}

	render, err := h.svc.Search(ctx, userID, areaCode)
	if sendErr := sendRender(c, render); sendErr != nil {
		return sendErr
	}
	return err
}

// BuyCallback provisions the number carried in the callback payload and
// replaces the search render with the confirmation.
func (h *Handlers) BuyCallback(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	render, err := h.svc.Buy(ctx, userID, callbacks.CallbackPayload(c))
	if editErr := editRender(c, render); editErr != nil {
		return editErr
	}
	return err
}

// DeleteCallback releases the number identified by the payload sid.
func (h *Handlers) DeleteCallback(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	render, err := h.svc.Delete(ctx, userID, callbacks.CallbackPayload(c))
	if editErr := editRender(c, render); editErr != nil {
		return editErr
	}
	return err
}

// MessagesCallback shows recent inbound SMS for the payload sid.
func (h *Handlers) MessagesCallback(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	render, err := h.svc.ShowMessages(ctx, userID, callbacks.CallbackPayload(c))
	if editErr := editRender(c, render); editErr != nil {
		return editErr
	}
	return err
}

// CopyCallback answers the callback with the number itself. No provider
// call, the rendered message stays untouched.
func (h *Handlers) CopyCallback(c tele.Context) error {
	number := callbacks.CallbackPayload(c)
	return c.Respond(&tele.CallbackResponse{Text: number})
}

func sendRender(c tele.Context, r service.Render) error {
	if r.Markup != nil {
		return tghelpers.SendText(c, r.Text, r.Markup)
	}
	return tghelpers.SendText(c, r.Text)
}

func editRender(c tele.Context, r service.Render) error {
	if r.Markup != nil {
		return tghelpers.EditOrSendText(c, r.Text, r.Markup)
	}
	return tghelpers.EditOrSendText(c, r.Text)
}
