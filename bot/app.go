// Package bot assembles the number-provisioning bot: session store, Twilio
// provider, service layer, handlers and their Telegram wiring.
package bot

import (
	"fmt"

	"github.com/m3rciful/numbot/bot/handlers"
	"github.com/m3rciful/numbot/bot/service"
	"github.com/m3rciful/numbot/bot/session"
	"github.com/m3rciful/numbot/bot/twilio"
	coreconfig "github.com/m3rciful/numbot/core/config"
	coretg "github.com/m3rciful/numbot/core/telegram"
	"github.com/m3rciful/numbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/numbot/core/telegram/helpers"
	"github.com/m3rciful/numbot/core/telegram/router"
	"github.com/m3rciful/numbot/core/telegram/sender"
	"github.com/m3rciful/numbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// App owns the long-lived components of the bot process.
type App struct {
	cfg        *coreconfig.Config
	sessions   *session.MemoryStore
	svc        *service.Service
	fsm        state.Manager
	registry   *coretg.Registry
	dispatcher *sender.Dispatcher
}

// New wires the application with the real Twilio provider.
func New(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}
	return build(cfg, twilio.NewRestProvider(cfg.Twilio.Timeout()))
}

func build(cfg *coreconfig.Config, provider twilio.Provider) (*App, error) {
	sessions := session.NewMemoryStore()
	svc := service.New(sessions, provider, service.Options{
		Country:      cfg.Twilio.Country,
		SearchLimit:  cfg.Twilio.SearchLimit,
		MessageLimit: cfg.Twilio.MessageLimit,
	})

	fsm := state.NewMemoryManager()
	h := handlers.New(svc, fsm)
	fsm.BindHandler(handlers.StateAwaitCredentials, h.ReceiveCredentials)

	dispatcher := sender.NewDispatcher(sender.Options{})

	reg := coretg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Log in with your Twilio credentials",
	})
	reg.RegisterCommand("/buy", commands.Command{
		Handler:     h.Buy,
		Description: "Search numbers by area code",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     handlers.Help(reg),
		Description: "Show available commands",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     handlers.Stats(svc, dispatcher.ErrorCount),
		Description: "Runtime counters",
		AdminOnly:   true,
		Hidden:      true,
	})

	callbackSet := map[string]tele.HandlerFunc{
		"buy":  h.BuyCallback,
		"del":  h.DeleteCallback,
		"sms":  h.MessagesCallback,
		"copy": h.CopyCallback,
	}
	for key, handler := range callbackSet {
		if err := reg.RegisterCallback(key, handler); err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
	}

	return &App{
		cfg:        cfg,
		sessions:   sessions,
		svc:        svc,
		fsm:        fsm,
		registry:   reg,
		dispatcher: dispatcher,
	}, nil
}

// TelegramRunOptions builds the runtime wiring consumed by RunTelegram.
func (a *App) TelegramRunOptions() (coretg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, "This command is not available.")
		},
	})
	routes = append(routes, router.TextRoute(a.fsm, a.registry, router.TextOptions{}))
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return coretg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: coretg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
	}, nil
}
