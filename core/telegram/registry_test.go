package telegram

import (
	"testing"

	"github.com/m3rciful/numbot/core/logger"
	"github.com/m3rciful/numbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	// Registration paths log through the wiring logger.
	_ = logger.InitLogger(nil)
	m.Run()
}

func noopHandler(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "Login to Twilio"})
	reg.RegisterCommand("/buy", commands.Command{Handler: noopHandler, Description: "Search numbers"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noopHandler, Description: "Stats", AdminOnly: true, Hidden: true})

	if len(reg.Commands()) != 3 {
		t.Fatalf("commands = %d, want 3", len(reg.Commands()))
	}

	visible := reg.ListCommands(true)
	if len(visible) != 2 {
		t.Fatalf("visible commands = %d, want 2", len(visible))
	}
	// Sorted by name.
	if visible[0].Text != "/buy" || visible[1].Text != "/start" {
		t.Fatalf("unexpected order: %v", visible)
	}

	key, _, ok := reg.LookupCommand("buy")
	if !ok || key != "/buy" {
		t.Fatalf("lookup buy: ok=%v key=%q", ok, key)
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("lookup of unknown command should fail")
	}
}

func TestRegistryCommandValidation(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("start", commands.Command{Handler: noopHandler, Description: "no slash"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noopHandler})
	reg.RegisterCommand("/dup", commands.Command{Handler: noopHandler, Description: "first"})
	reg.RegisterCommand("/dup", commands.Command{Handler: noopHandler, Description: "second"})

	if len(reg.Commands()) != 1 {
		t.Fatalf("commands = %d, want 1", len(reg.Commands()))
	}
	if _, cmd, ok := reg.LookupCommand("/dup"); !ok || cmd.Description != "first" {
		t.Fatalf("duplicate registration should keep the first handler")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("buy", noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("buy", noopHandler); err == nil {
		t.Fatal("duplicate callback registration should error")
	}
	if err := reg.RegisterCallback("", noopHandler); err == nil {
		t.Fatal("empty key should error")
	}

	if _, ok := reg.GetCallback("buy"); !ok {
		t.Fatal("expected buy callback")
	}
	if _, ok := reg.GetCallback("del"); ok {
		t.Fatal("unexpected del callback")
	}

	_ = reg.RegisterCallback("del", noopHandler)
	keys := reg.ListCallbacks()
	if len(keys) != 2 || keys[0] != "buy" || keys[1] != "del" {
		t.Fatalf("callbacks = %v", keys)
	}
}
