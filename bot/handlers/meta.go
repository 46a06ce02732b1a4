package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/numbot/bot/service"
	"github.com/m3rciful/numbot/core/buildinfo"
	coretg "github.com/m3rciful/numbot/core/telegram"
	tghelpers "github.com/m3rciful/numbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Help lists the visible commands from the registry.
func Help(reg *coretg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var b strings.Builder
		b.WriteString("Available commands:\n")
		for _, cmd := range reg.ListCommands(true) {
			fmt.Fprintf(&b, "/%s - %s\n", strings.TrimPrefix(cmd.Text, "/"), cmd.Description)
		}
		b.WriteString("\nButtons under a number: tap it to get the number as a popup, Buy to purchase.")
		return tghelpers.SendText(c, b.String())
	}
}

// Stats reports runtime counters. Registered hidden and admin-only.
func Stats(svc *service.Service, dispatcherErrors func() uint64) tele.HandlerFunc {
	started := time.Now()
	return func(c tele.Context) error {
		var sendErrs uint64
		if dispatcherErrors != nil {
			sendErrs = dispatcherErrors()
		}
		text := fmt.Sprintf(
			"Version: %s (%s)\nUptime: %s\nActive sessions: %d\nSend errors: %d",
			buildinfo.Version,
			buildinfo.Commit,
			time.Since(started).Round(time.Second),
			svc.Sessions(),
			sendErrs,
		)
		return tghelpers.SendText(c, text)
	}
}
