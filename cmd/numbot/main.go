package main

import (
	"log"

	"github.com/m3rciful/numbot/bot"
	corecmd "github.com/m3rciful/numbot/core/cmd"
	coreconfig "github.com/m3rciful/numbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		BuildApp: func(cfg *coreconfig.Config) (corecmd.App, error) {
			return bot.New(cfg)
		},
	})
	if err != nil {
		log.Fatalf("numbot: %v", err)
	}
}
