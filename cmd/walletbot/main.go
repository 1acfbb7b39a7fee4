package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "walletbot/core/cmd"
	"walletbot/internal/app"
)

func main() {
	// Optional .env for local runs; real deployments set env directly.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("walletbot: %v", err)
	}
}
