package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/you/verifybot/internal/app"
	"github.com/you/verifybot/internal/config"
)

// Web-only deployment: serves the verification pages and API without a
// gateway connection, for hosts that cannot hold a websocket open.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := app.RunWebOnly(cfg); err != nil {
		log.Fatalf("app: %v", err)
	}
}
