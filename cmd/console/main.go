package main

import (
	"log"

	"github.com/aiforge-cloud/aiforge/internal/config"
	"github.com/aiforge-cloud/aiforge/internal/console/app"
)

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
