package main

import (
	"context"
	"log"

	"anitrack-bot/internal/bootstrap"
	"anitrack-bot/internal/config"
	"anitrack-bot/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Start Background Services
	go container.Hub.Run()
	go func() {
		log.Println("Background: Starting Event Dispatcher...")
		if err := container.Dispatcher.Run(context.Background()); err != nil {
			log.Printf("Background Dispatcher Error: %v", err)
		}
	}()

	// 5. Run Gateway
	log.Fatal(container.Server.Run())
}
