package main

import (
	"log"

	"welfare-chat-be/internal/bootstrap"
	"welfare-chat-be/internal/config"
	"welfare-chat-be/internal/server"
	"welfare-chat-be/pkg/database"
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

	// 4. Start Background Services
	if container.PersistService != nil {
		if err := container.PersistService.Start(); err != nil {
			log.Printf("Background: save pipeline failed to start: %v", err)
		}
	}

	// 5. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
