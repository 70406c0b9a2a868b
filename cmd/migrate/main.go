// Command migrate applies the GORM schema to the configured database.
// The server runs AutoMigrate itself outside production; this command is the
// explicit path for production rollouts.
package main

import (
	"log"

	"riddlery/internal/config"
	"riddlery/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Schema migration completed")
}
