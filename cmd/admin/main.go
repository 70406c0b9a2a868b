// Package main provides admin management utilities for Riddlery.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"riddlery/internal/config"
	"riddlery/internal/database"
	"riddlery/internal/models"
	"riddlery/internal/repository"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go promote <user_id>      - Promote user to admin")
		fmt.Println("  go run ./cmd/admin/main.go demote <user_id>       - Demote user from admin")
		fmt.Println("  go run ./cmd/admin/main.go list-admins            - List all admins")
	fmt.Println("  go run ./cmd/admin/main.go pending                - List riddles awaiting moderation")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote":
		setAdmin(ctx, users, requiredIDArg(), true)
	case "demote":
		setAdmin(ctx, users, requiredIDArg(), false)
	case "list-admins":
		listAdmins(db)
	case "pending":
		listPending(ctx, db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func requiredIDArg() uint {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <user_id>\n", os.Args[1])
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil {
		log.Fatalf("Invalid user ID %q: %v", os.Args[2], err)
	}
	return uint(id)
}

func setAdmin(ctx context.Context, users repository.UserRepository, id uint, isAdmin bool) {
	if err := users.SetAdmin(ctx, id, isAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("User %d not found", id)
		}
		log.Fatalf("Failed to update user %d: %v", id, err)
	}
	if isAdmin {
		fmt.Printf("✅ User %d promoted to admin\n", id)
	} else {
		fmt.Printf("✅ User %d demoted from admin\n", id)
	}
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to list admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}
	fmt.Println("Admins:")
	for _, admin := range admins {
		fmt.Printf("  %d  %s  %s\n", admin.ID, admin.Username, admin.Email)
	}
}

func listPending(ctx context.Context, db *gorm.DB) {
	riddles := repository.NewRiddleRepository(db)
	pending, err := riddles.ListByStatus(ctx, models.RiddleStatusPending, 100, 0)
	if err != nil {
		log.Fatalf("Failed to list pending riddles: %v", err)
	}
	if len(pending) == 0 {
		fmt.Println("No riddles awaiting moderation")
		return
	}
	fmt.Printf("%d riddle(s) awaiting moderation:\n", len(pending))
	for _, r := range pending {
		body := r.Body
		if len(body) > 60 {
			body = body[:57] + "..."
		}
		fmt.Printf("  %s  author=%d  %q\n", r.PublicID, r.AuthorUserID, body)
	}
}
