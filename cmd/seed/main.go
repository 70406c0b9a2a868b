// Command seed populates the database with demo users, teams and riddles.
package main

import (
	"flag"
	"log"

	"riddlery/internal/config"
	"riddlery/internal/database"
	"riddlery/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 25, "Number of users to create")
	numTeams := flag.Int("teams", 5, "Number of teams to create")
	numRiddles := flag.Int("riddles", 100, "Number of riddles to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt hashing (dev only, logins will not work)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d teams, %d riddles, clean=%v\n", *numUsers, *numTeams, *numRiddles, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:   *numUsers,
		NumTeams:   *numTeams,
		NumRiddles: *numRiddles,
		SkipBcrypt: *fast,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	admin, err := s.Run()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! Admin account: %s\n", admin.Email)
	log.Println("📧 All seeded users have the password: password123")
}
