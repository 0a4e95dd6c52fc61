// Command main runs the database seeder for Headspace.
package main

import (
	"context"
	"flag"
	"log"

	"headspace/internal/config"
	"headspace/internal/database"
	"headspace/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	thoughtsPerUser := flag.Int("thoughts", 3, "Max thoughts per user")
	maxFriends := flag.Int("friends", 5, "Max friend edges per user")
	maxReactions := flag.Int("reactions", 4, "Max reactions per thought")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	err = s.Run(context.Background(), seed.Options{
		Users:           *numUsers,
		ThoughtsPerUser: *thoughtsPerUser,
		MaxFriends:      *maxFriends,
		MaxReactions:    *maxReactions,
		Clean:           *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
