// Package seed provides helpers to create demo data for the application
// database. Intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"headspace/internal/models"
	"headspace/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls the size and shape of the generated social mesh.
type Options struct {
	Users           int
	ThoughtsPerUser int
	MaxFriends      int
	MaxReactions    int
	Clean           bool
}

// DefaultOptions returns a small but connected demo mesh.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		ThoughtsPerUser: 3,
		MaxFriends:      5,
		MaxReactions:    4,
	}
}

// Seeder populates the database through the same repositories the API uses,
// so seeded data obeys the same referential rules as live traffic.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	rng      *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		thoughts: repository.NewThoughtRepository(db),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll wipes users and thoughts.
func (s *Seeder) ClearAll() error {
	if err := s.db.Exec("DELETE FROM thoughts").Error; err != nil {
		return err
	}
	return s.db.Exec("DELETE FROM users").Error
}

// Run generates users, thoughts with reactions, and friend edges.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	created := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    gofakeit.Email(),
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		created = append(created, user)
	}

	for _, user := range created {
		n := s.rng.Intn(opts.ThoughtsPerUser + 1)
		for i := 0; i < n; i++ {
			thought := models.Thought{
				ThoughtText: truncate(gofakeit.HipsterSentence(8), models.MaxTextLength),
				Username:    user.Username,
			}
			if err := s.thoughts.Create(ctx, &thought, user.ID); err != nil {
				return fmt.Errorf("seed thought: %w", err)
			}
			for j := 0; j < s.rng.Intn(opts.MaxReactions+1); j++ {
				reactor := created[s.rng.Intn(len(created))]
				reaction := models.Reaction{
					ReactionBody: truncate(gofakeit.Comment(), models.MaxTextLength),
					Username:     reactor.Username,
				}
				if _, err := s.thoughts.AddReaction(ctx, thought.ID, &reaction); err != nil {
					return fmt.Errorf("seed reaction: %w", err)
				}
			}
		}
	}

	for _, user := range created {
		for i := 0; i < s.rng.Intn(opts.MaxFriends+1); i++ {
			friend := created[s.rng.Intn(len(created))]
			if friend.ID == user.ID {
				continue
			}
			if _, err := s.users.AddFriend(ctx, user.ID, friend.ID); err != nil {
				return fmt.Errorf("seed friend edge: %w", err)
			}
		}
	}

	log.Printf("Seeded %d users", len(created))
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
