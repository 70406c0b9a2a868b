// Package seed provides helpers to create demo data for development and
// testing. It is never invoked by the server itself.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"riddlery/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers   int
	NumRiddles int
	NumTeams   int
	// SkipBcrypt stores a plaintext marker instead of hashing; dev only.
	SkipBcrypt bool
}

// Seeder populates the database with demo data.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded rows. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"riddles", "team_memberships", "teams", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

var riddleBodies = []string{
	"What has keys but can't open locks?",
	"What gets wetter the more it dries?",
	"What has a head and a tail but no body?",
	"The more you take, the more you leave behind. What am I?",
	"What can travel around the world while staying in a corner?",
	"What has many teeth but cannot bite?",
	"I speak without a mouth and hear without ears. What am I?",
	"What invention lets you look right through a wall?",
	"What goes up but never comes down?",
	"What belongs to you but is used more by others?",
}

var riddleAnswers = []string{
	"a piano", "a towel", "a coin", "footsteps", "a stamp",
	"a comb", "an echo", "a window", "your age", "your name",
}

// CreateUser constructs and persists a demo user. Overrides may modify the
// generated user before saving.
func (s *Seeder) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Bio:      gofakeit.Sentence(10),
	}

	if s.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTeam constructs and persists a demo team with the creator as captain.
func (s *Seeder) CreateTeam(creator *models.User) (*models.Team, error) {
	name := gofakeit.NounCollectiveAnimal()
	team := &models.Team{
		Name:            name,
		Slug:            fmt.Sprintf("%s-%d", strings.ReplaceAll(strings.ToLower(name), " ", "-"), gofakeit.Number(10, 99)),
		Description:     gofakeit.Sentence(12),
		CreatedByUserID: &creator.ID,
	}
	if err := s.db.Create(team).Error; err != nil {
		return nil, err
	}

	membership := &models.TeamMembership{
		TeamID: team.ID,
		UserID: creator.ID,
		Role:   models.TeamMembershipRoleCaptain,
	}
	if err := s.db.Create(membership).Error; err != nil {
		return nil, err
	}
	return team, nil
}

// CreateRiddle constructs and persists a demo riddle in a random lifecycle
// state. Decided riddles get a decider and timestamp, so the seeded data
// satisfies the same invariants live data does.
func (s *Seeder) CreateRiddle(author *models.User, teamID *uint, decider *models.User) (*models.Riddle, error) {
	idx := s.rng.Intn(len(riddleBodies))
	riddle := &models.Riddle{
		PublicID:     uuid.NewString(),
		Body:         riddleBodies[idx],
		Answer:       riddleAnswers[idx],
		AuthorUserID: author.ID,
		TeamID:       teamID,
		Status:       models.RiddleStatusPending,
	}

	// Roughly: 60% approved, 20% rejected, 20% still pending.
	if decider != nil {
		switch roll := s.rng.Intn(10); {
		case roll < 6:
			riddle.Status = models.RiddleStatusApproved
		case roll < 8:
			riddle.Status = models.RiddleStatusRejected
			riddle.RejectionReason = gofakeit.Sentence(8)
		}
	}
	if riddle.Status.Terminal() {
		decidedAt := time.Now().Add(-time.Duration(s.rng.Intn(72)) * time.Hour)
		riddle.DecidedAt = &decidedAt
		riddle.DecidedByUserID = &decider.ID
	}

	if err := s.db.Create(riddle).Error; err != nil {
		return nil, err
	}
	return riddle, nil
}

// Run seeds the full demo dataset: one admin, a population of users and
// teams, and riddles spread across the moderation lifecycle. Returns the
// admin user for convenience.
func (s *Seeder) Run() (*models.User, error) {
	admin, err := s.CreateUser(func(u *models.User) {
		u.Username = "admin"
		u.Email = "admin@riddlery.local"
		u.IsAdmin = true
	})
	if err != nil {
		return nil, fmt.Errorf("seeding admin: %w", err)
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return admin, nil
	}

	teams := make([]*models.Team, 0, s.opts.NumTeams)
	for i := 0; i < s.opts.NumTeams; i++ {
		team, err := s.CreateTeam(users[s.rng.Intn(len(users))])
		if err != nil {
			return nil, fmt.Errorf("seeding team %d: %w", i, err)
		}
		teams = append(teams, team)
	}

	for i := 0; i < s.opts.NumRiddles; i++ {
		author := users[s.rng.Intn(len(users))]
		var teamID *uint
		if len(teams) > 0 && s.rng.Intn(3) == 0 {
			team := teams[s.rng.Intn(len(teams))]
			if err := s.ensureMembership(team, author); err != nil {
				return nil, err
			}
			teamID = &team.ID
		}
		if _, err := s.CreateRiddle(author, teamID, admin); err != nil {
			return nil, fmt.Errorf("seeding riddle %d: %w", i, err)
		}
	}

	return admin, nil
}

func (s *Seeder) ensureMembership(team *models.Team, user *models.User) error {
	var existing models.TeamMembership
	err := s.db.Where("team_id = ? AND user_id = ?", team.ID, user.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return s.db.Create(&models.TeamMembership{
		TeamID: team.ID,
		UserID: user.ID,
		Role:   models.TeamMembershipRoleMember,
	}).Error
}
