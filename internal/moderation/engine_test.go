package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"riddlery/internal/database"
	"riddlery/internal/models"
	"riddlery/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func setupEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	riddles := repository.NewRiddleRepository(db)
	users := repository.NewUserRepository(db)
	return NewEngine(riddles, users, nil), db
}

func createUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsAdmin:  isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestEngine_Submit(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()
	author := createUser(t, db, "author", false)

	t.Run("Valid submission is pending", func(t *testing.T) {
		riddle, err := engine.Submit(ctx, author.ID, nil, "What has keys but no locks?", "a piano")
		require.NoError(t, err)
		assert.Equal(t, models.RiddleStatusPending, riddle.Status)
		assert.NotEmpty(t, riddle.PublicID)
		assert.Equal(t, author.ID, riddle.AuthorUserID)
		assert.Nil(t, riddle.DecidedAt)
		assert.Nil(t, riddle.DecidedByUserID)
	})

	t.Run("Team-scoped submission keeps team reference", func(t *testing.T) {
		team := &models.Team{Name: "Night Owls", Slug: "night-owls"}
		require.NoError(t, db.Create(team).Error)

		riddle, err := engine.Submit(ctx, author.ID, &team.ID, "The more you take, the more you leave behind.", "")
		require.NoError(t, err)
		require.NotNil(t, riddle.TeamID)
		assert.Equal(t, team.ID, *riddle.TeamID)
	})

	t.Run("Empty body is rejected before the store", func(t *testing.T) {
		_, err := engine.Submit(ctx, author.ID, nil, "   ", "")
		assertCode(t, err, models.CodeValidation)

		var count int64
		require.NoError(t, db.Model(&models.Riddle{}).Where("body = ?", "").Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestEngine_Approve(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()
	author := createUser(t, db, "author", false)
	admin := createUser(t, db, "admin", true)
	member := createUser(t, db, "member", false)

	submit := func(t *testing.T) *models.Riddle {
		riddle, err := engine.Submit(ctx, author.ID, nil, "What gets wetter the more it dries?", "")
		require.NoError(t, err)
		return riddle
	}

	t.Run("Admin approval decides the riddle", func(t *testing.T) {
		riddle := submit(t)

		decided, err := engine.Approve(ctx, riddle.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RiddleStatusApproved, decided.Status)
		require.NotNil(t, decided.DecidedByUserID)
		assert.Equal(t, admin.ID, *decided.DecidedByUserID)
		require.NotNil(t, decided.DecidedAt)
		assert.WithinDuration(t, time.Now(), *decided.DecidedAt, 5*time.Second)
	})

	t.Run("Second decision reports already decided", func(t *testing.T) {
		riddle := submit(t)
		_, err := engine.Approve(ctx, riddle.ID, admin.ID)
		require.NoError(t, err)

		_, err = engine.Approve(ctx, riddle.ID, admin.ID)
		assertCode(t, err, models.CodeAlreadyDecided)

		_, err = engine.Reject(ctx, riddle.ID, admin.ID, "changed my mind")
		assertCode(t, err, models.CodeAlreadyDecided)
	})

	t.Run("Non-admin is forbidden and state is unchanged", func(t *testing.T) {
		riddle := submit(t)

		_, err := engine.Approve(ctx, riddle.ID, member.ID)
		assertCode(t, err, models.CodeForbidden)

		var current models.Riddle
		require.NoError(t, db.First(&current, riddle.ID).Error)
		assert.Equal(t, models.RiddleStatusPending, current.Status)
	})

	t.Run("Unknown riddle reports not found", func(t *testing.T) {
		_, err := engine.Approve(ctx, 99999, admin.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("Unknown actor is forbidden", func(t *testing.T) {
		riddle := submit(t)
		_, err := engine.Approve(ctx, riddle.ID, 99999)
		assertCode(t, err, models.CodeForbidden)
	})
}

func TestEngine_Reject(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()
	author := createUser(t, db, "author", false)
	admin := createUser(t, db, "admin", true)

	t.Run("Rejection stores the reason verbatim", func(t *testing.T) {
		riddle, err := engine.Submit(ctx, author.ID, nil, "What can travel around the world while staying in a corner?", "")
		require.NoError(t, err)

		decided, err := engine.Reject(ctx, riddle.ID, admin.ID, "  Duplicate of #12  ")
		require.NoError(t, err)
		assert.Equal(t, models.RiddleStatusRejected, decided.Status)
		assert.Equal(t, "  Duplicate of #12  ", decided.RejectionReason)
		require.NotNil(t, decided.DecidedByUserID)
		assert.Equal(t, admin.ID, *decided.DecidedByUserID)
	})

	t.Run("Missing reason is a validation error and leaves the riddle pending", func(t *testing.T) {
		riddle, err := engine.Submit(ctx, author.ID, nil, "What has a head and a tail but no body?", "")
		require.NoError(t, err)

		_, err = engine.Reject(ctx, riddle.ID, admin.ID, "")
		assertCode(t, err, models.CodeValidation)

		var current models.Riddle
		require.NoError(t, db.First(&current, riddle.ID).Error)
		assert.Equal(t, models.RiddleStatusPending, current.Status)
		assert.Nil(t, current.DecidedAt)
	})
}

func TestEngine_ModerationScenario(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()
	u1 := createUser(t, db, "u1", false)
	a1 := createUser(t, db, "a1", true)
	team := &models.Team{Name: "Team One", Slug: "team-one"}
	require.NoError(t, db.Create(team).Error)

	riddle, err := engine.Submit(ctx, u1.ID, &team.ID, "What has keys but no locks?", "")
	require.NoError(t, err)
	assert.Equal(t, models.RiddleStatusPending, riddle.Status)

	decided, err := engine.Approve(ctx, riddle.ID, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiddleStatusApproved, decided.Status)
	assert.Equal(t, a1.ID, *decided.DecidedByUserID)

	_, err = engine.Approve(ctx, riddle.ID, a1.ID)
	assertCode(t, err, models.CodeAlreadyDecided)

	_, err = engine.Reject(ctx, riddle.ID, a1.ID, "too easy")
	assertCode(t, err, models.CodeAlreadyDecided)
}

// casRiddleStore is an in-memory RiddleRepository whose DecideStatus is an
// atomic compare-and-set, used to exercise racing decisions deterministically.
type casRiddleStore struct {
	mu      sync.Mutex
	riddles map[uint]*models.Riddle
}

func newCASRiddleStore() *casRiddleStore {
	return &casRiddleStore{riddles: map[uint]*models.Riddle{}}
}

func (s *casRiddleStore) Create(_ context.Context, riddle *models.Riddle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	riddle.ID = uint(len(s.riddles) + 1)
	clone := *riddle
	s.riddles[riddle.ID] = &clone
	return nil
}

func (s *casRiddleStore) GetByID(_ context.Context, id uint) (*models.Riddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	riddle, ok := s.riddles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *riddle
	return &clone, nil
}

func (s *casRiddleStore) GetByPublicID(_ context.Context, publicID string) (*models.Riddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, riddle := range s.riddles {
		if riddle.PublicID == publicID {
			clone := *riddle
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *casRiddleStore) ListByStatus(_ context.Context, status models.RiddleStatus, _, _ int) ([]*models.Riddle, error) {
	return nil, nil
}

func (s *casRiddleStore) ListByAuthor(_ context.Context, _ uint, _, _ int) ([]*models.Riddle, error) {
	return nil, nil
}

func (s *casRiddleStore) DecideStatus(_ context.Context, id uint, expected, next models.RiddleStatus,
	decidedBy uint, decidedAt time.Time, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	riddle, ok := s.riddles[id]
	if !ok || riddle.Status != expected {
		return false, nil
	}
	riddle.Status = next
	riddle.DecidedAt = &decidedAt
	riddle.DecidedByUserID = &decidedBy
	if next == models.RiddleStatusRejected {
		riddle.RejectionReason = reason
	}
	return true, nil
}

type allowAllAdmins struct{}

func (allowAllAdmins) IsAdmin(context.Context, uint) (bool, error) { return true, nil }

func TestEngine_ConcurrentDecisionsExactlyOneWinner(t *testing.T) {
	store := newCASRiddleStore()
	engine := NewEngine(store, allowAllAdmins{}, nil)
	ctx := context.Background()

	riddle, err := engine.Submit(ctx, 1, nil, "Racing riddle", "")
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Approve(ctx, riddle.ID, uint(100+i))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assertCode(t, err, models.CodeAlreadyDecided)
	}
	assert.Equal(t, 1, successes, "exactly one concurrent decision must win")

	final, err := store.GetByID(ctx, riddle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiddleStatusApproved, final.Status)
	require.NotNil(t, final.DecidedByUserID)
}
