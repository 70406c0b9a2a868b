package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"riddlery/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestRiddleRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRiddleRepository(db)
	ctx := context.Background()

	riddle := &models.Riddle{
		PublicID:     "3f6f9cbe-6f14-4f6e-8b7a-0a4a1cf2f9a1",
		Body:         "What has keys but no locks?",
		AuthorUserID: 1,
		Status:       models.RiddleStatusPending,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "riddles"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, riddle)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiddleRepository_GetByPublicID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRiddleRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "riddles" WHERE public_id = $1`)).
		WithArgs("abc-123", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "public_id", "body", "author_user_id", "status"}).
			AddRow(1, "abc-123", "What has keys but no locks?", 10, "pending"))

	// preload author - GORM preloads after main query
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "user10"))

	riddle, err := repo.GetByPublicID(ctx, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", riddle.PublicID)
	assert.Equal(t, models.RiddleStatusPending, riddle.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiddleRepository_DecideStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("CAS wins when status still pending", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRiddleRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "riddles" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.DecideStatus(ctx, 1, models.RiddleStatusPending, models.RiddleStatusApproved, 2, now, "")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CAS loses when row already decided", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRiddleRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "riddles" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.DecideStatus(ctx, 1, models.RiddleStatusPending, models.RiddleStatusRejected, 2, now, "dup")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
