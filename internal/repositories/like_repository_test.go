package repositories_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	deleteLike = regexp.QuoteMeta(`DELETE FROM "likes" WHERE message_id = $1 AND user_id = $2`)
	insertLike = `INSERT INTO "likes" .* ON CONFLICT DO NOTHING RETURNING "id"`
)

func newMockLikes(t *testing.T) (*repositories.PostgresLikeRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return repositories.NewPostgresLikeRepository(db), mock
}

func TestPostgresLikeRepository_ToggleLike(t *testing.T) {
	tests := []struct {
		name      string
		expect    func(mock sqlmock.Sqlmock)
		favorited bool
	}{
		{
			name: "creates a missing like",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteLike).WithArgs("m1", 1).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(insertLike).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			},
			favorited: true,
		},
		{
			name: "removes an existing like",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteLike).WithArgs("m1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			favorited: false,
		},
		{
			// A concurrent toggle inserted the row first; this one undoes it.
			name: "insert conflict becomes an unlike",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteLike).WithArgs("m1", 1).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(insertLike).WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectExec(deleteLike).WithArgs("m1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			favorited: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockLikes(t)
			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectCommit()

			favorited, err := repo.ToggleLike(context.Background(), "m1", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.favorited, favorited)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresLikeRepository_DeleteLikesForMessages(t *testing.T) {
	repo, mock := newMockLikes(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "user_id" FROM "likes" WHERE message_id IN ($1,$2)`)).
		WithArgs("m1", "m2").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE message_id IN ($1,$2)`)).
		WithArgs("m1", "m2").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	userIDs, err := repo.DeleteLikesForMessages(context.Background(), []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, userIDs)
	assert.NoError(t, mock.ExpectationsWereMet())

	userIDs, err = repo.DeleteLikesForMessages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, userIDs)
}

func TestPostgresLikeRepository_DeleteLikesByUser(t *testing.T) {
	repo, mock := newMockLikes(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "message_id" FROM "likes" WHERE user_id = $1`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"message_id"}).AddRow("m1").AddRow("m9"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1`)).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	messageIDs, err := repo.DeleteLikesByUser(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m9"}, messageIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
