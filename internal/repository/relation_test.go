package repository

import (
	"context"
	"testing"

	"recall-backend/internal/database"
	"recall-backend/internal/models"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationRepository_UpsertLink_Idempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRelationRepository(mock)

	link := &models.UserFriendEvent{
		ID:       "new-id",
		UserID:   "u1",
		FriendID: "f1",
		EventID:  "e1",
	}

	// first call inserts and returns the new id
	mock.ExpectQuery("INSERT INTO user_friend_events").
		WithArgs("new-id", "u1", "f1", "e1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("new-id"))

	// second call conflicts and returns the existing row's id
	mock.ExpectQuery("INSERT INTO user_friend_events").
		WithArgs("another-id", "u1", "f1", "e1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("new-id"))

	first, err := repo.UpsertLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "new-id", first)

	link.ID = "another-id"
	second, err := repo.UpsertLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepository_GetLinkID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRelationRepository(mock)

	mock.ExpectQuery("SELECT id").
		WithArgs("u1", "f1", "e1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.GetLinkID(context.Background(), "u1", "f1", "e1")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepository_CreateUserFriend_ConflictIsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRelationRepository(mock)

	mock.ExpectExec("INSERT INTO user_friends").
		WithArgs("r1", "u1", "f1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err = repo.CreateUserFriend(context.Background(), "r1", "u1", "f1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepository_ListLinkIDsByUserAndFriend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRelationRepository(mock)

	mock.ExpectQuery("SELECT id").
		WithArgs("u1", "f1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("l1").AddRow("l2"))

	ids, err := repo.ListLinkIDsByUserAndFriend(context.Background(), "u1", "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
