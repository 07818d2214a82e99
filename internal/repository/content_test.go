package repository

import (
	"context"
	"testing"
	"time"

	"recall-backend/internal/database"
	"recall-backend/internal/models"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRepository_BulkCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContentRepository(mock)
	now := time.Now()

	blocks := []*models.ContentBlock{
		{ID: "c1", UserFriendEventID: "l1", Topic: "career", Content: "new job", CreatedAt: now},
		{ID: "c2", UserFriendEventID: "l1", Topic: "travel", Content: "trip to Lisbon", CreatedAt: now},
	}

	mock.ExpectQuery("INSERT INTO content_blocks").
		WithArgs(
			"c1", "l1", "career", "new job", now,
			"c2", "l1", "travel", "trip to Lisbon", now,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_friend_event_id", "topic", "content", "created_at"}).
			AddRow("c1", "l1", "career", "new job", now).
			AddRow("c2", "l1", "travel", "trip to Lisbon", now))

	created, err := repo.BulkCreate(context.Background(), blocks)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "l1", created[0].UserFriendEventID)
	assert.Equal(t, "travel", created[1].Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_BulkCreate_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContentRepository(mock)

	_, err = repo.BulkCreate(context.Background(), nil)
	assert.ErrorIs(t, err, database.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_ListByLink(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContentRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT id, user_friend_event_id, topic, content, created_at").
		WithArgs("l1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_friend_event_id", "topic", "content", "created_at"}).
			AddRow("c1", "l1", "career", "new job", now))

	blocks, err := repo.ListByLink(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "career", blocks[0].Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_ListByLinks_EmptyInput(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContentRepository(mock)

	blocks, err := repo.ListByLinks(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, blocks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
