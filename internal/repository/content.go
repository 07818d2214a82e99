package repository

import (
	"context"
	"fmt"
	"strings"

	"recall-backend/internal/database"
	"recall-backend/internal/models"
)

// ContentRepository handles database operations for content blocks
type ContentRepository struct {
	db database.Querier
}

// NewContentRepository creates a new content repository
func NewContentRepository(db database.Querier) *ContentRepository {
	return &ContentRepository{db: db}
}

// BulkCreate inserts all blocks in a single statement and returns the
// created rows. All-or-nothing: one statement, so a failure creates nothing.
func (r *ContentRepository) BulkCreate(ctx context.Context, blocks []*models.ContentBlock) ([]*models.ContentBlock, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no blocks to create: %w", database.ErrInvalidInput)
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO content_blocks (id, user_friend_event_id, topic, content, created_at)
		VALUES `)
	args := make([]any, 0, len(blocks)*5)
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, b.ID, b.UserFriendEventID, b.Topic, b.Content, b.CreatedAt)
	}
	sb.WriteString(`
		RETURNING id, user_friend_event_id, topic, content, created_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk create content: %w", err)
	}
	defer rows.Close()

	var created []*models.ContentBlock
	for rows.Next() {
		var b models.ContentBlock
		if err := rows.Scan(&b.ID, &b.UserFriendEventID, &b.Topic, &b.Content, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content block: %w", err)
		}
		created = append(created, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read created content: %w", err)
	}
	return created, nil
}

// ListByLink retrieves all content blocks under one link
func (r *ContentRepository) ListByLink(ctx context.Context, linkID string) ([]*models.ContentBlock, error) {
	query := `
		SELECT id, user_friend_event_id, topic, content, created_at
		FROM content_blocks
		WHERE user_friend_event_id = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, linkID)
}

// ListByLinks retrieves all content blocks under any of the given links
func (r *ContentRepository) ListByLinks(ctx context.Context, linkIDs []string) ([]*models.ContentBlock, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, user_friend_event_id, topic, content, created_at
		FROM content_blocks
		WHERE user_friend_event_id = ANY($1)
		ORDER BY created_at
	`
	return r.list(ctx, query, linkIDs)
}

func (r *ContentRepository) list(ctx context.Context, query string, args ...any) ([]*models.ContentBlock, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	var blocks []*models.ContentBlock
	for rows.Next() {
		var b models.ContentBlock
		if err := rows.Scan(&b.ID, &b.UserFriendEventID, &b.Topic, &b.Content, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content block: %w", err)
		}
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return blocks, nil
}
