package models

import "time"

// Friend represents a person the user captures memories about
type Friend struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// FriendWithStats is a Friend plus stats derived from the link table.
// EventCount and LastEventDate are computed at read time, never stored.
type FriendWithStats struct {
	Friend
	EventCount    int        `json:"event_count"`
	LastEventDate *time.Time `json:"last_event_date,omitempty"`
}

// Event represents an occasion shared with one or more friends
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFriendEvent is the three-way join that all content attaches to.
// At most one link exists per (user, friend, event) triple.
type UserFriendEvent struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
	EventID  string `json:"event_id"`
}

// TopicPair is one topic+note pair, either fresh from transcription
// or edited by the user during review
type TopicPair struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// ContentBlock is a persisted topic+note pair under a link
type ContentBlock struct {
	ID                string    `json:"id"`
	UserFriendEventID string    `json:"user_friend_event_id"`
	Topic             string    `json:"topic"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
}

// QuizQuestion is a generated multiple-choice question. Immutable once received.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Topic         string   `json:"topic"`
	Explanation   string   `json:"explanation"`
}
