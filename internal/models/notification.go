package models

import "time"

// PushStatus is the one-shot delivery state of a notification's push leg.
// It only ever advances from pending; it is never reverted.
type PushStatus string

const (
	PushPending PushStatus = "pending"
	PushSent    PushStatus = "sent"
	PushFailed  PushStatus = "failed"
	PushSkipped PushStatus = "skipped"
)

// Notification represents a user notification (PostgreSQL). The unique index
// on DedupeKey collapses logically identical events into a single row.
type Notification struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Type           string     `json:"type" gorm:"size:30;index"` // like, comment, follow, message, story_reply
	ActorID        uint       `json:"actor_id" gorm:"index"`     // 0 means a system notification
	RecipientID    uint       `json:"recipient_id" gorm:"index"`
	EntityType     string     `json:"entity_type" gorm:"size:20"` // post, comment, user, story, message
	EntityID       string     `json:"entity_id"`
	ConversationID uint       `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
	DedupeKey      string     `json:"-" gorm:"size:150;uniqueIndex"`
	PushStatus     PushStatus `json:"push_status" gorm:"size:10;default:'pending'"`
	ReadAt         *time.Time `json:"read_at,omitempty" gorm:"index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
}
