package models

import "time"

// ConversationDirect is the only conversation type this backend stores.
const ConversationDirect = "direct"

// Conversation is a message thread. For direct conversations, DirectKey is
// the canonical "direct:<min>:<max>" key over the two participant IDs; its
// unique index guarantees one conversation per unordered pair.
type Conversation struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Type          string     `json:"type" gorm:"size:10"`
	DirectKey     string     `json:"direct_key" gorm:"size:64;uniqueIndex"`
	UserAID       uint       `json:"user_a_id" gorm:"index"` // lower participant ID
	UserBID       uint       `json:"user_b_id" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// HasParticipant reports whether userID is part of the conversation.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// ResolveDirectRequest defines the request body for resolving a direct conversation
type ResolveDirectRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}
