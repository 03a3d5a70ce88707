package models

import "time"

// Message is a single message inside a conversation
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"index"`
	SenderID       uint      `json:"sender_id" gorm:"index"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// CreateMessageRequest defines the request body for sending a message
type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
