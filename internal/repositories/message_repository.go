package repositories

import (
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message operations
type MessageRepository interface {
	CreateMessage(message *models.Message) error
	GetByConversationID(conversationID uint, page, limit int) ([]models.Message, int64, error)
}

type postgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *postgresMessageRepository) GetByConversationID(conversationID uint, page, limit int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	r.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error

	return messages, total, err
}
