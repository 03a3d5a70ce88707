package repositories

import (
	"errors"
	"time"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// ErrConversationNotFound is returned when no conversation matches a lookup
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository defines the interface for conversation operations
type ConversationRepository interface {
	// CreateConversation inserts a conversation. A direct-key collision is
	// reported as an apperrors KindConflict error carrying the winner's ID.
	CreateConversation(conversation *models.Conversation) error
	GetByDirectKey(directKey string) (*models.Conversation, error)
	GetByID(id uint) (*models.Conversation, error)
	ListByUser(userID uint) ([]models.Conversation, error)
	TouchLastMessageAt(id uint, at time.Time) error
}

type postgresConversationRepository struct {
	db *gorm.DB
}

func NewPostgresConversationRepository(db *gorm.DB) ConversationRepository {
	return &postgresConversationRepository{db: db}
}

func (r *postgresConversationRepository) CreateConversation(conversation *models.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Conversation
			if lookupErr := r.db.Where("direct_key = ?", conversation.DirectKey).First(&existing).Error; lookupErr == nil {
				return apperrors.Conflict("conversation already exists", existing.ID)
			}
			return apperrors.Conflict("conversation already exists", 0)
		}
		return err
	}
	return nil
}

func (r *postgresConversationRepository) GetByDirectKey(directKey string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.Where("direct_key = ?", directKey).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *postgresConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *postgresConversationRepository) ListByUser(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Find(&conversations).Error
	return conversations, err
}

func (r *postgresConversationRepository) TouchLastMessageAt(id uint, at time.Time) error {
	return r.db.Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", &at).Error
}
