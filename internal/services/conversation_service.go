package services

import (
	"errors"
	"fmt"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// ConversationService resolves direct conversations between user pairs.
type ConversationService struct {
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
}

// NewConversationService creates a ConversationService.
func NewConversationService(conversations repositories.ConversationRepository, users repositories.UserRepository) *ConversationService {
	return &ConversationService{conversations: conversations, users: users}
}

// DirectKey derives the canonical key for the unordered pair (a, b). The key
// is what the uniqueness constraint is declared over, so re-derivation from
// the same pair must always produce the same string.
func DirectKey(a, b uint) string {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("direct:%d:%d", lo, hi)
}

// ResolveDirect returns the single direct conversation for the pair,
// creating it when absent. A creation race is resolved by re-reading the
// winner's record; the caller never sees the conflict.
func (s *ConversationService) ResolveDirect(userA, userB uint) (*models.Conversation, bool, error) {
	if userA == userB {
		return nil, false, apperrors.New(apperrors.KindInvalidRequest, "cannot start a conversation with yourself")
	}
	for _, id := range []uint{userA, userB} {
		if _, err := s.users.GetUserByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, apperrors.New(apperrors.KindNotFound, "user not found")
			}
			return nil, false, err
		}
	}

	key := DirectKey(userA, userB)

	existing, err := s.conversations.GetByDirectKey(key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrConversationNotFound) {
		return nil, false, err
	}

	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	conversation := &models.Conversation{
		Type:      models.ConversationDirect,
		DirectKey: key,
		UserAID:   lo,
		UserBID:   hi,
	}
	if err := s.conversations.CreateConversation(conversation); err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			winner, lookupErr := s.conversations.GetByDirectKey(key)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return conversation, true, nil
}
