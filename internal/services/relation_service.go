package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// ToggleState is the desired (and resulting) end state of a relation toggle.
type ToggleState string

const (
	StateActive   ToggleState = "active"
	StateInactive ToggleState = "inactive"
)

// ToggleResult reports the converged state and whether this call changed it.
type ToggleResult struct {
	State   ToggleState `json:"state"`
	Changed bool        `json:"changed"`
}

// RelationService implements the idempotent relation toggle shared by likes,
// bookmarks, follows and blocks. Repeating a toggle with the same desired
// state converges without error; races on creation are resolved by the
// store's uniqueness constraint and absorbed here.
type RelationService struct {
	relations repositories.RelationRepository
	users     repositories.UserRepository
	posts     repositories.PostRepository
	logger    *slog.Logger
}

// NewRelationService creates a RelationService.
func NewRelationService(
	relations repositories.RelationRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
	logger *slog.Logger,
) *RelationService {
	return &RelationService{
		relations: relations,
		users:     users,
		posts:     posts,
		logger:    logger.With("component", "RelationService"),
	}
}

// Toggle drives the relation for (subjectID, objectID, relType) to the
// desired state. Validation failures surface before any store write; a
// concurrent duplicate creation is reported as Changed=false, identical to
// "already existed".
func (s *RelationService) Toggle(ctx context.Context, subjectID uint, objectID string, relType models.RelationType, desired ToggleState) (ToggleResult, error) {
	if subjectID == 0 {
		return ToggleResult{}, apperrors.New(apperrors.KindUnauthorized, "user not authenticated")
	}
	if err := s.checkObject(ctx, subjectID, objectID, relType); err != nil {
		return ToggleResult{}, err
	}

	if desired == StateActive {
		return s.activate(ctx, subjectID, objectID, relType)
	}
	return s.deactivate(ctx, subjectID, objectID, relType)
}

// IsActive reports whether the relation currently exists.
func (s *RelationService) IsActive(subjectID uint, objectID string, relType models.RelationType) (bool, error) {
	return s.relations.Exists(subjectID, objectID, relType)
}

func (s *RelationService) activate(ctx context.Context, subjectID uint, objectID string, relType models.RelationType) (ToggleResult, error) {
	exists, err := s.relations.Exists(subjectID, objectID, relType)
	if err != nil {
		return ToggleResult{}, err
	}
	if exists {
		return ToggleResult{State: StateActive, Changed: false}, nil
	}

	rel := &models.Relation{
		SubjectID:    subjectID,
		ObjectID:     objectID,
		RelationType: relType,
	}
	if err := s.relations.CreateRelation(rel); err != nil {
		// A concurrent identical toggle won the insert; converged all the same.
		if apperrors.IsKind(err, apperrors.KindConflict) {
			return ToggleResult{State: StateActive, Changed: false}, nil
		}
		return ToggleResult{}, err
	}

	s.applySideEffects(ctx, subjectID, objectID, relType, true)
	return ToggleResult{State: StateActive, Changed: true}, nil
}

func (s *RelationService) deactivate(ctx context.Context, subjectID uint, objectID string, relType models.RelationType) (ToggleResult, error) {
	deleted, err := s.relations.DeleteRelation(subjectID, objectID, relType)
	if err != nil {
		return ToggleResult{}, err
	}
	if !deleted {
		return ToggleResult{State: StateInactive, Changed: false}, nil
	}

	s.applySideEffects(ctx, subjectID, objectID, relType, false)
	return ToggleResult{State: StateInactive, Changed: true}, nil
}

// checkObject verifies the toggle target exists and rejects self-referential
// follows and blocks before any store mutation.
func (s *RelationService) checkObject(ctx context.Context, subjectID uint, objectID string, relType models.RelationType) error {
	switch relType {
	case models.RelationLike, models.RelationBookmark:
		_, err := s.posts.GetPostByID(ctx, objectID)
		return err
	case models.RelationFollow, models.RelationBlock:
		targetID, err := parseUserID(objectID)
		if err != nil {
			return err
		}
		if targetID == subjectID {
			return apperrors.New(apperrors.KindInvalidRequest, "cannot "+string(relType)+" yourself")
		}
		if _, err := s.users.GetUserByID(targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "user not found")
			}
			return err
		}
		return nil
	default:
		return apperrors.New(apperrors.KindInvalidRequest, "unknown relation type")
	}
}

// applySideEffects maintains the denormalized counters and the reciprocal
// cleanup a block triggers. Counters are always recomputed from the relation
// collection, never blindly incremented. Every failure here is logged and
// swallowed; the toggle itself has already succeeded.
func (s *RelationService) applySideEffects(ctx context.Context, subjectID uint, objectID string, relType models.RelationType, activated bool) {
	switch relType {
	case models.RelationLike:
		s.recountPostLikes(ctx, objectID)
	case models.RelationFollow:
		targetID, err := parseUserID(objectID)
		if err != nil {
			return
		}
		s.recountFollow(subjectID, targetID)
	case models.RelationBlock:
		if activated {
			s.reciprocalUnfollow(subjectID, objectID)
		}
	}
}

func (s *RelationService) recountPostLikes(ctx context.Context, postID string) {
	count, err := s.relations.CountByObject(postID, models.RelationLike)
	if err != nil {
		s.logger.Error("like recount failed", "post_id", postID, "err", err)
		return
	}
	if err := s.posts.SetLikesCount(ctx, postID, count); err != nil {
		s.logger.Error("like count update failed", "post_id", postID, "err", err)
	}
}

func (s *RelationService) recountFollow(followerID, followeeID uint) {
	followers, err := s.relations.CountByObject(formatUserID(followeeID), models.RelationFollow)
	if err != nil {
		s.logger.Error("follower recount failed", "user_id", followeeID, "err", err)
	} else if err := s.users.SetFollowerCount(followeeID, followers); err != nil {
		s.logger.Error("follower count update failed", "user_id", followeeID, "err", err)
	}

	following, err := s.relations.CountBySubject(followerID, models.RelationFollow)
	if err != nil {
		s.logger.Error("following recount failed", "user_id", followerID, "err", err)
	} else if err := s.users.SetFollowingCount(followerID, following); err != nil {
		s.logger.Error("following count update failed", "user_id", followerID, "err", err)
	}
}

// reciprocalUnfollow removes the follow edges in both directions after a
// block. Best effort only: the block has already landed.
func (s *RelationService) reciprocalUnfollow(blockerID uint, blockedObjectID string) {
	blockedID, err := parseUserID(blockedObjectID)
	if err != nil {
		return
	}

	if _, err := s.relations.DeleteRelation(blockerID, blockedObjectID, models.RelationFollow); err != nil {
		s.logger.Error("reciprocal unfollow failed", "follower", blockerID, "followee", blockedID, "err", err)
	}
	if _, err := s.relations.DeleteRelation(blockedID, formatUserID(blockerID), models.RelationFollow); err != nil {
		s.logger.Error("reciprocal unfollow failed", "follower", blockedID, "followee", blockerID, "err", err)
	}
	s.recountFollow(blockerID, blockedID)
	s.recountFollow(blockedID, blockerID)
}

func parseUserID(objectID string) (uint, error) {
	id, err := strconv.ParseUint(objectID, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "invalid user ID")
	}
	return uint(id), nil
}

func formatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
