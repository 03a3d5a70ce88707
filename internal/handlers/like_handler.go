package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	relationService    *services.RelationService
	relationRepository repositories.RelationRepository
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
	dispatcher         *services.NotificationDispatcher
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	relationService *services.RelationService,
	relationRepo repositories.RelationRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	dispatcher *services.NotificationDispatcher,
) *LikeHandler {
	return &LikeHandler{
		relationService:    relationService,
		relationRepository: relationRepo,
		postRepository:     postRepo,
		userRepository:     userRepo,
		dispatcher:         dispatcher,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

// LikePost handles liking a post; repeating the call is a no-op
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	res, err := h.relationService.Toggle(ctx, currentUserID, postID, models.RelationLike, services.StateActive)
	if err != nil {
		return httpError(err)
	}
	if !res.Changed {
		return c.JSON(http.StatusOK, echo.Map{"liked": true, "message": "Already liked"})
	}

	// Notify the post author. Runs after the like is durably stored; its
	// failures never affect this response.
	if post, err := h.postRepository.GetPostByID(ctx, postID); err == nil {
		message := "Someone liked your post"
		if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
			message = actor.Name + " liked your post"
		}
		h.dispatcher.Notify(ctx, services.NotifyInput{
			RecipientID: post.AuthorID,
			ActorID:     currentUserID,
			Type:        "like",
			EntityType:  "post",
			EntityID:    postID,
			Message:     message,
			Data:        map[string]string{"post_id": postID},
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"liked": true})
}

// UnlikePost handles unliking a post; repeating the call is a no-op
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, postID, models.RelationLike, services.StateInactive)
	if err != nil {
		return httpError(err)
	}
	if !res.Changed {
		return c.JSON(http.StatusOK, echo.Map{"liked": false, "message": "Not liked"})
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": false})
}

// GetLikesCountForPost retrieves the total number of likes for a specific post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID := c.Param("post_id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}

	count, err := h.relationRepository.CountByObject(postID, models.RelationLike)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "likes_count": count})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}

	hasLiked, err := h.relationService.IsActive(currentUserID, postID, models.RelationLike)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "user_id": currentUserID, "has_liked": hasLiked})
}
