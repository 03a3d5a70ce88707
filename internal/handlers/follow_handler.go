package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	relationService    *services.RelationService
	relationRepository repositories.RelationRepository
	userRepository     repositories.UserRepository
	dispatcher         *services.NotificationDispatcher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	relationService *services.RelationService,
	relationRepo repositories.RelationRepository,
	userRepo repositories.UserRepository,
	dispatcher *services.NotificationDispatcher,
) *FollowHandler {
	return &FollowHandler{
		relationService:    relationService,
		relationRepository: relationRepo,
		userRepository:     userRepo,
		dispatcher:         dispatcher,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user; repeating the call is a no-op
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, targetID, models.RelationFollow, services.StateActive)
	if err != nil {
		return httpError(err)
	}

	if res.Changed {
		recipientID, _ := strconv.ParseUint(targetID, 10, 32)
		message := "Someone started following you"
		if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
			message = actor.Name + " started following you"
		}
		h.dispatcher.Notify(c.Request().Context(), services.NotifyInput{
			RecipientID: uint(recipientID),
			ActorID:     currentUserID,
			Type:        "follow",
			EntityType:  "user",
			Message:     message,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true, "changed": res.Changed}})
}

// UnfollowUser unfollows a user; repeating the call is a no-op
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, targetID, models.RelationFollow, services.StateInactive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false, "changed": res.Changed}})
}

// GetFollowers lists the users following :id
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	targetID := c.Param("id")

	followerIDs, err := h.relationRepository.ListSubjectIDs(targetID, models.RelationFollow)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": h.compactUsers(followerIDs)}})
}

// GetFollowing lists the users :id follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	objectIDs, err := h.relationRepository.ListObjectIDs(uint(id), models.RelationFollow)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	followeeIDs := make([]uint, 0, len(objectIDs))
	for _, objectID := range objectIDs {
		followeeID, err := strconv.ParseUint(objectID, 10, 32)
		if err != nil {
			continue
		}
		followeeIDs = append(followeeIDs, uint(followeeID))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": h.compactUsers(followeeIDs)}})
}

func (h *FollowHandler) compactUsers(ids []uint) []models.UserCompact {
	users := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		user, err := h.userRepository.GetUserByID(id)
		if err != nil {
			continue
		}
		users = append(users, user.ToCompact())
	}
	return users
}
