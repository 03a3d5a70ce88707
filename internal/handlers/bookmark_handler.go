package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// BookmarkHandler handles bookmark (saved post) HTTP requests
type BookmarkHandler struct {
	relationService    *services.RelationService
	relationRepository repositories.RelationRepository
	postRepository     repositories.PostRepository
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(
	relationService *services.RelationService,
	relationRepo repositories.RelationRepository,
	postRepo repositories.PostRepository,
) *BookmarkHandler {
	return &BookmarkHandler{
		relationService:    relationService,
		relationRepository: relationRepo,
		postRepository:     postRepo,
	}
}

// RegisterBookmarkRoutes registers bookmark routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
	g.GET("/bookmarks", h.GetBookmarkedPosts)
}

// SavePost bookmarks a post; repeating the call is a no-op
func (h *BookmarkHandler) SavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, postID, models.RelationBookmark, services.StateActive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": true, "changed": res.Changed}})
}

// UnsavePost removes a post from bookmarks; repeating the call is a no-op
func (h *BookmarkHandler) UnsavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, postID, models.RelationBookmark, services.StateInactive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false, "changed": res.Changed}})
}

// GetBookmarkedPosts lists the authenticated user's saved posts
func (h *BookmarkHandler) GetBookmarkedPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postIDs, err := h.relationRepository.ListObjectIDs(currentUserID, models.RelationBookmark)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	posts := make([]models.Post, 0, len(postIDs))
	for _, id := range postIDs {
		post, err := h.postRepository.GetPostByID(ctx, id)
		if err != nil {
			continue // bookmarked post since deleted
		}
		posts = append(posts, *post)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}
