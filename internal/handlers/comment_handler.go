package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	dispatcher        *services.NotificationDispatcher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	dispatcher *services.NotificationDispatcher,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		dispatcher:        dispatcher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsForPost)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment to a post and notifies the post author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  currentUserID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.recountComments(c, postID)

	// Notify after the comment is durably stored; never fails this request.
	message := "Someone commented on your post"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		message = actor.Name + " commented on your post"
	}
	h.dispatcher.Notify(ctx, services.NotifyInput{
		RecipientID: post.AuthorID,
		ActorID:     currentUserID,
		Type:        "comment",
		EntityType:  "comment",
		EntityID:    strconv.FormatUint(uint64(comment.ID), 10),
		Message:     message,
		PushBody:    req.Content,
		Data:        map[string]string{"post_id": postID},
	})

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsForPost lists comments on a post with pagination
func (h *CommentHandler) GetCommentsForPost(c echo.Context) error {
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	comments, total, err := h.commentRepository.GetCommentsByPostID(postID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"comments": comments},
		"meta":    echo.Map{"totalItems": total, "currentPage": page, "itemsPerPage": limit},
	})
}

// DeleteComment removes a comment owned by the authenticated user
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	if err := h.commentRepository.DeleteComment(uint(commentID), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	h.recountComments(c, comment.PostID)

	return c.NoContent(http.StatusNoContent)
}

// recountComments refreshes the post's denormalized comment count from the
// comment table. Failures are ignored; the count is repaired by the next
// mutation on the same post.
func (h *CommentHandler) recountComments(c echo.Context, postID string) {
	count, err := h.commentRepository.CountByPostID(postID)
	if err != nil {
		return
	}
	_ = h.postRepository.SetCommentsCount(c.Request().Context(), postID, count)
}
