package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyRepository     repositories.StoryRepository
	userRepository      repositories.UserRepository
	conversationService *services.ConversationService
	messageRepository   repositories.MessageRepository
	dispatcher          *services.NotificationDispatcher
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(
	storyRepo repositories.StoryRepository,
	userRepo repositories.UserRepository,
	conversationService *services.ConversationService,
	messageRepo repositories.MessageRepository,
	dispatcher *services.NotificationDispatcher,
) *StoryHandler {
	return &StoryHandler{
		storyRepository:     storyRepo,
		userRepository:      userRepo,
		conversationService: conversationService,
		messageRepository:   messageRepo,
		dispatcher:          dispatcher,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.GET("/stories/:id", h.GetStory)
	g.GET("/users/:id/stories", h.GetUserStories)
	g.POST("/stories/:id/reply", h.ReplyToStory)
}

// CreateStory publishes a story that expires after 24 hours
func (h *StoryHandler) CreateStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	duration := req.Duration
	if duration == 0 {
		duration = 5
	}

	story := &models.Story{
		AuthorID: currentUserID,
		Items: []models.StoryItem{{
			ID:        uuid.NewString(),
			Type:      req.Type,
			URL:       req.MediaURL,
			Duration:  duration,
			CreatedAt: time.Now(),
		}},
	}
	if err := h.storyRepository.CreateStory(c.Request().Context(), story); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, story)
}

// GetStory retrieves a single story
func (h *StoryHandler) GetStory(c echo.Context) error {
	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, story)
}

// GetUserStories lists a user's non-expired stories
func (h *StoryHandler) GetUserStories(c echo.Context) error {
	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	stories, err := h.storyRepository.GetActiveStoriesByAuthorID(c.Request().Context(), uint(authorID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stories": stories}})
}

// ReplyToStory sends a reply as a direct message to the story owner and
// notifies them
func (h *StoryHandler) ReplyToStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	storyID := c.Param("id")
	ctx := c.Request().Context()

	var req models.StoryReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	story, err := h.storyRepository.GetStoryByID(ctx, storyID)
	if err != nil {
		return httpError(err)
	}

	// Story replies land in the direct conversation with the story owner.
	conversation, _, err := h.conversationService.ResolveDirect(currentUserID, story.AuthorID)
	if err != nil {
		return httpError(err)
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       currentUserID,
		Content:        req.Content,
	}
	if err := h.messageRepository.CreateMessage(message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	notifMessage := "Someone replied to your story"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		notifMessage = actor.Name + " replied to your story"
	}
	h.dispatcher.Notify(ctx, services.NotifyInput{
		RecipientID:    story.AuthorID,
		ActorID:        currentUserID,
		Type:           "story_reply",
		EntityType:     "story",
		EntityID:       storyID,
		ConversationID: conversation.ID,
		Message:        notifMessage,
		PushBody:       req.Content,
		Data:           map[string]string{"story_id": storyID},
	})

	return c.JSON(http.StatusCreated, message)
}
