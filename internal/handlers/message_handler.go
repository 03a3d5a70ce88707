package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// MessageHandler handles direct-conversation and message HTTP requests
type MessageHandler struct {
	conversationService    *services.ConversationService
	conversationRepository repositories.ConversationRepository
	messageRepository      repositories.MessageRepository
	userRepository         repositories.UserRepository
	dispatcher             *services.NotificationDispatcher
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	conversationService *services.ConversationService,
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	dispatcher *services.NotificationDispatcher,
) *MessageHandler {
	return &MessageHandler{
		conversationService:    conversationService,
		conversationRepository: conversationRepo,
		messageRepository:      messageRepo,
		userRepository:         userRepo,
		dispatcher:             dispatcher,
	}
}

// RegisterMessageRoutes registers conversation and message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/conversations/direct", h.ResolveDirectConversation)
	g.GET("/conversations", h.GetConversations)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.GET("/conversations/:id/messages", h.GetMessages)
}

// ResolveDirectConversation returns the single direct conversation with the
// requested user, creating it on first contact
func (h *MessageHandler) ResolveDirectConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ResolveDirectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conversation, created, err := h.conversationService.ResolveDirect(currentUserID, req.UserID)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"success": true, "data": echo.Map{"conversation": conversation, "created": created}})
}

// GetConversations lists the authenticated user's conversations
func (h *MessageHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversations, err := h.conversationRepository.ListByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"conversations": conversations}})
}

// SendMessage appends a message to a conversation and notifies the other
// participant
func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req models.CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conversation, err := h.conversationRepository.GetByID(uint(conversationID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if !conversation.HasParticipant(currentUserID) {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       currentUserID,
		Content:        req.Content,
	}
	if err := h.messageRepository.CreateMessage(message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	_ = h.conversationRepository.TouchLastMessageAt(conversation.ID, time.Now())

	// Notify after the message is durably stored; never fails this request.
	notifMessage := "New message"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		notifMessage = "New message from " + actor.Name
	}
	h.dispatcher.Notify(c.Request().Context(), services.NotifyInput{
		RecipientID:    conversation.OtherParticipant(currentUserID),
		ActorID:        currentUserID,
		Type:           "message",
		EntityType:     "message",
		EntityID:       strconv.FormatUint(uint64(message.ID), 10),
		ConversationID: conversation.ID,
		Message:        notifMessage,
		PushBody:       req.Content,
		Data:           map[string]string{"conversation_id": strconv.FormatUint(uint64(conversation.ID), 10)},
	})

	return c.JSON(http.StatusCreated, message)
}

// GetMessages lists a conversation's messages with pagination
func (h *MessageHandler) GetMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	conversation, err := h.conversationRepository.GetByID(uint(conversationID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if !conversation.HasParticipant(currentUserID) {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, total, err := h.messageRepository.GetByConversationID(conversation.ID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"messages": messages},
		"meta":    echo.Map{"totalItems": total, "currentPage": page, "itemsPerPage": limit},
	})
}
