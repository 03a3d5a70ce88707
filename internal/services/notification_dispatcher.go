package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/push"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
)

const (
	// maxFanOutDevices bounds the number of device registrations included in
	// a single fan-out.
	maxFanOutDevices = 10

	// pushTimeout caps the push gateway call so a slow gateway cannot stall
	// the triggering request.
	pushTimeout = 5 * time.Second
)

// NotifyInput describes one notification event. ActorID 0 means the system
// is the actor.
type NotifyInput struct {
	RecipientID    uint
	ActorID        uint
	Type           string
	EntityType     string
	EntityID       string
	ConversationID uint
	Message        string
	PushTitle      string
	PushBody       string
	Data           map[string]string
	SuppressPush   bool
}

// GenerateDedupeKey derives the stable string identifying an event's semantic
// identity. Identical inputs always produce an identical key, across calls
// and process restarts.
func GenerateDedupeKey(notifType, entityID string, actorID, recipientID uint) string {
	entity := entityID
	if entity == "" {
		entity = "none"
	}
	actor := "system"
	if actorID != 0 {
		actor = strconv.FormatUint(uint64(actorID), 10)
	}
	return notifType + ":" + entity + ":" + actor + ":" + strconv.FormatUint(uint64(recipientID), 10)
}

// NotificationDispatcher writes in-app notification rows at-most-once per
// dedupe key, then best-effort fans a push message out to the recipient's
// registered devices. Nothing here ever fails the triggering action: every
// error ends in a log line and, where applicable, a degraded push status.
type NotificationDispatcher struct {
	notifications repositories.NotificationRepository
	devices       repositories.DeviceRepository
	sender        push.Sender
	logger        *slog.Logger
}

// NewNotificationDispatcher creates a NotificationDispatcher.
func NewNotificationDispatcher(
	notifications repositories.NotificationRepository,
	devices repositories.DeviceRepository,
	sender push.Sender,
	logger *slog.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notifications: notifications,
		devices:       devices,
		sender:        sender,
		logger:        logger.With("component", "NotificationDispatcher"),
	}
}

// Notify records the event and triggers the push fan-out. Fire-and-forget:
// it returns nothing and must be called only after the triggering action's
// own data is durably committed.
func (d *NotificationDispatcher) Notify(ctx context.Context, in NotifyInput) {
	// Self-notifications are silently suppressed.
	if in.ActorID != 0 && in.ActorID == in.RecipientID {
		return
	}

	notification := &models.Notification{
		Type:           in.Type,
		ActorID:        in.ActorID,
		RecipientID:    in.RecipientID,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		ConversationID: in.ConversationID,
		Message:        in.Message,
		DedupeKey:      GenerateDedupeKey(in.Type, in.EntityID, in.ActorID, in.RecipientID),
		PushStatus:     models.PushPending,
	}

	if err := d.notifications.CreateNotification(notification); err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			// Logically identical event already recorded; do not re-push.
			d.logger.Debug("notification deduplicated",
				"dedupe_key", notification.DedupeKey,
				"existing_id", apperrors.ExistingID(err))
			return
		}
		d.logger.Error("notification create failed",
			"dedupe_key", notification.DedupeKey, "err", err)
		return
	}

	if in.SuppressPush {
		d.settlePushStatus(notification.ID, models.PushSkipped)
		return
	}
	d.fanOut(ctx, notification, in)
}

func (d *NotificationDispatcher) fanOut(ctx context.Context, notification *models.Notification, in NotifyInput) {
	devices, err := d.devices.ListActiveDevices(notification.RecipientID, maxFanOutDevices)
	if err != nil {
		d.logger.Error("device lookup failed", "recipient", notification.RecipientID, "err", err)
		d.settlePushStatus(notification.ID, models.PushFailed)
		return
	}
	if len(devices) == 0 {
		d.settlePushStatus(notification.ID, models.PushSkipped)
		return
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.PushToken)
	}

	title := in.PushTitle
	if title == "" {
		title = "OpenCircle"
	}
	body := in.PushBody
	if body == "" {
		body = in.Message
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	result, err := d.sender.Send(pushCtx, tokens, push.Message{Title: title, Body: body, Data: in.Data})
	if err != nil {
		d.logger.Warn("push gateway degraded",
			"recipient", notification.RecipientID, "devices", len(tokens), "err", err)
	}

	for _, token := range result.InvalidTokens {
		if derr := d.devices.DisableDevice(notification.RecipientID, token); derr != nil {
			d.logger.Error("device tombstone failed", "recipient", notification.RecipientID, "err", derr)
		}
	}

	status := models.PushFailed
	switch {
	case result.Sent > 0:
		status = models.PushSent
	case result.Sent == 0 && result.Failed == 0:
		// Gateway reported zero reachable devices.
		status = models.PushSkipped
	}
	d.settlePushStatus(notification.ID, status)
}

// settlePushStatus advances the one-shot push status. Best effort: a failed
// update leaves the row pending, an accepted degraded state since the in-app
// record is already visible to the recipient.
func (d *NotificationDispatcher) settlePushStatus(notificationID uint, status models.PushStatus) {
	if err := d.notifications.UpdatePushStatus(notificationID, status); err != nil {
		d.logger.Error("push status update failed",
			"notification_id", notificationID, "status", status, "err", err)
	}
}
