package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/push"
)

func newDispatcherFixture(t *testing.T, sender *fakeSender) (*NotificationDispatcher, *memNotificationRepository, *memDeviceRepository) {
	t.Helper()
	notifications := newMemNotificationRepository()
	devices := newMemDeviceRepository()
	dispatcher := NewNotificationDispatcher(notifications, devices, sender, testLogger())
	return dispatcher, notifications, devices
}

func registerDevice(t *testing.T, devices *memDeviceRepository, userID uint, token string) {
	t.Helper()
	require.NoError(t, devices.RegisterDevice(&models.Device{UserID: userID, PushToken: token, Platform: "android"}))
}

func likeInput() NotifyInput {
	return NotifyInput{
		RecipientID: 2,
		ActorID:     1,
		Type:        "like",
		EntityType:  "post",
		EntityID:    "64a1f0c2e4b0a1b2c3d4e5f6",
		Message:     "Alice liked your post",
	}
}

func TestGenerateDedupeKey(t *testing.T) {
	assert.Equal(t, "like:64a1:7:9", GenerateDedupeKey("like", "64a1", 7, 9))
	assert.Equal(t, "follow:none:7:9", GenerateDedupeKey("follow", "", 7, 9))
	assert.Equal(t, "announcement:none:system:9", GenerateDedupeKey("announcement", "", 0, 9))

	// Same inputs, same key, every time.
	assert.Equal(t,
		GenerateDedupeKey("like", "64a1", 7, 9),
		GenerateDedupeKey("like", "64a1", 7, 9))
}

func TestNotifyRecordsAndSends(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, notifications, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")
	registerDevice(t, devices, 2, "token-b")

	dispatcher.Notify(context.Background(), likeInput())

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "like", rows[0].Type)
	assert.Equal(t, uint(1), rows[0].ActorID)
	assert.Equal(t, models.PushSent, rows[0].PushStatus)

	require.Equal(t, 1, sender.callCount())
	assert.Len(t, sender.call(0).tokens, 2)
	assert.Equal(t, "OpenCircle", sender.call(0).message.Title, "title falls back to the app name")
	assert.Equal(t, "Alice liked your post", sender.call(0).message.Body, "body falls back to the in-app message")
}

func TestNotifyDeduplicatesAndNeverRePushes(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, notifications, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")

	dispatcher.Notify(context.Background(), likeInput())
	dispatcher.Notify(context.Background(), likeInput())
	dispatcher.Notify(context.Background(), likeInput())

	assert.Len(t, notifications.all(), 1, "one row per dedupe key")
	assert.Equal(t, 1, sender.callCount(), "duplicates must not trigger another push")
}

func TestNotifySuppressesSelfNotification(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, notifications, _ := newDispatcherFixture(t, sender)

	in := likeInput()
	in.RecipientID = in.ActorID
	dispatcher.Notify(context.Background(), in)

	assert.Empty(t, notifications.all(), "self-notifications leave no record")
	assert.Zero(t, sender.callCount())
}

func TestNotifySystemActorReachesSelf(t *testing.T) {
	// ActorID 0 is the system; a system event whose recipient happens to be
	// anyone is never treated as a self-notification.
	sender := &fakeSender{}
	dispatcher, notifications, _ := newDispatcherFixture(t, sender)

	dispatcher.Notify(context.Background(), NotifyInput{
		RecipientID: 2,
		ActorID:     0,
		Type:        "announcement",
		Message:     "Welcome!",
	})

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "announcement:none:system:2", rows[0].DedupeKey)
}

func TestNotifySkipsWhenNoDevices(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, notifications, _ := newDispatcherFixture(t, sender)

	dispatcher.Notify(context.Background(), likeInput())

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.PushSkipped, rows[0].PushStatus)
	assert.Zero(t, sender.callCount())
}

func TestNotifySuppressPushFlag(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, notifications, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")

	in := likeInput()
	in.SuppressPush = true
	dispatcher.Notify(context.Background(), in)

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.PushSkipped, rows[0].PushStatus)
	assert.Zero(t, sender.callCount())
}

func TestNotifyMarksFailedOnTransportError(t *testing.T) {
	sender := &fakeSender{
		results: []push.Result{{Failed: 1}},
		errs:    []error{errors.New("gateway unreachable")},
	}
	dispatcher, notifications, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")

	dispatcher.Notify(context.Background(), likeInput())

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.PushFailed, rows[0].PushStatus, "the in-app row survives a failed push")
}

func TestNotifyPartialDeliveryCountsAsSent(t *testing.T) {
	sender := &fakeSender{results: []push.Result{{Sent: 1, Failed: 1}}}
	dispatcher, notifications, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")
	registerDevice(t, devices, 2, "token-b")

	dispatcher.Notify(context.Background(), likeInput())

	rows := notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.PushSent, rows[0].PushStatus)
}

func TestNotifyTombstonesInvalidTokens(t *testing.T) {
	sender := &fakeSender{results: []push.Result{
		{Sent: 1, Failed: 1, InvalidTokens: []string{"token-dead"}},
	}}
	dispatcher, _, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")
	registerDevice(t, devices, 2, "token-dead")

	dispatcher.Notify(context.Background(), likeInput())

	active, err := devices.ListActiveDevices(2, maxFanOutDevices)
	require.NoError(t, err)
	require.Len(t, active, 1, "the dead token is excluded from future fan-outs")
	assert.Equal(t, "token-a", active[0].PushToken)

	// A later event reaches only the surviving device.
	in := likeInput()
	in.EntityID = "64a1f0c2e4b0a1b2c3d4aaaa"
	dispatcher.Notify(context.Background(), in)

	require.Equal(t, 2, sender.callCount())
	assert.Equal(t, []string{"token-a"}, sender.call(1).tokens)
}

func TestNotifyFanOutIsBounded(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, _, devices := newDispatcherFixture(t, sender)
	for i := 0; i < maxFanOutDevices+5; i++ {
		registerDevice(t, devices, 2, "token-"+string(rune('a'+i)))
	}

	dispatcher.Notify(context.Background(), likeInput())

	require.Equal(t, 1, sender.callCount())
	assert.LessOrEqual(t, len(sender.call(0).tokens), maxFanOutDevices)
}

func TestNotifyUsesExplicitPushContent(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, _, devices := newDispatcherFixture(t, sender)
	registerDevice(t, devices, 2, "token-a")

	in := likeInput()
	in.PushTitle = "New like"
	in.PushBody = "Alice liked your photo"
	in.Data = map[string]string{"post_id": in.EntityID}
	dispatcher.Notify(context.Background(), in)

	require.Equal(t, 1, sender.callCount())
	assert.Equal(t, "New like", sender.call(0).message.Title)
	assert.Equal(t, "Alice liked your photo", sender.call(0).message.Body)
	assert.Equal(t, in.EntityID, sender.call(0).message.Data["post_id"])
}
