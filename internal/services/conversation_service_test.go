package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
)

func newConversationFixture(t *testing.T) (*ConversationService, *memConversationRepository) {
	t.Helper()
	conversations := newMemConversationRepository()
	users := newMemUserRepository(
		&models.User{ID: 3, Name: "Alice"},
		&models.User{ID: 7, Name: "Bob"},
	)
	return NewConversationService(conversations, users), conversations
}

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "direct:3:7", DirectKey(3, 7))
	assert.Equal(t, "direct:3:7", DirectKey(7, 3))
	assert.Equal(t, "direct:5:5", DirectKey(5, 5))
}

func TestResolveDirectCreatesOnce(t *testing.T) {
	service, _ := newConversationFixture(t)

	first, created, err := service.ResolveDirect(3, 7)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "direct:3:7", first.DirectKey)
	assert.Equal(t, uint(3), first.UserAID)
	assert.Equal(t, uint(7), first.UserBID)

	second, created, err := service.ResolveDirect(3, 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveDirectIsSymmetric(t *testing.T) {
	service, _ := newConversationFixture(t)

	forward, created, err := service.ResolveDirect(3, 7)
	require.NoError(t, err)
	assert.True(t, created)

	reverse, created, err := service.ResolveDirect(7, 3)
	require.NoError(t, err)
	assert.False(t, created, "the reversed pair must resolve to the existing conversation")
	assert.Equal(t, forward.ID, reverse.ID)
}

func TestResolveDirectRejectsSelf(t *testing.T) {
	service, _ := newConversationFixture(t)

	_, _, err := service.ResolveDirect(3, 3)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidRequest))
}

func TestResolveDirectRejectsUnknownUser(t *testing.T) {
	service, _ := newConversationFixture(t)

	_, _, err := service.ResolveDirect(3, 42)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestResolveDirectConcurrentCallsShareOneConversation(t *testing.T) {
	service, conversations := newConversationFixture(t)

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	ids := make([]uint, goroutines)
	createdFlags := make([]bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := uint(3), uint(7)
			if i%2 == 1 {
				a, b = b, a
			}
			conversation, created, err := service.ResolveDirect(a, b)
			errs[i] = err
			createdFlags[i] = created
			if conversation != nil {
				ids[i] = conversation.ID
			}
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i], "no caller may observe the direct-key race")
		assert.Equal(t, ids[0], ids[i], "every caller resolves to the same conversation")
		if createdFlags[i] {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount, "exactly one caller created the conversation")

	winner, err := conversations.GetByDirectKey("direct:3:7")
	require.NoError(t, err)
	assert.Equal(t, ids[0], winner.ID)
}
