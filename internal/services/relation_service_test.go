package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
)

const testPostID = "64a1f0c2e4b0a1b2c3d4e5f6"

func newRelationFixture(t *testing.T) (*RelationService, *memRelationRepository, *memUserRepository, *memPostRepository) {
	t.Helper()
	relations := newMemRelationRepository()
	users := newMemUserRepository(
		&models.User{ID: 1, Name: "Alice"},
		&models.User{ID: 2, Name: "Bob"},
	)
	posts := newMemPostRepository()
	posts.addPost(testPostID, &models.Post{AuthorID: 2})
	service := NewRelationService(relations, users, posts, testLogger())
	return service, relations, users, posts
}

func TestToggleLikeRoundTrip(t *testing.T) {
	service, _, _, posts := newRelationFixture(t)
	ctx := context.Background()

	res, err := service.Toggle(ctx, 1, testPostID, models.RelationLike, StateActive)
	require.NoError(t, err)
	assert.Equal(t, StateActive, res.State)
	assert.True(t, res.Changed)

	active, err := service.IsActive(1, testPostID, models.RelationLike)
	require.NoError(t, err)
	assert.True(t, active)

	post, err := posts.GetPostByID(ctx, testPostID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.LikesCount)

	res, err = service.Toggle(ctx, 1, testPostID, models.RelationLike, StateInactive)
	require.NoError(t, err)
	assert.Equal(t, StateInactive, res.State)
	assert.True(t, res.Changed)

	active, err = service.IsActive(1, testPostID, models.RelationLike)
	require.NoError(t, err)
	assert.False(t, active)

	post, err = posts.GetPostByID(ctx, testPostID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.LikesCount)
}

func TestToggleIsIdempotent(t *testing.T) {
	service, relations, _, _ := newRelationFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := service.Toggle(ctx, 1, testPostID, models.RelationLike, StateActive)
		require.NoError(t, err)
		assert.Equal(t, StateActive, res.State)
		assert.Equal(t, i == 0, res.Changed, "only the first call may report a change")
	}

	count, err := relations.CountByObject(testPostID, models.RelationLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	for i := 0; i < 5; i++ {
		res, err := service.Toggle(ctx, 1, testPostID, models.RelationLike, StateInactive)
		require.NoError(t, err)
		assert.Equal(t, StateInactive, res.State)
		assert.Equal(t, i == 0, res.Changed)
	}
}

func TestToggleConcurrentActivationConverges(t *testing.T) {
	service, relations, _, _ := newRelationFixture(t)
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	results := make([]ToggleResult, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Toggle(ctx, 1, testPostID, models.RelationLike, StateActive)
		}(i)
	}
	wg.Wait()

	changed := 0
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i], "no caller may observe the duplicate-key race")
		assert.Equal(t, StateActive, results[i].State)
		if results[i].Changed {
			changed++
		}
	}
	assert.LessOrEqual(t, changed, 1, "at most one caller performed the insert")

	count, err := relations.CountByObject(testPostID, models.RelationLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "exactly one relation row survives the race")
}

func TestToggleRejectsUnauthenticated(t *testing.T) {
	service, _, _, _ := newRelationFixture(t)

	_, err := service.Toggle(context.Background(), 0, testPostID, models.RelationLike, StateActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestToggleRejectsMissingPost(t *testing.T) {
	service, _, _, _ := newRelationFixture(t)

	_, err := service.Toggle(context.Background(), 1, "64a1f0c2e4b0a1b2c3d4ffff", models.RelationLike, StateActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestToggleRejectsSelfFollow(t *testing.T) {
	service, _, _, _ := newRelationFixture(t)

	_, err := service.Toggle(context.Background(), 1, "1", models.RelationFollow, StateActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidRequest))

	_, err = service.Toggle(context.Background(), 1, "1", models.RelationBlock, StateActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidRequest))
}

func TestToggleRejectsMissingUser(t *testing.T) {
	service, _, _, _ := newRelationFixture(t)

	_, err := service.Toggle(context.Background(), 1, "99", models.RelationFollow, StateActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestFollowMaintainsCounters(t *testing.T) {
	service, _, users, _ := newRelationFixture(t)
	ctx := context.Background()

	res, err := service.Toggle(ctx, 1, "2", models.RelationFollow, StateActive)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	bob, err := users.GetUserByID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bob.FollowersCount)

	alice, err := users.GetUserByID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.FollowingCount)

	_, err = service.Toggle(ctx, 1, "2", models.RelationFollow, StateInactive)
	require.NoError(t, err)

	bob, err = users.GetUserByID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bob.FollowersCount)
}

func TestBlockRemovesFollowsBothWays(t *testing.T) {
	service, relations, users, _ := newRelationFixture(t)
	ctx := context.Background()

	_, err := service.Toggle(ctx, 1, "2", models.RelationFollow, StateActive)
	require.NoError(t, err)
	_, err = service.Toggle(ctx, 2, "1", models.RelationFollow, StateActive)
	require.NoError(t, err)

	res, err := service.Toggle(ctx, 1, "2", models.RelationBlock, StateActive)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	following, err := relations.Exists(1, "2", models.RelationFollow)
	require.NoError(t, err)
	assert.False(t, following, "blocker no longer follows the blocked user")

	followedBack, err := relations.Exists(2, "1", models.RelationFollow)
	require.NoError(t, err)
	assert.False(t, followedBack, "blocked user no longer follows the blocker")

	alice, err := users.GetUserByID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.FollowersCount)
	assert.Equal(t, int64(0), alice.FollowingCount)
}

func TestUnblockDoesNotRestoreFollows(t *testing.T) {
	service, relations, _, _ := newRelationFixture(t)
	ctx := context.Background()

	_, err := service.Toggle(ctx, 1, "2", models.RelationFollow, StateActive)
	require.NoError(t, err)
	_, err = service.Toggle(ctx, 1, "2", models.RelationBlock, StateActive)
	require.NoError(t, err)

	res, err := service.Toggle(ctx, 1, "2", models.RelationBlock, StateInactive)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	following, err := relations.Exists(1, "2", models.RelationFollow)
	require.NoError(t, err)
	assert.False(t, following, "unblocking must not resurrect the follow edge")
}
