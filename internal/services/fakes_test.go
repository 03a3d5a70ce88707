package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/push"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type relationKey struct {
	subjectID uint
	objectID  string
	relType   models.RelationType
}

// memRelationRepository is an in-memory RelationRepository. The mutex plus
// map-key check reproduce the store's uniqueness constraint, so concurrent
// CreateRelation calls race exactly like real inserts do.
type memRelationRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   map[relationKey]uint
}

func newMemRelationRepository() *memRelationRepository {
	return &memRelationRepository{rows: make(map[relationKey]uint)}
}

func (r *memRelationRepository) CreateRelation(rel *models.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := relationKey{rel.SubjectID, rel.ObjectID, rel.RelationType}
	if id, ok := r.rows[key]; ok {
		return apperrors.Conflict("relation already exists", id)
	}
	r.nextID++
	rel.ID = r.nextID
	r.rows[key] = rel.ID
	return nil
}

func (r *memRelationRepository) DeleteRelation(subjectID uint, objectID string, relType models.RelationType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := relationKey{subjectID, objectID, relType}
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *memRelationRepository) Exists(subjectID uint, objectID string, relType models.RelationType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[relationKey{subjectID, objectID, relType}]
	return ok, nil
}

func (r *memRelationRepository) CountByObject(objectID string, relType models.RelationType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key := range r.rows {
		if key.objectID == objectID && key.relType == relType {
			count++
		}
	}
	return count, nil
}

func (r *memRelationRepository) CountBySubject(subjectID uint, relType models.RelationType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key := range r.rows {
		if key.subjectID == subjectID && key.relType == relType {
			count++
		}
	}
	return count, nil
}

func (r *memRelationRepository) ListObjectIDs(subjectID uint, relType models.RelationType) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for key := range r.rows {
		if key.subjectID == subjectID && key.relType == relType {
			ids = append(ids, key.objectID)
		}
	}
	return ids, nil
}

func (r *memRelationRepository) ListSubjectIDs(objectID string, relType models.RelationType) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for key := range r.rows {
		if key.objectID == objectID && key.relType == relType {
			ids = append(ids, key.subjectID)
		}
	}
	return ids, nil
}

type memUserRepository struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newMemUserRepository(users ...*models.User) *memUserRepository {
	r := &memUserRepository{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepository) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepository) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memUserRepository) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.FirebaseUID == firebaseUID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepository) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepository) DeleteUser(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepository) SearchUsers(query string) ([]models.User, error) {
	return nil, nil
}

func (r *memUserRepository) SetFollowerCount(userID uint, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.FollowersCount = count
	}
	return nil
}

func (r *memUserRepository) SetFollowingCount(userID uint, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.FollowingCount = count
	}
	return nil
}

type memPostRepository struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newMemPostRepository() *memPostRepository {
	return &memPostRepository{posts: make(map[string]*models.Post)}
}

func (r *memPostRepository) addPost(id string, post *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[id] = post
}

func (r *memPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return nil
}

func (r *memPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "post not found")
	}
	return post, nil
}

func (r *memPostRepository) GetPostsByAuthorID(ctx context.Context, authorID uint, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (r *memPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (r *memPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	return nil
}

func (r *memPostRepository) DeletePost(ctx context.Context, id string, authorID uint) error {
	return nil
}

func (r *memPostRepository) SetLikesCount(ctx context.Context, postID string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.LikesCount = count
	}
	return nil
}

func (r *memPostRepository) SetCommentsCount(ctx context.Context, postID string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.CommentsCount = count
	}
	return nil
}

// memNotificationRepository enforces dedupe-key uniqueness and one-shot push
// status transitions the way the real table's constraints do.
type memNotificationRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   []*models.Notification
	byKey  map[string]*models.Notification
}

func newMemNotificationRepository() *memNotificationRepository {
	return &memNotificationRepository{byKey: make(map[string]*models.Notification)}
}

func (r *memNotificationRepository) CreateNotification(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[notification.DedupeKey]; ok {
		return apperrors.Conflict("notification already recorded", existing.ID)
	}
	r.nextID++
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	r.rows = append(r.rows, notification)
	r.byKey[notification.DedupeKey] = notification
	return nil
}

func (r *memNotificationRepository) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.rows {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepository) MarkAsRead(recipientID, notificationID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, n := range r.rows {
		if n.ID == notificationID && n.RecipientID == recipientID && n.ReadAt == nil {
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *memNotificationRepository) MarkAllAsRead(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, n := range r.rows {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *memNotificationRepository) UpdatePushStatus(notificationID uint, status models.PushStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.ID == notificationID && n.PushStatus == models.PushPending {
			n.PushStatus = status
		}
	}
	return nil
}

func (r *memNotificationRepository) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.rows))
	for i, n := range r.rows {
		out[i] = *n
	}
	return out
}

type deviceKey struct {
	userID uint
	token  string
}

type memDeviceRepository struct {
	mu      sync.Mutex
	nextID  uint
	devices map[deviceKey]*models.Device
}

func newMemDeviceRepository() *memDeviceRepository {
	return &memDeviceRepository{devices: make(map[deviceKey]*models.Device)}
}

func (r *memDeviceRepository) RegisterDevice(device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := deviceKey{device.UserID, device.PushToken}
	if existing, ok := r.devices[key]; ok {
		existing.Platform = device.Platform
		existing.UpdatedAt = time.Now()
		return nil
	}
	r.nextID++
	device.ID = r.nextID
	device.CreatedAt = time.Now()
	device.UpdatedAt = device.CreatedAt
	r.devices[key] = device
	return nil
}

func (r *memDeviceRepository) UnregisterDevice(userID uint, pushToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, deviceKey{userID, pushToken})
	return nil
}

func (r *memDeviceRepository) ListActiveDevices(userID uint, limit int) ([]models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Device
	for key, device := range r.devices {
		if key.userID == userID && device.DisabledAt == nil {
			out = append(out, *device)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memDeviceRepository) DisableDevice(userID uint, pushToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if device, ok := r.devices[deviceKey{userID, pushToken}]; ok && device.DisabledAt == nil {
		now := time.Now()
		device.DisabledAt = &now
	}
	return nil
}

type memConversationRepository struct {
	mu     sync.Mutex
	nextID uint
	byKey  map[string]*models.Conversation
	byID   map[uint]*models.Conversation
}

func newMemConversationRepository() *memConversationRepository {
	return &memConversationRepository{
		byKey: make(map[string]*models.Conversation),
		byID:  make(map[uint]*models.Conversation),
	}
}

func (r *memConversationRepository) CreateConversation(conversation *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[conversation.DirectKey]; ok {
		return apperrors.Conflict("conversation already exists", existing.ID)
	}
	r.nextID++
	conversation.ID = r.nextID
	conversation.CreatedAt = time.Now()
	r.byKey[conversation.DirectKey] = conversation
	r.byID[conversation.ID] = conversation
	return nil
}

func (r *memConversationRepository) GetByDirectKey(directKey string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.byKey[directKey]
	if !ok {
		return nil, repositories.ErrConversationNotFound
	}
	return conversation, nil
}

func (r *memConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrConversationNotFound
	}
	return conversation, nil
}

func (r *memConversationRepository) ListByUser(userID uint) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memConversationRepository) TouchLastMessageAt(id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.LastMessageAt = &at
	}
	return nil
}

// sendCall records one fan-out handed to the fake sender.
type sendCall struct {
	tokens  []string
	message push.Message
}

// fakeSender scripts the push gateway's per-call behavior.
type fakeSender struct {
	mu      sync.Mutex
	calls   []sendCall
	results []push.Result
	errs    []error
}

func (s *fakeSender) Send(ctx context.Context, tokens []string, msg push.Message) (push.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := len(s.calls)
	s.calls = append(s.calls, sendCall{tokens: tokens, message: msg})

	var result push.Result
	if call < len(s.results) {
		result = s.results[call]
	} else {
		result = push.Result{Sent: len(tokens)}
	}
	var err error
	if call < len(s.errs) {
		err = s.errs[call]
	}
	return result, err
}

func (s *fakeSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSender) call(i int) sendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}
