package friendship

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"friendship/backend/internal/client"
	"friendship/backend/internal/models"
	"friendship/backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory FriendshipStore.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.Friendship
	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.Friendship)}
}

func (f *fakeStore) Create(ctx context.Context, friendship *models.Friendship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	for _, r := range f.records {
		if (r.UserID == friendship.UserID && r.FriendID == friendship.FriendID) ||
			(r.UserID == friendship.FriendID && r.FriendID == friendship.UserID) {
			return store.ErrDuplicatePair
		}
	}
	if friendship.ID == "" {
		friendship.ID = uuid.NewString()
	}
	clone := *friendship
	f.records[friendship.ID] = &clone
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeStore) GetByPair(ctx context.Context, userID, friendID string) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if (r.UserID == userID && r.FriendID == friendID) ||
			(r.UserID == friendID && r.FriendID == userID) {
			clone := *r
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListAccepted(ctx context.Context, userID string) ([]models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Friendship
	for _, r := range f.records {
		if r.Accepted && (r.UserID == userID || r.FriendID == userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkAccepted(ctx context.Context, friendship *models.Friendship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[friendship.ID]
	if !ok {
		return store.ErrNotFound
	}
	r.Accepted = friendship.Accepted
	r.ResponseSentAt = friendship.ResponseSentAt
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[id]
	return ok, nil
}

// fakeResolver resolves any id to a deterministic profile unless told to fail.
type fakeResolver struct {
	mu       sync.Mutex
	failFor  map[string]error
	resolved []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{failFor: make(map[string]error)}
}

func (f *fakeResolver) Resolve(ctx context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[userID]; ok {
		return nil, err
	}
	f.resolved = append(f.resolved, userID)
	return &models.UserProfile{
		ID:       userID,
		FullName: "Name of " + userID,
		Photo:    "photo-" + userID,
	}, nil
}

// fakeNotifier records dispatched notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []client.Notification
	fail error
}

func (f *fakeNotifier) Notify(ctx context.Context, n client.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, n)
	return nil
}

type fixture struct {
	store    *fakeStore
	resolver *fakeResolver
	notifier *fakeNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		resolver: newFakeResolver(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.store, f.resolver, f.notifier)
	return f
}

func TestRequestFriendship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	view, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.NotEmpty(t, view.FriendshipID)
	assert.Equal(t, userID, view.UserID)
	assert.Equal(t, friendID, view.FriendID)
	assert.Equal(t, "Name of "+friendID, view.FriendName)
	assert.False(t, view.Accepted)

	stored, err := f.store.GetByID(ctx, view.FriendshipID)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, friendID, stored.FriendID)
	assert.False(t, stored.Accepted)
	assert.Nil(t, stored.ResponseSentAt)
	assert.False(t, stored.RequestSentAt.IsZero())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, friendID, f.notifier.sent[0].To)
	assert.Equal(t, client.KindFriendRequest, f.notifier.sent[0].Kind)
	assert.Equal(t, view.FriendshipID, f.notifier.sent[0].FriendshipID)
	assert.Equal(t, "Name of "+userID, f.notifier.sent[0].FromName)
}

func TestRequestFriendshipDuplicatePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	_, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)

	// Same orientation.
	_, err = f.svc.RequestFriendship(ctx, userID, friendID)
	assert.ErrorIs(t, err, ErrConflict)

	// Crossed orientation is the same pair.
	_, err = f.svc.RequestFriendship(ctx, friendID, userID)
	assert.ErrorIs(t, err, ErrConflict)

	// Only the first request notified anyone.
	assert.Len(t, f.notifier.sent, 1)
}

func TestRequestFriendshipSelf(t *testing.T) {
	f := newFixture(t)

	userID := uuid.NewString()
	_, err := f.svc.RequestFriendship(context.Background(), userID, userID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.notifier.sent)
}

func TestRequestFriendshipInvalidIDs(t *testing.T) {
	f := newFixture(t)
	valid := uuid.NewString()

	tests := []struct {
		name     string
		callerID string
		targetID string
	}{
		{"malformed caller", "not-a-uuid", valid},
		{"malformed target", valid, "not-a-uuid"},
		{"empty target", valid, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RequestFriendship(context.Background(), tc.callerID, tc.targetID)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRequestFriendshipResolverFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()
	f.resolver.failFor[friendID] = errors.New("user not found")

	_, err := f.svc.RequestFriendship(ctx, userID, friendID)
	assert.ErrorIs(t, err, ErrUpstream)

	// No record was created for an unresolvable target.
	_, err = f.store.GetByPair(ctx, userID, friendID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.notifier.sent)
}

func TestRequestFriendshipNotifierFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()
	f.notifier.fail = errors.New("notification service down")

	_, err := f.svc.RequestFriendship(ctx, userID, friendID)
	assert.ErrorIs(t, err, ErrUpstream)

	// The write is durable even though the notification never went out.
	stored, err := f.store.GetByPair(ctx, userID, friendID)
	require.NoError(t, err)
	assert.False(t, stored.Accepted)
}

func TestAcceptFriendship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	f.notifier.sent = nil

	view, err := f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)

	assert.Equal(t, created.FriendshipID, view.FriendshipID)
	assert.Equal(t, userID, view.UserID)
	assert.Equal(t, friendID, view.FriendID)
	assert.Equal(t, "Name of "+userID, view.FriendName)
	assert.True(t, view.Accepted)

	stored, err := f.store.GetByID(ctx, created.FriendshipID)
	require.NoError(t, err)
	assert.True(t, stored.Accepted)
	require.NotNil(t, stored.ResponseSentAt)
	assert.False(t, stored.ResponseSentAt.Before(stored.RequestSentAt))

	// The original initiator gets the acceptance notification.
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, userID, f.notifier.sent[0].To)
	assert.Equal(t, client.KindFriendAccepted, f.notifier.sent[0].Kind)
	assert.Equal(t, "Name of "+friendID, f.notifier.sent[0].FromName)
}

func TestAcceptFriendshipOnlyCounterpart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	f.notifier.sent = nil

	// The initiator can never accept their own request.
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, userID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Nor can an unrelated third party.
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, uuid.NewString())
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, err := f.store.GetByID(ctx, created.FriendshipID)
	require.NoError(t, err)
	assert.False(t, stored.Accepted)
	assert.Nil(t, stored.ResponseSentAt)
	assert.Empty(t, f.notifier.sent)
}

func TestAcceptFriendshipNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AcceptFriendship(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclineFriendship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)

	message, err := f.svc.DeclineFriendship(ctx, created.FriendshipID)
	require.NoError(t, err)
	assert.Equal(t, DeleteConfirmation, message)

	_, err = f.store.GetByID(ctx, created.FriendshipID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Declining again reports not found.
	_, err = f.svc.DeclineFriendship(ctx, created.FriendshipID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelFriendship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)

	// Established friendships can be cancelled too.
	message, err := f.svc.CancelFriendship(ctx, created.FriendshipID)
	require.NoError(t, err)
	assert.Equal(t, DeleteConfirmation, message)

	_, err = f.svc.CancelFriendship(ctx, created.FriendshipID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsFriends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	// No record at all.
	friends, err := f.svc.IsFriends(ctx, userID, friendID)
	require.NoError(t, err)
	assert.False(t, friends)

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)

	// Pending is not friends.
	friends, err = f.svc.IsFriends(ctx, userID, friendID)
	require.NoError(t, err)
	assert.False(t, friends)

	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)

	// Established, symmetric regardless of which side asks.
	friends, err = f.svc.IsFriends(ctx, userID, friendID)
	require.NoError(t, err)
	assert.True(t, friends)

	friends, err = f.svc.IsFriends(ctx, friendID, userID)
	require.NoError(t, err)
	assert.True(t, friends)
}

func TestListFriendsStreamsAllEstablished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	callerID := uuid.NewString()

	expected := make(map[string]bool)
	for i := 0; i < 10; i++ {
		friendID := uuid.NewString()
		// Alternate which side initiated; both must show up.
		var created *models.FriendView
		var err error
		if i%2 == 0 {
			created, err = f.svc.RequestFriendship(ctx, callerID, friendID)
			require.NoError(t, err)
			_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
		} else {
			created, err = f.svc.RequestFriendship(ctx, friendID, callerID)
			require.NoError(t, err)
			_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, callerID)
		}
		require.NoError(t, err)
		expected[friendID] = true
	}

	// A pending request must not appear in the list.
	_, err := f.svc.RequestFriendship(ctx, callerID, uuid.NewString())
	require.NoError(t, err)

	stream, err := f.svc.ListFriends(ctx, callerID)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for stream.Next(ctx) {
		view := stream.View()
		assert.Equal(t, callerID, view.UserID)
		assert.True(t, view.Accepted)
		assert.Equal(t, "Name of "+view.FriendID, view.FriendName)
		assert.False(t, seen[view.FriendID], "duplicate friend %s in stream", view.FriendID)
		seen[view.FriendID] = true
	}
	require.NoError(t, stream.Err())

	assert.Len(t, seen, len(expected))
	for friendID := range expected {
		assert.True(t, seen[friendID], "established friend %s missing from stream", friendID)
	}
}

func TestListFriendsResolverFailurePoisonsStream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	callerID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, callerID, friendID)
	require.NoError(t, err)
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)

	f.resolver.failFor[friendID] = errors.New("user service down")

	stream, err := f.svc.ListFriends(ctx, callerID)
	require.NoError(t, err)

	assert.False(t, stream.Next(ctx))
	assert.ErrorIs(t, stream.Err(), ErrUpstream)

	// A poisoned stream stays done.
	assert.False(t, stream.Next(ctx))
}

func TestListFriendsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stream, err := f.svc.ListFriends(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, stream.Next(ctx))
	assert.NoError(t, stream.Err())
}

func TestFriendshipLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID := uuid.NewString()
	friendID := uuid.NewString()

	// U requests friendship with F: record created pending, F notified.
	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, friendID, f.notifier.sent[0].To)

	// F accepts: record established, U notified, both directions agree.
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, userID, f.notifier.sent[1].To)

	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		friends, err := f.svc.IsFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, friends)
	}

	// U cancels: record removed, both directions report false.
	_, err = f.svc.CancelFriendship(ctx, created.FriendshipID)
	require.NoError(t, err)

	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		friends, err := f.svc.IsFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, friends)
	}
}

func TestAcceptResponseSentAtOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	f.svc.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	userID := uuid.NewString()
	friendID := uuid.NewString()

	created, err := f.svc.RequestFriendship(ctx, userID, friendID)
	require.NoError(t, err)
	_, err = f.svc.AcceptFriendship(ctx, created.FriendshipID, friendID)
	require.NoError(t, err)

	stored, err := f.store.GetByID(ctx, created.FriendshipID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResponseSentAt)
	assert.True(t, stored.ResponseSentAt.After(stored.RequestSentAt),
		fmt.Sprintf("responseSentAt %v should follow requestSentAt %v",
			stored.ResponseSentAt, stored.RequestSentAt))
}
