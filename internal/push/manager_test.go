package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/storage"
)

type fakeServer struct {
	publicKey    string
	keyErr       error
	saveErr      error
	deleteErr    error
	saved        []*model.PushSubscription
	savedUserIDs []string
	deleted      []string
}

func (s *fakeServer) FetchPushPublicKey(ctx context.Context) (string, error) {
	if s.keyErr != nil {
		return "", s.keyErr
	}
	return s.publicKey, nil
}

func (s *fakeServer) SaveSubscription(ctx context.Context, userID string, sub *model.PushSubscription) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, sub)
	s.savedUserIDs = append(s.savedUserIDs, userID)
	return nil
}

func (s *fakeServer) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, endpoint)
	return nil
}

func setupRepo(t *testing.T) *storage.SubscriptionRepo {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewSubscriptionRepo(db)
}

func TestCheckSupportUnsupported(t *testing.T) {
	m := NewManager(&StaticService{IsSupported: false}, &fakeServer{}, setupRepo(t), "user-1")

	state := m.CheckSupport(context.Background())
	assert.False(t, state.IsSupported)
	assert.False(t, state.IsSubscribed)
	assert.NoError(t, state.Err)
}

func TestCheckSupportExistingSubscription(t *testing.T) {
	platform := &StaticService{
		IsSupported: true,
		Current:     &model.PushSubscription{Endpoint: "https://push.example/old"},
	}
	m := NewManager(platform, &fakeServer{}, setupRepo(t), "user-1")

	state := m.CheckSupport(context.Background())
	assert.True(t, state.IsSupported)
	assert.True(t, state.IsSubscribed)
}

func TestSubscribeEndToEnd(t *testing.T) {
	platform := &StaticService{
		IsSupported:  true,
		NextEndpoint: "https://push.example/new",
		NextP256dh:   "p256dh-1",
		NextAuth:     "auth-1",
	}
	server := &fakeServer{publicKey: "BKey"}
	repo := setupRepo(t)
	m := NewManager(platform, server, repo, "user-1")

	require.NoError(t, m.Subscribe(context.Background()))

	state := m.State()
	assert.True(t, state.IsSubscribed)
	assert.False(t, state.IsLoading)

	require.Len(t, server.saved, 1)
	assert.Equal(t, "user-1", server.savedUserIDs[0])
	assert.Equal(t, "https://push.example/new", server.saved[0].Endpoint)

	cached, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "https://push.example/new", cached[0].Endpoint)
}

func TestSubscribeReusesExistingPlatformSubscription(t *testing.T) {
	platform := &StaticService{
		IsSupported: true,
		Current: &model.PushSubscription{
			Endpoint:  "https://push.example/existing",
			P256dhKey: "p",
			AuthKey:   "a",
		},
	}
	server := &fakeServer{publicKey: "BKey"}
	m := NewManager(platform, server, setupRepo(t), "user-1")

	require.NoError(t, m.Subscribe(context.Background()))

	require.Len(t, server.saved, 1)
	assert.Equal(t, "https://push.example/existing", server.saved[0].Endpoint)
}

func TestSubscribeUnsupportedIsConfigError(t *testing.T) {
	m := NewManager(&StaticService{IsSupported: false}, &fakeServer{}, setupRepo(t), "user-1")

	err := m.Subscribe(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.True(t, errors.Is(err, errors.ErrPushUnsupported))
	assert.False(t, m.State().IsSubscribed)
}

func TestSubscribeServerRejectionRollsBack(t *testing.T) {
	platform := &StaticService{
		IsSupported:  true,
		NextEndpoint: "https://push.example/new",
	}
	server := &fakeServer{publicKey: "BKey", saveErr: errors.New("store down")}
	m := NewManager(platform, server, setupRepo(t), "user-1")

	err := m.Subscribe(context.Background())
	require.Error(t, err)
	assert.False(t, m.State().IsSubscribed)
	assert.Nil(t, platform.Current)
}

func TestSubscribeKeyFetchFailure(t *testing.T) {
	platform := &StaticService{IsSupported: true, NextEndpoint: "https://push.example/new"}
	server := &fakeServer{keyErr: errors.ErrNoPublicKey}
	m := NewManager(platform, server, setupRepo(t), "user-1")

	err := m.Subscribe(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoPublicKey))
	assert.Nil(t, platform.Current)
	assert.False(t, m.State().IsSubscribed)

	// A missing key degrades support for this session; the next probe
	// restores it.
	assert.False(t, m.State().IsSupported)
	assert.True(t, m.CheckSupport(context.Background()).IsSupported)
}

func TestSubscribeWithoutUserID(t *testing.T) {
	m := NewManager(&StaticService{IsSupported: true}, &fakeServer{}, setupRepo(t), "")
	err := m.Subscribe(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoUserID))
}

func TestUnsubscribeEndToEnd(t *testing.T) {
	platform := &StaticService{
		IsSupported: true,
		Current:     &model.PushSubscription{Endpoint: "https://push.example/live"},
	}
	server := &fakeServer{}
	repo := setupRepo(t)
	require.NoError(t, repo.Save(&model.PushSubscription{
		UserID:   "user-1",
		Endpoint: "https://push.example/live",
	}))
	m := NewManager(platform, server, repo, "user-1")

	require.NoError(t, m.Unsubscribe(context.Background()))

	assert.Nil(t, platform.Current)
	assert.Equal(t, []string{"https://push.example/live"}, server.deleted)
	assert.False(t, m.State().IsSubscribed)

	cached, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestUnsubscribeTolerantOfMissingPlatformSubscription(t *testing.T) {
	platform := &StaticService{IsSupported: true}
	server := &fakeServer{}
	repo := setupRepo(t)
	require.NoError(t, repo.Save(&model.PushSubscription{
		UserID:   "user-1",
		Endpoint: "https://push.example/stale",
	}))
	m := NewManager(platform, server, repo, "user-1")

	require.NoError(t, m.Unsubscribe(context.Background()))

	// The platform lost the handle first, but the recorded endpoint is
	// still cleaned up server-side.
	assert.Equal(t, []string{"https://push.example/stale"}, server.deleted)
	assert.False(t, m.State().IsSubscribed)
}

func TestHandleSubscriptionChange(t *testing.T) {
	server := &fakeServer{}
	repo := setupRepo(t)
	m := NewManager(&StaticService{IsSupported: true}, server, repo, "user-1")

	err := m.HandleSubscriptionChange(context.Background(), &model.PushSubscription{
		Endpoint:  "https://push.example/rotated",
		P256dhKey: "p2",
		AuthKey:   "a2",
	})
	require.NoError(t, err)

	require.Len(t, server.saved, 1)
	assert.Equal(t, "user-1", server.saved[0].UserID)
	assert.Equal(t, "https://push.example/rotated", server.saved[0].Endpoint)
	assert.True(t, m.State().IsSubscribed)
}

func TestHandleSubscriptionChangeWithoutUserID(t *testing.T) {
	server := &fakeServer{}
	m := NewManager(&StaticService{IsSupported: true}, server, setupRepo(t), "")

	err := m.HandleSubscriptionChange(context.Background(), &model.PushSubscription{
		Endpoint: "https://push.example/rotated",
	})
	assert.True(t, errors.Is(err, errors.ErrNoUserID))
	assert.Empty(t, server.saved)
}

func TestHandleSubscriptionChangeGone(t *testing.T) {
	m := NewManager(&StaticService{IsSupported: true}, &fakeServer{}, setupRepo(t), "user-1")

	err := m.HandleSubscriptionChange(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrSubscriptionGone))
	assert.False(t, m.State().IsSubscribed)
}

func TestReconcileFollowsPlatformTruth(t *testing.T) {
	platform := &StaticService{IsSupported: true}
	m := NewManager(platform, &fakeServer{}, setupRepo(t), "user-1")

	state := m.Reconcile(context.Background())
	assert.False(t, state.IsSubscribed)

	platform.Current = &model.PushSubscription{Endpoint: "https://push.example/back"}
	state = m.Reconcile(context.Background())
	assert.True(t, state.IsSubscribed)
}
