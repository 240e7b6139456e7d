package push

import (
	"context"
	"sync"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/storage"
)

// ServerStore is the collaborator side of the subscription lifecycle.
// Satisfied by api.Client.
type ServerStore interface {
	FetchPushPublicKey(ctx context.Context) (string, error)
	SaveSubscription(ctx context.Context, userID string, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
}

// State is the observable subscription state.
type State struct {
	IsSupported  bool
	IsSubscribed bool
	IsLoading    bool
	Err          error
}

// Manager drives the push subscription lifecycle. It treats the platform
// as the source of truth for the live subscription and keeps the server
// and the local record in step with it. Writes are all or nothing: the
// state only reports subscribed once the server accepted the record.
type Manager struct {
	platform PushService
	server   ServerStore
	repo     *storage.SubscriptionRepo
	userID   string

	mu    sync.Mutex
	state State
}

// NewManager creates a subscription manager for the given user. The user id
// must be the real authenticated identity; subscription records keyed by a
// placeholder cannot be targeted later.
func NewManager(platform PushService, server ServerStore, repo *storage.SubscriptionRepo, userID string) *Manager {
	return &Manager{
		platform: platform,
		server:   server,
		repo:     repo,
		userID:   userID,
	}
}

// State returns a snapshot of the current subscription state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(mutate func(*State)) {
	m.mu.Lock()
	mutate(&m.state)
	m.mu.Unlock()
}

// CheckSupport probes the platform and resolves the initial state: whether
// push works here at all, and whether a subscription already exists. Lack
// of support is a stable fact about the platform, not an error.
func (m *Manager) CheckSupport(ctx context.Context) State {
	supported := m.platform.Supported()

	m.setState(func(s *State) {
		s.IsSupported = supported
		s.Err = nil
	})

	if !supported {
		logging.Info("push not supported on this platform")
		m.setState(func(s *State) { s.IsSubscribed = false })
		return m.State()
	}

	sub, err := m.platform.Subscription(ctx)
	subscribed := err == nil && sub != nil
	m.setState(func(s *State) { s.IsSubscribed = subscribed })

	logging.DebugLog("push support checked",
		"supported", supported,
		"subscribed", subscribed)
	return m.State()
}

// Subscribe establishes a push subscription end to end: platform handle,
// server record, local record. An existing platform subscription is reused
// rather than replaced. If the server rejects the record the platform
// handle is released again so no half-registered subscription survives.
func (m *Manager) Subscribe(ctx context.Context) error {
	if m.userID == "" {
		return errors.ErrNoUserID
	}
	if !m.platform.Supported() {
		err := errors.NewConfigError(
			"push is not supported on this platform",
			"use a platform with push delivery, or rely on the foreground alarm",
			errors.ErrPushUnsupported)
		m.setState(func(s *State) { s.Err = err })
		return err
	}

	m.setState(func(s *State) { s.IsLoading = true; s.Err = nil })
	defer m.setState(func(s *State) { s.IsLoading = false })

	sub, err := m.platform.Subscription(ctx)
	created := false
	if err != nil || sub == nil {
		key, err := m.server.FetchPushPublicKey(ctx)
		if err != nil {
			// Without the server key no subscription can be minted; push is
			// off for this session until the next support probe.
			m.setState(func(s *State) {
				s.IsSupported = false
				s.Err = err
			})
			return err
		}

		sub, err = m.platform.Subscribe(ctx, key)
		if err != nil {
			wrapped := errors.NewConfigError(
				"platform refused the push subscription",
				"check the notification permission and try again",
				err)
			m.setState(func(s *State) { s.Err = wrapped })
			return wrapped
		}
		created = true
	}

	sub.UserID = m.userID
	if err := m.server.SaveSubscription(ctx, m.userID, sub); err != nil {
		// Roll back a handle we just created so the server and platform
		// never disagree about whether this device is subscribed.
		if created {
			if uerr := m.platform.Unsubscribe(ctx); uerr != nil {
				logging.Warn("failed to roll back platform subscription",
					logging.KeyError, uerr)
			}
		}
		m.setState(func(s *State) { s.Err = err })
		return err
	}

	if err := m.repo.Save(sub); err != nil {
		logging.Warn("failed to record subscription locally",
			logging.KeyEndpoint, sub.Endpoint,
			logging.KeyError, err)
	}

	m.setState(func(s *State) { s.IsSubscribed = true })
	logging.Info("push subscription established",
		logging.KeyUser, m.userID,
		logging.KeyEndpoint, sub.Endpoint)
	return nil
}

// Unsubscribe tears the subscription down everywhere. A platform handle the
// platform already invalidated is fine; the server record is removed either
// way so a dead endpoint never lingers server-side.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if m.userID == "" {
		return errors.ErrNoUserID
	}

	m.setState(func(s *State) { s.IsLoading = true; s.Err = nil })
	defer m.setState(func(s *State) { s.IsLoading = false })

	sub, err := m.platform.Subscription(ctx)
	if err != nil && !errors.Is(err, errors.ErrSubscriptionMissing) {
		m.setState(func(s *State) { s.Err = err })
		return err
	}

	var endpoint string
	if sub != nil {
		endpoint = sub.Endpoint
		if err := m.platform.Unsubscribe(ctx); err != nil {
			logging.Warn("platform unsubscribe failed, removing server record anyway",
				logging.KeyEndpoint, endpoint,
				logging.KeyError, err)
		}
	} else if cached, cerr := m.repo.ListByUser(m.userID); cerr == nil && len(cached) > 0 {
		// Platform already lost the handle; fall back to the recorded endpoint.
		endpoint = cached[len(cached)-1].Endpoint
	}

	if endpoint != "" {
		if err := m.server.DeleteSubscription(ctx, m.userID, endpoint); err != nil {
			m.setState(func(s *State) { s.Err = err })
			return err
		}
		if err := m.repo.DeleteByEndpoint(m.userID, endpoint); err != nil {
			logging.Warn("failed to remove local subscription record",
				logging.KeyEndpoint, endpoint,
				logging.KeyError, err)
		}
	}

	m.setState(func(s *State) { s.IsSubscribed = false })
	logging.Info("push subscription removed", logging.KeyUser, m.userID)
	return nil
}

// HandleSubscriptionChange re-registers after the platform rotated the
// subscription. The new handle is registered under the real user id; with
// no user id there is nothing safe to register and the rotation is dropped.
func (m *Manager) HandleSubscriptionChange(ctx context.Context, newSub *model.PushSubscription) error {
	if newSub == nil || newSub.Endpoint == "" {
		logging.Warn("subscription change carried no new subscription")
		m.setState(func(s *State) { s.IsSubscribed = false })
		return errors.ErrSubscriptionGone
	}
	if m.userID == "" {
		logging.Warn("dropping rotated subscription, no user id to register it under",
			logging.KeyEndpoint, newSub.Endpoint)
		return errors.ErrNoUserID
	}

	newSub.UserID = m.userID
	if err := m.server.SaveSubscription(ctx, m.userID, newSub); err != nil {
		m.setState(func(s *State) { s.Err = err })
		return err
	}
	if err := m.repo.Save(newSub); err != nil {
		logging.Warn("failed to record rotated subscription locally",
			logging.KeyEndpoint, newSub.Endpoint,
			logging.KeyError, err)
	}

	m.setState(func(s *State) { s.IsSubscribed = true })
	logging.Info("rotated push subscription re-registered",
		logging.KeyUser, m.userID,
		logging.KeyEndpoint, newSub.Endpoint)
	return nil
}

// Reconcile re-derives the subscribed flag from the platform. Used on
// startup and after wake, when cached state may be stale.
func (m *Manager) Reconcile(ctx context.Context) State {
	if !m.platform.Supported() {
		m.setState(func(s *State) {
			s.IsSupported = false
			s.IsSubscribed = false
		})
		return m.State()
	}

	sub, err := m.platform.Subscription(ctx)
	m.setState(func(s *State) {
		s.IsSupported = true
		s.IsSubscribed = err == nil && sub != nil
	})
	return m.State()
}
