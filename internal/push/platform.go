// Package push manages the platform push subscription lifecycle: support
// probing, subscribe and unsubscribe against both the platform and the
// backing store, and recovery when the platform rotates a subscription
// out from under us.
package push

import (
	"context"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
)

// PushService is the platform's push surface. The platform owns the live
// subscription handle; this interface only reads and transitions it.
type PushService interface {
	// Supported reports whether the platform can deliver push at all.
	Supported() bool
	// Subscription returns the current platform subscription, or
	// ErrSubscriptionMissing when none exists.
	Subscription(ctx context.Context) (*model.PushSubscription, error)
	// Subscribe creates a platform subscription bound to the server's
	// public key.
	Subscribe(ctx context.Context, publicKey string) (*model.PushSubscription, error)
	// Unsubscribe releases the current platform subscription. Releasing a
	// subscription the platform already invalidated is not an error.
	Unsubscribe(ctx context.Context) error
}

// StaticService is an in-memory PushService for daemon deployments without
// a real push platform, and for tests.
type StaticService struct {
	IsSupported bool
	Current     *model.PushSubscription

	// NextEndpoint seeds the subscription Subscribe mints. Empty means
	// Subscribe fails with ErrPushUnsupported.
	NextEndpoint string
	NextP256dh   string
	NextAuth     string
}

// Supported reports the configured support flag.
func (s *StaticService) Supported() bool {
	return s.IsSupported
}

// Subscription returns the held subscription, if any.
func (s *StaticService) Subscription(ctx context.Context) (*model.PushSubscription, error) {
	if s.Current == nil {
		return nil, errors.ErrSubscriptionMissing
	}
	return s.Current, nil
}

// Subscribe mints the seeded subscription. An existing subscription is
// replaced, matching platform behavior.
func (s *StaticService) Subscribe(ctx context.Context, publicKey string) (*model.PushSubscription, error) {
	if !s.IsSupported || s.NextEndpoint == "" {
		return nil, errors.ErrPushUnsupported
	}
	s.Current = &model.PushSubscription{
		Endpoint:  s.NextEndpoint,
		P256dhKey: s.NextP256dh,
		AuthKey:   s.NextAuth,
	}
	return s.Current, nil
}

// Unsubscribe drops the held subscription.
func (s *StaticService) Unsubscribe(ctx context.Context) error {
	s.Current = nil
	return nil
}
