package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/hojoonlee/pilltick/internal/model"
)

// SubscriptionRepo provides operations for cached push subscriptions.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo creates a new subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Save upserts a subscription. The endpoint is the identity: an existing
// record with the same endpoint is updated in place so a resubscribe never
// leaves two records for one platform subscription.
func (r *SubscriptionRepo) Save(sub *model.PushSubscription) error {
	existing, err := r.GetByEndpoint(sub.Endpoint)
	if err != nil && !IsErrKeyNotFound(err) {
		return err
	}

	now := time.Now()
	if existing != nil {
		sub.Key = existing.Key
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.Key = model.GenerateSubscriptionKey(uuid.New().String())
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	return r.db.Set(sub)
}

// GetByEndpoint retrieves the subscription with the given endpoint.
func (r *SubscriptionRepo) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	all, err := r.list()
	if err != nil {
		return nil, err
	}
	for _, sub := range all {
		if sub.Endpoint == endpoint {
			return sub, nil
		}
	}
	return nil, ErrKeyNotFound
}

// ListByUser retrieves all subscriptions recorded for the given user.
func (r *SubscriptionRepo) ListByUser(userID string) ([]*model.PushSubscription, error) {
	all, err := r.list()
	if err != nil {
		return nil, err
	}

	var owned []*model.PushSubscription
	for _, sub := range all {
		if sub.UserID == userID {
			owned = append(owned, sub)
		}
	}
	return owned, nil
}

// DeleteByEndpoint removes the user's subscription record for an endpoint.
// Deleting an endpoint that is not recorded is not an error; the platform
// may have invalidated it before we heard about it.
func (r *SubscriptionRepo) DeleteByEndpoint(userID, endpoint string) error {
	all, err := r.list()
	if err != nil {
		return err
	}

	for _, sub := range all {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			return r.db.Delete(sub.Key)
		}
	}
	return nil
}

func (r *SubscriptionRepo) list() ([]*model.PushSubscription, error) {
	return GetAllByPrefix(r.db, model.PrefixSubscription+":", func() *model.PushSubscription {
		return &model.PushSubscription{}
	})
}
