package model

import (
	"fmt"
	"time"
)

// PushSubscription is the client's cached copy of a platform-owned push
// subscription. The platform owns the live handle; this record is what gets
// reconciled with the backing store.
type PushSubscription struct {
	Key       string    `json:"key"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh"`
	AuthKey   string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetKey sets the database key for this subscription.
func (s *PushSubscription) SetKey(key string) {
	s.Key = key
}

// GetKey returns the database key for this subscription.
func (s *PushSubscription) GetKey() string {
	return s.Key
}

// GenerateSubscriptionKey generates a database key for a subscription using UUID.
func GenerateSubscriptionKey(uuid string) string {
	return fmt.Sprintf("%s:%s", PrefixSubscription, uuid)
}
