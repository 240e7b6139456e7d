package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
)

// Client is the typed client for the collaborator endpoints.
type Client struct {
	http    *HTTPClient
	baseURL string
}

// NewClient creates a client for the configured collaborator base URL.
func NewClient() *Client {
	return &Client{
		http:    NewHTTPClient(),
		baseURL: strings.TrimRight(config.Global.API.BaseURL, "/"),
	}
}

// NewClientWithBase creates a client for a specific base URL. Used by tests
// against httptest servers.
func NewClientWithBase(baseURL string) *Client {
	return &Client{
		http:    NewHTTPClient(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchPushPublicKey fetches the server's push public key. Failure means
// background push is unavailable for this session; callers degrade rather
// than crash.
func (c *Client) FetchPushPublicKey(ctx context.Context) (string, error) {
	result := c.http.Do(ctx, http.MethodGet, c.baseURL+"/api/push/vapid-public-key", "", nil)
	if result.Error != nil {
		return "", errors.NewStoreError("fetchPushPublicKey", "public key unavailable", result.Error)
	}

	var payload struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.Unmarshal(result.Body, &payload); err != nil {
		return "", errors.NewStoreError("fetchPushPublicKey", "malformed public key response", err)
	}
	if payload.PublicKey == "" {
		return "", errors.ErrNoPublicKey
	}
	return payload.PublicKey, nil
}

// subscriptionRequest is the subscribe/unsubscribe wire shape.
type subscriptionRequest struct {
	UserID       string            `json:"user_id"`
	Subscription *subscriptionBody `json:"subscription,omitempty"`
	Endpoint     string            `json:"endpoint,omitempty"`
}

type subscriptionBody struct {
	Endpoint string            `json:"endpoint"`
	Keys     map[string]string `json:"keys"`
}

// SaveSubscription registers a push subscription server-side, keyed by user.
func (c *Client) SaveSubscription(ctx context.Context, userID string, sub *model.PushSubscription) error {
	body, err := json.Marshal(subscriptionRequest{
		UserID: userID,
		Subscription: &subscriptionBody{
			Endpoint: sub.Endpoint,
			Keys: map[string]string{
				"p256dh": sub.P256dhKey,
				"auth":   sub.AuthKey,
			},
		},
	})
	if err != nil {
		return errors.NewStoreError("saveSubscription", "failed to encode subscription", err)
	}

	result := c.http.Do(ctx, http.MethodPost, c.baseURL+"/api/push/subscribe", "application/json", body)
	if result.Error != nil {
		return errors.NewStoreError("saveSubscription", "subscription registration failed", result.Error)
	}
	return nil
}

// DeleteSubscription removes a push subscription record server-side.
func (c *Client) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	body, err := json.Marshal(subscriptionRequest{
		UserID:   userID,
		Endpoint: endpoint,
	})
	if err != nil {
		return errors.NewStoreError("deleteSubscription", "failed to encode request", err)
	}

	result := c.http.Do(ctx, http.MethodPost, c.baseURL+"/api/push/unsubscribe", "application/json", body)
	if result.Error != nil {
		return errors.NewStoreError("deleteSubscription", "subscription removal failed", result.Error)
	}
	return nil
}

// SendTestPush asks the collaborator to deliver a test push to every device
// registered for the user.
func (c *Client) SendTestPush(ctx context.Context, userID, title, msg string) error {
	body, err := json.Marshal(map[string]string{
		"user_id": userID,
		"title":   title,
		"body":    msg,
	})
	if err != nil {
		return errors.NewStoreError("sendTestPush", "failed to encode request", err)
	}

	result := c.http.Do(ctx, http.MethodPost, c.baseURL+"/api/push/test", "application/json", body)
	if result.Error != nil {
		return errors.NewStoreError("sendTestPush", "test push failed", result.Error)
	}
	return nil
}

// VerifyEvidence submits captured dose evidence for validation. A rejected
// image returns a VerificationError; transport failures return StoreError.
func (c *Client) VerifyEvidence(ctx context.Context, userID string, image []byte) error {
	result := c.http.Do(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/ai/verify-dose?user_id=%s", c.baseURL, userID),
		"image/jpeg", image)
	if result.Error != nil {
		if result.StatusCode >= 400 && result.StatusCode < 500 {
			return errors.NewVerificationError("evidence rejected", result.Error)
		}
		return errors.NewStoreError("verifyEvidence", "verification call failed", result.Error)
	}

	var payload struct {
		Verified bool   `json:"verified"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(result.Body, &payload); err != nil {
		return errors.NewStoreError("verifyEvidence", "malformed verification response", err)
	}
	if !payload.Verified {
		return errors.NewVerificationError("evidence rejected: "+payload.Reason, nil)
	}
	return nil
}
