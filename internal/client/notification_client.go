package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notification kinds dispatched by the friendship service.
const (
	KindFriendRequest  = "friend_request"
	KindFriendAccepted = "friend_accepted"
)

// Notification is the payload sent to the notification service.
type Notification struct {
	To           string `json:"to"`
	Kind         string `json:"kind"`
	FriendshipID string `json:"friendshipId"`
	FromName     string `json:"fromName,omitempty"`
}

// NotificationClient dispatches friend notifications to the external
// notification service.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNotificationClient creates a client for the notification service at baseURL.
func NewNotificationClient(baseURL string) *NotificationClient {
	return &NotificationClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify posts a notification for the target user. A transport error or a
// non-2xx status fails the call; there is no retry.
func (c *NotificationClient) Notify(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	url := c.baseURL + "/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.WithFields(logrus.Fields{
		"to":   notification.To,
		"kind": notification.Kind,
	}).Debug("dispatching notification")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"to":     notification.To,
			"kind":   notification.Kind,
			"status": resp.StatusCode,
		}).Error("notification service returned error status")
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	return nil
}
