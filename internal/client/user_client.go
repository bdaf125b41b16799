package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"friendship/backend/internal/models"

	"github.com/sirupsen/logrus"
)

// UserClient resolves user ids to display profiles against the external
// user service.
type UserClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewUserClient creates a client for the user service at baseURL.
func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Resolve fetches the profile for userID. Any failure, transport error or
// non-2xx status alike, is returned to the caller; there is no retry.
func (c *UserClient) Resolve(ctx context.Context, userID string) (*models.UserProfile, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"userId": userID,
		"url":    url,
	}).Debug("resolving user profile")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"userId": userID,
			"status": resp.StatusCode,
		}).Error("user service returned error status")
		return nil, fmt.Errorf("user service returned status %d for user %s", resp.StatusCode, userID)
	}

	var profile models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	if profile.ID == "" {
		profile.ID = userID
	}

	return &profile, nil
}
