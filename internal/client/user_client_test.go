package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"friendship/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserClientResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/abc-123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.UserProfile{
			ID:       "abc-123",
			FullName: "Kadar Khan",
			Photo:    "https://example.com/kadar.png",
		})
	}))
	defer server.Close()

	c := NewUserClient(server.URL)
	profile, err := c.Resolve(context.Background(), "abc-123")
	require.NoError(t, err)

	assert.Equal(t, "abc-123", profile.ID)
	assert.Equal(t, "Kadar Khan", profile.FullName)
	assert.Equal(t, "https://example.com/kadar.png", profile.Photo)
}

func TestUserClientResolveFillsMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fullName":"Shambha"}`))
	}))
	defer server.Close()

	c := NewUserClient(server.URL)
	profile, err := c.Resolve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", profile.ID)
}

func TestUserClientResolveErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			c := NewUserClient(server.URL)
			_, err := c.Resolve(context.Background(), "abc-123")
			assert.Error(t, err)
		})
	}
}

func TestUserClientResolveUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before the call

	c := NewUserClient(server.URL)
	_, err := c.Resolve(context.Background(), "abc-123")
	assert.Error(t, err)
}
