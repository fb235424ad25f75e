package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickprint/quickprint-api/config"
)

// newStubProvider starts a stub auth provider and returns a service
// pointed at it
func newStubProvider(t *testing.T, handler http.HandlerFunc) *IdentityService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewIdentityService(&config.Config{
		AuthProviderURL: server.URL,
		AuthAPIKey:      "test-api-key",
		AuthServiceKey:  "test-service-key",
	})
}

func TestSignUp_ActiveSession(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("apikey"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "pat@example.com", payload["email"])

		// New signups always carry the user role.
		metadata := payload["data"].(map[string]interface{})
		assert.Equal(t, "user", metadata["role"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh-token",
			"user": map[string]interface{}{
				"id":                 "uid-1",
				"email":              "pat@example.com",
				"email_confirmed_at": time.Now().Format(time.RFC3339),
				"user_metadata":      map[string]interface{}{"name": "Pat", "role": "user"},
			},
		})
	})

	session, err := service.SignUp("Pat", "pat@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", session.Token)
	assert.False(t, session.ConfirmationRequired)
	assert.Equal(t, "uid-1", session.Identity.ID)
	assert.Equal(t, "Pat", session.Identity.Name)
	assert.Equal(t, RoleUser, session.Identity.Role)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// Confirmation pending: the provider returns the bare user record,
		// no session.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "uid-2",
			"email":         "pat@example.com",
			"user_metadata": map[string]interface{}{"name": "Pat"},
		})
	})

	session, err := service.SignUp("Pat", "pat@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, session.ConfirmationRequired)
	assert.Empty(t, session.Token)
	assert.False(t, session.Identity.Confirmed)
}

func TestSignUp_Rejected(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := service.SignUp("Pat", "taken@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "session-token",
			"user": map[string]interface{}{
				"id":            "uid-1",
				"email":         "pat@example.com",
				"user_metadata": map[string]interface{}{"role": "admin"},
			},
		})
	})

	session, err := service.SignIn("pat@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "session-token", session.Token)
	assert.Equal(t, RoleAdmin, session.Identity.Role)
}

func TestSignIn_BadCredentials(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := service.SignIn("pat@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	confirmed := time.Now()
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(providerUser{
			ID:               "uid-1",
			Email:            "pat@example.com",
			EmailConfirmedAt: &confirmed,
			UserMetadata:     map[string]interface{}{"name": "Pat", "role": "admin"},
		})
	})

	identity, err := service.GetUser("caller-token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.ID)
	assert.True(t, identity.Confirmed)
	assert.True(t, identity.IsAdmin())
}

func TestGetUser_InvalidToken(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := service.GetUser("stale-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetUser_ProviderOutage(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// An outage is not a rejection: callers must be able to tell them apart.
	_, err := service.GetUser("valid-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestListUsers(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		// Admin calls authenticate with the service key.
		assert.Equal(t, "Bearer test-service-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []map[string]interface{}{
				{"id": "uid-1", "email": "one@example.com", "user_metadata": map[string]interface{}{"role": "user"}},
				{"id": "uid-2", "email": "two@example.com", "user_metadata": map[string]interface{}{"role": "admin"}},
			},
		})
	})

	identities, err := service.ListUsers()
	require.NoError(t, err)
	require.Len(t, identities, 2)
	assert.Equal(t, RoleUser, identities[0].Role)
	assert.Equal(t, RoleAdmin, identities[1].Role)
}

func TestGetUserByID_NotFound(t *testing.T) {
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := service.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	var deletedPath string
	service := newStubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		deletedPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	})

	require.NoError(t, service.DeleteUser("uid-1"))
	assert.Equal(t, "DELETE /auth/v1/admin/users/uid-1", deletedPath)
}
