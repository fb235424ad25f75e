package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/quickprint/quickprint-api/config"
)

// Role is the privilege level attached to an identity by the provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the resolved caller identity. The role is typed and resolved
// once per request from the provider's metadata bag.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// AuthSession is the result of a signup or login call.
type AuthSession struct {
	Token                string   `json:"token"`
	Identity             Identity `json:"user"`
	ConfirmationRequired bool     `json:"confirmation_required"`
}

// Sentinel errors so callers can distinguish a provider rejection from a
// provider outage.
var (
	ErrInvalidToken       = errors.New("identity provider rejected the token")
	ErrInvalidCredentials = errors.New("identity provider rejected the credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// IdentityInterface defines the identity-provider operations the API needs
type IdentityInterface interface {
	SignUp(name, email, password string) (*AuthSession, error)
	SignIn(email, password string) (*AuthSession, error)
	GetUser(accessToken string) (*Identity, error)
	ListUsers() ([]Identity, error)
	GetUserByID(id string) (*Identity, error)
	DeleteUser(id string) error
}

// IdentityService talks to a GoTrue-compatible auth provider over its REST API
type IdentityService struct {
	baseURL    string
	apiKey     string
	serviceKey string
	httpClient *http.Client
}

// NewIdentityService creates a new identity service instance
func NewIdentityService(cfg *config.Config) *IdentityService {
	return &IdentityService{
		baseURL:    strings.TrimRight(cfg.AuthProviderURL, "/"),
		apiKey:     cfg.AuthAPIKey,
		serviceKey: cfg.AuthServiceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// providerUser is the provider's wire representation of a user record
type providerUser struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	CreatedAt        time.Time              `json:"created_at"`
}

// toIdentity folds the provider's metadata bag into a typed Identity
func (u *providerUser) toIdentity() Identity {
	identity := Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      RoleUser,
		Confirmed: u.EmailConfirmedAt != nil,
		CreatedAt: u.CreatedAt,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		identity.Name = name
	}
	if role, ok := u.UserMetadata["role"].(string); ok && role == string(RoleAdmin) {
		identity.Role = RoleAdmin
	}
	return identity
}

// SignUp registers a new identity with the provider. New identities always
// receive the "user" role; admin identities are created out of band.
func (s *IdentityService) SignUp(name, email, password string) (*AuthSession, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data": map[string]interface{}{
			"name": name,
			"role": string(RoleUser),
		},
	}

	body, status, err := s.doRequest(http.MethodPost, "/auth/v1/signup", s.apiKey, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if status < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signup endpoint returned status %d", status)
	}

	// When email confirmation is pending the provider returns the bare user
	// record; otherwise it returns a session wrapping the user.
	var resp struct {
		AccessToken string        `json:"access_token"`
		User        *providerUser `json:"user"`
		providerUser
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}

	if resp.AccessToken == "" || resp.User == nil {
		bare := resp.providerUser
		if bare.ID == "" {
			return nil, fmt.Errorf("signup response contained no user")
		}
		return &AuthSession{
			Identity:             bare.toIdentity(),
			ConfirmationRequired: true,
		}, nil
	}

	return &AuthSession{
		Token:    resp.AccessToken,
		Identity: resp.User.toIdentity(),
	}, nil
}

// SignIn exchanges email/password credentials for a bearer token
func (s *IdentityService) SignIn(email, password string) (*AuthSession, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	body, status, err := s.doRequest(http.MethodPost, "/auth/v1/token?grant_type=password", s.apiKey, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if status < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("token endpoint returned status %d", status)
	}

	var resp struct {
		AccessToken string        `json:"access_token"`
		User        *providerUser `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, ErrInvalidCredentials
	}

	return &AuthSession{
		Token:    resp.AccessToken,
		Identity: resp.User.toIdentity(),
	}, nil
}

// GetUser resolves a bearer token to an identity. Every call goes to the
// provider; validation results are never cached across requests.
func (s *IdentityService) GetUser(accessToken string) (*Identity, error) {
	body, status, err := s.doAuthedRequest(http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if status < 500 {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("user endpoint returned status %d", status)
	}

	var user providerUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	identity := user.toIdentity()
	return &identity, nil
}

// ListUsers fetches all identities via the provider's admin API
func (s *IdentityService) ListUsers() ([]Identity, error) {
	body, status, err := s.doAuthedRequest(http.MethodGet, "/auth/v1/admin/users", s.serviceKey, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("admin users endpoint returned status %d", status)
	}

	var resp struct {
		Users []providerUser `json:"users"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode admin users response: %w", err)
	}

	identities := make([]Identity, 0, len(resp.Users))
	for i := range resp.Users {
		identities = append(identities, resp.Users[i].toIdentity())
	}
	return identities, nil
}

// GetUserByID fetches a single identity via the provider's admin API
func (s *IdentityService) GetUserByID(id string) (*Identity, error) {
	body, status, err := s.doAuthedRequest(http.MethodGet, "/auth/v1/admin/users/"+id, s.serviceKey, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if status >= 400 {
		return nil, fmt.Errorf("admin user endpoint returned status %d", status)
	}

	var user providerUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode admin user response: %w", err)
	}

	identity := user.toIdentity()
	return &identity, nil
}

// DeleteUser removes an identity via the provider's admin API
func (s *IdentityService) DeleteUser(id string) error {
	_, status, err := s.doAuthedRequest(http.MethodDelete, "/auth/v1/admin/users/"+id, s.serviceKey, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return ErrUserNotFound
	}
	if status >= 400 {
		return fmt.Errorf("admin delete endpoint returned status %d", status)
	}
	return nil
}

// doRequest executes a provider call authenticated with the public API key only
func (s *IdentityService) doRequest(method, path, apiKey string, payload interface{}) ([]byte, int, error) {
	return s.execute(method, path, apiKey, "", payload)
}

// doAuthedRequest executes a provider call carrying a bearer token
func (s *IdentityService) doAuthedRequest(method, path, bearer string, payload interface{}) ([]byte, int, error) {
	return s.execute(method, path, s.apiKey, bearer, payload)
}

func (s *IdentityService) execute(method, path, apiKey, bearer string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("apikey", apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call identity provider: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close provider response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read provider response: %w", err)
	}

	return body, resp.StatusCode, nil
}
