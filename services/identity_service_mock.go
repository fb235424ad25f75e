package services

import (
	"fmt"
	"sync"
	"time"
)

// MockIdentityService is an in-memory implementation of IdentityInterface
// for testing. Tokens and users are registered directly by tests.
type MockIdentityService struct {
	mu          sync.RWMutex
	tokens      map[string]Identity // bearer token -> identity
	users       map[string]Identity // user id -> identity
	credentials map[string]string   // email -> password
	nextID      int

	// ProviderDown simulates an unreachable provider: every call fails.
	ProviderDown bool
}

// NewMockIdentityService creates a new mock identity service
func NewMockIdentityService() *MockIdentityService {
	return &MockIdentityService{
		tokens:      make(map[string]Identity),
		users:       make(map[string]Identity),
		credentials: make(map[string]string),
	}
}

// AddUser registers an identity and maps the given token to it
func (m *MockIdentityService) AddUser(identity Identity, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	m.users[identity.ID] = identity
	if token != "" {
		m.tokens[token] = identity
	}
}

func (m *MockIdentityService) SignUp(name, email, password string) (*AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ProviderDown {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrInvalidCredentials
		}
	}

	m.nextID++
	identity := Identity{
		ID:        fmt.Sprintf("mock-user-%d", m.nextID),
		Email:     email,
		Name:      name,
		Role:      RoleUser,
		Confirmed: true,
		CreatedAt: time.Now(),
	}
	token := fmt.Sprintf("mock-token-%d", m.nextID)

	m.users[identity.ID] = identity
	m.tokens[token] = identity
	m.credentials[email] = password

	return &AuthSession{Token: token, Identity: identity}, nil
}

func (m *MockIdentityService) SignIn(email, password string) (*AuthSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ProviderDown {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	if stored, ok := m.credentials[email]; !ok || stored != password {
		return nil, ErrInvalidCredentials
	}
	for token, identity := range m.tokens {
		if identity.Email == email {
			idCopy := identity
			return &AuthSession{Token: token, Identity: idCopy}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *MockIdentityService) GetUser(accessToken string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ProviderDown {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	identity, ok := m.tokens[accessToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &identity, nil
}

func (m *MockIdentityService) ListUsers() ([]Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ProviderDown {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	identities := make([]Identity, 0, len(m.users))
	for _, identity := range m.users {
		identities = append(identities, identity)
	}
	return identities, nil
}

func (m *MockIdentityService) GetUserByID(id string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ProviderDown {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	identity, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &identity, nil
}

func (m *MockIdentityService) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ProviderDown {
		return fmt.Errorf("mock provider unavailable")
	}
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	for token, identity := range m.tokens {
		if identity.ID == id {
			delete(m.tokens, token)
		}
	}
	return nil
}

// UserExists checks whether an identity is still registered (for test assertions)
func (m *MockIdentityService) UserExists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok
}
