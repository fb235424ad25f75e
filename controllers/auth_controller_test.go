package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/services"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.Message{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// mockAuthMiddleware injects a resolved identity the same way the real
// RequireAuth middleware does
func mockAuthMiddleware(identity *services.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityKey, identity)
		c.Next()
	}
}

func userIdentity(id string) *services.Identity {
	return &services.Identity{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Test User",
		Role:  services.RoleUser,
	}
}

func adminIdentity(id string) *services.Identity {
	return &services.Identity{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Test Admin",
		Role:  services.RoleAdmin,
	}
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response body %q: %v", w.Body.String(), err)
	}
	return response
}

func assertErrorCode(t *testing.T, response map[string]interface{}, code string) {
	t.Helper()
	assert.False(t, response["success"].(bool))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, code, errorData["code"])
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Successful signup",
			requestBody: map[string]interface{}{
				"name":     "New User",
				"email":    "new@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing name",
			requestBody: map[string]interface{}{
				"email":    "new@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Invalid email",
			requestBody: map[string]interface{}{
				"name":     "New User",
				"email":    "not-an-email",
				"password": "secret123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Short password",
			requestBody: map[string]interface{}{
				"name":     "New User",
				"email":    "new@example.com",
				"password": "abc",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := services.NewMockIdentityService()
			router := setupTestRouter()
			router.POST("/signup", NewAuthController(identity).Signup)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/signup", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := parseResponse(t, w)

			if tt.expectedError != "" {
				assertErrorCode(t, response, tt.expectedError)
				return
			}

			assert.True(t, response["success"].(bool))
			data := response["data"].(map[string]interface{})
			assert.NotEmpty(t, data["token"])
			assert.Equal(t, false, data["confirmationRequired"])
			user := data["user"].(map[string]interface{})
			assert.Equal(t, "new@example.com", user["email"])
			assert.Equal(t, "user", user["role"])
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	identity := services.NewMockIdentityService()
	router := setupTestRouter()
	router.POST("/signup", NewAuthController(identity).Signup)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "New User",
		"email":    "dup@example.com",
		"password": "secret123",
	})

	for i, expected := range []int{http.StatusCreated, http.StatusBadRequest} {
		req, _ := http.NewRequest(http.MethodPost, "/signup", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, expected, w.Code, "attempt %d", i+1)
	}
}

func TestLogin(t *testing.T) {
	identity := services.NewMockIdentityService()
	session, err := identity.SignUp("Existing User", "existing@example.com", "secret123")
	assert.NoError(t, err)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Successful login",
			requestBody: map[string]interface{}{
				"email":    "existing@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Wrong password",
			requestBody: map[string]interface{}{
				"email":    "existing@example.com",
				"password": "wrong",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "UNAUTHORIZED",
		},
		{
			name: "Unknown email",
			requestBody: map[string]interface{}{
				"email":    "nobody@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "UNAUTHORIZED",
		},
		{
			name: "Missing password",
			requestBody: map[string]interface{}{
				"email": "existing@example.com",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/login", NewAuthController(identity).Login)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := parseResponse(t, w)

			if tt.expectedError != "" {
				assertErrorCode(t, response, tt.expectedError)
				return
			}

			data := response["data"].(map[string]interface{})
			assert.Equal(t, session.Token, data["token"])
		})
	}
}

func TestMe(t *testing.T) {
	identity := services.NewMockIdentityService()
	router := setupTestRouter()
	router.GET("/me",
		mockAuthMiddleware(userIdentity("user-1")),
		NewAuthController(identity).Me,
	)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "user-1", data["id"])
	assert.Equal(t, "user", data["role"])
}
