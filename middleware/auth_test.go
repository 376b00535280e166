package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"webasset/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key"

type syncerStub struct {
	err    error
	synced []string
}

func (s *syncerStub) SyncFromClaims(authentikID, username, email, fullName string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.synced = append(s.synced, authentikID)
	return &model.User{UserID: "user-1", AuthentikID: authentikID, Email: email, IsActive: true}, nil
}

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, authHeader string, syncer *syncerStub) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/banking/sessions", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthMiddleware(testSecret, "authentik", syncer)(c)
	return c, w
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	syncer := &syncerStub{}
	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub":   "ak-123",
		"email": "jane@example.com",
		"iss":   "authentik",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	c, w := runAuth(t, "Bearer "+token, syncer)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected pass-through, got %d: %s", w.Code, w.Body.String())
	}
	userID, _ := c.Get("user_id")
	if userID != "user-1" {
		t.Errorf("Expected user_id on context, got %v", userID)
	}
	if len(syncer.synced) != 1 || syncer.synced[0] != "ak-123" {
		t.Errorf("Expected user sync for ak-123, got %v", syncer.synced)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.token"},
		{
			name: "wrong secret",
			header: "Bearer " + mintToken(t, "other-secret", jwt.MapClaims{
				"sub": "ak-123",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			header: "Bearer " + mintToken(t, testSecret, jwt.MapClaims{
				"sub": "ak-123",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "wrong issuer",
			header: "Bearer " + mintToken(t, testSecret, jwt.MapClaims{
				"sub": "ak-123",
				"iss": "someone-else",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing subject",
			header: "Bearer " + mintToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &syncerStub{}
			_, w := runAuth(t, tt.header, syncer)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", w.Code)
			}
			if len(syncer.synced) != 0 {
				t.Errorf("Rejected token must not sync users, got %v", syncer.synced)
			}
		})
	}
}
