package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clientflow/clientflow/pkg/auth"
	"github.com/clientflow/clientflow/pkg/config"
)

func authRouter(cfg config.AuthConfig) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seenUserID string
	r := gin.New()
	r.Use(Auth(cfg))
	r.GET("/probe", func(c *gin.Context) {
		seenUserID = c.GetString("user_id")
		c.Status(http.StatusOK)
	})
	return r, &seenUserID
}

func TestAuthRequiresHeader(t *testing.T) {
	router, _ := authRouter(config.AuthConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a header, got %d", w.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	router, _ := authRouter(config.AuthConfig{})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer   "} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestAuthShapeOnlyWithoutSecret(t *testing.T) {
	router, _ := authRouter(config.AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer any-opaque-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected shape-only acceptance without a secret, got %d", w.Code)
	}
}

func TestAuthValidatesJWT(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	router, seenUserID := authRouter(cfg)

	userID := uuid.New()
	manager := auth.NewSessionTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	token, err := manager.Generate(userID, "member")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid token, got %d", w.Code)
	}
	if *seenUserID != userID.String() {
		t.Fatalf("expected user id %s in context, got %q", userID, *seenUserID)
	}
}

func TestAuthRejectsForgedJWT(t *testing.T) {
	router, _ := authRouter(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})

	forged := auth.NewSessionTokenManager([]byte("other-secret"), time.Hour)
	token, err := forged.Generate(uuid.New(), "member")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a token signed with the wrong key, got %d", w.Code)
	}
}
