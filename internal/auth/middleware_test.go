package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil)

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(UserIDKey).(uint); !ok {
			t.Error("expected user id in request context")
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("TokenRenewed", func(t *testing.T) {
		// Expires in 11 hours, less than TokenDuration/2
		claims := jwt.MapClaims{
			"user_id": uint(1),
			"exp":     time.Now().Add(11 * time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(cfg.JWTSecret))

		req, _ := http.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr := httptest.NewRecorder()

		handler.AuthMiddleware(nextHandler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				found = true
				if c.Value == tokenString {
					t.Errorf("expected new token value, but got the old one")
				}
				break
			}
		}
		if !found {
			t.Errorf("expected new auth_token cookie to be set")
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": uint(1),
			"exp":     time.Now().Add(13 * time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(cfg.JWTSecret))

		req, _ := http.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr := httptest.NewRecorder()

		handler.AuthMiddleware(nextHandler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				t.Errorf("did not expect a new auth_token cookie to be set")
			}
		}
	})

	t.Run("NoCookie", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()

		handler.AuthMiddleware(http.NotFoundHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", rr.Code)
		}
	})
}

func signedToken(t *testing.T, secret string, userID uint, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestSessionMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil)

	// next echoes the resolved user id, 0 when anonymous.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(UserIDKey).(uint)
		fmt.Fprintf(w, "%d", userID)
	})

	serve := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "auth_token", Value: cookie})
		}
		rr := httptest.NewRecorder()
		handler.SessionMiddleware(next).ServeHTTP(rr, req)
		return rr
	}

	t.Run("Anonymous", func(t *testing.T) {
		rr := serve("")
		if rr.Code != http.StatusOK || rr.Body.String() != "0" {
			t.Errorf("expected anonymous pass-through, got %d %q", rr.Code, rr.Body.String())
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Error("did not expect a cookie for an anonymous request")
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rr := serve("garbage")
		if rr.Code != http.StatusOK || rr.Body.String() != "0" {
			t.Errorf("expected invalid token to pass through anonymously, got %d %q", rr.Code, rr.Body.String())
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Error("did not expect a cookie for an invalid token")
		}
	})

	t.Run("Renewed", func(t *testing.T) {
		old := signedToken(t, cfg.JWTSecret, 7, 2*time.Hour)
		rr := serve(old)
		if rr.Body.String() != "7" {
			t.Errorf("expected user 7 in context, got %q", rr.Body.String())
		}
		cookies := rr.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != "auth_token" || cookies[0].Value == old {
			t.Fatalf("expected a renewed auth_token cookie, got %v", cookies)
		}
		if userID, _, err := handler.parseToken(cookies[0].Value); err != nil || userID != 7 {
			t.Errorf("renewed token does not resolve to user 7: %d %v", userID, err)
		}
	})

	t.Run("FreshNotRenewed", func(t *testing.T) {
		rr := serve(signedToken(t, cfg.JWTSecret, 7, 20*time.Hour))
		if rr.Body.String() != "7" {
			t.Errorf("expected user 7 in context, got %q", rr.Body.String())
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Error("did not expect a fresh token to be renewed")
		}
	})
}

func TestAuthMiddleware_ReusesResolvedSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, cfg.JWTSecret, 3, 2*time.Hour)})
	rr := httptest.NewRecorder()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.SessionMiddleware(handler.AuthMiddleware(ok)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", rr.Code)
	}
	if n := len(rr.Result().Cookies()); n != 1 {
		t.Errorf("expected the session to be renewed exactly once, got %d cookies", n)
	}
}
