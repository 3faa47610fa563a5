package auth

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionMiddleware resolves a valid session cookie into the request context
// and renews it once it is past half its lifetime. Requests without a valid
// session pass through; operations decide whether they need one.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		userID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		h.renewSession(w, userID, exp)

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware guards plain chi routes that are not huma operations.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Check for API Key Header
		if userID, ok := h.lookupAPIKey(r.Header.Get("X-API-KEY")); ok {
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// 2. Session already resolved by SessionMiddleware
		if userID, ok := r.Context().Value(UserIDKey).(uint); ok && userID != 0 {
			next.ServeHTTP(w, r)
			return
		}

		// 3. Fallback to JWT Cookie
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			if err == http.ErrNoCookie {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		userID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		h.renewSession(w, userID, exp)

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// renewSession reissues the cookie when the token is more than halfway
// through its duration.
func (h *AuthHandler) renewSession(w http.ResponseWriter, userID uint, exp int64) {
	if exp == 0 || time.Until(time.Unix(exp, 0)) >= TokenDuration/2 {
		return
	}
	newToken, err := h.GenerateToken(userID)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    newToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})
}
