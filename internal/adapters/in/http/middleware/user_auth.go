// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

type ctxKey string

const (
	ctxKeyUserUID     ctxKey = "user_uid"
	ctxKeyUserEmail   ctxKey = "user_email"
	ctxKeyBearerToken ctxKey = "bearer_token"
)

// UserAuth verifies a Firebase ID token when the request carries one.
// Requests without an Authorization header pass through as guests; a
// present but invalid token is rejected.
func UserAuth(authClient *fbauth.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
			if token == "" || token == raw {
				http.Error(w, `{"error":"malformed authorization header"}`, http.StatusUnauthorized)
				return
			}
			if authClient == nil {
				http.Error(w, `{"error":"auth is not configured"}`, http.StatusServiceUnavailable)
				return
			}

			decoded, err := authClient.VerifyIDToken(r.Context(), token)
			if err != nil {
				log.Printf("[user_auth] token rejected: %v", err)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserUID, decoded.UID)
			if email, ok := decoded.Claims["email"].(string); ok {
				ctx = context.WithValue(ctx, ctxKeyUserEmail, email)
			}
			ctx = context.WithValue(ctx, ctxKeyBearerToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not authenticate via UserAuth.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserUID(r.Context()) == "" {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserUID(ctx context.Context) string {
	uid, _ := ctx.Value(ctxKeyUserUID).(string)
	return uid
}

func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(ctxKeyUserEmail).(string)
	return email
}

func BearerToken(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKeyBearerToken).(string)
	return tok
}
