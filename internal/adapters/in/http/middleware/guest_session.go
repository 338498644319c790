// internal/adapters/in/http/middleware/guest_session.go
package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/infra/session"
)

const (
	ctxKeyGuestSessionID ctxKey = "guest_session_id"
	ctxKeyGuestToken     ctxKey = "guest_token"
)

// GuestSession guarantees every request carries a signed guest session
// cookie. A missing or tampered cookie is replaced with a fresh one.
func GuestSession(mgr *session.Manager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, sessionID := "", ""
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				if sid, err := mgr.Verify(c.Value); err == nil {
					token, sessionID = c.Value, sid
				} else {
					log.Printf("[guest_session] cookie rejected: %v", err)
				}
			}

			if token == "" {
				issued, sid, err := mgr.Issue()
				if err != nil {
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
					return
				}
				token, sessionID = issued, sid
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(mgr.TTL().Seconds()),
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ctxKeyGuestSessionID, sessionID)
			ctx = context.WithValue(ctx, ctxKeyGuestToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GuestSessionID(ctx context.Context) string {
	sid, _ := ctx.Value(ctxKeyGuestSessionID).(string)
	return sid
}

func GuestToken(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKeyGuestToken).(string)
	return tok
}
