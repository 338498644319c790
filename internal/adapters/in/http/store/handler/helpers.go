// internal/adapters/in/http/store/handler/helpers.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/middleware"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var errBodyTooLarge = errors.New("request body too large")

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

// identity derives the cart owner and the credentials forwarded to the
// commerce API from what the middleware chain put on the context.
func identity(r *http.Request) (cartdom.Owner, cartdom.Credentials) {
	ctx := r.Context()
	cred := cartdom.Credentials{
		BearerToken:  middleware.BearerToken(ctx),
		GuestSession: middleware.GuestToken(ctx),
	}
	if uid := middleware.UserUID(ctx); uid != "" {
		return cartdom.UserOwner(uid), cred
	}
	return cartdom.GuestOwner(middleware.GuestSessionID(ctx)), cred
}
