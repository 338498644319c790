// internal/adapters/in/http/store/handler/merge_handler.go
package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/middleware"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

// MergeHandler absorbs the guest cart into the signed-in user's cart.
// Fired by the frontend once per sign-in event; registered behind
// RequireUser.
//
//	POST /store/auth/merge
type MergeHandler struct {
	merge *usecase.MergeUsecase
}

func NewMergeHandler(merge *usecase.MergeUsecase) *MergeHandler {
	return &MergeHandler{merge: merge}
}

type mergeRequest struct {
	AuthEventID string `json:"auth_event_id"`
}

type mergeResponse struct {
	Merged         bool                   `json:"merged"`
	RedirectToCart bool                   `json:"redirect_to_cart"`
	Items          []cartdom.SnapshotLine `json:"items"`
}

func (h *MergeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The event id may arrive in the body or, with an empty body, in the
	// X-Auth-Event header.
	var req mergeRequest
	if err := readJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.AuthEventID) == "" {
		req.AuthEventID = r.Header.Get("X-Auth-Event")
	}

	ctx := r.Context()
	_, cred := identity(r)
	uid := middleware.UserUID(ctx)
	guestSID := middleware.GuestSessionID(ctx)

	result, err := h.merge.MergeGuestCartIntoUser(ctx, req.AuthEventID, cred, guestSID, uid)
	if err != nil {
		if errors.Is(err, usecase.ErrMergeInvalidArgument) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[merge_handler] merge failed: %v", err)
		writeErr(w, http.StatusBadGateway, "merge unavailable")
		return
	}

	resp := mergeResponse{Merged: result.Merged, RedirectToCart: result.RedirectToCart, Items: []cartdom.SnapshotLine{}}
	if result.Snapshot != nil && result.Snapshot.Lines != nil {
		resp.Items = result.Snapshot.Lines
	}
	writeJSON(w, http.StatusOK, resp)
}
