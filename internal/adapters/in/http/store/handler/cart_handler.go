// internal/adapters/in/http/store/handler/cart_handler.go
package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

// CartHandler serves the cart endpoints.
//
//	GET    /store/cart                  current snapshot + totals
//	DELETE /store/cart                  empty the cart
//	POST   /store/cart/items            add a product
//	PATCH  /store/cart/items/{line_id}  change a line quantity
//	DELETE /store/cart/items/{line_id}  remove a line
type CartHandler struct {
	store    *usecase.CartStoreUsecase
	checkout *usecase.CheckoutUsecase
}

func NewCartHandler(store *usecase.CartStoreUsecase, checkout *usecase.CheckoutUsecase) *CartHandler {
	return &CartHandler{store: store, checkout: checkout}
}

type cartResponse struct {
	Items     []cartdom.SnapshotLine `json:"items"`
	FetchedAt time.Time              `json:"fetched_at"`
	Totals    pricing.Totals         `json:"totals"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, cred := identity(r)

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/store/cart"), "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.getCart(w, r, cred, owner)
	case rest == "" && r.Method == http.MethodDelete:
		h.clearCart(w, r, cred, owner)
	case rest == "items" && r.Method == http.MethodPost:
		h.addItem(w, r, cred, owner)
	case strings.HasPrefix(rest, "items/"):
		lineID := strings.TrimPrefix(rest, "items/")
		switch r.Method {
		case http.MethodPatch:
			h.updateQuantity(w, r, cred, owner, lineID)
		case http.MethodDelete:
			h.removeItem(w, r, cred, owner, lineID)
		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	snap, err := h.store.GetCart(r.Context(), cred, owner)
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	h.respond(w, r, cred, owner, snap)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	var req addItemRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	snap, err := h.store.Add(r.Context(), cred, owner, req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, "add", err)
		return
	}
	h.respond(w, r, cred, owner, snap)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner, lineID string) {
	var req quantityRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	snap, err := h.store.UpdateQuantity(r.Context(), cred, owner, lineID, req.Quantity)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	h.respond(w, r, cred, owner, snap)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner, lineID string) {
	snap, err := h.store.Remove(r.Context(), cred, owner, lineID)
	if err != nil {
		h.fail(w, "remove", err)
		return
	}
	h.respond(w, r, cred, owner, snap)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	if err := h.store.ClearCart(r.Context(), cred, owner); err != nil {
		h.fail(w, "clear", err)
		return
	}
	snap, err := h.store.GetCart(r.Context(), cred, owner)
	if err != nil {
		h.fail(w, "clear", err)
		return
	}
	h.respond(w, r, cred, owner, snap)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner, snap *cartdom.Snapshot) {
	totals, err := h.checkout.Totals(r.Context(), cred, owner)
	if err != nil {
		h.fail(w, "totals", err)
		return
	}
	items := snap.Lines
	if items == nil {
		items = []cartdom.SnapshotLine{}
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Items:     items,
		FetchedAt: snap.FetchedAt,
		Totals:    totals.Rounded(),
	})
}

func (h *CartHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrCartInvalidArgument):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrCartLineNotFound):
		writeErr(w, http.StatusNotFound, "cart line not found")
	case errors.Is(err, catalogdom.ErrInvalidProductID):
		writeErr(w, http.StatusBadRequest, "invalid product id")
	case errors.Is(err, catalogdom.ErrNotFound):
		writeErr(w, http.StatusNotFound, "product not found")
	default:
		log.Printf("[cart_handler] %s failed: %v", op, err)
		writeErr(w, http.StatusBadGateway, "cart service unavailable")
	}
}
