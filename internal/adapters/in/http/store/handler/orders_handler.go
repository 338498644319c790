// internal/adapters/in/http/store/handler/orders_handler.go
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/middleware"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
)

// OrdersHandler lists recorded order receipts for the signed-in user.
// Registered behind RequireUser.
//
//	GET /store/orders
//	GET /store/orders/{id}
type OrdersHandler struct {
	orders *usecase.OrderUsecase
}

func NewOrdersHandler(orders *usecase.OrderUsecase) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

func (h *OrdersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uid := middleware.UserUID(r.Context())
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/store/orders"), "/")
	if rest == "" {
		h.list(w, r, uid)
		return
	}
	h.get(w, r, uid, rest)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request, uid string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	list, err := h.orders.ListOrders(r.Context(), uid, limit)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	if list == nil {
		list = []orderdom.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request, uid, id string) {
	o, err := h.orders.GetOrder(r.Context(), uid, id)
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrOrdersDisabled):
		writeErr(w, http.StatusNotImplemented, "order history is not enabled")
	case errors.Is(err, usecase.ErrOrderInvalidArgument):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orderdom.ErrNotFound):
		writeErr(w, http.StatusNotFound, "order not found")
	default:
		log.Printf("[orders_handler] %s failed: %v", op, err)
		writeErr(w, http.StatusInternalServerError, "order lookup failed")
	}
}
