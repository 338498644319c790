// internal/adapters/in/http/store/handler/checkout_handler.go
package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/middleware"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

// CheckoutHandler serves the checkout workflow endpoints.
//
//	POST   /store/checkout                 enter checkout (mount)
//	GET    /store/checkout                 current workflow state
//	PATCH  /store/checkout                 update form fields
//	DELETE /store/checkout                 abandon the workflow
//	POST   /store/checkout/next            advance (validates current step)
//	POST   /store/checkout/prev            go back (never validates)
//	GET    /store/checkout/totals          derived totals
//	GET    /store/checkout/methods         shipping methods for the destination
//	POST   /store/checkout/start           create the gateway session
//	GET    /store/checkout/return/success  gateway success return
//	GET    /store/checkout/return/cancel   gateway cancel return
type CheckoutHandler struct {
	checkout *usecase.CheckoutUsecase
	payment  *usecase.PaymentSessionUsecase
	orders   *usecase.OrderUsecase

	// Browser-facing origin the gateway return routes redirect back to.
	frontendOrigin string
}

func NewCheckoutHandler(checkout *usecase.CheckoutUsecase, payment *usecase.PaymentSessionUsecase, orders *usecase.OrderUsecase, frontendOrigin string) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:       checkout,
		payment:        payment,
		orders:         orders,
		frontendOrigin: strings.TrimRight(strings.TrimSpace(frontendOrigin), "/"),
	}
}

type sessionResponse struct {
	Session     *checkoutdom.Session    `json:"session"`
	FieldErrors checkoutdom.FieldErrors `json:"field_errors,omitempty"`
}

type mountResponse struct {
	Session *checkoutdom.Session   `json:"session"`
	Items   []cartdom.SnapshotLine `json:"items"`
}

type methodView struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Price        float64 `json:"price"`
	EstDaysMin   int     `json:"est_days_min"`
	EstDaysMax   int     `json:"est_days_max"`
	DomesticOnly bool    `json:"domestic_only"`
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, cred := identity(r)

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/store/checkout"), "/")
	switch {
	case rest == "":
		switch r.Method {
		case http.MethodPost:
			h.mount(w, r, cred, owner)
		case http.MethodGet:
			h.session(w, r, owner)
		case http.MethodPatch:
			h.update(w, r, owner)
		case http.MethodDelete:
			h.abandon(w, r, owner)
		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case rest == "next" && r.Method == http.MethodPost:
		h.next(w, r, owner)
	case rest == "prev" && r.Method == http.MethodPost:
		h.prev(w, r, owner)
	case rest == "totals" && r.Method == http.MethodGet:
		h.totals(w, r, cred, owner)
	case rest == "methods" && r.Method == http.MethodGet:
		h.methods(w, r, owner)
	case rest == "start" && r.Method == http.MethodPost:
		h.start(w, r, cred, owner)
	case rest == "return/success" && r.Method == http.MethodGet:
		h.returnSuccess(w, r, cred, owner)
	case rest == "return/cancel" && r.Method == http.MethodGet:
		h.returnCancel(w, r, owner)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *CheckoutHandler) mount(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	sess, snap, err := h.checkout.Mount(r.Context(), cred, owner)
	if err != nil {
		if errors.Is(err, usecase.ErrCartEmpty) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":    "cart is empty",
				"redirect": "/cart",
			})
			return
		}
		h.fail(w, "mount", err)
		return
	}
	items := snap.Lines
	if items == nil {
		items = []cartdom.SnapshotLine{}
	}
	writeJSON(w, http.StatusOK, mountResponse{Session: sess, Items: items})
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	sess, err := h.checkout.Session(r.Context(), owner)
	if err != nil {
		h.fail(w, "session", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (h *CheckoutHandler) update(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	var patch usecase.SessionPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := h.checkout.Update(r.Context(), owner, patch)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (h *CheckoutHandler) next(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	sess, fieldErrs, err := h.checkout.Next(r.Context(), owner)
	if err != nil {
		h.fail(w, "next", err)
		return
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, sessionResponse{Session: sess, FieldErrors: fieldErrs})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (h *CheckoutHandler) prev(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	sess, err := h.checkout.Prev(r.Context(), owner)
	if err != nil {
		h.fail(w, "prev", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (h *CheckoutHandler) totals(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	totals, err := h.checkout.Totals(r.Context(), cred, owner)
	if err != nil {
		h.fail(w, "totals", err)
		return
	}
	writeJSON(w, http.StatusOK, totals.Rounded())
}

func (h *CheckoutHandler) methods(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	methods, err := h.checkout.ShippingMethods(r.Context(), owner)
	if err != nil {
		h.fail(w, "methods", err)
		return
	}
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, methodView{
			ID:           m.ID,
			Label:        m.Label,
			Price:        pricing.RoundCents(m.Base),
			EstDaysMin:   m.EstDaysMin,
			EstDaysMax:   m.EstDaysMax,
			DomesticOnly: m.DomesticOnly,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": views})
}

func (h *CheckoutHandler) start(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	redirectURL, err := h.payment.StartCheckout(r.Context(), cred, owner, middleware.GuestSessionID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPaymentCartEmpty):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":    "cart is empty",
				"redirect": "/cart",
			})
		case errors.Is(err, usecase.ErrPaymentStepIncomplete):
			writeErr(w, http.StatusUnprocessableEntity, "checkout is incomplete")
		case errors.Is(err, usecase.ErrPaymentMalformedRedirect):
			log.Printf("[checkout_handler] start rejected: %v", err)
			writeErr(w, http.StatusBadGateway, "payment gateway returned an invalid redirect")
		default:
			h.fail(w, "start", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": redirectURL})
}

func (h *CheckoutHandler) returnSuccess(w http.ResponseWriter, r *http.Request, cred cartdom.Credentials, owner cartdom.Owner) {
	o, err := h.orders.CompleteOrder(r.Context(), cred, owner)
	if err != nil {
		log.Printf("[checkout_handler] complete failed: %v", err)
		h.redirectOrJSON(w, r, "/checkout/error", map[string]string{"error": "order completion failed"}, http.StatusBadGateway)
		return
	}
	target := "/checkout/success"
	body := map[string]string{"status": "completed"}
	if o != nil {
		target += "?order=" + o.ID
		body["order_id"] = o.ID
	}
	h.redirectOrJSON(w, r, target, body, http.StatusOK)
}

func (h *CheckoutHandler) returnCancel(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	if err := h.orders.CancelCheckout(r.Context(), owner); err != nil {
		log.Printf("[checkout_handler] cancel failed: %v", err)
	}
	h.redirectOrJSON(w, r, "/checkout", map[string]string{"status": "cancelled"}, http.StatusOK)
}

// redirectOrJSON sends the browser back to the storefront frontend when one
// is configured; otherwise answers JSON (local development).
func (h *CheckoutHandler) redirectOrJSON(w http.ResponseWriter, r *http.Request, path string, body map[string]string, status int) {
	if h.frontendOrigin != "" {
		http.Redirect(w, r, h.frontendOrigin+path, http.StatusSeeOther)
		return
	}
	writeJSON(w, status, body)
}

func (h *CheckoutHandler) abandon(w http.ResponseWriter, r *http.Request, owner cartdom.Owner) {
	if err := h.checkout.Abandon(r.Context(), owner); err != nil {
		h.fail(w, "abandon", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrCheckoutInvalidArgument), errors.Is(err, usecase.ErrPaymentInvalidOrigin):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkoutdom.ErrSessionNotFound):
		writeErr(w, http.StatusNotFound, "no checkout in progress")
	case errors.Is(err, checkoutdom.ErrInvalidStep):
		writeErr(w, http.StatusConflict, "invalid checkout step")
	default:
		log.Printf("[checkout_handler] %s failed: %v", op, err)
		writeErr(w, http.StatusBadGateway, "checkout service unavailable")
	}
}
