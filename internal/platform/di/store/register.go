// internal/platform/di/store/register.go
package store

import (
	"net/http"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/middleware"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/in/http/store/handler"
)

// Register mounts the storefront routes onto mux.
// Every route runs behind Recover > CORS > GuestSession > UserAuth;
// user-only routes additionally behind RequireUser.
func Register(mux *http.ServeMux, cont *Container) {
	if mux == nil || cont == nil {
		return
	}
	cfg := cont.Infra.Config

	cors := middleware.CORS(cfg.AllowedOrigin)
	guest := middleware.GuestSession(cont.Sessions, cfg.GuestCookieName)
	auth := middleware.UserAuth(cont.Infra.FirebaseAuth)

	chain := func(h http.Handler) http.Handler {
		return middleware.Recover(cors(guest(auth(h))))
	}
	userOnly := func(h http.Handler) http.Handler {
		return chain(middleware.RequireUser(h))
	}

	cartH := handler.NewCartHandler(cont.StoreUC, cont.CheckoutUC)
	checkoutH := handler.NewCheckoutHandler(cont.CheckoutUC, cont.PaymentUC, cont.OrderUC, cfg.AllowedOrigin)
	mergeH := handler.NewMergeHandler(cont.MergeUC)
	ordersH := handler.NewOrdersHandler(cont.OrderUC)
	catalogH := handler.NewCatalogHandler(cont.CatalogQ)

	mux.Handle("/store/cart", chain(cartH))
	mux.Handle("/store/cart/", chain(cartH))
	mux.Handle("/store/checkout", chain(checkoutH))
	mux.Handle("/store/checkout/", chain(checkoutH))
	mux.Handle("/store/auth/merge", userOnly(mergeH))
	mux.Handle("/store/orders", userOnly(ordersH))
	mux.Handle("/store/orders/", userOnly(ordersH))
	mux.Handle("/store/products/", chain(catalogH))
}
