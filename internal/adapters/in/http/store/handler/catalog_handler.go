// internal/adapters/in/http/store/handler/catalog_handler.go
package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/query"
	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
)

// CatalogHandler serves the product detail used by the storefront.
//
//	GET /store/products/{id}
//
// Detail loads are sequenced per viewer: when a newer load for the same
// viewer starts before this one resolves, the older result is dropped and
// the request answers 204.
type CatalogHandler struct {
	catalog *query.CatalogQuery
}

func NewCatalogHandler(catalog *query.CatalogQuery) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	productID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/store/products"), "/")
	if productID == "" || strings.Contains(productID, "/") {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	owner, _ := identity(r)
	p, err := h.catalog.LoadDetail(r.Context(), owner.CacheKey(), productID)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrStaleResponse):
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, catalogdom.ErrInvalidProductID):
			writeErr(w, http.StatusBadRequest, "invalid product id")
		case errors.Is(err, catalogdom.ErrNotFound):
			writeErr(w, http.StatusNotFound, "product not found")
		default:
			log.Printf("[catalog_handler] load failed: %v", err)
			writeErr(w, http.StatusBadGateway, "catalog unavailable")
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}
