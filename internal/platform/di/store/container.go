// internal/platform/di/store/container.go
package store

import (
	"errors"
	"log"
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/cartapi"
	outfs "github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/firestore"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/db"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/gateway"
	gcso "github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/gcs"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/mail"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/query"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/infra/session"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/platform/di/shared"
)

// Container is the storefront DI container.
// Pure DI: build deps only. No routing branching.
type Container struct {
	Infra *shared.Infra

	// Usecases
	StoreUC    *usecase.CartStoreUsecase
	MergeUC    *usecase.MergeUsecase
	CheckoutUC *usecase.CheckoutUsecase
	PaymentUC  *usecase.PaymentSessionUsecase
	OrderUC    *usecase.OrderUsecase

	// Queries
	CatalogQ *query.CatalogQuery

	// Guest session cookie signing
	Sessions *session.Manager
}

// NewContainer wires the storefront usecases from shared infra.
func NewContainer(inf *shared.Infra) (*Container, error) {
	if inf == nil || inf.Config == nil {
		return nil, errors.New("di.store: infra is nil")
	}
	cfg := inf.Config

	cont := &Container{Infra: inf}

	// Guest session cookie signer
	mgr, err := session.NewManager(cfg.GuestSessionSecret, session.DefaultTTL)
	if err != nil {
		return nil, err
	}
	cont.Sessions = mgr

	// Outbound: commerce API client
	remote := cartapi.NewClient(cfg.CartAPIBaseURL)

	// Outbound: caches (firestore for hosted, sqlite for local/single node)
	var (
		snapCache  cartdom.SnapshotCache
		sessStore  checkoutdom.SessionStore
		claimStore checkoutdom.ClaimStore
	)
	if cfg.UseFirestoreCache() {
		snapCache = outfs.NewSnapshotCacheFS(inf.Firestore)
		fsSessions := outfs.NewCheckoutSessionStoreFS(inf.Firestore)
		sessStore, claimStore = fsSessions, fsSessions
		log.Printf("[di.store] cache backend: firestore")
	} else {
		if inf.SQLite == nil {
			return nil, errors.New("di.store: sqlite cache selected but not initialized")
		}
		snapCache = inf.SQLite.SnapshotCache()
		sqlSessions := inf.SQLite.SessionStore()
		sessStore, claimStore = sqlSessions, sqlSessions
		log.Printf("[di.store] cache backend: sqlite")
	}

	// Outbound: catalog lookup + image resolution
	lookup := outfs.NewCatalogLookupFS(inf.Firestore)
	var images catalogdom.ImageURLResolver
	if inf.GCS != nil && strings.TrimSpace(cfg.ProductImageBkt) != "" {
		images = gcso.NewProductImageResolverGCS(inf.GCS, cfg.ProductImageBkt)
	} else {
		log.Printf("[di.store] WARN: product image bucket not configured; using pass-through resolver")
		images = gcso.PassthroughResolver{}
	}
	resolver := query.NewProductResolver(lookup, images)

	// Usecases
	cont.StoreUC = usecase.NewCartStoreUsecase(remote, snapCache, resolver)
	cont.MergeUC = usecase.NewMergeUsecase(cont.StoreUC, remote)
	cont.CheckoutUC = usecase.NewCheckoutUsecase(sessStore, cont.StoreUC)

	gw := gateway.NewClient(cfg.GatewayBaseURL, inf.GatewayAPIKey)
	paymentUC, err := usecase.NewPaymentSessionUsecase(gw, cont.StoreUC, sessStore, claimStore, cfg.PublicOrigin)
	if err != nil {
		return nil, err
	}
	cont.PaymentUC = paymentUC

	var repo orderdom.Repository
	if inf.Postgres != nil {
		repo = db.NewOrderRepositoryPG(inf.Postgres.Client)
	}
	var mailer usecase.ConfirmationSender
	if inf.SendGridAPIKey != "" && strings.TrimSpace(cfg.OrderEmailFrom) != "" {
		mailer = mail.NewSendGridClient(inf.SendGridAPIKey, cfg.OrderEmailFrom)
	} else {
		log.Printf("[di.store] confirmation email disabled (SENDGRID_API_KEY or ORDER_EMAIL_FROM empty)")
	}
	cont.OrderUC = usecase.NewOrderUsecase(repo, mailer, cont.StoreUC, sessStore, claimStore)

	// Queries
	cont.CatalogQ = query.NewCatalogQuery(resolver)

	return cont, nil
}
