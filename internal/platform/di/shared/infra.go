// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"cloud.google.com/go/storage"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	sqlitestore "github.com/Hephaestack/pnoh-eshop-sub000/internal/adapters/out/sqlite"
	appcfg "github.com/Hephaestack/pnoh-eshop-sub000/internal/infra/config"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/infra/database"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/GCS/SecretManager/Postgres/sqlite)
// - owns config and secrets resolved once at boot
//
// Infra must NOT depend on routers, handlers, or queries.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	Postgres      *database.DB
	SQLite        *sqlitestore.Store

	// Secrets (resolved once; env value wins over Secret Manager)
	GatewayAPIKey  string
	SendGridAPIKey string
}

// NewInfra initializes shared infra.
// Firestore is strict (catalog lives there). Firebase/Auth, SecretManager,
// GCS and Postgres are best-effort (warn + continue with the feature off).
func NewInfra(ctx context.Context) (*Infra, error) {
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, err
	}

	projectID := strings.TrimSpace(cfg.GCPProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set GCP_PROJECT_ID)")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: projectID,
	}

	// Credentials file (optional; mainly for local dev)
	var clientOpts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.GCPCreds); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients")
	} else {
		log.Printf("[shared.infra] Using Application Default Credentials")
	}

	// 1) Optional: Secret Manager client
	{
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: secretmanager.NewClient failed: %v (secret-backed keys disabled)", err)
			sm = nil
		}
		inf.SecretManager = sm
	}

	// 2) Firestore (strict; catalog + optional cache backend)
	{
		fsClient, err := firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[shared.infra] Firestore connected project=%s", inf.ProjectID)
	}

	// 3) GCS (best-effort; product images fall back to pass-through)
	{
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: storage.NewClient failed: %v (product image resolution disabled)", err)
			gcsClient = nil
		}
		inf.GCS = gcsClient
	}

	// 4) Firebase App/Auth (best-effort; user endpoints 503 without it)
	{
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: inf.ProjectID}, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: firebase app init failed: %v", err)
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Printf("[shared.infra] WARN: firebase auth init failed: %v", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[shared.infra] Firebase Auth initialized")
			}
		}
	}

	// 5) Postgres receipts (best-effort; orders endpoints disabled without it)
	if cfg.OrdersEnabled() {
		db, err := database.NewConnection(cfg.PostgresDSN)
		if err != nil {
			log.Printf("[shared.infra] WARN: postgres init failed: %v (order receipts disabled)", err)
		} else {
			inf.Postgres = db
		}
	}

	// 6) sqlite cache (strict when selected as the cache backend)
	if !cfg.UseFirestoreCache() {
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: sqlite open failed (path=%s): %w", cfg.SQLitePath, err)
		}
		inf.SQLite = store
		log.Printf("[shared.infra] sqlite cache opened path=%s", cfg.SQLitePath)
	}

	// 7) Secrets (resolve once; env value wins)
	inf.GatewayAPIKey = inf.resolveSecret(ctx, cfg.GatewayAPIKey, cfg.GatewayKeySecret, "gateway api key")
	inf.SendGridAPIKey = inf.resolveSecret(ctx, cfg.SendGridAPIKey, cfg.SendGridAPIKeySecret, "sendgrid api key")

	return inf, nil
}

// resolveSecret prefers the direct env value; otherwise reads the named
// secret's latest version from Secret Manager. Missing secrets warn and
// resolve to "".
func (i *Infra) resolveSecret(ctx context.Context, envValue, secretName, label string) string {
	if v := strings.TrimSpace(envValue); v != "" {
		return v
	}
	name := strings.TrimSpace(secretName)
	if name == "" {
		return ""
	}
	if i.SecretManager == nil {
		log.Printf("[shared.infra] WARN: %s secret %q requested but Secret Manager is unavailable", label, name)
		return ""
	}
	full := "projects/" + i.ProjectID + "/secrets/" + name + "/versions/latest"
	resp, err := i.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: full})
	if err != nil {
		log.Printf("[shared.infra] WARN: AccessSecretVersion failed for %s (%s): %v", label, full, err)
		return ""
	}
	if resp == nil || resp.Payload == nil {
		log.Printf("[shared.infra] WARN: empty payload for %s (%s)", label, full)
		return ""
	}
	return strings.TrimSpace(string(resp.Payload.Data))
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
	if i.SQLite != nil {
		_ = i.SQLite.Close()
	}
	return nil
}
