// Package app wires configuration, persistence, the SDK client and the
// receipt archive into the operations used by the CLI and the verification
// server.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/univerify/univerify/internal/config"
	"github.com/univerify/univerify/internal/database"
	"github.com/univerify/univerify/internal/metrics"
	"github.com/univerify/univerify/internal/repository"
	"github.com/univerify/univerify/internal/repository/sqlite"
	"github.com/univerify/univerify/internal/storage"
	"github.com/univerify/univerify/internal/wallet"
	univerify "github.com/univerify/univerify/sdk/go"
)

// Version is reported by the health endpoint. Overridden at build time with
// -ldflags "-X github.com/univerify/univerify/internal/app.Version=...".
var Version = "dev"

// Options override parts of the configuration for a single invocation.
type Options struct {
	// Token replaces the stored session token without persisting it.
	Token string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// HTTPClient replaces the instrumented backend client.
	HTTPClient *http.Client
	// Archive replaces the receipt archive built from the configuration.
	Archive *storage.Archive
}

// App holds the long-lived dependencies of a CLI invocation or server.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Repos   *repository.Repositories
	Client  *univerify.Client
	Archive *storage.Archive // nil when receipts are disabled
}

// New builds an App from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repos, err := sqlite.NewRepositories(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Repos:  repos,
	}

	if err := a.init(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	var signer univerify.Signer
	if a.Config.WalletKey != "" {
		keySigner, err := wallet.NewKeySigner(a.Config.WalletKey)
		if err != nil {
			return fmt.Errorf("loading wallet key: %w", err)
		}
		signer = keySigner
		a.Logger.Debug("wallet signer loaded", "address", keySigner.Address())
	}

	var session *univerify.Session
	if opts.Token != "" {
		session = univerify.NewStaticSession(opts.Token, signer)
	} else {
		var err error
		session, err = univerify.NewSession(ctx, a.Repos.Sessions, signer)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   a.Config.RequestTimeout,
			Transport: metrics.InstrumentTransport(nil),
		}
	}

	client, err := univerify.NewClient(univerify.ClientConfig{
		BaseURL:    a.Config.APIURL,
		Session:    session,
		HTTPClient: httpClient,
		Logger:     a.Logger,
	})
	if err != nil {
		return err
	}
	a.Client = client

	a.Archive = opts.Archive
	if a.Archive == nil {
		a.Archive, err = openArchive(ctx, a.Config)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (a *App) Close() {
	a.Repos.Close()
}

// Session returns the client session.
func (a *App) Session() *univerify.Session {
	return a.Client.Session()
}

// UploadOptions returns upload options built from the configuration.
func (a *App) UploadOptions() *univerify.UploadOptions {
	confirm := a.ConfirmOptions()
	return &univerify.UploadOptions{
		MaxSize:      a.Config.MaxFileSize,
		AllowedTypes: a.Config.AllowedTypes,
		Confirmation: &confirm,
	}
}

// ConfirmOptions returns poller options built from the configuration.
func (a *App) ConfirmOptions() univerify.ConfirmOptions {
	return univerify.ConfirmOptions{
		MaxRetries: a.Config.ConfirmRetries,
		Delay:      a.Config.ConfirmDelay,
	}
}

// VerificationLink builds the shareable link for a document.
func (a *App) VerificationLink(documentID, hash string) string {
	return univerify.VerificationLink(a.Config.AppURL, documentID, hash)
}
