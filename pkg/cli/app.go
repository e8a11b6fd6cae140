package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/config"
	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
	"github.com/Ngote-Technologies/skedlii-go/pkg/events"
	"github.com/Ngote-Technologies/skedlii-go/pkg/observability"
	"github.com/Ngote-Technologies/skedlii-go/pkg/orgs"
	"github.com/Ngote-Technologies/skedlii-go/pkg/session"
	"github.com/Ngote-Technologies/skedlii-go/pkg/transport"
)

// App wires the client stack together for one CLI invocation
type App struct {
	Config        *config.Config
	Client        *transport.Client
	Session       *session.Store
	Organizations *orgs.Store
	Invitations   *api.InvitationService
	Auth          *api.AuthService

	files *credentials.FileStore
}

// consoleNotifier surfaces session expiry on the terminal
type consoleNotifier struct{}

func (consoleNotifier) SessionExpired(message string) {
	fmt.Fprintln(os.Stderr, color.YellowString(message))
}

// newApp loads configuration and assembles the full client stack: file-backed
// credential storage, the dual-version transport, and the session and
// organization stores restored from disk
func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := observability.NewLogger(cfg.LogLevel, os.Stderr)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	bus := events.NewBus(log)

	files, err := credentials.NewFileStore(cfg.StateDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory: %w", err)
	}
	tokens := credentials.NewTokenStore(files)

	if loadTheme(files) == themePlain {
		color.NoColor = true
	}

	// Another CLI invocation may refresh tokens or switch organizations while
	// this one runs; watching keeps the cache honest.
	if err := files.Watch(func(key string) {
		log.WithField("key", key).Debug("state changed on disk")
	}); err != nil {
		log.WithError(err).Warn("state watching unavailable")
	}

	client := transport.New(transport.Options{
		V1BaseURL:  cfg.API.V1BaseURL,
		V2BaseURL:  cfg.API.V2BaseURL,
		V2Enabled:  cfg.API.V2Enabled,
		V2Features: cfg.API.V2Features,
		Timeout:    cfg.API.Timeout,
		Tokens:     tokens,
		Notifier:   consoleNotifier{},
		Logger:     log,
		Metrics:    metrics,
	})

	auth := api.NewAuthService(client, log, metrics)
	orgService := api.NewOrganizationService(client)

	sessionStore := session.NewStore(auth, client, tokens, files, bus, log)
	orgStore := orgs.NewStore(orgService, files, bus, log)

	sessionStore.SetOrganizationRoleProvider(orgStore.ActiveRole)
	client.SetOrganizationProvider(orgStore.ActiveID)

	return &App{
		Config:        cfg,
		Client:        client,
		Session:       sessionStore,
		Organizations: orgStore,
		Invitations:   api.NewInvitationService(client),
		Auth:          auth,
		files:         files,
	}, nil
}

// Close releases the file store watcher
func (a *App) Close() error {
	return a.files.Close()
}

func successf(format string, args ...any) {
	fmt.Println(color.GreenString(format, args...))
}

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString(format, args...))
}
