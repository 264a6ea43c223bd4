package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/checkout/internal/application/directory"
	"github.com/cassiomorais/checkout/internal/application/methods"
	purchaseApp "github.com/cassiomorais/checkout/internal/application/purchase"
	"github.com/cassiomorais/checkout/internal/application/subscription"
	"github.com/cassiomorais/checkout/internal/dispatch"
	"github.com/cassiomorais/checkout/internal/gateway/stripegw"
	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/cassiomorais/checkout/internal/notify"
	fsrepo "github.com/cassiomorais/checkout/internal/repository/firestore"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Fanout  *dispatch.Fanout

	clients []*fsrepo.Client
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	var metrics *observability.Metrics
	if cfg.Observability.EnableMetrics {
		metrics = observability.NewMetrics(metricsNamespace, nil)
		logger.Info().Msg("Metrics initialized")
	}

	gw := stripegw.New(cfg.Stripe.APIKey)
	notifier := newNotifier(cfg.Notify)
	logger.Info().Str("provider", notifier.Name()).Msg("Out-of-band notifier selected")
	if metrics != nil {
		notifier = notify.Instrument(notifier, metrics.NotificationsTotal)
	}

	paths := fsrepo.Paths{
		Base:      cfg.Firestore.BasePath,
		Purchases: cfg.Firestore.PurchasesPath,
		Payments:  cfg.Firestore.PaymentsPath,
	}
	var fsOpts []option.ClientOption
	if cfg.Firestore.CredentialsFile != "" {
		fsOpts = append(fsOpts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	}

	dirCfg := directory.Config{
		OnboardingRefreshURL: cfg.Stripe.OnboardingRefreshURL,
		OnboardingReturnURL:  cfg.Stripe.OnboardingReturnURL,
	}
	methodsCfg := methods.Config{
		AttachSuccessURL: cfg.Stripe.AttachSuccessURL,
		AttachCancelURL:  cfg.Stripe.AttachCancelURL,
	}
	subCfg := subscription.Config{
		SuccessURL: cfg.Stripe.SubscribeSuccessURL,
		CancelURL:  cfg.Stripe.SubscribeCancelURL,
	}
	purchaseOpts := purchaseApp.Options{
		NotifyFrom:  cfg.Purchase.NotifyFrom,
		NotifyTitle: cfg.Purchase.NotifyTitle,
		NotifyBody:  cfg.Purchase.NotifyBody,
	}

	// Backend order follows the configured database order, so the slices are
	// filled by index while the clients connect concurrently.
	clients := make([]*fsrepo.Client, len(cfg.Firestore.DatabaseIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, databaseID := range cfg.Firestore.DatabaseIDs {
		g.Go(func() error {
			client, err := fsrepo.NewClient(gctx, cfg.Firestore.ProjectID, databaseID, paths, fsOpts...)
			if err != nil {
				return err
			}
			clients[i] = client
			logger.Info().Str("database", databaseID).Msg("Connected to Firestore")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range clients {
			if c != nil {
				c.Close()
			}
		}
		return nil, err
	}

	backends := make([]dispatch.Backend, 0, len(clients))
	for _, client := range clients {
		accounts := fsrepo.NewAccountRepository(client)
		purchases := fsrepo.NewPurchaseRepository(client)

		dir := directory.New(accounts, gw, dirCfg, logger)
		registry := methods.New(accounts, accounts, gw, methodsCfg)

		backends = append(backends, dispatch.Backend{
			DatabaseID:    client.DatabaseID(),
			Directory:     dir,
			Methods:       registry,
			Purchases:     purchaseApp.NewService(purchases, dir, registry, gw, notifier, purchaseOpts, logger),
			Subscriptions: subscription.New(accounts, gw, subCfg),
		})
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Fanout:  dispatch.NewFanout(backends, metrics, logger),
		clients: clients,
	}, nil
}

func newNotifier(cfg config.NotifyConfig) notify.Notifier {
	switch cfg.Provider {
	case "sendgrid":
		return notify.NewSendGrid(cfg.SendGridAPIKey)
	case "smtp":
		return notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	default:
		return notify.Disabled{}
	}
}

func (a *App) Close() {
	for _, c := range a.clients {
		c.Close()
	}
}
