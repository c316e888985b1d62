package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chatscai10/friedg-sub006/internal/handlers"
	"github.com/chatscai10/friedg-sub006/internal/platform/auth"
	"github.com/chatscai10/friedg-sub006/internal/platform/config"
	pfirestore "github.com/chatscai10/friedg-sub006/internal/platform/firestore"
	"github.com/chatscai10/friedg-sub006/internal/platform/jobs"
	"github.com/chatscai10/friedg-sub006/internal/platform/observability"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
	fsrepo "github.com/chatscai10/friedg-sub006/internal/repositories/firestore"
	"github.com/chatscai10/friedg-sub006/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Orders  services.OrderService
	Catalog services.CatalogService
}

// Container wires repositories, services, and HTTP infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Logger       *zap.Logger
	Provider     *pfirestore.Provider
	Repositories repositories.Registry
	Services     Services
	Handler      http.Handler

	pubsubClient *pubsub.Client
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := fsrepo.NewRegistry(provider)
	if err != nil {
		return nil, fmt.Errorf("build repository registry: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		Provider:     provider,
		Repositories: registry,
	}

	events, err := c.buildEventPublisher(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	svc, err := buildServices(registry, cfg, events, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Services = svc

	authn, err := buildAuthenticator(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Handler = buildRouter(c, authn)
	return c, nil
}

// Close releases the Firestore client and the Pub/Sub connection.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pubsub client: %w", err))
		}
		c.pubsubClient = nil
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close repositories: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) buildEventPublisher(ctx context.Context, cfg config.Config) (services.OrderEventPublisher, error) {
	if cfg.PubSub.Disabled || cfg.PubSub.ProjectID == "" {
		return nil, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("build pubsub client: %w", err)
	}
	c.pubsubClient = client

	publisher, err := jobs.NewPubSubOrderEventPublisher(client.Topic(cfg.PubSub.EventTopic))
	if err != nil {
		return nil, fmt.Errorf("build order event publisher: %w", err)
	}
	return publisher, nil
}

func buildServices(reg repositories.Registry, cfg config.Config, events services.OrderEventPublisher, logger *zap.Logger) (Services, error) {
	var svc Services

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:            reg.Orders(),
		Stores:            reg.Stores(),
		LowStockThreshold: cfg.Orders.LowStockThreshold,
		Events:            events,
		Logger:            observability.ServiceLogHook(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog:           reg.Catalog(),
		Stores:            reg.Stores(),
		LowStockThreshold: cfg.Orders.LowStockThreshold,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	return svc, nil
}

func buildAuthenticator(ctx context.Context, cfg config.Config) (*auth.Authenticator, error) {
	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		return nil, fmt.Errorf("build firebase verifier: %w", err)
	}
	return auth.NewAuthenticator(verifier), nil
}

func buildRouter(c *Container, authn *auth.Authenticator) http.Handler {
	orderHandlers := handlers.NewOrderHandlers(authn, c.Services.Orders)
	catalogHandlers := handlers.NewCatalogHandlers(authn, c.Services.Catalog)

	health := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := c.Provider.Client(ctx)
			return err
		}),
	)

	return handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(),
			observability.RequestLogger(c.Logger),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithStoreMiddlewares(authn.RequireAuth()),
		handlers.WithStoreRoutes(func(r chi.Router) {
			orderHandlers.StoreRoutes(r)
			catalogHandlers.StoreRoutes(r)
		}),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(catalogHandlers.AdminRoutes),
	)
}
