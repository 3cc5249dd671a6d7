package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pantry/api"
	apicatalog "pantry/api/catalog"
	"pantry/api/health"
	apiingredient "pantry/api/ingredient"
	apishopping "pantry/api/shopping"
	catalogapp "pantry/application/catalog"
	ingredientapp "pantry/application/ingredient"
	shoppingapp "pantry/application/shopping"
	"pantry/config"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/shopping"
	"pantry/pkg/logger"
	"pantry/pkg/metrics"
)

// AppBuilder assembles an App. Everything not set explicitly is derived from
// the config.
type AppBuilder struct {
	cfg      *config.Config
	clock    shared.Clock
	registry *prometheus.Registry
	bus      *shared.EventBus
}

func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithClock replaces the system clock, mainly for tests.
func (b *AppBuilder) WithClock(clock shared.Clock) *AppBuilder {
	b.clock = clock
	return b
}

func (b *AppBuilder) WithRegistry(reg *prometheus.Registry) *AppBuilder {
	b.registry = reg
	return b
}

// WithEventBus lets callers subscribe in-process handlers before the app
// starts.
func (b *AppBuilder) WithEventBus(bus *shared.EventBus) *AppBuilder {
	b.bus = bus
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	logger.Info("Building application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("driver", b.cfg.Database.Driver))

	registry := b.registry
	if registry == nil {
		registry = NewRegistry()
	}
	recorder := metrics.NewCollector(registry)

	bus := b.bus
	if bus == nil {
		bus = shared.NewEventBus()
	}
	if err := SubscribeEventLog(bus); err != nil {
		return nil, err
	}

	infra, err := NewInfrastructure(ctx, b.cfg, bus, recorder)
	if err != nil {
		return nil, err
	}

	clock := shared.ClockOrSystem(b.clock)
	ingredientService := ingredientapp.NewApplicationService(infra.Ingredients, infra.Categories, infra.Units, infra.UoW, infra.Locker, clock)
	ingredientService.SetExpiringSoonDays(b.cfg.Shopping.ExpiringSoonDays)
	shoppingService := shoppingapp.NewApplicationService(infra.Sessions, infra.Ingredients, infra.UoW, infra.Locker, clock)
	catalogService := catalogapp.NewApplicationService(infra.Categories, infra.Units)

	healthDB, err := healthPinger(infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	healthController := health.NewController(b.cfg, healthDB)
	if infra.Redis != nil {
		healthController.AddChecker("redis", func(ctx context.Context) error {
			return infra.Redis.Ping(ctx).Err()
		})
	}

	router := api.NewRouter(b.cfg, api.Controllers{
		Health:     healthController,
		Catalog:    apicatalog.NewController(catalogService),
		Ingredient: apiingredient.NewController(ingredientService),
		Shopping:   apishopping.NewController(shoppingService),
	}, recorder, metrics.Handler(registry))
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config: b.cfg,
		router: router,
		server: server,
		infra:  infra,
		bus:    bus,
	}, nil
}

// healthPinger returns a nil interface for the mock driver so the readiness
// check reports the database as skipped.
func healthPinger(infra *Infrastructure) (health.Pinger, error) {
	if infra.DB == nil {
		return nil, nil
	}
	sqlDB, err := infra.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return sqlDB, nil
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// SubscribeEventLog logs every committed domain event at debug level.
func SubscribeEventLog(bus *shared.EventBus) error {
	handler := shared.NewFuncHandler("event-log", func(ctx context.Context, event shared.DomainEvent) error {
		logger.FromContext(ctx).Debug("Domain event committed",
			zap.String("event_id", event.EventID().Value()),
			zap.String("event_name", event.EventName()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Time("occurred_at", event.OccurredOn()))
		return nil
	})

	names := []string{
		ingredient.EventCreated,
		ingredient.EventUpdated,
		ingredient.EventConsumed,
		ingredient.EventDeleted,
		shopping.EventStarted,
		shopping.EventItemChecked,
		shopping.EventCompleted,
		shopping.EventAbandoned,
	}
	for _, name := range names {
		if err := bus.Subscribe(name, handler); err != nil {
			return err
		}
	}
	return nil
}
