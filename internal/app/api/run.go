package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ordersmemory "github.com/orderboard/api-server/internal/domains/orders/adapters/memory"
	"github.com/orderboard/api-server/internal/domains/orders/adapters/http/mapper"
	ordersobs "github.com/orderboard/api-server/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/orderboard/api-server/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/orderboard/api-server/internal/domains/orders/application"
	ordersdomain "github.com/orderboard/api-server/internal/domains/orders/domain"
	ordersports "github.com/orderboard/api-server/internal/domains/orders/ports"
	wsadapter "github.com/orderboard/api-server/internal/domains/realtime/adapters/websocket"
	realtimeapp "github.com/orderboard/api-server/internal/domains/realtime/application"
	platformobservability "github.com/orderboard/api-server/internal/platform/observability"
	platformpostgres "github.com/orderboard/api-server/internal/platform/postgres"
	"github.com/orderboard/api-server/internal/server"

	"github.com/gin-gonic/gin"
)

// Run boots the order dashboard HTTP API with observability, the order
// store, and the realtime fan-out channel wired.
func Run(ctx context.Context) error {
	const serviceName = "orderboard-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	orderRepo, cleanupRepo := buildOrderRepository(ctx, cfg, logger)
	defer cleanupRepo()

	hub := realtimeapp.NewHub(realtimeapp.WithLogger(logger))
	gatekeeper := realtimeapp.NewGatekeeper(
		cfg.AllowedOrigins,
		cfg.Development(),
		cfg.SharedSecret,
		realtimeapp.WithGatekeeperLogger(logger),
	)
	notifier := realtimeapp.NewNotifier(hub, func(order *ordersdomain.Order) any {
		return mapper.FromDomain(order)
	})

	coreOrderService := ordersapp.NewService(orderRepo, notifier, ordersapp.WithLogger(logger))
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	wsHandler := wsadapter.NewHandler(hub, gatekeeper, func(c *gin.Context) (any, error) {
		page, err := orderService.FirstPage(c.Request.Context())
		if err != nil {
			return nil, err
		}
		return mapper.FromDomainList(page.Items), nil
	}, logger)

	sweepInterval := cfg.SessionSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = realtimeapp.DefaultSweepInterval
	}
	sweeper := realtimeapp.NewSweeper(hub, sweepInterval, logger)
	go sweeper.Run(ctx)

	handlers := server.ApiHandleFunctions{
		OrdersAPI:       server.NewOrdersAPI(orderService),
		HealthAPI:       server.NewHealthAPI(),
		RealtimeConnect: wsHandler.Connect,
	}

	router := server.NewRouter(handlers, otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("order dashboard API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order dashboard API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildOrderRepository(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.Repository, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order repository")
		return ordersmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), func() {}
	}
	logger.Info("order repository configured with postgres")
	return orderspostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}
