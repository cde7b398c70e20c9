package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/config"
	"github.com/iliyamo/club-seat-reservation/internal/database"
	"github.com/iliyamo/club-seat-reservation/internal/handler"
	"github.com/iliyamo/club-seat-reservation/internal/middleware"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
	"github.com/iliyamo/club-seat-reservation/internal/router"
	"github.com/iliyamo/club-seat-reservation/internal/service"
	"github.com/iliyamo/club-seat-reservation/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logrus.Fatalf("server: %+v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger observability.Logger) error {
	clk := clock.NewSystem()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	// Redis backs rate limiting and the response cache; both pass requests
	// through when it is unavailable.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Warn("redis unavailable: rate limiting and response cache disabled")
	}

	// Stores
	venues := repository.NewVenueRepo(db)
	seats := repository.NewSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	games := repository.NewGameRepo(db)
	customers := repository.NewCustomerRepo(db)

	// Optional side channels
	var auditRepo *repository.AuditRepo
	if cfg.MongoURI != "" {
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := repository.ConnectMongo(mctx, cfg.MongoURI)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("mongo unavailable: audit log disabled")
		} else {
			defer client.Disconnect(context.Background())
			auditRepo = repository.NewAuditRepo(client.Database(cfg.MongoDB), logger)
		}
	}

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)

	availability := service.NewAvailabilityService(seats)
	engine := service.NewReservationEngine(tickets,
		service.WithMaxRounds(cfg.ReservationMaxRounds),
		service.WithCandidateWindow(cfg.ReservationWindow),
		service.WithReservationLogger(logger),
	)
	requestOpts := []service.TicketRequestOption{
		service.WithMaxSeats(cfg.MaxSeatsPerRequest),
		service.WithCacheInvalidation(cache),
	}
	adminOpts := []service.AdminOption{service.WithAdminCache(cache)}
	setupOpts := []service.SetupOption{service.WithSetupCache(cache)}

	if cfg.RabbitURL != "" {
		publisher := queue.NewPublisher(cfg.RabbitURL, logger)
		requestOpts = append(requestOpts, service.WithTicketEvents(publisher))
		adminOpts = append(adminOpts, service.WithAdminEvents(publisher))
		setupOpts = append(setupOpts, service.WithSetupEvents(publisher))

		if cfg.ConsumeQueue {
			consumer := queue.NewLogConsumer(cfg.RabbitURL, "", logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.WithError(err).Error("ticket log consumer stopped")
				}
			}()
		}
	}
	var auditReader handler.AuditReader
	if auditRepo != nil {
		adminOpts = append(adminOpts, service.WithAdminAudit(auditRepo))
		setupOpts = append(setupOpts, service.WithSetupAudit(auditRepo))
		auditReader = auditRepo
	}

	requests := service.NewTicketRequestService(
		games, availability, service.NewIdentityResolver(customers), engine, clk, logger, requestOpts...,
	)
	adminTickets := service.NewAdminTicketService(tickets, games, availability, clk, logger, adminOpts...)
	setup := service.NewSetupService(venues, seats, games, clk, logger, setupOpts...)

	account, err := utils.NewAdminAccount(model.SessionUser{
		Username: cfg.AdminUsername,
		Name:     cfg.AdminName,
		Role:     cfg.AdminRole,
	}, cfg.AdminPassword, cfg.AdminPasswordHash, cfg.BcryptCost)
	if err != nil {
		return err
	}
	sessions := middleware.Sessions{
		Signer:     utils.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL, clk),
		CookieName: cfg.SessionCookieName,
		JWTSecret:  cfg.JWTSecret,
		Clock:      clk,
		Secure:     cfg.Env == "prod",
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Tracing())
	e.Use(middleware.RequestLogger(logger))

	deps := map[string]handler.Pinger{"mysql": db}
	if rdb != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	router.RegisterRoutes(e, deps)
	router.RegisterAuth(e, handler.NewAuthHandler(account, sessions, logger))
	router.RegisterPublic(e,
		handler.NewPublicHandler(games, availability, requests, clk, logger),
		cache,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	)
	router.RegisterAdmin(e,
		handler.NewAdminTicketHandler(adminTickets, logger),
		handler.NewAdminSetupHandler(setup, auditReader, logger),
		sessions,
		cfg.AdminRole,
	)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}
