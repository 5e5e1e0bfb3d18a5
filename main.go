package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"parlour/auth"
	"parlour/booking"
	"parlour/catalog"
	"parlour/config"
	"parlour/db"
	"parlour/logging"
	"parlour/metrics"
	"parlour/middleware"
	"parlour/mq"
	"parlour/notify"
	"parlour/pay"
	"parlour/ratelim"
	"parlour/reviews"
	"parlour/routes"
	"parlour/users"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logging.New(cfg.Log, os.Stdout)
	metrics.Register()

	store, err := db.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo unavailable")
	}
	idxCtx, idxCancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	if err := store.EnsureIndexes(idxCtx); err != nil {
		log.Warn().Err(err).Msg("ensure indexes")
	}
	idxCancel()

	// redis is optional: role cache and booking event bus
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed, continuing without it")
			_ = rdb.Close()
			rdb = nil
		}
		pingCancel()
	}

	tokens := auth.NewTokens(cfg.Token.Secret, cfg.Token.TTL)

	var roleCache users.RoleCache
	if rdb != nil {
		roleCache = users.NewRedisRoleCache(rdb, cfg.Redis.RoleCacheTTL)
	}
	userSvc := users.NewService(users.NewMongoStore(store.UserCollection), roleCache, tokens, log)

	var deliverer booking.Notifier = notify.NewLog(log)
	if cfg.Email.Enabled {
		sender, err := notify.NewSMTPSender(cfg.Email, log)
		if err != nil {
			log.Fatal().Err(err).Msg("smtp sender")
		}
		deliverer = notify.NewEmail(sender, cfg.Email.SalonAddress)
	}

	notifier := deliverer
	var worker *mq.Worker
	if rdb != nil {
		worker = mq.NewWorker(rdb, deliverer, log)
		if err := worker.Start(context.Background()); err != nil {
			log.Warn().Err(err).Msg("booking worker not started, notifying inline")
			worker = nil
		} else {
			notifier = mq.NewPublisher(rdb)
		}
	}

	bookingStore := booking.NewMongoStore(store.BookingCollection)
	bookingSvc := booking.NewService(bookingStore, notifier, log)

	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty, payment intents will fail")
	}
	paySvc := pay.NewService(
		pay.NewMongoPaymentStore(store.PaymentCollection),
		bookingStore,
		pay.NewStripeGateway(cfg.StripeSecretKey, nil),
		pay.NewReceipts(cfg.ReceiptKey(), cfg.Email.SalonAddress),
		log,
	)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := routes.New(routes.Deps{
		Tokens:   tokens,
		Roles:    userSvc,
		Limiter:  rateLimiter,
		Users:    users.NewHandler(userSvc),
		Bookings: booking.NewHandler(bookingSvc),
		Payments: pay.NewHandler(paySvc),
		Reviews:  reviews.NewHandler(reviews.NewService(reviews.NewMongoStore(store.ReviewCollection))),
		Catalog:  catalog.NewHandler(catalog.NewMongoStore(store.ServiceCollection)),
		Ready:    store.Ping,
	})

	// CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key"},
	}).Handler(router)

	handler := middleware.Logging(log, metrics.ObserveHTTP)(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	bookingSvc.Wait()
	if worker != nil {
		if err := worker.Stop(); err != nil {
			log.Warn().Err(err).Msg("stop booking worker")
		}
	}
	rateLimiter.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := store.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("disconnect mongo")
	}

	log.Info().Msg("server stopped cleanly")
}
