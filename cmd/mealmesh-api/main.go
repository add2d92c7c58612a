// README: Entry point; loads config, wires services, starts HTTP server and background sweeper.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealmesh/internal/config"
	"mealmesh/internal/directory"
	httptransport "mealmesh/internal/http"
	"mealmesh/internal/infra"
	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/modules/location"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := infra.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	verifier := infra.NewJWTVerifier(cfg.Auth.JWTSecret)

	directoryStore := directory.NewStore(dbPool)

	policyStore := policy.NewStore(dbPool, redisClient)
	policySvc := policy.NewService(policyStore)

	slotStore := mealslot.NewStore(dbPool)
	slotSvc := mealslot.NewService(slotStore)

	geoStore := geofence.NewStore(dbPool, redisClient)
	geoSvc := geofence.NewService(geoStore)

	locationStore := location.NewStore(dbPool, redisClient)
	locationSvc := location.NewService(locationStore)

	subs := realtime.NewSubscriptionIndex()
	registry := realtime.NewRegistry(subs, cfg.Realtime.ReconnectGrace, cfg.Realtime.SweepInterval, logger)
	broadcaster := realtime.NewBroadcaster(registry, subs, logger)
	gateway := realtime.NewGateway(verifier, registry, subs, cfg.Realtime.AuthTimeout, logger)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, directoryStore, policySvc, slotSvc, geoSvc, broadcaster, order.Config{
		TaxRateBps: cfg.Pricing.TaxRateBps,
		Currency:   cfg.Pricing.Currency,
	})

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Order:       orderSvc,
		MealSlot:    slotSvc,
		Policy:      policySvc,
		Geo:         geoStore,
		Location:    locationSvc,
		Gateway:     gateway,
		Broadcaster: broadcaster,
		Verifier:    verifier,
		Logger:      logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go registry.RunSweeper(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server")
	}
}
