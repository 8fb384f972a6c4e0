// Command connectiond runs the NMOS IS-05-shaped connection management
// HTTP surface over an in-memory transceiver registry. Senders and
// receivers are registered by a driver at process startup; this binary
// wires the registry, scheduler clock, and HTTP router together and
// starts serving.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nmos-cm/connection-core/internal/clock"
	"github.com/nmos-cm/connection-core/internal/httpapi"
	"github.com/nmos-cm/connection-core/internal/registry"
)

func main() {
	listenAddr := flag.String("listen", ":8080", "HTTP listen address for the connection API")
	leapSeconds := flag.Int64("leap-seconds", 0, "offset applied to the host wall clock to approximate TAI")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	logger := log.Logger.With().Str("component", "connectiond").Logger()
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := NewConfig(WithListenAddr(*listenAddr), WithLeapSeconds(*leapSeconds))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	systemClock := clock.NewSystemClock(cfg.leapSeconds)
	reg := registry.New(systemClock, registry.NewLoggingPublisher())

	server, err := httpapi.NewServer(reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build HTTP server")
	}

	httpServer := &http.Server{
		Addr:    cfg.listenAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.listenAddr).Msg("connectiond listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
