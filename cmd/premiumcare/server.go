package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/premiumcare/premiumcare/internal/config"
	"github.com/premiumcare/premiumcare/internal/platform/auth"
	"github.com/premiumcare/premiumcare/internal/platform/middleware"
)

// newServer builds an echo instance with the middleware stack both services
// share. Routes are registered by the caller.
func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{"X-Total-Count", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.Use(middleware.RateLimit(rateLimitConfig(cfg, middleware.ByIP)))

	return e
}

func rateLimitConfig(cfg *config.Config, key middleware.KeyFunc) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	rl.Key = key
	return rl
}

// writeMiddleware authenticates registry writes and then limits them per
// subject, so one caller cannot dodge the limit by switching addresses.
func writeMiddleware(cfg *config.Config, logger zerolog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		writeAuth(cfg, logger),
		middleware.RateLimit(rateLimitConfig(cfg, middleware.BySubject)),
	}
}

// writeAuth guards the registry's mutating routes. Development without a
// signing key lets everyone through as the dev user.
func writeAuth(cfg *config.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	if cfg.AuthSigningKey == "" {
		logger.Warn().Msg("AUTH_SIGNING_KEY is not set: registry writes are unauthenticated (development only)")
		return auth.DevAuthMiddleware()
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
	})
}

// serve runs e on port until SIGINT or SIGTERM, then drains in-flight
// requests for up to ten seconds.
func serve(e *echo.Echo, port string, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
