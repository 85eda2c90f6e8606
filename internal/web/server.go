// Package web exposes the HTTP surface: the cron-triggered check, the
// on-demand check, and read-only status/history endpoints.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/store"
)

// Runner is the check entry point; satisfied by monitor.Service.
type Runner interface {
	Run(ctx context.Context, locations []domain.Location, notify bool) domain.CheckResult
}

type Server struct {
	echo      *echo.Echo
	runner    Runner
	store     store.Store
	locations []domain.Location

	cronSecret string
	apiKey     string

	logger *zap.Logger
}

func NewServer(runner Runner, st store.Store, locations []domain.Location, cronSecret, apiKey string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:       e,
		runner:     runner,
		store:      st,
		locations:  locations,
		cronSecret: cronSecret,
		apiKey:     apiKey,
		logger:     logger,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok\n")
	})
	e.GET("/api/cron/check", s.handleCronCheck)
	e.POST("/api/cron/check", s.handleCronCheck)
	e.GET("/api/check", s.handleManualCheck)
	e.GET("/api/status", s.handleStatus)
	e.GET("/api/history", s.handleHistory)

	return s
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// handleCronCheck is the scheduled trigger: full run including notification
// and history, authenticated by the shared cron secret.
func (s *Server) handleCronCheck(c echo.Context) error {
	if s.cronSecret == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "cron secret not configured"})
	}
	authHeader := c.Request().Header.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte("Bearer "+s.cronSecret)) != 1 {
		s.logger.Warn("unauthorized cron attempt")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	result := s.runner.Run(c.Request().Context(), s.locations, true)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, result)
}

// handleManualCheck is the on-demand trigger: detection only, no
// notification, optionally filtered to one location id.
func (s *Server) handleManualCheck(c echo.Context) error {
	if s.apiKey != "" {
		key := c.Request().Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
	}

	locations := s.locations
	if param := c.QueryParam("location"); param != "" {
		id, err := strconv.Atoi(param)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location id"})
		}
		locations = filterByID(locations, id)
		if len(locations) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": fmt.Sprintf("location with ID %d not found", id),
			})
		}
	}

	start := time.Now()
	result := s.runner.Run(c.Request().Context(), locations, false)
	result.Duration = fmt.Sprintf("%dms", time.Since(start).Milliseconds())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, result)
}

func (s *Server) handleStatus(c echo.Context) error {
	var latest domain.CheckResult
	err := s.store.Get(c.Request().Context(), "latest-check", &latest)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no checks recorded"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, latest)
}

func (s *Server) handleHistory(c echo.Context) error {
	entries, err := s.store.List(c.Request().Context(), "check-history", 0, 99)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, entries)
}

func filterByID(locations []domain.Location, id int) []domain.Location {
	var out []domain.Location
	for _, loc := range locations {
		if loc.ID == id {
			out = append(out, loc)
		}
	}
	return out
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutdownCtx)
	}()
	s.logger.Info("listening", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.echo }
