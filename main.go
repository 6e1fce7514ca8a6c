package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/gridpredict/config"
	"github.com/padraicbc/gridpredict/db"
	"github.com/padraicbc/gridpredict/events"
	"github.com/padraicbc/gridpredict/handlers"
	applog "github.com/padraicbc/gridpredict/logger"
	"github.com/padraicbc/gridpredict/metrics"
	mw "github.com/padraicbc/gridpredict/middleware"
	"github.com/padraicbc/gridpredict/scheduler"
	"github.com/padraicbc/gridpredict/service"
	"github.com/padraicbc/gridpredict/store"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.UsesPostgres() {
		bdb := db.Setup(cfg)
		defer bdb.Close()
		if err := db.CreateTables(ctx, bdb, logger); err != nil {
			logger.Fatal("create tables failed", zap.Error(err))
		}
		st = store.NewBun(bdb)
	} else {
		logger.Warn("using in-memory store; data is lost on exit")
		st = store.NewMemory()
	}

	var pub events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		pub, err = events.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connect redis failed", zap.Error(err))
		}
	}
	defer func() { _ = pub.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	predictions := service.NewPredictionService(st, pub, m, logger)
	h := handlers.New(st, handlers.Services{
		Users:       service.NewUserService(st, logger),
		Leagues:     service.NewLeagueService(st, logger),
		Predictions: predictions,
		Races:       service.NewRaceService(st, predictions, logger),
		Admin:       service.NewAdminService(st, logger),
	}, logger)

	if cfg.SweepInterval > 0 {
		sched, err := scheduler.New(predictions, cfg.SweepInterval, logger)
		if err != nil {
			logger.Fatal("create scheduler failed", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			logger.Fatal("start scheduler failed", zap.Error(err))
		}
		defer func() { _ = sched.Stop() }()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			reqLog := applog.Request(logger, v.RequestID)
			switch {
			case v.Status >= 500:
				reqLog.Error("http request", fields...)
			case v.Status >= 400:
				reqLog.Warn("http request", fields...)
			default:
				reqLog.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(m.Middleware())

	e.GET("/metrics", m.Handler())
	h.Register(e, mw.JWT(cfg.JWTKey()))

	var s *http.Server
	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		s = &http.Server{Addr: cfg.Port, Handler: e}
	} else {
		autoTLS := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(".cache"),
			HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
		}
		logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
		s = &http.Server{
			Addr:         ":443",
			Handler:      e,
			TLSConfig:    autoTLS.TLSConfig(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  15 * time.Second,
		}
	}

	errc := make(chan error, 1)
	go func() {
		if cfg.Debug {
			errc <- s.ListenAndServe()
			return
		}
		errc <- s.ListenAndServeTLS("", "")
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
