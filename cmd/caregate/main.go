package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/api"
	"github.com/biointellect/caregate/pkg/config"
	"github.com/biointellect/caregate/pkg/httputil"
	"github.com/biointellect/caregate/pkg/identity"
	"github.com/biointellect/caregate/pkg/portal"
	"github.com/biointellect/caregate/pkg/provider"
	"github.com/biointellect/caregate/pkg/refdata"
	"github.com/biointellect/caregate/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := newLogger(cfg.Log)

	// Profile directory database.
	db, err := sql.Open("postgres", cfg.Directory.PostgresURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open postgres connection")
	}
	db.SetMaxOpenConns(cfg.Directory.MaxConns)
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.WithError(err).Fatal("failed to reach postgres")
	}
	cancelPing()

	// Session store.
	kv, err := session.NewRedisKV(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	store := session.NewStore(kv, cfg.Session.KeyPrefix, log)

	// Hosted identity provider.
	idp := provider.NewHostedProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout, log)

	// Reference data cache with scheduled warmup.
	geo := refdata.NewHTTPProvider(cfg.Geography.BaseURL, cfg.Geography.Timeout)
	cache := refdata.NewCache(geo, log)

	resolver := identity.NewResolver(identity.NewPostgresDirectory(db), log)

	manager := portal.NewManager(idp, resolver, store, cache, log, portal.Config{
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager.RestoreSession(ctx)
	go manager.RunWatchdog(ctx)

	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	cache.Warm(warmCtx)
	cancelWarm()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Geography.WarmupSchedule, func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cache.Warm(warmCtx)
	}); err != nil {
		log.WithError(err).Fatal("invalid geography warmup schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// API router.
	r := mux.NewRouter()
	r.Use(httputil.RecoveryMiddleware(log))
	r.Use(httputil.LoggingMiddleware(log))
	r.Use(api.ActivityMiddleware(manager))
	api.NewAuthHandlers(manager, log).RegisterRoutes(r)
	api.NewGeographyHandlers(manager).RegisterRoutes(r)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	metricsSrv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.MetricsPort,
		Handler: promhttp.Handler(),
	}

	go func() {
		log.WithField("addr", metricsSrv.Addr).Info("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	go func() {
		log.WithField("addr", srv.Addr).Info("caregate server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("metrics server shutdown failed")
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
