// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"auditafolha/internal/auditoria"
	auditoriahandler "auditafolha/internal/auditoria/handler"
	auditoriametrics "auditafolha/internal/auditoria/metrics"
	"auditafolha/internal/esocial/router"
	"auditafolha/internal/folha"
	"auditafolha/internal/ingestao"
	ingestaohandler "auditafolha/internal/ingestao/handler"
	ingestaometrics "auditafolha/internal/ingestao/metrics"
	"auditafolha/internal/platform/config"
	"auditafolha/internal/platform/httpserver"
	"auditafolha/internal/platform/logger"
	"auditafolha/internal/platform/postgres"
	"auditafolha/internal/platform/redis"
	"auditafolha/internal/tributos"
	"auditafolha/pkg/platform/audit"
	"auditafolha/pkg/platform/audit/relay"
	auditpostgres "auditafolha/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("falha ao conectar no postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.RedisAddr)
	if err != nil {
		log.Error("falha ao conectar no redis", "error", err)
		os.Exit(1)
	}

	var routerCache router.Cache = router.NewMemoryCache()
	if redisClient != nil {
		routerCache = router.NewRedisCache(redisClient.Client)
		defer redisClient.Close()
	}

	folhaStore := folha.NewPostgresStore(db)
	auditoriaStore := auditoria.NewPostgresStore(db)
	tributosStore := tributos.NewPostgresStore(db)
	publisher := audit.NewPublisher(auditpostgres.New(db))

	resolver := tributos.NewResolver(tributosStore, log)
	roteador := router.New(router.NewPostgresStore(db), routerCache, log)

	auditoriaSvc := auditoria.NewService(auditoriaStore, folhaStore, resolver, log, auditoriametrics.New())
	ingestaoSvc := ingestao.NewService(folhaStore, auditoriaStore, roteador, publisher, log, ingestaometrics.New())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		ingestaohandler.New(ingestaoSvc, log).Register(api)
		auditoriahandler.New(auditoriaSvc, log).Register(api)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.KafkaBrokers != "" {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(strings.Split(cfg.KafkaBrokers, ",")...),
			kgo.DefaultProduceTopic(cfg.KafkaTopic),
		)
		if err != nil {
			log.Error("falha ao conectar no kafka", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		outboxRelay := relay.New(db, client, log, relay.WithTopic(cfg.KafkaTopic))
		go func() {
			if err := outboxRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay de outbox encerrou com erro", "error", err)
			}
		}()
	}

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("servidor iniciado", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("erro no servidor http", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("encerramento falhou", "error", err)
		os.Exit(1)
	}
	log.Info("servidor encerrado")
}
