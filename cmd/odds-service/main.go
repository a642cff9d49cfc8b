package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/prediction-market-poc/internal/odds-service/advisory"
	oddscache "github.com/radieske/prediction-market-poc/internal/odds-service/cache"
	ohttp "github.com/radieske/prediction-market-poc/internal/odds-service/http"
	"github.com/radieske/prediction-market-poc/internal/odds-service/repo"
	"github.com/radieske/prediction-market-poc/internal/odds-service/ws"
	sharedcache "github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	// análise consultiva: sem ADVISORY_URL sempre responde com o fallback
	svc := &advisory.Service{Log: log, Cache: advisory.NewCache(cfg.AdvisoryCacheSize, cfg.AdvisoryCacheTTL)}
	if cfg.AdvisoryURL != "" {
		svc.Client = advisory.NewClient(cfg.AdvisoryURL, cfg.AdvisoryTimeout)
	} else {
		log.Warn("ADVISORY_URL not set, analysis uses pool odds only")
	}

	watched := prometheus.NewGauge(prometheus.GaugeOpts{Name: "odds_ws_markets_watched", Help: "mercados com ao menos um inscrito"})
	prometheus.MustRegister(watched)

	hub := ws.NewHub(log, allowOrigin(cfg.CORSOrigins))
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	api := &ohttp.API{
		Log:      log,
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    oddscache.New(redisClient),
		Advisory: svc,
		WS:       hub.HandleWS,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.HealthCheck{Name: "pg", Check: pg.PingContext},
		metrics.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("odds-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				watched.Set(float64(hub.Markets()))
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("odds-service", zap.Error(err))
	}
	log.Info("odds-service stopped")
}

// allowOrigin libera o upgrade WS para as origens de CORS_ORIGINS ("*" libera tudo).
func allowOrigin(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || slices.Contains(origins, o)
	}
}
