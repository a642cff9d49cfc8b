package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/prediction-market-poc/internal/market-engine/ledger"
	"github.com/radieske/prediction-market-poc/internal/market-engine/positions"
	"github.com/radieske/prediction-market-poc/internal/market-engine/settlement"
	"github.com/radieske/prediction-market-poc/internal/market-service/evidence"
	mhttp "github.com/radieske/prediction-market-poc/internal/market-service/http"
	kpub "github.com/radieske/prediction-market-poc/internal/market-service/producer"
	"github.com/radieske/prediction-market-poc/internal/market-service/repo"
	"github.com/radieske/prediction-market-poc/internal/market-service/scheduler"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	sharedkafka "github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

var (
	betsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_bets_accepted_total",
		Help: "Apostas aceitas pelo motor",
	})
	betsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bets_rejected_total",
		Help: "Apostas rejeitadas, por código de erro",
	}, []string{"code"})
	claimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_claims_total",
		Help: "Claims processados, por tipo (WIN, LOSS, REFUND)",
	}, []string{"kind"})
	transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_transitions_total",
		Help: "Transições de estado de mercado, por status de destino",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(betsAccepted, betsRejected, claimsTotal, transitionsTotal)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres (projeção lida na subida)
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	// Kafka writer (tópico market_events)
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketEvents)
	defer writer.Close()

	engine := settlement.New(
		ledger.New(ledger.Config{
			MinBet:           cfg.MinBetAmount,
			MaxBet:           cfg.MaxBetAmount,
			PlatformFeeBps:   cfg.PlatformFeeBps,
			MaxCreatorFeeBps: cfg.MaxCreatorFeeBps,
		}),
		positions.NewStore(),
		log,
		settlement.WithPublisher(kpub.NewKafkaPublisher(writer, cfg.TopicMarketEvents)),
		settlement.WithAuthorizer(settlement.NewAllowList(cfg.Resolvers, cfg.Operators)),
	)

	// estado inicial vem da projeção
	store := repo.NewPostgres(pg)
	markets, err := store.LoadMarkets(ctx)
	if err != nil {
		log.Fatal("load markets", zap.Error(err))
	}
	ps, err := store.LoadPositions(ctx)
	if err != nil {
		log.Fatal("load positions", zap.Error(err))
	}
	if err := engine.Restore(markets, ps); err != nil {
		log.Fatal("restore", zap.Error(err))
	}
	log.Info("state restored", zap.Int("markets", len(markets)), zap.Int("positions", len(ps)))

	checks := []metrics.HealthCheck{{Name: "pg", Check: pg.PingContext}}

	// Evidências (opcional)
	api := &mhttp.API{
		Log:    log,
		Engine: engine,
		Hooks: mhttp.Hooks{
			OnBetAccepted: betsAccepted.Inc,
			OnBetRejected: func(code string) { betsRejected.WithLabelValues(code).Inc() },
			OnClaim:       func(kind string) { claimsTotal.WithLabelValues(kind).Inc() },
			OnTransition:  func(status string) { transitionsTotal.WithLabelValues(status).Inc() },
		},
	}
	if cfg.S3Bucket != "" {
		ev, err := evidence.NewS3(ctx, evidence.S3Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Fatal("evidence", zap.Error(err))
		}
		api.Evidence = ev
		checks = append(checks, metrics.HealthCheck{Name: "s3", Check: ev.Health})
	} else {
		log.Warn("S3_BUCKET not set, evidence upload disabled")
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, checks...)

	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweeper := &scheduler.LockSweeper{
		Log:      log,
		Engine:   engine,
		Interval: cfg.LockSweepInterval,
		OnLocked: func(n int) { transitionsTotal.WithLabelValues(ledger.StatusLocked.String()).Add(float64(n)) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("market-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api: %w", err)
		}
		return nil
	})
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("market-service", zap.Error(err))
	}
	log.Info("market-service stopped")
}
