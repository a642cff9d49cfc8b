package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/payout/repo"
	"github.com/radieske/prediction-market-poc/internal/payout/worker"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	// Kafka consumer: mesmo tópico do projector, group próprio
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketEvents, "payout-worker")
	defer reader.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPayoutsDLQ)
	defer dlqWriter.Close()

	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payouts_recorded_total", Help: "pagamentos registrados por tipo"}, []string{"kind"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "payouts_duplicate_total", Help: "claims reentregues já registrados"})
	dead := prometheus.NewCounter(prometheus.CounterOpts{Name: "payouts_dlq_total", Help: "mensagens enviadas para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payouts_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(recorded, duplicates, dead, errorsBy)

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.HealthCheck{Name: "pg", Check: pg.PingContext})
	defer metricsSrv.Close()

	w := &worker.Worker{
		Log:         log,
		Reader:      reader,
		Store:       repo.NewPostgres(pg),
		DLQ:         dlqWriter,
		Backoff:     300 * time.Millisecond,
		OnRecorded:  func(kind string) { recorded.WithLabelValues(kind).Inc() },
		OnDuplicate: duplicates.Inc,
		OnDLQ:       dead.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	log.Info("payout-worker started",
		zap.String("consume", cfg.TopicMarketEvents),
		zap.String("dlq", cfg.TopicPayoutsDLQ),
	)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}
	log.Info("payout-worker stopped")
}
