// Package bootstrap connects the configured backends and wires the services
// shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/jeovahfialho/relatorio-vendas/internal/api"
	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	"github.com/jeovahfialho/relatorio-vendas/internal/ingestion"
	"github.com/jeovahfialho/relatorio-vendas/internal/queue"
	"github.com/jeovahfialho/relatorio-vendas/internal/service"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/cache"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/objectstore"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/postgres"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
)

const (
	amqpRetries       = 5
	amqpRetryInterval = 2 * time.Second
)

type Dependencies struct {
	Config *config.Config

	Store objectstore.Store
	DB    *postgres.DB
	Cache *cache.RedisCache
	AMQP  *amqp.Connection

	Publisher   *queue.Publisher
	Aggregation *service.AggregationService
	Ingestion   *service.IngestionService
}

// Build connects the object store (required) and the optional backends.
// Postgres and Redis are skipped with a warning when unavailable. The broker is
// dialed when uploads are queued or withQueue is set.
func Build(ctx context.Context, cfg *config.Config, withQueue bool) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	deps.DB = connectPostgres(ctx, cfg)
	deps.Cache = connectRedis(cfg)

	if withQueue || cfg.PipelineTrigger == config.TriggerQueue {
		conn, err := queue.Dial(cfg.AMQPURL, amqpRetries, amqpRetryInterval)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.AMQP = conn
		logger.Info("conectado ao RabbitMQ", zap.String("queue", cfg.AMQPQueue))
	}

	if cfg.PipelineTrigger == config.TriggerQueue {
		publisher, err := queue.NewPublisher(deps.AMQP, cfg.AMQPQueue, cfg.StorageBucket)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Publisher = publisher
	}

	// Interfaces stay nil when a backend is absent.
	var (
		serviceCache service.Cache
		recorder     service.RunRecorder
		publisher    service.EventPublisher
	)
	if deps.Cache != nil {
		serviceCache = deps.Cache
	}
	if deps.DB != nil {
		loader := ingestion.NewRunLoader(deps.DB.Pool())
		if err := loader.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		recorder = loader
	}
	if deps.Publisher != nil {
		publisher = deps.Publisher
	}

	deps.Aggregation = service.NewAggregationService(store, serviceCache, recorder)
	deps.Ingestion, err = service.NewIngestionService(store, deps.Aggregation, serviceCache, publisher, cfg.PipelineTrigger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

// NewStore returns the object store selected by STORAGE_DRIVER.
func NewStore(cfg *config.Config) (objectstore.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("usando armazenamento em memória; os dados não são persistidos")
		return objectstore.NewMemoryStore(), nil
	case config.StorageDriverMinio:
		store, err := objectstore.NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("conectado ao MinIO",
			zap.String("endpoint", cfg.StorageEndpoint),
			zap.String("bucket", cfg.StorageBucket))
		return store, nil
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconhecido: %q", cfg.StorageDriver)
	}
}

// HealthChecks lists the probes served by /ready.
func (d *Dependencies) HealthChecks() []api.HealthCheck {
	var checks []api.HealthCheck

	if hc, ok := d.Store.(objectstore.HealthChecker); ok {
		checks = append(checks, api.HealthCheck{Name: "storage", Check: hc.HealthCheck})
	}
	if d.DB != nil {
		checks = append(checks, api.HealthCheck{Name: "postgres", Check: d.DB.HealthCheck})
	}
	if d.Cache != nil {
		checks = append(checks, api.HealthCheck{Name: "redis", Check: d.Cache.HealthCheck})
	}
	if d.AMQP != nil {
		conn := d.AMQP
		checks = append(checks, api.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("conexão fechada")
			}
			return nil
		}})
	}

	return checks
}

func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.AMQP != nil {
		d.AMQP.Close()
	}
	if d.Cache != nil {
		d.Cache.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config) *postgres.DB {
	db, err := postgres.NewDB(cfg)
	if errors.Is(err, postgres.ErrNotConfigured) {
		logger.Info("PostgreSQL não configurado; histórico de execuções desabilitado")
		return nil
	}
	if err != nil {
		logger.Warn("PostgreSQL não disponível (continuando sem histórico)", zap.Error(err))
		return nil
	}

	if err := db.HealthCheck(ctx); err != nil {
		logger.Warn("PostgreSQL não respondeu (continuando sem histórico)", zap.Error(err))
		db.Close()
		return nil
	}

	logger.Info("conectado ao PostgreSQL")
	return db
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if errors.Is(err, cache.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		logger.Warn("Redis não disponível (continuando sem cache)", zap.Error(err))
		return nil
	}

	logger.Info("conectado ao Redis")
	return redisCache
}
