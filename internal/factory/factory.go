package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"access-risk-service/internal/assets"
	"access-risk-service/internal/bucketing"
	"access-risk-service/internal/client"
	"access-risk-service/internal/config"
	"access-risk-service/internal/repository"
	chstore "access-risk-service/internal/repository/clickhouse"
	"access-risk-service/internal/repository/memory"
	rediscache "access-risk-service/internal/repository/redis"
	"access-risk-service/internal/sequence"
	"access-risk-service/internal/service"
	"access-risk-service/internal/tls"
	"access-risk-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	redisClient      *client.RedisClient
	clickhouseClient *client.ClickHouseClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	modelClient      *client.HTTPModelClient

	// Fitted artifacts and pipeline managers
	bundle           *assets.Bundle
	bucketingManager *bucketing.Manager
	windowBuilder    *sequence.Builder

	historyStore   repository.HistoryStore
	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		tlsConfig := &tls.TLSConfig{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
			Environment: cfg.Environment,
		}
		factory.tlsManager = tls.NewTLSManager(tlsConfig)
	}

	// Fitted artifacts are load-bearing: the service cannot score
	// anything without them.
	bundle, err := assets.Load(cfg.Assets.Dir, util.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to load serving assets: %w", err)
	}
	factory.bundle = bundle
	factory.bucketingManager = bucketing.NewManager(cfg)
	factory.windowBuilder = sequence.NewBuilder(cfg.Risk.SequenceLength, bundle.Encoder, util.Get())

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if err := factory.initializeHistoryStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Int("profiles", bundle.Profiles.Len()),
		util.Int("feature_dim", bundle.Encoder.Dim()),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// The sequence model endpoint is the one truly mandatory
	// collaborator; an unreachable model is fatal in every environment.
	f.modelClient = client.NewHTTPModelClient(f.config, util.Get())
	if err := f.modelClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("model endpoint health check: %w", err)
	}
	util.Info("Model client initialized and healthy",
		util.String("model", f.config.Model.Name),
	)

	// Redis
	if f.config.Redis.Enabled {
		if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
		} else {
			f.redisClient = redisClient
			if err := f.redisClient.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
			} else {
				util.Info("Redis client initialized and healthy")
			}
		}
	}

	// ClickHouse
	if f.config.Clickhouse.Enabled {
		if chClient, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
		} else {
			f.clickhouseClient = chClient
			if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
			} else {
				util.Info("ClickHouse client initialized and healthy")
			}
		}
	}

	// Kafka
	if f.config.Kafka.Enabled {
		if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	// Elasticsearch
	if f.config.Elasticsearch.Enabled {
		if esClient, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
		} else {
			f.esClient = esClient
			if err := f.esClient.HealthCheck(); err != nil {
				initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
			} else {
				util.Info("Elasticsearch client initialized and healthy")
			}
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializeHistoryStore picks the event log backend: ClickHouse when
// configured and reachable, otherwise the in-memory store seeded from
// the generated corpus. A healthy Redis wraps either in a read-through
// cache.
func (f *Factory) initializeHistoryStore() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store repository.HistoryStore

	if f.clickhouseClient != nil {
		eventStore := chstore.NewEventStore(
			f.clickhouseClient,
			f.bucketingManager,
			f.config.Clickhouse.Table,
			util.Get(),
		)
		if err := eventStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure event schema: %w", err)
		}
		store = eventStore
		util.Info("Using ClickHouse history store",
			util.String("table", f.config.Clickhouse.Table),
		)
	} else {
		store = memory.NewHistoryStoreFromEvents(f.bundle.Corpus)
		util.Info("Using in-memory history store seeded from corpus",
			util.Int("events", len(f.bundle.Corpus)),
		)
	}

	if f.redisClient != nil {
		store = rediscache.NewHistoryCache(
			f.redisClient,
			store,
			f.config.Redis.HistoryTTL,
			util.Get(),
		)
		util.Info("History reads served through Redis cache",
			util.Duration("ttl", f.config.Redis.HistoryTTL),
		)
	}

	f.historyStore = store
	return nil
}

// ==============================
// Service Factory
// ==============================
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.config,
			f.bundle.Profiles,
			f.historyStore,
			f.windowBuilder,
			f.modelClient,
			f.bundle.TargetScaler,
			f.kafkaProducer,
			f.esClient,
			util.Get(),
		)
	}
	return f.serviceFactory
}

// ==============================
// Health Checks
// ==============================

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.modelClient != nil {
		if err := f.modelClient.HealthCheck(ctx); err != nil {
			healthErrors["model"] = err
		}
	} else {
		healthErrors["model"] = fmt.Errorf("model client not initialized")
	}

	if f.config.Redis.Enabled {
		if f.redisClient != nil {
			if err := f.redisClient.HealthCheck(ctx); err != nil {
				healthErrors["redis"] = err
			}
		} else {
			healthErrors["redis"] = fmt.Errorf("redis client not initialized")
		}
	}

	if f.config.Clickhouse.Enabled {
		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
				healthErrors["clickhouse"] = err
			}
		} else {
			healthErrors["clickhouse"] = fmt.Errorf("clickhouse client not initialized")
		}
	}

	if f.config.Elasticsearch.Enabled && f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

// ==============================
// Other Utility Methods
// ==============================

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) Bundle() *assets.Bundle {
	return f.bundle
}

func (f *Factory) BucketingManager() *bucketing.Manager {
	return f.bucketingManager
}

func (f *Factory) HistoryStore() repository.HistoryStore {
	return f.historyStore
}
