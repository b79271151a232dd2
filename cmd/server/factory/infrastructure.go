// Package factory provides dependency injection constructors for infrastructure components.
package factory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/queue"
	"github.com/kevinnadar22/announce/internal/infra/repository"
	"github.com/kevinnadar22/announce/pkg/config"
)

// NewMongoClient creates a MongoDB client with lifecycle management. It
// returns nil when the archive is disabled.
func NewMongoClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	if !cfg.ArchiveEnabled {
		slog.Info("Announcement archive disabled")
		return nil, nil
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("mongo URI not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}

// NewArchive creates the MongoDB archive, or nil without a client.
func NewArchive(client *mongo.Client, cfg *config.Config) (domain.Archive, error) {
	if client == nil {
		return nil, nil
	}
	if cfg.MongoDBName == "" {
		return nil, errors.New("mongo database name not configured")
	}
	if cfg.MongoColl == "" {
		return nil, errors.New("mongo collection name not configured")
	}
	return repository.NewMongoRepository(client, cfg.MongoDBName, cfg.MongoColl)
}

// NewEventProducer publishes announcement change events, or drops them when
// events are disabled.
func NewEventProducer(cfg *config.Config, lc fx.Lifecycle) (domain.EventProducer, error) {
	if !cfg.EventsEnabled {
		slog.Info("Announcement events disabled")
		return queue.NoopProducer{}, nil
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.KafkaChangesTopic == "" {
		return nil, errors.New("kafka changes topic not configured")
	}

	producer := queue.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaChangesTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// NewDLQProducer creates a Kafka producer for the Dead Letter Queue.
func NewDLQProducer(cfg *config.Config, lc fx.Lifecycle) (*queue.KafkaProducer, error) {
	if !cfg.EventsEnabled {
		return nil, nil
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.KafkaDLQTopic == "" {
		return nil, errors.New("kafka DLQ topic not configured")
	}

	producer := queue.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaDLQTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// NewKafkaConsumer reads the backend's invalidation topic with DLQ support.
// It returns nil when events are disabled.
func NewKafkaConsumer(cfg *config.Config, dlqProducer *queue.KafkaProducer) (app.EventConsumer, error) {
	if !cfg.EventsEnabled {
		return nil, nil
	}
	if dlqProducer == nil {
		return nil, errors.New("kafka DLQ producer is nil")
	}
	if cfg.KafkaInvalidationTopic == "" {
		return nil, errors.New("kafka invalidation topic not configured")
	}
	if cfg.KafkaGroupID == "" {
		return nil, errors.New("kafka consumer group not configured")
	}

	return queue.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaInvalidationTopic, cfg.KafkaGroupID, dlqProducer), nil
}

// NewCacheStore creates the query cache shared by every service.
func NewCacheStore(cfg *config.Config) (*cache.Store, error) {
	if cfg.CacheSize < 1 {
		return nil, errors.New("cache size must be positive")
	}
	return cache.New(cfg.CacheSize, cfg.CacheTTL, cache.WithLogger(slog.Default()))
}

// NewReadinessWaiter checks only the dependencies that are enabled.
func NewReadinessWaiter(cfg *config.Config, client *mongo.Client) *app.ReadinessWaiter {
	var brokers []string
	if cfg.EventsEnabled {
		brokers = cfg.KafkaBrokers
	}
	return app.NewReadinessWaiter(client, brokers, cfg.KafkaInvalidationTopic)
}
