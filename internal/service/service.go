package service

import (
	"context"
	"database/sql"
	"fmt"

	"homeguard-engine/internal/config"
	"homeguard-engine/internal/consumer"
	"homeguard-engine/internal/incident"
	"homeguard-engine/internal/notifier"
	"homeguard-engine/internal/repository"
	"homeguard-engine/pkg/database"
	"homeguard-engine/pkg/mqtt"
	rediscommon "homeguard-engine/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Service assembles the engine with its external collaborators: Redis for
// the inbound event stream and the state cache, optionally Postgres for the
// incident log and contacts, optionally MQTT for outbound notifications.
type Service struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB      // nil when persistence is disabled
	redisClient *redis.Client
	mqttClient  *mqtt.Client // nil when notify is disabled

	engine         *Engine
	streamConsumer *consumer.StreamConsumer
	cacheManager   *consumer.CacheManager
	incidentRepo   *repository.IncidentLogRepository
	contactRepo    *repository.ContactRepository
}

// NewService wires the service from configuration
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	// 1. Connect Redis (event stream + cache, always required)
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	s := &Service{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
	}

	// 2. Optionally connect Postgres
	var store incident.Store
	if cfg.Persistence.Enabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		s.db = db
		s.incidentRepo = repository.NewIncidentLogRepository(db, logger)
		s.contactRepo = repository.NewContactRepository(db, logger)
		store = s.incidentRepo
	}

	// 3. Build the notifier chain
	sinks := notifier.MultiNotifier{notifier.NewLogNotifier(logger)}
	if cfg.Notify.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
		s.mqttClient = mqttClient
		sinks = append(sinks, notifier.NewMQTTNotifier(mqttClient, cfg.Notify.TopicPrefix, 1, logger))
	}

	// 4. Consumer layer
	s.cacheManager = consumer.NewCacheManager(cfg, redisClient, logger)
	s.streamConsumer = consumer.NewStreamConsumer(cfg, redisClient, logger)

	// 5. Build the engine
	engine, err := NewEngine(cfg, store, s.cacheManager, sinks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	s.engine = engine

	// 6. Load the persisted contact book, if any
	if s.contactRepo != nil {
		contacts, err := s.contactRepo.ListContacts(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load contacts: %w", err)
		}
		if len(contacts) > 0 {
			engine.LoadContacts(contacts)
		}
	}

	return s, nil
}

// Engine exposes the engine for API layers
func (s *Service) Engine() *Engine {
	return s.engine
}

// Start runs the engine timers and blocks consuming the sensor-event stream
// until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting homeguard engine service",
		zap.String("stream", s.config.Streams.SensorEvents),
		zap.Bool("persistence", s.config.Persistence.Enabled),
		zap.Bool("notify", s.config.Notify.Enabled),
	)

	s.engine.Start(ctx)

	if err := s.streamConsumer.Start(ctx, s.engine); err != nil {
		return fmt.Errorf("stream consumer stopped: %w", err)
	}
	return nil
}

// Stop shuts the engine down and closes the connections
func (s *Service) Stop() error {
	s.logger.Info("Stopping homeguard engine service")

	s.engine.Stop()

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	if err := rediscommon.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}

	return nil
}
