package bootstrap

import (
	"context"
	"fmt"

	"multistep-rag-be/internal/config"
	"multistep-rag-be/internal/controller"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/repository/implementation"
	"multistep-rag-be/internal/repository/memory"
	"multistep-rag-be/internal/repository/redisstore"
	"multistep-rag-be/internal/service"
	"multistep-rag-be/internal/tracer"
	"multistep-rag-be/internal/websocket"
	"multistep-rag-be/pkg/embedding"
	"multistep-rag-be/pkg/llm/factory"
	"multistep-rag-be/pkg/rag/gateway"
	"multistep-rag-be/pkg/rag/workflow"

	pktNats "multistep-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

type Container struct {
	Logger   logger.ILogger
	Registry *prometheus.Registry

	StoreBackend string
	Engine       *workflow.Engine

	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	closers []func()
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{
		Logger:       sysLogger,
		Registry:     prometheus.NewRegistry(),
		StoreBackend: cfg.Store.Backend,
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 1. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 2. Gateways
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	sysLogger.Info("BOOTSTRAP", "Using embedding provider", map[string]interface{}{"provider": "ollama", "model": cfg.Ai.EmbeddingModel})

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM provider", map[string]interface{}{"provider": cfg.Ai.LLMProvider, "model": cfg.Ai.LLMModel})

	inference := gateway.NewInferenceGateway(llmProvider, gateway.InferenceConfig{
		Timeout:       cfg.Rag.GatewayTimeout,
		StreamTimeout: cfg.Rag.StreamTimeout,
		Temperature:   cfg.Ai.Temperature,
		LabelModel:    cfg.Ai.LabelModel,
	})
	retrieval := gateway.NewRetrievalGateway(embeddingProvider, implementation.NewPassageRepository(db), gateway.RetrievalConfig{
		FetchK:  cfg.Rag.FetchK,
		Lambda:  cfg.Rag.MMRLambda,
		Timeout: cfg.Rag.GatewayTimeout,
	})

	// 3. Redis (state store, session lock, websocket relay)
	rdb, err := connectRedis(cfg, sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	states, locks := newSessionStores(cfg, db, rdb, sysLogger)

	// 4. Events
	publisherService := service.NewPublisherService(pubSub, service.RunEventsTopic, sysLogger)

	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, run events stay local", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	c.ConsumerService = service.NewConsumerService(pubSub, service.RunEventsTopic, forwarder, sysLogger)

	// 5. Engine
	engine, err := workflow.NewEngine(inference, retrieval, states, locks, workflow.Config{
		MaxRephrase:   cfg.Rag.MaxRephrase,
		TopK:          cfg.Rag.TopK,
		GraderWorkers: cfg.Rag.GraderWorkers,
		Topics:        cfg.Rag.Topics,
	},
		workflow.WithLogger(sysLogger),
		workflow.WithMetrics(workflow.NewMetrics(c.Registry)),
		workflow.WithTracer(otel.Tracer(tracer.ServiceName+"/workflow")),
		workflow.WithNotifier(publisherService),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine = engine

	// 6. Transport
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	chatService := service.NewChatService(engine, states, sysLogger)
	c.ChatController = controller.NewChatController(chatService, c.WebSocketHub, sysLogger, cfg.App.JwtSecret)

	return c, nil
}

// connectRedis returns nil when Redis is optional and unreachable
func connectRedis(cfg *config.Config, log logger.ILogger) (*redis.Client, error) {
	if cfg.App.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Rag.GatewayTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		if cfg.Store.Backend == config.StoreRedis {
			return nil, fmt.Errorf("redis state store unreachable: %w", err)
		}
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, running without cross-instance locks", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}
	return rdb, nil
}

func newSessionStores(cfg *config.Config, db *gorm.DB, rdb *redis.Client, log logger.ILogger) (workflow.StateStore, workflow.SessionLocker) {
	var locks workflow.SessionLocker = memory.NewSessionLock()
	if rdb != nil {
		locks = redisstore.NewSessionLock(rdb, cfg.Store.LockTTL, log)
	}

	var states workflow.StateStore
	switch cfg.Store.Backend {
	case config.StoreRedis:
		states = redisstore.NewSessionRepository(rdb, cfg.Store.SessionTTL)
	case config.StorePostgres:
		states = implementation.NewConversationStateRepository(db)
	default:
		states = memory.NewSessionRepository(cfg.Store.SessionTTL)
		// a process-local store is only consistent with a process-local lock
		locks = memory.NewSessionLock()
	}

	log.Info("BOOTSTRAP", "Session state store ready", map[string]interface{}{"backend": cfg.Store.Backend})
	return states, locks
}

// NewIngestService wires the ingestion pipeline used by cmd/ingest
func NewIngestService(db *gorm.DB, cfg *config.Config, log logger.ILogger) service.IIngestService {
	return service.NewIngestService(
		implementation.NewPassageRepository(db),
		embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel),
		log,
	)
}
