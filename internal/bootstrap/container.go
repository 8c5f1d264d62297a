package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"welfare-chat-be/internal/config"
	"welfare-chat-be/internal/controller"
	"welfare-chat-be/internal/pkg/logger"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/internal/repository/implementation"
	"welfare-chat-be/internal/repository/memory"
	"welfare-chat-be/internal/repository/redisrepo"
	"welfare-chat-be/internal/service"
	"welfare-chat-be/pkg/embedding"
	"welfare-chat-be/pkg/llm/factory"
	pkgNats "welfare-chat-be/pkg/nats"
	"welfare-chat-be/pkg/rag/executor"
	"welfare-chat-be/pkg/rag/extract"
	"welfare-chat-be/pkg/rag/planner"
	"welfare-chat-be/pkg/rag/response"
	"welfare-chat-be/pkg/rag/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	PersistService service.IPersistService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Loggers. The pipeline stages use a plain stdlib logger so they stay
	// dependency-free; the request layer logs structured through zap.
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stageLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 2. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	checkpointRepo := newCheckpointRepository(cfg)

	// 4. Repositories
	profileRepo := implementation.NewProfileRepository(db)
	profileWriter := implementation.NewProfileWriteRepository(db)
	documentRepo := implementation.NewPolicyDocumentRepository(db)
	sessionRepo := implementation.NewChatSessionRepository(db)
	messageRepo := implementation.NewChatMessageRepository(db)

	// 5. Per-Turn Pipeline
	limits := session.Limits{
		IdleTimeout: cfg.Session.IdleTimeout,
		MaxTurns:    cfg.Session.MaxTurns,
		MaxDuration: cfg.Session.MaxDuration,
	}
	sessionController := session.NewController(limits, stageLogger)
	extractor := extract.NewExtractor(llmProvider, stageLogger)
	retrievalPlanner := planner.NewPlanner(
		profileRepo,
		documentRepo,
		embeddingProvider,
		planner.Config{TopK: cfg.Ai.RetrievalTopK},
		stageLogger,
	)
	pipeline := executor.NewPipeline(sessionController, extractor, retrievalPlanner, stageLogger)
	generator := response.NewGenerator(llmProvider, stageLogger)

	// 6. Services
	chatService := service.NewChatService(
		pipeline,
		generator,
		checkpointRepo,
		sessionRepo,
		messageRepo,
		natsPub,
		sysLogger,
	)

	var persistService service.IPersistService
	if natsSub != nil {
		persistService = service.NewPersistService(
			natsSub,
			checkpointRepo,
			profileWriter,
			sessionRepo,
			sysLogger,
		)
	}

	return &Container{
		ChatController: controller.NewChatController(chatService),
		PersistService: persistService,
	}
}

// newCheckpointRepository prefers Redis so checkpoints survive restarts and
// the save pipeline can read them from another process. An unreachable Redis
// degrades to the in-process store.
func newCheckpointRepository(cfg *config.Config) contract.CheckpointRepository {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Redis unreachable (%v); falling back to in-memory checkpoints", err)
		return memory.NewTurnStateRepository(cfg.Session.IdleTimeout * 4)
	}

	return redisrepo.NewCheckpointRepository(rdb, cfg.Session.MaxDuration+time.Hour)
}
