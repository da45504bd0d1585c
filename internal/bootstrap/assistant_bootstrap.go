// Package bootstrap wires configuration, adapters and services into the
// running application.
package bootstrap

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	handler "assistant_server/adapter/in/http"
	"assistant_server/adapter/out/persistence"
	"assistant_server/adapter/out/provider"
	"assistant_server/config"
	"assistant_server/core/agent"
	"assistant_server/core/agent/llm"
	"assistant_server/core/port/out"
	"assistant_server/core/service/action"
	"assistant_server/core/service/summary"
	"assistant_server/infra/middleware"
	"assistant_server/pkg/logger"
)

const version = "1.0.0"

// NewAPI builds the fiber app with all routes wired. The returned cleanup
// releases adapter resources.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := "info"
	if cfg.IsDevelopment() {
		logLevel = "debug"
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "assistant-api",
		Pretty:  cfg.IsDevelopment(),
	})

	// Conversation store: Redis when configured, in-process otherwise.
	var conversations out.ConversationStorePort
	cleanup := func() {}
	if cfg.RedisURL != "" {
		redisStore, err := persistence.NewRedisConversationStore(cfg.RedisURL, cfg.HistoryCap)
		if err != nil {
			return nil, nil, err
		}
		conversations = redisStore
		cleanup = func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("closing redis store: %v", err)
			}
		}
		logger.Info("conversation store: redis")
	} else {
		conversations = persistence.NewMemoryConversationStore(cfg.HistoryCap)
		logger.Info("conversation store: in-memory")
	}

	model := llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.LLMModel,
		MaxTokens:      cfg.LLMMaxTokens,
		Temperature:    cfg.LLMTemperature,
		MaxRetries:     cfg.LLMMaxRetries,
		RetryBaseDelay: cfg.LLMRetryBaseDelay,
		Timeout:        time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})

	googleCfg := &provider.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
	mail := provider.NewGmailAdapter(googleCfg)
	events := provider.NewCalendarAdapter(googleCfg)
	files := provider.NewDriveAdapter(googleCfg)

	orchestrator := action.NewOrchestrator(action.OrchestratorConfig{
		Engine:        agent.NewProtocolEngine(model),
		Chat:          model,
		Resolver:      action.NewAttachmentResolver(files),
		Mail:          mail,
		Events:        events,
		Conversations: conversations,
	})
	digest := summary.NewService(mail, events, model, cfg.DigestMailCount, cfg.DigestEventCount)

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	handler.NewHealthHandler(version).Register(app)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	api := app.Group("/api/v1", middleware.Auth(cfg.JWTSecret), limiter.Handler())
	handler.NewActionHandler(orchestrator, digest).Register(api)

	storeCleanup := cleanup
	cleanup = func() {
		limiter.Stop()
		storeCleanup()
	}

	return app, cleanup, nil
}
