package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-followup/pkg/validator"

	"github.com/johnquangdev/meeting-followup/internal/adapter/handler"
	"github.com/johnquangdev/meeting-followup/internal/adapter/repository"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/assembly"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/calendar"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/docsearch"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/zoomapi"
	httpmw "github.com/johnquangdev/meeting-followup/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-followup/internal/usecase/account"
	"github.com/johnquangdev/meeting-followup/internal/usecase/draft"
	"github.com/johnquangdev/meeting-followup/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-followup/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-followup/internal/usecase/transcript"
	pkgai "github.com/johnquangdev/meeting-followup/pkg/ai"
	"github.com/johnquangdev/meeting-followup/pkg/config"
	"github.com/johnquangdev/meeting-followup/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	e.HideBanner = true
	e.HidePort = false

	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(echomw.Recover())

	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; apply them with sql-migrate in CI/CD")
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Redis; fall back to in-process stores for single-node runs
	log.Println("📦 Connecting to Redis...")
	var usageCounter draft.UsageCounter
	var pollCursor ingest.PollCursor
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Printf("⚠️  Redis unavailable (%v), using in-memory counters", err)
		usageCounter = cache.NewMemoryUsageCounter()
		pollCursor = cache.NewMemoryPollCursor()
	} else {
		defer redisClient.Close()
		usageCounter = cache.NewRedisUsageCounter(redisClient)
		pollCursor = cache.NewRedisPollCursor(redisClient)
	}

	// Initialize caption archive
	log.Println("🗄️  Initializing caption archive...")
	var archiver transcript.Archiver
	if archive, err := storage.NewCaptionArchive(&cfg.Storage); err != nil {
		log.Printf("⚠️  Caption archive unavailable (%v), raw tracks will not be archived", err)
	} else {
		archiver = archive
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	eventRepo := repository.NewEventRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	jobRepo := repository.NewJobRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Initialize external clients
	log.Println("🌐 Initializing external clients...")
	callTimeout := cfg.Pipeline.ExternalCallTimeout
	zoomClient := zoomapi.NewClient(&cfg.Zoom, callTimeout)
	summaryClient := zoomapi.NewSummaryClient(zoomClient)
	calendarClient := calendar.NewClient(&cfg.Calendar, callTimeout)
	assemblyClient := assembly.NewClient(&cfg.Assembly, cache.NewMemoryStore())
	livekitReceiver := livekit.NewWebhookReceiver(&cfg.LiveKit)

	// Transcript source chain, in priority order
	sources := []transcript.Source{
		transcript.NewCaptionSource("zoom_captions", zoomClient),
		transcript.NewCaptionSource("zoom_summary", summaryClient),
	}
	if cfg.Search.BaseURL != "" {
		searchClient := docsearch.NewClient(&cfg.Search, callTimeout)
		sources = append(sources, transcript.NewDocSearchSource(searchClient, cfg.Pipeline.SearchWindow))
	}
	sources = append(sources, transcript.NewRecordingSource(assemblyClient))

	// Initialize pipeline services
	log.Println("⚡ Initializing pipeline services...")
	sm := pipeline.NewStateMachine(meetingRepo, logger)
	queue := pipeline.NewQueue(jobRepo, &cfg.Pipeline, logger)
	acquirer := transcript.NewAcquirer(sources, transcriptRepo, archiver, logger)

	llmClient := pkgai.NewLLMClient(&cfg.LLM)
	quota := draft.NewQuotaService(usageCounter, cfg.Pipeline.FreeMonthlyQuota, logger)
	orchestrator := draft.NewOrchestrator(draftRepo, accountRepo, quota, llmClient, logger)

	processor := pipeline.NewProcessor(meetingRepo, eventRepo, transcriptRepo, sm, acquirer, orchestrator, logger)
	ingestSvc := ingest.NewService(eventRepo, meetingRepo, queue, sm, logger)
	poller := ingest.NewPoller(accountRepo, meetingRepo, calendarClient, zoomClient, sources, ingestSvc, pollCursor, &cfg.Pipeline, logger)

	// Initialize calendar connect flow
	log.Println("🔐 Initializing calendar connect flow...")
	oauthProvider := oauth.NewCalendarProvider(
		cfg.Calendar.OAuthClientID,
		cfg.Calendar.OAuthClientSecret,
		cfg.Calendar.OAuthRedirectURL,
	)
	stateManager := oauth.NewStateManager(cache.NewMemoryStore())
	connectSvc := account.NewConnectService(accountRepo, oauthProvider, stateManager, logger)

	// Initialize JWT manager for service tokens
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	authMW := httpmw.NewAuthMiddleware(jwtManager)

	// Initialize handlers
	log.Println("🛣️  Setting up routes...")
	webhookHandler := handler.NewWebhookHandler(ingestSvc, livekitReceiver, &cfg.Zoom, cfg.Pipeline.WebhookMaxSkew, logger)
	jobsHandler := handler.NewJobsHandler(queue, processor, logger)
	pollHandler := handler.NewPollHandler(poller, logger)
	meetingsHandler := handler.NewMeetingsHandler(meetingRepo, transcriptRepo, draftRepo, logger)
	connectHandler := handler.NewConnectHandler(connectSvc, logger)

	router := handler.NewRouter(cfg, webhookHandler, jobsHandler, pollHandler, meetingsHandler, connectHandler, authMW)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
