package main

// @title           Legalese Core API
// @version         1.0
// @description     Contract analysis API. Upload a PDF or DOCX agreement, run a model-backed review, and read the highlighted clauses, annotations and follow-up chat.

// @contact.name   Legalese
// @contact.url    https://github.com/legalese-app/legalese-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/legalese-app/legalese-core/internal/adapters/driven/ai"
	"github.com/legalese-app/legalese-core/internal/adapters/driven/auth"
	"github.com/legalese-app/legalese-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/legalese-app/legalese-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/legalese-app/legalese-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/legalese-app/legalese-core/internal/adapters/driven/redis"
	"github.com/legalese-app/legalese-core/internal/adapters/driven/storage"
	"github.com/legalese-app/legalese-core/internal/adapters/driving/http"
	"github.com/legalese-app/legalese-core/internal/config"
	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/services"
	"github.com/legalese-app/legalese-core/internal/extractors"
	"github.com/legalese-app/legalese-core/internal/runtime"
	"github.com/legalese-app/legalese-core/internal/worker"
)

var version = "dev"

// pingFunc adapts a plain function to the readiness check interface
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Command line arg overrides RUN_MODE
	if len(os.Args) > 1 {
		cfg.RunMode = os.Args[1]
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	log.Printf("legalese-core %s starting in %s mode", version, cfg.RunMode)

	// Cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Std(),
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime.Std(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Object storage =====
	fileStore, err := storage.NewMinioStore(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	if err := fileStore.EnsureBucket(ctx); err != nil {
		log.Fatalf("Failed to prepare storage bucket: %v", err)
	}
	log.Printf("Object storage ready (bucket=%s)", cfg.Storage.Bucket)

	// ===== Driven adapters (infrastructure) =====
	authAdapter := auth.NewAdapter(cfg.Auth.JWTSecret)
	aiFactory := ai.NewFactory()
	extractorRegistry := extractors.DefaultRegistry(extractors.NewExecRunner(cfg.PDFToTextPath))

	// ===== PostgreSQL Stores =====
	userStore := postgres.NewUserStore(db)
	documentStore := postgres.NewDocumentStore(db)
	analysisStore := postgres.NewAnalysisStore(db)
	annotationStore := postgres.NewAnnotationStore(db)
	chatStore := postgres.NewChatStore(db)

	// Backend selection: Redis if available, otherwise PostgreSQL
	backend := "postgres"
	var (
		sessionStore    driven.SessionStore
		taskQueue       driven.TaskQueue
		distributedLock driven.DistributedLock
		sweeps          []services.Sweep
	)
	retention := cfg.Worker.TaskRetention.Std()

	if redisClient != nil {
		backend = "redis"
		sessionStore = redisadapter.NewSessionStore(redisClient)
		distributedLock = redisadapter.NewLock(redisClient)

		queue, err := redisqueue.NewQueue(ctx, redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		taskQueue = queue
		sweeps = append(sweeps, purgeSweep(queue.PurgeTasks, retention))
	} else {
		pgSessions := postgres.NewSessionStore(db)
		sessionStore = pgSessions
		distributedLock = postgres.NewAdvisoryLock(db)

		queue := postgresqueue.NewQueue(db.DB)
		taskQueue = queue
		sweeps = append(sweeps,
			purgeSweep(queue.PurgeTasks, retention),
			services.Sweep{Name: "sessions", Run: func(ctx context.Context) (int, error) {
				n, err := pgSessions.DeleteExpired(ctx)
				return int(n), err
			}},
		)
	}
	defer taskQueue.Close()
	log.Printf("Using %s session store, task queue and lock", backend)

	// ===== Runtime services =====
	runtimeConfig := domain.NewRuntimeConfig(backend, backend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	llm, err := aiFactory.CreateLLMService(cfg.LLMSettings())
	if err != nil {
		log.Fatalf("Invalid LLM configuration: %v", err)
	}
	if llm == nil {
		log.Println("Warning: no LLM configured (set OPENAI_API_KEY); analysis and chat are unavailable")
	} else if err := runtimeServices.ValidateAndSetLLM(ctx, llm); err != nil {
		log.Printf("Warning: LLM health check failed: %v (analysis and chat are unavailable)", err)
	}
	log.Printf("Runtime config: backend=%s, llm=%t, model=%s",
		backend, runtimeConfig.LLMAvailable(), runtimeConfig.LLMModel())

	// ===== Services (core business logic) =====
	analysisSettings := cfg.AnalysisSettings()

	authService := services.NewAuthService(userStore, sessionStore, authAdapter)
	userService := services.NewUserService(userStore, sessionStore, authAdapter)
	documentService := services.NewDocumentService(documentStore, fileStore, logger)
	annotationService := services.NewAnnotationService(analysisStore, annotationStore)
	analysisService := services.NewAnalysisService(services.AnalysisServiceConfig{
		DocumentStore:   documentStore,
		AnalysisStore:   analysisStore,
		AnnotationStore: annotationStore,
		ChatStore:       chatStore,
		UserStore:       userStore,
		FileStore:       fileStore,
		Extractors:      extractorRegistry,
		TaskQueue:       taskQueue,
		Lock:            distributedLock,
		Services:        runtimeServices,
		Settings:        analysisSettings,
		LargeModel:      cfg.LLM.LargeModel,
		Logger:          logger,
	})
	chatService := services.NewChatService(services.ChatServiceConfig{
		AnalysisStore: analysisStore,
		ChatStore:     chatStore,
		Services:      runtimeServices,
		Settings:      analysisSettings,
		Logger:        logger,
	})

	// Scheduler runs on worker nodes only
	var scheduler *services.Scheduler
	if cfg.Worker.SchedulerEnabled {
		scheduler = services.NewScheduler(services.SchedulerConfig{
			TaskQueue: taskQueue,
			Lock:      distributedLock,
			Sweeps:    sweeps,
			Logger:    logger,
			Interval:  cfg.Worker.SchedulerInterval.Std(),
		})
	} else {
		log.Println("Scheduler disabled via SCHEDULER_ENABLED=false")
	}

	newServer := func() *http.Server {
		checks := map[string]http.Pinger{
			"postgres": db,
			"queue":    taskQueue,
			"storage":  fileStore,
		}
		if redisClient != nil {
			checks["redis"] = pingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
		return http.NewServer(
			http.Config{
				Host:        "0.0.0.0",
				Port:        cfg.Port,
				Version:     version,
				CORSOrigins: cfg.HTTP.CORSOrigins,
			},
			authService,
			userService,
			documentService,
			analysisService,
			annotationService,
			chatService,
			checks,
			logger,
		)
	}

	newWorker := func() *worker.Worker {
		return worker.NewWorker(worker.WorkerConfig{
			TaskQueue:      taskQueue,
			Analysis:       analysisService,
			Scheduler:      scheduler,
			Logger:         logger,
			Concurrency:    cfg.Worker.Concurrency,
			DequeueTimeout: cfg.Worker.DequeueTimeout,
		})
	}

	switch cfg.RunMode {
	case "api":
		// API-only mode: HTTP server, no worker
		runAPI(ctx, newServer())

	case "worker":
		// Worker-only mode: task processing and scheduler, no HTTP server
		runWorkerMode(ctx, newWorker())

	case "all":
		// Combined mode: worker in background, API in foreground
		done := make(chan struct{})
		go func() {
			defer close(done)
			runWorkerMode(ctx, newWorker())
		}()
		runAPI(ctx, newServer())
		stop()
		<-done
	}
}

// runAPI serves HTTP until ctx is cancelled
func runAPI(ctx context.Context, server *http.Server) {
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("API server stopped")
}

// runWorkerMode starts the worker and scheduler and blocks until ctx is
// cancelled. Tasks in flight finish before it returns.
func runWorkerMode(ctx context.Context, w *worker.Worker) {
	log.Println("Starting worker mode...")

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Println("  - analyze_document: Extract, analyze and reconcile one document")
	log.Println("  - recover_stale: Fail analyses stuck in processing")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// purgeSweep removes finished tasks older than retention
func purgeSweep(purge func(ctx context.Context, cutoff time.Time) (int, error), retention time.Duration) services.Sweep {
	return services.Sweep{
		Name: "tasks",
		Run: func(ctx context.Context) (int, error) {
			return purge(ctx, time.Now().Add(-retention))
		},
	}
}
