// Package devapi assembles the local development API server: storage, auth,
// todo events, the chat assistant and the HTTP middleware chain.
package devapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/config"
	"github.com/benvon/smart-todo-client/internal/database"
	"github.com/benvon/smart-todo-client/internal/handlers"
	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/middleware"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/queue"
	"github.com/benvon/smart-todo-client/internal/services/ai"
	"github.com/benvon/smart-todo-client/internal/services/auth"
	"github.com/benvon/smart-todo-client/internal/services/tasks"
	"github.com/benvon/smart-todo-client/internal/telemetry"
)

// APIPrefix is the path prefix of every API route
const APIPrefix = "/api/v1"

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second

	rabbitMQMaxRetries   = 5
	rabbitMQInitialDelay = 2 * time.Second
	rabbitMQMaxDelay     = 30 * time.Second
)

var _ ai.TodoStore = (*tasks.Service)(nil)

// Options configures a Server
type Options struct {
	Config config.DevServerConfig
	Logger *zap.Logger

	// Tracing wraps the router with otelmux
	Tracing bool
	// DebugMode logs LLM requests and responses
	DebugMode bool

	// Publisher overrides the event publisher chosen from Config
	Publisher queue.Publisher
	// Provider overrides the assistant provider chosen from Config
	Provider ai.AIProvider
	// RedisClient backs the rate limiter; nil uses an in-memory store
	RedisClient *redis.Client
}

// Server is an assembled development API server
type Server struct {
	cfg       config.DevServerConfig
	logger    *zap.Logger
	db        *database.DB
	publisher queue.Publisher
	assistant *ai.Assistant
	handler   http.Handler
}

// New opens storage, connects the event publisher and builds the router
func New(ctx context.Context, opts Options) (*Server, error) {
	log := logger.OrNop(opts.Logger)
	cfg := opts.Config

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("connected_to_database")

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher, err = newPublisher(ctx, cfg.RabbitMQURL, log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	provider := opts.Provider
	if provider == nil && cfg.OpenAIKey != "" {
		provider = ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, log, opts.DebugMode)
	}

	users := database.NewUserRepository(db)
	todoRepo := database.NewTodoRepository(db)
	todoRepo.SetLogger(log)
	service := tasks.NewService(todoRepo, publisher, log)
	assistant := ai.NewAssistant(provider, service, log)

	s := &Server{
		cfg:       cfg,
		logger:    log,
		db:        db,
		publisher: publisher,
		assistant: assistant,
	}

	s.handler, err = s.routes(opts, users, tokens, service)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	log.Info("dev_api_configured",
		zap.String("addr", cfg.Addr()),
		zap.String("assistant", assistant.Provider()),
		zap.String("rate_limit", cfg.RateLimit),
		zap.Bool("redis_rate_limit", opts.RedisClient != nil),
	)
	return s, nil
}

func (s *Server) routes(opts Options, users *database.UserRepository, tokens *auth.TokenService, service *tasks.Service) (http.Handler, error) {
	rateLimitMW, err := middleware.RateLimit(s.cfg.RateLimit, opts.RedisClient)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	authHandler := handlers.NewAuthHandler(users, tokens, s.logger)
	todoHandler := handlers.NewTodoHandler(service, s.logger)
	chatHandler := handlers.NewChatHandler(s.assistant, s.logger)
	healthChecker := handlers.NewHealthChecker(map[string]handlers.Pinger{
		"database": s.db,
		"events":   service,
	})
	authMW := middleware.Auth(tokens, userLookup{users}, s.logger)

	r := mux.NewRouter()

	// Registered first runs outermost
	if opts.Tracing {
		r.Use(otelmux.Middleware(telemetry.ServerServiceName))
	}
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORSFromEnv(s.cfg.FrontendURL, s.logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.Audit(s.logger))
	r.Use(middleware.Logging(s.logger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	api := r.PathPrefix(APIPrefix).Subrouter()
	handlers.NewOpenAPIHandler().RegisterRoutes(api)

	usersRouter := api.PathPrefix("/users").Subrouter()
	usersRouter.Use(rateLimitMW)
	authHandler.RegisterRoutes(usersRouter)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMW)
	protected.Use(rateLimitMW)
	authHandler.RegisterProtectedRoutes(protected.PathPrefix("/auth").Subrouter())
	chatHandler.RegisterRoutes(protected)
	todoHandler.RegisterRoutes(protected)

	// CORS has already answered preflights by the time this runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Assistant returns the chat assistant in use
func (s *Server) Assistant() *ai.Assistant {
	return s.assistant
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.cfg.Addr(),
		Handler:        s.handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   requestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("server_exited")
	return nil
}

// Close releases the event publisher and the database
func (s *Server) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newPublisher connects to RabbitMQ when a URL is configured, retrying with
// exponential backoff while the broker starts. Without a URL events are
// logged.
func newPublisher(ctx context.Context, url string, log *zap.Logger) (queue.Publisher, error) {
	if url == "" {
		return queue.NewLogPublisher(log), nil
	}
	return ConnectRabbitMQ(ctx, url, log)
}

// ConnectRabbitMQ dials RabbitMQ with exponential backoff
func ConnectRabbitMQ(ctx context.Context, url string, log *zap.Logger) (*queue.RabbitMQQueue, error) {
	log = logger.OrNop(log)

	var lastErr error
	for attempt := 0; attempt < rabbitMQMaxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			log.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := rabbitMQInitialDelay * time.Duration(1<<uint(attempt))
		if delay > rabbitMQMaxDelay {
			delay = rabbitMQMaxDelay
		}
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rabbitMQMaxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", rabbitMQMaxRetries, lastErr)
}

// userLookup adapts the user repository to the auth middleware
type userLookup struct {
	users *database.UserRepository
}

func (l userLookup) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := l.users.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, middleware.ErrUserNotFound
	}
	return user, err
}
