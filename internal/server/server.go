package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/devconnect/apiserver/config"
	"github.com/devconnect/apiserver/internal/db"
	"github.com/devconnect/apiserver/internal/github"
	"github.com/devconnect/apiserver/internal/handlers"
	"github.com/devconnect/apiserver/internal/mq"
	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/storage"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.Bus
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	avatars, err := newAvatarStore(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := newBus(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	userRepo := store.NewUserRepository(dbConn)
	profileRepo := store.NewProfileRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)

	userService := services.NewUserService(userRepo)
	profileService := services.NewProfileService(profileRepo)

	var events services.ActivityPublisher
	if bus != nil {
		events = bus
	}
	postService := services.NewPostService(postRepo, userRepo, events, logger)

	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authHandler := handlers.NewAuthHandler(userService, avatars, cfg.Auth.JWTSecret, tokenTTL)
	profileHandler := handlers.NewProfileHandler(profileService, github.NewClient(cfg.Github.Token))
	postHandler := handlers.NewPostHandler(postService)

	authMiddleware := handlers.RequireAuth(cfg.Auth.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", handlers.AuthHeader},
		MaxAge:         300,
	}))
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/users", func(r chi.Router) {
		authHandler.UserRouter(r, authMiddleware)
	})
	router.Route("/api/auth", func(r chi.Router) {
		authHandler.AuthRouter(r, authMiddleware)
	})
	router.Route("/api/profile", func(r chi.Router) {
		profileHandler.ProfileRouter(r, authMiddleware)
	})
	router.Route("/api/posts", func(r chi.Router) {
		postHandler.PostRouter(r, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
	}, nil
}

// newAvatarStore builds the configured object storage backend, or
// returns nil when no backend is configured.
func newAvatarStore(ctx context.Context, cfg config.Config) (*storage.AvatarStore, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Backend {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("init minio: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, fmt.Errorf("init gcs: %w", err)
		}
		backend = client
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	avatars := storage.NewAvatarStore(backend)
	if err := avatars.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return avatars, nil
}

// newBus builds the configured message queue backend, or returns nil
// when no backend is configured.
func newBus(ctx context.Context, cfg config.Config) (*mq.Bus, error) {
	var backend mq.Backend
	switch cfg.MQ.Backend {
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("init rabbitmq: %w", err)
		}
		backend = client
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		backend = client
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
	return mq.NewBus(backend, cfg.MQ.Channel), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
