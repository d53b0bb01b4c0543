package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/ironstar-io/chizerolog"
	"github.com/rs/zerolog"

	"github.com/jd-116/announcement-hub/acknowledgements"
	"github.com/jd-116/announcement-hub/announcements"
	apiAcknowledgements "github.com/jd-116/announcement-hub/api/acknowledgements"
	apiAnnouncements "github.com/jd-116/announcement-hub/api/announcements"
	apiAudiences "github.com/jd-116/announcement-hub/api/audiences"
	"github.com/jd-116/announcement-hub/audiences"
	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/db/file"
	"github.com/jd-116/announcement-hub/db/memory"
	"github.com/jd-116/announcement-hub/db/mongo"
	"github.com/jd-116/announcement-hub/db/s3"
	"github.com/jd-116/announcement-hub/db/sqldb"
	"github.com/jd-116/announcement-hub/dispatch"
	"github.com/jd-116/announcement-hub/dispatch/slack"
	"github.com/jd-116/announcement-hub/env"
	"github.com/jd-116/announcement-hub/types"
	"github.com/jd-116/announcement-hub/util"
)

// APIServer is a struct that bundles together the various server-wide
// resources used at runtime that each have
// a lifecycle of initialization, connection, and disconnection
type APIServer struct {
	dbProvider       db.Provider
	dispatchProvider dispatch.Provider
	audiences        *audiences.Registry
	acknowledgements *acknowledgements.Ledger
	announcements    *announcements.Service
	maxBodySize      int64
	logger           zerolog.Logger
}

// NewAPIServer initializes the struct and all constituent components
func NewAPIServer(logger zerolog.Logger) (*APIServer, error) {
	// Initialize the record store
	dbProvider, err := newStore(logger)
	if err != nil {
		return nil, err
	}

	// Initialize the messaging platform, falling back to a disabled one
	var dispatchProvider dispatch.Provider
	if env.GetEnvDefault("SLACK_BOT_TOKEN", "") != "" {
		slackProvider, err := slack.NewProvider(logger)
		if err != nil {
			return nil, err
		}
		dispatchProvider = slackProvider
	} else {
		logger.Warn().Msg("SLACK_BOT_TOKEN is not set; every send will fail until it is configured")
		dispatchProvider = dispatch.Disabled{}
	}

	maxBodySize, err := env.GetBytesEnvDefault("maximum request body size", "REQUEST_MAX_SIZE", 1024*1024)
	if err != nil {
		return nil, err
	}

	timeout, err := env.GetDurationEnvDefault("dispatch timeout", "DISPATCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	concurrency, err := env.GetIntEnvDefault("dispatch concurrency", "DISPATCH_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	registry := audiences.NewRegistry(dbProvider, logger)
	ledger := acknowledgements.NewLedger(dbProvider, dbProvider, logger)
	service := announcements.NewService(dbProvider, registry, ledger, dispatchProvider, announcements.Config{
		WebAppURL:   env.GetEnvDefault("WEB_APP_URL", "http://localhost:3000"),
		Timeout:     timeout,
		Concurrency: concurrency,
	}, logger)

	return &APIServer{
		dbProvider:       dbProvider,
		dispatchProvider: dispatchProvider,
		audiences:        registry,
		acknowledgements: ledger,
		announcements:    service,
		maxBodySize:      int64(maxBodySize.Bytes()),
		logger:           logger,
	}, nil
}

// newStore picks the record store backend named by STORE_DRIVER
func newStore(logger zerolog.Logger) (db.Provider, error) {
	driver := strings.ToLower(env.GetEnvDefault("STORE_DRIVER", "file"))
	switch driver {
	case "memory":
		return memory.NewProvider(), nil
	case "file":
		return file.NewProvider(logger), nil
	case "mongo":
		return mongo.NewProvider(logger)
	case sqldb.DriverSQLite, sqldb.DriverPostgres:
		return sqldb.NewProvider(driver, logger)
	case "s3":
		return s3.NewProvider(logger)
	}
	return nil, db.NewUnknownDriverError(driver)
}

// Connect initializes the struct and all constituent components
func (a *APIServer) Connect(ctx context.Context) error {
	// Connect to the record store
	a.logger.Info().Msg("initializing record store")
	err := a.dbProvider.Connect(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("could not connect to the record store")
		return err
	}
	a.logger.Info().Msg("successfully connected to the record store")

	// Verify the messaging platform credentials
	err = a.dispatchProvider.Connect(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("could not authenticate with Slack")
		return err
	}
	if slackProvider, ok := a.dispatchProvider.(*slack.Provider); ok {
		a.logger.Info().Str("team", slackProvider.Team).Str("bot_user", slackProvider.BotUser).
			Msg("successfully authenticated with Slack")
	}

	// Make sure there's always an audience to pick
	err = a.audiences.EnsureDefault(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("could not seed the default audience")
		return err
	}

	return nil
}

// Disconnect initializes the struct and all constituent components
func (a *APIServer) Disconnect(ctx context.Context) error {
	err := a.dispatchProvider.Disconnect(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("could not disconnect from Slack")
		return err
	}

	err = a.dbProvider.Disconnect(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("could not disconnect from the record store")
		return err
	}
	a.logger.Info().Msg("disconnected from the record store")

	return nil
}

// Serve runs the main API server until it's cancelled for some reason,
// in which case it attempts to gracefully shutdown.
// This function blocks.
func (a *APIServer) Serve(ctx context.Context, port int) {
	router := a.routes()
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("listen failed")
		}
	}()
	a.logger.Info().Int("port", port).Msg("API server started")

	<-ctx.Done()
	a.logger.Info().Msg("API server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		cancel()
	}()

	if err := server.Shutdown(ctx); err != nil {
		a.logger.Fatal().Err(err).Msg("API server shutdown failed")
	}
	a.logger.Info().Msg("API server exited properly")
}

func (a *APIServer) routes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.Recoverer,                          // Recover from panics without crashing the server
		chizerolog.LoggerMiddleware(&a.logger),        // Log API request calls
		middleware.RedirectSlashes,                    // Redirect slashes to no slash URL versions
		render.SetContentType(render.ContentTypeJSON), // Set content-type headers to application/json
		middleware.NoCache,                            // Prevent clients from caching the results
		a.corsMiddleware(),                            // Create cors middleware from go-chi/cors
	)

	// ==============================
	// Add all routes to the API here
	// ==============================
	router.Route("/api", func(r chi.Router) {
		// Can be used for health checks
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			util.JSON(w, http.StatusOK, types.HealthResponse{
				Status:    "ok",
				Timestamp: time.Now().UTC(),
			})
		})

		r.Mount("/announcements", apiAnnouncements.Routes(a.announcements, a.maxBodySize))
		r.Mount("/audiences", apiAudiences.Routes(a.audiences, a.maxBodySize))
		r.Mount("/acknowledgements", apiAcknowledgements.Routes(a.acknowledgements, a.maxBodySize))
		r.Mount("/admin/acknowledgements", apiAcknowledgements.AdminRoutes(a.acknowledgements))
	})

	return router
}

func (a *APIServer) corsMiddleware() func(http.Handler) http.Handler {
	// See if the CORS_ALLOWED_ORIGINS environment variable was set
	allowedOrigins := env.GetEnvDefault("CORS_ALLOWED_ORIGINS", "*")

	return cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(allowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
