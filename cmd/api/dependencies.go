package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smarttravel/itinerary-api/internal/catalog"
	"github.com/smarttravel/itinerary-api/internal/domain/assistant"
	itinerarysvc "github.com/smarttravel/itinerary-api/internal/domain/itinerary"
	placedomain "github.com/smarttravel/itinerary-api/internal/domain/place"
	routedomain "github.com/smarttravel/itinerary-api/internal/domain/route"
	"github.com/smarttravel/itinerary-api/internal/llm"
	"github.com/smarttravel/itinerary-api/pkg/config"
	"github.com/smarttravel/itinerary-api/pkg/db"
	"github.com/smarttravel/itinerary-api/pkg/observability"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Catalog *catalog.Catalog

	// Clients
	AIClient   llm.ChatClient
	TripClient routedomain.Client

	// Repositories
	PlaceRepo placedomain.Repository

	// Services
	PlaceService     placedomain.Service
	ItineraryService itinerarysvc.Service
	RouteService     routedomain.Service
	AssistantService assistant.Service

	// Handlers
	AssistantHandler *assistant.Handler
	RouteHandler     *routedomain.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initClients(ctx); err != nil {
		return nil, fmt.Errorf("failed to init clients: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database
	d.Logger.Info("database connected")
	return nil
}

func (d *Dependencies) initClients(ctx context.Context) error {
	aiClient, err := llm.NewGeminiChatClient(ctx, d.Config.LLM.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}
	d.AIClient = aiClient
	d.TripClient = routedomain.NewHTTPClient(d.Config.Routing.OSRMBaseURL, d.Logger)

	d.Logger.Info("clients initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	cat, err := catalog.Load(d.Config.CommandCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load command catalog: %w", err)
	}
	d.Catalog = cat

	d.PlaceRepo = placedomain.NewPlaceRepository(d.DB.Pool, d.Metrics, d.Logger)
	d.PlaceService = placedomain.NewServiceImpl(d.PlaceRepo, d.Logger)
	d.ItineraryService = itinerarysvc.NewServiceImpl(d.PlaceService, d.Logger)
	d.RouteService = routedomain.NewServiceImpl(d.TripClient, d.Metrics, d.Logger)
	d.AssistantService = assistant.NewServiceImpl(d.AIClient, d.Catalog, d.ItineraryService, d.Metrics, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.AssistantHandler = assistant.NewHandler(d.AssistantService, d.Logger)
	d.RouteHandler = routedomain.NewHandler(d.RouteService, d.Logger)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
