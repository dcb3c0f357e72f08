package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/careloop/rxengine/internal/api/handlers"
	mw "github.com/careloop/rxengine/internal/api/middleware"
	"github.com/careloop/rxengine/internal/buildconfig"
	"github.com/careloop/rxengine/internal/config"
	"github.com/careloop/rxengine/internal/domain"
	"github.com/careloop/rxengine/internal/embedding"
	"github.com/careloop/rxengine/internal/llm"
	"github.com/careloop/rxengine/internal/service"
	"github.com/careloop/rxengine/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the learning engine for lifecycle management.
type App struct {
	Router       *chi.Mux
	Learning     *service.LearningEngine
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	catalogStore := store.NewCatalogStore(db)
	learningStore := store.NewLearningStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var llmClient domain.LLMClient

	var err error
	embeddingClient, err = embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed, semantic scores degrade to zero",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	llmClient, err = llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed, explanations use templates",
			zap.String("provider", config.LLMProvider()), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	// Scoring models and services
	semantic := service.NewSemanticScorer(embeddingClient)
	knowledge := service.NewKnowledgeScorer()

	learningEngine := service.NewLearningEngine(
		catalogStore, learningStore, semantic, knowledge, config.LearningRate(), logger)
	collaborative := service.NewCollaborativeScorer(learningEngine)

	explainer := service.NewExplainer(semantic, knowledge, llmClient, logger)
	recommendationSvc := service.NewRecommendationService(
		catalogStore, learningEngine, semantic, knowledge, collaborative,
		explainer, config.TopK(), config.StockPenalty(), logger)

	// Handlers
	recommendationHandler := handlers.NewRecommendationHandler(recommendationSvc)
	feedbackHandler := handlers.NewFeedbackHandler(learningEngine)
	learningHandler := handlers.NewLearningHandler(learningEngine)
	medicineHandler := handlers.NewMedicineHandler(catalogStore)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Learning:  learningEngine,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommendations", recommendationHandler.Recommend)
		r.Post("/feedback", feedbackHandler.Submit)
		r.Route("/learning", func(r chi.Router) {
			r.Get("/stats", learningHandler.Stats)
			r.Delete("/events", learningHandler.Purge)
		})
		r.Get("/medicines", medicineHandler.List)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"build":      buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.CatalogStore    = (*store.CatalogStore)(nil)
	_ domain.LearningStore   = (*store.LearningStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.GeminiClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
	_ service.Scorer         = (*service.SemanticScorer)(nil)
	_ service.Scorer         = (*service.KnowledgeScorer)(nil)
	_ service.Scorer         = (*service.CollaborativeScorer)(nil)
	_ service.WeightSource   = (*service.LearningEngine)(nil)
	_ service.PatternSource  = (*service.LearningEngine)(nil)
)
