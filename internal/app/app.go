package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"PolicyScanner/internal/cache"
	"PolicyScanner/internal/config"
	"PolicyScanner/internal/discovery"
	"PolicyScanner/internal/handler"
	"PolicyScanner/internal/infrastructure/fetch"
	"PolicyScanner/internal/infrastructure/llm"
	"PolicyScanner/internal/infrastructure/locator"
	"PolicyScanner/internal/infrastructure/storage"
	"PolicyScanner/internal/logging"
	"PolicyScanner/internal/ports"
	"PolicyScanner/internal/usecase"
)

// Application wires configuration into the HTTP server and its use cases.
type Application struct {
	cfg    config.Config
	engine *gin.Engine
	logger *slog.Logger
	db     *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	resultCache := cache.New(cfg.Cache.Path, cfg.Cache.TTL(), baseLogger.With("component", "cache"))

	var evaluator ports.Evaluator
	if cfg.LLM.APIKey != "" {
		evaluator = llm.NewClient(cfg.LLM, baseLogger.With("component", "llm"))
	} else {
		baseLogger.Warn("no LLM API key configured, using deterministic fallback evaluator")
		evaluator = llm.NewFallbackEvaluator()
	}

	var db *sql.DB
	var repository ports.AnalysisRepository
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repository = storage.NewAnalysisRepository(db)
	}

	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Cache:      resultCache,
		Evaluator:  evaluator,
		Fetcher:    fetch.NewExtractor(nil),
		Repository: repository,
		Logger:     baseLogger.With("component", "analyzer"),
	})

	probeClient := &http.Client{Timeout: cfg.Discovery.ProbeTimeout()}
	cascade := discovery.NewCascade(baseLogger.With("component", "discovery"),
		locator.NewLinkScan(nil),
		locator.NewPathProbe(probeClient),
		locator.NewSearchEngine(nil, cfg.Discovery.SearchEndpoint),
	)
	disc := usecase.NewDiscovery(cascade, baseLogger.With("component", "discovery"))

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.RequestLogger(baseLogger.With("component", "http")))

	h := handler.New(analyzer, disc, resultCache, evaluator.Provider(), baseLogger.With("component", "handler"))
	h.RegisterRoutes(engine)

	return &Application{cfg: cfg, engine: engine, logger: baseLogger, db: db}, nil
}

// Run serves HTTP until the listener fails.
func (a *Application) Run() error {
	a.logger.Info("server starting", "addr", a.cfg.Server.Addr)
	return a.engine.Run(a.cfg.Server.Addr)
}

// Close releases pooled resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
