package app

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"

	"contextdb/internal/sweeper"
	"contextdb/pkg/config"
	"contextdb/pkg/contexts"
	"contextdb/pkg/exchange"
	"contextdb/pkg/history"
	"contextdb/pkg/logger"
	"contextdb/pkg/responder"
	"contextdb/pkg/store"
	"contextdb/pkg/trigger"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg    *config.Config
	addr   string
	dbPath string
	source string

	version   string
	commit    string
	buildDate string

	st       *store.Store
	hist     *history.Ledger
	ctxStore *contexts.Store
	svc      *exchange.Service

	srv *http.Server
}

// New opens the store and builds the component graph: history ledger,
// context store, responder backend, trigger and exchange service. It does
// not start the HTTP server or the sweep scheduler; call Run for those.
func New(cfg *config.Config, addr, dbPath, source, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	hist := history.New(st)
	ctxStore := contexts.New(st, hist)
	trig := trigger.New(hist, ctxStore, cfg.Summarize.BatchSize)
	svc := exchange.New(hist, ctxStore, buildResponder(cfg), trig)

	a := &App{
		cfg: cfg, addr: addr, dbPath: dbPath, source: source,
		version: version, commit: commit, buildDate: buildDate,
		st: st, hist: hist, ctxStore: ctxStore, svc: svc,
	}
	return a, nil
}

// buildResponder selects the answer backend from config. The keyword stub
// is the default; openai requires an API key.
func buildResponder(cfg *config.Config) responder.Responder {
	switch cfg.Responder.Backend {
	case "openai":
		if cfg.Responder.APIKey == "" {
			logger.Warn("responder_openai_missing_api_key", "fallback", "keyword")
			return responder.NewKeyword()
		}
		logger.Info("responder_backend", "backend", "openai", "model", cfg.Responder.Model)
		return responder.NewOpenAI(cfg.Responder.APIKey, cfg.Responder.BaseURL, cfg.Responder.Model)
	default:
		logger.Info("responder_backend", "backend", "keyword")
		return responder.NewKeyword()
	}
}

// Run starts the sweep scheduler (if configured) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs. On ctx
// cancellation it shuts the server down gracefully and closes the store.
func (a *App) Run(ctx context.Context) error {
	sweepCancel, err := sweeper.Start(ctx, a.cfg.Summarize.SweepCron, a.hist, a.ctxStore)
	if err != nil {
		return err
	}
	defer sweepCancel()

	a.printBanner()

	errCh := a.startHTTP()
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = a.srv.Shutdown(shutCtx)
		return a.st.Close()
	case err := <-errCh:
		_ = a.st.Close()
		return err
	}
}
