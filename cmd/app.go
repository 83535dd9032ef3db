package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/hooptriage/internal/config"
	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/abhisek/hooptriage/internal/metrics"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/session"
	"github.com/abhisek/hooptriage/internal/specialist"
	"github.com/abhisek/hooptriage/internal/store"
	"github.com/abhisek/hooptriage/internal/taxonomy"
)

// newProvider is replaced in tests.
var newProvider = llm.NewProvider

// app holds the dependencies commands share. Everything is opened lazily
// so that commands only pay for what they use.
type app struct {
	cfg     config.Config
	store   *store.Store
	tax     *taxonomy.Taxonomy
	metrics *metrics.Collector
}

func newApp(cfg config.Config) *app {
	return &app{cfg: cfg, metrics: metrics.New()}
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// resolveDBPath returns the configured DSN, then HOOPTRIAGE_DB, then the
// default XDG path.
func (a *app) resolveDBPath() (string, error) {
	if p := a.cfg.Store.DSN; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	dsn, err := a.resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dsn)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

func (a *app) taxonomy() (*taxonomy.Taxonomy, error) {
	if a.tax != nil {
		return a.tax, nil
	}
	if a.cfg.Data.Taxonomy == "" {
		a.tax = taxonomy.Default()
		return a.tax, nil
	}
	t, err := taxonomy.Load(a.cfg.Data.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	a.tax = t
	return t, nil
}

func (a *app) ranker() (*specialist.Ranker, error) {
	tax, err := a.taxonomy()
	if err != nil {
		return nil, err
	}
	if a.cfg.Data.Roster == "" {
		logging.For("specialist").Warn("no roster configured, recommendations will be empty")
		return specialist.NewRanker(nil, tax), nil
	}
	roster, err := specialist.LoadRoster(a.cfg.Data.Roster)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return specialist.NewRanker(roster, tax), nil
}

// sessionStore returns the configured session backend.
func (a *app) sessionStore() (session.Store, error) {
	if a.cfg.Store.Sessions == config.BackendMemory {
		return session.NewMemoryStore(), nil
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return session.NewSQLStore(st.SessionRepo()), nil
}

func (a *app) provider(ctx context.Context) (llm.Provider, error) {
	if err := a.cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("model provider not configured: %w", err)
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return newProvider(ctx, a.cfg.LLM, st.EventRepo(), logging.Logger)
}

func (a *app) engine(ctx context.Context) (*session.Engine, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	provider, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	tax, err := a.taxonomy()
	if err != nil {
		return nil, err
	}
	sessions, err := a.sessionStore()
	if err != nil {
		return nil, err
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	observers := session.Observers{
		session.LogObserver(logging.Logger),
		session.RecordObserver(st.EventRepo(), logging.Logger),
		a.metrics,
	}
	return session.NewEngine(provider, prompt.New(a.cfg.Prompt, tax), sessions, a.cfg.Session,
		session.WithObserver(observers),
		session.WithLogger(logging.Logger),
	), nil
}

// serveMetrics starts the metrics listener when an address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := a.metrics.Serve(ctx, a.cfg.Metrics.Addr, logging.For("metrics")); err != nil {
			logging.For("metrics").Error("metrics listener stopped", "error", err)
		}
	}()
}
