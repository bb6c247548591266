// Package finassist assembles the WhatsApp real-estate financing assistant:
// the agent graph, the model backend, session storage and the channel
// adapter. Most callers build an App from a loaded config and hand its
// Handle method to a transport.
//
//  1. Load configuration with config.Load()
//  2. Create the App with New()
//  3. Start background services (Start) and route messages to Handle
//  4. Close on shutdown
package finassist

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/loft/finassist/artifact"
	"github.com/loft/finassist/channel"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/financing"
	"github.com/loft/finassist/flow"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/logging"
	"github.com/loft/finassist/model"
	anthropicmodel "github.com/loft/finassist/model/anthropic"
	openaimodel "github.com/loft/finassist/model/openai"
	"github.com/loft/finassist/runner"
	"github.com/loft/finassist/session"
)

// Options configures the App. Unset services are derived from Config.
type Options struct {
	Config *config.Config
	Logger logging.Logger
	// Model overrides the backend chosen by Config.Model.
	Model model.Model
	// SessionStore overrides the store chosen by Config.Sessions.
	SessionStore core.SessionStore
	// Assets overrides the directory store at Config.Assets.Dir.
	Assets artifact.Store
	Now    func() time.Time
}

// App is the wired assistant.
type App struct {
	cfg        *config.Config
	logger     logging.Logger
	agents     *financing.Agents
	assets     artifact.Store
	dispatcher *flow.Dispatcher
	runner     *runner.Runner
	adapter    *channel.Adapter
	janitor    *session.Janitor
	closers    []func() error
}

// New wires the assistant. Wiring problems are configuration errors.
func New(optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Defaults()
	}
	cfg := opts.Config

	app := &App{cfg: cfg, logger: opts.Logger}

	var err error
	if app.assets = opts.Assets; app.assets == nil {
		if app.assets, err = artifact.NewDirStore(cfg.Assets.Dir); err != nil {
			return nil, err
		}
	}

	llm := opts.Model
	if llm == nil {
		if llm, err = NewModel(cfg.Model, opts.Logger); err != nil {
			return nil, err
		}
	}
	llm = model.NewBreaker(llm, func(o *model.BreakerOptions) {
		o.MaxFailures = cfg.Breaker.MaxFailures
		o.Timeout = cfg.Breaker.Timeout
		o.Logger = opts.Logger
	})

	store := opts.SessionStore
	if store == nil {
		if store, err = app.newSessionStore(cfg.Sessions); err != nil {
			return nil, err
		}
	}

	if app.agents, err = financing.NewAgents(func(o *financing.Options) {
		o.Assets = app.assets
		o.Now = opts.Now
	}); err != nil {
		return nil, err
	}

	if app.dispatcher, err = flow.NewDispatcher(app.agents.Triage, llm, func(o *flow.Options) {
		o.Now = opts.Now
	}); err != nil {
		return nil, err
	}

	locker := session.NewLocker()

	if app.runner, err = runner.New(app.dispatcher, func(o *runner.Options) {
		o.SessionStore = store
		o.Locker = locker
		o.MaxHops = cfg.Dispatch.MaxHops
		o.TurnTimeout = cfg.Dispatch.TurnTimeout
		o.Logger = opts.Logger
	}); err != nil {
		return nil, err
	}

	if app.janitor, err = session.NewJanitor(store, locker, cfg.Sessions.TTL, func(o *session.JanitorOptions) {
		o.Interval = cfg.Sessions.SweepInterval
		o.Logger = opts.Logger
		o.Now = opts.Now
	}); err != nil {
		return nil, err
	}

	app.adapter = channel.NewAdapter(app.runner, opts.Logger)

	opts.Logger.Info("finassist.ready",
		"model", llm.Info().Name,
		"session_store", cfg.Sessions.Store,
		"max_hops", cfg.Dispatch.MaxHops,
	)

	return app, nil
}

// NewModel builds the backend selected by cfg.Provider.
func NewModel(cfg config.ModelConfig, logger logging.Logger) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderRules, "":
		return financing.NewRuleModel(nil), nil
	case config.ProviderOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			o.Temperature = cfg.Temperature
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			o.Temperature = cfg.Temperature
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
		}), nil
	default:
		return nil, core.ConfigErrorf("finassist.NewModel", "unknown model provider %q", cfg.Provider)
	}
}

func (a *App) newSessionStore(cfg config.SessionConfig) (core.SessionStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := session.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.StoreMemory, "":
		return session.NewInMemoryStore(), nil
	default:
		return nil, core.ConfigErrorf("finassist.New", "unknown session store %q", cfg.Store)
	}
}

// Handle runs one turn and always returns a reply.
func (a *App) Handle(ctx context.Context, identity, text string) string {
	return a.adapter.Handle(ctx, identity, text)
}

// Runner exposes the turn runner.
func (a *App) Runner() *runner.Runner { return a.runner }

// Agents exposes the agent graph.
func (a *App) Agents() *financing.Agents { return a.agents }

// Assets exposes the asset store.
func (a *App) Assets() artifact.Store { return a.assets }

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Start launches background services.
func (a *App) Start() error {
	return a.janitor.Start()
}

// Close stops background services and releases storage.
func (a *App) Close() error {
	a.janitor.Stop()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
