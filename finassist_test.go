package finassist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/channel"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/financing"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Assets.Dir = t.TempDir()
	return cfg
}

func TestApp_SimulationWithSQLiteSessions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sessions.Store = config.StoreSQLite
	cfg.Sessions.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.Dir, financing.SimulationAsset), []byte("%PDF"), 0o644))

	app, err := New(func(o *Options) { o.Config = cfg })
	require.NoError(t, err)
	require.NoError(t, app.Start())
	defer func() { assert.NoError(t, app.Close()) }()

	ctx := context.Background()
	id := "whatsapp:+5511912345678"

	assert.Contains(t, app.Handle(ctx, id, "Quero simular um financiamento de R$ 500 mil em Campinas - SP"), "pessoa física ou jurídica")
	assert.Contains(t, app.Handle(ctx, id, "pessoa física"), financing.SimulationReadyMessage)

	s, err := app.Runner().Store().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, financing.SimulatorAgentName, s.LastActiveAgent)
}

func TestApp_ModelFailureBecomesApology(t *testing.T) {
	cfg := testConfig(t)
	cfg.Breaker.MaxFailures = 1

	app, err := New(func(o *Options) {
		o.Config = cfg
		o.Model = model.Func(func(context.Context, model.Request) (core.Content, error) {
			return core.Content{}, assert.AnError
		})
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, channel.ReplyUnavailable, app.Handle(ctx, "whatsapp:+1", "oi"))
	assert.Equal(t, channel.ReplyUnavailable, app.Handle(ctx, "whatsapp:+1", "oi"), "open circuit fails fast")
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(config.ModelConfig{Provider: config.ProviderRules}, nil)
	require.NoError(t, err)
	assert.Equal(t, "rules", m.Info().Provider)

	m, err = NewModel(config.ModelConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test", Name: "gpt-4o"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Info().Name)

	m, err = NewModel(config.ModelConfig{Provider: config.ProviderAnthropic, AnthropicAPIKey: "sk-ant"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)

	_, err = NewModel(config.ModelConfig{Provider: "llama"}, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestNew_InvalidSessionStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sessions.Store = "redis"

	_, err := New(func(o *Options) { o.Config = cfg })
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestNew_DefaultsToRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispatch.TurnTimeout = time.Second

	app, err := New(func(o *Options) { o.Config = cfg })
	require.NoError(t, err)
	assert.Contains(t, app.Handle(context.Background(), "whatsapp:+1", "O que é CET?"), "Custo Efetivo Total")
}
