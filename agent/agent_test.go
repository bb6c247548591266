package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/tool"
)

func echoTool(t *testing.T, name string) tool.Tool {
	t.Helper()
	ft, err := tool.NewFunctionTool(name, "echo", []tool.Param{{Name: "text", Type: "string"}},
		func(_ *core.ToolContext, args map[string]any) (any, error) { return args["text"], nil })
	require.NoError(t, err)
	return ft
}

func TestNew_Executor(t *testing.T) {
	a, err := New("Simulator Agent", "simula",
		WithTools(echoTool(t, "generate_financing_simulation")),
		WithDescription("simulações"),
		WithRoutingKeywords("simular", "parcela"),
	)
	require.NoError(t, err)

	assert.Equal(t, "Simulator Agent", a.Name())
	assert.Equal(t, "simulações", a.Description())
	assert.False(t, a.IsRouter())
	assert.Equal(t, []string{"simular", "parcela"}, a.RoutingKeywords())

	_, ok := a.Tool("generate_financing_simulation")
	assert.True(t, ok)
	_, ok = a.Tool("missing")
	assert.False(t, ok)
}

func TestNew_Router(t *testing.T) {
	sim, err := New("Simulator Agent", "")
	require.NoError(t, err)
	qa, err := New("Questions Agent", "")
	require.NoError(t, err)

	triage, err := New("Triage Agent", "roteia", WithDelegates(sim, qa))
	require.NoError(t, err)

	assert.True(t, triage.IsRouter())
	assert.Equal(t, []string{"Simulator Agent", "Questions Agent"}, triage.DelegateNames())

	found, ok := triage.Find("Questions Agent")
	require.True(t, ok)
	assert.Same(t, qa, found)

	var visited []string
	triage.Walk(func(a *Agent) { visited = append(visited, a.Name()) })
	assert.Equal(t, []string{"Triage Agent", "Simulator Agent", "Questions Agent"}, visited)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	leaf, err := New("Leaf", "")
	require.NoError(t, err)
	other, err := New("Leaf", "")
	require.NoError(t, err)

	cases := map[string]func() (*Agent, error){
		"empty name": func() (*Agent, error) { return New("", "") },
		"router with tools": func() (*Agent, error) {
			return New("Triage Agent", "", WithDelegates(leaf), WithTools(echoTool(t, "x")))
		},
		"duplicate tool": func() (*Agent, error) {
			return New("A", "", WithTools(echoTool(t, "x"), echoTool(t, "x")))
		},
		"reserved tool": func() (*Agent, error) {
			return New("A", "", WithTools(tool.NewTransferToAgentTool()))
		},
		"nil delegate": func() (*Agent, error) { return New("A", "", WithDelegates(nil)) },
		"duplicate delegate": func() (*Agent, error) {
			return New("A", "", WithDelegates(leaf, other))
		},
		"name cycle": func() (*Agent, error) {
			self, err := New("Triage Agent", "")
			require.NoError(t, err)
			return New("Triage Agent", "", WithDelegates(self))
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := build()
			assert.ErrorIs(t, err, core.ErrConfiguration)
			assert.Equal(t, core.KindConfiguration, core.KindOf(err))
		})
	}
}

func TestValidateGraph_SharedNameAcrossBranches(t *testing.T) {
	a1, err := New("Shared", "")
	require.NoError(t, err)
	a2, err := New("Shared", "")
	require.NoError(t, err)
	left, err := New("Left", "", WithDelegates(a1))
	require.NoError(t, err)
	right, err := New("Right", "", WithDelegates(a2))
	require.NoError(t, err)

	_, err = New("Root", "", WithDelegates(left, right))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	assert.ErrorIs(t, ValidateGraph(nil), core.ErrConfiguration)
}
