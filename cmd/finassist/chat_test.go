package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_QuitsOnSair(t *testing.T) {
	var identities []string
	handle := func(_ context.Context, identity, text string) string {
		identities = append(identities, identity)
		return "resposta para " + text
	}

	var out bytes.Buffer
	require.NoError(t, chat(context.Background(), strings.NewReader("oi\nquero simular\nSAIR\nnunca lido\n"), &out, handle))

	assert.Contains(t, out.String(), "Digite 'sair' para encerrar a conversa.")
	assert.Contains(t, out.String(), "Agente: resposta para oi")
	assert.Contains(t, out.String(), "Agente: resposta para quero simular")
	assert.Contains(t, out.String(), chatGoodbye)
	assert.NotContains(t, out.String(), "nunca lido")

	require.Len(t, identities, 2)
	assert.Equal(t, identities[0], identities[1])
	assert.True(t, strings.HasPrefix(identities[0], "cli:"))
}

func TestChat_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	err := chat(context.Background(), strings.NewReader("oi"), &out, func(context.Context, string, string) string { return "olá" })
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Agente: olá")
	assert.Equal(t, 2, strings.Count(out.String(), "Você: "))
}
