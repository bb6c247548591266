package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func financingCandidates() []Candidate {
	return []Candidate{
		{Name: "Simulator Agent", Keywords: []string{"simular", "simulação", "quanto ficaria", "parcela"}},
		{Name: "Application Agent", Keywords: []string{"solicitar", "aplicar", "financiar", "contratar"}},
		{Name: "Questions Agent", Keywords: []string{"documentos", "taxa", "juros", "o que", "qual"}},
	}
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	cases := map[string]string{
		"quero simular um financiamento":           "Simulator Agent",
		"Quero fazer uma SIMULACAO":                "Simulator Agent",
		"quanto ficaria a parcela?":                "Simulator Agent",
		"gostaria de solicitar meu financiamento":  "Application Agent",
		"Quais documentos preciso? e qual a taxa?": "Questions Agent",
		"o que é CET?":                             "Questions Agent",
	}

	for text, want := range cases {
		got, err := c.Classify(ctx, text, financingCandidates())
		require.NoError(t, err, text)
		assert.Equal(t, want, got.Name, text)
	}
}

func TestKeywordClassifier_NoMatch(t *testing.T) {
	_, err := NewKeywordClassifier().Classify(context.Background(), "bom dia", financingCandidates())
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestKeywordClassifier_TieGoesToEarlierCandidate(t *testing.T) {
	got, err := NewKeywordClassifier().Classify(context.Background(), "quero simular e contratar", financingCandidates())
	require.NoError(t, err)
	assert.Equal(t, "Simulator Agent", got.Name)
}

func TestKeywordClassifier_WholeWordsOnly(t *testing.T) {
	assert.Equal(t, 0, Score("ceticismo", []string{"cet"}))
	assert.Equal(t, 1, Score("qual o CET?", []string{"cet"}))
}

func TestKeywordClassifier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewKeywordClassifier().Classify(ctx, "simular", financingCandidates())
	assert.ErrorIs(t, err, context.Canceled)
}
