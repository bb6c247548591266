package model

import (
	"context"
	"errors"

	"github.com/loft/finassist/internal/util"
)

// ErrNoMatch is returned by a Classifier when no candidate fits the text.
var ErrNoMatch = errors.New("no candidate matched")

// Candidate is a delegation target offered to a Classifier.
type Candidate struct {
	Name     string
	Keywords []string
}

// Classifier picks the delegate best suited to a piece of user text.
type Classifier interface {
	Classify(ctx context.Context, text string, candidates []Candidate) (Candidate, error)
}

// KeywordClassifier scores candidates by the number of their keywords found in
// the text. Comparison ignores case and accents and matches whole words or
// phrases. Ties go to the earlier candidate.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the deterministic keyword classifier.
func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

// Classify implements Classifier.
func (KeywordClassifier) Classify(ctx context.Context, text string, candidates []Candidate) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	best, bestScore := -1, 0
	for i, c := range candidates {
		if score := Score(text, c.Keywords); score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return Candidate{}, ErrNoMatch
	}

	return candidates[best], nil
}

// Score returns how many of keywords occur in text.
func Score(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if util.ContainsPhrase(text, kw) {
			n++
		}
	}
	return n
}
