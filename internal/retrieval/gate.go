// Package retrieval decides whether retrieved context is sufficient to
// ground an answer.
package retrieval

import (
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
)

// Outcome classifies a retrieval result.
type Outcome string

const (
	// OutcomeEmpty means the topic has no indexed chunks at all.
	OutcomeEmpty Outcome = "empty"
	// OutcomeInsufficient means the best match scored below the threshold.
	OutcomeInsufficient Outcome = "insufficient"
	// OutcomeConfident means the matches are good enough to use as context.
	OutcomeConfident Outcome = "confident"
)

// Decision is the gate's verdict on one query's matches.
type Decision struct {
	Outcome Outcome

	// Context holds the matches to ground the answer on, best first.
	// Populated only when Outcome is OutcomeConfident.
	Context []vectorstore.Match

	// BestScore is the top match's similarity; zero when no matches exist.
	BestScore float64
}

// Confidence returns the score exposed to callers: the best similarity
// when confident, nil otherwise.
func (d Decision) Confidence() *float64 {
	if d.Outcome != OutcomeConfident {
		return nil
	}
	score := d.BestScore
	return &score
}

// Gate applies a fixed similarity threshold to retrieval results.
type Gate struct {
	threshold float64
}

// NewGate creates a gate with the given confidence threshold.
func NewGate(threshold float64) *Gate {
	return &Gate{threshold: threshold}
}

// Threshold returns the configured confidence threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Decide classifies the matches for one query. Matches are expected best
// first, as returned by the vector store.
func (g *Gate) Decide(matches []vectorstore.Match) Decision {
	if len(matches) == 0 {
		return Decision{Outcome: OutcomeEmpty}
	}

	best := matches[0].Score
	if best < g.threshold {
		return Decision{Outcome: OutcomeInsufficient, BestScore: best}
	}

	return Decision{
		Outcome:   OutcomeConfident,
		Context:   matches,
		BestScore: best,
	}
}
