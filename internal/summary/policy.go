package summary

import "math/rand"

// Policy decides whether a finished dialogue turn should trigger
// summarization. Injected so tests can force deterministic behavior.
type Policy interface {
	ShouldSummarize() bool
}

// RandomPolicy triggers with a fixed probability per turn.
type RandomPolicy struct {
	Probability float64
	Rand        *rand.Rand
}

// DefaultProbability matches the roughly once-per-ten-turns cadence the
// product wants for weekly digests.
const DefaultProbability = 0.1

func NewRandomPolicy(r *rand.Rand) *RandomPolicy {
	return &RandomPolicy{Probability: DefaultProbability, Rand: r}
}

func (p *RandomPolicy) ShouldSummarize() bool {
	if p.Rand != nil {
		return p.Rand.Float64() < p.Probability
	}
	return rand.Float64() < p.Probability
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func() bool

func (f PolicyFunc) ShouldSummarize() bool { return f() }
