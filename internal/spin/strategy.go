package spin

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// Rand is the randomness a strategy draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// lockedRand serializes access to a caller-supplied source, which is
// usually not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// Outcome is the result of applying a strategy to an eligible set.
// Chosen is nil for the manual strategy, which returns Eligible instead.
type Outcome struct {
	Chosen   *model.Participant
	Eligible []*model.Participant
}

// Strategy picks from a non-empty eligible set. The set of strategies
// is closed: only StrategyFor constructs them.
type Strategy interface {
	Method() model.SelectionMethod
	Pick(eligible []*model.Participant, rng Rand) Outcome
	sealed()
}

// StrategyFor returns the strategy implementing m.
func StrategyFor(m model.SelectionMethod) (Strategy, error) {
	switch m {
	case model.MethodRandom:
		return randomStrategy{}, nil
	case model.MethodWeighted:
		return weightedStrategy{}, nil
	case model.MethodManual:
		return manualStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrInvalidSelectionMethod, m)
}

type randomStrategy struct{}

func (randomStrategy) Method() model.SelectionMethod { return model.MethodRandom }
func (randomStrategy) sealed()                       {}

// Pick draws uniformly.
func (randomStrategy) Pick(eligible []*model.Participant, rng Rand) Outcome {
	return Outcome{Chosen: eligible[rng.IntN(len(eligible))], Eligible: eligible}
}

type weightedStrategy struct{}

func (weightedStrategy) Method() model.SelectionMethod { return model.MethodWeighted }
func (weightedStrategy) sealed()                       {}

// Pick draws r in [0, sum) and returns the first candidate, in eligible
// order, whose cumulative weight reaches r.
func (weightedStrategy) Pick(eligible []*model.Participant, rng Rand) Outcome {
	weights := Weights(eligible)
	total := 0
	for _, w := range weights {
		total += w
	}

	r := rng.Float64() * float64(total)
	cum := 0.0
	for i, w := range weights {
		cum += float64(w)
		if cum >= r {
			return Outcome{Chosen: eligible[i], Eligible: eligible}
		}
	}
	// Unreachable while r < total; guards float rounding.
	return Outcome{Chosen: eligible[len(eligible)-1], Eligible: eligible}
}

// Weights returns max(count) - count + 1 for each participant, with the
// maximum taken once over the whole set. Every weight is at least 1.
func Weights(eligible []*model.Participant) []int {
	maxCount := 0
	for _, p := range eligible {
		maxCount = max(maxCount, p.SelectionCount)
	}
	weights := make([]int, len(eligible))
	for i, p := range eligible {
		weights[i] = maxCount - p.SelectionCount + 1
	}
	return weights
}

type manualStrategy struct{}

func (manualStrategy) Method() model.SelectionMethod { return model.MethodManual }
func (manualStrategy) sealed()                       {}

// Pick returns the eligible set untouched for an out-of-band choice.
func (manualStrategy) Pick(eligible []*model.Participant, _ Rand) Outcome {
	return Outcome{Eligible: eligible}
}
