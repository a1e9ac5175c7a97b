package alns

import "math/rand"

// operatorState tracks one operator's weight and accumulated score
// within a single ALNS run (spec §3 "Operator weights").
type operatorState struct {
	weight float64
	score  float64
}

// Selector holds a roulette-wheel-selected set of named operators for
// one operator family (destroy or repair). It is created at ALNS
// start and discarded with the driver — weights never persist across
// invocations (spec §1 Non-goals: "learning operator weights across
// sessions").
type Selector struct {
	names []string
	state map[string]*operatorState
}

// NewSelector initializes a selector with weight 1.0 and score 0.0
// for each named operator.
func NewSelector(names ...string) *Selector {
	s := &Selector{
		names: append([]string(nil), names...),
		state: make(map[string]*operatorState, len(names)),
	}
	for _, n := range names {
		s.state[n] = &operatorState{weight: 1.0, score: 0.0}
	}
	return s
}

// Select draws an operator name with probability proportional to its
// current weight (roulette wheel over a uniform draw in [0, Σweight)).
func (s *Selector) Select(rng *rand.Rand) string {
	total := 0.0
	for _, n := range s.names {
		total += s.state[n].weight
	}

	r := rng.Float64() * total
	acc := 0.0
	for _, n := range s.names {
		acc += s.state[n].weight
		if acc >= r {
			return n
		}
	}
	// Floating-point fallthrough: return the last operator.
	return s.names[len(s.names)-1]
}

// Reward credits an operator's score for the iteration's accepted
// delta: +5 for an improving move, +1 for a lateral move, 0 otherwise
// (spec §4.E). Note this scores the *accepted* delta, not whether the
// move improved on the best-known cost before acceptance.
func (s *Selector) Reward(name string, delta float64) {
	st := s.state[name]
	switch {
	case delta < 0:
		st.score += 5
	case delta == 0:
		st.score += 1
	}
}

// Update applies exponential decay to every operator's weight from
// its accumulated score, then resets scores to zero. Called every
// iteration — the online schedule is not batched (spec §9).
func (s *Selector) Update(decay float64) {
	for _, n := range s.names {
		st := s.state[n]
		w := decay*st.weight + (1-decay)*st.score
		if w < 0.1 {
			w = 0.1
		}
		st.weight = w
		st.score = 0
	}
}

// Weight returns an operator's current weight, for observability.
func (s *Selector) Weight(name string) float64 {
	return s.state[name].weight
}
