package alns

import (
	"math"

	"optimile/internal/cost"
	"optimile/internal/geometry"
	"optimile/internal/models"
)

// Repair reinserts every stop in removed into remaining, always at a
// position >= 1, and returns the resulting full route.
type Repair interface {
	Name() string
	Apply(remaining, removed []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) []int
}

// insertAt returns a copy of route with stop inserted at position pos.
func insertAt(route []int, pos, stop int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:pos]...)
	out = append(out, stop)
	out = append(out, route[pos:]...)
	return out
}

// bestInsertion returns the position in [1, len(route)] that
// minimizes the cost of inserting stop into route, plus that cost and
// the second-lowest cost over all positions (+Inf when only one
// position exists). Ties are broken by lowest position.
func bestInsertion(route []int, stop int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) (bestPos int, bestCost, secondBestCost float64) {
	bestCost = math.Inf(1)
	secondBestCost = math.Inf(1)
	bestPos = 1

	for pos := 1; pos <= len(route); pos++ {
		candidate := insertAt(route, pos, stop)
		c, err := cost.Evaluate(candidate, stops, memo, ctx)
		if err != nil {
			c = math.Inf(1)
		}
		if c < bestCost {
			secondBestCost = bestCost
			bestCost = c
			bestPos = pos
		} else if c < secondBestCost {
			secondBestCost = c
		}
	}
	return bestPos, bestCost, secondBestCost
}

// GreedyRepair reinserts each removed stop, in the order given, at
// the position that minimizes its insertion cost.
type GreedyRepair struct{}

func (GreedyRepair) Name() string { return "greedy" }

func (GreedyRepair) Apply(remaining, removed []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) []int {
	current := append([]int(nil), remaining...)
	for _, r := range removed {
		pos, _, _ := bestInsertion(current, r, stops, memo, ctx)
		current = insertAt(current, pos, r)
	}
	return current
}

// Regret2Repair prioritizes the removed stop whose best and
// second-best insertion costs differ most (its "regret"), inserting
// it greedily and repeating until every removed stop is placed.
type Regret2Repair struct{}

func (Regret2Repair) Name() string { return "regret" }

func (Regret2Repair) Apply(remaining, removed []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) []int {
	current := append([]int(nil), remaining...)
	pending := append([]int(nil), removed...)

	for len(pending) > 0 {
		bestIdx := 0
		bestRegret := math.Inf(-1)
		bestPos := 1

		for i, r := range pending {
			pos, best, second := bestInsertion(current, r, stops, memo, ctx)
			regret := best
			if !math.IsInf(second, 1) {
				regret = second - best
			}
			if regret > bestRegret {
				bestRegret = regret
				bestIdx = i
				bestPos = pos
			}
		}

		current = insertAt(current, bestPos, pending[bestIdx])
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)
	}

	return current
}
