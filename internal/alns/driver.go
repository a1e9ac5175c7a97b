// Package alns implements the Adaptive Large Neighborhood Search
// driver that binds the cost function, destroy/repair operators, and
// adaptive selectors into the simulated-annealing outer loop
// described in spec §4.F.
package alns

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"

	"optimile/internal/cost"
	"optimile/internal/geometry"
	"optimile/internal/models"
)

// DefaultIterations is the ALNS iteration budget used when a caller
// does not specify one (spec §4.F).
const DefaultIterations = 400

// DefaultDestroySize is the number of stops removed per destroy call
// (spec §4.C "Default k is 2 in the driver").
const DefaultDestroySize = 2

// temperatureDecay is the per-iteration multiplicative cooling factor.
const temperatureDecay = 0.995

// temperatureFloor prevents divide-by-zero in the acceptance test at
// late iterations.
const temperatureFloor = 1e-6

// rewardDecay is the selector weight decay applied every iteration.
const rewardDecay = 0.8

// Request bundles the inputs to a single Run call (spec §4.F).
type Request struct {
	Stops     []models.Stop
	Context   models.Context
	Iters     int
	Seed      int64
	HasSeed   bool
	DestroySize int
}

// Result is the outcome of an ALNS run: the best route found (a
// permutation of indices into Stops with route[0] == 0) and its cost.
type Result struct {
	Route []int
	Cost  float64
}

// Run executes the simulated-annealing ALNS outer loop (spec §4.F).
// ctx (the Go context.Context, distinct from models.Context) provides
// best-effort cancellation: when it is done, Run returns the current
// best at the next iteration boundary rather than mid-iteration.
func Run(ctx context.Context, req Request) Result {
	n := len(req.Stops)
	iters := req.Iters
	if iters <= 0 {
		iters = DefaultIterations
	}
	k := req.DestroySize
	if k <= 0 {
		k = DefaultDestroySize
	}

	route := make([]int, n)
	for i := range route {
		route[i] = i
	}

	points := make([]models.Coordinates, n)
	for i, s := range req.Stops {
		points[i] = s.GetCoords()
	}
	memo := geometry.NewMatrix(points)

	currentCost, err := cost.Evaluate(route, req.Stops, memo, req.Context)
	if err != nil {
		currentCost = math.Inf(1)
	}
	current := append([]int(nil), route...)
	temperature := 0.15 * currentCost

	// best is tracked separately from the SA working state (current):
	// the SA acceptance test can move current to a worse solution
	// (that is the point of annealing), but best only ever improves,
	// so the baseline-never-worsens invariant holds unconditionally.
	best := append([]int(nil), current...)
	bestCost := currentCost

	if n < 2 {
		return Result{Route: best, Cost: bestCost}
	}

	var rng *rand.Rand
	if req.HasSeed {
		rng = rand.New(rand.NewSource(req.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	destroys := NewSelector("random", "fragile", "worst")
	repairs := NewSelector("greedy", "regret")

	destroyOps := map[string]Destroy{
		"random":  RandomDestroy{},
		"fragile": FragileDestroy{},
		"worst":   WorstDestroy{Memo: memo, Ctx: req.Context},
	}
	repairOps := map[string]Repair{
		"greedy": GreedyRepair{},
		"regret": Regret2Repair{},
	}

	start := time.Now()
	for iter := 0; iter < iters; iter++ {
		select {
		case <-ctx.Done():
			log.Printf("[ALNS] cancelled at iteration=%d/%d", iter, iters)
			return Result{Route: best, Cost: bestCost}
		default:
		}

		dName := destroys.Select(rng)
		rName := repairs.Select(rng)

		remaining, removed := destroyOps[dName].Apply(current, req.Stops, k, rng)
		candidate := repairOps[rName].Apply(remaining, removed, req.Stops, memo, req.Context)

		candidateCost, err := cost.Evaluate(candidate, req.Stops, memo, req.Context)
		if err != nil {
			candidateCost = math.Inf(1)
		}

		delta := candidateCost - currentCost

		accept := delta < 0
		if !accept {
			annealingT := math.Max(temperature, temperatureFloor)
			accept = rng.Float64() < math.Exp(-delta/annealingT)
		}

		if accept {
			current = candidate
			currentCost += delta
			destroys.Reward(dName, delta)
			repairs.Reward(rName, delta)

			if currentCost < bestCost {
				best = append([]int(nil), current...)
				bestCost = currentCost
			}
		}

		destroys.Update(rewardDecay)
		repairs.Update(rewardDecay)
		temperature *= temperatureDecay
	}

	log.Printf("[ALNS] completed iterations=%d cost=%.3f elapsed=%v", iters, bestCost, time.Since(start))
	return Result{Route: best, Cost: bestCost}
}
