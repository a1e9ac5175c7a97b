package alns

import (
	"math/rand"

	"optimile/internal/cost"
	"optimile/internal/geometry"
	"optimile/internal/models"
)

// Destroy removes up to k stops from route, always preserving index 0
// (the anchor: depot or current driver position) at position 0 of
// remaining. remaining and removed together are a partition of route.
type Destroy interface {
	Name() string
	Apply(route []int, stops []models.Stop, k int, rng *rand.Rand) (remaining, removed []int)
}

// RandomDestroy samples k distinct positions from route[1:] uniformly.
type RandomDestroy struct{}

func (RandomDestroy) Name() string { return "random" }

func (RandomDestroy) Apply(route []int, stops []models.Stop, k int, rng *rand.Rand) ([]int, []int) {
	return samplePositions(route, clampK(k, len(route)), rng)
}

// FragileDestroy samples k from the fragile stops in route[1:]; if
// none are fragile, it falls back to RandomDestroy.
type FragileDestroy struct{}

func (FragileDestroy) Name() string { return "fragile" }

func (FragileDestroy) Apply(route []int, stops []models.Stop, k int, rng *rand.Rand) ([]int, []int) {
	var fragilePositions []int
	for i := 1; i < len(route); i++ {
		if stops[route[i]].IsFragile {
			fragilePositions = append(fragilePositions, i)
		}
	}
	if len(fragilePositions) == 0 {
		return RandomDestroy{}.Apply(route, stops, k, rng)
	}

	k = clampK(k, len(fragilePositions)+1)
	rng.Shuffle(len(fragilePositions), func(i, j int) {
		fragilePositions[i], fragilePositions[j] = fragilePositions[j], fragilePositions[i]
	})
	chosen := fragilePositions[:k]
	return splitByPosition(route, chosen)
}

// WorstDestroy removes the single stop whose prefix cost up to and
// including it is maximal — a coarse proxy for "biggest contributor"
// (spec §4.C/§9). Ties broken by lowest position.
type WorstDestroy struct {
	Memo *geometry.Matrix
	Ctx  models.Context
}

func (WorstDestroy) Name() string { return "worst" }

func (d WorstDestroy) Apply(route []int, stops []models.Stop, k int, rng *rand.Rand) ([]int, []int) {
	worstPos := 1
	worstCost := -1.0
	for i := 1; i < len(route); i++ {
		prefix := route[:i+1]
		c, err := cost.Evaluate(prefix, stops, d.Memo, d.Ctx)
		if err != nil {
			continue
		}
		if c > worstCost {
			worstCost = c
			worstPos = i
		}
	}
	return splitByPosition(route, []int{worstPos})
}

func clampK(k, n int) int {
	if k > n-1 {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// samplePositions draws k distinct positions from [1, len(route))
// uniformly without replacement by shuffling all of those positions
// and taking the first k.
func samplePositions(route []int, k int, rng *rand.Rand) ([]int, []int) {
	n := len(route)
	positions := make([]int, n-1)
	for i := range positions {
		positions[i] = i + 1
	}
	rng.Shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})
	return splitByPosition(route, positions[:k])
}

// splitByPosition partitions route into (remaining, removed) given a
// set of positions to remove, preserving route[0] in remaining and
// the relative order of all other elements.
func splitByPosition(route []int, positions []int) ([]int, []int) {
	removeSet := make(map[int]bool, len(positions))
	for _, p := range positions {
		removeSet[p] = true
	}

	remaining := make([]int, 0, len(route)-len(positions))
	removed := make([]int, 0, len(positions))
	for i, stop := range route {
		if removeSet[i] {
			removed = append(removed, stop)
		} else {
			remaining = append(remaining, stop)
		}
	}
	return remaining, removed
}
