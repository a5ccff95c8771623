package tests

import (
	"context"
	"testing"

	"parkwise/internal/routing"
)

// ──────────────────────────────────────────────
// 5. ROUTE COST ESTIMATOR FAN-OUT
// ──────────────────────────────────────────────

func TestEstimator_OneEntryPerDestination(t *testing.T) {
	t.Parallel()

	source := NewStubRouteSource()
	source.SetCost(routing.Point{Lat: 1, Lng: 1}, routing.Cost{DistanceMeters: 100, DurationSeconds: 10})
	source.SetCost(routing.Point{Lat: 2, Lng: 2}, routing.Cost{DistanceMeters: 200, DurationSeconds: 20})
	// Destination 3 has no route scripted.

	estimator := routing.NewEstimator(source, 2)
	costs := estimator.Estimate(context.Background(), routing.Point{}, []routing.Destination{
		{ID: 1, Lat: 1, Lng: 1},
		{ID: 2, Lat: 2, Lng: 2},
		{ID: 3, Lat: 3, Lng: 3},
	})

	if len(costs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(costs))
	}
	if costs[1].DistanceMeters != 100 || costs[2].DistanceMeters != 200 {
		t.Errorf("unexpected measured costs: %+v", costs)
	}
	if !costs[3].Unknown() {
		t.Errorf("expected sentinel for failed lookup, got %+v", costs[3])
	}
	if source.CallCount != 3 {
		t.Errorf("expected 3 lookups, got %d", source.CallCount)
	}
}

func TestEstimator_TotalOutageYieldsAllSentinels(t *testing.T) {
	t.Parallel()

	source := NewStubRouteSource() // every lookup fails
	estimator := routing.NewEstimator(source, 4)

	costs := estimator.Estimate(context.Background(), routing.Point{}, []routing.Destination{
		{ID: 1, Lat: 1, Lng: 1},
		{ID: 2, Lat: 2, Lng: 2},
	})

	if len(costs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(costs))
	}
	for id, cost := range costs {
		if !cost.Unknown() {
			t.Errorf("destination %d: expected sentinel, got %+v", id, cost)
		}
	}
}

func TestEstimator_NoDestinations(t *testing.T) {
	t.Parallel()

	estimator := routing.NewEstimator(NewStubRouteSource(), 4)
	costs := estimator.Estimate(context.Background(), routing.Point{}, nil)
	if len(costs) != 0 {
		t.Errorf("expected empty map, got %d entries", len(costs))
	}
}
