package simulation

import (
	"math/rand/v2"
	"testing"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestSimulateProduction(t *testing.T) {
	rng := testRand(1)

	t.Run("solar is dark at night", func(t *testing.T) {
		for _, hour := range []int{0, 5, 19, 23} {
			if got := simulateProduction(rng, true, hour); got != 0 {
				t.Errorf("solar output at hour %d = %d, want 0", hour, got)
			}
		}
	})

	t.Run("solar produces through daylight", func(t *testing.T) {
		for _, hour := range []int{6, 12, 18} {
			got := simulateProduction(rng, true, hour)
			if got < productionMinWatts || got > productionMaxWatts {
				t.Errorf("solar output at hour %d = %d, want [%d, %d]",
					hour, got, productionMinWatts, productionMaxWatts)
			}
		}
	})

	t.Run("non-solar ignores the clock", func(t *testing.T) {
		for range 100 {
			got := simulateProduction(rng, false, 3)
			if got < productionMinWatts || got > productionMaxWatts {
				t.Errorf("output = %d, want [%d, %d]", got, productionMinWatts, productionMaxWatts)
			}
		}
	})
}

func TestSimulateConsumption(t *testing.T) {
	rng := testRand(2)
	for range 1000 {
		got := simulateConsumption(rng)
		if got < consumptionMinWatts || got > consumptionMaxWatts {
			t.Fatalf("consumption = %d, want [%d, %d]", got, consumptionMinWatts, consumptionMaxWatts)
		}
	}
}

func TestSimulateStorage(t *testing.T) {
	t.Run("level stays within bounds", func(t *testing.T) {
		rng := testRand(3)
		level := 200
		const capacity = 500
		for range 1000 {
			newLevel, flow := simulateStorage(rng, capacity, level)
			if newLevel < 0 || newLevel > capacity {
				t.Fatalf("level %d outside [0, %d]", newLevel, capacity)
			}
			if flow != newLevel-level {
				t.Fatalf("flow = %d, want %d", flow, newLevel-level)
			}
			level = newLevel
		}
	})

	t.Run("empty battery never discharges below zero", func(t *testing.T) {
		rng := testRand(4)
		for range 1000 {
			newLevel, flow := simulateStorage(rng, 10000, 0)
			if newLevel < 0 {
				t.Fatalf("level went negative: %d", newLevel)
			}
			if flow < 0 {
				t.Fatalf("reported discharge from an empty battery: %d", flow)
			}
		}
	})

	t.Run("full battery never overcharges", func(t *testing.T) {
		rng := testRand(5)
		for range 1000 {
			newLevel, flow := simulateStorage(rng, 10000, 10000)
			if newLevel > 10000 {
				t.Fatalf("level exceeded capacity: %d", newLevel)
			}
			if flow > 0 {
				t.Fatalf("reported charge into a full battery: %d", flow)
			}
		}
	})

	t.Run("zero capacity pins level and flow", func(t *testing.T) {
		rng := testRand(6)
		for range 100 {
			newLevel, flow := simulateStorage(rng, 0, 0)
			if newLevel != 0 || flow != 0 {
				t.Fatalf("got level %d flow %d, want 0/0", newLevel, flow)
			}
		}
	})
}
