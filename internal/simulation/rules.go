package simulation

import "math/rand/v2"

// Reading bounds, in watts.
const (
	productionMinWatts = 1000
	productionMaxWatts = 5000

	consumptionMinWatts = 500
	consumptionMaxWatts = 3000

	storageFlowBoundWatts = 1000
)

// Solar producers generate only between these local hours, inclusive.
const (
	solarDayStartHour = 6
	solarDayEndHour   = 18
)

// randRange draws a uniform value from [min, max].
func randRange(rng *rand.Rand, min, max int) int {
	return min + rng.IntN(max-min+1)
}

// simulateProduction draws a production reading. Solar producers are
// dark outside daylight hours; everything else generates around the
// clock.
func simulateProduction(rng *rand.Rand, solar bool, hour int) int {
	if solar && (hour < solarDayStartHour || hour > solarDayEndHour) {
		return 0
	}
	return randRange(rng, productionMinWatts, productionMaxWatts)
}

// simulateConsumption draws a consumption reading.
func simulateConsumption(rng *rand.Rand) int {
	return randRange(rng, consumptionMinWatts, consumptionMaxWatts)
}

// simulateStorage draws a proposed flow, clamps the resulting level to
// [0, capacity], and returns the new level with the flow that actually
// happened. A full battery proposed to charge reports zero flow, and a
// partial overshoot reports the truncated amount.
func simulateStorage(rng *rand.Rand, capacityWh, levelWh int) (newLevelWh, actualFlowWatts int) {
	flow := randRange(rng, -storageFlowBoundWatts, storageFlowBoundWatts)

	newLevelWh = levelWh + flow
	if newLevelWh < 0 {
		newLevelWh = 0
	}
	if newLevelWh > capacityWh {
		newLevelWh = capacityWh
	}

	return newLevelWh, newLevelWh - levelWh
}
