package device

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Name pools for seeded devices.
var (
	seedProductionNames  = []string{"Solar Panel", "Generator"}
	seedStorageNames     = []string{"Battery", "Electric Vehicle"}
	seedConsumptionNames = []string{"Air Conditioner", "Heater", "Electric Vehicle"}

	seedCapacitiesWh = []int{20000, 32000, 50000}
)

// Seed populates the repository with 1-2 devices of each kind for every
// owner. Intended for development and demo environments; it makes no
// attempt to avoid duplicates on repeated runs.
func Seed(ctx context.Context, repo Repository, rng *rand.Rand, ownerIDs []string) error {
	for _, ownerID := range ownerIDs {
		if err := seedOwner(ctx, repo, rng, ownerID); err != nil {
			return fmt.Errorf("seeding devices for owner %s: %w", ownerID, err)
		}
	}
	return nil
}

func seedOwner(ctx context.Context, repo Repository, rng *rand.Rand, ownerID string) error {
	for range 1 + rng.IntN(2) {
		name := seedProductionNames[rng.IntN(len(seedProductionNames))]
		d := &Device{
			ID:      uuid.NewString(),
			OwnerID: ownerID,
			Name:    name,
			Kind:    KindProduction,
			Status:  randomStatus(rng),
			Production: &Production{
				OutputWatts: 1000 + rng.IntN(4001),
				IsSolar:     name == "Solar Panel",
			},
		}
		if err := repo.Create(ctx, d); err != nil {
			return err
		}
	}

	for range 1 + rng.IntN(2) {
		capacity := seedCapacitiesWh[rng.IntN(len(seedCapacitiesWh))]
		d := &Device{
			ID:      uuid.NewString(),
			OwnerID: ownerID,
			Name:    seedStorageNames[rng.IntN(len(seedStorageNames))],
			Kind:    KindStorage,
			Status:  randomStatus(rng),
			Storage: &Storage{
				TotalCapacityWh:          capacity,
				CurrentLevelWh:           rng.IntN(capacity + 1),
				ChargeDischargeRateWatts: rng.IntN(2001) - 1000,
			},
		}
		if err := repo.Create(ctx, d); err != nil {
			return err
		}
	}

	for range 1 + rng.IntN(2) {
		d := &Device{
			ID:      uuid.NewString(),
			OwnerID: ownerID,
			Name:    seedConsumptionNames[rng.IntN(len(seedConsumptionNames))],
			Kind:    KindConsumption,
			Status:  randomStatus(rng),
			Consumption: &Consumption{
				RateWatts: 500 + rng.IntN(2501),
			},
		}
		if err := repo.Create(ctx, d); err != nil {
			return err
		}
	}

	return nil
}

func randomStatus(rng *rand.Rand) Status {
	if rng.IntN(2) == 0 {
		return StatusOnline
	}
	return StatusOffline
}
