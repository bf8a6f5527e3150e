package stats

import (
	"time"

	"github.com/voltgrid/voltgrid-core/internal/device"
)

// Accumulator collects one owner's device readings over a single tick.
// The zero value is ready to use.
type Accumulator struct {
	ProductionWatts  int
	ConsumptionWatts int

	CapacityWh int
	LevelWh    int
	FlowWatts  int

	StorageDevices int
}

// Fold adds one device's current reading to the totals, dispatching on
// kind. Devices with an unknown kind are ignored.
func (a *Accumulator) Fold(d *device.Device) {
	switch d.Kind {
	case device.KindProduction:
		a.ProductionWatts += d.Production.OutputWatts
	case device.KindStorage:
		a.CapacityWh += d.Storage.TotalCapacityWh
		a.LevelWh += d.Storage.CurrentLevelWh
		a.FlowWatts += d.Storage.ChargeDischargeRateWatts
		a.StorageDevices++
	case device.KindConsumption:
		a.ConsumptionWatts += d.Consumption.RateWatts
	}
}

// Merge adds another accumulator's totals field-wise.
func (a *Accumulator) Merge(other Accumulator) {
	a.ProductionWatts += other.ProductionWatts
	a.ConsumptionWatts += other.ConsumptionWatts
	a.CapacityWh += other.CapacityWh
	a.LevelWh += other.LevelWh
	a.FlowWatts += other.FlowWatts
	a.StorageDevices += other.StorageDevices
}

// BuildSnapshot turns accumulated totals into the wire snapshot.
//
// Storage percentage is level over capacity; an owner with no storage
// capacity reports 0, not NaN. Net grid flow is consumption minus
// production minus storage flow: positive means drawing from the grid,
// negative means exporting.
func BuildSnapshot(a Accumulator, at time.Time) Snapshot {
	var percentage float64
	if a.CapacityWh > 0 {
		percentage = float64(a.LevelWh) / float64(a.CapacityWh) * 100
	}

	return Snapshot{
		CurrentProduction:  a.ProductionWatts,
		CurrentConsumption: a.ConsumptionWatts,
		CurrentStorage: StorageSummary{
			TotalCapacityWh: a.CapacityWh,
			CurrentLevelWh:  a.LevelWh,
			Percentage:      percentage,
		},
		CurrentStorageFlow: a.FlowWatts,
		NetGridFlow:        a.ConsumptionWatts - a.ProductionWatts - a.FlowWatts,
		Timestamp:          at.Unix(),
	}
}
