package device

import "time"

// Kind is the device category discriminant.
type Kind string

// Kind constants.
const (
	KindProduction  Kind = "production"
	KindStorage     Kind = "storage"
	KindConsumption Kind = "consumption"
)

// AllKinds returns all valid device kinds.
func AllKinds() []Kind {
	return []Kind{KindProduction, KindStorage, KindConsumption}
}

// ParseKind converts a string to a Kind.
// Returns ErrUnsupportedKind for anything outside the known set.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProduction, KindStorage, KindConsumption:
		return Kind(s), nil
	default:
		return "", ErrUnsupportedKind
	}
}

// Status is the device availability state. Only online devices are simulated.
type Status string

// Status constants.
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Production holds the reading fields of an energy-producing device.
type Production struct {
	// OutputWatts is the instantaneous production rate in watts.
	OutputWatts int `json:"instantaneous_output_watts"`

	// IsSolar marks solar panels, whose output drops to zero outside
	// daylight hours during simulation.
	IsSolar bool `json:"is_solar"`
}

// Storage holds the reading fields of an energy-storing device.
//
// Invariant after every simulation tick:
// 0 <= CurrentLevelWh <= TotalCapacityWh, and ChargeDischargeRateWatts
// equals the actual level change applied in that tick (post-clamp).
type Storage struct {
	// TotalCapacityWh is the maximum energy capacity in watt-hours.
	TotalCapacityWh int `json:"total_capacity_wh"`

	// CurrentLevelWh is the current charge level in watt-hours.
	CurrentLevelWh int `json:"current_level_wh"`

	// ChargeDischargeRateWatts is the current rate in watts.
	// Positive when charging, negative when discharging.
	ChargeDischargeRateWatts int `json:"charge_discharge_rate_watts"`
}

// Consumption holds the reading fields of an energy-consuming device.
type Consumption struct {
	// RateWatts is the current consumption rate in watts.
	RateWatts int `json:"consumption_rate_watts"`
}

// Device is an energy device record.
//
// Kind selects which of the three payload pointers is populated; the other
// two are always nil for a valid record.
type Device struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`

	Production  *Production  `json:"production,omitempty"`
	Storage     *Storage     `json:"storage,omitempty"`
	Consumption *Consumption `json:"consumption,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOnline reports whether the device participates in simulation ticks.
func (d *Device) IsOnline() bool {
	return d.Status == StatusOnline
}
