package device

import (
	"github.com/google/uuid"
)

// maxNameLength bounds device names.
const maxNameLength = 100

// CreateInput is the wire shape for device creation.
//
// Kind-specific fields are pointers so "absent" and "zero" can be told
// apart: each kind requires exactly its own fields and forbids the rest.
type CreateInput struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Kind   string `json:"device_type"`

	OutputWatts *int  `json:"instantaneous_output_watts,omitempty"`
	IsSolar     *bool `json:"is_solar,omitempty"`

	TotalCapacityWh          *int `json:"total_capacity_wh,omitempty"`
	CurrentLevelWh           *int `json:"current_level_wh,omitempty"`
	ChargeDischargeRateWatts *int `json:"charge_discharge_rate_watts,omitempty"`

	ConsumptionRateWatts *int `json:"consumption_rate_watts,omitempty"`
}

// UpdateInput is the wire shape for partial device updates.
// Nil fields are left unchanged. Kind cannot be changed.
type UpdateInput struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`

	OutputWatts *int  `json:"instantaneous_output_watts,omitempty"`
	IsSolar     *bool `json:"is_solar,omitempty"`

	TotalCapacityWh          *int `json:"total_capacity_wh,omitempty"`
	CurrentLevelWh           *int `json:"current_level_wh,omitempty"`
	ChargeDischargeRateWatts *int `json:"charge_discharge_rate_watts,omitempty"`

	ConsumptionRateWatts *int `json:"consumption_rate_watts,omitempty"`
}

// NewFromInput validates creation input and builds a Device for the owner.
//
// Enforced per kind (the same boundary rules the mutation API exposes):
//   - production: instantaneous_output_watts required; storage and
//     consumption fields forbidden
//   - storage: total_capacity_wh, current_level_wh and
//     charge_discharge_rate_watts required; production and consumption
//     fields forbidden; 0 <= current_level_wh <= total_capacity_wh
//   - consumption: consumption_rate_watts required; everything else forbidden
func NewFromInput(ownerID string, in CreateInput) (*Device, error) {
	if err := validateName(in.Name); err != nil {
		return nil, err
	}

	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	kind, err := ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}

	d := &Device{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    in.Name,
		Kind:    kind,
		Status:  status,
	}

	switch kind {
	case KindProduction:
		if in.OutputWatts == nil {
			return nil, invalidf("instantaneous_output_watts", "required for production devices")
		}
		if in.TotalCapacityWh != nil || in.CurrentLevelWh != nil ||
			in.ChargeDischargeRateWatts != nil || in.ConsumptionRateWatts != nil {
			return nil, invalidf("device_type", "only instantaneous_output_watts is allowed for production devices")
		}
		if *in.OutputWatts < 0 {
			return nil, invalidf("instantaneous_output_watts", "must not be negative")
		}
		isSolar := false
		if in.IsSolar != nil {
			isSolar = *in.IsSolar
		}
		d.Production = &Production{OutputWatts: *in.OutputWatts, IsSolar: isSolar}

	case KindStorage:
		if in.TotalCapacityWh == nil || in.CurrentLevelWh == nil || in.ChargeDischargeRateWatts == nil {
			return nil, invalidf("device_type",
				"total_capacity_wh, current_level_wh, and charge_discharge_rate_watts are required for storage devices")
		}
		if in.OutputWatts != nil || in.IsSolar != nil || in.ConsumptionRateWatts != nil {
			return nil, invalidf("device_type", "invalid fields for storage devices")
		}
		if *in.TotalCapacityWh < 0 {
			return nil, invalidf("total_capacity_wh", "must not be negative")
		}
		if *in.CurrentLevelWh < 0 {
			return nil, invalidf("current_level_wh", "must not be negative")
		}
		if *in.CurrentLevelWh > *in.TotalCapacityWh {
			return nil, invalidf("current_level_wh", "cannot exceed total_capacity_wh")
		}
		d.Storage = &Storage{
			TotalCapacityWh:          *in.TotalCapacityWh,
			CurrentLevelWh:           *in.CurrentLevelWh,
			ChargeDischargeRateWatts: *in.ChargeDischargeRateWatts,
		}

	case KindConsumption:
		if in.ConsumptionRateWatts == nil {
			return nil, invalidf("consumption_rate_watts", "required for consumption devices")
		}
		if in.OutputWatts != nil || in.IsSolar != nil || in.TotalCapacityWh != nil ||
			in.CurrentLevelWh != nil || in.ChargeDischargeRateWatts != nil {
			return nil, invalidf("device_type", "only consumption_rate_watts is allowed for consumption devices")
		}
		if *in.ConsumptionRateWatts < 0 {
			return nil, invalidf("consumption_rate_watts", "must not be negative")
		}
		d.Consumption = &Consumption{RateWatts: *in.ConsumptionRateWatts}
	}

	return d, nil
}

// ApplyUpdate merges a partial update onto an existing device, enforcing
// the same per-kind field rules as creation. The device kind is fixed;
// fields belonging to another kind are rejected.
func ApplyUpdate(d *Device, in UpdateInput) error {
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return err
		}
		d.Name = *in.Name
	}

	if in.Status != nil {
		status, err := parseStatus(*in.Status)
		if err != nil {
			return err
		}
		d.Status = status
	}

	switch d.Kind {
	case KindProduction:
		if in.TotalCapacityWh != nil || in.CurrentLevelWh != nil ||
			in.ChargeDischargeRateWatts != nil || in.ConsumptionRateWatts != nil {
			return invalidf("device_type", "only instantaneous_output_watts is allowed for production devices")
		}
		if in.OutputWatts != nil {
			if *in.OutputWatts < 0 {
				return invalidf("instantaneous_output_watts", "must not be negative")
			}
			d.Production.OutputWatts = *in.OutputWatts
		}
		if in.IsSolar != nil {
			d.Production.IsSolar = *in.IsSolar
		}

	case KindStorage:
		if in.OutputWatts != nil || in.IsSolar != nil || in.ConsumptionRateWatts != nil {
			return invalidf("device_type", "invalid fields for a storage device")
		}
		if in.TotalCapacityWh != nil {
			if *in.TotalCapacityWh < 0 {
				return invalidf("total_capacity_wh", "must not be negative")
			}
			d.Storage.TotalCapacityWh = *in.TotalCapacityWh
		}
		if in.CurrentLevelWh != nil {
			if *in.CurrentLevelWh < 0 {
				return invalidf("current_level_wh", "must not be negative")
			}
			d.Storage.CurrentLevelWh = *in.CurrentLevelWh
		}
		if in.ChargeDischargeRateWatts != nil {
			d.Storage.ChargeDischargeRateWatts = *in.ChargeDischargeRateWatts
		}
		// Bounds are checked on the merged result so a capacity shrink
		// and level raise in one request cannot slip past the invariant.
		if d.Storage.CurrentLevelWh > d.Storage.TotalCapacityWh {
			return invalidf("current_level_wh", "cannot exceed total_capacity_wh")
		}

	case KindConsumption:
		if in.OutputWatts != nil || in.IsSolar != nil || in.TotalCapacityWh != nil ||
			in.CurrentLevelWh != nil || in.ChargeDischargeRateWatts != nil {
			return invalidf("device_type", "only consumption_rate_watts is allowed for consumption devices")
		}
		if in.ConsumptionRateWatts != nil {
			if *in.ConsumptionRateWatts < 0 {
				return invalidf("consumption_rate_watts", "must not be negative")
			}
			d.Consumption.RateWatts = *in.ConsumptionRateWatts
		}

	default:
		return ErrUnsupportedKind
	}

	return nil
}

// Validate checks a complete device record for internal consistency.
// Used by the repository tests and as a final guard before persistence.
func Validate(d *Device) error {
	if d == nil {
		return invalidf("device", "nil record")
	}
	if d.ID == "" {
		return invalidf("id", "required")
	}
	if d.OwnerID == "" {
		return invalidf("owner_id", "required")
	}
	if err := validateName(d.Name); err != nil {
		return err
	}
	if _, err := parseStatus(string(d.Status)); err != nil {
		return err
	}

	switch d.Kind {
	case KindProduction:
		if d.Production == nil || d.Storage != nil || d.Consumption != nil {
			return invalidf("device_type", "production device must carry exactly the production payload")
		}
		if d.Production.OutputWatts < 0 {
			return invalidf("instantaneous_output_watts", "must not be negative")
		}
	case KindStorage:
		if d.Storage == nil || d.Production != nil || d.Consumption != nil {
			return invalidf("device_type", "storage device must carry exactly the storage payload")
		}
		if d.Storage.TotalCapacityWh < 0 || d.Storage.CurrentLevelWh < 0 {
			return invalidf("current_level_wh", "must not be negative")
		}
		if d.Storage.CurrentLevelWh > d.Storage.TotalCapacityWh {
			return invalidf("current_level_wh", "cannot exceed total_capacity_wh")
		}
	case KindConsumption:
		if d.Consumption == nil || d.Production != nil || d.Storage != nil {
			return invalidf("device_type", "consumption device must carry exactly the consumption payload")
		}
		if d.Consumption.RateWatts < 0 {
			return invalidf("consumption_rate_watts", "must not be negative")
		}
	default:
		return ErrUnsupportedKind
	}

	return nil
}

// validateName checks a device name is present and within bounds.
func validateName(name string) error {
	if name == "" {
		return invalidf("name", "required")
	}
	if len(name) > maxNameLength {
		return invalidf("name", "must be at most %d characters", maxNameLength)
	}
	return nil
}

// parseStatus converts a string to a Status.
func parseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOnline, StatusOffline:
		return Status(s), nil
	default:
		return "", invalidf("status", "must be either 'online' or 'offline'")
	}
}
