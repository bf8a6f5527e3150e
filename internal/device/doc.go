// Package device defines the energy device records tracked by VoltGrid Core
// and their SQLite persistence.
//
// A device is one of three kinds:
//
//   - production: produces energy (solar panel, generator)
//   - storage: stores energy (battery, electric vehicle)
//   - consumption: consumes energy (air conditioner, heater)
//
// The Device type is a tagged variant: the Kind field is the discriminant
// and exactly one of the Production, Storage, or Consumption payloads is
// non-nil. Code that handles devices dispatches on Kind with an exhaustive
// switch rather than inspecting which payload happens to be set.
//
// The repository exposes narrow partial-update methods for simulated
// readings (UpdateProductionReading and friends) so the simulation engine
// can persist new readings without ever touching ownership, naming, or
// status fields.
//
// Validation of create/update input happens at the API boundary through
// ValidateNew and ValidateUpdate; the simulation engine assumes records
// already satisfy the storage invariant 0 <= level <= capacity.
package device
