package stats

// StorageSummary is the aggregated state of an owner's storage fleet.
type StorageSummary struct {
	TotalCapacityWh int     `json:"total_capacity_wh"`
	CurrentLevelWh  int     `json:"current_level_wh"`
	Percentage      float64 `json:"percentage"`
}

// Snapshot is one owner's energy picture at a single instant.
//
// Field names are the cache wire format; readers of the raw cache keys
// depend on them. Timestamp is Unix seconds.
type Snapshot struct {
	CurrentProduction  int            `json:"current_production"`
	CurrentConsumption int            `json:"current_consumption"`
	CurrentStorage     StorageSummary `json:"current_storage"`
	CurrentStorageFlow int            `json:"current_storage_flow"`
	NetGridFlow        int            `json:"net_grid_flow"`
	Timestamp          int64          `json:"timestamp"`
}
