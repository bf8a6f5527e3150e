package api

import (
	"encoding/json"

	"github.com/voltgrid/voltgrid-core/internal/infrastructure/logging"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/mqtt"
	"github.com/voltgrid/voltgrid-core/internal/stats"
)

// SnapshotFanout relays published snapshots to the WebSocket hub and,
// when a broker is configured, to retained MQTT topics. It satisfies
// the simulation engine's Notifier. Delivery is best effort; a failed
// relay never affects the tick.
type SnapshotFanout struct {
	hub    *Hub
	mqtt   *mqtt.Client
	logger *logging.Logger
}

// NewSnapshotFanout creates a fanout. Both hub and mqtt may be nil.
func NewSnapshotFanout(hub *Hub, mqttClient *mqtt.Client, logger *logging.Logger) *SnapshotFanout {
	return &SnapshotFanout{hub: hub, mqtt: mqttClient, logger: logger}
}

// NotifySnapshot relays one owner's snapshot.
func (f *SnapshotFanout) NotifySnapshot(ownerID string, snap stats.Snapshot) {
	if f.hub != nil {
		f.hub.BroadcastSnapshot(ownerID, snap)
	}

	if f.mqtt != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			f.logger.Error("marshalling snapshot for MQTT failed", "owner_id", ownerID, "error", err)
			return
		}
		if err := f.mqtt.PublishRetained(mqtt.StatsTopic(ownerID), payload); err != nil {
			f.logger.Warn("publishing snapshot to MQTT failed", "owner_id", ownerID, "error", err)
		}
	}
}
