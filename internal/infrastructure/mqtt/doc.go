// Package mqtt publishes energy snapshots to an MQTT broker.
//
// The client wraps paho.mqtt.golang with connection management,
// auto-reconnect and a Last Will and Testament so dashboards can tell
// an offline service from a quiet one. Snapshot topics are retained:
// a subscriber connecting between ticks still sees each owner's
// latest snapshot.
//
// The broker integration is optional; when disabled in configuration
// the service runs without it.
package mqtt
