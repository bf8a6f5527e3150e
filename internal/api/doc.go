// Package api provides the HTTP REST API and WebSocket server for
// VoltGrid Core.
//
// It exposes owner-scoped device CRUD, the latest energy snapshot, a
// manual simulation trigger, and a WebSocket stream of snapshots as
// they are published.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
