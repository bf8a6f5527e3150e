// Package database provides SQLite connection management for VoltGrid Core.
//
// This package manages:
//   - Opening and configuring the SQLite device record store
//   - WAL mode and busy-timeout pragmas for concurrent access
//   - Embedded schema migrations (applied at startup)
//   - Health checks and connection lifecycle
//
// SQLite is configured with a single writer connection; the simulation
// engine's partial reading updates and the API's CRUD writes serialise
// through it while reads proceed concurrently under WAL.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/voltgrid.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
