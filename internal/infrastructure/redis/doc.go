// Package redis manages the connection to the stats cache.
//
// It wraps go-redis with connect-time verification, health checks and
// orderly shutdown, mirroring the other infrastructure clients. Domain
// packages build their stores on top of Client.Raw() rather than
// constructing go-redis clients themselves.
package redis
