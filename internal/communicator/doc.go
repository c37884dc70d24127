// Package communicator keeps the table of backend protocol implementations.
//
// Each implementation registers a constructor under its kind from its own
// package init, the same way database/sql drivers do:
//
//	import _ "github.com/dkeye/Relay/internal/communicator/csgo"
//
// Servers are then created by kind without knowing the concrete type.
package communicator
