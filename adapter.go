// Package adaptergw contains core domain types and interfaces for the adapter gateway
package adaptergw

import (
	"net"
	"strconv"
)

// Location is the network address of a resolved adapter instance.
// It is produced by the registry for a single request and never cached.
type Location struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the "host:port" form used to dial the location
func (l Location) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

func (l Location) String() string {
	return l.Addr()
}

// Valid reports whether the location can be dialed at all
func (l Location) Valid() bool {
	return l.Host != "" && l.Port > 0 && l.Port <= 65535
}
