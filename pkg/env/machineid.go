package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the controller, stable across
// restarts. It falls back to the host name when no machine ID is
// available.
func MachineID() string {
	id, err := machineid.ProtectedID("meter")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "meter"
}
