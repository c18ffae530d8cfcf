// Package env identifies the machine the device runs on.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine id so the raw id never leaves the machine.
const AppID = "robotalks.blocks"

// NamePrefix starts every default device name.
const NamePrefix = "blocks-"

// MachineID retrieves the unique ID identifying the machine, hashed with
// AppID.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// DefaultName is the advertised name derived from the machine id. It
// falls back to a fixed name if the id is unavailable.
func DefaultName() string {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return NamePrefix + "0000"
	}
	return NameFor(id)
}

// NameFor derives a short device name from an id.
func NameFor(id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return NamePrefix + id
}
