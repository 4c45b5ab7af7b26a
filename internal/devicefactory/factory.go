// Package devicefactory provides the swappable constructor for the BLE
// scan transport. Commands and the presence monitor obtain their scanner
// through DeviceFactory so tests can substitute a fake.
package devicefactory

import (
	"github.com/srg/blewho/internal/device"
	goble "github.com/srg/blewho/internal/device/go-ble"
)

// DeviceFactory creates device.Scanner instances for BLE scanning
// operations. This is a variable so that it can be overridden in tests.
var DeviceFactory = func() (device.Scanner, error) {
	return goble.NewScanner()
}
