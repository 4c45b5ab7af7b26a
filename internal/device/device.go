// Package device defines the transport-agnostic BLE scanning surface.
// Concrete implementations live in the go-ble subpackage; tests substitute
// their own through the devicefactory package.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Advertisement is a single observed BLE broadcast packet summary.
type Advertisement interface {
	// Addr returns the advertiser address as colon-delimited hex.
	Addr() string
	// LocalName returns the advertised device name, possibly empty.
	LocalName() string
	// RSSI returns the received signal strength in dBm.
	RSSI() int
	// Connectable reports whether the advertiser accepts connections.
	Connectable() bool
	// ManufacturerData returns the raw manufacturer-specific payload.
	ManufacturerData() []byte
	// Services returns advertised service UUIDs.
	Services() []string
}

// Scanner is a BLE device capable of scanning for advertisements. Scan
// blocks until ctx is cancelled or the underlying transport fails, invoking
// handler for every received advertisement.
type Scanner interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Scan capability errors.
var (
	// ErrNoAdapter indicates no usable BLE adapter was found on the host.
	ErrNoAdapter = errors.New("no BLE adapter available")
	// ErrPermission indicates the process lacks the privileges to open the
	// BLE adapter (on Linux typically CAP_NET_ADMIN).
	ErrPermission = errors.New("insufficient permissions for BLE adapter")
)

// NormalizeError maps known transport error strings to structured sentinel
// errors. It ensures consistent handling even if the upstream library
// changes messages slightly. Returns wrapped errors to preserve original
// context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no devices available"),
		strings.Contains(msg, "can't init device"):
		return fmt.Errorf("%w: %v", ErrNoAdapter, err)
	case strings.Contains(msg, "operation not permitted"),
		strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	default:
		return err
	}
}
