package goble

import (
	"context"

	ble "github.com/go-ble/ble"

	"github.com/srg/blewho/internal/device"
)

// bleScanner wraps ble.Device to implement the device.Scanner interface.
type bleScanner struct {
	dev ble.Device
}

// Scan adapts a handler expecting a device.Advertisement to the one
// expecting ble.Advertisement.
func (s *bleScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	}
	if err := s.dev.Scan(ctx, allowDup, bleHandler); err != nil {
		return device.NormalizeError(err)
	}
	return nil
}

// NewScanner creates a device.Scanner backed by the host BLE adapter.
func NewScanner() (device.Scanner, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, device.NormalizeError(err)
	}
	return &bleScanner{dev: dev}, nil
}
