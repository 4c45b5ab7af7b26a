package testutils

import (
	"github.com/srg/blewho/internal/device"
)

// FakeAdvertisement is a scripted device.Advertisement for tests.
type FakeAdvertisement struct {
	address     string
	name        string
	rssi        int
	connectable bool
	manufData   []byte
	services    []string
}

func (a *FakeAdvertisement) Addr() string             { return a.address }
func (a *FakeAdvertisement) LocalName() string        { return a.name }
func (a *FakeAdvertisement) RSSI() int                { return a.rssi }
func (a *FakeAdvertisement) Connectable() bool        { return a.connectable }
func (a *FakeAdvertisement) ManufacturerData() []byte { return a.manufData }
func (a *FakeAdvertisement) Services() []string       { return a.services }

// AdvertisementBuilder builds fake BLE advertisements for testing with a
// fluent API.
type AdvertisementBuilder struct {
	adv FakeAdvertisement
}

// NewAdvertisementBuilder creates a builder with connectable=true.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{adv: FakeAdvertisement{connectable: true}}
}

// WithAddress sets the device address for the advertisement.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.address = addr
	return b
}

// WithName sets the local name for the advertisement.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.name = name
	return b
}

// WithRSSI sets the signal strength for the advertisement.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.rssi = rssi
	return b
}

// WithConnectable sets whether the advertiser accepts connections.
func (b *AdvertisementBuilder) WithConnectable(connectable bool) *AdvertisementBuilder {
	b.adv.connectable = connectable
	return b
}

// WithManufacturerData sets the manufacturer-specific data.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.manufData = data
	return b
}

// WithServices adds service UUIDs to the advertisement.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.services = append(b.adv.services, uuids...)
	return b
}

// Build returns the completed advertisement.
func (b *AdvertisementBuilder) Build() device.Advertisement {
	adv := b.adv
	return &adv
}
