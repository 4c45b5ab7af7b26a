// Package presence turns the raw BLE advertisement stream into classified
// device sightings, resolving addresses and advertised names against a
// hot-reloaded roster.
package presence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/srg/blewho/internal/device"
	"github.com/srg/blewho/internal/devicefactory"
	"github.com/srg/blewho/internal/roster"
)

// Sighting is one classified advertisement observation.
type Sighting struct {
	Address        string    `json:"address"`
	AdvertisedName string    `json:"advertised_name,omitempty"`
	FriendlyName   string    `json:"friendly_name,omitempty"`
	RSSI           int       `json:"rssi"`
	Known          bool      `json:"known"`
	Timestamp      time.Time `json:"timestamp"`
}

// Options configures monitoring behavior.
type Options struct {
	// ReloadInterval bounds how often the roster file is re-checked for
	// changes.
	ReloadInterval time.Duration
	// AllowDuplicates requests repeated advertisements from the transport.
	// Presence monitoring wants them; a device that keeps advertising is a
	// device that is still here.
	AllowDuplicates bool
	// MatchByName also resolves sightings whose advertised name appears in
	// the roster, not just the address.
	MatchByName bool
}

// DefaultOptions returns default monitoring options.
func DefaultOptions() *Options {
	return &Options{
		ReloadInterval:  5 * time.Second,
		AllowDuplicates: true,
		MatchByName:     true,
	}
}

// Monitor consumes the advertisement stream and emits Sightings.
type Monitor struct {
	store  *roster.Store
	logger *logrus.Logger
	opts   *Options

	// lastRSSI tracks the most recent signal strength per address, used to
	// tell first sightings from repeats.
	lastRSSI *hashmap.Map[string, int]
	events   chan Sighting
}

// NewMonitor creates a presence monitor over the given roster.
func NewMonitor(store *roster.Store, opts *Options, logger *logrus.Logger) (*Monitor, error) {
	if store == nil {
		return nil, errors.New("roster store is required")
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Monitor{
		store:    store,
		logger:   logger,
		opts:     opts,
		lastRSSI: hashmap.New[string, int](),
		events:   make(chan Sighting, 100),
	}, nil
}

// Run subscribes to the advertisement stream and blocks until ctx is
// cancelled or the scan capability fails. The event channel is closed when
// Run returns, so Run must be called at most once per Monitor.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.events)

	scanner, err := devicefactory.DeviceFactory()
	if err != nil {
		return fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"roster":          m.store.Path(),
		"entries":         m.store.Len(),
		"reload_interval": m.opts.ReloadInterval,
	}).Info("Starting presence monitoring")

	reloadCtx, stopReload := context.WithCancel(ctx)
	defer stopReload()
	go m.reloadLoop(reloadCtx)

	err = scanner.Scan(ctx, m.opts.AllowDuplicates, m.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("scan failed: %w", err)
	}
	return nil
}

// Events returns a read-only channel of device sightings.
func (m *Monitor) Events() <-chan Sighting {
	return m.events
}

// reloadLoop re-checks the roster file on a fixed tick so mapping edits
// take effect without a restart.
func (m *Monitor) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(m.opts.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.store.MaybeReload(); err != nil {
				m.logger.WithError(err).Warn("Roster reload failed")
			}
		}
	}
}

// handleAdvertisement classifies a single advertisement and emits it.
// With AllowDuplicates off, repeats whose signal strength has not moved
// are dropped here as well; the transport's own duplicate filter resets
// per scan session.
func (m *Monitor) handleAdvertisement(adv device.Advertisement) {
	sighting := m.classify(adv)

	prevRSSI, seen := m.lastRSSI.Get(sighting.Address)
	if !seen {
		m.logger.WithFields(logrus.Fields{
			"address": sighting.Address,
			"name":    sighting.AdvertisedName,
			"rssi":    sighting.RSSI,
			"known":   sighting.Known,
		}).Info("Discovered new device")
	}
	if seen && !m.opts.AllowDuplicates && prevRSSI == sighting.RSSI {
		m.logger.WithField("address", sighting.Address).Debug("Unchanged repeat sighting suppressed")
		return
	}
	m.lastRSSI.Set(sighting.Address, sighting.RSSI)

	// Drop on overflow rather than stall the scan callback.
	select {
	case m.events <- sighting:
	default:
		m.logger.WithField("address", sighting.Address).Debug("Sighting dropped, consumer too slow")
	}
}

// classify resolves an advertisement against the roster.
func (m *Monitor) classify(adv device.Advertisement) Sighting {
	sighting := Sighting{
		Address:        strings.ToUpper(adv.Addr()),
		AdvertisedName: adv.LocalName(),
		RSSI:           adv.RSSI(),
		Timestamp:      time.Now(),
	}

	if name, ok := m.store.Lookup(sighting.Address); ok {
		sighting.FriendlyName = name
		sighting.Known = true
		return sighting
	}
	if m.opts.MatchByName && sighting.AdvertisedName != "" {
		if name, ok := m.store.Lookup(sighting.AdvertisedName); ok {
			sighting.FriendlyName = name
			sighting.Known = true
		}
	}
	return sighting
}
