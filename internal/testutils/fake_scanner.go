package testutils

import (
	"context"

	"github.com/srg/blewho/internal/device"
)

// FakeScanner replays a scripted advertisement sequence through the scan
// handler, then blocks until the context is cancelled (or returns Err when
// set). It stands in for the BLE transport in tests.
type FakeScanner struct {
	Advertisements []device.Advertisement
	// Err, when non-nil, is returned immediately after replay to simulate a
	// scan capability failure.
	Err error
	// Replayed is closed once every advertisement has been delivered.
	Replayed chan struct{}
}

// NewFakeScanner creates a FakeScanner over the given advertisements.
func NewFakeScanner(advs ...device.Advertisement) *FakeScanner {
	return &FakeScanner{
		Advertisements: advs,
		Replayed:       make(chan struct{}),
	}
}

// Scan implements device.Scanner.
func (s *FakeScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	for _, adv := range s.Advertisements {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		handler(adv)
	}
	if s.Replayed != nil {
		close(s.Replayed)
	}
	if s.Err != nil {
		return s.Err
	}
	<-ctx.Done()
	return ctx.Err()
}
