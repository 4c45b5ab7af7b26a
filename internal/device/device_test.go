package device_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blewho/internal/device"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "maps missing adapter",
			err:  errors.New("no devices available"),
			want: device.ErrNoAdapter,
		},
		{
			name: "maps adapter init failure",
			err:  errors.New("can't init device: hci0 down"),
			want: device.ErrNoAdapter,
		},
		{
			name: "maps missing privileges",
			err:  errors.New("operation not permitted"),
			want: device.ErrPermission,
		},
		{
			name: "maps permission denied",
			err:  errors.New("permission denied opening hci socket"),
			want: device.ErrPermission,
		},
		{
			name: "matches case-insensitively",
			err:  errors.New("Operation Not Permitted"),
			want: device.ErrPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := device.NormalizeError(tt.err)
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.want)
			// The original message is preserved for context.
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}

	t.Run("passes unknown errors through unchanged", func(t *testing.T) {
		err := errors.New("something else entirely")
		assert.Same(t, err, device.NormalizeError(err))
	})

	t.Run("passes nil through", func(t *testing.T) {
		assert.NoError(t, device.NormalizeError(nil))
	})
}
