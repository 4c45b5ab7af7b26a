package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blewho/internal/roster"
)

func newAddTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.AddCommand(addCmd)
	return cmd
}

func TestAddCmd_CreatesFileAndEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_mappings.txt")

	output, err := executeCommand(newAddTestCmd(), "add", "c3:4f:89:a1:b2:c3", "Kitchen Tag", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Added mapping: C3:4F:89:A1:B2:C3 -> Kitchen Tag")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "C3:4F:89:A1:B2:C3 = Kitchen Tag")
	assert.Contains(t, string(data), "# Device mappings: ADDRESS = Friendly Name")
}

func TestAddCmd_UpdatesExistingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_mappings.txt")
	require.NoError(t, os.WriteFile(path, []byte("AA:BB:CC:DD:EE:FF = Alice\n"), 0o644))

	output, err := executeCommand(newAddTestCmd(), "add", "aa:bb:cc:dd:ee:ff", "Alice's Watch", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Updated mapping: AA:BB:CC:DD:EE:FF -> Alice's Watch")

	store, err := roster.Load(path, nil)
	require.NoError(t, err)
	name, ok := store.Lookup("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, "Alice's Watch", name)
	assert.Equal(t, 1, store.Len())
}

func TestAddCmd_RejectsMalformedAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_mappings.txt")

	_, err := executeCommand(newAddTestCmd(), "add", "not-an-address", "Nobody", "-f", path)
	require.Error(t, err)
	require.ErrorIs(t, err, roster.ErrInvalidAddress)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "mapping file MUST NOT be created for a bad address")
}

func TestAddCmd_RequiresTwoArguments(t *testing.T) {
	_, err := executeCommand(newAddTestCmd(), "add", "AA:BB:CC:DD:EE:FF")
	require.Error(t, err)
}
