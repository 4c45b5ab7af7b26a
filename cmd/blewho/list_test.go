package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.AddCommand(listCmd)
	return cmd
}

func TestListCmd_EmptyRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_mappings.txt")

	output, err := executeCommand(newListTestCmd(), "list", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, output, "No device mappings")
}

func TestListCmd_PrintsEntriesInFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_mappings.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\nAA:BB:CC:DD:EE:FF = Alice\n11:22:33:44:55:66 = Bob\n"), 0o644))

	output, err := executeCommand(newListTestCmd(), "list", "-f", path)
	require.NoError(t, err)

	assert.Contains(t, output, "ADDRESS")
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "AA:BB:CC:DD:EE:FF")
	assert.Contains(t, output, "Alice")
	assert.Contains(t, output, "11:22:33:44:55:66")
	assert.Contains(t, output, "Bob")
	assert.Less(t, strings.Index(output, "Alice"), strings.Index(output, "Bob"), "entries MUST keep file order")
}
