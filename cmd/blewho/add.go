package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/blewho/internal/config"
	"github.com/srg/blewho/internal/roster"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <address> <name>",
	Short: "Add or update a device mapping",
	Long: `Add or update a device mapping in the mapping file.

The address must be six colon-delimited hex octets (e.g. AA:BB:CC:DD:EE:FF)
and is stored uppercase. The file is created with a header comment if it
does not exist yet; comments and unrelated entries are preserved on update.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var addFile string

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", roster.DefaultFile, "Mapping file path")
}

func runAdd(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, config.DefaultConfig())
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	address, name := args[0], args[1]

	store, err := roster.Load(addFile, logger)
	if err != nil {
		return err
	}

	canonical, err := roster.NormalizeAddress(address)
	if err != nil {
		return err
	}

	action := "Added"
	if _, exists := store.Lookup(canonical); exists {
		action = "Updated"
	}

	if err := store.Upsert(address, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s mapping: %s -> %s in %s\n", action, canonical, name, addFile)
	return nil
}
