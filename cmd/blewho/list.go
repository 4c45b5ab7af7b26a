package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/srg/blewho/internal/config"
	"github.com/srg/blewho/internal/roster"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List device mappings",
	Long:  `List the device mappings currently stored in the mapping file.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listFile string

func init() {
	listCmd.Flags().StringVarP(&listFile, "file", "f", roster.DefaultFile, "Mapping file path")
}

func runList(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, config.DefaultConfig())
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	store, err := roster.Load(listFile, logger)
	if err != nil {
		return err
	}

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No device mappings")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Address, e.Name)
	}
	return w.Flush()
}
