/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: permissions.go
Description: Permissions command. Prints the effective permission table, the embedded one merged
with --permission-table when given, grouped by protection level.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/intentscout/pkg/permissions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListPermissions prints the permission table
func ListPermissions(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	path, _ := cmd.Flags().GetString("permission-table")
	if path == "" {
		path = viper.GetString("permission_table")
	}

	table := permissions.DefaultTable()
	if path != "" {
		override, err := permissions.LoadTableFile(path)
		if err != nil {
			return err
		}
		table = table.With(override)
	}

	out := cmd.OutOrStdout()
	current := permissions.Level(-1)
	for _, e := range table.Entries() {
		if e.Level != current {
			current = e.Level
			fmt.Fprintf(out, "%s:\n", current)
		}
		fmt.Fprintf(out, "  %s\n", e.Name)
	}
	fmt.Fprintf(out, "%d permission(s)\n", table.Len())
	return nil
}
