// Package commands defines the fcrepo-upgrade-utils CLI, a thin cobra
// wrapper around the migration core.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fcrepo-upgrade-utils",
	Short: "Upgrade a Fedora 5.x export to an OCFL storage root",
	Long:  `fcrepo-upgrade-utils transforms a Fedora 5.x filesystem export into an OCFL storage root suitable for Fedora 6.x.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/fcrepo-upgrade-utils/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
}
