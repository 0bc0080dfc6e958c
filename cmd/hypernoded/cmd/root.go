package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the hypernoded command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hypernoded",
		Short: "Hypernode compute marketplace daemon",
		Long: `hypernoded runs the Hypernode ledger: node registry, job escrow,
payment splitting, staking and reward reflection, served over an HTTP API.

Configuration is read from the environment. Run "hypernoded validate-config"
to check a configuration without starting the daemon.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		StartCmd(),
		ValidateConfigCmd(),
		MultiplierCmd(),
		KeysCmd(),
		SignCmd(),
	)

	return rootCmd
}
