// Package sovbridge implements the sovbridge command line: hashing, signing and checking batches,
// and simulating their execution against an in-process sovereign chain.
package sovbridge

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	batchPath string
	verbose   bool
}

func BuildSovbridgeCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := cobra.Command{
		Use:           "sovbridge",
		Short:         "Manage sovereign bridge batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.batchPath, "batch", "", "File path containing the batch")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Log contract activity")
	_ = cmd.MarkPersistentFlagRequired("batch")

	cmd.AddCommand(newHashCmd(flags))
	cmd.AddCommand(newSignPrivateKeyCmd(flags))
	cmd.AddCommand(newCheckQuorumCmd(flags))
	cmd.AddCommand(newSimulateCmd(flags))

	return &cmd
}
