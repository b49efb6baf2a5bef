package sovbridge

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/sovbridge"
)

func newCheckQuorumCmd(flags *rootFlags) *cobra.Command {
	var validators []string

	cmd := &cobra.Command{
		Use:   "check-quorum",
		Short: "Determines whether the batch signatures meet the quorum of the given validator set",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(flags.batchPath)
			if err != nil {
				return fmt.Errorf("error loading batch: %w", err)
			}

			addrs, err := parseAddresses(validators)
			if err != nil {
				return err
			}

			s, err := sovbridge.NewSignable(b, staticInspector{validators: addrs})
			if err != nil {
				return err
			}

			quorumMet, err := s.CheckQuorum()
			if err != nil {
				return fmt.Errorf("error checking quorum: %w", err)
			}
			if !quorumMet {
				fmt.Fprintln(cmd.OutOrStdout(), "Signature quorum not met!")
				return errors.New("signature quorum not met")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signature quorum met!")

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&validators, "validators", nil, "Validator addresses of the batch epoch, in registry order")
	_ = cmd.MarkFlagRequired("validators")

	return cmd
}
