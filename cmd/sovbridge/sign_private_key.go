package sovbridge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/sovbridge"
)

func newSignPrivateKeyCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-raw-private-key",
		Short: "Sign a batch with a raw private key",
		Long:  `Configure a private key in a .env file (using the PRIVATE_KEY var) and sign a batch with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(flags.batchPath)
			if err != nil {
				return fmt.Errorf("error loading batch: %w", err)
			}

			signer, err := loadPrivateKeySigner()
			if err != nil {
				return fmt.Errorf("error loading private key: %w", err)
			}

			s, err := sovbridge.NewSignable(b, nil)
			if err != nil {
				return err
			}

			if _, err = s.SignAndAppend(signer); err != nil {
				return fmt.Errorf("error signing batch: %w", err)
			}

			addr, err := signer.GetAddress()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed batch %s as %s\n", s.Digest(), addr)

			return writeBatch(flags.batchPath, b)
		},
	}

	return cmd
}
