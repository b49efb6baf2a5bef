package sovbridge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/sovbridge/internal/utils/safecast"
)

func newHashCmd(flags *rootFlags) *cobra.Command {
	var index uint64

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the digest of a batch and the hash of its commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(flags.batchPath)
			if err != nil {
				return fmt.Errorf("error loading batch: %w", err)
			}

			hashes, err := b.Hashes()
			if err != nil {
				return err
			}
			digest, err := b.Digest()
			if err != nil {
				return err
			}
			signingHash, err := b.SigningHash()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("index") {
				idx, cerr := safecast.Uint64ToInt(index)
				if cerr != nil {
					return cerr
				}
				c, cerr := b.Command(idx)
				if cerr != nil {
					return cerr
				}
				fmt.Fprintf(out, "%s %s\n", c.Kind(), hashes[idx])

				return nil
			}

			fmt.Fprintf(out, "digest:       %s\n", digest)
			fmt.Fprintf(out, "signing hash: %s\n", signingHash)
			for i, h := range hashes {
				fmt.Fprintf(out, "command %d (%s): %s\n", i, b.Commands[i].Command.Kind(), h)
			}

			return nil
		},
	}

	cmd.Flags().Uint64Var(&index, "index", 0, "Only print the hash of the command at this index")

	return cmd
}
