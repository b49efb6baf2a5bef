package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/internal/testutils"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

func TestConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cmd := types.RemoveFeeOperation{Nonce: 4}
	errApply := errors.New("apply failed")

	t.Run("failure: setup not completed", func(t *testing.T) {
		t.Parallel()

		r := New("sov1", registryAddr, ownerAddr, storage.NewMemKVStore(), host.New())
		_, err := Consume(ctx, r, engineAddr, common.Hash{}, cmd, func() error { return nil })
		require.ErrorIs(t, err, types.ErrSetupPhaseNotCompleted)
	})

	t.Run("entry is cleared whatever apply returns", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 1)
		h, err := cmd.Hash()
		require.NoError(t, err)
		digest, err := types.HashOfHashes([]common.Hash{h})
		require.NoError(t, err)
		sig, bm := testutils.Aggregate(digest, f.signers, 0)
		require.NoError(t, f.registry.Register(ctx, sig, digest, bm, 0, []common.Hash{h}))

		applied := 0
		got, err := Consume(ctx, f.registry, engineAddr, digest, cmd, func() error {
			applied++
			assert.Equal(t, types.StatusLocked, f.registry.StatusOf(digest, h))

			return errApply
		})
		require.ErrorIs(t, err, errApply)
		assert.Equal(t, h, got)
		assert.Equal(t, 1, applied)
		assert.Equal(t, types.StatusAbsent, f.registry.StatusOf(digest, h))

		_, err = Consume(ctx, f.registry, engineAddr, digest, cmd, func() error {
			applied++
			return nil
		})
		require.ErrorIs(t, err, types.ErrCurrentOperationNotRegistered)
		assert.Equal(t, 1, applied)
	})
}
