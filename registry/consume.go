package registry

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/types"
)

// Gate is the part of the registry a contract needs to consume registered commands.
type Gate interface {
	IsSetupComplete() bool
	StatusOf(batchDigest, hash common.Hash) types.OperationHashStatus
	Lock(ctx context.Context, caller common.Address, batchDigest, hash common.Hash) error
	UnlockAndClear(ctx context.Context, caller common.Address, batchDigest, hash common.Hash) error
}

var _ Gate = (*Registry)(nil)

// Consume applies an administrative command registered under batchDigest. The command must be
// validated before calling Consume: once locked the entry is cleared whatever apply returns.
func Consume(
	ctx context.Context,
	gate Gate,
	caller common.Address,
	batchDigest common.Hash,
	cmd types.BridgeCommand,
	apply func() error,
) (common.Hash, error) {
	if !gate.IsSetupComplete() {
		return common.Hash{}, types.ErrSetupPhaseNotCompleted
	}

	hash, err := cmd.Hash()
	if err != nil {
		return common.Hash{}, err
	}

	if err = gate.Lock(ctx, caller, batchDigest, hash); err != nil {
		return hash, err
	}

	err = apply()
	if cerr := gate.UnlockAndClear(ctx, caller, batchDigest, hash); cerr != nil {
		return hash, errors.Join(err, cerr)
	}

	return hash, err
}
