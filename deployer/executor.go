package deployer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

var (
	_ sdk.Executor  = (*Sovereign)(nil)
	_ sdk.Inspector = (*Sovereign)(nil)
)

// Register implements sdk.Executor.
func (s *Sovereign) Register(
	ctx context.Context,
	signature []byte,
	batchDigest common.Hash,
	bitmap types.ValidatorBitmap,
	epoch uint64,
	hashes []common.Hash,
) error {
	if s.Registry == nil {
		return types.ErrSetupPhaseNotCompleted
	}

	return s.Registry.Register(ctx, signature, batchDigest, bitmap, epoch, hashes)
}

// Execute implements sdk.Executor by routing cmd to the contract that consumes it.
func (s *Sovereign) Execute(ctx context.Context, batchDigest common.Hash, cmd types.BridgeCommand) (types.ExecutionOutcome, error) {
	if !s.complete() {
		return "", types.ErrSetupPhaseNotCompleted
	}

	var err error
	switch c := cmd.(type) {
	case types.Operation:
		return s.Engine.ExecuteOperations(ctx, batchDigest, c)
	case types.UpdateConfigOperation:
		err = s.Engine.UpdateConfig(ctx, batchDigest, c)
	case types.SetBurnMechanismOperation:
		err = s.Engine.SetBurnMechanism(ctx, batchDigest, c)
	case types.SetLockMechanismOperation:
		err = s.Engine.SetLockMechanism(ctx, batchDigest, c)
	case types.RegisterTokenOperation:
		err = s.Engine.RegisterToken(ctx, batchDigest, c)
	case types.SetFeeOperation:
		err = s.FeeMarket.SetFee(ctx, batchDigest, c)
	case types.RemoveFeeOperation:
		err = s.FeeMarket.RemoveFee(ctx, batchDigest, c)
	case types.AddUsersToWhitelistOperation:
		err = s.FeeMarket.AddUsersToWhitelist(ctx, batchDigest, c)
	case types.RemoveUsersFromWhitelistOperation:
		err = s.FeeMarket.RemoveUsersFromWhitelist(ctx, batchDigest, c)
	case types.DistributeFeesOperation:
		err = s.FeeMarket.DistributeFees(ctx, batchDigest, c)
	case types.UpdateSovereignConfigOperation:
		err = s.ChainConfig.UpdateSovereignConfig(ctx, batchDigest, c)
	case types.ChangeValidatorSetOperation:
		err = s.Registry.ChangeValidatorSet(ctx, batchDigest, c)
	case nil:
		return "", types.ErrEmptyCommand
	default:
		return "", fmt.Errorf("%w: %T", types.NewUnknownCommandKindError(cmd.Kind()), cmd)
	}
	if err != nil {
		return "", err
	}

	return types.OutcomeCompleted, nil
}

// CurrentEpoch implements sdk.Inspector.
func (s *Sovereign) CurrentEpoch() (uint64, error) {
	if s.Registry == nil {
		return 0, types.ErrSetupPhaseNotCompleted
	}

	return s.Registry.CurrentEpoch()
}

// Validators implements sdk.Inspector.
func (s *Sovereign) Validators(epoch uint64) ([]common.Address, error) {
	if s.Registry == nil {
		return nil, types.ErrSetupPhaseNotCompleted
	}

	return s.Registry.Validators(epoch)
}

func (s *Sovereign) complete() bool {
	return s.ChainConfig != nil && s.Engine != nil && s.FeeMarket != nil && s.Registry != nil
}
