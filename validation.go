package sovbridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/types"
)

// validateCommands validates every command of a batch for chainID and rejects duplicate hashes,
// which the registry could never consume twice.
func validateCommands(chainID string, cmds []types.BridgeCommand) error {
	if len(cmds) == 0 {
		return ErrNoCommandsInBatch
	}

	seen := make(map[common.Hash]struct{}, len(cmds))
	for i, cmd := range cmds {
		if cmd == nil {
			return NewInvalidCommandError(i, types.ErrEmptyCommand)
		}
		if err := validateCommand(chainID, cmd); err != nil {
			return NewInvalidCommandError(i, err)
		}

		hash, err := cmd.Hash()
		if err != nil {
			return NewInvalidCommandError(i, err)
		}
		if _, ok := seen[hash]; ok {
			return NewDuplicateCommandError(i, hash)
		}
		seen[hash] = struct{}{}
	}

	return nil
}

// validateCommand runs the checks a command can pass or fail without chain state.
func validateCommand(chainID string, cmd types.BridgeCommand) error {
	switch c := cmd.(type) {
	case types.Operation:
		return c.Validate()
	case types.SetFeeOperation:
		return c.Fee.Validate()
	case types.UpdateConfigOperation:
		return c.Config.Validate()
	case types.UpdateSovereignConfigOperation:
		return c.Config.Validate()
	case types.DistributeFeesOperation:
		return validatePercentages(c.Pairs)
	case types.RegisterTokenOperation:
		if !types.HasChainPrefix(c.TokenID, chainID) {
			return fmt.Errorf("%w: %s", types.ErrTokenNotFromSovereign, c.TokenID)
		}
	case types.ChangeValidatorSetOperation:
		if len(c.Validators) == 0 {
			return types.ErrEmptyValidatorSet
		}
	}

	return nil
}

func validatePercentages(pairs []types.AddressPercentagePair) error {
	var total uint64
	for _, pair := range pairs {
		total += uint64(pair.Percentage)
	}
	if total > types.MaxPercentage {
		return fmt.Errorf("%w: %d", types.ErrPercentageSumTooHigh, total)
	}

	return nil
}
