package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

// UpdateConfig replaces the engine config through a registered command.
func (e *Engine) UpdateConfig(ctx context.Context, batchDigest common.Hash, op types.UpdateConfigOperation) error {
	return e.consume(ctx, batchDigest, op,
		op.Config.Validate,
		func() error {
			e.config = op.Config
			return nil
		},
	)
}

// SetBurnMechanism switches a main chain token to the burn mechanism. The engine's reserve of the
// token, at every nonce, is burned and accounted as deposited, so it can still be minted back on
// execution.
func (e *Engine) SetBurnMechanism(ctx context.Context, batchDigest common.Hash, op types.SetBurnMechanismOperation) error {
	return e.consume(ctx, batchDigest, op,
		func() error { return e.checkMechanismSwitch(op.TokenID) },
		func() error {
			if _, ok := e.burnTokens[op.TokenID]; ok {
				return nil
			}

			for _, nonce := range e.ledger.Nonces(e.address, op.TokenID) {
				key := types.TokenKey{TokenID: op.TokenID, Nonce: nonce}
				reserve := e.ledger.Balance(e.address, key.TokenID, key.Nonce)
				if err := e.ledger.Burn(ctx, e.address, types.NewTokenPayment(key, reserve)); err != nil {
					return err
				}
				e.addDeposited(key, reserve)
			}
			e.burnTokens[op.TokenID] = struct{}{}

			return nil
		},
	)
}

// SetLockMechanism switches a main chain token back to the lock mechanism. The amounts deposited
// while in burn mode, at every nonce, are minted into the engine's reserve.
func (e *Engine) SetLockMechanism(ctx context.Context, batchDigest common.Hash, op types.SetLockMechanismOperation) error {
	return e.consume(ctx, batchDigest, op,
		func() error { return e.checkMechanismSwitch(op.TokenID) },
		func() error {
			if _, ok := e.burnTokens[op.TokenID]; !ok {
				return nil
			}

			for _, key := range e.depositedKeys(op.TokenID) {
				if err := e.ledger.Mint(ctx, e.address, types.NewTokenPayment(key, e.depositedAmount(key))); err != nil {
					return err
				}
				delete(e.deposited, key)
			}
			delete(e.burnTokens, op.TokenID)

			return nil
		},
	)
}

// checkMechanismSwitch must be called with the lock held.
func (e *Engine) checkMechanismSwitch(tokenID string) error {
	if _, ok := e.mainToSov[tokenID]; ok || types.HasChainPrefix(tokenID, e.chainID) {
		return fmt.Errorf("%w: %s", types.ErrTokenIsFromSovereign, tokenID)
	}

	if !e.ledger.Roles(e.address, tokenID).Has(types.RoleMint | types.RoleBurn) {
		return fmt.Errorf("%w: %s", types.ErrMissingTokenRoles, tokenID)
	}

	return nil
}

// RegisterToken issues the main chain image of a sovereign token through a registered command.
// The issue cost is paid from the engine's native reserve.
func (e *Engine) RegisterToken(ctx context.Context, batchDigest common.Hash, op types.RegisterTokenOperation) error {
	return e.consume(ctx, batchDigest, op,
		func() error {
			if !types.HasChainPrefix(op.TokenID, e.chainID) {
				return fmt.Errorf("%w: %s", types.ErrTokenNotFromSovereign, op.TokenID)
			}
			if _, ok := e.sovToMain[op.TokenID]; ok {
				return fmt.Errorf("%w: %s", types.ErrTokenAlreadyRegistered, op.TokenID)
			}

			native := e.ledger.Balance(e.address, types.NativeTokenID, 0)
			if native.Cmp(e.ledger.IssueCost()) < 0 {
				return fmt.Errorf("%w: issue cost %s, reserve %s", types.ErrInsufficientReserve, e.ledger.IssueCost(), native)
			}

			return nil
		},
		func() error {
			_, err := e.issueImage(ctx, op.TokenID, types.IssueRequest{
				Name:     op.Name,
				Ticker:   op.Ticker,
				Type:     op.Type,
				Decimals: op.Decimals,
			})

			return err
		},
	)
}

// consume runs check then apply for a registered command, holding the lock for both. check runs
// before the registry entry is locked, so a rejected command stays registered.
func (e *Engine) consume(
	ctx context.Context,
	batchDigest common.Hash,
	cmd types.BridgeCommand,
	check func() error,
	apply func() error,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry == nil {
		return types.ErrSetupPhaseNotCompleted
	}

	if err := check(); err != nil {
		return err
	}

	hash, err := registry.Consume(ctx, e.registry, e.address, batchDigest, cmd, func() error {
		if err := apply(); err != nil {
			return err
		}

		return e.save()
	})
	if err != nil {
		return err
	}

	e.events.Emit(ctx, types.AdminCommandEvent{ChainID: e.chainID, BatchDigest: batchDigest, Hash: hash, Kind: cmd.Kind()})
	sdk.LoggerFrom(ctx).Infof("engine %s: executed %s", e.chainID, cmd.Kind())

	return nil
}

// Reserve returns the engine's balance of a lock mechanism token.
func (e *Engine) Reserve(tokenID string, nonce uint64) *big.Int {
	return e.ledger.Balance(e.address, tokenID, nonce)
}
