package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

// defaultDecimals is used for main chain images of fungible sovereign tokens issued on first use.
const defaultDecimals = 18

// ExecuteOperations executes an operation registered under batchDigest. Payments are delivered
// independently: a payment that cannot be minted or released is reported and skipped. A failing
// transfer directive does not take back the delivered tokens. The registry entry is consumed
// whatever the outcome.
func (e *Engine) ExecuteOperations(ctx context.Context, batchDigest common.Hash, op types.Operation) (types.ExecutionOutcome, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}

	hash, err := op.Hash()
	if err != nil {
		return "", err
	}

	if err = e.beginExecution(ctx, batchDigest, hash); err != nil {
		return "", err
	}

	delivered, failures, err := e.deliver(ctx, op)
	if err != nil {
		return "", errors.Join(err, e.clear(ctx, batchDigest, hash))
	}
	callErr := e.transferToDestination(ctx, op, delivered)

	return e.handleCallOutcome(ctx, batchDigest, hash, failures, callErr)
}

// beginExecution locks the registry entry so the same command cannot run twice concurrently, also
// from a reentrant call.
func (e *Engine) beginExecution(ctx context.Context, batchDigest, hash common.Hash) error {
	e.mu.Lock()
	gate := e.registry
	e.mu.Unlock()

	if gate == nil {
		return types.ErrSetupPhaseNotCompleted
	}

	return gate.Lock(ctx, e.address, batchDigest, hash)
}

// handleCallOutcome consumes the registry entry and reports the outcome.
func (e *Engine) handleCallOutcome(
	ctx context.Context,
	batchDigest, hash common.Hash,
	failures []types.PaymentFailure,
	callErr error,
) (types.ExecutionOutcome, error) {
	if err := e.clear(ctx, batchDigest, hash); err != nil {
		return "", err
	}

	event := types.ExecutedBridgeOpEvent{
		ChainID:        e.chainID,
		BatchDigest:    batchDigest,
		OpHash:         hash,
		Outcome:        types.OutcomeCompleted,
		FailedPayments: failures,
	}
	if callErr != nil {
		event.Outcome = types.OutcomeCompletedWithCallFailure
		event.CallError = callErr.Error()
		sdk.LoggerFrom(ctx).Warnf("engine %s: operation %s delivered, call failed: %v", e.chainID, hash, callErr)
	} else {
		sdk.LoggerFrom(ctx).Infof("engine %s: operation %s executed", e.chainID, hash)
	}
	if len(failures) > 0 {
		sdk.LoggerFrom(ctx).Warnf("engine %s: operation %s skipped %d payments", e.chainID, hash, len(failures))
	}

	e.events.Emit(ctx, event)
	_executionMtc.WithLabelValues(e.chainID, string(event.Outcome)).Inc()

	return event.Outcome, nil
}

func (e *Engine) clear(ctx context.Context, batchDigest, hash common.Hash) error {
	e.mu.Lock()
	gate := e.registry
	e.mu.Unlock()

	return gate.UnlockAndClear(ctx, e.address, batchDigest, hash)
}

// deliver brings every payment into the engine's balance, ready to hand to the destination. The
// error is only set when the engine state cannot be persisted.
func (e *Engine) deliver(ctx context.Context, op types.Operation) ([]types.OperationPayment, []types.PaymentFailure, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		delivered []types.OperationPayment
		failures  []types.PaymentFailure
		// reserve already promised to earlier payments of this operation
		released = make(map[types.TokenKey]*big.Int)
	)
	for i, p := range op.Tokens {
		out, err := e.mintOrRelease(ctx, p, released)
		if err != nil {
			failures = append(failures, types.PaymentFailure{Index: i, TokenID: p.TokenID, Reason: err.Error()})
			continue
		}
		delivered = append(delivered, out)
	}

	return delivered, failures, e.save()
}

// mintOrRelease must be called with the lock held.
func (e *Engine) mintOrRelease(ctx context.Context, p types.OperationPayment, released map[types.TokenKey]*big.Int) (types.OperationPayment, error) {
	amount := p.Amount()

	if mainID, ok := e.sovToMain[p.TokenID]; ok {
		out := p
		out.TokenID = mainID

		return out, e.ledger.Mint(ctx, e.address, out)
	}

	if types.HasChainPrefix(p.TokenID, e.chainID) {
		mainID, err := e.issueImage(ctx, p.TokenID, types.IssueRequest{
			Name:     p.Data.Name,
			Type:     p.Data.Type,
			Decimals: defaultDecimalsFor(p.Data.Type),
		})
		if err != nil {
			return types.OperationPayment{}, err
		}
		out := p
		out.TokenID = mainID

		return out, e.ledger.Mint(ctx, e.address, out)
	}

	key := p.Key()
	if _, burn := e.burnTokens[p.TokenID]; burn {
		if e.depositedAmount(key).Cmp(amount) < 0 {
			return types.OperationPayment{}, fmt.Errorf("%w: %s", types.ErrDepositedAmountTooLow, key)
		}
		if err := e.ledger.Mint(ctx, e.address, p); err != nil {
			return types.OperationPayment{}, err
		}
		e.addDeposited(key, new(big.Int).Neg(amount))

		return p, nil
	}

	promised, ok := released[key]
	if !ok {
		promised = new(big.Int)
		released[key] = promised
	}
	available := new(big.Int).Sub(e.ledger.Balance(e.address, key.TokenID, key.Nonce), promised)
	if available.Cmp(amount) < 0 {
		return types.OperationPayment{}, fmt.Errorf("%w: %s", types.ErrInsufficientReserve, key)
	}
	promised.Add(promised, amount)

	return p, nil
}

// issueImage issues the main chain image of a sovereign token, paying the issue cost from the
// engine's native reserve. It must be called with the lock held.
func (e *Engine) issueImage(ctx context.Context, sovID string, req types.IssueRequest) (string, error) {
	if req.Ticker == "" {
		req.Ticker = types.TokenTicker(sovID)
	}
	if req.Name == "" {
		req.Name = req.Ticker
	}

	mainID, err := e.ledger.IssueToken(ctx, e.address, req)
	if err != nil {
		return "", fmt.Errorf("%w: issuing %s: %w", types.ErrInsufficientReserve, sovID, err)
	}

	e.sovToMain[sovID] = mainID
	e.mainToSov[mainID] = sovID
	e.events.Emit(ctx, types.TokenRegisteredEvent{ChainID: e.chainID, SovereignTokenID: sovID, TokenID: mainID})
	sdk.LoggerFrom(ctx).Infof("engine %s: registered %s as %s", e.chainID, sovID, mainID)

	return mainID, nil
}

func defaultDecimalsFor(t types.TokenType) uint8 {
	if t == types.TokenTypeFungible {
		return defaultDecimals
	}

	return 0
}

// transferToDestination hands the delivered payments to the destination, calling it when the
// operation carries a transfer directive. If the call fails the payments are credited to the
// destination anyway.
func (e *Engine) transferToDestination(ctx context.Context, op types.Operation, delivered []types.OperationPayment) error {
	if !op.HasTransferData() {
		if len(delivered) == 0 {
			return nil
		}

		return e.ledger.Transfer(ctx, e.address, op.To, delivered...)
	}

	td := op.Data.TransferData
	err := e.caller.Call(ctx, sdk.CallRequest{
		From:     e.address,
		To:       op.To,
		Payments: delivered,
		Function: td.FunctionName(),
		Args:     td.Args,
		GasLimit: td.GasLimit,
	})
	if err == nil {
		return nil
	}

	if len(delivered) > 0 {
		if terr := e.ledger.Transfer(ctx, e.address, op.To, delivered...); terr != nil {
			return errors.Join(err, terr)
		}
	}

	return err
}
