package engine

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/feemarket"
	"github.com/smartcontractkit/sovbridge/sdk"
	sdkerrors "github.com/smartcontractkit/sovbridge/sdk/errors"
	"github.com/smartcontractkit/sovbridge/types"
)

// DepositArgs is an outbound transfer to the sovereign chain.
type DepositArgs struct {
	To           common.Address
	Payments     []types.OperationPayment
	TransferData *types.TransferData
	// FeePayment pays the bridging fee when the fee market charges one.
	FeePayment *types.OperationPayment
}

// Deposit takes custody of the payments and emits the operation to relay to the sovereign chain.
// Payments of tokens that may not be bridged are refunded. When every payment is refunded and the
// deposit carries no transfer directive no operation is emitted and a nil operation is returned.
func (e *Engine) Deposit(ctx context.Context, caller common.Address, args DepositArgs) (*types.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeposit(caller, args); err != nil {
		return nil, err
	}
	if err := e.checkFunds(caller, args); err != nil {
		return nil, err
	}

	if err := e.chargeFee(ctx, caller, args); err != nil {
		return nil, err
	}

	if err := e.ledger.Transfer(ctx, caller, e.address, args.Payments...); err != nil {
		return nil, err
	}

	var bridged, refunds []types.OperationPayment
	for _, p := range args.Payments {
		if !e.bridgeable(p.TokenID) {
			refunds = append(refunds, p)
			continue
		}

		if e.burnsOnDeposit(p.TokenID) {
			if err := e.ledger.Burn(ctx, e.address, p); err != nil {
				return nil, err
			}
			if sovID, ok := e.mainToSov[p.TokenID]; ok {
				p.TokenID = sovID
			} else if !types.HasChainPrefix(p.TokenID, e.chainID) {
				e.addDeposited(p.Key(), p.Amount())
			}
		}
		bridged = append(bridged, p)
	}
	if err := e.save(); err != nil {
		return nil, err
	}

	if len(refunds) > 0 {
		if err := e.ledger.Transfer(ctx, e.address, caller, refunds...); err != nil {
			return nil, err
		}
		sdk.LoggerFrom(ctx).Infof("engine %s: refunded %d payments to %s", e.chainID, len(refunds), caller)
	}

	if len(bridged) == 0 && args.TransferData == nil {
		return nil, nil //nolint:nilnil
	}

	nonce, err := e.nextNonce()
	if err != nil {
		return nil, err
	}

	op := types.Operation{
		To:     args.To,
		Tokens: bridged,
		Data: types.OperationData{
			OpNonce:      nonce,
			OpSender:     caller,
			TransferData: args.TransferData,
		},
	}
	hash, err := op.Hash()
	if err != nil {
		return nil, err
	}

	e.events.Emit(ctx, types.DepositEvent{ChainID: e.chainID, OpHash: hash, Operation: op})
	_depositMtc.WithLabelValues(e.chainID).Inc()
	sdk.LoggerFrom(ctx).Infof("engine %s: deposit %s from %s with %d payments", e.chainID, hash, caller, len(bridged))

	return &op, nil
}

// checkDeposit validates a deposit against the engine state and config.
func (e *Engine) checkDeposit(caller common.Address, args DepositArgs) error {
	if e.paused {
		return types.ErrPaused
	}
	if e.isBlacklisted(caller) {
		return types.ErrCallerBlacklisted
	}
	if len(args.Payments) == 0 && args.TransferData == nil {
		return types.ErrNothingToTransfer
	}
	if len(args.Payments) > types.MaxTransfersPerTx {
		return types.ErrTooManyTokens
	}

	if td := args.TransferData; td != nil {
		if slices.Contains(e.config.BannedEndpoints, td.FunctionName()) {
			return fmt.Errorf("%w: %s", types.ErrBannedEndpoint, td.FunctionName())
		}
		if td.GasLimit > e.config.MaxTxGasLimit {
			return fmt.Errorf("%w: %d above %d", types.ErrGasLimitTooHigh, td.GasLimit, e.config.MaxTxGasLimit)
		}
	}

	for _, p := range args.Payments {
		if p.Amount().Sign() <= 0 {
			return fmt.Errorf("%w: %s", types.ErrInvalidAmount, p.TokenID)
		}
		if ceiling, ok := e.config.MaxBridgedAmounts[p.TokenID]; ok && p.Amount().Cmp(ceiling) > 0 {
			return fmt.Errorf("%w: %s %s above %s", types.ErrDepositOverMaxAmount, p.Amount(), p.TokenID, ceiling)
		}
	}

	return nil
}

// checkFunds makes sure nothing after the fee charge can fail: the caller covers every payment
// including the fee and the engine may burn what it has to burn.
func (e *Engine) checkFunds(caller common.Address, args DepositArgs) error {
	required := make(map[types.TokenKey]*big.Int)
	add := func(p types.OperationPayment) {
		if sum, ok := required[p.Key()]; ok {
			sum.Add(sum, p.Amount())
			return
		}
		required[p.Key()] = new(big.Int).Set(p.Amount())
	}

	for _, p := range args.Payments {
		add(p)
		if e.bridgeable(p.TokenID) && e.burnsOnDeposit(p.TokenID) && !e.ledger.Roles(e.address, p.TokenID).Has(types.RoleBurn) {
			return fmt.Errorf("%w: %s", types.ErrMissingTokenRoles, p.TokenID)
		}
	}
	if args.FeePayment != nil && e.feeEnabled() {
		add(*args.FeePayment)
	}

	for key, amount := range required {
		balance := e.ledger.Balance(caller, key.TokenID, key.Nonce)
		if balance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %w", types.ErrInsufficientBalance, sdkerrors.NewInsufficientFundsError(caller, key.String(), balance, amount))
		}
	}

	return nil
}

// FeeEnabled reports whether deposits are charged a fee.
func (e *Engine) FeeEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.feeEnabled()
}

func (e *Engine) feeEnabled() bool {
	return e.feeMarket != nil && e.feeMarket.Fee().IsEnabled()
}

func (e *Engine) chargeFee(ctx context.Context, caller common.Address, args DepositArgs) error {
	if !e.feeEnabled() {
		return nil
	}

	var gasLimit *uint64
	if args.TransferData != nil {
		gasLimit = &args.TransferData.GasLimit
	}

	res, err := e.feeMarket.SubtractFee(ctx, e.address, feemarket.SubtractFeeArgs{
		User:          caller,
		Payment:       args.FeePayment,
		TransferCount: len(args.Payments),
		GasLimit:      gasLimit,
	})
	if err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Debugf("engine %s: fee %s charged to %s, %s refunded", e.chainID, res.Required, caller, res.Refund)

	return nil
}
