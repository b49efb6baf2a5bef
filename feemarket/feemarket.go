// Package feemarket computes, collects and redistributes bridging fees for one execution engine.
package feemarket

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const namespace = "feemarket"

// SubtractFeeArgs describes the fee owed for a deposit.
type SubtractFeeArgs struct {
	User          common.Address
	Payment       *types.OperationPayment
	TransferCount int
	// GasLimit is set when the deposit carries a transfer directive.
	GasLimit *uint64
}

// FeeResult is the outcome of SubtractFee.
type FeeResult struct {
	Required *big.Int
	Refund   *big.Int
}

// FeeMarket is the fee market bound to one execution engine.
type FeeMarket struct {
	mu sync.Mutex

	chainID  string
	address  common.Address
	engine   common.Address
	ledger   sdk.Ledger
	events   sdk.EventEmitter
	kv       storage.KVStore
	registry registry.Gate

	fee       types.FeeStruct
	whitelist map[common.Address]struct{}
	// tokens ever collected, in arrival order
	collected []string
}

// state is the persisted form of the fee market.
type state struct {
	Fee       types.FeeStruct  `json:"fee"`
	Whitelist []common.Address `json:"whitelist,omitempty"`
	Collected []string         `json:"collected,omitempty"`
}

// New returns a fee market at address, charging on behalf of engine.
func New(
	chainID string,
	address, engine common.Address,
	ledger sdk.Ledger,
	events sdk.EventEmitter,
	kv storage.KVStore,
	gate registry.Gate,
	fee types.FeeStruct,
) (*FeeMarket, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}

	m := newFeeMarket(chainID, address, engine, ledger, events, kv, gate)
	m.fee = fee
	if err := m.save(); err != nil {
		return nil, err
	}

	return m, nil
}

// Load returns the fee market of chainID from its persisted state. It fails with
// storage.ErrNotExist when the fee market was never deployed on kv.
func Load(
	chainID string,
	address, engine common.Address,
	ledger sdk.Ledger,
	events sdk.EventEmitter,
	kv storage.KVStore,
	gate registry.Gate,
) (*FeeMarket, error) {
	m := newFeeMarket(chainID, address, engine, ledger, events, kv, gate)

	var st state
	if err := storage.GetState(kv, namespace, m.stateKey(), &st); err != nil {
		return nil, fmt.Errorf("loading fee market of %s: %w", chainID, err)
	}
	m.fee = st.Fee
	for _, u := range st.Whitelist {
		m.whitelist[u] = struct{}{}
	}
	m.collected = st.Collected

	return m, nil
}

func newFeeMarket(
	chainID string,
	address, engine common.Address,
	ledger sdk.Ledger,
	events sdk.EventEmitter,
	kv storage.KVStore,
	gate registry.Gate,
) *FeeMarket {
	return &FeeMarket{
		chainID:   chainID,
		address:   address,
		engine:    engine,
		ledger:    ledger,
		events:    events,
		kv:        kv,
		registry:  gate,
		whitelist: make(map[common.Address]struct{}),
	}
}

// save persists the fee market state. It must be called with the lock held.
func (m *FeeMarket) save() error {
	st := state{Fee: m.fee, Collected: m.collected}
	for u := range m.whitelist {
		st.Whitelist = append(st.Whitelist, u)
	}
	slices.SortFunc(st.Whitelist, func(a, b common.Address) int { return bytes.Compare(a.Bytes(), b.Bytes()) })

	return storage.PutState(m.kv, namespace, m.stateKey(), st)
}

func (m *FeeMarket) stateKey() []byte {
	return []byte(m.chainID + "/state")
}

// SetRegistry binds the registry once it is deployed.
func (m *FeeMarket) SetRegistry(gate registry.Gate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry = gate
}

// Address returns the fee market's contract address.
func (m *FeeMarket) Address() common.Address { return m.address }

// Fee returns the current fee.
func (m *FeeMarket) Fee() types.FeeStruct {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fee
}

// IsWhitelisted reports whether user is exempt from fees.
func (m *FeeMarket) IsWhitelisted(user common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.whitelist[user]

	return ok
}

// ComputeFee returns the fee of a transfer of transferCount payments. The gas term only applies
// when the transfer carries a directive.
func ComputeFee(fee types.FeeStruct, transferCount int, gasLimit *uint64) *big.Int {
	if !fee.IsEnabled() {
		return new(big.Int)
	}

	required := new(big.Int)
	if fee.FeeType.PerTransfer != nil {
		required.Mul(fee.FeeType.PerTransfer, big.NewInt(int64(transferCount)))
	}
	if gasLimit != nil && fee.FeeType.PerGas != nil {
		gas := new(big.Int).Mul(fee.FeeType.PerGas, new(big.Int).SetUint64(*gasLimit))
		required.Add(required, gas)
	}

	return required
}

// SubtractFee charges the fee of a deposit. The required amount is collected from the user and
// whatever the payment carried beyond it stays with the user. Only the engine may call it.
func (m *FeeMarket) SubtractFee(ctx context.Context, caller common.Address, args SubtractFeeArgs) (FeeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller != m.engine {
		return FeeResult{}, types.ErrCallerNotEngine
	}

	provided := new(big.Int)
	if args.Payment != nil {
		provided = args.Payment.Amount()
	}

	required := new(big.Int)
	if _, exempt := m.whitelist[args.User]; !exempt {
		required = ComputeFee(m.fee, args.TransferCount, args.GasLimit)
	}

	if required.Sign() == 0 {
		return FeeResult{Required: required, Refund: provided}, nil
	}

	if args.Payment == nil {
		return FeeResult{}, types.NewPaymentDoesNotCoverFeeError(required, provided)
	}
	if !m.fee.Accepts(args.Payment.TokenID) {
		return FeeResult{}, fmt.Errorf("%w: %s", types.ErrInvalidFeeToken, args.Payment.TokenID)
	}
	if provided.Cmp(required) < 0 {
		return FeeResult{}, types.NewPaymentDoesNotCoverFeeError(required, provided)
	}

	charge := *args.Payment
	charge.Data.Amount = required
	if err := m.ledger.Transfer(ctx, args.User, m.address, charge); err != nil {
		return FeeResult{}, err
	}
	if !slices.Contains(m.collected, charge.TokenID) {
		m.collected = append(m.collected, charge.TokenID)
		if err := m.save(); err != nil {
			return FeeResult{}, err
		}
	}

	sdk.LoggerFrom(ctx).Debugf("fee market %s: charged %s %s to %s", m.chainID, required, charge.TokenID, args.User)

	return FeeResult{Required: required, Refund: new(big.Int).Sub(provided, required)}, nil
}

// SetFee replaces the fee through a registered command.
func (m *FeeMarket) SetFee(ctx context.Context, batchDigest common.Hash, op types.SetFeeOperation) error {
	if err := op.Fee.Validate(); err != nil {
		return err
	}

	return m.consume(ctx, batchDigest, op, func() {
		m.fee = op.Fee
	})
}

// RemoveFee disables the fee through a registered command.
func (m *FeeMarket) RemoveFee(ctx context.Context, batchDigest common.Hash, op types.RemoveFeeOperation) error {
	return m.consume(ctx, batchDigest, op, func() {
		m.fee = types.NoFee()
	})
}

// AddUsersToWhitelist exempts users from fees through a registered command.
func (m *FeeMarket) AddUsersToWhitelist(ctx context.Context, batchDigest common.Hash, op types.AddUsersToWhitelistOperation) error {
	return m.consume(ctx, batchDigest, op, func() {
		for _, u := range op.Users {
			m.whitelist[u] = struct{}{}
		}
	})
}

// RemoveUsersFromWhitelist removes fee exemptions through a registered command.
func (m *FeeMarket) RemoveUsersFromWhitelist(ctx context.Context, batchDigest common.Hash, op types.RemoveUsersFromWhitelistOperation) error {
	return m.consume(ctx, batchDigest, op, func() {
		for _, u := range op.Users {
			delete(m.whitelist, u)
		}
	})
}

// DistributeFees pays out the collected balance of every fee token proportionally to the pairs,
// truncating each share. A share that truncates to zero is skipped.
func (m *FeeMarket) DistributeFees(ctx context.Context, batchDigest common.Hash, op types.DistributeFeesOperation) error {
	var sum uint64
	for _, pair := range op.Pairs {
		sum += uint64(pair.Percentage)
	}
	if sum > types.MaxPercentage {
		return fmt.Errorf("%w: %d", types.ErrPercentageSumTooHigh, sum)
	}

	var (
		transfers []types.FeeTransfer
		applyErr  error
	)
	err := m.consume(ctx, batchDigest, op, func() {
		transfers, applyErr = m.distribute(ctx, op.Pairs)
	})
	if err != nil {
		return err
	}
	if applyErr != nil {
		return applyErr
	}

	m.events.Emit(ctx, types.FeesDistributedEvent{ChainID: m.chainID, Transfers: transfers})

	return nil
}

// distribute must be called with the lock held.
func (m *FeeMarket) distribute(ctx context.Context, pairs []types.AddressPercentagePair) ([]types.FeeTransfer, error) {
	var transfers []types.FeeTransfer
	for _, tokenID := range m.collected {
		balance := m.ledger.Balance(m.address, tokenID, 0)
		if balance.Sign() == 0 {
			continue
		}

		for _, pair := range pairs {
			share := new(big.Int).Mul(balance, big.NewInt(int64(pair.Percentage)))
			share.Quo(share, big.NewInt(types.MaxPercentage))
			if share.Sign() == 0 {
				continue
			}

			if err := m.ledger.Transfer(ctx, m.address, pair.Address, types.NewFungiblePayment(tokenID, share)); err != nil {
				return transfers, err
			}
			transfers = append(transfers, types.FeeTransfer{To: pair.Address, TokenID: tokenID, Amount: share})
		}
	}

	return transfers, nil
}

func (m *FeeMarket) consume(ctx context.Context, batchDigest common.Hash, cmd types.BridgeCommand, apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registry == nil {
		return types.ErrSetupPhaseNotCompleted
	}

	hash, err := registry.Consume(ctx, m.registry, m.address, batchDigest, cmd, func() error {
		apply()
		return m.save()
	})
	if err != nil {
		return err
	}

	m.events.Emit(ctx, types.AdminCommandEvent{ChainID: m.chainID, BatchDigest: batchDigest, Hash: hash, Kind: cmd.Kind()})
	sdk.LoggerFrom(ctx).Infof("fee market %s: executed %s", m.chainID, cmd.Kind())

	return nil
}
