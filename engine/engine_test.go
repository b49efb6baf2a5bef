package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/feemarket"
	"github.com/smartcontractkit/sovbridge/internal/testutils"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const (
	testChainID = "sov1"
	lockToken   = "TKN-123456"
	feeToken    = "FEE-654321"
)

var (
	engineAddr    = common.HexToAddress("0xe1")
	registryAddr  = common.HexToAddress("0xe2")
	feeMarketAddr = common.HexToAddress("0xe3")
	ownerAddr     = common.HexToAddress("0x0f")
	userAddr      = common.HexToAddress("0xa1")
	receiverAddr  = common.HexToAddress("0xb1")
)

type fixture struct {
	engine   *Engine
	registry *registry.Registry
	chain    *host.Chain
	kv       storage.KVStore
	signers  []testutils.ECDSASigner
}

type fixtureOpts struct {
	chainID string
	config  *types.EngineConfig
	caller  sdk.ContractCaller
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	if opts.chainID == "" {
		opts.chainID = testChainID
	}
	cfg := types.DefaultEngineConfig()
	if opts.config != nil {
		cfg = *opts.config
	}

	chain := host.New()
	if opts.caller == nil {
		opts.caller = chain
	}
	kv := storage.NewMemKVStore()
	signers := testutils.MakeNewECDSASigners(1)

	reg := registry.New(opts.chainID, registryAddr, ownerAddr, kv, chain)
	require.NoError(t, reg.Wire(ownerAddr, engineAddr))
	require.NoError(t, reg.CompleteSetup(context.Background(), ownerAddr, testutils.Addresses(signers)))

	eng, err := New(opts.chainID, engineAddr, ownerAddr, cfg, Dependencies{
		Ledger: chain,
		Caller: opts.caller,
		Events: chain,
		Store:  kv,
	})
	require.NoError(t, err)
	eng.SetRegistry(reg)
	require.NoError(t, eng.Unpause(ownerAddr))

	return &fixture{engine: eng, registry: reg, chain: chain, kv: kv, signers: signers}
}

// register signs and registers cmds as one batch and returns its digest.
func (f *fixture) register(t *testing.T, cmds ...types.BridgeCommand) common.Hash {
	t.Helper()

	hashes, err := types.CommandHashes(cmds)
	require.NoError(t, err)
	digest, err := types.HashOfHashes(hashes)
	require.NoError(t, err)

	sig, bitmap := testutils.Aggregate(digest, f.signers, 0)
	require.NoError(t, f.registry.Register(context.Background(), sig, digest, bitmap, 0, hashes))

	return digest
}

func (f *fixture) fund(addr common.Address, tokenID string, amount int64) {
	f.chain.Fund(addr, types.NewFungiblePayment(tokenID, big.NewInt(amount)))
}

func (f *fixture) balance(addr common.Address, tokenID string) int64 {
	return f.chain.Balance(addr, tokenID, 0).Int64()
}

func payment(tokenID string, amount int64) types.OperationPayment {
	return types.NewFungiblePayment(tokenID, big.NewInt(amount))
}

func TestNew(t *testing.T) {
	t.Parallel()

	chain := host.New()
	deps := Dependencies{Ledger: chain, Caller: chain, Events: chain, Store: storage.NewMemKVStore()}

	eng, err := New(testChainID, engineAddr, ownerAddr, types.DefaultEngineConfig(), deps)
	require.NoError(t, err)
	assert.True(t, eng.IsPaused())
	assert.Equal(t, engineAddr, eng.Address())
	assert.Equal(t, testChainID, eng.ChainID())

	_, err = New(testChainID, engineAddr, ownerAddr, types.EngineConfig{}, deps)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	deps := Dependencies{Ledger: f.chain, Caller: f.chain, Events: f.chain, Store: f.kv}

	_, err := Load("sov2", engineAddr, ownerAddr, deps)
	require.ErrorIs(t, err, storage.ErrNotExist)

	f.chain.SetRoles(engineAddr, lockToken, types.RoleMint|types.RoleBurn)
	f.chain.Fund(userAddr, types.NewTokenPayment(types.TokenKey{TokenID: lockToken, Nonce: 3}, big.NewInt(25)))
	f.chain.Fund(engineAddr, types.NewFungiblePayment(types.NativeTokenID, host.DefaultIssueCost))

	burn := types.SetBurnMechanismOperation{TokenID: lockToken, Nonce: 1}
	require.NoError(t, f.engine.SetBurnMechanism(ctx, f.register(t, burn), burn))
	sovToken := testChainID + "-SOV-abcdef"
	reg := types.RegisterTokenOperation{TokenID: sovToken, Type: types.TokenTypeFungible, Ticker: "SOV", Decimals: 6, Nonce: 2}
	require.NoError(t, f.engine.RegisterToken(ctx, f.register(t, reg), reg))
	_, err = f.engine.Deposit(ctx, userAddr, DepositArgs{
		To:       receiverAddr,
		Payments: []types.OperationPayment{types.NewTokenPayment(types.TokenKey{TokenID: lockToken, Nonce: 3}, big.NewInt(25))},
	})
	require.NoError(t, err)

	loaded, err := Load(testChainID, engineAddr, ownerAddr, deps)
	require.NoError(t, err)
	assert.False(t, loaded.IsPaused())
	assert.Equal(t, types.MechanismBurn, loaded.Mechanism(lockToken))
	assert.Equal(t, int64(25), loaded.DepositedAmount(lockToken, 3).Int64())

	mainID, ok := loaded.MainChainToken(sovToken)
	require.True(t, ok)
	wantID, _ := f.engine.MainChainToken(sovToken)
	assert.Equal(t, wantID, mainID)
	assert.Equal(t, types.MechanismBurn, loaded.Mechanism(mainID), "mapped images burn on deposit")
	assert.Equal(t, f.engine.Config().MaxTxGasLimit, loaded.Config().MaxTxGasLimit)
}

func TestEngine_Pause(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})

	require.ErrorIs(t, f.engine.Pause(userAddr), types.ErrCallerNotOwner)
	assert.False(t, f.engine.IsPaused())

	require.NoError(t, f.engine.Pause(ownerAddr))
	assert.True(t, f.engine.IsPaused())
}

func TestEngine_ExecuteWithoutRegistry(t *testing.T) {
	t.Parallel()

	chain := host.New()
	eng, err := New(testChainID, engineAddr, ownerAddr, types.DefaultEngineConfig(), Dependencies{
		Ledger: chain, Caller: chain, Events: chain, Store: storage.NewMemKVStore(),
	})
	require.NoError(t, err)

	op := types.Operation{To: receiverAddr, Tokens: []types.OperationPayment{payment(lockToken, 1)}}
	_, err = eng.ExecuteOperations(context.Background(), common.Hash{}, op)
	require.ErrorIs(t, err, types.ErrSetupPhaseNotCompleted)

	err = eng.UpdateConfig(context.Background(), common.Hash{}, types.UpdateConfigOperation{Config: types.DefaultEngineConfig()})
	require.ErrorIs(t, err, types.ErrSetupPhaseNotCompleted)
}

func TestEngine_FeeMarketBinding(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	fee := types.NewFixedFee(feeToken, big.NewInt(100), big.NewInt(2))
	fm, err := feemarket.New(testChainID, feeMarketAddr, engineAddr, f.chain, f.chain, f.kv, f.registry, fee)
	require.NoError(t, err)
	f.engine.SetFeeMarket(fm)

	f.fund(userAddr, lockToken, 1_000)
	f.fund(userAddr, feeToken, 1_000)

	feePayment := payment(feeToken, 500)
	op, err := f.engine.Deposit(context.Background(), userAddr, DepositArgs{
		To:           receiverAddr,
		Payments:     []types.OperationPayment{payment(lockToken, 10), payment(lockToken, 20)},
		TransferData: &types.TransferData{GasLimit: 50, Function: []byte("onReceive")},
		FeePayment:   &feePayment,
	})
	require.NoError(t, err)
	require.NotNil(t, op)

	// two transfers plus 50 gas
	assert.Equal(t, int64(300), f.balance(feeMarketAddr, feeToken))
	assert.Equal(t, int64(700), f.balance(userAddr, feeToken))
	assert.Equal(t, int64(30), f.balance(engineAddr, lockToken))

	_, err = f.engine.Deposit(context.Background(), userAddr, DepositArgs{
		To:       receiverAddr,
		Payments: []types.OperationPayment{payment(lockToken, 10)},
	})
	require.ErrorIs(t, err, types.ErrPaymentDoesNotCover)
	assert.Equal(t, int64(30), f.balance(engineAddr, lockToken), "rejected deposit moved tokens")
}
