package feemarket

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/internal/testutils"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const feeToken = "USDC-123456"

var (
	marketAddr   = common.HexToAddress("0xfee")
	engineAddr   = common.HexToAddress("0xe9")
	registryAddr = common.HexToAddress("0x5e")
	ownerAddr    = common.HexToAddress("0x0f")
	user         = common.HexToAddress("0x05e7")
)

type fixture struct {
	market   *FeeMarket
	chain    *host.Chain
	kv       storage.KVStore
	registry *registry.Registry
	signers  []testutils.ECDSASigner
}

func newFixture(t *testing.T, fee types.FeeStruct) *fixture {
	t.Helper()

	ctx := context.Background()
	chain := host.New()
	signers := testutils.MakeNewECDSASigners(1)
	kv := storage.NewMemKVStore()
	reg := registry.New("sov1", registryAddr, ownerAddr, kv, chain)
	require.NoError(t, reg.Wire(ownerAddr, marketAddr, engineAddr))
	require.NoError(t, reg.CompleteSetup(ctx, ownerAddr, testutils.Addresses(signers)))

	market, err := New("sov1", marketAddr, engineAddr, chain, chain, kv, reg, fee)
	require.NoError(t, err)

	return &fixture{market: market, chain: chain, kv: kv, registry: reg, signers: signers}
}

// register signs and registers cmd in a batch of its own.
func (f *fixture) register(t *testing.T, cmd types.BridgeCommand) common.Hash {
	t.Helper()

	h, err := cmd.Hash()
	require.NoError(t, err)
	digest, err := types.HashOfHashes([]common.Hash{h})
	require.NoError(t, err)
	sig, bm := testutils.Aggregate(digest, f.signers, 0)
	require.NoError(t, f.registry.Register(context.Background(), sig, digest, bm, 0, []common.Hash{h}))

	return digest
}

func uint64Ptr(v uint64) *uint64 { return &v }

func TestComputeFee(t *testing.T) {
	t.Parallel()

	fixed := types.NewFixedFee(feeToken, big.NewInt(100), big.NewInt(1))

	tests := []struct {
		name     string
		fee      types.FeeStruct
		count    int
		gasLimit *uint64
		want     *big.Int
	}{
		{
			name:     "fixed with transfer directive",
			fee:      fixed,
			count:    1,
			gasLimit: uint64Ptr(90_000_000),
			want:     big.NewInt(100 + 90_000_000),
		},
		{
			name:  "fixed without transfer directive",
			fee:   fixed,
			count: 1,
			want:  big.NewInt(100),
		},
		{
			name:  "fixed scales with transfers",
			fee:   fixed,
			count: 3,
			want:  big.NewInt(300),
		},
		{
			name:     "none",
			fee:      types.NoFee(),
			count:    5,
			gasLimit: uint64Ptr(1000),
			want:     big.NewInt(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, 0, tt.want.Cmp(ComputeFee(tt.fee, tt.count, tt.gasLimit)))
		})
	}
}

func TestFeeMarket_SubtractFee(t *testing.T) {
	t.Parallel()

	fee := types.NewFixedFee(feeToken, big.NewInt(100), big.NewInt(1))
	payment := func(tokenID string, amount int64) *types.OperationPayment {
		p := types.NewFungiblePayment(tokenID, big.NewInt(amount))
		return &p
	}

	tests := []struct {
		name        string
		caller      common.Address
		whitelisted bool
		args        SubtractFeeArgs
		wantErr     error
		wantCharged int64
		wantRefund  int64
	}{
		{
			name:        "success: exact payment",
			caller:      engineAddr,
			args:        SubtractFeeArgs{User: user, Payment: payment(feeToken, 100), TransferCount: 1},
			wantCharged: 100,
		},
		{
			name:        "success: excess stays with the user",
			caller:      engineAddr,
			args:        SubtractFeeArgs{User: user, Payment: payment(feeToken, 150), TransferCount: 1},
			wantCharged: 100,
			wantRefund:  50,
		},
		{
			name:        "success: gas term with directive",
			caller:      engineAddr,
			args:        SubtractFeeArgs{User: user, Payment: payment(feeToken, 1000), TransferCount: 2, GasLimit: uint64Ptr(500)},
			wantCharged: 700,
			wantRefund:  300,
		},
		{
			name:        "success: whitelisted user pays nothing",
			caller:      engineAddr,
			whitelisted: true,
			args:        SubtractFeeArgs{User: user, Payment: payment(feeToken, 100), TransferCount: 1},
			wantRefund:  100,
		},
		{
			name:    "failure: short payment",
			caller:  engineAddr,
			args:    SubtractFeeArgs{User: user, Payment: payment(feeToken, 99), TransferCount: 1},
			wantErr: types.ErrPaymentDoesNotCover,
		},
		{
			name:    "failure: missing payment",
			caller:  engineAddr,
			args:    SubtractFeeArgs{User: user, TransferCount: 1},
			wantErr: types.ErrPaymentDoesNotCover,
		},
		{
			name:    "failure: wrong token",
			caller:  engineAddr,
			args:    SubtractFeeArgs{User: user, Payment: payment("WEGLD-123456", 100), TransferCount: 1},
			wantErr: types.ErrInvalidFeeToken,
		},
		{
			name:    "failure: caller is not the engine",
			caller:  user,
			args:    SubtractFeeArgs{User: user, Payment: payment(feeToken, 100), TransferCount: 1},
			wantErr: types.ErrCallerNotEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newFixture(t, fee)
			f.chain.Fund(user, types.NewFungiblePayment(feeToken, big.NewInt(1000)))
			f.chain.Fund(user, types.NewFungiblePayment("WEGLD-123456", big.NewInt(1000)))
			if tt.whitelisted {
				op := types.AddUsersToWhitelistOperation{Users: []common.Address{user}}
				require.NoError(t, f.market.AddUsersToWhitelist(ctx, f.register(t, op), op))
			}

			got, err := f.market.SubtractFee(ctx, tt.caller, tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, big.NewInt(0), f.chain.Balance(marketAddr, feeToken, 0))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 0, got.Required.Cmp(big.NewInt(tt.wantCharged)))
			assert.Equal(t, 0, got.Refund.Cmp(big.NewInt(tt.wantRefund)))
			assert.Equal(t, big.NewInt(tt.wantCharged), f.chain.Balance(marketAddr, feeToken, 0))
			assert.Equal(t, big.NewInt(1000-tt.wantCharged), f.chain.Balance(user, feeToken, 0))
		})
	}
}

func TestFeeMarket_AdminCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, types.NoFee())

	newFee := types.NewFixedFee(feeToken, big.NewInt(7), nil)
	setFee := types.SetFeeOperation{Fee: newFee, Nonce: 1}

	// not registered
	require.ErrorIs(t, f.market.SetFee(ctx, common.Hash{}, setFee), types.ErrCurrentOperationNotRegistered)

	digest := f.register(t, setFee)
	require.NoError(t, f.market.SetFee(ctx, digest, setFee))
	assert.Equal(t, newFee, f.market.Fee())

	// replay
	require.ErrorIs(t, f.market.SetFee(ctx, digest, setFee), types.ErrCurrentOperationNotRegistered)

	// invalid fee is rejected before the entry is consumed
	invalid := types.SetFeeOperation{Fee: types.FeeStruct{FeeType: types.FeeType{Kind: types.FeeKindFixed}}, Nonce: 2}
	digest = f.register(t, invalid)
	require.ErrorIs(t, f.market.SetFee(ctx, digest, invalid), types.ErrInvalidFee)
	h, err := invalid.Hash()
	require.NoError(t, err)
	assert.Equal(t, types.StatusNotLocked, f.registry.StatusOf(digest, h))

	removeFee := types.RemoveFeeOperation{Nonce: 3}
	require.NoError(t, f.market.RemoveFee(ctx, f.register(t, removeFee), removeFee))
	assert.False(t, f.market.Fee().IsEnabled())

	add := types.AddUsersToWhitelistOperation{Users: []common.Address{user}, Nonce: 4}
	require.NoError(t, f.market.AddUsersToWhitelist(ctx, f.register(t, add), add))
	assert.True(t, f.market.IsWhitelisted(user))

	remove := types.RemoveUsersFromWhitelistOperation{Users: []common.Address{user}, Nonce: 5}
	require.NoError(t, f.market.RemoveUsersFromWhitelist(ctx, f.register(t, remove), remove))
	assert.False(t, f.market.IsWhitelisted(user))

	events := host.EventsOf[types.AdminCommandEvent](f.chain)
	require.Len(t, events, 4)
	assert.Equal(t, types.CommandKindRemoveUsersFromWhitelist, events[3].Kind)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, types.NewFixedFee(feeToken, big.NewInt(100), big.NewInt(2)))

	_, err := Load("sov2", marketAddr, engineAddr, f.chain, f.chain, f.kv, f.registry)
	require.ErrorIs(t, err, storage.ErrNotExist)

	add := types.AddUsersToWhitelistOperation{Users: []common.Address{user}, Nonce: 1}
	require.NoError(t, f.market.AddUsersToWhitelist(ctx, f.register(t, add), add))

	payer := common.HexToAddress("0xbee")
	f.chain.Fund(payer, types.NewFungiblePayment(feeToken, big.NewInt(100)))
	p := types.NewFungiblePayment(feeToken, big.NewInt(100))
	_, err = f.market.SubtractFee(ctx, engineAddr, SubtractFeeArgs{User: payer, Payment: &p, TransferCount: 1})
	require.NoError(t, err)

	loaded, err := Load("sov1", marketAddr, engineAddr, f.chain, f.chain, f.kv, f.registry)
	require.NoError(t, err)
	assert.True(t, loaded.IsWhitelisted(user))
	assert.False(t, loaded.IsWhitelisted(payer))
	assert.Equal(t, types.FeeKindFixed, loaded.Fee().FeeType.Kind)
	assert.Equal(t, 0, loaded.Fee().FeeType.PerTransfer.Cmp(big.NewInt(100)))

	// collected tokens survive, so the loaded market can distribute them
	pairs := types.DistributeFeesOperation{Pairs: []types.AddressPercentagePair{{Address: user, Percentage: types.MaxPercentage}}, Nonce: 2}
	require.NoError(t, loaded.DistributeFees(ctx, f.register(t, pairs), pairs))
	assert.Equal(t, int64(100), f.chain.Balance(user, feeToken, 0).Int64())
}

func TestFeeMarket_DistributeFees(t *testing.T) {
	t.Parallel()

	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb2")

	tests := []struct {
		name      string
		collected int64
		pairs     []types.AddressPercentagePair
		wantErr   error
		wantAlice int64
		wantBob   int64
	}{
		{
			name:      "success: proportional and truncated",
			collected: 1001,
			pairs:     []types.AddressPercentagePair{{Address: alice, Percentage: 5000}, {Address: bob, Percentage: 2500}},
			wantAlice: 500,
			wantBob:   250,
		},
		{
			name:      "success: share rounding to zero is skipped",
			collected: 100,
			pairs:     []types.AddressPercentagePair{{Address: alice, Percentage: 1}, {Address: bob, Percentage: 9999}},
			wantAlice: 0,
			wantBob:   99,
		},
		{
			name:      "success: full distribution",
			collected: 100,
			pairs:     []types.AddressPercentagePair{{Address: alice, Percentage: types.MaxPercentage}},
			wantAlice: 100,
		},
		{
			name:      "failure: percentages above maximum",
			collected: 100,
			pairs:     []types.AddressPercentagePair{{Address: alice, Percentage: 5001}, {Address: bob, Percentage: 5000}},
			wantErr:   types.ErrPercentageSumTooHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newFixture(t, types.NewFixedFee(feeToken, big.NewInt(tt.collected), nil))
			f.chain.Fund(user, types.NewFungiblePayment(feeToken, big.NewInt(tt.collected)))
			p := types.NewFungiblePayment(feeToken, big.NewInt(tt.collected))
			_, err := f.market.SubtractFee(ctx, engineAddr, SubtractFeeArgs{User: user, Payment: &p, TransferCount: 1})
			require.NoError(t, err)

			op := types.DistributeFeesOperation{Pairs: tt.pairs, Nonce: 1}
			err = f.market.DistributeFees(ctx, f.register(t, op), op)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, big.NewInt(tt.collected), f.chain.Balance(marketAddr, feeToken, 0))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, big.NewInt(tt.wantAlice), f.chain.Balance(alice, feeToken, 0))
			assert.Equal(t, big.NewInt(tt.wantBob), f.chain.Balance(bob, feeToken, 0))
			assert.Equal(t, big.NewInt(tt.collected-tt.wantAlice-tt.wantBob), f.chain.Balance(marketAddr, feeToken, 0))
			require.Len(t, host.EventsOf[types.FeesDistributedEvent](f.chain), 1)
		})
	}
}
