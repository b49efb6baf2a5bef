package deployer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/internal/testutils"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/types"
)

const lockToken = "TKN-123456"

var (
	userAddr     = common.HexToAddress("0xa1")
	receiverAddr = common.HexToAddress("0xb1")
	relayerAddr  = common.HexToAddress("0xd1")
)

func TestDepositArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    [][]byte
		wantTD  *types.TransferData
		wantErr error
	}{
		{
			name: "success: without directive",
			args: EncodeDepositArgs(receiverAddr, nil),
		},
		{
			name: "success: with directive",
			args: EncodeDepositArgs(receiverAddr, &types.TransferData{GasLimit: 42, Function: []byte("onReceive"), Args: [][]byte{{0x01}}}),
			wantTD: &types.TransferData{GasLimit: 42, Function: []byte("onReceive"), Args: [][]byte{{0x01}}},
		},
		{
			name:    "failure: missing destination",
			wantErr: ErrInvalidEndpointArgs,
		},
		{
			name:    "failure: missing gas limit",
			args:    [][]byte{receiverAddr.Bytes(), []byte("onReceive")},
			wantErr: ErrInvalidEndpointArgs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			to, td, err := decodeDepositArgs(sdk.CallRequest{Args: tt.args})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, receiverAddr, to)
			assert.Equal(t, tt.wantTD, td)
		})
	}
}

func TestEndpoints_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	forge, chain := newForge(t, DefaultConfig())
	signers := testutils.MakeNewECDSASigners(4)
	s := deployAll(t, forge, signers, nil)
	require.NoError(t, forge.CompleteSetupPhase(ctx, creatorAddr))

	chain.Fund(userAddr, types.NewFungiblePayment(lockToken, big.NewInt(1_000)))
	engineAddr := s.Engine.Address()

	// outbound
	err := chain.Call(ctx, sdk.CallRequest{
		From:     userAddr,
		To:       engineAddr,
		Payments: []types.OperationPayment{types.NewFungiblePayment(lockToken, big.NewInt(100))},
		Function: EndpointDeposit,
		Args:     EncodeDepositArgs(receiverAddr, nil),
		GasLimit: DepositGasCost,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), chain.Balance(engineAddr, lockToken, 0).Int64())
	assert.Equal(t, int64(900), chain.Balance(userAddr, lockToken, 0).Int64())
	require.Len(t, host.EventsOf[types.DepositEvent](chain), 1)

	// a rejected deposit leaves the payments with the caller
	tooMany := make([]types.OperationPayment, types.MaxTransfersPerTx+1)
	for i := range tooMany {
		tooMany[i] = types.NewFungiblePayment(lockToken, big.NewInt(1))
	}
	err = chain.Call(ctx, sdk.CallRequest{
		From:     userAddr,
		To:       engineAddr,
		Payments: tooMany,
		Function: EndpointDeposit,
		Args:     EncodeDepositArgs(receiverAddr, nil),
		GasLimit: DepositGasCost,
	})
	require.ErrorIs(t, err, types.ErrTooManyTokens)
	assert.Equal(t, int64(100), chain.Balance(engineAddr, lockToken, 0).Int64())
	assert.Equal(t, int64(900), chain.Balance(userAddr, lockToken, 0).Int64())

	// inbound
	op := types.Operation{
		To:     receiverAddr,
		Tokens: []types.OperationPayment{types.NewFungiblePayment(lockToken, big.NewInt(40))},
		Data:   types.OperationData{OpNonce: 1, OpSender: userAddr},
	}
	hashes, err := types.CommandHashes([]types.BridgeCommand{op})
	require.NoError(t, err)
	digest, err := types.HashOfHashes(hashes)
	require.NoError(t, err)
	sig, bitmap := testutils.Aggregate(digest, signers, 0, 1, 2)
	registerArgs, err := EncodeRegisterArgs(sig, digest, bitmap, 0, hashes)
	require.NoError(t, err)

	err = chain.Call(ctx, sdk.CallRequest{
		From:     relayerAddr,
		To:       s.Registry.Address(),
		Function: EndpointRegister,
		Args:     registerArgs,
		GasLimit: RegisterGasCost,
	})
	require.NoError(t, err)

	args, err := EncodeExecuteArgs(digest, op)
	require.NoError(t, err)
	execute := sdk.CallRequest{From: relayerAddr, To: engineAddr, Function: EndpointExecute, Args: args, GasLimit: ExecuteGasCost}
	require.NoError(t, chain.Call(ctx, execute))
	assert.Equal(t, int64(40), chain.Balance(receiverAddr, lockToken, 0).Int64())
	assert.Equal(t, int64(60), chain.Balance(engineAddr, lockToken, 0).Int64())

	require.ErrorIs(t, chain.Call(ctx, execute), types.ErrCurrentOperationNotRegistered)

	err = chain.Call(ctx, sdk.CallRequest{
		From:     relayerAddr,
		To:       s.Registry.Address(),
		Function: EndpointRegister,
		Args:     [][]byte{{0x01}},
		GasLimit: RegisterGasCost,
	})
	require.ErrorIs(t, err, ErrInvalidEndpointArgs)
}

func TestEndpoints_DepositWithFee(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	forge, chain := newForge(t, DefaultConfig())
	fee := types.NewFixedFee("FEE-654321", big.NewInt(10), big.NewInt(1))
	s := deployAll(t, forge, testutils.MakeNewECDSASigners(1), &fee)
	require.NoError(t, forge.CompleteSetupPhase(ctx, creatorAddr))

	chain.Fund(userAddr, types.NewFungiblePayment(lockToken, big.NewInt(1_000)))
	chain.Fund(userAddr, types.NewFungiblePayment("FEE-654321", big.NewInt(100)))

	err := chain.Call(ctx, sdk.CallRequest{
		From: userAddr,
		To:   s.Engine.Address(),
		Payments: []types.OperationPayment{
			types.NewFungiblePayment("FEE-654321", big.NewInt(50)),
			types.NewFungiblePayment(lockToken, big.NewInt(100)),
			types.NewFungiblePayment(lockToken, big.NewInt(100)),
		},
		Function: EndpointDeposit,
		Args:     EncodeDepositArgs(receiverAddr, nil),
		GasLimit: DepositGasCost,
	})
	require.NoError(t, err)

	// two transfers, no directive
	assert.Equal(t, int64(20), chain.Balance(s.FeeMarket.Address(), "FEE-654321", 0).Int64())
	assert.Equal(t, int64(80), chain.Balance(userAddr, "FEE-654321", 0).Int64())
	assert.Equal(t, int64(200), chain.Balance(s.Engine.Address(), lockToken, 0).Int64())
	assert.Equal(t, int64(0), chain.Balance(s.Engine.Address(), "FEE-654321", 0).Int64())
}
