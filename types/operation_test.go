package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payments(n int) []OperationPayment {
	out := make([]OperationPayment, n)
	for i := range out {
		out[i] = NewFungiblePayment("USDC-123456", big.NewInt(int64(i+1)))
	}

	return out
}

func TestOperation_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    Operation
		wantErr error
	}{
		{
			name: "success: ten payments",
			give: Operation{Tokens: payments(MaxTransfersPerTx)},
		},
		{
			name: "success: transfer data only",
			give: Operation{Data: OperationData{TransferData: &TransferData{GasLimit: 1, Function: []byte("f")}}},
		},
		{
			name:    "failure: eleven payments",
			give:    Operation{Tokens: payments(MaxTransfersPerTx + 1)},
			wantErr: ErrTooManyTokens,
		},
		{
			name:    "failure: empty",
			give:    Operation{To: common.HexToAddress("0x1")},
			wantErr: ErrNothingToTransfer,
		},
		{
			name:    "failure: negative amount",
			give:    Operation{Tokens: []OperationPayment{NewFungiblePayment("USDC-123456", big.NewInt(-1))}},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHasChainPrefix(t *testing.T) {
	t.Parallel()

	assert.True(t, HasChainPrefix("sov1-TKN-123456", "sov1"))
	assert.False(t, HasChainPrefix("sov2-TKN-123456", "sov1"))
	assert.False(t, HasChainPrefix("TKN-123456", "sov1"))
	assert.False(t, HasChainPrefix("TKN-123456", "TKN"))

	assert.Equal(t, "TKN", TokenTicker("sov1-TKN-123456"))
	assert.Equal(t, "TKN", TokenTicker("TKN-123456"))
}

func TestTokenRole_Has(t *testing.T) {
	t.Parallel()

	roles := RoleMint | RoleBurn
	assert.True(t, roles.Has(RoleMint))
	assert.True(t, roles.Has(RoleMint|RoleBurn))
	assert.False(t, roles.Has(RoleNFTCreate))
	assert.False(t, RoleMint.Has(RoleMint|RoleBurn))
}

func TestNewTokenPayment(t *testing.T) {
	t.Parallel()

	fungible := NewTokenPayment(TokenKey{TokenID: "USDC-123456"}, big.NewInt(3))
	assert.Equal(t, TokenKey{TokenID: "USDC-123456"}, fungible.Key())
	assert.Equal(t, TokenTypeFungible, fungible.Data.Type)

	nonced := NewTokenPayment(TokenKey{TokenID: "SFT-123456", Nonce: 5}, big.NewInt(40))
	assert.Equal(t, TokenKey{TokenID: "SFT-123456", Nonce: 5}, nonced.Key())
	assert.Equal(t, TokenTypeSemiFungible, nonced.Data.Type)
	assert.Equal(t, big.NewInt(40), nonced.Amount())
}
