package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEnvelope_JSON(t *testing.T) {
	t.Parallel()

	give := []CommandEnvelope{
		{Command: testOperation()},
		{Command: SetFeeOperation{Fee: NewFixedFee("USDC-123456", big.NewInt(100), big.NewInt(3)), Nonce: 1}},
		{Command: ChangeValidatorSetOperation{Epoch: 1, Validators: []common.Address{common.HexToAddress("0x1")}, Nonce: 2}},
	}

	data, err := json.Marshal(give)
	require.NoError(t, err)

	var got []CommandEnvelope
	require.NoError(t, json.Unmarshal(data, &got))

	require.Len(t, got, len(give))
	for i := range give {
		wantHash, err := give[i].Command.Hash()
		require.NoError(t, err)
		gotHash, err := got[i].Command.Hash()
		require.NoError(t, err)
		assert.Equal(t, wantHash, gotHash, cmp.Diff(give[i].Command, got[i].Command, cmp.Comparer(bigEqual)))
	}
}

func TestCommandEnvelope_Errors(t *testing.T) {
	t.Parallel()

	var env CommandEnvelope
	err := json.Unmarshal([]byte(`{"kind":"mint","command":{}}`), &env)
	require.EqualError(t, err, `unknown command kind: "mint"`)

	_, err = json.Marshal(CommandEnvelope{})
	require.ErrorIs(t, err, ErrEmptyCommand)
}

func bigEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Cmp(b) == 0
}
