package sovbridge

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/types"
)

const testKeyHex = "2f2c1e1b3f0e5d2c7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f"

func TestPrivateKeySigner(t *testing.T) {
	t.Parallel()

	signer, err := NewPrivateKeySignerFromHex("0x" + testKeyHex)
	require.NoError(t, err)

	pk, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	addr, err := signer.GetAddress()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(pk.PublicKey), addr)

	digest := common.HexToHash("0x1234")
	sigB, err := signer.Sign(digest.Bytes())
	require.NoError(t, err)

	sig, err := types.NewSignatureFromBytes(sigB)
	require.NoError(t, err)
	recovered, err := sig.Recover(types.SigningHash(digest))
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)

	_, err = signer.Sign([]byte("short"))
	require.Error(t, err)
}

func TestNewPrivateKeySignerFromHex_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewPrivateKeySignerFromHex("not a key")
	require.ErrorContains(t, err, "invalid private key")
}
