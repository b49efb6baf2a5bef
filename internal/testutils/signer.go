package testutils

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartcontractkit/sovbridge/types"
)

// Note: should only be used for testing purposes
type ECDSASigner struct {
	Key *ecdsa.PrivateKey
}

func NewECDSASigner() *ECDSASigner {
	key, _ := crypto.GenerateKey()
	return &ECDSASigner{Key: key}
}

func (s *ECDSASigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.Key.PublicKey)
}

// SignBatch signs the signing hash of a batch digest.
func (s *ECDSASigner) SignBatch(digest common.Hash) types.Signature {
	sigBytes, err := crypto.Sign(types.SigningHash(digest).Bytes(), s.Key)
	if err != nil {
		panic(err)
	}
	sig, err := types.NewSignatureFromBytes(sigBytes)
	if err != nil {
		panic(err)
	}

	return sig
}

func MakeNewECDSASigners(n int) []ECDSASigner {
	signers := make([]ECDSASigner, n)
	for i := range n {
		signers[i] = *NewECDSASigner()
	}

	return signers
}

// Addresses returns the validator addresses of signers, in order.
func Addresses(signers []ECDSASigner) []common.Address {
	addrs := make([]common.Address, len(signers))
	for i := range signers {
		addrs[i] = signers[i].Address()
	}

	return addrs
}

// Aggregate signs digest with the signers at indices and returns the aggregated signature with
// its bitmap. Indices must be ascending.
func Aggregate(digest common.Hash, signers []ECDSASigner, indices ...int) ([]byte, types.ValidatorBitmap) {
	sigs := make([]types.Signature, 0, len(indices))
	for _, idx := range indices {
		sigs = append(sigs, signers[idx].SignBatch(digest))
	}

	return types.ConcatSignatures(sigs), types.NewValidatorBitmap(len(signers), indices...)
}
