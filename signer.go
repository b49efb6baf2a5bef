package sovbridge

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartcontractkit/sovbridge/types"
)

// Signer is an interface for different strategies for signing batch digests.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	GetAddress() (common.Address, error)
}

var _ Signer = &PrivateKeySigner{}

// PrivateKeySigner signs payloads using a private key.
type PrivateKeySigner struct {
	pk *ecdsa.PrivateKey
}

// NewPrivateKeySigner creates a new PrivateKeySigner.
func NewPrivateKeySigner(pk *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{pk: pk}
}

// NewPrivateKeySignerFromHex creates a PrivateKeySigner from a hex encoded key, with or without
// the 0x prefix.
func NewPrivateKeySignerFromHex(key string) (*PrivateKeySigner, error) {
	if len(key) > 1 && key[:2] == "0x" {
		key = key[2:]
	}

	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return NewPrivateKeySigner(pk), nil
}

// Sign signs the payload using the private key.
// The payload here should be the batch digest without the EIP 191 prefix,
// and the function will add it before signing.
func (s *PrivateKeySigner) Sign(payload []byte) ([]byte, error) {
	if len(payload) != common.HashLength {
		return nil, fmt.Errorf("payload must be a %d byte digest, got %d bytes", common.HashLength, len(payload))
	}

	return crypto.Sign(types.SigningHash(common.BytesToHash(payload)).Bytes(), s.pk)
}

// GetAddress returns the address of the signer.
func (s *PrivateKeySigner) GetAddress() (common.Address, error) {
	return crypto.PubkeyToAddress(s.pk.PublicKey), nil
}
