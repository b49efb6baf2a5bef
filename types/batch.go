package types

import (
	"crypto/sha256"
	"errors"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptyBatch is returned when a batch digest is requested for no command hashes.
var ErrEmptyBatch = errors.New("batch must contain at least one command hash")

// HashOfHashes returns the batch digest: sha256 over the concatenation of the command hashes.
func HashOfHashes(hashes []common.Hash) (common.Hash, error) {
	if len(hashes) == 0 {
		return common.Hash{}, ErrEmptyBatch
	}

	h := sha256.New()
	for _, hash := range hashes {
		h.Write(hash.Bytes())
	}

	return common.BytesToHash(h.Sum(nil)), nil
}

// CommandHashes returns the canonical hash of every command, in order.
func CommandHashes(cmds []BridgeCommand) ([]common.Hash, error) {
	hashes := make([]common.Hash, len(cmds))
	for i, cmd := range cmds {
		h, err := cmd.Hash()
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}

	return hashes, nil
}

// SigningHash returns the EIP-191 prefixed hash that validators sign for a batch digest.
func SigningHash(batchDigest common.Hash) common.Hash {
	prefix := []byte("\x19Ethereum Signed Message:\n32")
	data := append(prefix, batchDigest.Bytes()...)

	return crypto.Keccak256Hash(data)
}

// ValidatorBitmap selects validators of an epoch by position: bit i%8 of byte i/8 selects
// validator i.
type ValidatorBitmap []byte

// NewValidatorBitmap returns a bitmap sized for numValidators with the given indices selected.
func NewValidatorBitmap(numValidators int, selected ...int) ValidatorBitmap {
	bm := make(ValidatorBitmap, BitmapLen(numValidators))
	for _, idx := range selected {
		bm.Set(idx)
	}

	return bm
}

// BitmapLen returns the number of bytes a bitmap over numValidators occupies.
func BitmapLen(numValidators int) int {
	return (numValidators + 7) / 8 //nolint:mnd
}

// Set selects validator idx. Indices beyond the bitmap are ignored.
func (b ValidatorBitmap) Set(idx int) {
	if idx < 0 || idx/8 >= len(b) {
		return
	}
	b[idx/8] |= 1 << (idx % 8)
}

// IsSet reports whether validator idx is selected.
func (b ValidatorBitmap) IsSet(idx int) bool {
	if idx < 0 || idx/8 >= len(b) {
		return false
	}

	return b[idx/8]&(1<<(idx%8)) != 0
}

// Count returns the number of selected validators.
func (b ValidatorBitmap) Count() int {
	n := 0
	for _, by := range b {
		n += bits.OnesCount8(by)
	}

	return n
}

// Indices returns the selected positions in ascending order.
func (b ValidatorBitmap) Indices() []int {
	indices := make([]int, 0, b.Count())
	for i := 0; i < len(b)*8; i++ {
		if b.IsSet(i) {
			indices = append(indices, i)
		}
	}

	return indices
}
