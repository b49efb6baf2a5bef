package sovbridge

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

// SignableOption configures a Signable.
type SignableOption func(*Signable)

// WithQuorum overrides the quorum threshold the signatures are checked against. It must match the
// threshold of the target registry.
func WithQuorum(q registry.QuorumFunc) SignableOption {
	return func(s *Signable) {
		s.quorum = q
	}
}

// Signable provides signing functionality for a Batch. The inspector is used to read the
// validator set of the batch epoch from the target chain.
type Signable struct {
	batch     *Batch
	digest    common.Hash
	inspector sdk.Inspector
	quorum    registry.QuorumFunc
}

// NewSignable creates a new Signable from a batch and an inspector. The inspector may be nil when
// the Signable is only used to sign.
func NewSignable(batch *Batch, inspector sdk.Inspector, opts ...SignableOption) (*Signable, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	digest, err := batch.Digest()
	if err != nil {
		return nil, err
	}

	s := &Signable{
		batch:     batch,
		digest:    digest,
		inspector: inspector,
		quorum:    registry.DefaultQuorum,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Digest returns the batch digest the validators sign.
func (s *Signable) Digest() common.Hash {
	return s.digest
}

// Sign signs the batch digest with the provided signer.
func (s *Signable) Sign(signer Signer) (types.Signature, error) {
	sigB, err := signer.Sign(s.digest.Bytes())
	if err != nil {
		return types.Signature{}, err
	}

	return types.NewSignatureFromBytes(sigB)
}

// SignAndAppend signs the batch using the provided signer and appends the resulting signature
// to the batch's list of signatures.
//
// This function modifies the batch in place by adding the new signature to its Signatures
// slice.
func (s *Signable) SignAndAppend(signer Signer) (types.Signature, error) {
	sig, err := s.Sign(signer)
	if err != nil {
		return types.Signature{}, err
	}

	s.batch.AppendSignature(sig)

	return sig, nil
}

// Aggregate orders the batch signatures by validator index and returns the aggregated signature
// with the bitmap selecting the signers, as the registry expects them.
func (s *Signable) Aggregate() ([]byte, types.ValidatorBitmap, error) {
	validators, err := s.validators()
	if err != nil {
		return nil, nil, err
	}

	indices, sigs, err := s.attribute(validators)
	if err != nil {
		return nil, nil, err
	}

	order := make([]int, len(indices))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return indices[a] - indices[b] })

	sorted := make([]types.Signature, len(order))
	for i, pos := range order {
		sorted[i] = sigs[pos]
	}

	return types.ConcatSignatures(sorted), types.NewValidatorBitmap(len(validators), indices...), nil
}

// CheckQuorum reports whether the batch signatures come from a quorum of the validators of the
// batch epoch. Signatures from non validators are an error.
func (s *Signable) CheckQuorum() (bool, error) {
	validators, err := s.validators()
	if err != nil {
		return false, err
	}

	indices, _, err := s.attribute(validators)
	if err != nil {
		return false, err
	}

	return len(indices) >= s.quorum(len(validators)), nil
}

// ValidateSignatures returns a QuorumNotReachedError when CheckQuorum does not pass.
func (s *Signable) ValidateSignatures() (bool, error) {
	ok, err := s.CheckQuorum()
	if err != nil {
		return false, err
	}
	if !ok {
		validators, verr := s.validators()
		if verr != nil {
			return false, verr
		}

		return false, NewQuorumNotReachedError(s.batch.ChainID, s.batch.Epoch, len(s.batch.Signatures), s.quorum(len(validators)))
	}

	return true, nil
}

func (s *Signable) validators() ([]common.Address, error) {
	if s.inspector == nil {
		return nil, ErrInspectorNotProvided
	}

	return s.inspector.Validators(s.batch.Epoch)
}

// attribute recovers the signer of every batch signature and returns its validator index,
// in signature order.
func (s *Signable) attribute(validators []common.Address) ([]int, []types.Signature, error) {
	hash := types.SigningHash(s.digest)

	seen := make(map[common.Address]struct{}, len(s.batch.Signatures))
	indices := make([]int, 0, len(s.batch.Signatures))
	for _, sig := range s.batch.Signatures {
		recovered, err := sig.Recover(hash)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := seen[recovered]; ok {
			return nil, nil, &DuplicateSignersError{signer: recovered.Hex()}
		}
		seen[recovered] = struct{}{}

		idx := slices.Index(validators, recovered)
		if idx < 0 {
			return nil, nil, NewInvalidSignatureError(recovered)
		}
		indices = append(indices, idx)
	}

	return indices, s.batch.Signatures, nil
}
