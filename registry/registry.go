// Package registry implements the operation registry of a sovereign chain: it verifies validator
// quorum over batches of command hashes and tracks every registered hash until it is consumed.
package registry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const namespace = "registry"

var (
	keyPrefixStatus = []byte("op/")
	keyPrefixBatch  = []byte("batch/")
	keyPrefixEpoch  = []byte("epoch/")
	keyCurrentEpoch = []byte("meta/currentEpoch")
)

// QuorumFunc returns the number of validators that must sign out of numValidators.
type QuorumFunc func(numValidators int) int

// DefaultQuorum requires strictly more than two thirds of the validators.
func DefaultQuorum(numValidators int) int {
	return 2*numValidators/3 + 1 //nolint:mnd
}

// Option configures a Registry.
type Option func(*Registry)

// WithQuorum overrides the quorum threshold.
func WithQuorum(q QuorumFunc) Option {
	return func(r *Registry) {
		r.quorum = q
	}
}

// Registry is the operation registry of one sovereign chain.
type Registry struct {
	mu sync.Mutex

	chainID string
	address common.Address
	owner   common.Address
	kv      storage.KVStore
	events  sdk.EventEmitter
	quorum  QuorumFunc

	// callers allowed to lock and clear entries
	allowed map[common.Address]struct{}
}

// New returns a registry at address for chainID, owned by the deployer that wires it.
func New(chainID string, address, owner common.Address, kv storage.KVStore, events sdk.EventEmitter, opts ...Option) *Registry {
	r := &Registry{
		chainID: chainID,
		address: address,
		owner:   owner,
		kv:      kv,
		events:  events,
		quorum:  DefaultQuorum,
		allowed: map[common.Address]struct{}{address: {}},
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Address returns the registry's contract address.
func (r *Registry) Address() common.Address { return r.address }

// ChainID returns the sovereign chain the registry serves.
func (r *Registry) ChainID() string { return r.chainID }

// Wire records the contracts allowed to consume registered hashes.
func (r *Registry) Wire(caller common.Address, contracts ...common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.ErrCallerNotOwner
	}
	for _, c := range contracts {
		r.allowed[c] = struct{}{}
	}

	return nil
}

// IsSetupComplete reports whether the genesis validator set is installed.
func (r *Registry) IsSetupComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.currentEpoch()

	return err == nil
}

// CompleteSetup installs the genesis validator set as epoch 0 and opens registration.
func (r *Registry) CompleteSetup(ctx context.Context, caller common.Address, validators []common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.ErrCallerNotOwner
	}
	if _, err := r.currentEpoch(); err == nil {
		return types.ErrSetupAlreadyCompleted
	}
	if len(validators) == 0 {
		return types.ErrEmptyValidatorSet
	}

	if err := r.putValidators(0, validators); err != nil {
		return err
	}
	if err := r.kv.Put(namespace, r.key(keyCurrentEpoch), epochKey(0)); err != nil {
		return err
	}

	sdk.LoggerFrom(ctx).Infof("registry %s: genesis validator set of %d installed", r.chainID, len(validators))

	return nil
}

// Register verifies the aggregated signature over batchDigest and marks every hash as registered.
// Nothing is written when verification fails.
func (r *Registry) Register(
	ctx context.Context,
	signature []byte,
	batchDigest common.Hash,
	bitmap types.ValidatorBitmap,
	epoch uint64,
	hashes []common.Hash,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.currentEpoch()
	if err != nil {
		return err
	}
	if epoch != current {
		return fmt.Errorf("%w: got %d, current %d", types.ErrInvalidEpoch, epoch, current)
	}

	digest, err := types.HashOfHashes(hashes)
	if err != nil {
		return err
	}
	if digest != batchDigest {
		return types.ErrHashOfHashesMismatch
	}

	if _, err = r.kv.Get(namespace, r.key(keyPrefixBatch, batchDigest.Bytes())); err == nil {
		return types.ErrBatchAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotExist) {
		return err
	}

	validators, err := r.validators(epoch)
	if err != nil {
		return err
	}

	if err = r.verify(signature, batchDigest, bitmap, validators); err != nil {
		return err
	}

	for _, h := range hashes {
		if err = r.kv.Put(namespace, r.statusKey(batchDigest, h), []byte{byte(types.StatusNotLocked)}); err != nil {
			return err
		}
	}
	if err = r.kv.Put(namespace, r.key(keyPrefixBatch, batchDigest.Bytes()), epochKey(epoch)); err != nil {
		return err
	}

	r.events.Emit(ctx, types.RegisterBatchEvent{
		ChainID:     r.chainID,
		BatchDigest: batchDigest,
		Epoch:       epoch,
		Hashes:      slices.Clone(hashes),
	})
	sdk.LoggerFrom(ctx).Infof("registry %s: registered batch %s with %d commands", r.chainID, batchDigest, len(hashes))

	return nil
}

// verify checks the bitmap selects a quorum of validators and that every signature, taken in
// ascending validator order, recovers to the validator it is attributed to.
func (r *Registry) verify(signature []byte, digest common.Hash, bitmap types.ValidatorBitmap, validators []common.Address) error {
	if len(bitmap) != types.BitmapLen(len(validators)) {
		return fmt.Errorf("%w: length %d, expected %d", types.ErrInvalidBitmap, len(bitmap), types.BitmapLen(len(validators)))
	}
	indices := bitmap.Indices()
	if len(indices) > 0 && indices[len(indices)-1] >= len(validators) {
		return fmt.Errorf("%w: selects validator %d of %d", types.ErrInvalidBitmap, indices[len(indices)-1], len(validators))
	}

	if required := r.quorum(len(validators)); len(indices) < required {
		return types.NewQuorumNotReachedError(len(indices), required)
	}

	sigs, err := types.SplitSignatures(signature)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidSignature, err)
	}
	if len(sigs) != len(indices) {
		return fmt.Errorf("%w: %d signatures for %d selected validators", types.ErrInvalidSignature, len(sigs), len(indices))
	}

	signingHash := types.SigningHash(digest)
	for i, idx := range indices {
		recovered, rerr := sigs[i].Recover(signingHash)
		if rerr != nil {
			return fmt.Errorf("%w: %w", types.ErrInvalidSignature, rerr)
		}
		if recovered != validators[idx] {
			return types.NewInvalidSignatureError(idx, validators[idx], recovered)
		}
	}

	return nil
}

// StatusOf returns the status of hash within batchDigest.
func (r *Registry) StatusOf(batchDigest, hash common.Hash) types.OperationHashStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status(batchDigest, hash)
}

// Lock marks a registered hash as being executed. It fails unless the hash is NotLocked.
func (r *Registry) Lock(ctx context.Context, caller common.Address, batchDigest, hash common.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.allowed[caller]; !ok {
		return types.ErrCallerNotFromCurrentSovereign
	}

	switch r.status(batchDigest, hash) {
	case types.StatusNotLocked:
	case types.StatusLocked:
		return types.ErrCurrentOperationAlreadyInExecution
	default:
		return types.ErrCurrentOperationNotRegistered
	}

	if err := r.kv.Put(namespace, r.statusKey(batchDigest, hash), []byte{byte(types.StatusLocked)}); err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Debugf("registry %s: locked %s", r.chainID, hash)

	return nil
}

// UnlockAndClear consumes hash. The entry is removed whatever the outcome of its execution.
func (r *Registry) UnlockAndClear(ctx context.Context, caller common.Address, batchDigest, hash common.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.allowed[caller]; !ok {
		return types.ErrCallerNotFromCurrentSovereign
	}

	if err := r.kv.Delete(namespace, r.statusKey(batchDigest, hash)); err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Debugf("registry %s: cleared %s", r.chainID, hash)

	return nil
}

// CurrentEpoch returns the latest epoch with an installed validator set.
func (r *Registry) CurrentEpoch() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentEpoch()
}

// Validators returns the validator set of epoch.
func (r *Registry) Validators(epoch uint64) ([]common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.validators(epoch)
}

// ChangeValidatorSet consumes a registered validator set change and installs the set of the next
// epoch.
func (r *Registry) ChangeValidatorSet(ctx context.Context, batchDigest common.Hash, op types.ChangeValidatorSetOperation) error {
	current, err := r.CurrentEpoch()
	if err != nil {
		return err
	}
	if op.Epoch != current+1 {
		return fmt.Errorf("%w: got %d, expected %d", types.ErrInvalidEpoch, op.Epoch, current+1)
	}
	if len(op.Validators) == 0 {
		return types.ErrEmptyValidatorSet
	}

	_, err = Consume(ctx, r, r.address, batchDigest, op, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if perr := r.putValidators(op.Epoch, op.Validators); perr != nil {
			return perr
		}

		return r.kv.Put(namespace, r.key(keyCurrentEpoch), epochKey(op.Epoch))
	})
	if err != nil {
		return err
	}

	r.events.Emit(ctx, types.ValidatorSetChangedEvent{
		ChainID:    r.chainID,
		Epoch:      op.Epoch,
		Validators: slices.Clone(op.Validators),
	})
	sdk.LoggerFrom(ctx).Infof("registry %s: validator set of epoch %d installed", r.chainID, op.Epoch)

	return nil
}

func (r *Registry) status(batchDigest, hash common.Hash) types.OperationHashStatus {
	v, err := r.kv.Get(namespace, r.statusKey(batchDigest, hash))
	if err != nil || len(v) != 1 {
		return types.StatusAbsent
	}

	return types.OperationHashStatus(v[0])
}

func (r *Registry) currentEpoch() (uint64, error) {
	v, err := r.kv.Get(namespace, r.key(keyCurrentEpoch))
	if errors.Is(err, storage.ErrNotExist) {
		return 0, types.ErrSetupPhaseNotCompleted
	}
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(v), nil
}

func (r *Registry) validators(epoch uint64) ([]common.Address, error) {
	v, err := r.kv.Get(namespace, r.key(keyPrefixEpoch, epochKey(epoch)))
	if errors.Is(err, storage.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d", types.ErrEpochNotFound, epoch)
	}
	if err != nil {
		return nil, err
	}

	var validators []common.Address
	if err = json.Unmarshal(v, &validators); err != nil {
		return nil, fmt.Errorf("decoding validators of epoch %d: %w", epoch, err)
	}

	return validators, nil
}

func (r *Registry) putValidators(epoch uint64, validators []common.Address) error {
	encoded, err := json.Marshal(validators)
	if err != nil {
		return err
	}

	return r.kv.Put(namespace, r.key(keyPrefixEpoch, epochKey(epoch)), encoded)
}

// key scopes a storage key to the chain so registries may share a store.
func (r *Registry) key(parts ...[]byte) []byte {
	return slices.Concat(append([][]byte{[]byte(r.chainID + "/")}, parts...)...)
}

func (r *Registry) statusKey(batchDigest, hash common.Hash) []byte {
	return r.key(keyPrefixStatus, batchDigest.Bytes(), hash.Bytes())
}

func epochKey(epoch uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, epoch)
}
