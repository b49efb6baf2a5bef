// Package chainconfig implements the chain-config contract of a sovereign chain: it holds the
// sovereign config and collects the genesis validator set during the setup phase.
package chainconfig

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/internal/utils/safecast"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const namespace = "chainconfig"

// ChainConfig is the chain-config contract.
type ChainConfig struct {
	mu sync.Mutex

	chainID  string
	address  common.Address
	owner    common.Address
	ledger   sdk.Ledger
	events   sdk.EventEmitter
	kv       storage.KVStore
	registry registry.Gate

	config        types.SovereignConfig
	validators    []common.Address
	setupComplete bool
}

// state is the persisted form of the chain-config contract.
type state struct {
	Config        types.SovereignConfig `json:"config"`
	Validators    []common.Address      `json:"validators,omitempty"`
	SetupComplete bool                  `json:"setupComplete"`
}

// New returns a chain-config contract owned by the deployer.
func New(
	chainID string,
	address, owner common.Address,
	ledger sdk.Ledger,
	events sdk.EventEmitter,
	kv storage.KVStore,
	cfg types.SovereignConfig,
) (*ChainConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &ChainConfig{
		chainID: chainID,
		address: address,
		owner:   owner,
		ledger:  ledger,
		events:  events,
		kv:      kv,
		config:  cfg,
	}
	if err := c.save(); err != nil {
		return nil, err
	}

	return c, nil
}

// Load returns the chain-config contract of chainID from its persisted state.
func Load(
	chainID string,
	address, owner common.Address,
	ledger sdk.Ledger,
	events sdk.EventEmitter,
	kv storage.KVStore,
) (*ChainConfig, error) {
	c := &ChainConfig{
		chainID: chainID,
		address: address,
		owner:   owner,
		ledger:  ledger,
		events:  events,
		kv:      kv,
	}

	var st state
	if err := storage.GetState(kv, namespace, c.stateKey(), &st); err != nil {
		return nil, fmt.Errorf("loading chain config of %s: %w", chainID, err)
	}
	c.config = st.Config
	c.validators = st.Validators
	c.setupComplete = st.SetupComplete

	return c, nil
}

// save must be called with the lock held.
func (c *ChainConfig) save() error {
	return storage.PutState(c.kv, namespace, c.stateKey(), state{
		Config:        c.config,
		Validators:    c.validators,
		SetupComplete: c.setupComplete,
	})
}

func (c *ChainConfig) stateKey() []byte {
	return []byte(c.chainID + "/state")
}

// Address returns the contract address.
func (c *ChainConfig) Address() common.Address { return c.address }

// SetRegistry binds the registry once it is deployed.
func (c *ChainConfig) SetRegistry(gate registry.Gate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registry = gate
}

// Config returns the sovereign config.
func (c *ChainConfig) Config() types.SovereignConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.config
}

// Validators returns the registered validators in registration order, which is their bitmap
// position.
func (c *ChainConfig) Validators() []common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.validators)
}

// RegisterValidator adds caller to the genesis validator set. When a minimum stake is configured
// the stake payment, in the native token, is held by the contract.
func (c *ChainConfig) RegisterValidator(ctx context.Context, caller common.Address, stake *types.OperationPayment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setupComplete {
		return types.ErrSetupAlreadyCompleted
	}
	if slices.Contains(c.validators, caller) {
		return types.ErrValidatorAlreadyRegistered
	}
	count, err := safecast.IntToUint64(len(c.validators))
	if err != nil {
		return err
	}
	if count >= c.config.MaxValidators {
		return types.ErrTooManyValidators
	}

	if minStake := c.config.Stake(); minStake.Sign() > 0 {
		if stake == nil || !stake.IsNative() || stake.Amount().Cmp(minStake) < 0 {
			return fmt.Errorf("%w: minimum is %s %s", types.ErrInsufficientStake, minStake, types.NativeTokenID)
		}
		if err = c.ledger.Transfer(ctx, caller, c.address, *stake); err != nil {
			return err
		}
	}

	c.validators = append(c.validators, caller)
	if err = c.save(); err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Infof("chain config %s: validator %s registered", c.chainID, caller)

	return nil
}

// IsSetupComplete reports whether validator registration is closed.
func (c *ChainConfig) IsSetupComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setupComplete
}

// GenesisValidators returns the validator set setup would close with, failing when the caller may
// not complete the setup or too few validators registered. It changes nothing.
func (c *ChainConfig) GenesisValidators(caller common.Address) ([]common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCompleteSetup(caller); err != nil {
		return nil, err
	}

	return slices.Clone(c.validators), nil
}

// CompleteSetup closes validator registration and returns the genesis validator set.
func (c *ChainConfig) CompleteSetup(ctx context.Context, caller common.Address) ([]common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setupComplete {
		return nil, types.ErrSetupAlreadyCompleted
	}
	if err := c.checkCompleteSetup(caller); err != nil {
		return nil, err
	}

	c.setupComplete = true
	if err := c.save(); err != nil {
		c.setupComplete = false
		return nil, err
	}
	sdk.LoggerFrom(ctx).Infof("chain config %s: setup complete with %d validators", c.chainID, len(c.validators))

	return slices.Clone(c.validators), nil
}

func (c *ChainConfig) checkCompleteSetup(caller common.Address) error {
	if caller != c.owner {
		return types.ErrCallerNotOwner
	}
	count, err := safecast.IntToUint64(len(c.validators))
	if err != nil {
		return err
	}
	if count < c.config.MinValidators {
		return fmt.Errorf("%w: %d of %d", types.ErrNotEnoughValidators, len(c.validators), c.config.MinValidators)
	}

	return nil
}

// UpdateSovereignConfig replaces the sovereign config through a registered command.
func (c *ChainConfig) UpdateSovereignConfig(ctx context.Context, batchDigest common.Hash, op types.UpdateSovereignConfigOperation) error {
	if err := op.Config.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry == nil {
		return types.ErrSetupPhaseNotCompleted
	}

	hash, err := registry.Consume(ctx, c.registry, c.address, batchDigest, op, func() error {
		c.config = op.Config
		return c.save()
	})
	if err != nil {
		return err
	}

	c.events.Emit(ctx, types.AdminCommandEvent{ChainID: c.chainID, BatchDigest: batchDigest, Hash: hash, Kind: op.Kind()})

	return nil
}
