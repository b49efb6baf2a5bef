// Package deployer stands up the contract set of sovereign chains: the Forge runs the four
// deployment phases per creator and the Factory instantiates the contracts on the host.
package deployer

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const namespace = "forge"

var (
	ErrSovereignNotFound  = errors.New("no sovereign chain deployed with this chain id")
	ErrSovereignNotLoaded = errors.New("sovereign contract set could not be loaded")
	ErrInvalidForgeConfig = errors.New("invalid forge config")
)

// DefaultMinDepositCost is the native deposit required to deploy a sovereign chain, 1 EGLD.
var DefaultMinDepositCost = big.NewInt(1_000_000_000_000_000_000)

var validate = validator.New()

// Config configures a Forge.
type Config struct {
	// MinDepositCost is the minimum native payment of phase one.
	MinDepositCost *big.Int `json:"minDepositCost" yaml:"minDepositCost"`
	// ChainIDAttempts bounds the random draws of a free chain id.
	ChainIDAttempts int `json:"chainIdAttempts" yaml:"chainIdAttempts" validate:"gte=1"`
}

// DefaultConfig returns the forge config used by the CLI.
func DefaultConfig() Config {
	return Config{
		MinDepositCost:  new(big.Int).Set(DefaultMinDepositCost),
		ChainIDAttempts: 16, //nolint:mnd
	}
}

// Validate checks the forge config.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidForgeConfig, err)
	}
	if c.MinDepositCost == nil || c.MinDepositCost.Sign() < 0 {
		return fmt.Errorf("%w: min deposit cost must be set and not negative", ErrInvalidForgeConfig)
	}

	return nil
}

// Option configures a Forge.
type Option func(*Forge)

// WithRandom sets the source chain ids are drawn from.
func WithRandom(r io.Reader) Option {
	return func(f *Forge) {
		f.rand = r
	}
}

// WithQuorum sets the quorum of the registries the forge deploys.
func WithQuorum(q registry.QuorumFunc) Option {
	return func(f *Forge) {
		f.quorum = q
	}
}

// Forge runs the deployment phases of sovereign chains. Each creator deploys one sovereign chain,
// one phase at a time.
type Forge struct {
	mu sync.Mutex

	address common.Address
	ledger  sdk.Ledger
	events  sdk.EventEmitter
	kv      storage.KVStore
	factory *Factory
	config  Config
	rand    io.Reader
	quorum  registry.QuorumFunc

	sovereigns map[string]*Sovereign
}

// New returns a forge at address deploying onto chain. Deployment records are kept in kv.
func New(address common.Address, chain sdk.Chain, kv storage.KVStore, cfg Config, opts ...Option) (*Forge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Forge{
		address:    address,
		ledger:     chain,
		events:     chain,
		kv:         kv,
		config:     cfg,
		rand:       rand.Reader,
		sovereigns: make(map[string]*Sovereign),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.factory = NewFactory(address, chain, kv, f.quorum)

	return f, nil
}

// Address returns the forge address, owner of every contract it deploys.
func (f *Forge) Address() common.Address { return f.address }

// DeployPhaseOne reserves a chain id for caller and deploys its chain-config contract. An empty
// preferredChainID draws a random free id. A nil cfg deploys the default sovereign config.
func (f *Forge) DeployPhaseOne(
	ctx context.Context,
	caller common.Address,
	deposit types.OperationPayment,
	preferredChainID string,
	cfg *types.SovereignConfig,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chainID, err := f.chooseChainID(preferredChainID)
	if err != nil {
		return "", err
	}

	rec, err := f.record(caller)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return "", types.NewPhaseAlreadyDeployedError(types.ContractKindChainConfig)
	}

	if !deposit.IsNative() || deposit.Amount().Cmp(f.config.MinDepositCost) < 0 {
		return "", fmt.Errorf("%w: %s %s required", types.ErrDeployCostTooLow, f.config.MinDepositCost, types.NativeTokenID)
	}

	sovCfg := types.DefaultSovereignConfig()
	if cfg != nil {
		sovCfg = *cfg
	}
	if err = sovCfg.Validate(); err != nil {
		return "", err
	}

	if err = f.ledger.Transfer(ctx, caller, f.address, deposit); err != nil {
		return "", err
	}

	s := &Sovereign{ChainID: chainID}
	addr, err := f.factory.DeployChainConfig(ctx, s, sovCfg)
	if err != nil {
		return "", err
	}

	rec = &types.SovereignDeploymentRecord{ChainID: chainID, Creator: caller}
	if err = f.kv.Put(namespace, chainKey(chainID), caller.Bytes()); err != nil {
		return "", err
	}
	if err = f.addContract(ctx, rec, types.ContractKindChainConfig, addr); err != nil {
		return "", err
	}
	f.sovereigns[chainID] = s

	return chainID, nil
}

// DeployPhaseTwo deploys the execution engine of the caller's sovereign chain. A nil cfg deploys
// the default engine config capped at the sovereign max gas limit.
func (f *Forge) DeployPhaseTwo(ctx context.Context, caller common.Address, cfg *types.EngineConfig) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, s, err := f.nextPhase(caller, types.ContractKindExecutionEngine)
	if err != nil {
		return common.Address{}, err
	}

	engineCfg := types.DefaultEngineConfig()
	engineCfg.MaxTxGasLimit = s.ChainConfig.Config().MaxGasLimit
	if cfg != nil {
		engineCfg = *cfg
	}

	addr, err := f.factory.DeployEngine(ctx, s, engineCfg)
	if err != nil {
		return common.Address{}, err
	}

	return addr, f.addContract(ctx, rec, types.ContractKindExecutionEngine, addr)
}

// DeployPhaseThree deploys the fee market of the caller's sovereign chain. A nil fee charges
// nothing.
func (f *Forge) DeployPhaseThree(ctx context.Context, caller common.Address, fee *types.FeeStruct) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, s, err := f.nextPhase(caller, types.ContractKindFeeMarket)
	if err != nil {
		return common.Address{}, err
	}

	feeStruct := types.NoFee()
	if fee != nil {
		feeStruct = *fee
	}

	addr, err := f.factory.DeployFeeMarket(ctx, s, feeStruct)
	if err != nil {
		return common.Address{}, err
	}

	return addr, f.addContract(ctx, rec, types.ContractKindFeeMarket, addr)
}

// DeployPhaseFour deploys the registry of the caller's sovereign chain and wires it to the other
// contracts.
func (f *Forge) DeployPhaseFour(ctx context.Context, caller common.Address) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, s, err := f.nextPhase(caller, types.ContractKindRegistry)
	if err != nil {
		return common.Address{}, err
	}

	addr, err := f.factory.DeployRegistry(ctx, s)
	if err != nil {
		return common.Address{}, err
	}

	return addr, f.addContract(ctx, rec, types.ContractKindRegistry, addr)
}

// CompleteSetupPhase closes validator registration, installs the genesis validator set in the
// registry and unpauses the engine.
func (f *Forge) CompleteSetupPhase(ctx context.Context, caller common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.record(caller)
	if err != nil {
		return err
	}
	if rec == nil {
		return types.ErrCallerDidNotDeployAnySovereignChain
	}
	if rec.SetupComplete {
		return types.ErrSetupAlreadyCompleted
	}
	if !rec.HasAllContracts() {
		return types.ErrSetupPhaseNotCompleted
	}

	s, err := f.sovereign(rec)
	if err != nil {
		return err
	}

	// Steps already applied by an interrupted attempt are skipped.
	validators, err := s.ChainConfig.GenesisValidators(f.address)
	if err != nil {
		return err
	}
	if !s.Registry.IsSetupComplete() {
		if err = s.Registry.CompleteSetup(ctx, f.address, validators); err != nil {
			return err
		}
	}
	if !s.ChainConfig.IsSetupComplete() {
		if _, err = s.ChainConfig.CompleteSetup(ctx, f.address); err != nil {
			return err
		}
	}
	if err = s.Engine.Unpause(f.address); err != nil {
		return err
	}

	rec.SetupComplete = true
	if err = f.putRecord(rec); err != nil {
		return err
	}

	f.events.Emit(ctx, types.SetupCompletedEvent{ChainID: rec.ChainID, Validators: validators})
	sdk.LoggerFrom(ctx).Infof("forge: setup of %s completed with %d validators", rec.ChainID, len(validators))

	return nil
}

// Record returns the deployment record of caller.
func (f *Forge) Record(caller common.Address) (types.SovereignDeploymentRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.record(caller)
	if err != nil || rec == nil {
		return types.SovereignDeploymentRecord{}, false, err
	}

	return *rec, true, nil
}

// Sovereign returns the live contract set of chainID, loading it from the store when the forge
// has not deployed it since it started.
func (f *Forge) Sovereign(chainID string) (*Sovereign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sovereigns[chainID]; ok {
		return s, nil
	}

	raw, err := f.kv.Get(namespace, chainKey(chainID))
	if errors.Is(err, storage.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSovereignNotFound, chainID)
	}
	if err != nil {
		return nil, err
	}

	rec, err := f.record(common.BytesToAddress(raw))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s has no deployment record", ErrSovereignNotFound, chainID)
	}

	return f.sovereign(rec)
}

// sovereign returns the contract set of rec from the cache or the store.
func (f *Forge) sovereign(rec *types.SovereignDeploymentRecord) (*Sovereign, error) {
	if s, ok := f.sovereigns[rec.ChainID]; ok {
		return s, nil
	}

	s, err := f.factory.Load(*rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSovereignNotLoaded, rec.ChainID, err)
	}
	f.sovereigns[rec.ChainID] = s

	return s, nil
}

// nextPhase returns the caller's record and contract set once kind may be deployed.
func (f *Forge) nextPhase(caller common.Address, kind types.ContractKind) (*types.SovereignDeploymentRecord, *Sovereign, error) {
	rec, err := f.record(caller)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, types.ErrCallerDidNotDeployAnySovereignChain
	}
	if _, ok := rec.Contract(kind); ok {
		return nil, nil, types.NewPhaseAlreadyDeployedError(kind)
	}

	for i, k := range types.DeploymentPhases {
		if k != kind {
			continue
		}
		if i > 0 {
			prev := types.DeploymentPhases[i-1]
			if _, ok := rec.Contract(prev); !ok {
				return nil, nil, types.NewPreviousPhaseNotCompletedError(prev)
			}
		}
	}

	s, err := f.sovereign(rec)
	if err != nil {
		return nil, nil, err
	}

	return rec, s, nil
}

func (f *Forge) addContract(ctx context.Context, rec *types.SovereignDeploymentRecord, kind types.ContractKind, addr common.Address) error {
	rec.Contracts = append(rec.Contracts, types.DeployedContract{Kind: kind, Address: addr})
	if err := f.putRecord(rec); err != nil {
		return err
	}

	f.events.Emit(ctx, types.ContractDeployedEvent{ChainID: rec.ChainID, Kind: kind, Address: addr})
	sdk.LoggerFrom(ctx).Infof("forge: deployed %s of %s at %s", kind, rec.ChainID, addr)

	return nil
}

// chooseChainID validates the preferred id or draws a free one.
func (f *Forge) chooseChainID(preferred string) (string, error) {
	if preferred != "" {
		if err := types.ValidateChainID(preferred); err != nil {
			return "", err
		}
		inUse, err := f.chainIDInUse(preferred)
		if err != nil {
			return "", err
		}
		if inUse {
			return "", fmt.Errorf("%w: %s", types.ErrChainIDAlreadyInUse, preferred)
		}

		return preferred, nil
	}

	for range f.config.ChainIDAttempts {
		id, err := f.randomChainID()
		if err != nil {
			return "", err
		}
		inUse, err := f.chainIDInUse(id)
		if err != nil {
			return "", err
		}
		if !inUse {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: no free id after %d attempts", types.ErrChainIDAlreadyInUse, f.config.ChainIDAttempts)
}

// randomChainID draws every character uniformly from the charset. Bytes at or above the largest
// multiple of the charset size are rejected.
func (f *Forge) randomChainID() (string, error) {
	limit := 256 - 256%len(types.ChainIDCharset)

	id := make([]byte, 0, types.ChainIDLength)
	buf := make([]byte, types.ChainIDLength)
	for len(id) < types.ChainIDLength {
		if _, err := io.ReadFull(f.rand, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit || len(id) == types.ChainIDLength {
				continue
			}
			id = append(id, types.ChainIDCharset[int(b)%len(types.ChainIDCharset)])
		}
	}

	return string(id), nil
}

func (f *Forge) chainIDInUse(chainID string) (bool, error) {
	_, err := f.kv.Get(namespace, chainKey(chainID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (f *Forge) record(caller common.Address) (*types.SovereignDeploymentRecord, error) {
	raw, err := f.kv.Get(namespace, creatorKey(caller))
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, err
	}

	var rec types.SovereignDeploymentRecord
	if err = json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (f *Forge) putRecord(rec *types.SovereignDeploymentRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return f.kv.Put(namespace, creatorKey(rec.Creator), raw)
}

func chainKey(chainID string) []byte {
	return []byte("chain/" + chainID)
}

func creatorKey(creator common.Address) []byte {
	return append([]byte("creator/"), creator.Bytes()...)
}
