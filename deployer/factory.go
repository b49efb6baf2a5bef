package deployer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/chainconfig"
	"github.com/smartcontractkit/sovbridge/engine"
	"github.com/smartcontractkit/sovbridge/feemarket"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

// Sovereign is the live contract set of one sovereign chain. Contracts are nil until their phase
// is deployed.
type Sovereign struct {
	ChainID     string
	ChainConfig *chainconfig.ChainConfig
	Engine      *engine.Engine
	FeeMarket   *feemarket.FeeMarket
	Registry    *registry.Registry
}

// Router makes contract endpoints callable through the host.
type Router interface {
	RegisterEndpoint(addr common.Address, function string, endpoint host.Endpoint)
}

// Factory instantiates the contracts of a sovereign chain on the host. The factory address is the
// deployer and owner of every contract it creates.
type Factory struct {
	address common.Address
	chain   sdk.Chain
	store   storage.KVStore
	router  Router
	quorum  registry.QuorumFunc
}

// NewFactory returns a factory deploying from address. Endpoints are registered when chain is also
// a Router.
func NewFactory(address common.Address, chain sdk.Chain, store storage.KVStore, quorum registry.QuorumFunc) *Factory {
	router, _ := chain.(Router)
	if quorum == nil {
		quorum = registry.DefaultQuorum
	}

	return &Factory{
		address: address,
		chain:   chain,
		store:   store,
		router:  router,
		quorum:  quorum,
	}
}

// DeployChainConfig deploys the chain-config contract of s.
func (f *Factory) DeployChainConfig(ctx context.Context, s *Sovereign, cfg types.SovereignConfig) (common.Address, error) {
	addr := f.chain.NewContractAddress(ctx, f.address)

	cc, err := chainconfig.New(s.ChainID, addr, f.address, f.chain, f.chain, f.store, cfg)
	if err != nil {
		return common.Address{}, err
	}
	s.ChainConfig = cc

	return addr, nil
}

// DeployEngine deploys the execution engine of s. The engine starts paused.
func (f *Factory) DeployEngine(ctx context.Context, s *Sovereign, cfg types.EngineConfig) (common.Address, error) {
	addr := f.chain.NewContractAddress(ctx, f.address)

	e, err := engine.New(s.ChainID, addr, f.address, cfg, f.engineDependencies())
	if err != nil {
		return common.Address{}, err
	}
	f.setEngine(s, e)

	return addr, nil
}

func (f *Factory) engineDependencies() engine.Dependencies {
	return engine.Dependencies{
		Ledger: f.chain,
		Caller: f.chain,
		Events: f.chain,
		Store:  f.store,
	}
}

func (f *Factory) setEngine(s *Sovereign, e *engine.Engine) {
	s.Engine = e
	if f.router != nil {
		f.router.RegisterEndpoint(e.Address(), EndpointDeposit, host.Endpoint{GasCost: DepositGasCost, Handler: depositHandler(e, f.chain)})
		f.router.RegisterEndpoint(e.Address(), EndpointExecute, host.Endpoint{GasCost: ExecuteGasCost, Handler: executeHandler(e)})
	}
}

// DeployFeeMarket deploys the fee market of s, charging on behalf of its engine.
func (f *Factory) DeployFeeMarket(ctx context.Context, s *Sovereign, fee types.FeeStruct) (common.Address, error) {
	addr := f.chain.NewContractAddress(ctx, f.address)

	fm, err := feemarket.New(s.ChainID, addr, s.Engine.Address(), f.chain, f.chain, f.store, nil, fee)
	if err != nil {
		return common.Address{}, err
	}
	s.FeeMarket = fm
	s.Engine.SetFeeMarket(fm)

	return addr, nil
}

// DeployRegistry deploys the registry of s and wires it to the other contracts.
func (f *Factory) DeployRegistry(ctx context.Context, s *Sovereign) (common.Address, error) {
	addr := f.chain.NewContractAddress(ctx, f.address)

	if err := f.setRegistry(s, addr); err != nil {
		return common.Address{}, err
	}

	return addr, nil
}

// setRegistry opens the registry at addr, which keeps its state in the store, and wires it to the
// other contracts of s.
func (f *Factory) setRegistry(s *Sovereign, addr common.Address) error {
	reg := registry.New(s.ChainID, addr, f.address, f.store, f.chain, registry.WithQuorum(f.quorum))
	if err := reg.Wire(f.address, s.ChainConfig.Address(), s.Engine.Address(), s.FeeMarket.Address()); err != nil {
		return err
	}
	s.Registry = reg
	s.ChainConfig.SetRegistry(reg)
	s.Engine.SetRegistry(reg)
	s.FeeMarket.SetRegistry(reg)

	if f.router != nil {
		f.router.RegisterEndpoint(addr, EndpointRegister, host.Endpoint{GasCost: RegisterGasCost, Handler: registerHandler(reg)})
	}

	return nil
}

// Load rebuilds the contracts listed in rec from their persisted state.
func (f *Factory) Load(rec types.SovereignDeploymentRecord) (*Sovereign, error) {
	s := &Sovereign{ChainID: rec.ChainID}

	if addr, ok := rec.Contract(types.ContractKindChainConfig); ok {
		cc, err := chainconfig.Load(rec.ChainID, addr, f.address, f.chain, f.chain, f.store)
		if err != nil {
			return nil, err
		}
		s.ChainConfig = cc
	}

	if addr, ok := rec.Contract(types.ContractKindExecutionEngine); ok {
		e, err := engine.Load(rec.ChainID, addr, f.address, f.engineDependencies())
		if err != nil {
			return nil, err
		}
		f.setEngine(s, e)
	}

	if addr, ok := rec.Contract(types.ContractKindFeeMarket); ok {
		if s.Engine == nil {
			return nil, types.NewPreviousPhaseNotCompletedError(types.ContractKindExecutionEngine)
		}
		fm, err := feemarket.Load(rec.ChainID, addr, s.Engine.Address(), f.chain, f.chain, f.store, nil)
		if err != nil {
			return nil, err
		}
		s.FeeMarket = fm
		s.Engine.SetFeeMarket(fm)
	}

	if addr, ok := rec.Contract(types.ContractKindRegistry); ok {
		if s.ChainConfig == nil || s.FeeMarket == nil {
			return nil, types.NewPreviousPhaseNotCompletedError(types.ContractKindFeeMarket)
		}
		if err := f.setRegistry(s, addr); err != nil {
			return nil, err
		}
	}

	return s, nil
}
