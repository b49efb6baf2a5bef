// Package engine implements the execution engine of a sovereign chain: the custody contract that
// takes deposits out to the sovereign chain and executes registered operations coming back from it.
package engine

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartcontractkit/sovbridge/feemarket"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

const namespace = "engine"

var (
	_depositMtc = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sovbridge_engine_deposits_total",
		Help: "Deposits accepted by the execution engine.",
	}, []string{"chain"})
	_executionMtc = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sovbridge_engine_executions_total",
		Help: "Operations executed by the execution engine, by outcome.",
	}, []string{"chain", "outcome"})
)

func init() {
	prometheus.MustRegister(_depositMtc)
	prometheus.MustRegister(_executionMtc)
}

// FeeMarket is the fee market the engine charges deposits through.
type FeeMarket interface {
	Fee() types.FeeStruct
	SubtractFee(ctx context.Context, caller common.Address, args feemarket.SubtractFeeArgs) (feemarket.FeeResult, error)
}

var _ FeeMarket = (*feemarket.FeeMarket)(nil)

// Dependencies are the host services the engine runs on.
type Dependencies struct {
	Ledger sdk.Ledger
	Caller sdk.ContractCaller
	Events sdk.EventEmitter
	Store  storage.KVStore
}

// Engine is the execution engine of one sovereign chain.
type Engine struct {
	mu sync.Mutex

	chainID string
	address common.Address
	owner   common.Address
	ledger  sdk.Ledger
	caller  sdk.ContractCaller
	events  sdk.EventEmitter
	kv      storage.KVStore

	registry  registry.Gate
	feeMarket FeeMarket

	config types.EngineConfig
	paused bool

	// tokens switched to the burn mechanism
	burnTokens map[string]struct{}
	// sovereign token id <-> main chain image
	sovToMain map[string]string
	mainToSov map[string]string
	// amounts burned on deposit by burn mechanism tokens, by token key
	deposited map[types.TokenKey]*big.Int
}

// state is the persisted form of the engine.
type state struct {
	Config     types.EngineConfig `json:"config"`
	Paused     bool               `json:"paused"`
	BurnTokens []string           `json:"burnTokens,omitempty"`
	SovToMain  map[string]string  `json:"sovToMain,omitempty"`
	Deposited  []depositedAmount  `json:"deposited,omitempty"`
}

type depositedAmount struct {
	TokenID string   `json:"tokenId"`
	Nonce   uint64   `json:"nonce"`
	Amount  *big.Int `json:"amount"`
}

// New returns an engine at address. The engine starts paused and is unpaused by its owner once the
// setup of the chain completes.
func New(chainID string, address, owner common.Address, cfg types.EngineConfig, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := newEngine(chainID, address, owner, deps)
	e.config = cfg
	e.paused = true
	if err := e.save(); err != nil {
		return nil, err
	}

	return e, nil
}

// Load returns the engine of chainID from its persisted state. It fails with storage.ErrNotExist
// when the engine was never deployed on deps.Store.
func Load(chainID string, address, owner common.Address, deps Dependencies) (*Engine, error) {
	e := newEngine(chainID, address, owner, deps)

	var st state
	if err := storage.GetState(e.kv, namespace, e.stateKey(), &st); err != nil {
		return nil, fmt.Errorf("loading engine of %s: %w", chainID, err)
	}

	e.config = st.Config
	e.paused = st.Paused
	for _, tokenID := range st.BurnTokens {
		e.burnTokens[tokenID] = struct{}{}
	}
	for sovID, mainID := range st.SovToMain {
		e.sovToMain[sovID] = mainID
		e.mainToSov[mainID] = sovID
	}
	for _, d := range st.Deposited {
		e.deposited[types.TokenKey{TokenID: d.TokenID, Nonce: d.Nonce}] = d.Amount
	}

	return e, nil
}

func newEngine(chainID string, address, owner common.Address, deps Dependencies) *Engine {
	return &Engine{
		chainID:    chainID,
		address:    address,
		owner:      owner,
		ledger:     deps.Ledger,
		caller:     deps.Caller,
		events:     deps.Events,
		kv:         deps.Store,
		burnTokens: make(map[string]struct{}),
		sovToMain:  make(map[string]string),
		mainToSov:  make(map[string]string),
		deposited:  make(map[types.TokenKey]*big.Int),
	}
}

// save persists the engine state. It must be called with the lock held.
func (e *Engine) save() error {
	st := state{
		Config:    e.config,
		Paused:    e.paused,
		SovToMain: e.sovToMain,
	}
	for tokenID := range e.burnTokens {
		st.BurnTokens = append(st.BurnTokens, tokenID)
	}
	slices.Sort(st.BurnTokens)
	for key, amount := range e.deposited {
		if amount.Sign() == 0 {
			continue
		}
		st.Deposited = append(st.Deposited, depositedAmount{TokenID: key.TokenID, Nonce: key.Nonce, Amount: amount})
	}
	slices.SortFunc(st.Deposited, func(a, b depositedAmount) int {
		if c := strings.Compare(a.TokenID, b.TokenID); c != 0 {
			return c
		}

		return cmp.Compare(a.Nonce, b.Nonce)
	})

	return storage.PutState(e.kv, namespace, e.stateKey(), st)
}

func (e *Engine) stateKey() []byte {
	return []byte(e.chainID + "/state")
}

// Address returns the engine's contract address.
func (e *Engine) Address() common.Address { return e.address }

// ChainID returns the sovereign chain the engine bridges to.
func (e *Engine) ChainID() string { return e.chainID }

// SetRegistry binds the registry once it is deployed.
func (e *Engine) SetRegistry(gate registry.Gate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry = gate
}

// SetFeeMarket binds the fee market once it is deployed.
func (e *Engine) SetFeeMarket(fm FeeMarket) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.feeMarket = fm
}

// Pause stops deposits.
func (e *Engine) Pause(caller common.Address) error {
	return e.setPaused(caller, true)
}

// Unpause resumes deposits.
func (e *Engine) Unpause(caller common.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller common.Address, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return types.ErrCallerNotOwner
	}
	if e.paused == paused {
		return nil
	}
	e.paused = paused

	return e.save()
}

// IsPaused reports whether deposits are stopped.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paused
}

// Config returns the current engine config.
func (e *Engine) Config() types.EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.config
}

// Mechanism returns the custody mechanism applied to tokenID on deposit.
func (e *Engine) Mechanism(tokenID string) types.TokenMechanism {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.burnsOnDeposit(tokenID) {
		return types.MechanismBurn
	}

	return types.MechanismLock
}

// DepositedAmount returns the amount of a burn mechanism token burned on deposit and not yet
// minted back.
func (e *Engine) DepositedAmount(tokenID string, nonce uint64) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return new(big.Int).Set(e.depositedAmount(types.TokenKey{TokenID: tokenID, Nonce: nonce}))
}

// MainChainToken returns the main chain image registered for a sovereign token.
func (e *Engine) MainChainToken(sovereignTokenID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.sovToMain[sovereignTokenID]

	return id, ok
}

// burnsOnDeposit must be called with the lock held.
func (e *Engine) burnsOnDeposit(tokenID string) bool {
	if types.HasChainPrefix(tokenID, e.chainID) {
		return true
	}
	if _, ok := e.mainToSov[tokenID]; ok {
		return true
	}
	_, ok := e.burnTokens[tokenID]

	return ok
}

func (e *Engine) depositedAmount(key types.TokenKey) *big.Int {
	if v, ok := e.deposited[key]; ok {
		return v
	}

	return new(big.Int)
}

func (e *Engine) addDeposited(key types.TokenKey, delta *big.Int) {
	amount := new(big.Int).Add(e.depositedAmount(key), delta)
	if amount.Sign() == 0 {
		delete(e.deposited, key)
		return
	}
	e.deposited[key] = amount
}

// depositedKeys returns the keys of tokenID with a deposited amount, ordered by nonce.
func (e *Engine) depositedKeys(tokenID string) []types.TokenKey {
	var keys []types.TokenKey
	for key := range e.deposited {
		if key.TokenID == tokenID {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b types.TokenKey) int { return cmp.Compare(a.Nonce, b.Nonce) })

	return keys
}

// nextNonce returns a fresh operation nonce. Nonces are persisted so they stay monotonic across
// restarts of a persistent store.
func (e *Engine) nextNonce() (uint64, error) {
	key := []byte(e.chainID + "/nonce")

	var nonce uint64
	v, err := e.kv.Get(namespace, key)
	switch {
	case err == nil:
		nonce = binary.BigEndian.Uint64(v)
	case !errors.Is(err, storage.ErrNotExist):
		return 0, err
	}

	nonce++
	if err = e.kv.Put(namespace, key, binary.BigEndian.AppendUint64(nil, nonce)); err != nil {
		return 0, err
	}

	return nonce, nil
}

func (e *Engine) isBlacklisted(addr common.Address) bool {
	return slices.Contains(e.config.AddressBlacklist, addr)
}

// bridgeable reports whether a token is bridged rather than refunded on deposit.
func (e *Engine) bridgeable(tokenID string) bool {
	if slices.Contains(e.config.TokenBlacklist, tokenID) {
		return false
	}

	return len(e.config.TokenWhitelist) == 0 || slices.Contains(e.config.TokenWhitelist, tokenID)
}
