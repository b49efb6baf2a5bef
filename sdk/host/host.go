// Package host is an in-process implementation of the sdk host chain. It keeps balances, token
// roles, contract endpoints and the event log in memory.
package host

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartcontractkit/sovbridge/sdk"
	sdkerrors "github.com/smartcontractkit/sovbridge/sdk/errors"
	"github.com/smartcontractkit/sovbridge/types"
)

// DefaultIssueCost is the native amount charged for issuing a token, 0.05 EGLD.
var DefaultIssueCost = big.NewInt(50_000_000_000_000_000)

// Handler runs a contract endpoint. Returning an error reverts the payments of the call.
type Handler func(ctx context.Context, req sdk.CallRequest) error

// Endpoint is a callable contract function.
type Endpoint struct {
	// GasCost is the gas the call consumes. A call with a lower gas limit runs out of gas.
	GasCost uint64
	Handler Handler
}

// Option configures a Chain.
type Option func(*Chain)

// WithIssueCost sets the native amount charged by IssueToken.
func WithIssueCost(cost *big.Int) Option {
	return func(c *Chain) {
		c.issueCost = new(big.Int).Set(cost)
	}
}

// Chain is an in-memory host chain.
type Chain struct {
	mu sync.Mutex

	balances  map[common.Address]map[types.TokenKey]*big.Int
	roles     map[common.Address]map[string]types.TokenRole
	issued    map[string]types.IssueRequest
	contracts map[common.Address]map[string]Endpoint
	nonces    map[common.Address]uint64
	events    []types.Event
	issueCost *big.Int
}

var _ sdk.Chain = (*Chain)(nil)

// New returns an empty chain.
func New(opts ...Option) *Chain {
	c := &Chain{
		balances:  make(map[common.Address]map[types.TokenKey]*big.Int),
		roles:     make(map[common.Address]map[string]types.TokenRole),
		issued:    make(map[string]types.IssueRequest),
		contracts: make(map[common.Address]map[string]Endpoint),
		nonces:    make(map[common.Address]uint64),
		issueCost: new(big.Int).Set(DefaultIssueCost),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fund credits account with the payment amount, bypassing roles.
func (c *Chain) Fund(account common.Address, payment types.OperationPayment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.credit(account, payment.Key(), payment.Amount())
}

// SetRoles grants account the local roles for tokenID, replacing the previous ones.
func (c *Chain) SetRoles(account common.Address, tokenID string, roles types.TokenRole) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roles[account] == nil {
		c.roles[account] = make(map[string]types.TokenRole)
	}
	c.roles[account][tokenID] = roles
}

// Balance implements sdk.Ledger.
func (c *Chain) Balance(account common.Address, tokenID string, nonce uint64) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return new(big.Int).Set(c.balance(account, types.TokenKey{TokenID: tokenID, Nonce: nonce}))
}

// Nonces implements sdk.Ledger.
func (c *Chain) Nonces(account common.Address, tokenID string) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var nonces []uint64
	for key, amount := range c.balances[account] {
		if key.TokenID == tokenID && amount.Sign() > 0 {
			nonces = append(nonces, key.Nonce)
		}
	}
	slices.Sort(nonces)

	return nonces
}

// Transfer implements sdk.Ledger.
func (c *Chain) Transfer(ctx context.Context, from, to common.Address, payments ...types.OperationPayment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transfer(from, to, payments); err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Debugf("transferred %d payments from %s to %s", len(payments), from, to)

	return nil
}

// Mint implements sdk.Ledger.
func (c *Chain) Mint(_ context.Context, account common.Address, payment types.OperationPayment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roles[account][payment.TokenID].Has(types.RoleMint) {
		return sdkerrors.NewMissingRoleError(account, payment.TokenID, "mint")
	}
	c.credit(account, payment.Key(), payment.Amount())

	return nil
}

// Burn implements sdk.Ledger.
func (c *Chain) Burn(_ context.Context, account common.Address, payment types.OperationPayment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roles[account][payment.TokenID].Has(types.RoleBurn) {
		return sdkerrors.NewMissingRoleError(account, payment.TokenID, "burn")
	}

	return c.debit(account, payment.Key(), payment.Amount())
}

// Roles implements sdk.Ledger.
func (c *Chain) Roles(account common.Address, tokenID string) types.TokenRole {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.roles[account][tokenID]
}

// IssueToken implements sdk.Ledger. Identifiers are the ticker followed by a six hex digit
// sequence number.
func (c *Chain) IssueToken(ctx context.Context, owner common.Address, req types.IssueRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Ticker == "" {
		return "", fmt.Errorf("%w: empty ticker", sdkerrors.ErrExecutionFailed)
	}

	native := types.TokenKey{TokenID: types.NativeTokenID}
	if err := c.debit(owner, native, c.issueCost); err != nil {
		return "", err
	}

	tokenID := fmt.Sprintf("%s-%06x", req.Ticker, len(c.issued)+1)
	c.issued[tokenID] = req
	if c.roles[owner] == nil {
		c.roles[owner] = make(map[string]types.TokenRole)
	}
	c.roles[owner][tokenID] = types.RoleMint | types.RoleBurn

	sdk.LoggerFrom(ctx).Infof("issued token %s (%s) for %s", tokenID, req.Name, owner)

	return tokenID, nil
}

// IssueCost implements sdk.Ledger.
func (c *Chain) IssueCost() *big.Int {
	return new(big.Int).Set(c.issueCost)
}

// Issued returns the issue request of tokenID, if it was issued on this chain.
func (c *Chain) Issued(tokenID string) (types.IssueRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.issued[tokenID]

	return req, ok
}

// NewContractAddress implements sdk.AddressAllocator.
func (c *Chain) NewContractAddress(_ context.Context, deployer common.Address) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := c.nonces[deployer]
	c.nonces[deployer] = nonce + 1

	return crypto.CreateAddress(deployer, nonce)
}

func (c *Chain) balance(account common.Address, key types.TokenKey) *big.Int {
	if b, ok := c.balances[account][key]; ok {
		return b
	}

	return new(big.Int)
}

func (c *Chain) credit(account common.Address, key types.TokenKey, amount *big.Int) {
	if c.balances[account] == nil {
		c.balances[account] = make(map[types.TokenKey]*big.Int)
	}
	c.balances[account][key] = new(big.Int).Add(c.balance(account, key), amount)
}

func (c *Chain) debit(account common.Address, key types.TokenKey, amount *big.Int) error {
	current := c.balance(account, key)
	if current.Cmp(amount) < 0 {
		return sdkerrors.NewInsufficientFundsError(account, key.String(), new(big.Int).Set(current), amount)
	}
	if c.balances[account] == nil {
		c.balances[account] = make(map[types.TokenKey]*big.Int)
	}
	c.balances[account][key] = new(big.Int).Sub(current, amount)

	return nil
}

// transfer checks every payment can be covered before moving anything.
func (c *Chain) transfer(from, to common.Address, payments []types.OperationPayment) error {
	required := make(map[types.TokenKey]*big.Int)
	for _, p := range payments {
		if p.Amount().Sign() < 0 {
			return types.ErrInvalidAmount
		}
		sum, ok := required[p.Key()]
		if !ok {
			sum = new(big.Int)
			required[p.Key()] = sum
		}
		sum.Add(sum, p.Amount())
	}

	for key, amount := range required {
		if balance := c.balance(from, key); balance.Cmp(amount) < 0 {
			return sdkerrors.NewInsufficientFundsError(from, key.String(), new(big.Int).Set(balance), amount)
		}
	}

	for _, p := range payments {
		// covered by the check above
		_ = c.debit(from, p.Key(), p.Amount())
		c.credit(to, p.Key(), p.Amount())
	}

	return nil
}
