// Package sdk defines the host ledger the bridge contracts run on. Contracts only talk to the host
// through these interfaces so the same contract code runs against the in-process host used by tests
// and simulations.
package sdk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/types"
)

// Ledger holds token balances and local token roles.
type Ledger interface {
	// Balance returns the balance account holds of (tokenID, nonce). Never nil.
	Balance(account common.Address, tokenID string, nonce uint64) *big.Int

	// Nonces returns the nonces of tokenID account holds a positive balance of, in ascending order.
	Nonces(account common.Address, tokenID string) []uint64

	// Transfer moves every payment from one account to another. Either all payments move or none.
	Transfer(ctx context.Context, from, to common.Address, payments ...types.OperationPayment) error

	// Mint creates payment.Amount() units on account. The account must hold RoleMint.
	Mint(ctx context.Context, account common.Address, payment types.OperationPayment) error

	// Burn destroys payment.Amount() units held by account. The account must hold RoleBurn.
	Burn(ctx context.Context, account common.Address, payment types.OperationPayment) error

	// Roles returns the local roles account holds for tokenID.
	Roles(account common.Address, tokenID string) types.TokenRole

	// IssueToken issues a new token owned by owner, charging IssueCost in the native token, and
	// grants owner the mint and burn roles. It returns the new token identifier.
	IssueToken(ctx context.Context, owner common.Address, req types.IssueRequest) (string, error)

	// IssueCost is the native token amount charged to issue a token.
	IssueCost() *big.Int
}

// CallRequest is a contract call carrying payments.
type CallRequest struct {
	From     common.Address
	To       common.Address
	Payments []types.OperationPayment
	Function string
	Args     [][]byte
	GasLimit uint64
}

// ContractCaller invokes functions on contracts. A failed call leaves the payments with the caller.
type ContractCaller interface {
	Call(ctx context.Context, req CallRequest) error
}

// EventEmitter records contract events.
type EventEmitter interface {
	Emit(ctx context.Context, event types.Event)
}

// AddressAllocator hands out fresh contract addresses.
type AddressAllocator interface {
	NewContractAddress(ctx context.Context, deployer common.Address) common.Address
}

// Chain is everything a contract needs from its host.
type Chain interface {
	Ledger
	ContractCaller
	EventEmitter
	AddressAllocator
}

// Inspector reads the validator sets a sovereign chain's registry holds.
type Inspector interface {
	CurrentEpoch() (uint64, error)
	Validators(epoch uint64) ([]common.Address, error)
}

// Executor submits batches to a sovereign chain: Register records the batch hashes after
// verifying the aggregated signature, Execute runs one registered command.
type Executor interface {
	Register(
		ctx context.Context,
		signature []byte,
		batchDigest common.Hash,
		bitmap types.ValidatorBitmap,
		epoch uint64,
		hashes []common.Hash,
	) error
	Execute(ctx context.Context, batchDigest common.Hash, cmd types.BridgeCommand) (types.ExecutionOutcome, error)
}
