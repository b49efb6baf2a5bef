package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a log entry emitted by a contract and relayed off-chain.
type Event interface {
	EventID() string
}

const (
	EventIDDeposit            = "deposit"
	EventIDExecutedBridgeOp   = "executedBridgeOp"
	EventIDRegisterBatch      = "registerBridgeOps"
	EventIDAdminCommand       = "executedAdminCommand"
	EventIDTokenRegistered    = "registerToken"
	EventIDFeesDistributed    = "distributeFees"
	EventIDContractDeployed   = "contractDeployed"
	EventIDSetupCompleted     = "setupPhaseCompleted"
	EventIDValidatorSetChange = "changeValidatorSet"
)

// ExecutionOutcome is the terminal state of an executed operation.
type ExecutionOutcome string

const (
	// OutcomeCompleted means every step succeeded.
	OutcomeCompleted ExecutionOutcome = "completed"
	// OutcomeCompletedWithCallFailure means the tokens were delivered but the contract call failed.
	OutcomeCompletedWithCallFailure ExecutionOutcome = "completedWithCallFailure"
)

// DepositEvent carries an outbound operation to the relayers.
type DepositEvent struct {
	ChainID   string      `json:"chainId"`
	OpHash    common.Hash `json:"opHash"`
	Operation Operation   `json:"operation"`
}

func (DepositEvent) EventID() string { return EventIDDeposit }

// PaymentFailure reports a payment that could not be delivered during execution.
type PaymentFailure struct {
	Index   int    `json:"index"`
	TokenID string `json:"tokenId"`
	Reason  string `json:"reason"`
}

// ExecutedBridgeOpEvent reports the outcome of an inbound operation.
type ExecutedBridgeOpEvent struct {
	ChainID        string           `json:"chainId"`
	BatchDigest    common.Hash      `json:"batchDigest"`
	OpHash         common.Hash      `json:"opHash"`
	Outcome        ExecutionOutcome `json:"outcome"`
	FailedPayments []PaymentFailure `json:"failedPayments,omitempty"`
	CallError      string           `json:"callError,omitempty"`
}

func (ExecutedBridgeOpEvent) EventID() string { return EventIDExecutedBridgeOp }

// RegisterBatchEvent reports a batch that passed quorum verification.
type RegisterBatchEvent struct {
	ChainID     string        `json:"chainId"`
	BatchDigest common.Hash   `json:"batchDigest"`
	Epoch       uint64        `json:"epoch"`
	Hashes      []common.Hash `json:"hashes"`
}

func (RegisterBatchEvent) EventID() string { return EventIDRegisterBatch }

// AdminCommandEvent reports an executed administrative command.
type AdminCommandEvent struct {
	ChainID     string      `json:"chainId"`
	BatchDigest common.Hash `json:"batchDigest"`
	Hash        common.Hash `json:"hash"`
	Kind        CommandKind `json:"kind"`
}

func (AdminCommandEvent) EventID() string { return EventIDAdminCommand }

// TokenRegisteredEvent reports a new sovereign to main chain token mapping.
type TokenRegisteredEvent struct {
	ChainID          string `json:"chainId"`
	SovereignTokenID string `json:"sovereignTokenId"`
	TokenID          string `json:"tokenId"`
}

func (TokenRegisteredEvent) EventID() string { return EventIDTokenRegistered }

// FeeTransfer is one transfer of a fee distribution.
type FeeTransfer struct {
	To      common.Address `json:"to"`
	TokenID string         `json:"tokenId"`
	Amount  *big.Int       `json:"amount"`
}

// FeesDistributedEvent reports a fee distribution.
type FeesDistributedEvent struct {
	ChainID   string        `json:"chainId"`
	Transfers []FeeTransfer `json:"transfers"`
}

func (FeesDistributedEvent) EventID() string { return EventIDFeesDistributed }

// ContractDeployedEvent reports a deployment phase.
type ContractDeployedEvent struct {
	ChainID string         `json:"chainId"`
	Kind    ContractKind   `json:"kind"`
	Address common.Address `json:"address"`
}

func (ContractDeployedEvent) EventID() string { return EventIDContractDeployed }

// SetupCompletedEvent reports a sovereign chain whose setup phase is complete.
type SetupCompletedEvent struct {
	ChainID    string           `json:"chainId"`
	Validators []common.Address `json:"validators"`
}

func (SetupCompletedEvent) EventID() string { return EventIDSetupCompleted }

// ValidatorSetChangedEvent reports a new epoch's validator set.
type ValidatorSetChangedEvent struct {
	ChainID    string           `json:"chainId"`
	Epoch      uint64           `json:"epoch"`
	Validators []common.Address `json:"validators"`
}

func (ValidatorSetChangedEvent) EventID() string { return EventIDValidatorSetChange }
