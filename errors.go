package sovbridge

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNoCommandsInBatch    = errors.New("no commands in batch")
	ErrInspectorNotProvided = errors.New("inspector not provided")
)

// QuorumNotReachedError is returned when the batch signatures do not come from enough
// validators of the batch epoch.
type QuorumNotReachedError struct {
	ChainID  string
	Epoch    uint64
	Signers  int
	Required int
}

// NewQuorumNotReachedError creates a new QuorumNotReachedError.
func NewQuorumNotReachedError(chainID string, epoch uint64, signers, required int) *QuorumNotReachedError {
	return &QuorumNotReachedError{ChainID: chainID, Epoch: epoch, Signers: signers, Required: required}
}

func (e *QuorumNotReachedError) Error() string {
	return fmt.Sprintf("quorum not reached for chain %s epoch %d: %d of %d signers", e.ChainID, e.Epoch, e.Signers, e.Required)
}

type InvalidSignatureError struct {
	RecoveredAddress common.Address
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature: received signature for address %s is not a validator of the batch epoch", e.RecoveredAddress)
}

func NewInvalidSignatureError(recoveredAddress common.Address) *InvalidSignatureError {
	return &InvalidSignatureError{RecoveredAddress: recoveredAddress}
}

// DuplicateSignersError is returned when batch signatures contain the same signer more than once.
type DuplicateSignersError struct {
	signer string
}

func (e *DuplicateSignersError) Error() string {
	return fmt.Sprintf("duplicate signer detected: %s", e.signer)
}

// DuplicateCommandError is returned when two commands of a batch hash to the same value.
type DuplicateCommandError struct {
	Index int
	Hash  common.Hash
}

// NewDuplicateCommandError creates a new DuplicateCommandError.
func NewDuplicateCommandError(index int, hash common.Hash) *DuplicateCommandError {
	return &DuplicateCommandError{Index: index, Hash: hash}
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %d duplicates hash %s", e.Index, e.Hash)
}

// InvalidCommandError wraps the validation failure of one command of a batch.
type InvalidCommandError struct {
	Index int
	Err   error
}

// NewInvalidCommandError creates a new InvalidCommandError.
func NewInvalidCommandError(index int, err error) *InvalidCommandError {
	return &InvalidCommandError{Index: index, Err: err}
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %d: %v", e.Index, e.Err)
}

func (e *InvalidCommandError) Unwrap() error { return e.Err }

// CommandIndexOutOfRangeError is returned when a command index is outside the batch.
type CommandIndexOutOfRangeError struct {
	Index int
	Len   int
}

// NewCommandIndexOutOfRangeError creates a new CommandIndexOutOfRangeError.
func NewCommandIndexOutOfRangeError(index, length int) *CommandIndexOutOfRangeError {
	return &CommandIndexOutOfRangeError{Index: index, Len: length}
}

func (e *CommandIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: %d >= %d", e.Index, e.Len)
}
