package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Validation errors. Reported synchronously, no state is mutated.
var (
	ErrTooManyTokens        = errors.New("too many tokens")
	ErrNothingToTransfer    = errors.New("nothing to transfer")
	ErrBannedEndpoint       = errors.New("banned endpoint name")
	ErrGasLimitTooHigh      = errors.New("gas limit too high")
	ErrDepositOverMaxAmount = errors.New("deposit over max amount")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidChainID       = errors.New("chain id not valid")
	ErrDeployCostTooLow     = errors.New("deploy cost too low")
	ErrInvalidFee           = errors.New("invalid fee")
	ErrInvalidFeeToken      = errors.New("invalid token provided for fee")
	ErrPaymentDoesNotCover  = errors.New("payment does not cover fee")
	ErrPercentageSumTooHigh = errors.New("percentage sum exceeds maximum")
	ErrInvalidBitmap        = errors.New("invalid validator bitmap")
	ErrEmptyValidatorSet    = errors.New("validator set must not be empty")
	ErrEmptyCommand         = errors.New("empty command")
	ErrInsufficientStake    = errors.New("insufficient validator stake")
)

// Authorization errors. Reported synchronously.
var (
	ErrPaused                        = errors.New("cannot create transaction while paused")
	ErrCallerBlacklisted             = errors.New("caller is blacklisted")
	ErrCallerNotFromCurrentSovereign = errors.New("caller is not from the current sovereign")
	ErrCallerNotOwner                = errors.New("endpoint can only be called by the owner")
	ErrCallerNotEngine               = errors.New("endpoint can only be called by the execution engine")
	ErrSetupPhaseNotCompleted        = errors.New("the setup is not completed")
	ErrSetupAlreadyCompleted         = errors.New("the setup is already completed")
	ErrInvalidSignature              = errors.New("invalid signature")
)

// Replay and ordering errors. Existing state is left untouched.
var (
	ErrCurrentOperationNotRegistered       = errors.New("current operation is not registered")
	ErrCurrentOperationAlreadyInExecution  = errors.New("current operation is already in execution")
	ErrBatchAlreadyRegistered              = errors.New("hash of hashes already registered")
	ErrHashOfHashesMismatch                = errors.New("hash of hashes does not match the operation hashes")
	ErrEpochNotFound                       = errors.New("no validator set registered for epoch")
	ErrInvalidEpoch                        = errors.New("invalid epoch")
	ErrChainIDAlreadyInUse                 = errors.New("chain id already in use")
	ErrCallerDidNotDeployAnySovereignChain = errors.New("caller did not deploy any sovereign chain")
	ErrPhaseAlreadyDeployed                = errors.New("phase already deployed")
	ErrPreviousPhaseNotCompleted           = errors.New("previous deployment phase not completed")
	ErrValidatorAlreadyRegistered          = errors.New("validator already registered")
	ErrTooManyValidators                   = errors.New("maximum number of validators reached")
	ErrNotEnoughValidators                 = errors.New("not enough validators registered")
)

// Token mechanism errors.
var (
	ErrTokenIsFromSovereign    = errors.New("token is from a sovereign chain, it cannot be locked")
	ErrTokenNotFromSovereign   = errors.New("token does not carry the sovereign chain prefix")
	ErrTokenAlreadyRegistered  = errors.New("token already registered")
	ErrMissingTokenRoles       = errors.New("missing mint and burn roles for token")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInsufficientReserve     = errors.New("insufficient reserve to release tokens")
	ErrDepositedAmountTooLow   = errors.New("deposited amount is lower than the amount to mint")
	ErrMechanismAlreadyApplied = errors.New("token mechanism already applied")
)

// UnknownCommandKindError is returned when a command envelope carries an unknown kind.
type UnknownCommandKindError struct {
	Kind CommandKind
}

func (e *UnknownCommandKindError) Error() string {
	return fmt.Sprintf("unknown command kind: %q", e.Kind)
}

// NewUnknownCommandKindError creates a new UnknownCommandKindError.
func NewUnknownCommandKindError(kind CommandKind) *UnknownCommandKindError {
	return &UnknownCommandKindError{Kind: kind}
}

// InvalidChainIDError is returned when a chain id is not 4 lowercase alphanumeric characters.
type InvalidChainIDError struct {
	ChainID string
}

func (e *InvalidChainIDError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidChainID, e.ChainID)
}

func (e *InvalidChainIDError) Unwrap() error { return ErrInvalidChainID }

// NewInvalidChainIDError creates a new InvalidChainIDError.
func NewInvalidChainIDError(chainID string) *InvalidChainIDError {
	return &InvalidChainIDError{ChainID: chainID}
}

// PhaseAlreadyDeployedError is returned when a deployment phase is repeated.
type PhaseAlreadyDeployedError struct {
	Kind ContractKind
}

func (e *PhaseAlreadyDeployedError) Error() string {
	return fmt.Sprintf("%s already deployed", e.Kind)
}

func (e *PhaseAlreadyDeployedError) Unwrap() error { return ErrPhaseAlreadyDeployed }

// NewPhaseAlreadyDeployedError creates a new PhaseAlreadyDeployedError.
func NewPhaseAlreadyDeployedError(kind ContractKind) *PhaseAlreadyDeployedError {
	return &PhaseAlreadyDeployedError{Kind: kind}
}

// PreviousPhaseNotCompletedError is returned when a deployment phase runs before its predecessor.
type PreviousPhaseNotCompletedError struct {
	Missing ContractKind
}

func (e *PreviousPhaseNotCompletedError) Error() string {
	return fmt.Sprintf("%s: %s is not deployed", ErrPreviousPhaseNotCompleted, e.Missing)
}

func (e *PreviousPhaseNotCompletedError) Unwrap() error { return ErrPreviousPhaseNotCompleted }

// NewPreviousPhaseNotCompletedError creates a new PreviousPhaseNotCompletedError.
func NewPreviousPhaseNotCompletedError(missing ContractKind) *PreviousPhaseNotCompletedError {
	return &PreviousPhaseNotCompletedError{Missing: missing}
}

// PaymentDoesNotCoverFeeError is returned when a fee payment is lower than the required fee.
type PaymentDoesNotCoverFeeError struct {
	Required *big.Int
	Provided *big.Int
}

func (e *PaymentDoesNotCoverFeeError) Error() string {
	return fmt.Sprintf("%s: required %s, provided %s", ErrPaymentDoesNotCover, e.Required, e.Provided)
}

func (e *PaymentDoesNotCoverFeeError) Unwrap() error { return ErrPaymentDoesNotCover }

// NewPaymentDoesNotCoverFeeError creates a new PaymentDoesNotCoverFeeError.
func NewPaymentDoesNotCoverFeeError(required, provided *big.Int) *PaymentDoesNotCoverFeeError {
	return &PaymentDoesNotCoverFeeError{Required: required, Provided: provided}
}

// QuorumNotReachedError is returned when a validator bitmap selects fewer validators than the
// quorum threshold. It is an invalid signature.
type QuorumNotReachedError struct {
	Selected int
	Required int
}

func (e *QuorumNotReachedError) Error() string {
	return fmt.Sprintf("%s: quorum not reached, %d of %d required validators signed", ErrInvalidSignature, e.Selected, e.Required)
}

func (e *QuorumNotReachedError) Unwrap() error { return ErrInvalidSignature }

// NewQuorumNotReachedError creates a new QuorumNotReachedError.
func NewQuorumNotReachedError(selected, required int) *QuorumNotReachedError {
	return &QuorumNotReachedError{Selected: selected, Required: required}
}

// InvalidSignatureError is returned when a signature does not recover to the validator it was
// attributed to by the bitmap.
type InvalidSignatureError struct {
	ValidatorIndex int
	Expected       common.Address
	Recovered      common.Address
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("%s: signature for validator %d recovers to %s, expected %s",
		ErrInvalidSignature, e.ValidatorIndex, e.Recovered, e.Expected)
}

func (e *InvalidSignatureError) Unwrap() error { return ErrInvalidSignature }

// NewInvalidSignatureError creates a new InvalidSignatureError.
func NewInvalidSignatureError(idx int, expected, recovered common.Address) *InvalidSignatureError {
	return &InvalidSignatureError{ValidatorIndex: idx, Expected: expected, Recovered: recovered}
}
