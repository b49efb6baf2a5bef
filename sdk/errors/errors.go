package sdkerrors

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotAContract     = errors.New("destination is not a contract")
	ErrFunctionNotFound = errors.New("function not found")
	ErrOutOfGas         = errors.New("out of gas")
	ErrExecutionFailed  = errors.New("execution failed")
	ErrMissingRole      = errors.New("action is not allowed")
	ErrNotEnoughFunds   = errors.New("insufficient funds")
)

// InsufficientFundsError is returned when an account cannot cover a transfer or burn.
type InsufficientFundsError struct {
	Account   common.Address
	TokenID   string
	Balance   *big.Int
	Requested *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: %s holds %s %s, requested %s", ErrNotEnoughFunds, e.Account, e.Balance, e.TokenID, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrNotEnoughFunds }

func NewInsufficientFundsError(account common.Address, tokenID string, balance, requested *big.Int) *InsufficientFundsError {
	return &InsufficientFundsError{Account: account, TokenID: tokenID, Balance: balance, Requested: requested}
}

// MissingRoleError is returned when an account lacks a local role for a token.
type MissingRoleError struct {
	Account common.Address
	TokenID string
	Role    string
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("%s: %s has no %s role for %s", ErrMissingRole, e.Account, e.Role, e.TokenID)
}

func (e *MissingRoleError) Unwrap() error { return ErrMissingRole }

func NewMissingRoleError(account common.Address, tokenID, role string) *MissingRoleError {
	return &MissingRoleError{Account: account, TokenID: tokenID, Role: role}
}

// CallFailedError wraps the reason a contract call reverted.
type CallFailedError struct {
	To       common.Address
	Function string
	Reason   error
}

func (e *CallFailedError) Error() string {
	return fmt.Sprintf("%s: call to %s on %s: %v", ErrExecutionFailed, e.Function, e.To, e.Reason)
}

func (e *CallFailedError) Unwrap() []error { return []error{ErrExecutionFailed, e.Reason} }

func NewCallFailedError(to common.Address, function string, reason error) *CallFailedError {
	return &CallFailedError{To: to, Function: function, Reason: reason}
}
