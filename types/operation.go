package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// TransferData is the transfer directive of an operation: the function to call on the destination
// contract once the tokens have been delivered.
type TransferData struct {
	GasLimit uint64   `json:"gasLimit"`
	Function []byte   `json:"function"`
	Args     [][]byte `json:"args,omitempty"`
}

// FunctionName returns the target function as a string.
func (t TransferData) FunctionName() string {
	return string(t.Function)
}

// OperationData carries the metadata of an operation.
type OperationData struct {
	// OpNonce is monotonic per engine and only serves to keep operation hashes unique.
	OpNonce      uint64         `json:"opNonce"`
	OpSender     common.Address `json:"opSender"`
	TransferData *TransferData  `json:"transferData,omitempty"`
}

// Operation is a single cross-chain instruction: tokens sent to a destination, optionally followed
// by a contract call.
type Operation struct {
	To     common.Address     `json:"to"`
	Tokens []OperationPayment `json:"tokens"`
	Data   OperationData      `json:"data"`
}

var _ BridgeCommand = Operation{}

// Kind implements BridgeCommand.
func (o Operation) Kind() CommandKind { return CommandKindOperation }

// CommandNonce implements BridgeCommand.
func (o Operation) CommandNonce() uint64 { return o.Data.OpNonce }

// HasTransferData reports whether the operation carries a transfer directive.
func (o Operation) HasTransferData() bool {
	return o.Data.TransferData != nil
}

// Validate checks the invariants every operation must hold regardless of where it is processed.
func (o Operation) Validate() error {
	if len(o.Tokens) > MaxTransfersPerTx {
		return ErrTooManyTokens
	}

	if len(o.Tokens) == 0 && o.Data.TransferData == nil {
		return ErrNothingToTransfer
	}

	for _, p := range o.Tokens {
		if p.Amount().Sign() < 0 {
			return ErrInvalidAmount
		}
	}

	return nil
}
