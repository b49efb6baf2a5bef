package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CommandKind tags the variants of BridgeCommand.
type CommandKind string

const (
	CommandKindOperation                CommandKind = "operation"
	CommandKindSetFee                   CommandKind = "setFee"
	CommandKindRemoveFee                CommandKind = "removeFee"
	CommandKindSetBurnMechanism         CommandKind = "setBurnMechanism"
	CommandKindSetLockMechanism         CommandKind = "setLockMechanism"
	CommandKindUpdateConfig             CommandKind = "updateConfig"
	CommandKindAddUsersToWhitelist      CommandKind = "addUsersToWhitelist"
	CommandKindRemoveUsersFromWhitelist CommandKind = "removeUsersFromWhitelist"
	CommandKindDistributeFees           CommandKind = "distributeFees"
	CommandKindRegisterToken            CommandKind = "registerToken"
	CommandKindUpdateSovereignConfig    CommandKind = "updateSovereignConfig"
	CommandKindChangeValidatorSet       CommandKind = "changeValidatorSet"
)

// BridgeCommand is any command that is registered with the operation registry and executed once:
// either a bridge Operation or one of the administrative operations.
type BridgeCommand interface {
	Kind() CommandKind
	CommandNonce() uint64
	Hash() (common.Hash, error)
}

// CommandEnvelope wraps a BridgeCommand with its kind so that batches can be encoded as JSON.
type CommandEnvelope struct {
	Command BridgeCommand
}

type commandEnvelopeJSON struct {
	Kind    CommandKind     `json:"kind"`
	Command json.RawMessage `json:"command"`
}

// MarshalJSON implements json.Marshaler.
func (e CommandEnvelope) MarshalJSON() ([]byte, error) {
	if e.Command == nil {
		return nil, ErrEmptyCommand
	}

	raw, err := json.Marshal(e.Command)
	if err != nil {
		return nil, err
	}

	return json.Marshal(commandEnvelopeJSON{Kind: e.Command.Kind(), Command: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CommandEnvelope) UnmarshalJSON(data []byte) error {
	var env commandEnvelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	cmd, err := newCommand(env.Kind)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(env.Command, cmd); err != nil {
		return fmt.Errorf("decoding %s command: %w", env.Kind, err)
	}

	// newCommand returns pointers so the payload can be decoded in place, the envelope keeps values.
	e.Command = derefCommand(cmd)

	return nil
}

func newCommand(kind CommandKind) (any, error) {
	switch kind {
	case CommandKindOperation:
		return &Operation{}, nil
	case CommandKindSetFee:
		return &SetFeeOperation{}, nil
	case CommandKindRemoveFee:
		return &RemoveFeeOperation{}, nil
	case CommandKindSetBurnMechanism:
		return &SetBurnMechanismOperation{}, nil
	case CommandKindSetLockMechanism:
		return &SetLockMechanismOperation{}, nil
	case CommandKindUpdateConfig:
		return &UpdateConfigOperation{}, nil
	case CommandKindAddUsersToWhitelist:
		return &AddUsersToWhitelistOperation{}, nil
	case CommandKindRemoveUsersFromWhitelist:
		return &RemoveUsersFromWhitelistOperation{}, nil
	case CommandKindDistributeFees:
		return &DistributeFeesOperation{}, nil
	case CommandKindRegisterToken:
		return &RegisterTokenOperation{}, nil
	case CommandKindUpdateSovereignConfig:
		return &UpdateSovereignConfigOperation{}, nil
	case CommandKindChangeValidatorSet:
		return &ChangeValidatorSetOperation{}, nil
	default:
		return nil, NewUnknownCommandKindError(kind)
	}
}

func derefCommand(cmd any) BridgeCommand {
	switch c := cmd.(type) {
	case *Operation:
		return *c
	case *SetFeeOperation:
		return *c
	case *RemoveFeeOperation:
		return *c
	case *SetBurnMechanismOperation:
		return *c
	case *SetLockMechanismOperation:
		return *c
	case *UpdateConfigOperation:
		return *c
	case *AddUsersToWhitelistOperation:
		return *c
	case *RemoveUsersFromWhitelistOperation:
		return *c
	case *DistributeFeesOperation:
		return *c
	case *RegisterTokenOperation:
		return *c
	case *UpdateSovereignConfigOperation:
		return *c
	case *ChangeValidatorSetOperation:
		return *c
	}

	return nil
}
