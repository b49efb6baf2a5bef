package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// SetFeeOperation replaces the fee of a fee market.
type SetFeeOperation struct {
	Fee   FeeStruct `json:"fee"`
	Nonce uint64    `json:"nonce"`
}

// RemoveFeeOperation disables the fee of a fee market.
type RemoveFeeOperation struct {
	Nonce uint64 `json:"nonce"`
}

// SetBurnMechanismOperation switches a token to the burn mechanism.
type SetBurnMechanismOperation struct {
	TokenID string `json:"tokenId"`
	Nonce   uint64 `json:"nonce"`
}

// SetLockMechanismOperation switches a token to the lock mechanism.
type SetLockMechanismOperation struct {
	TokenID string `json:"tokenId"`
	Nonce   uint64 `json:"nonce"`
}

// UpdateConfigOperation replaces the config of an execution engine.
type UpdateConfigOperation struct {
	Config EngineConfig `json:"config"`
	Nonce  uint64       `json:"nonce"`
}

// AddUsersToWhitelistOperation exempts users from fees.
type AddUsersToWhitelistOperation struct {
	Users []common.Address `json:"users"`
	Nonce uint64           `json:"nonce"`
}

// RemoveUsersFromWhitelistOperation removes fee exemptions.
type RemoveUsersFromWhitelistOperation struct {
	Users []common.Address `json:"users"`
	Nonce uint64           `json:"nonce"`
}

// DistributeFeesOperation distributes the fees accumulated by a fee market.
type DistributeFeesOperation struct {
	Pairs []AddressPercentagePair `json:"pairs"`
	Nonce uint64                  `json:"nonce"`
}

// RegisterTokenOperation maps a sovereign token to a newly issued main chain token.
type RegisterTokenOperation struct {
	TokenID  string    `json:"tokenId"`
	Type     TokenType `json:"type"`
	Name     string    `json:"name"`
	Ticker   string    `json:"ticker"`
	Decimals uint8     `json:"decimals"`
	Nonce    uint64    `json:"nonce"`
}

// UpdateSovereignConfigOperation replaces the config held by a chain-config contract.
type UpdateSovereignConfigOperation struct {
	Config SovereignConfig `json:"config"`
	Nonce  uint64          `json:"nonce"`
}

// ChangeValidatorSetOperation installs the validator set of a new epoch in the registry.
type ChangeValidatorSetOperation struct {
	Epoch      uint64           `json:"epoch"`
	Validators []common.Address `json:"validators"`
	Nonce      uint64           `json:"nonce"`
}

func (o SetFeeOperation) Kind() CommandKind                   { return CommandKindSetFee }
func (o RemoveFeeOperation) Kind() CommandKind                { return CommandKindRemoveFee }
func (o SetBurnMechanismOperation) Kind() CommandKind         { return CommandKindSetBurnMechanism }
func (o SetLockMechanismOperation) Kind() CommandKind         { return CommandKindSetLockMechanism }
func (o UpdateConfigOperation) Kind() CommandKind             { return CommandKindUpdateConfig }
func (o AddUsersToWhitelistOperation) Kind() CommandKind      { return CommandKindAddUsersToWhitelist }
func (o RemoveUsersFromWhitelistOperation) Kind() CommandKind { return CommandKindRemoveUsersFromWhitelist }
func (o DistributeFeesOperation) Kind() CommandKind           { return CommandKindDistributeFees }
func (o RegisterTokenOperation) Kind() CommandKind            { return CommandKindRegisterToken }
func (o UpdateSovereignConfigOperation) Kind() CommandKind    { return CommandKindUpdateSovereignConfig }
func (o ChangeValidatorSetOperation) Kind() CommandKind       { return CommandKindChangeValidatorSet }

func (o SetFeeOperation) CommandNonce() uint64                   { return o.Nonce }
func (o RemoveFeeOperation) CommandNonce() uint64                { return o.Nonce }
func (o SetBurnMechanismOperation) CommandNonce() uint64         { return o.Nonce }
func (o SetLockMechanismOperation) CommandNonce() uint64         { return o.Nonce }
func (o UpdateConfigOperation) CommandNonce() uint64             { return o.Nonce }
func (o AddUsersToWhitelistOperation) CommandNonce() uint64      { return o.Nonce }
func (o RemoveUsersFromWhitelistOperation) CommandNonce() uint64 { return o.Nonce }
func (o DistributeFeesOperation) CommandNonce() uint64           { return o.Nonce }
func (o RegisterTokenOperation) CommandNonce() uint64            { return o.Nonce }
func (o UpdateSovereignConfigOperation) CommandNonce() uint64    { return o.Nonce }
func (o ChangeValidatorSetOperation) CommandNonce() uint64       { return o.Nonce }

var (
	_ BridgeCommand = SetFeeOperation{}
	_ BridgeCommand = RemoveFeeOperation{}
	_ BridgeCommand = SetBurnMechanismOperation{}
	_ BridgeCommand = SetLockMechanismOperation{}
	_ BridgeCommand = UpdateConfigOperation{}
	_ BridgeCommand = AddUsersToWhitelistOperation{}
	_ BridgeCommand = RemoveUsersFromWhitelistOperation{}
	_ BridgeCommand = DistributeFeesOperation{}
	_ BridgeCommand = RegisterTokenOperation{}
	_ BridgeCommand = UpdateSovereignConfigOperation{}
	_ BridgeCommand = ChangeValidatorSetOperation{}
)
