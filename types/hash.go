package types

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	abiUtils "github.com/smartcontractkit/sovbridge/internal/utils/abi"
)

// Domain separators keep the hashes of different command kinds from colliding even when their
// encodings happen to match.
var (
	domainSeparatorPayment = domainSeparator("PAYMENT")
	domainSeparators       = map[CommandKind]common.Hash{
		CommandKindOperation:                domainSeparator("OPERATION"),
		CommandKindSetFee:                   domainSeparator("SET_FEE"),
		CommandKindRemoveFee:                domainSeparator("REMOVE_FEE"),
		CommandKindSetBurnMechanism:         domainSeparator("SET_BURN_MECHANISM"),
		CommandKindSetLockMechanism:         domainSeparator("SET_LOCK_MECHANISM"),
		CommandKindUpdateConfig:             domainSeparator("UPDATE_CONFIG"),
		CommandKindAddUsersToWhitelist:      domainSeparator("ADD_USERS_TO_WHITELIST"),
		CommandKindRemoveUsersFromWhitelist: domainSeparator("REMOVE_USERS_FROM_WHITELIST"),
		CommandKindDistributeFees:           domainSeparator("DISTRIBUTE_FEES"),
		CommandKindRegisterToken:            domainSeparator("REGISTER_TOKEN"),
		CommandKindUpdateSovereignConfig:    domainSeparator("UPDATE_SOVEREIGN_CONFIG"),
		CommandKindChangeValidatorSet:       domainSeparator("CHANGE_VALIDATOR_SET"),
	}
)

func domainSeparator(name string) common.Hash {
	return crypto.Keccak256Hash([]byte("SOVBRIDGE_DOMAIN_SEPARATOR_" + name))
}

const (
	paymentABI = `[{"type":"bytes32"},{"type":"string"},{"type":"uint64"},{"type":"uint8"},{"type":"uint256"},{"type":"bool"},{"type":"string"},{"type":"address"},{"type":"uint256"},{"type":"bytes"},{"type":"bytes[]"}]`

	operationABI = `[{"type":"bytes32"},{"type":"address"},{"type":"bytes32[]"},{"type":"uint64"},{"type":"address"},{"type":"bool"},{"type":"uint64"},{"type":"bytes"},{"type":"bytes[]"}]`

	setFeeABI = `[{"type":"bytes32"},{"type":"string"},{"type":"uint8"},{"type":"string"},{"type":"uint256"},{"type":"uint256"},{"type":"string[]"},{"type":"uint64"}]`

	nonceOnlyABI = `[{"type":"bytes32"},{"type":"uint64"}]`

	tokenABI = `[{"type":"bytes32"},{"type":"string"},{"type":"uint64"}]`

	updateConfigABI = `[{"type":"bytes32"},{"type":"string[]"},{"type":"string[]"},{"type":"uint64"},{"type":"string[]"},{"type":"address[]"},{"type":"string[]"},{"type":"uint256[]"},{"type":"uint64"}]`

	usersABI = `[{"type":"bytes32"},{"type":"address[]"},{"type":"uint64"}]`

	distributeFeesABI = `[{"type":"bytes32"},{"type":"address[]"},{"type":"uint32[]"},{"type":"uint64"}]`

	registerTokenABI = `[{"type":"bytes32"},{"type":"string"},{"type":"uint8"},{"type":"string"},{"type":"string"},{"type":"uint8"},{"type":"uint64"}]`

	sovereignConfigABI = `[{"type":"bytes32"},{"type":"uint64"},{"type":"uint64"},{"type":"uint256"},{"type":"uint64"},{"type":"uint64"}]`

	validatorSetABI = `[{"type":"bytes32"},{"type":"uint64"},{"type":"address[]"},{"type":"uint64"}]`
)

// hashEncoded ABI-encodes values with abiStr and returns their keccak256 digest.
func hashEncoded(abiStr string, values ...any) (common.Hash, error) {
	encoded, err := abiUtils.Encode(abiStr, values...)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

// Hash returns the canonical hash of a payment.
func (p OperationPayment) Hash() (common.Hash, error) {
	uris := p.Data.URIs
	if uris == nil {
		uris = [][]byte{}
	}

	return hashEncoded(paymentABI,
		domainSeparatorPayment,
		p.TokenID,
		p.Nonce,
		uint8(p.Data.Type),
		orZero(p.Data.Amount),
		p.Data.Frozen,
		p.Data.Name,
		p.Data.Creator,
		orZero(p.Data.Royalties),
		orEmpty(p.Data.Attributes),
		uris,
	)
}

// Hash returns the canonical hash of the operation, which is its identity in the registry.
func (o Operation) Hash() (common.Hash, error) {
	paymentHashes := make([][32]byte, len(o.Tokens))
	for i, p := range o.Tokens {
		h, err := p.Hash()
		if err != nil {
			return common.Hash{}, err
		}
		paymentHashes[i] = h
	}

	var (
		hasTransfer bool
		gasLimit    uint64
		function    = []byte{}
		args        = [][]byte{}
	)
	if td := o.Data.TransferData; td != nil {
		hasTransfer = true
		gasLimit = td.GasLimit
		function = orEmpty(td.Function)
		if td.Args != nil {
			args = td.Args
		}
	}

	return hashEncoded(operationABI,
		domainSeparators[CommandKindOperation],
		o.To,
		paymentHashes,
		o.Data.OpNonce,
		o.Data.OpSender,
		hasTransfer,
		gasLimit,
		function,
		args,
	)
}

// Hash implements BridgeCommand.
func (o SetFeeOperation) Hash() (common.Hash, error) {
	accepted := o.Fee.FeeType.AcceptedTokens
	if accepted == nil {
		accepted = []string{}
	}

	return hashEncoded(setFeeABI,
		domainSeparators[CommandKindSetFee],
		o.Fee.BaseToken,
		uint8(o.Fee.FeeType.Kind),
		o.Fee.FeeType.Token,
		orZero(o.Fee.FeeType.PerTransfer),
		orZero(o.Fee.FeeType.PerGas),
		accepted,
		o.Nonce,
	)
}

// Hash implements BridgeCommand.
func (o RemoveFeeOperation) Hash() (common.Hash, error) {
	return hashEncoded(nonceOnlyABI, domainSeparators[CommandKindRemoveFee], o.Nonce)
}

// Hash implements BridgeCommand.
func (o SetBurnMechanismOperation) Hash() (common.Hash, error) {
	return hashEncoded(tokenABI, domainSeparators[CommandKindSetBurnMechanism], o.TokenID, o.Nonce)
}

// Hash implements BridgeCommand.
func (o SetLockMechanismOperation) Hash() (common.Hash, error) {
	return hashEncoded(tokenABI, domainSeparators[CommandKindSetLockMechanism], o.TokenID, o.Nonce)
}

// Hash implements BridgeCommand.
func (o UpdateConfigOperation) Hash() (common.Hash, error) {
	cfg := o.Config

	// Map iteration order is random, the encoding sorts the capped tokens.
	cappedTokens := make([]string, 0, len(cfg.MaxBridgedAmounts))
	for token := range cfg.MaxBridgedAmounts {
		cappedTokens = append(cappedTokens, token)
	}
	slices.Sort(cappedTokens)

	caps := make([]*big.Int, len(cappedTokens))
	for i, token := range cappedTokens {
		caps[i] = orZero(cfg.MaxBridgedAmounts[token])
	}

	return hashEncoded(updateConfigABI,
		domainSeparators[CommandKindUpdateConfig],
		orEmptyStrings(cfg.TokenWhitelist),
		orEmptyStrings(cfg.TokenBlacklist),
		cfg.MaxTxGasLimit,
		orEmptyStrings(cfg.BannedEndpoints),
		orEmptyAddresses(cfg.AddressBlacklist),
		cappedTokens,
		caps,
		o.Nonce,
	)
}

// Hash implements BridgeCommand.
func (o AddUsersToWhitelistOperation) Hash() (common.Hash, error) {
	return hashEncoded(usersABI, domainSeparators[CommandKindAddUsersToWhitelist], orEmptyAddresses(o.Users), o.Nonce)
}

// Hash implements BridgeCommand.
func (o RemoveUsersFromWhitelistOperation) Hash() (common.Hash, error) {
	return hashEncoded(usersABI, domainSeparators[CommandKindRemoveUsersFromWhitelist], orEmptyAddresses(o.Users), o.Nonce)
}

// Hash implements BridgeCommand.
func (o DistributeFeesOperation) Hash() (common.Hash, error) {
	addresses := make([]common.Address, len(o.Pairs))
	percentages := make([]uint32, len(o.Pairs))
	for i, pair := range o.Pairs {
		addresses[i] = pair.Address
		percentages[i] = pair.Percentage
	}

	return hashEncoded(distributeFeesABI, domainSeparators[CommandKindDistributeFees], addresses, percentages, o.Nonce)
}

// Hash implements BridgeCommand.
func (o RegisterTokenOperation) Hash() (common.Hash, error) {
	return hashEncoded(registerTokenABI,
		domainSeparators[CommandKindRegisterToken],
		o.TokenID,
		uint8(o.Type),
		o.Name,
		o.Ticker,
		o.Decimals,
		o.Nonce,
	)
}

// Hash implements BridgeCommand.
func (o UpdateSovereignConfigOperation) Hash() (common.Hash, error) {
	return hashEncoded(sovereignConfigABI,
		domainSeparators[CommandKindUpdateSovereignConfig],
		o.Config.MinValidators,
		o.Config.MaxValidators,
		o.Config.Stake(),
		o.Config.MaxGasLimit,
		o.Nonce,
	)
}

// Hash implements BridgeCommand.
func (o ChangeValidatorSetOperation) Hash() (common.Hash, error) {
	return hashEncoded(validatorSetABI,
		domainSeparators[CommandKindChangeValidatorSet],
		o.Epoch,
		orEmptyAddresses(o.Validators),
		o.Nonce,
	)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}

	return v
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}

	return b
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func orEmptyAddresses(a []common.Address) []common.Address {
	if a == nil {
		return []common.Address{}
	}

	return a
}
