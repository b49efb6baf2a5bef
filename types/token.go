package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MaxTransfersPerTx is the maximum number of payments a single operation or deposit may carry.
	MaxTransfersPerTx = 10

	// NativeTokenID identifies the host chain's native token inside multi-token transfers.
	NativeTokenID = "EGLD-000000"

	// tokenIDSeparator separates the prefix, ticker and random suffix of a token identifier.
	tokenIDSeparator = "-"
)

// TokenType describes the kind of token carried by a payment.
type TokenType uint8

const (
	TokenTypeFungible TokenType = iota
	TokenTypeNonFungible
	TokenTypeSemiFungible
	TokenTypeMeta
	TokenTypeDynamicNFT
	TokenTypeDynamicSFT
	TokenTypeDynamicMeta
)

var tokenTypeNames = map[TokenType]string{
	TokenTypeFungible:     "Fungible",
	TokenTypeNonFungible:  "NonFungible",
	TokenTypeSemiFungible: "SemiFungible",
	TokenTypeMeta:         "Meta",
	TokenTypeDynamicNFT:   "DynamicNFT",
	TokenTypeDynamicSFT:   "DynamicSFT",
	TokenTypeDynamicMeta:  "DynamicMeta",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("TokenType(%d)", uint8(t))
}

// TokenRole is a bitmask of the local roles an account holds for a token.
type TokenRole uint8

const (
	RoleMint TokenRole = 1 << iota
	RoleBurn
	RoleNFTCreate
)

// Has reports whether all roles in other are present in r.
func (r TokenRole) Has(other TokenRole) bool {
	return r&other == other
}

// TokenMechanism is the custody model applied to a token by the execution engine.
type TokenMechanism uint8

const (
	// MechanismLock keeps deposited tokens in the engine's own balance and releases them back out
	// on inbound execution.
	MechanismLock TokenMechanism = iota
	// MechanismBurn destroys deposited tokens and mints them again on inbound execution.
	MechanismBurn
)

func (m TokenMechanism) String() string {
	if m == MechanismBurn {
		return "burn"
	}

	return "lock"
}

// TokenData is the metadata travelling with a bridged payment.
type TokenData struct {
	Type       TokenType      `json:"type"`
	Amount     *big.Int       `json:"amount"`
	Frozen     bool           `json:"frozen"`
	Name       string         `json:"name,omitempty"`
	Creator    common.Address `json:"creator"`
	Royalties  *big.Int       `json:"royalties,omitempty"`
	Attributes []byte         `json:"attributes,omitempty"`
	URIs       [][]byte       `json:"uris,omitempty"`
}

// OperationPayment is a single token transfer carried by an operation.
type OperationPayment struct {
	TokenID string    `json:"tokenId"`
	Nonce   uint64    `json:"nonce"`
	Data    TokenData `json:"data"`
}

// NewFungiblePayment returns a payment of a fungible token.
func NewFungiblePayment(tokenID string, amount *big.Int) OperationPayment {
	return OperationPayment{
		TokenID: tokenID,
		Data: TokenData{
			Type:   TokenTypeFungible,
			Amount: amount,
		},
	}
}

// NewTokenPayment returns a payment of amount units of key. Tokens with a nonce are
// semi-fungible.
func NewTokenPayment(key TokenKey, amount *big.Int) OperationPayment {
	p := NewFungiblePayment(key.TokenID, amount)
	if key.Nonce > 0 {
		p.Nonce = key.Nonce
		p.Data.Type = TokenTypeSemiFungible
	}

	return p
}

// Amount returns the payment amount, treating an unset amount as zero.
func (p OperationPayment) Amount() *big.Int {
	if p.Data.Amount == nil {
		return new(big.Int)
	}

	return p.Data.Amount
}

// IsNative reports whether the payment is denominated in the host chain's native token.
func (p OperationPayment) IsNative() bool {
	return p.TokenID == NativeTokenID
}

// TokenKey identifies a token balance on the host ledger.
type TokenKey struct {
	TokenID string
	Nonce   uint64
}

func (k TokenKey) String() string {
	if k.Nonce == 0 {
		return k.TokenID
	}

	return fmt.Sprintf("%s-%x", k.TokenID, k.Nonce)
}

// Key returns the ledger key of the payment.
func (p OperationPayment) Key() TokenKey {
	return TokenKey{TokenID: p.TokenID, Nonce: p.Nonce}
}

// HasChainPrefix reports whether tokenID is of the form "<chainID>-TICKER-suffix".
func HasChainPrefix(tokenID string, chainID string) bool {
	parts := strings.Split(tokenID, tokenIDSeparator)
	if len(parts) != 3 { //nolint:mnd
		return false
	}

	return parts[0] == chainID
}

// TokenTicker returns the ticker part of a token identifier, with or without a chain prefix.
func TokenTicker(tokenID string) string {
	parts := strings.Split(tokenID, tokenIDSeparator)
	switch len(parts) {
	case 3: //nolint:mnd
		return parts[1]
	default:
		return parts[0]
	}
}

// IssueRequest describes a new token issued on the host ledger.
type IssueRequest struct {
	Name     string    `json:"name"`
	Ticker   string    `json:"ticker"`
	Type     TokenType `json:"type"`
	Decimals uint8     `json:"decimals"`
}
