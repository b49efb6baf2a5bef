package types

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// FeeKind tags the variants of FeeType.
type FeeKind uint8

const (
	FeeKindNone FeeKind = iota
	FeeKindFixed
	FeeKindAnyToken
)

func (k FeeKind) String() string {
	switch k {
	case FeeKindFixed:
		return "fixed"
	case FeeKindAnyToken:
		return "anyToken"
	default:
		return "none"
	}
}

// MaxPercentage is the denominator of fee distribution percentages, in basis points.
const MaxPercentage = 10_000

// FeeType is the fee schedule: Fixed{Token, PerTransfer, PerGas}, AnyToken{...} or None.
type FeeType struct {
	Kind        FeeKind  `json:"kind" yaml:"kind"`
	Token       string   `json:"token,omitempty" yaml:"token"`
	PerTransfer *big.Int `json:"perTransfer,omitempty" yaml:"perTransfer"`
	PerGas      *big.Int `json:"perGas,omitempty" yaml:"perGas"`

	// AcceptedTokens lists the tokens an AnyToken fee may be paid in, at par with Token.
	AcceptedTokens []string `json:"acceptedTokens,omitempty" yaml:"acceptedTokens"`
}

// FeeStruct is the fee configuration of a fee market.
type FeeStruct struct {
	BaseToken string  `json:"baseToken" yaml:"baseToken" validate:"required"`
	FeeType   FeeType `json:"feeType" yaml:"feeType"`
}

// NoFee returns a fee struct that charges nothing.
func NoFee() FeeStruct {
	return FeeStruct{FeeType: FeeType{Kind: FeeKindNone}}
}

// NewFixedFee returns a fixed fee paid in token.
func NewFixedFee(token string, perTransfer, perGas *big.Int) FeeStruct {
	return FeeStruct{
		BaseToken: token,
		FeeType: FeeType{
			Kind:        FeeKindFixed,
			Token:       token,
			PerTransfer: perTransfer,
			PerGas:      perGas,
		},
	}
}

// IsEnabled reports whether the fee charges anything at all.
func (f FeeStruct) IsEnabled() bool {
	return f.FeeType.Kind != FeeKindNone
}

// Accepts reports whether a fee payment in tokenID is acceptable.
func (f FeeStruct) Accepts(tokenID string) bool {
	switch f.FeeType.Kind {
	case FeeKindFixed:
		return tokenID == f.FeeType.Token
	case FeeKindAnyToken:
		return tokenID == f.FeeType.Token || slices.Contains(f.FeeType.AcceptedTokens, tokenID)
	default:
		return false
	}
}

// Validate checks the fee variant carries what it needs.
func (f FeeStruct) Validate() error {
	switch f.FeeType.Kind {
	case FeeKindNone:
		return nil
	case FeeKindFixed, FeeKindAnyToken:
		if f.BaseToken == "" || f.FeeType.Token == "" {
			return fmt.Errorf("%w: fee token must be set", ErrInvalidFee)
		}
		if f.FeeType.Token != f.BaseToken {
			return fmt.Errorf("%w: fee token %s differs from base token %s", ErrInvalidFee, f.FeeType.Token, f.BaseToken)
		}
		if isNegative(f.FeeType.PerTransfer) || isNegative(f.FeeType.PerGas) {
			return fmt.Errorf("%w: fee amounts must not be negative", ErrInvalidFee)
		}

		return nil
	default:
		return fmt.Errorf("%w: unknown fee kind %d", ErrInvalidFee, f.FeeType.Kind)
	}
}

// AddressPercentagePair is one share of a fee distribution, in basis points out of MaxPercentage.
type AddressPercentagePair struct {
	Address    common.Address `json:"address"`
	Percentage uint32         `json:"percentage"`
}

func isNegative(v *big.Int) bool {
	return v != nil && v.Sign() < 0
}
