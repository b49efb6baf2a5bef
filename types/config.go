package types //nolint:revive

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidConfig          = errors.New("invalid config")
	ErrInvalidSovereignConfig = errors.New("invalid sovereign config")
)

// DefaultMaxTxGasLimit is the gas ceiling of a transfer directive when none is configured.
const DefaultMaxTxGasLimit uint64 = 300_000_000

var validate = validator.New()

// EngineConfig holds the deposit and execution rules of an execution engine.
type EngineConfig struct {
	// TokenWhitelist restricts bridging to the listed tokens when not empty. Other tokens are
	// refunded on deposit.
	TokenWhitelist []string `json:"tokenWhitelist,omitempty" yaml:"tokenWhitelist" validate:"dive,required"`

	// TokenBlacklist lists tokens that are always refunded on deposit.
	TokenBlacklist []string `json:"tokenBlacklist,omitempty" yaml:"tokenBlacklist" validate:"dive,required"`

	// MaxTxGasLimit is the ceiling for the gas limit of a transfer directive.
	MaxTxGasLimit uint64 `json:"maxTxGasLimit" yaml:"maxTxGasLimit" validate:"gt=0"`

	// BannedEndpoints lists function names a transfer directive may not target.
	BannedEndpoints []string `json:"bannedEndpoints,omitempty" yaml:"bannedEndpoints" validate:"dive,required"`

	// AddressBlacklist lists callers that may not deposit.
	AddressBlacklist []common.Address `json:"addressBlacklist,omitempty" yaml:"addressBlacklist"`

	// MaxBridgedAmounts caps the amount of a token a single payment may bridge.
	MaxBridgedAmounts map[string]*big.Int `json:"maxBridgedAmounts,omitempty" yaml:"maxBridgedAmounts"`
}

// DefaultEngineConfig returns a permissive engine config.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{MaxTxGasLimit: DefaultMaxTxGasLimit}
}

// Validate checks the engine config with its struct tags and cross-field rules.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for _, token := range c.TokenWhitelist {
		for _, banned := range c.TokenBlacklist {
			if token == banned {
				return fmt.Errorf("%w: token %s is both whitelisted and blacklisted", ErrInvalidConfig, token)
			}
		}
	}

	for token, amount := range c.MaxBridgedAmounts {
		if amount == nil || amount.Sign() <= 0 {
			return fmt.Errorf("%w: max bridged amount for %s must be positive", ErrInvalidConfig, token)
		}
	}

	return nil
}

// SovereignConfig is held by the chain-config contract of a sovereign chain.
type SovereignConfig struct {
	MinValidators uint64   `json:"minValidators" yaml:"minValidators" validate:"gt=0"`
	MaxValidators uint64   `json:"maxValidators" yaml:"maxValidators" validate:"gtefield=MinValidators"`
	MinStake      *big.Int `json:"minStake" yaml:"minStake"`
	MaxGasLimit   uint64   `json:"maxGasLimit" yaml:"maxGasLimit" validate:"gt=0"`
}

// DefaultSovereignConfig returns the sovereign config used when the deployer does not supply one.
func DefaultSovereignConfig() SovereignConfig {
	return SovereignConfig{
		MinValidators: 1,
		MaxValidators: 100,
		MinStake:      big.NewInt(0),
		MaxGasLimit:   DefaultMaxTxGasLimit,
	}
}

// Validate checks the sovereign config.
func (c SovereignConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSovereignConfig, err)
	}

	if c.MinStake != nil && c.MinStake.Sign() < 0 {
		return fmt.Errorf("%w: min stake must not be negative", ErrInvalidSovereignConfig)
	}

	return nil
}

// Stake returns the minimum stake, treating an unset value as zero.
func (c SovereignConfig) Stake() *big.Int {
	if c.MinStake == nil {
		return new(big.Int)
	}

	return c.MinStake
}
