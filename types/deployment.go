package types

import (
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

// ChainIDLength is the length of a sovereign chain id.
const ChainIDLength = 4

// ChainIDCharset holds the characters a sovereign chain id is made of.
const ChainIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var chainIDPattern = regexp.MustCompile(`^[a-z0-9]{4}$`)

// ValidateChainID checks that id is 4 lowercase alphanumeric characters.
func ValidateChainID(id string) error {
	if !chainIDPattern.MatchString(id) {
		return NewInvalidChainIDError(id)
	}

	return nil
}

// ContractKind identifies a contract of a sovereign chain's contract set.
type ContractKind string

const (
	ContractKindChainConfig     ContractKind = "ChainConfig"
	ContractKindExecutionEngine ContractKind = "ExecutionEngine"
	ContractKindFeeMarket       ContractKind = "FeeMarket"
	ContractKindRegistry        ContractKind = "Registry"
)

// DeploymentPhases lists the contract kinds in the order they are deployed.
var DeploymentPhases = []ContractKind{
	ContractKindChainConfig,
	ContractKindExecutionEngine,
	ContractKindFeeMarket,
	ContractKindRegistry,
}

// DeployedContract is one contract of a sovereign chain's contract set.
type DeployedContract struct {
	Kind    ContractKind   `json:"kind"`
	Address common.Address `json:"address"`
}

// SovereignDeploymentRecord tracks the deployment of a sovereign chain's contract set.
type SovereignDeploymentRecord struct {
	ChainID       string             `json:"chainId"`
	Creator       common.Address     `json:"creator"`
	Contracts     []DeployedContract `json:"contracts"`
	SetupComplete bool               `json:"setupComplete"`
}

// Contract returns the address of the contract of the given kind, if deployed.
func (r SovereignDeploymentRecord) Contract(kind ContractKind) (common.Address, bool) {
	for _, c := range r.Contracts {
		if c.Kind == kind {
			return c.Address, true
		}
	}

	return common.Address{}, false
}

// HasAllContracts reports whether every contract kind has been deployed.
func (r SovereignDeploymentRecord) HasAllContracts() bool {
	for _, kind := range DeploymentPhases {
		if _, ok := r.Contract(kind); !ok {
			return false
		}
	}

	return true
}
