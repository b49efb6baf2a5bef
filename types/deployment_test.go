package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChainID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"sov1", "abcd", "0000"} {
		require.NoError(t, ValidateChainID(id), id)
	}

	for _, id := range []string{"", "sov", "sov12", "SOV1", "so-1"} {
		err := ValidateChainID(id)
		require.ErrorIs(t, err, ErrInvalidChainID, id)
		var target *InvalidChainIDError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, id, target.ChainID)
	}
}

func TestSovereignDeploymentRecord(t *testing.T) {
	t.Parallel()

	rec := SovereignDeploymentRecord{ChainID: "sov1"}
	assert.False(t, rec.HasAllContracts())

	for i, kind := range DeploymentPhases {
		rec.Contracts = append(rec.Contracts, DeployedContract{Kind: kind, Address: common.BigToAddress(common.Big1)})
		assert.Equal(t, i == len(DeploymentPhases)-1, rec.HasAllContracts())
	}

	_, ok := rec.Contract(ContractKindRegistry)
	assert.True(t, ok)
}
