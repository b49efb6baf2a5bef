package deployer

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/sovbridge/internal/testutils"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

var (
	forgeAddr   = common.HexToAddress("0xf0")
	creatorAddr = common.HexToAddress("0xc1")
	otherAddr   = common.HexToAddress("0xc2")
)

func nativePayment(amount *big.Int) types.OperationPayment {
	return types.NewFungiblePayment(types.NativeTokenID, amount)
}

func newForge(t *testing.T, cfg Config, opts ...Option) (*Forge, *host.Chain) {
	t.Helper()

	chain := host.New()
	forge, err := New(forgeAddr, chain, storage.NewMemKVStore(), cfg, opts...)
	require.NoError(t, err)

	funds := new(big.Int).Mul(DefaultMinDepositCost, big.NewInt(10))
	chain.Fund(creatorAddr, nativePayment(funds))
	chain.Fund(otherAddr, nativePayment(funds))

	return forge, chain
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(forgeAddr, host.New(), storage.NewMemKVStore(), Config{MinDepositCost: big.NewInt(1)})
	require.ErrorIs(t, err, ErrInvalidForgeConfig)

	_, err = New(forgeAddr, host.New(), storage.NewMemKVStore(), Config{ChainIDAttempts: 1})
	require.ErrorIs(t, err, ErrInvalidForgeConfig)
}

func TestForge_DeploymentOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	forge, chain := newForge(t, DefaultConfig())
	deposit := nativePayment(DefaultMinDepositCost)

	_, err := forge.DeployPhaseTwo(ctx, creatorAddr, nil)
	require.ErrorIs(t, err, types.ErrCallerDidNotDeployAnySovereignChain)
	require.ErrorIs(t, forge.CompleteSetupPhase(ctx, creatorAddr), types.ErrCallerDidNotDeployAnySovereignChain)

	chainID, err := forge.DeployPhaseOne(ctx, creatorAddr, deposit, "sov1", nil)
	require.NoError(t, err)
	assert.Equal(t, "sov1", chainID)
	assert.Equal(t, DefaultMinDepositCost, chain.Balance(forgeAddr, types.NativeTokenID, 0))

	_, err = forge.DeployPhaseOne(ctx, creatorAddr, deposit, "sov1", nil)
	require.ErrorIs(t, err, types.ErrChainIDAlreadyInUse)
	_, err = forge.DeployPhaseOne(ctx, otherAddr, deposit, "sov1", nil)
	require.ErrorIs(t, err, types.ErrChainIDAlreadyInUse)

	_, err = forge.DeployPhaseOne(ctx, creatorAddr, deposit, "sov2", nil)
	var already *types.PhaseAlreadyDeployedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, types.ContractKindChainConfig, already.Kind)

	_, err = forge.DeployPhaseThree(ctx, creatorAddr, nil)
	var previous *types.PreviousPhaseNotCompletedError
	require.ErrorAs(t, err, &previous)
	assert.Equal(t, types.ContractKindExecutionEngine, previous.Missing)

	_, err = forge.DeployPhaseFour(ctx, creatorAddr)
	require.ErrorAs(t, err, &previous)
	assert.Equal(t, types.ContractKindFeeMarket, previous.Missing)

	require.ErrorIs(t, forge.CompleteSetupPhase(ctx, creatorAddr), types.ErrSetupPhaseNotCompleted)

	_, err = forge.DeployPhaseTwo(ctx, creatorAddr, nil)
	require.NoError(t, err)
	_, err = forge.DeployPhaseTwo(ctx, creatorAddr, nil)
	require.ErrorIs(t, err, types.ErrPhaseAlreadyDeployed)

	_, err = forge.DeployPhaseThree(ctx, creatorAddr, nil)
	require.NoError(t, err)
	_, err = forge.DeployPhaseFour(ctx, creatorAddr)
	require.NoError(t, err)
	_, err = forge.DeployPhaseFour(ctx, creatorAddr)
	require.ErrorIs(t, err, types.ErrPhaseAlreadyDeployed)

	rec, ok, err := forge.Record(creatorAddr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.HasAllContracts())
	assert.False(t, rec.SetupComplete)

	deployed := host.EventsOf[types.ContractDeployedEvent](chain)
	require.Len(t, deployed, len(types.DeploymentPhases))
	for i, kind := range types.DeploymentPhases {
		assert.Equal(t, kind, deployed[i].Kind)
		addr, found := rec.Contract(kind)
		require.True(t, found)
		assert.Equal(t, addr, deployed[i].Address)
	}
}

func TestForge_DeployPhaseOne_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		deposit   types.OperationPayment
		preferred string
		cfg       *types.SovereignConfig
		wantErr   error
	}{
		{
			name:      "failure: uppercase chain id",
			deposit:   nativePayment(DefaultMinDepositCost),
			preferred: "SOV1",
			wantErr:   types.ErrInvalidChainID,
		},
		{
			name:      "failure: short chain id",
			deposit:   nativePayment(DefaultMinDepositCost),
			preferred: "sov",
			wantErr:   types.ErrInvalidChainID,
		},
		{
			name:      "failure: chain id with separator",
			deposit:   nativePayment(DefaultMinDepositCost),
			preferred: "so-1",
			wantErr:   types.ErrInvalidChainID,
		},
		{
			name:      "failure: deposit below minimum",
			deposit:   nativePayment(new(big.Int).Sub(DefaultMinDepositCost, big.NewInt(1))),
			preferred: "sov1",
			wantErr:   types.ErrDeployCostTooLow,
		},
		{
			name:      "failure: deposit not native",
			deposit:   types.NewFungiblePayment("TKN-123456", DefaultMinDepositCost),
			preferred: "sov1",
			wantErr:   types.ErrDeployCostTooLow,
		},
		{
			name:      "failure: invalid sovereign config",
			deposit:   nativePayment(DefaultMinDepositCost),
			preferred: "sov1",
			cfg:       &types.SovereignConfig{MinValidators: 3, MaxValidators: 2, MaxGasLimit: 1},
			wantErr:   types.ErrInvalidSovereignConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			forge, chain := newForge(t, DefaultConfig())
			before := chain.Balance(creatorAddr, types.NativeTokenID, 0)

			_, err := forge.DeployPhaseOne(context.Background(), creatorAddr, tt.deposit, tt.preferred, tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)

			_, ok, err := forge.Record(creatorAddr)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, before, chain.Balance(creatorAddr, types.NativeTokenID, 0))
			assert.Empty(t, host.EventsOf[types.ContractDeployedEvent](chain))
		})
	}
}

func TestForge_RandomChainID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deposit := nativePayment(DefaultMinDepositCost)

	t.Run("success: collision redrawn", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader([]byte{0, 1, 2, 3, 0, 1, 2, 3, 26, 27, 28, 61})
		forge, _ := newForge(t, DefaultConfig(), WithRandom(r))

		first, err := forge.DeployPhaseOne(ctx, creatorAddr, deposit, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "abcd", first)

		second, err := forge.DeployPhaseOne(ctx, otherAddr, deposit, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "012z", second)
	})

	t.Run("success: bytes above the last full charset cycle rejected", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader([]byte{252, 255, 0, 1, 2, 3, 251, 9})
		forge, _ := newForge(t, DefaultConfig(), WithRandom(r))

		id, err := forge.DeployPhaseOne(ctx, creatorAddr, deposit, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "abcd", id)
	})

	t.Run("failure: attempts exhausted", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ChainIDAttempts = 1
		r := bytes.NewReader([]byte{0, 1, 2, 3, 0, 1, 2, 3})
		forge, _ := newForge(t, cfg, WithRandom(r))

		_, err := forge.DeployPhaseOne(ctx, creatorAddr, deposit, "", nil)
		require.NoError(t, err)

		_, err = forge.DeployPhaseOne(ctx, otherAddr, deposit, "", nil)
		require.ErrorIs(t, err, types.ErrChainIDAlreadyInUse)
	})
}

// deployAll runs the four phases for creatorAddr and registers the signers as validators.
func deployAll(t *testing.T, forge *Forge, signers []testutils.ECDSASigner, fee *types.FeeStruct) *Sovereign {
	t.Helper()

	ctx := context.Background()
	chainID, err := forge.DeployPhaseOne(ctx, creatorAddr, nativePayment(DefaultMinDepositCost), "sov1", nil)
	require.NoError(t, err)
	_, err = forge.DeployPhaseTwo(ctx, creatorAddr, nil)
	require.NoError(t, err)
	_, err = forge.DeployPhaseThree(ctx, creatorAddr, fee)
	require.NoError(t, err)
	_, err = forge.DeployPhaseFour(ctx, creatorAddr)
	require.NoError(t, err)

	s, err := forge.Sovereign(chainID)
	require.NoError(t, err)
	for _, signer := range signers {
		require.NoError(t, s.ChainConfig.RegisterValidator(ctx, signer.Address(), nil))
	}

	return s
}

func TestForge_CompleteSetupPhase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	forge, chain := newForge(t, DefaultConfig())

	s := deployAll(t, forge, nil, nil)
	require.ErrorIs(t, forge.CompleteSetupPhase(ctx, creatorAddr), types.ErrNotEnoughValidators)
	assert.True(t, s.Engine.IsPaused())

	signers := testutils.MakeNewECDSASigners(3)
	for _, signer := range signers {
		require.NoError(t, s.ChainConfig.RegisterValidator(ctx, signer.Address(), nil))
	}

	require.NoError(t, forge.CompleteSetupPhase(ctx, creatorAddr))
	assert.False(t, s.Engine.IsPaused())
	assert.True(t, s.Registry.IsSetupComplete())

	validators, err := s.Registry.Validators(0)
	require.NoError(t, err)
	assert.Equal(t, testutils.Addresses(signers), validators)

	rec, _, err := forge.Record(creatorAddr)
	require.NoError(t, err)
	assert.True(t, rec.SetupComplete)

	completed := host.EventsOf[types.SetupCompletedEvent](chain)
	require.Len(t, completed, 1)
	assert.Equal(t, "sov1", completed[0].ChainID)

	require.ErrorIs(t, forge.CompleteSetupPhase(ctx, creatorAddr), types.ErrSetupAlreadyCompleted)
	require.ErrorIs(t, s.ChainConfig.RegisterValidator(ctx, common.HexToAddress("0x99"), nil), types.ErrSetupAlreadyCompleted)
}

func TestForge_PersistentRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chain := host.New()
	chain.Fund(creatorAddr, nativePayment(DefaultMinDepositCost))
	kv := storage.NewBoltDB(storage.Config{Path: t.TempDir() + "/forge.db"})
	require.NoError(t, kv.Start(ctx))

	forge, err := New(forgeAddr, chain, kv, DefaultConfig())
	require.NoError(t, err)
	_, err = forge.DeployPhaseOne(ctx, creatorAddr, nativePayment(DefaultMinDepositCost), "sov1", nil)
	require.NoError(t, err)
	require.NoError(t, kv.Stop(ctx))

	require.NoError(t, kv.Start(ctx))
	t.Cleanup(func() { _ = kv.Stop(ctx) })
	restarted, err := New(forgeAddr, chain, kv, DefaultConfig())
	require.NoError(t, err)

	rec, ok, err := restarted.Record(creatorAddr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sov1", rec.ChainID)

	_, err = restarted.DeployPhaseOne(ctx, otherAddr, nativePayment(DefaultMinDepositCost), "sov1", nil)
	require.ErrorIs(t, err, types.ErrChainIDAlreadyInUse)

	// the remaining phases continue on the contract set rebuilt from the store
	_, err = restarted.DeployPhaseTwo(ctx, creatorAddr, nil)
	require.NoError(t, err)
	_, err = restarted.DeployPhaseThree(ctx, creatorAddr, nil)
	require.NoError(t, err)
	_, err = restarted.DeployPhaseFour(ctx, creatorAddr)
	require.NoError(t, err)

	s, err := restarted.Sovereign("sov1")
	require.NoError(t, err)
	signers := testutils.MakeNewECDSASigners(1)
	require.NoError(t, s.ChainConfig.RegisterValidator(ctx, signers[0].Address(), nil))
	require.NoError(t, restarted.CompleteSetupPhase(ctx, creatorAddr))

	again, err := New(forgeAddr, chain, kv, DefaultConfig())
	require.NoError(t, err)
	loaded, err := again.Sovereign("sov1")
	require.NoError(t, err)
	assert.True(t, loaded.ChainConfig.IsSetupComplete())
	assert.True(t, loaded.Registry.IsSetupComplete())
	assert.False(t, loaded.Engine.IsPaused())
	assert.Equal(t, s.Engine.Address(), loaded.Engine.Address())
	assert.Equal(t, testutils.Addresses(signers), loaded.ChainConfig.Validators())

	_, err = again.Sovereign("nope")
	require.ErrorIs(t, err, ErrSovereignNotFound)
}

var errPutFailed = errors.New("put failed")

// failingKVStore fails every write to one namespace while fail is set.
type failingKVStore struct {
	storage.KVStore

	namespace string
	fail      atomic.Bool
}

func (s *failingKVStore) Put(namespace string, key, value []byte) error {
	if namespace == s.namespace && s.fail.Load() {
		return errPutFailed
	}

	return s.KVStore.Put(namespace, key, value)
}

func TestForge_CompleteSetupPhase_Retry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chain := host.New()
	chain.Fund(creatorAddr, nativePayment(DefaultMinDepositCost))
	kv := &failingKVStore{KVStore: storage.NewMemKVStore(), namespace: "chainconfig"}
	forge, err := New(forgeAddr, chain, kv, DefaultConfig())
	require.NoError(t, err)

	signers := testutils.MakeNewECDSASigners(2)
	s := deployAll(t, forge, signers, nil)

	kv.fail.Store(true)
	require.ErrorIs(t, forge.CompleteSetupPhase(ctx, creatorAddr), errPutFailed)
	assert.False(t, s.ChainConfig.IsSetupComplete())
	assert.True(t, s.Engine.IsPaused())
	rec, _, err := forge.Record(creatorAddr)
	require.NoError(t, err)
	assert.False(t, rec.SetupComplete)

	kv.fail.Store(false)
	require.NoError(t, forge.CompleteSetupPhase(ctx, creatorAddr))
	assert.True(t, s.ChainConfig.IsSetupComplete())
	assert.True(t, s.Registry.IsSetupComplete())
	assert.False(t, s.Engine.IsPaused())

	validators, err := s.Registry.Validators(0)
	require.NoError(t, err)
	assert.Equal(t, testutils.Addresses(signers), validators)
	assert.Len(t, host.EventsOf[types.SetupCompletedEvent](chain), 1)

	rec, _, err = forge.Record(creatorAddr)
	require.NoError(t, err)
	assert.True(t, rec.SetupComplete)
}
