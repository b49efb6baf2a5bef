package sovbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/sovbridge"
	"github.com/smartcontractkit/sovbridge/deployer"
	"github.com/smartcontractkit/sovbridge/sdk/host"
	"github.com/smartcontractkit/sovbridge/storage"
	"github.com/smartcontractkit/sovbridge/types"
)

var (
	simForgeAddr   = common.HexToAddress("0x00000000000000000000000000000000000f0f0e")
	simCreatorAddr = common.HexToAddress("0x00000000000000000000000000000000000c0c0e")
)

// SimulationConfig describes the sovereign chain a batch is simulated against.
type SimulationConfig struct {
	SovereignConfig *types.SovereignConfig `yaml:"sovereignConfig"`
	EngineConfig    *types.EngineConfig    `yaml:"engineConfig"`
	Fee             *types.FeeStruct       `yaml:"fee"`

	// Reserves funds the execution engine before the batch runs.
	Reserves []Funding `yaml:"reserves"`
}

// Funding is an amount of a token.
type Funding struct {
	Token  string   `yaml:"token"`
	Nonce  uint64   `yaml:"nonce"`
	Amount *big.Int `yaml:"amount"`
}

// SimulationResult is printed once the batch has run.
type SimulationResult struct {
	ChainID     string                   `json:"chainId"`
	BatchDigest common.Hash              `json:"batchDigest"`
	Outcomes    []types.ExecutionOutcome `json:"outcomes"`
	Error       string                   `json:"error,omitempty"`
	Events      []simulatedEvent         `json:"events"`
}

type simulatedEvent struct {
	ID    string      `json:"id"`
	Event types.Event `json:"event"`
}

func loadSimulationConfig(path string) (*SimulationConfig, error) {
	cfg := &SimulationConfig{}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decoding simulation config: %w", err)
	}

	return cfg, nil
}

func newSimulateCmd(flags *rootFlags) *cobra.Command {
	var (
		configPath string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Deploy a sovereign chain in process and run the batch against it",
		Long: `Deploys the contract set of the batch chain on an in-process host, registers the validators
configured with VALIDATOR_KEYS, signs the batch with every validator and executes it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(flags.batchPath)
			if err != nil {
				return fmt.Errorf("error loading batch: %w", err)
			}

			cfg, err := loadSimulationConfig(configPath)
			if err != nil {
				return err
			}

			signers, err := loadValidatorSigners()
			if err != nil {
				return err
			}

			kv := storage.NewMemKVStore()
			if dbPath != "" {
				kv = storage.NewBoltDB(storage.Config{Path: dbPath})
			}

			ctx, flush := contextWithLogger(cmd.Context(), flags.verbose)
			defer flush()

			if err = kv.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = kv.Stop(ctx) }()

			res, err := simulate(ctx, kv, cfg, b, signers)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML file describing the simulated sovereign chain")
	cmd.Flags().StringVar(&dbPath, "db", "", "Persist contract state to a bolt database at this path")

	return cmd
}

// simulate deploys the batch chain and runs the batch. Execution failures are part of the result,
// deployment failures are returned.
func simulate(
	ctx context.Context,
	kv storage.KVStore,
	cfg *SimulationConfig,
	b *sovbridge.Batch,
	signers []*sovbridge.PrivateKeySigner,
) (*SimulationResult, error) {
	chain := host.New()
	chain.Fund(simCreatorAddr, types.NewFungiblePayment(types.NativeTokenID, deployer.DefaultMinDepositCost))

	s, err := deploy(ctx, chain, kv, cfg, b.ChainID, signers)
	if err != nil {
		return nil, err
	}
	for _, r := range cfg.Reserves {
		if r.Amount == nil {
			continue
		}
		chain.Fund(s.Engine.Address(), types.OperationPayment{
			TokenID: r.Token,
			Nonce:   r.Nonce,
			Data:    types.TokenData{Type: types.TokenTypeFungible, Amount: r.Amount},
		})
	}

	b.Signatures = nil
	signable, err := sovbridge.NewSignable(b, s)
	if err != nil {
		return nil, err
	}
	for _, signer := range signers {
		if _, err = signable.SignAndAppend(signer); err != nil {
			return nil, err
		}
	}

	res := &SimulationResult{ChainID: s.ChainID, BatchDigest: signable.Digest()}

	executable, err := sovbridge.NewExecutable(b, s, s)
	if err != nil {
		return nil, err
	}

	if err = executable.Register(ctx); err == nil {
		res.Outcomes, err = executable.ExecuteAll(ctx)
	}
	if err != nil {
		res.Error = err.Error()
	}

	for _, ev := range chain.Events() {
		res.Events = append(res.Events, simulatedEvent{ID: ev.EventID(), Event: ev})
	}

	return res, nil
}

func deploy(
	ctx context.Context,
	chain *host.Chain,
	kv storage.KVStore,
	cfg *SimulationConfig,
	chainID string,
	signers []*sovbridge.PrivateKeySigner,
) (*deployer.Sovereign, error) {
	forge, err := deployer.New(simForgeAddr, chain, kv, deployer.DefaultConfig())
	if err != nil {
		return nil, err
	}

	rec, deployed, err := forge.Record(simCreatorAddr)
	if err != nil {
		return nil, err
	}
	if deployed {
		return resume(forge, rec, chainID)
	}

	deposit := types.NewFungiblePayment(types.NativeTokenID, deployer.DefaultMinDepositCost)
	if _, err = forge.DeployPhaseOne(ctx, simCreatorAddr, deposit, chainID, cfg.SovereignConfig); err != nil {
		return nil, fmt.Errorf("phase one: %w", err)
	}
	if _, err = forge.DeployPhaseTwo(ctx, simCreatorAddr, cfg.EngineConfig); err != nil {
		return nil, fmt.Errorf("phase two: %w", err)
	}
	if _, err = forge.DeployPhaseThree(ctx, simCreatorAddr, cfg.Fee); err != nil {
		return nil, fmt.Errorf("phase three: %w", err)
	}
	if _, err = forge.DeployPhaseFour(ctx, simCreatorAddr); err != nil {
		return nil, fmt.Errorf("phase four: %w", err)
	}

	s, err := forge.Sovereign(chainID)
	if err != nil {
		return nil, err
	}

	stake := cfg.stake()
	for _, signer := range signers {
		addr, aerr := signer.GetAddress()
		if aerr != nil {
			return nil, aerr
		}
		var payment *types.OperationPayment
		if stake.Sign() > 0 {
			p := types.NewFungiblePayment(types.NativeTokenID, stake)
			chain.Fund(addr, p)
			payment = &p
		}
		if err = s.ChainConfig.RegisterValidator(ctx, addr, payment); err != nil {
			return nil, fmt.Errorf("registering validator %s: %w", addr, err)
		}
	}

	if err = forge.CompleteSetupPhase(ctx, simCreatorAddr); err != nil {
		return nil, fmt.Errorf("completing setup: %w", err)
	}

	return s, nil
}

// resume returns the sovereign chain a previous simulation deployed into the database.
func resume(forge *deployer.Forge, rec types.SovereignDeploymentRecord, chainID string) (*deployer.Sovereign, error) {
	if rec.ChainID != chainID {
		return nil, fmt.Errorf("database holds sovereign chain %s, the batch targets %s", rec.ChainID, chainID)
	}
	if !rec.SetupComplete {
		return nil, fmt.Errorf("deployment of %s in the database did not complete", rec.ChainID)
	}

	return forge.Sovereign(chainID)
}

func (c *SimulationConfig) stake() *big.Int {
	if c.SovereignConfig == nil {
		return new(big.Int)
	}

	return c.SovereignConfig.Stake()
}
