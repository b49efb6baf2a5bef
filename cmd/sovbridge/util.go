package sovbridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/smartcontractkit/sovbridge"
	"github.com/smartcontractkit/sovbridge/sdk"
)

// loadEnv loads the .env file of the working directory when there is one.
func loadEnv() error {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func loadPrivateKeySigner() (*sovbridge.PrivateKeySigner, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	pk := os.Getenv("PRIVATE_KEY")
	if pk == "" {
		return nil, errors.New("PRIVATE_KEY not found in environment or .env file")
	}

	return sovbridge.NewPrivateKeySignerFromHex(pk)
}

// loadValidatorSigners reads the comma separated validator keys of VALIDATOR_KEYS.
func loadValidatorSigners() ([]*sovbridge.PrivateKeySigner, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	raw := os.Getenv("VALIDATOR_KEYS")
	if raw == "" {
		return nil, errors.New("VALIDATOR_KEYS not found in environment or .env file")
	}

	var signers []*sovbridge.PrivateKeySigner
	for i, key := range strings.Split(raw, ",") {
		signer, err := sovbridge.NewPrivateKeySignerFromHex(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("validator key %d: %w", i, err)
		}
		signers = append(signers, signer)
	}

	return signers, nil
}

func loadBatch(path string) (*sovbridge.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return sovbridge.LoadBatch(f)
}

func writeBatch(path string, b *sovbridge.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = sovbridge.WriteBatch(f, b); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// staticInspector serves a fixed validator set for every epoch.
type staticInspector struct {
	validators []common.Address
}

func (s staticInspector) CurrentEpoch() (uint64, error) { return 0, nil }

func (s staticInspector) Validators(uint64) ([]common.Address, error) {
	return s.validators, nil
}

func parseAddresses(raw []string) ([]common.Address, error) {
	addrs := make([]common.Address, 0, len(raw))
	for _, r := range raw {
		if !common.IsHexAddress(r) {
			return nil, fmt.Errorf("invalid address %q", r)
		}
		addrs = append(addrs, common.HexToAddress(r))
	}

	return addrs, nil
}

// contextWithLogger attaches a zap logger to ctx: a development logger when verbose, a no-op
// logger otherwise.
func contextWithLogger(ctx context.Context, verbose bool) (context.Context, func()) {
	logger := zap.NewNop()
	if verbose {
		logger = zap.Must(zap.NewDevelopment())
	}

	return sdk.ContextWithLogger(ctx, logger.Sugar()), func() { _ = logger.Sync() }
}
