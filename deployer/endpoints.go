package deployer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/engine"
	abiUtils "github.com/smartcontractkit/sovbridge/internal/utils/abi"
	"github.com/smartcontractkit/sovbridge/registry"
	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

// Endpoint names registered on the host router.
const (
	EndpointDeposit  = "deposit"
	EndpointExecute  = "executeBridgeOps"
	EndpointRegister = "registerBridgeOps"
)

// Gas consumed by the endpoints.
const (
	DepositGasCost  uint64 = 5_000_000
	ExecuteGasCost  uint64 = 10_000_000
	RegisterGasCost uint64 = 10_000_000
)

var ErrInvalidEndpointArgs = errors.New("invalid endpoint arguments")

// EncodeDepositArgs builds the arguments of the deposit endpoint: the destination, then optionally
// the transfer directive as function, gas limit and call arguments.
func EncodeDepositArgs(to common.Address, td *types.TransferData) [][]byte {
	args := [][]byte{to.Bytes()}
	if td == nil {
		return args
	}

	args = append(args, td.Function, binary.BigEndian.AppendUint64(nil, td.GasLimit))

	return append(args, td.Args...)
}

func decodeDepositArgs(req sdk.CallRequest) (common.Address, *types.TransferData, error) {
	if len(req.Args) == 0 || len(req.Args[0]) != common.AddressLength {
		return common.Address{}, nil, fmt.Errorf("%w: missing destination", ErrInvalidEndpointArgs)
	}
	to := common.BytesToAddress(req.Args[0])
	if len(req.Args) == 1 {
		return to, nil, nil
	}

	if len(req.Args) < 3 || len(req.Args[2]) != 8 { //nolint:mnd
		return common.Address{}, nil, fmt.Errorf("%w: malformed transfer directive", ErrInvalidEndpointArgs)
	}

	td := &types.TransferData{
		Function: req.Args[1],
		GasLimit: binary.BigEndian.Uint64(req.Args[2]),
	}
	if len(req.Args) > 3 { //nolint:mnd
		td.Args = req.Args[3:]
	}

	return to, td, nil
}

// depositHandler deposits on behalf of the contract caller. When the engine charges a fee, the
// first payment pays it.
func depositHandler(e *engine.Engine, ledger sdk.Ledger) func(ctx context.Context, req sdk.CallRequest) error {
	return func(ctx context.Context, req sdk.CallRequest) error {
		to, td, err := decodeDepositArgs(req)
		if err != nil {
			return err
		}

		args := engine.DepositArgs{To: to, Payments: req.Payments, TransferData: td}
		if e.FeeEnabled() && len(req.Payments) > 0 {
			fee := req.Payments[0]
			args.FeePayment = &fee
			args.Payments = req.Payments[1:]
		}

		// The router already moved the payments to the engine, hand them back so the deposit
		// takes custody the usual way.
		if len(req.Payments) > 0 {
			if err = ledger.Transfer(ctx, req.To, req.From, req.Payments...); err != nil {
				return err
			}
		}

		if _, err = e.Deposit(ctx, req.From, args); err != nil {
			if len(req.Payments) > 0 {
				if rerr := ledger.Transfer(ctx, req.From, req.To, req.Payments...); rerr != nil {
					return errors.Join(err, rerr)
				}
			}

			return err
		}

		return nil
	}
}

// EncodeExecuteArgs builds the arguments of the execute endpoint.
func EncodeExecuteArgs(batchDigest common.Hash, op types.Operation) ([][]byte, error) {
	raw, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	return [][]byte{batchDigest.Bytes(), raw}, nil
}

func executeHandler(e *engine.Engine) func(ctx context.Context, req sdk.CallRequest) error {
	return func(ctx context.Context, req sdk.CallRequest) error {
		if len(req.Args) != 2 || len(req.Args[0]) != common.HashLength { //nolint:mnd
			return fmt.Errorf("%w: expected batch digest and operation", ErrInvalidEndpointArgs)
		}

		var op types.Operation
		if err := json.Unmarshal(req.Args[1], &op); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEndpointArgs, err)
		}

		_, err := e.ExecuteOperations(ctx, common.BytesToHash(req.Args[0]), op)

		return err
	}
}

const registerArgsABI = `[{"type":"bytes"},{"type":"bytes32"},{"type":"bytes"},{"type":"uint64"},{"type":"bytes32[]"}]`

// EncodeRegisterArgs builds the single ABI-encoded argument of the register endpoint.
func EncodeRegisterArgs(signature []byte, batchDigest common.Hash, bitmap types.ValidatorBitmap, epoch uint64, hashes []common.Hash) ([][]byte, error) {
	raw := make([][32]byte, len(hashes))
	for i, h := range hashes {
		raw[i] = h
	}

	encoded, err := abiUtils.Encode(registerArgsABI, signature, [32]byte(batchDigest), []byte(bitmap), epoch, raw)
	if err != nil {
		return nil, err
	}

	return [][]byte{encoded}, nil
}

func registerHandler(r *registry.Registry) func(ctx context.Context, req sdk.CallRequest) error {
	return func(ctx context.Context, req sdk.CallRequest) error {
		if len(req.Args) != 1 {
			return fmt.Errorf("%w: expected a single encoded argument", ErrInvalidEndpointArgs)
		}

		values, err := abiUtils.Decode(registerArgsABI, req.Args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEndpointArgs, err)
		}

		signature, _ := values[0].([]byte)
		digest, _ := values[1].([32]byte)
		bitmap, _ := values[2].([]byte)
		epoch, _ := values[3].(uint64)
		raw, _ := values[4].([][32]byte)

		hashes := make([]common.Hash, len(raw))
		for i, h := range raw {
			hashes[i] = h
		}

		return r.Register(ctx, signature, digest, bitmap, epoch, hashes)
	}
}
