package sovbridge

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/sdk"
	"github.com/smartcontractkit/sovbridge/types"
)

// Executable is a signed batch ready to be submitted: it registers the batch with the target
// registry and then executes its commands one by one.
type Executable struct {
	batch    *Batch
	signable *Signable
	executor sdk.Executor
	hashes   []common.Hash
}

// NewExecutable creates a new Executable from a signed batch, the executor of the target chain and
// the inspector used to order the signatures.
func NewExecutable(batch *Batch, executor sdk.Executor, inspector sdk.Inspector, opts ...SignableOption) (*Executable, error) {
	signable, err := NewSignable(batch, inspector, opts...)
	if err != nil {
		return nil, err
	}

	hashes, err := batch.Hashes()
	if err != nil {
		return nil, err
	}

	return &Executable{
		batch:    batch,
		signable: signable,
		executor: executor,
		hashes:   hashes,
	}, nil
}

// Register submits the aggregated signatures and the command hashes to the registry.
func (e *Executable) Register(ctx context.Context) error {
	if _, err := e.signable.ValidateSignatures(); err != nil {
		return err
	}

	signature, bitmap, err := e.signable.Aggregate()
	if err != nil {
		return err
	}

	return e.executor.Register(ctx, signature, e.signable.Digest(), bitmap, e.batch.Epoch, e.hashes)
}

// Execute runs the command at index. The batch must be registered.
func (e *Executable) Execute(ctx context.Context, index int) (types.ExecutionOutcome, error) {
	cmd, err := e.batch.Command(index)
	if err != nil {
		return "", err
	}

	sdk.LoggerFrom(ctx).Debugf("executing %s command %d of batch %s", cmd.Kind(), index, e.signable.Digest())

	return e.executor.Execute(ctx, e.signable.Digest(), cmd)
}

// ExecuteAll runs every command in order and stops at the first failure. The outcomes of the
// commands executed so far are returned with the error.
func (e *Executable) ExecuteAll(ctx context.Context) ([]types.ExecutionOutcome, error) {
	outcomes := make([]types.ExecutionOutcome, 0, len(e.batch.Commands))
	for i := range e.batch.Commands {
		outcome, err := e.Execute(ctx, i)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// CommandHash returns the hash of the command at index.
func (e *Executable) CommandHash(index int) (common.Hash, error) {
	if index < 0 || index >= len(e.hashes) {
		return common.Hash{}, NewCommandIndexOutOfRangeError(index, len(e.hashes))
	}

	return e.hashes[index], nil
}
