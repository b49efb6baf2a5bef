package sovbridge

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/smartcontractkit/sovbridge/types"
)

// BatchVersionV1 is the only batch file version.
const BatchVersionV1 = "v1"

// Batch is an ordered list of bridge commands for one sovereign chain, together with the
// validator signatures collected over its digest.
type Batch struct {
	Version     string                  `json:"version" validate:"required,oneof=v1"`
	ChainID     string                  `json:"chainId" validate:"required"`
	Epoch       uint64                  `json:"epoch"`
	Description string                  `json:"description"`
	Commands    []types.CommandEnvelope `json:"commands" validate:"required,min=1"`
	Signatures  []types.Signature       `json:"signatures" validate:"omitempty,dive"`
}

// NewBatch returns an unsigned batch of cmds for chainID, to be signed by the validators of epoch.
func NewBatch(chainID string, epoch uint64, cmds ...types.BridgeCommand) *Batch {
	envelopes := make([]types.CommandEnvelope, len(cmds))
	for i, cmd := range cmds {
		envelopes[i] = types.CommandEnvelope{Command: cmd}
	}

	return &Batch{
		Version:  BatchVersionV1,
		ChainID:  chainID,
		Epoch:    epoch,
		Commands: envelopes,
	}
}

// LoadBatch decodes and validates a batch.
func LoadBatch(reader io.Reader) (*Batch, error) {
	var out Batch
	if err := json.NewDecoder(reader).Decode(&out); err != nil {
		return nil, err
	}

	return &out, nil
}

// WriteBatch validates and encodes b as indented JSON.
func WriteBatch(w io.Writer, b *Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(b)
}

// MarshalJSON marshals the batch to JSON
func (b *Batch) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	type Alias Batch

	return json.Marshal((*Alias)(b))
}

// UnmarshalJSON unmarshals the JSON to a batch
func (b *Batch) UnmarshalJSON(data []byte) error {
	type Alias Batch
	if err := json.Unmarshal(data, (*Alias)(b)); err != nil {
		return err
	}

	return b.Validate()
}

// Validate checks the batch structure and every command it carries.
func (b *Batch) Validate() error {
	var validate = validator.New()
	if err := validate.Struct(b); err != nil {
		return err
	}

	if err := types.ValidateChainID(b.ChainID); err != nil {
		return err
	}

	return validateCommands(b.ChainID, b.BridgeCommands())
}

// BridgeCommands returns the commands of the batch, in order.
func (b *Batch) BridgeCommands() []types.BridgeCommand {
	cmds := make([]types.BridgeCommand, len(b.Commands))
	for i, env := range b.Commands {
		cmds[i] = env.Command
	}

	return cmds
}

// Hashes returns the canonical hash of every command, in order.
func (b *Batch) Hashes() ([]common.Hash, error) {
	return types.CommandHashes(b.BridgeCommands())
}

// Digest returns the hash of hashes the registry records the batch under.
func (b *Batch) Digest() (common.Hash, error) {
	hashes, err := b.Hashes()
	if err != nil {
		return common.Hash{}, err
	}

	return types.HashOfHashes(hashes)
}

// SigningHash returns the EIP-191 hash validators sign.
func (b *Batch) SigningHash() (common.Hash, error) {
	digest, err := b.Digest()
	if err != nil {
		return common.Hash{}, err
	}

	return types.SigningHash(digest), nil
}

// AppendSignature appends a signature to the batch's signature list.
func (b *Batch) AppendSignature(signature types.Signature) {
	b.Signatures = append(b.Signatures, signature)
}

// Command returns the command at index.
func (b *Batch) Command(index int) (types.BridgeCommand, error) {
	if index < 0 || index >= len(b.Commands) {
		return nil, NewCommandIndexOutOfRangeError(index, len(b.Commands))
	}

	return b.Commands[index].Command, nil
}
