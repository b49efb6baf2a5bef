package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/sovbridge/sdk"
	sdkerrors "github.com/smartcontractkit/sovbridge/sdk/errors"
	"github.com/smartcontractkit/sovbridge/types"
)

// RegisterEndpoint makes function callable on the contract at addr.
func (c *Chain) RegisterEndpoint(addr common.Address, function string, endpoint Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.contracts[addr] == nil {
		c.contracts[addr] = make(map[string]Endpoint)
	}
	c.contracts[addr][function] = endpoint
}

// IsContract reports whether addr has any endpoint.
func (c *Chain) IsContract(addr common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.contracts[addr]

	return ok
}

// Call implements sdk.ContractCaller. The payments are moved to the callee before the handler
// runs and moved back when the call fails. The handler runs without the chain lock held so it may
// call back into contracts.
func (c *Chain) Call(ctx context.Context, req sdk.CallRequest) error {
	c.mu.Lock()
	endpoints, isContract := c.contracts[req.To]
	endpoint, found := endpoints[req.Function]
	c.mu.Unlock()

	switch {
	case !isContract:
		return sdkerrors.NewCallFailedError(req.To, req.Function, sdkerrors.ErrNotAContract)
	case !found:
		return sdkerrors.NewCallFailedError(req.To, req.Function, sdkerrors.ErrFunctionNotFound)
	case req.GasLimit < endpoint.GasCost:
		return sdkerrors.NewCallFailedError(req.To, req.Function, sdkerrors.ErrOutOfGas)
	}

	if err := c.Transfer(ctx, req.From, req.To, req.Payments...); err != nil {
		return sdkerrors.NewCallFailedError(req.To, req.Function, err)
	}

	if err := endpoint.Handler(ctx, req); err != nil {
		if rerr := c.Transfer(ctx, req.To, req.From, req.Payments...); rerr != nil {
			return errors.Join(sdkerrors.NewCallFailedError(req.To, req.Function, err), fmt.Errorf("reverting payments: %w", rerr))
		}

		return sdkerrors.NewCallFailedError(req.To, req.Function, err)
	}

	return nil
}

// Emit implements sdk.EventEmitter.
func (c *Chain) Emit(ctx context.Context, event types.Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	sdk.LoggerFrom(ctx).Debugf("event %s emitted", event.EventID())
}

// Events returns every event emitted so far, oldest first.
func (c *Chain) Events() []types.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.Event, len(c.events))
	copy(out, c.events)

	return out
}

// EventsOf returns the events of type T emitted on c, oldest first.
func EventsOf[T types.Event](c *Chain) []T {
	var out []T
	for _, e := range c.Events() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}

	return out
}
