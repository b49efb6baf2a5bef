// Package abi wraps go-ethereum's ABI codec for argument lists that are not bound to a contract
// method.
package abi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encode packs values as the tuple described by abiStr, the equivalent of Solidity's abi.encode.
// abiStr is a JSON array of argument types, e.g. `[{"type":"bytes32"},{"type":"uint64"}]`.
func Encode(abiStr string, values ...any) ([]byte, error) {
	inAbi, err := parse("inputs", abiStr)
	if err != nil {
		return nil, err
	}

	res, err := inAbi.Pack("method", values...)
	if err != nil {
		return nil, err
	}

	// strip the method selector
	return res[4:], nil
}

// Decode unpacks data encoded with Encode.
func Decode(abiStr string, data []byte) ([]any, error) {
	outAbi, err := parse("outputs", abiStr)
	if err != nil {
		return nil, err
	}

	return outAbi.Unpack("method", data)
}

func parse(field, abiStr string) (abi.ABI, error) {
	def := fmt.Sprintf(`[{ "name" : "method", "type": "function", %q: %s}]`, field, abiStr)

	return abi.JSON(strings.NewReader(def))
}
