package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Shape selects one of the four entry-point variants. All four share the
// fee computation and ledger crediting; they differ only in value
// validation and forwarding.
type Shape int

const (
	TokenNoSwap Shape = iota
	NativeNoSwap
	TokenWithSwap
	NativeWithSwap
)

// String implements fmt.Stringer for logs and metrics labels.
func (s Shape) String() string {
	switch s {
	case TokenNoSwap:
		return "token"
	case NativeNoSwap:
		return "native"
	case TokenWithSwap:
		return "token_swap"
	case NativeWithSwap:
		return "native_swap"
	default:
		return "unknown"
	}
}

func (s Shape) nativeSource() bool {
	return s == NativeNoSwap || s == NativeWithSwap
}

func (s Shape) withSwap() bool {
	return s == TokenWithSwap || s == NativeWithSwap
}

// Request is the per-call bridge request. It is created at call entry,
// consumed synchronously within the dispatch, and never persisted.
type Request struct {
	Caller               common.Address
	SourceAsset          common.Address // zero address = native coin
	SourceAmount         *big.Int
	DestinationChainID   uint64
	DestinationAsset     common.Address // transit asset handed to the router on this chain
	MinDestinationAmount *big.Int
	Recipient            string
	Integrator           common.Address // zero address = no integrator
	Router               string
	SwapPayload          []byte // opaque adapter calldata, swap shapes only
}
