package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetTransfer moves custody of source funds. Both operations are
// assumed to fail atomically: a returned error means no partial movement.
type AssetTransfer interface {
	// Pull draws amount of asset from the caller's custody into the proxy.
	Pull(ctx context.Context, asset common.Address, from common.Address, amount *big.Int) error
	// Push pays amount of asset out of the proxy to the recipient.
	Push(ctx context.Context, asset common.Address, to common.Address, amount *big.Int) error
}

// SwapAdapter converts one asset into another before bridging. The
// adapter must fail when the output would be below minOutputAmount.
type SwapAdapter interface {
	Swap(ctx context.Context, inputAsset common.Address, inputAmount *big.Int,
		outputAsset common.Address, minOutputAmount *big.Int, payload []byte) (*big.Int, error)
}

// Router hands the net principal to the cross-chain relay. Fire-and-forget
// once it returns nil.
type Router interface {
	Forward(ctx context.Context, asset common.Address, amount *big.Int,
		destinationChainID uint64, destinationAsset common.Address, recipient string, routerID string) error
}

// EventPublisher delivers the RequestSent notification to off-chain
// observers, exactly once per successful request.
type EventPublisher interface {
	PublishRequestSent(ctx context.Context, event RequestSentEvent) error
}

// RequestSentEvent carries the resolved parameters of a successful bridge
// request.
type RequestSentEvent struct {
	RequestID          string `json:"request_id"`
	SourceAsset        string `json:"source_asset"`
	SourceAmount       string `json:"source_amount"`
	DestinationChainID uint64 `json:"destination_chain_id"`
	DestinationAsset   string `json:"destination_asset"`
	Recipient          string `json:"recipient"`
	Integrator         string `json:"integrator,omitempty"`
	Router             string `json:"router"`
	BridgedAmount      string `json:"bridged_amount"` // net amount handed to the router
	Timestamp          int64  `json:"timestamp"`
}
