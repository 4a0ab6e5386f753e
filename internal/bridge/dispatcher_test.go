package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"multichain-proxy/internal/feeconfig"
	"multichain-proxy/internal/fees"
	"multichain-proxy/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	caller     = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	usdt       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	transit    = common.HexToAddress("0x0000000000000000000000000000000000000002")
	integrator = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type transferCall struct {
	asset   common.Address
	account common.Address
	amount  *big.Int
}

type fakeAssets struct {
	pulls   []transferCall
	pushes  []transferCall
	pullErr error
	pushErr error
}

func (f *fakeAssets) Pull(ctx context.Context, asset, from common.Address, amount *big.Int) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulls = append(f.pulls, transferCall{asset, from, new(big.Int).Set(amount)})
	return nil
}

func (f *fakeAssets) Push(ctx context.Context, asset, to common.Address, amount *big.Int) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, transferCall{asset, to, new(big.Int).Set(amount)})
	return nil
}

type fakeSwapper struct {
	out    *big.Int
	err    error
	gotIn  *big.Int
	gotMin *big.Int
	called int
}

func (f *fakeSwapper) Swap(ctx context.Context, inputAsset common.Address, inputAmount *big.Int,
	outputAsset common.Address, minOutputAmount *big.Int, payload []byte) (*big.Int, error) {
	f.called++
	f.gotIn = new(big.Int).Set(inputAmount)
	if minOutputAmount != nil {
		f.gotMin = new(big.Int).Set(minOutputAmount)
	}
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.out), nil
}

type forwardCall struct {
	asset     common.Address
	amount    *big.Int
	dstChain  uint64
	recipient string
}

type fakeRouter struct {
	calls []forwardCall
	err   error
}

func (f *fakeRouter) Forward(ctx context.Context, asset common.Address, amount *big.Int,
	destinationChainID uint64, destinationAsset common.Address, recipient string, routerID string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, forwardCall{asset, new(big.Int).Set(amount), destinationChainID, recipient})
	return nil
}

type fakePublisher struct {
	events []RequestSentEvent
	err    error
}

func (f *fakePublisher) PublishRequestSent(ctx context.Context, event RequestSentEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	dispatcher *Dispatcher
	store      *feeconfig.MemoryStore
	ledger     *ledger.MemoryLedger
	assets     *fakeAssets
	swapper    *fakeSwapper
	router     *fakeRouter
	publisher  *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := feeconfig.NewMemoryStore(feeconfig.Global{
		FixedCryptoFee:       big.NewInt(1000),
		PlatformTokenFeeRate: 30000, // 3%
	})
	require.NoError(t, store.SetIntegratorInfo(context.Background(), integrator, feeconfig.IntegratorProfile{
		IsIntegrator:             true,
		TokenFeeRate:             60000,  // 6%
		PlatformTokenShare:       400000, // platform keeps 40% of the token fee
		PlatformFixedCryptoShare: 250000, // platform keeps 25% of the crypto fee
	}))

	f := &fixture{
		store:     store,
		ledger:    ledger.NewMemoryLedger(),
		assets:    &fakeAssets{},
		swapper:   &fakeSwapper{out: big.NewInt(900)},
		router:    &fakeRouter{},
		publisher: &fakePublisher{},
	}
	f.dispatcher = NewDispatcher(fees.NewCalculator(store), f.ledger, f.assets, f.swapper, f.router, f.publisher)
	return f
}

func tokenRequest() Request {
	return Request{
		Caller:             caller,
		SourceAsset:        usdt,
		SourceAmount:       big.NewInt(1000),
		DestinationChainID: 137,
		DestinationAsset:   transit,
		Recipient:          "0x00000000000000000000000000000000000000ff",
		Integrator:         integrator,
		Router:             "anyswap-v4",
	}
}

func TestBridgeTokenHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	require.NoError(t, err)

	// Gross amount pulled from the caller.
	require.Len(t, f.assets.pulls, 1)
	assert.Equal(t, usdt, f.assets.pulls[0].asset)
	assert.Equal(t, "1000", f.assets.pulls[0].amount.String())
	assert.Empty(t, f.assets.pushes)

	// Net amount forwarded: 1000 - 6% = 940.
	require.Len(t, f.router.calls, 1)
	assert.Equal(t, "940", f.router.calls[0].amount.String())
	assert.Equal(t, usdt, f.router.calls[0].asset)

	// Token fee 60 split 24/36, crypto fee 1000 split 250/750.
	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	integ, _ := f.ledger.IntegratorTokenBalance(ctx, usdt, integrator)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	integCrypto, _ := f.ledger.IntegratorCryptoBalance(ctx, integrator)
	assert.Equal(t, "24", platform.String())
	assert.Equal(t, "36", integ.String())
	assert.Equal(t, "250", platformCrypto.String())
	assert.Equal(t, "750", integCrypto.String())

	// Event published exactly once with the forwarded amount.
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, event.RequestID, f.publisher.events[0].RequestID)
	assert.Equal(t, "940", f.publisher.events[0].BridgedAmount)
	assert.NotEmpty(t, event.RequestID)

	// No swap on the plain route.
	assert.Zero(t, f.swapper.called)
}

func TestBridgeTokenValueMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Crypto fee is 1000, anything else must be rejected before custody
	// moves.
	for _, attached := range []*big.Int{big.NewInt(0), big.NewInt(999), big.NewInt(1001), nil} {
		_, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), attached)
		assert.ErrorIs(t, err, ErrValueMismatch)
	}

	assert.Empty(t, f.assets.pulls)
	assert.Empty(t, f.router.calls)
	assert.Empty(t, f.publisher.events)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	assert.Equal(t, "0", platform.String())
}

func TestBridgeNativeHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.SourceAsset = common.Address{}

	// Native: attached value carries principal + crypto fee.
	_, err := f.dispatcher.BridgeNative(ctx, req, big.NewInt(2000))
	require.NoError(t, err)

	// Nothing pulled, value already travelled with the call.
	assert.Empty(t, f.assets.pulls)

	// Token fee pools keyed by the native zero address.
	platform, _ := f.ledger.PlatformTokenBalance(ctx, ledger.NativeAsset)
	integ, _ := f.ledger.IntegratorTokenBalance(ctx, ledger.NativeAsset, integrator)
	assert.Equal(t, "24", platform.String())
	assert.Equal(t, "36", integ.String())

	require.Len(t, f.router.calls, 1)
	assert.Equal(t, "940", f.router.calls[0].amount.String())
}

func TestSourceAssetMustMatchShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Token source asset into the native entry points: the proxy never
	// pulled the token, so it must not forward it.
	req := tokenRequest()
	_, err := f.dispatcher.BridgeNative(ctx, req, big.NewInt(2000))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.dispatcher.BridgeNativeWithSwap(ctx, req, big.NewInt(2000))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Zero source asset into the token entry points.
	req.SourceAsset = common.Address{}
	_, err = f.dispatcher.BridgeToken(ctx, req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.dispatcher.BridgeTokenWithSwap(ctx, req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Empty(t, f.assets.pulls)
	assert.Empty(t, f.assets.pushes)
	assert.Empty(t, f.router.calls)
	assert.Empty(t, f.publisher.events)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, ledger.NativeAsset)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	assert.Equal(t, "0", platform.String())
	assert.Equal(t, "0", platformCrypto.String())
}

func TestBridgeNativeValueMismatch(t *testing.T) {
	f := newFixture(t)

	req := tokenRequest()
	req.SourceAsset = common.Address{}

	// Exactly the crypto fee, missing the principal.
	_, err := f.dispatcher.BridgeNative(context.Background(), req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrValueMismatch)
	assert.Empty(t, f.router.calls)
}

func TestBridgeTokenWithSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.MinDestinationAmount = big.NewInt(900)
	f.swapper.out = big.NewInt(925)

	event, err := f.dispatcher.BridgeTokenWithSwap(ctx, req, big.NewInt(1000))
	require.NoError(t, err)

	// The net amount is swapped, the swap output forwarded as the transit
	// asset.
	assert.Equal(t, "940", f.swapper.gotIn.String())
	require.Len(t, f.router.calls, 1)
	assert.Equal(t, transit, f.router.calls[0].asset)
	assert.Equal(t, "925", f.router.calls[0].amount.String())
	assert.Equal(t, "925", event.BridgedAmount)
}

func TestBridgeNativeWithSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.SourceAsset = common.Address{}
	req.MinDestinationAmount = big.NewInt(900)
	f.swapper.out = big.NewInt(925)

	// Attached value carries principal + crypto fee; the net native amount
	// is swapped and the output forwarded as the transit asset.
	event, err := f.dispatcher.BridgeNativeWithSwap(ctx, req, big.NewInt(2000))
	require.NoError(t, err)

	assert.Empty(t, f.assets.pulls)
	assert.Equal(t, "940", f.swapper.gotIn.String())
	require.Len(t, f.router.calls, 1)
	assert.Equal(t, transit, f.router.calls[0].asset)
	assert.Equal(t, "925", f.router.calls[0].amount.String())
	assert.Equal(t, "925", event.BridgedAmount)

	// Token fee keyed by the native zero address, crypto fee in its own
	// pools.
	platform, _ := f.ledger.PlatformTokenBalance(ctx, ledger.NativeAsset)
	integ, _ := f.ledger.IntegratorTokenBalance(ctx, ledger.NativeAsset, integrator)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	assert.Equal(t, "24", platform.String())
	assert.Equal(t, "36", integ.String())
	assert.Equal(t, "250", platformCrypto.String())
}

func TestNativeSwapSlippageRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.SourceAsset = common.Address{}
	req.MinDestinationAmount = big.NewInt(900)
	f.swapper.out = big.NewInt(899)

	_, err := f.dispatcher.BridgeNativeWithSwap(ctx, req, big.NewInt(2000))
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// No forward, no event, fees rolled back. Nothing to push back: the
	// attached value never entered treasury custody.
	assert.Empty(t, f.router.calls)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.assets.pushes)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, ledger.NativeAsset)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	assert.Equal(t, "0", platform.String())
	assert.Equal(t, "0", platformCrypto.String())
}

func TestSlippageRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.MinDestinationAmount = big.NewInt(900)
	f.swapper.out = big.NewInt(899)

	_, err := f.dispatcher.BridgeTokenWithSwap(ctx, req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// Fees rolled back, no forward, no event, pulled funds refunded.
	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	assert.Equal(t, "0", platform.String())
	assert.Equal(t, "0", platformCrypto.String())

	assert.Empty(t, f.router.calls)
	assert.Empty(t, f.publisher.events)

	require.Len(t, f.assets.pushes, 1)
	assert.Equal(t, caller, f.assets.pushes[0].account)
	assert.Equal(t, "1000", f.assets.pushes[0].amount.String())
}

func TestSwapAdapterSentinelPassesThrough(t *testing.T) {
	f := newFixture(t)

	req := tokenRequest()
	req.MinDestinationAmount = big.NewInt(900)
	f.swapper.err = ErrSlippageExceeded

	_, err := f.dispatcher.BridgeTokenWithSwap(context.Background(), req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrSlippageExceeded)
	assert.NotErrorIs(t, err, ErrExternalCollaboratorFailure)
}

func TestForwardFailureRefundsPull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.router.err = errors.New("relay down")

	_, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	assert.ErrorIs(t, err, ErrExternalCollaboratorFailure)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	assert.Equal(t, "0", platform.String())
	assert.Empty(t, f.publisher.events)

	require.Len(t, f.assets.pushes, 1)
	assert.Equal(t, "1000", f.assets.pushes[0].amount.String())
}

func TestPullFailureStopsRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assets.pullErr = errors.New("allowance too low")

	_, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	assert.ErrorIs(t, err, ErrExternalCollaboratorFailure)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	assert.Equal(t, "0", platform.String())
	assert.Empty(t, f.assets.pushes)
	assert.Empty(t, f.router.calls)
}

func TestPublishFailureDoesNotRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.err = errors.New("nats down")

	_, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	require.NoError(t, err)

	// The request settled even though the notification was lost.
	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	assert.Equal(t, "24", platform.String())
	require.Len(t, f.router.calls, 1)
}

func TestInvalidAmountRejected(t *testing.T) {
	f := newFixture(t)

	req := tokenRequest()
	req.SourceAmount = big.NewInt(0)
	_, err := f.dispatcher.BridgeToken(context.Background(), req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	req.SourceAmount = nil
	_, err = f.dispatcher.BridgeToken(context.Background(), req, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNoIntegratorAllFeesToPlatform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := tokenRequest()
	req.Integrator = common.Address{}

	// Global rate 3%: fee 30, net 970, crypto fee all platform.
	_, err := f.dispatcher.BridgeToken(ctx, req, big.NewInt(1000))
	require.NoError(t, err)

	platform, _ := f.ledger.PlatformTokenBalance(ctx, usdt)
	integ, _ := f.ledger.IntegratorTokenBalance(ctx, usdt, integrator)
	platformCrypto, _ := f.ledger.PlatformCryptoBalance(ctx)
	assert.Equal(t, "30", platform.String())
	assert.Equal(t, "0", integ.String())
	assert.Equal(t, "1000", platformCrypto.String())

	require.Len(t, f.router.calls, 1)
	assert.Equal(t, "970", f.router.calls[0].amount.String())

	require.Len(t, f.publisher.events, 1)
	assert.Empty(t, f.publisher.events[0].Integrator)
}

func TestProfileChangeAppliesToNextRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	require.NoError(t, err)

	// Drop the integrator's token fee to 1%.
	require.NoError(t, f.store.SetIntegratorInfo(ctx, integrator, feeconfig.IntegratorProfile{
		IsIntegrator:       true,
		TokenFeeRate:       10000,
		PlatformTokenShare: 400000,
	}))

	_, err = f.dispatcher.BridgeToken(ctx, tokenRequest(), big.NewInt(1000))
	require.NoError(t, err)

	// Second forward reflects the new rate immediately.
	require.Len(t, f.router.calls, 2)
	assert.Equal(t, "940", f.router.calls[0].amount.String())
	assert.Equal(t, "990", f.router.calls[1].amount.String())
}
