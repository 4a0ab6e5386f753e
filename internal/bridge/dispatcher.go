package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"multichain-proxy/internal/fees"
	"multichain-proxy/internal/ledger"
	"multichain-proxy/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher is the four public bridge entry points. It validates the
// call, computes and credits fees, optionally pre-swaps, forwards the
// net principal to the external router and emits RequestSent. Each call
// is all-or-nothing: a failure anywhere leaves the ledger, custody and
// event stream untouched.
type Dispatcher struct {
	calc      *fees.Calculator
	ledger    ledger.Ledger
	assets    AssetTransfer
	swapper   SwapAdapter
	router    Router
	publisher EventPublisher
}

// NewDispatcher wires the dispatcher with its collaborators.
func NewDispatcher(calc *fees.Calculator, l ledger.Ledger, assets AssetTransfer,
	swapper SwapAdapter, router Router, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		calc:      calc,
		ledger:    l,
		assets:    assets,
		swapper:   swapper,
		router:    router,
		publisher: publisher,
	}
}

// BridgeToken bridges an ERC20-style token without a pre-swap. The
// attached value must equal the total crypto fee exactly.
func (d *Dispatcher) BridgeToken(ctx context.Context, req Request, attachedValue *big.Int) (RequestSentEvent, error) {
	return d.dispatch(ctx, TokenNoSwap, req, attachedValue)
}

// BridgeNative bridges the native coin without a pre-swap. The attached
// value must equal sourceAmount + total crypto fee exactly.
func (d *Dispatcher) BridgeNative(ctx context.Context, req Request, attachedValue *big.Int) (RequestSentEvent, error) {
	return d.dispatch(ctx, NativeNoSwap, req, attachedValue)
}

// BridgeTokenWithSwap pre-swaps the net token amount through the swap
// adapter before forwarding its output.
func (d *Dispatcher) BridgeTokenWithSwap(ctx context.Context, req Request, attachedValue *big.Int) (RequestSentEvent, error) {
	return d.dispatch(ctx, TokenWithSwap, req, attachedValue)
}

// BridgeNativeWithSwap pre-swaps the net native amount through the swap
// adapter before forwarding its output.
func (d *Dispatcher) BridgeNativeWithSwap(ctx context.Context, req Request, attachedValue *big.Int) (RequestSentEvent, error) {
	return d.dispatch(ctx, NativeWithSwap, req, attachedValue)
}

// dispatch is the shared path of the four entry points. The shapes
// differ only in value validation and in what is handed to the router.
func (d *Dispatcher) dispatch(ctx context.Context, shape Shape, req Request, attachedValue *big.Int) (RequestSentEvent, error) {
	start := time.Now()
	requestID := uuid.New().String()
	logger := logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"shape":      shape.String(),
		"dst_chain":  req.DestinationChainID,
	})

	event, err := d.run(ctx, shape, req, requestID, attachedValue, logger)
	status := "ok"
	if err != nil {
		status = "failed"
		logger.WithError(err).Warn("bridge request rejected")
	}
	metrics.BridgeRequestsTotal.WithLabelValues(shape.String(), status).Inc()
	metrics.BridgeRequestDuration.WithLabelValues(shape.String()).Observe(time.Since(start).Seconds())
	return event, err
}

func (d *Dispatcher) run(ctx context.Context, shape Shape, req Request, requestID string,
	attachedValue *big.Int, logger *logrus.Entry) (RequestSentEvent, error) {

	if req.SourceAmount == nil || req.SourceAmount.Sign() <= 0 {
		return RequestSentEvent{}, ErrInvalidAmount
	}

	// Each entry point is bound to its source asset kind: the native shapes
	// take the zero address, the token shapes a token address. A native call
	// naming a token would forward an asset that was never pulled.
	if shape.nativeSource() != (req.SourceAsset == ledger.NativeAsset) {
		return RequestSentEvent{}, fmt.Errorf("%w: source asset %s does not match the %s entry point",
			ErrInvalidAmount, strings.ToLower(req.SourceAsset.Hex()), shape.String())
	}

	if attachedValue == nil {
		attachedValue = new(big.Int)
	}

	cryptoFee, err := d.calc.CryptoFee(ctx, req.Integrator)
	if err != nil {
		return RequestSentEvent{}, err
	}

	// Native-sourced calls carry the principal inside the attached value;
	// token-sourced calls attach the crypto fee only.
	required := new(big.Int).Set(cryptoFee.Total)
	if shape.nativeSource() {
		required.Add(required, req.SourceAmount)
	}
	if attachedValue.Cmp(required) != 0 {
		return RequestSentEvent{}, fmt.Errorf("%w: attached %s, required %s",
			ErrValueMismatch, attachedValue.String(), required.String())
	}

	tokenFee, err := d.calc.TokenFee(ctx, req.SourceAmount, req.Integrator)
	if err != nil {
		return RequestSentEvent{}, err
	}

	// The fee is taken on the gross source amount; only the net amount is
	// swapped or forwarded. Token pools key native value by the zero address.
	feeAsset := req.SourceAsset
	if shape.nativeSource() {
		feeAsset = ledger.NativeAsset
	}

	pulled := false
	if !shape.nativeSource() {
		if err := d.assets.Pull(ctx, req.SourceAsset, req.Caller, req.SourceAmount); err != nil {
			metrics.CollaboratorFailuresTotal.WithLabelValues("treasury").Inc()
			return RequestSentEvent{}, fmt.Errorf("%w: pull: %v", ErrExternalCollaboratorFailure, err)
		}
		pulled = true
	}

	bridged := new(big.Int).Set(tokenFee.AmountWithoutFee)
	err = d.ledger.WithinTx(ctx, func(tx ledger.Tx) error {
		if err := d.creditFees(tx, feeAsset, req.Integrator, cryptoFee, tokenFee); err != nil {
			return err
		}

		forwardAsset := req.SourceAsset
		if shape.withSwap() {
			out, err := d.swapNet(ctx, req, bridged)
			if err != nil {
				return err
			}
			bridged.Set(out)
			forwardAsset = req.DestinationAsset
		}

		if err := d.router.Forward(ctx, forwardAsset, bridged, req.DestinationChainID,
			req.DestinationAsset, req.Recipient, req.Router); err != nil {
			metrics.CollaboratorFailuresTotal.WithLabelValues("router").Inc()
			return fmt.Errorf("%w: forward: %v", ErrExternalCollaboratorFailure, err)
		}
		return nil
	})
	if err != nil {
		if pulled {
			d.refund(ctx, req, logger)
		}
		return RequestSentEvent{}, err
	}

	event := RequestSentEvent{
		RequestID:          requestID,
		SourceAsset:        strings.ToLower(req.SourceAsset.Hex()),
		SourceAmount:       req.SourceAmount.String(),
		DestinationChainID: req.DestinationChainID,
		DestinationAsset:   strings.ToLower(req.DestinationAsset.Hex()),
		Recipient:          req.Recipient,
		Router:             req.Router,
		BridgedAmount:      bridged.String(),
		Timestamp:          time.Now().Unix(),
	}
	if req.Integrator != (common.Address{}) {
		event.Integrator = strings.ToLower(req.Integrator.Hex())
	}

	// The unit of work has committed: the request succeeded. A publish
	// failure here must not unwind settled fees, so it is logged instead.
	if err := d.publisher.PublishRequestSent(ctx, event); err != nil {
		metrics.EventPublishFailuresTotal.Inc()
		logger.WithError(err).Error("failed to publish RequestSent")
	} else {
		metrics.EventsPublishedTotal.Inc()
	}

	logger.WithFields(logrus.Fields{
		"source_amount":  req.SourceAmount.String(),
		"bridged_amount": bridged.String(),
		"token_fee":      tokenFee.FeeAmount.String(),
		"crypto_fee":     cryptoFee.Total.String(),
	}).Info("bridge request forwarded")
	return event, nil
}

// creditFees stages the token-fee and crypto-fee shares. The crypto fee
// never enters a token pool: it has its own native-denominated balances.
func (d *Dispatcher) creditFees(tx ledger.Tx, feeAsset, integrator common.Address,
	cryptoFee fees.CryptoFee, tokenFee fees.TokenFee) error {

	if err := tx.CreditPlatformToken(feeAsset, tokenFee.PlatformShare); err != nil {
		return err
	}
	if tokenFee.PlatformShare.Sign() > 0 {
		metrics.FeeCreditsTotal.WithLabelValues("platform", "token").Inc()
	}
	if tokenFee.IntegratorShare.Sign() > 0 {
		if err := tx.CreditIntegratorToken(feeAsset, integrator, tokenFee.IntegratorShare); err != nil {
			return err
		}
		metrics.FeeCreditsTotal.WithLabelValues("integrator", "token").Inc()
	}
	if err := tx.CreditPlatformCrypto(cryptoFee.PlatformShare); err != nil {
		return err
	}
	if cryptoFee.PlatformShare.Sign() > 0 {
		metrics.FeeCreditsTotal.WithLabelValues("platform", "crypto").Inc()
	}
	if cryptoFee.IntegratorShare.Sign() > 0 {
		if err := tx.CreditIntegratorCrypto(integrator, cryptoFee.IntegratorShare); err != nil {
			return err
		}
		metrics.FeeCreditsTotal.WithLabelValues("integrator", "crypto").Inc()
	}
	return nil
}

// swapNet converts the net amount into the transit asset and validates
// the adapter's output against the minimum destination amount.
func (d *Dispatcher) swapNet(ctx context.Context, req Request, netAmount *big.Int) (*big.Int, error) {
	start := time.Now()
	out, err := d.swapper.Swap(ctx, req.SourceAsset, netAmount,
		req.DestinationAsset, req.MinDestinationAmount, req.SwapPayload)
	metrics.CollaboratorCallDuration.WithLabelValues("swap_adapter").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ErrSlippageExceeded) {
			return nil, err
		}
		metrics.CollaboratorFailuresTotal.WithLabelValues("swap_adapter").Inc()
		return nil, fmt.Errorf("%w: swap: %v", ErrExternalCollaboratorFailure, err)
	}
	if req.MinDestinationAmount != nil && out.Cmp(req.MinDestinationAmount) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s",
			ErrSlippageExceeded, out.String(), req.MinDestinationAmount.String())
	}
	return out, nil
}

// refund compensates a successful pull when a later step failed, so a
// rejected request leaves custody unchanged.
func (d *Dispatcher) refund(ctx context.Context, req Request, logger *logrus.Entry) {
	if err := d.assets.Push(ctx, req.SourceAsset, req.Caller, req.SourceAmount); err != nil {
		metrics.CollaboratorFailuresTotal.WithLabelValues("treasury").Inc()
		logger.WithError(err).WithFields(logrus.Fields{
			"asset":  strings.ToLower(req.SourceAsset.Hex()),
			"amount": req.SourceAmount.String(),
		}).Error("failed to refund pulled funds")
	}
}
