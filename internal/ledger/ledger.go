package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNegativeCredit rejects any attempt to decrement a pool through the
// credit path. Pools only shrink through an explicit Collect.
var ErrNegativeCredit = errors.New("ledger credits must not be negative")

// NativeAsset is the ledger key of the chain's native coin.
var NativeAsset = common.Address{}

// Tx stages credits inside one atomic bridge request. Nothing staged is
// observable until the surrounding unit of work commits.
type Tx interface {
	CreditPlatformToken(asset common.Address, amount *big.Int) error
	CreditIntegratorToken(asset, integrator common.Address, amount *big.Int) error
	CreditPlatformCrypto(amount *big.Int) error
	CreditIntegratorCrypto(integrator common.Address, amount *big.Int) error
}

// Ledger tracks withdrawable fee balances. Token pools are keyed by asset
// (native = zero address) and by (asset, integrator); the fixed crypto
// fee lives in separate native-denominated pools and is never commingled
// with the token pools.
//
// Credits are strictly additive. Balances decrease only through the
// Collect operations, each of which zeroes a pool and returns the amount
// that was held so the caller can pay it out.
type Ledger interface {
	// WithinTx runs fn as one atomic unit: either every credit staged by
	// fn commits together with fn returning nil, or none of them do.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	PlatformTokenBalance(ctx context.Context, asset common.Address) (*big.Int, error)
	IntegratorTokenBalance(ctx context.Context, asset, integrator common.Address) (*big.Int, error)
	PlatformCryptoBalance(ctx context.Context) (*big.Int, error)
	IntegratorCryptoBalance(ctx context.Context, integrator common.Address) (*big.Int, error)

	CollectPlatformToken(ctx context.Context, asset common.Address) (*big.Int, error)
	CollectIntegratorToken(ctx context.Context, asset, integrator common.Address) (*big.Int, error)
	CollectPlatformCrypto(ctx context.Context) (*big.Int, error)
	CollectIntegratorCrypto(ctx context.Context, integrator common.Address) (*big.Int, error)
}
