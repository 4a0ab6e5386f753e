package ledger

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryLedger keeps the fee pools in process memory. A single mutex
// serializes every mutation, standing in for the one-at-a-time
// transaction application an on-chain host would provide, so the
// additive-only / no-lost-update guarantee holds under concurrent
// requests.
type MemoryLedger struct {
	mu              sync.RWMutex
	platformToken   map[string]*big.Int // asset -> amount
	integratorToken map[string]*big.Int // asset|integrator -> amount
	platformCrypto  *big.Int
	cryptoByIntegr  map[string]*big.Int // integrator -> amount
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		platformToken:   make(map[string]*big.Int),
		integratorToken: make(map[string]*big.Int),
		platformCrypto:  new(big.Int),
		cryptoByIntegr:  make(map[string]*big.Int),
	}
}

func assetKey(asset common.Address) string {
	return strings.ToLower(asset.Hex())
}

func pairKey(asset, integrator common.Address) string {
	return assetKey(asset) + "|" + assetKey(integrator)
}

type stagedCredit struct {
	pool   string // "platformToken", "integratorToken", "platformCrypto", "integratorCrypto"
	key    string
	amount *big.Int
}

// memoryTx buffers credits until the unit of work commits.
type memoryTx struct {
	credits []stagedCredit
}

func (t *memoryTx) stage(pool, key string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeCredit
	}
	if amount.Sign() == 0 {
		return nil
	}
	t.credits = append(t.credits, stagedCredit{pool: pool, key: key, amount: new(big.Int).Set(amount)})
	return nil
}

func (t *memoryTx) CreditPlatformToken(asset common.Address, amount *big.Int) error {
	return t.stage("platformToken", assetKey(asset), amount)
}

func (t *memoryTx) CreditIntegratorToken(asset, integrator common.Address, amount *big.Int) error {
	return t.stage("integratorToken", pairKey(asset, integrator), amount)
}

func (t *memoryTx) CreditPlatformCrypto(amount *big.Int) error {
	return t.stage("platformCrypto", "", amount)
}

func (t *memoryTx) CreditIntegratorCrypto(integrator common.Address, amount *big.Int) error {
	return t.stage("integratorCrypto", assetKey(integrator), amount)
}

// WithinTx applies every credit staged by fn atomically, or none when fn
// returns an error.
func (l *MemoryLedger) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memoryTx{}
	if err := fn(tx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range tx.credits {
		switch c.pool {
		case "platformToken":
			addTo(l.platformToken, c.key, c.amount)
		case "integratorToken":
			addTo(l.integratorToken, c.key, c.amount)
		case "platformCrypto":
			l.platformCrypto.Add(l.platformCrypto, c.amount)
		case "integratorCrypto":
			addTo(l.cryptoByIntegr, c.key, c.amount)
		}
	}
	return nil
}

func addTo(pool map[string]*big.Int, key string, amount *big.Int) {
	cur, ok := pool[key]
	if !ok {
		cur = new(big.Int)
		pool[key] = cur
	}
	cur.Add(cur, amount)
}

func readFrom(pool map[string]*big.Int, key string) *big.Int {
	if cur, ok := pool[key]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

// PlatformTokenBalance returns the platform token-fee pool for asset.
func (l *MemoryLedger) PlatformTokenBalance(ctx context.Context, asset common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return readFrom(l.platformToken, assetKey(asset)), nil
}

// IntegratorTokenBalance returns the (asset, integrator) token-fee pool.
func (l *MemoryLedger) IntegratorTokenBalance(ctx context.Context, asset, integrator common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return readFrom(l.integratorToken, pairKey(asset, integrator)), nil
}

// PlatformCryptoBalance returns the platform's fixed crypto fee pool.
func (l *MemoryLedger) PlatformCryptoBalance(ctx context.Context) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.platformCrypto), nil
}

// IntegratorCryptoBalance returns the integrator's fixed crypto fee pool.
func (l *MemoryLedger) IntegratorCryptoBalance(ctx context.Context, integrator common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return readFrom(l.cryptoByIntegr, assetKey(integrator)), nil
}

func collectFrom(pool map[string]*big.Int, key string) *big.Int {
	cur, ok := pool[key]
	if !ok {
		return new(big.Int)
	}
	out := new(big.Int).Set(cur)
	cur.SetInt64(0)
	return out
}

// CollectPlatformToken zeroes the platform pool for asset and returns
// what it held.
func (l *MemoryLedger) CollectPlatformToken(ctx context.Context, asset common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return collectFrom(l.platformToken, assetKey(asset)), nil
}

// CollectIntegratorToken zeroes the (asset, integrator) pool and returns
// what it held.
func (l *MemoryLedger) CollectIntegratorToken(ctx context.Context, asset, integrator common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return collectFrom(l.integratorToken, pairKey(asset, integrator)), nil
}

// CollectPlatformCrypto zeroes the platform crypto pool and returns what
// it held.
func (l *MemoryLedger) CollectPlatformCrypto(ctx context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := new(big.Int).Set(l.platformCrypto)
	l.platformCrypto.SetInt64(0)
	return out, nil
}

// CollectIntegratorCrypto zeroes the integrator crypto pool and returns
// what it held.
func (l *MemoryLedger) CollectIntegratorCrypto(ctx context.Context, integrator common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return collectFrom(l.cryptoByIntegr, assetKey(integrator)), nil
}
