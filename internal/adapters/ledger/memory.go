package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

// MemoryLedger is a reference ledger backend: per-account balances held in
// memory, settled through a single exchange account. Transfers in move funds
// from the sender to the exchange account, transfers out move funds from the
// exchange account to the recipient, so total supply per asset is conserved.
// It exists for local runs and tests; a real deployment replaces it with the
// settlement system's client.
type MemoryLedger struct {
	mu       sync.Mutex
	account  string
	balances map[string]map[domain.AssetID]*big.Int
}

func NewMemoryLedger(exchangeAccount string) *MemoryLedger {
	return &MemoryLedger{
		account:  exchangeAccount,
		balances: make(map[string]map[domain.AssetID]*big.Int),
	}
}

// Credit seeds an account balance. Test and bootstrap helper.
func (l *MemoryLedger) Credit(account string, asset domain.AssetID, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(account, asset, amount)
}

// Balance returns a copy of the account's balance for the asset.
func (l *MemoryLedger) Balance(account string, asset domain.AssetID) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if accts, ok := l.balances[account]; ok {
		if bal, ok := accts[asset]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return new(big.Int)
}

func (l *MemoryLedger) TransferIn(ctx context.Context, asset domain.AssetID, amount *big.Int, from string) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("invalid transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balance(from, asset)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: account %s holds %s %s, need %s", from, bal.String(), asset, amount.String())
	}
	bal.Sub(bal, amount)
	l.add(l.account, asset, amount)
	return nil
}

func (l *MemoryLedger) TransferOut(ctx context.Context, asset domain.AssetID, amount *big.Int, to string) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	held := l.balance(l.account, asset)
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient exchange balance: account %s holds %s %s, need %s", l.account, held.String(), asset, amount.String())
	}
	held.Sub(held, amount)
	l.add(to, asset, amount)
	return nil
}

func (l *MemoryLedger) balance(account string, asset domain.AssetID) *big.Int {
	accts, ok := l.balances[account]
	if !ok {
		accts = make(map[domain.AssetID]*big.Int)
		l.balances[account] = accts
	}
	bal, ok := accts[asset]
	if !ok {
		bal = new(big.Int)
		accts[asset] = bal
	}
	return bal
}

func (l *MemoryLedger) add(account string, asset domain.AssetID, amount *big.Int) {
	bal := l.balance(account, asset)
	bal.Add(bal, amount)
}

// Directory is a static asset directory built from configuration.
type Directory struct {
	assets map[domain.AssetID]domain.Asset
}

func NewDirectory(assets []domain.Asset) *Directory {
	m := make(map[domain.AssetID]domain.Asset, len(assets))
	for _, a := range assets {
		m[a.ID] = a
	}
	return &Directory{assets: m}
}

func (d *Directory) Lookup(id domain.AssetID) (domain.Asset, error) {
	a, ok := d.assets[id]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return a, nil
}

func (d *Directory) All() []domain.Asset {
	out := make([]domain.Asset, 0, len(d.assets))
	for _, a := range d.assets {
		out = append(out, a)
	}
	return out
}
