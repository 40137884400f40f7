package token

import (
	"context"
	"fmt"

	"danledger/internal/auth"
)

// MemoryTokenService is an in-process token ledger implementing MintService,
// MetadataService, and AccountResolver. It backs unit tests and embedded dev
// mode; production deployments plug an external backend into the same
// interfaces.
type MemoryTokenService struct {
	mints    map[Asset]*memoryMint
	balances map[Account]uint64
}

type memoryMint struct {
	decimals  uint8
	authority [32]byte
	metadata  *mintMetadata
}

type mintMetadata struct {
	name   string
	symbol string
	uri    string
}

func NewMemoryTokenService() *MemoryTokenService {
	return &MemoryTokenService{
		mints:    make(map[Asset]*memoryMint),
		balances: make(map[Account]uint64),
	}
}

func (m *MemoryTokenService) CreateMint(ctx context.Context, asset Asset, decimals uint8, authority auth.Proof) error {
	if _, exists := m.mints[asset]; exists {
		return fmt.Errorf("mint %s already exists", asset)
	}
	m.mints[asset] = &memoryMint{decimals: decimals, authority: authority.Digest}
	return nil
}

func (m *MemoryTokenService) MintTo(ctx context.Context, asset Asset, to Account, baseAmount uint64, proof auth.Proof) error {
	mint, ok := m.mints[asset]
	if !ok {
		return fmt.Errorf("mint %s does not exist", asset)
	}
	if proof.Digest != mint.authority {
		return fmt.Errorf("mint %s: proof does not match mint authority", asset)
	}
	next := m.balances[to] + baseAmount
	if next < m.balances[to] {
		return fmt.Errorf("mint %s: supply overflow", asset)
	}
	m.balances[to] = next
	return nil
}

func (m *MemoryTokenService) Transfer(ctx context.Context, asset Asset, from, to Account, baseAmount uint64, proof auth.Proof) error {
	mint, ok := m.mints[asset]
	if !ok {
		return fmt.Errorf("mint %s does not exist", asset)
	}
	if proof.Digest != mint.authority {
		return fmt.Errorf("transfer %s: proof does not match mint authority", asset)
	}
	if m.balances[from] < baseAmount {
		return fmt.Errorf("transfer %s: account %s holds %d, need %d",
			asset, from.Holder, m.balances[from], baseAmount)
	}
	m.balances[from] -= baseAmount
	m.balances[to] += baseAmount
	return nil
}

func (m *MemoryTokenService) Decimals(ctx context.Context, asset Asset) (uint8, error) {
	mint, ok := m.mints[asset]
	if !ok {
		return 0, fmt.Errorf("mint %s does not exist", asset)
	}
	return mint.decimals, nil
}

func (m *MemoryTokenService) CreateMetadata(ctx context.Context, asset Asset, name, symbol, uri string, proof auth.Proof) error {
	mint, ok := m.mints[asset]
	if !ok {
		return fmt.Errorf("mint %s does not exist", asset)
	}
	if proof.Digest != mint.authority {
		return fmt.Errorf("metadata %s: proof does not match mint authority", asset)
	}
	if mint.metadata != nil {
		return fmt.Errorf("metadata %s already exists", asset)
	}
	mint.metadata = &mintMetadata{name: name, symbol: symbol, uri: uri}
	return nil
}

func (m *MemoryTokenService) Resolve(ctx context.Context, holder Holder, asset Asset) (Account, error) {
	// Account derivation is deterministic from holder+asset; creation is
	// implicit on first use, like an associated token account.
	return Account{Holder: holder, Asset: asset}, nil
}

// Balance reads an account balance in base units.
func (m *MemoryTokenService) Balance(acct Account) uint64 {
	return m.balances[acct]
}

// SetBalance seeds an account balance in base units. Dev/test funding hook;
// the real currency mint lives outside this core.
func (m *MemoryTokenService) SetBalance(acct Account, baseAmount uint64) {
	m.balances[acct] = baseAmount
}
