package token

import (
	"context"

	"github.com/google/uuid"

	"danledger/internal/auth"
)

// Asset names the two assets the core moves: the DAN work token and the
// escrow stablecoin.
type Asset string

const (
	AssetDAN      Asset = "DAN"
	AssetCurrency Asset = "USDC"
)

// Holder identifies a token-account owner: a party identity or the vault
// authority.
type Holder string

// PartyHolder builds the holder reference for a worker or demander identity.
func PartyHolder(id uuid.UUID) Holder {
	return Holder("party:" + id.String())
}

// VaultHolder builds the holder reference for the vault authority.
func VaultHolder(v auth.Vault) Holder {
	return Holder("vault:" + v.Hex())
}

// Account is a resolved token-holding account for a holder+asset pair.
type Account struct {
	Holder Holder
	Asset  Asset
}

// MintService is the external token ledger: mint creation, minting, and
// transfers in base units. All value-moving calls carry the signing proof of
// the authority that owns the affected account or mint.
type MintService interface {
	// CreateMint creates the mint for an asset with the given decimal
	// precision, owned by the authority behind the proof.
	CreateMint(ctx context.Context, asset Asset, decimals uint8, authority auth.Proof) error

	// MintTo mints baseAmount new units of asset into to.
	MintTo(ctx context.Context, asset Asset, to Account, baseAmount uint64, proof auth.Proof) error

	// Transfer moves baseAmount units of asset from from to to.
	Transfer(ctx context.Context, asset Asset, from, to Account, baseAmount uint64, proof auth.Proof) error

	// Decimals returns the decimal precision of an asset's mint.
	Decimals(ctx context.Context, asset Asset) (uint8, error)
}

// MetadataService attaches descriptive fields to a mint.
type MetadataService interface {
	CreateMetadata(ctx context.Context, asset Asset, name, symbol, uri string, proof auth.Proof) error
}

// AccountResolver derives (creating if needed) the token account for a
// holder+asset pair.
type AccountResolver interface {
	Resolve(ctx context.Context, holder Holder, asset Asset) (Account, error)
}
