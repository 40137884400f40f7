package token_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"danledger/internal/auth"
	"danledger/internal/token"
)

var workerID = uuid.MustParse("00000000-0000-0000-0000-0000000000bb")

func TestMintToRequiresAuthority(t *testing.T) {
	ctx := context.Background()
	vault := auth.DeriveVault("deanno")
	svc := token.NewMemoryTokenService()

	if err := svc.CreateMint(ctx, token.AssetDAN, 9, vault.Proof()); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	acct, _ := svc.Resolve(ctx, token.PartyHolder(workerID), token.AssetDAN)

	if err := svc.MintTo(ctx, token.AssetDAN, acct, 100, vault.Proof()); err != nil {
		t.Fatalf("mint with authority: %v", err)
	}
	if bal := svc.Balance(acct); bal != 100 {
		t.Errorf("balance = %d, want 100", bal)
	}

	forged := auth.DeriveVault("attacker").Proof()
	if err := svc.MintTo(ctx, token.AssetDAN, acct, 100, forged); err == nil {
		t.Error("mint accepted a foreign proof")
	}
	if bal := svc.Balance(acct); bal != 100 {
		t.Errorf("balance changed by rejected mint: %d", bal)
	}
}

func TestTransferChecksBalanceAndAuthority(t *testing.T) {
	ctx := context.Background()
	vault := auth.DeriveVault("deanno")
	svc := token.NewMemoryTokenService()

	if err := svc.CreateMint(ctx, token.AssetCurrency, 6, vault.Proof()); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	from, _ := svc.Resolve(ctx, token.VaultHolder(vault), token.AssetCurrency)
	to, _ := svc.Resolve(ctx, token.PartyHolder(workerID), token.AssetCurrency)
	svc.SetBalance(from, 50)

	if err := svc.Transfer(ctx, token.AssetCurrency, from, to, 60, vault.Proof()); err == nil {
		t.Error("transfer exceeded source balance")
	}
	if err := svc.Transfer(ctx, token.AssetCurrency, from, to, 30, auth.DeriveVault("attacker").Proof()); err == nil {
		t.Error("transfer accepted a foreign proof")
	}

	if err := svc.Transfer(ctx, token.AssetCurrency, from, to, 30, vault.Proof()); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if bal := svc.Balance(from); bal != 20 {
		t.Errorf("source balance = %d, want 20", bal)
	}
	if bal := svc.Balance(to); bal != 30 {
		t.Errorf("destination balance = %d, want 30", bal)
	}
}

func TestCreateMintOnce(t *testing.T) {
	ctx := context.Background()
	vault := auth.DeriveVault("deanno")
	svc := token.NewMemoryTokenService()

	if err := svc.CreateMint(ctx, token.AssetDAN, 9, vault.Proof()); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	if err := svc.CreateMint(ctx, token.AssetDAN, 9, vault.Proof()); err == nil {
		t.Error("duplicate mint creation accepted")
	}

	dec, err := svc.Decimals(ctx, token.AssetDAN)
	if err != nil || dec != 9 {
		t.Errorf("decimals = %d, %v", dec, err)
	}
	if _, err := svc.Decimals(ctx, token.AssetCurrency); err == nil {
		t.Error("decimals reported for a missing mint")
	}
}

func TestMetadataOnce(t *testing.T) {
	ctx := context.Background()
	vault := auth.DeriveVault("deanno")
	svc := token.NewMemoryTokenService()

	if err := svc.CreateMint(ctx, token.AssetDAN, 9, vault.Proof()); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	if err := svc.CreateMetadata(ctx, token.AssetDAN, "DeAnno", "DAN", "https://tokens.example/dan.json", vault.Proof()); err != nil {
		t.Fatalf("create metadata: %v", err)
	}
	if err := svc.CreateMetadata(ctx, token.AssetDAN, "DeAnno", "DAN", "uri", vault.Proof()); err == nil {
		t.Error("duplicate metadata accepted")
	}
}
