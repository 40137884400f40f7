package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Vault is the program's autonomous signing authority, derived from a fixed
// namespace tag and nothing else — never from private key material. It
// authorizes mint-to and vault-outbound transfers on behalf of the program.
type Vault struct {
	namespace string
	id        [32]byte
}

// DeriveVault derives the vault identity for a namespace tag. The derivation
// is deterministic: the same tag always yields the same authority.
func DeriveVault(namespace string) Vault {
	return Vault{
		namespace: namespace,
		id:        sha256.Sum256([]byte(namespace)),
	}
}

// Namespace returns the tag the vault was derived from.
func (v Vault) Namespace() string {
	return v.namespace
}

// ID returns the vault's 32-byte identity.
func (v Vault) ID() [32]byte {
	return v.id
}

// Hex returns the vault identity in lowercase hex, for logs and account keys.
func (v Vault) Hex() string {
	return hex.EncodeToString(v.id[:])
}

// Proof is an opaque signing proof presented to the token collaborators.
// Collaborators verify it against the authority they were created with.
type Proof struct {
	Namespace string
	Digest    [32]byte
}

// Proof produces the signing proof for the vault's namespace. The same proof
// is consumed by the mint-to step and both vault-side transfer legs; there is
// one vault authority, not a per-asset or administrator signer.
func (v Vault) Proof() Proof {
	h := sha256.New()
	h.Write([]byte("proof:"))
	h.Write([]byte(v.namespace))
	h.Write(v.id[:])
	var d [32]byte
	copy(d[:], h.Sum(nil))
	return Proof{Namespace: v.namespace, Digest: d}
}
