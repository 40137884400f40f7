package event_test

import (
	"testing"

	"danledger/internal/event"
)

func TestHashChainDeterminism(t *testing.T) {
	a := event.NewHashChain()
	b := event.NewHashChain()

	digest := []byte("record-bytes")
	if a.Compute(0, digest) != b.Compute(0, digest) {
		t.Error("identical inputs produced different hashes")
	}
	if a.Compute(1, digest) != b.Compute(1, digest) {
		t.Error("chains diverged after identical second step")
	}
}

func TestHashChainAdvances(t *testing.T) {
	c := event.NewHashChain()

	var zero [32]byte
	if c.Prev() != zero {
		t.Fatal("new chain tip is not zero")
	}

	first := c.Compute(0, []byte("x"))
	if c.Prev() != first {
		t.Error("tip did not advance to the computed hash")
	}

	second := c.Compute(1, []byte("x"))
	if second == first {
		t.Error("same digest at a new sequence produced the same hash")
	}
}

func TestHashChainSequenceMatters(t *testing.T) {
	a := event.NewHashChain()
	b := event.NewHashChain()
	if a.Compute(1, []byte("x")) == b.Compute(2, []byte("x")) {
		t.Error("different sequences produced the same hash")
	}
}

func TestHashChainRestore(t *testing.T) {
	a := event.NewHashChain()
	a.Compute(0, []byte("x"))
	tip := a.Prev()

	b := event.NewHashChain()
	b.SetPrev(tip)
	if a.Compute(1, []byte("y")) != b.Compute(1, []byte("y")) {
		t.Error("restored chain diverged from the original")
	}
}
