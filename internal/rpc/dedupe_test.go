package rpc

import (
	"fmt"
	"testing"
)

func TestResponseCacheHit(t *testing.T) {
	c := newResponseCache(4)

	c.Put("distribute:req-1", []byte(`{"ok":true}`))
	got, ok := c.Get("distribute:req-1")
	if !ok {
		t.Fatal("cached response not found")
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("cached response = %s", got)
	}

	if _, ok := c.Get("distribute:req-2"); ok {
		t.Error("cache returned a response for an unknown key")
	}
}

func TestResponseCacheEviction(t *testing.T) {
	c := newResponseCache(3)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("op:req-%d", i), []byte("r"))
	}

	// Touch req-0 so req-1 is the LRU entry.
	c.Get("op:req-0")
	c.Put("op:req-3", []byte("r"))

	if _, ok := c.Get("op:req-1"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("op:req-0"); !ok {
		t.Error("recently touched entry was evicted")
	}
	if c.Size() != 3 {
		t.Errorf("size = %d, want 3", c.Size())
	}
	if c.Evictions() != 1 {
		t.Errorf("evictions = %d, want 1", c.Evictions())
	}
}

func TestResponseCachePutRefreshes(t *testing.T) {
	c := newResponseCache(2)
	c.Put("op:req-1", []byte("a"))
	c.Put("op:req-1", []byte("b"))

	got, ok := c.Get("op:req-1")
	if !ok || string(got) != "b" {
		t.Errorf("refreshed response = %s, %v", got, ok)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}
