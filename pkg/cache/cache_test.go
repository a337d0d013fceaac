package cache

import (
	"strconv"
	"testing"
	"time"
)

func TestSetGetAndExpire(t *testing.T) {
	c := New(0)
	key := KeyFromStrings("unit", "expire", time.Now().String())

	// ensure no value
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected no value initially")
	}

	// Exp is tracked in unix seconds, so use a ttl that crosses a boundary
	c.Set(key, "hello", 1*time.Second)
	if v, ok := c.Get(key); !ok || v.(string) != "hello" {
		t.Fatalf("expected value 'hello', got %v ok=%v", v, ok)
	}

	time.Sleep(2100 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected expired value to be gone")
	}
}

func TestDelete(t *testing.T) {
	c := New(0)
	key := KeyFromStrings("unit", "delete", time.Now().String())
	c.Set(key, 42, time.Minute)
	if v, ok := c.Get(key); !ok || v.(int) != 42 {
		t.Fatalf("expected 42 present before delete, got %v ok=%v", v, ok)
	}
	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected deleted value to be absent")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	// touch a so b becomes the LRU entry
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a present")
	}
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected LRU entry b to be evicted")
	}
	for i, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s present (case %d)", k, i)
		}
	}
}

func TestKeyFromStringsStability(t *testing.T) {
	k1 := KeyFromStrings("a", "b", "c")
	k2 := KeyFromStrings("a", "b", "c")
	if k1 != k2 {
		t.Fatalf("expected same inputs to yield same key")
	}
	k3 := KeyFromStrings("a", "b", "d")
	if k1 == k3 {
		t.Fatalf("expected different inputs to yield different key")
	}
	// boundary byte keeps ("ab","c") distinct from ("a","bc")
	if KeyFromStrings("ab", "c") == KeyFromStrings("a", "bc") {
		t.Fatalf("expected part boundaries to matter")
	}
}

// Writers rewrite one entry in place while readers fetch it; run with the
// race detector to verify Get never touches the item outside the lock.
func TestConcurrentGetSetSameKey(t *testing.T) {
	c := New(10)
	const key = "hot"
	c.Set(key, 0, time.Minute)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 500; i++ {
				if g%2 == 0 {
					c.Set(key, i, time.Minute)
				} else if v, ok := c.Get(key); ok {
					if _, isInt := v.(int); !isInt {
						t.Errorf("torn read: got %T", v)
						return
					}
				}
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(100)
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				k := "k" + strconv.Itoa(i%50)
				c.Set(k, g, time.Minute)
				c.Get(k)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
}
