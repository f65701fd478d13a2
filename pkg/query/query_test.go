package query

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDoComputesOnce(t *testing.T) {
	c := NewCache()
	key := Key{Node: 1, Aspect: "check"}
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		v, err := c.Do(key, func() (any, error) {
			calls.Add(1)
			return 42, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if v.(int) != 42 {
			t.Fatalf("got %v, want 42", v)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d results, want 1", c.Len())
	}
}

func TestDoDistinctKeys(t *testing.T) {
	c := NewCache()
	a, _ := c.Do(Key{Node: 1, Aspect: "type"}, func() (any, error) { return "a", nil })
	b, _ := c.Do(Key{Node: 1, Aspect: "check"}, func() (any, error) { return "b", nil })
	if a.(string) != "a" || b.(string) != "b" {
		t.Error("aspects of the same node must cache independently")
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d results, want 2", c.Len())
	}
}

func TestDoConcurrentDemand(t *testing.T) {
	c := NewCache()
	key := Key{Node: 7, Aspect: "check"}
	var calls atomic.Int32
	gate := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			v, err := c.Do(key, func() (any, error) {
				calls.Add(1)
				return "shared", nil
			})
			if err != nil || v.(string) != "shared" {
				t.Errorf("Do = %v, %v", v, err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times under concurrent demand, want 1", calls.Load())
	}
}

func TestFailedComputationIsNotCached(t *testing.T) {
	c := NewCache()
	key := Key{Node: 3, Aspect: "check"}
	boom := errors.New("boom")

	if _, err := c.Do(key, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("failed computation must not be cached")
	}

	v, err := c.Do(key, func() (any, error) { return 1, nil })
	if err != nil || v.(int) != 1 {
		t.Error("a later caller must retry after a failure")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewCache()
	key := Key{Node: 5, Aspect: "type"}
	c.Do(key, func() (any, error) { return "old", nil })
	c.Invalidate(key)
	if _, ok := c.Get(key); ok {
		t.Error("invalidated key must be gone")
	}
	v, _ := c.Do(key, func() (any, error) { return "new", nil })
	if v.(string) != "new" {
		t.Error("recompute after invalidation must run")
	}
}
