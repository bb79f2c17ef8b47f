package cache

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mixed case", "What Are Your Office Hours", "what are your office hours"},
		{"surrounding whitespace", "  hello  ", "hello"},
		{"tabs and newlines", "\tHi\n", "hi"},
		{"already normalized", "plain", "plain"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestLookupTouchesEntry(t *testing.T) {
	t.Parallel()

	c := New(10)
	c.Insert("a", "answer a", now)
	c.Insert("b", "answer b", now)

	entry, ok := c.Lookup("a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if entry.Answer != "answer a" {
		t.Errorf("Answer = %q, want %q", entry.Answer, "answer a")
	}

	// a was touched, so b is now the oldest.
	if got, want := c.Keys(), []string{"b", "a"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestLookupMiss(t *testing.T) {
	t.Parallel()

	c := New(10)
	if _, ok := c.Lookup("absent"); ok {
		t.Error("expected miss on empty cache")
	}
}

// TestEvictionTrace follows the exact trace from the resolution contract:
// with limit 2, inserting A, B, C leaves {B, C}; then touching B and
// inserting D leaves {B, D}.
func TestEvictionTrace(t *testing.T) {
	t.Parallel()

	c := New(2)
	c.Insert("a", "1", now)
	c.Insert("b", "2", now)
	c.Insert("c", "3", now)

	if got, want := c.Keys(), []string{"b", "c"}; !slices.Equal(got, want) {
		t.Fatalf("after A,B,C: Keys() = %v, want %v", got, want)
	}

	if _, ok := c.Lookup("b"); !ok {
		t.Fatal("expected hit for b")
	}
	c.Insert("d", "4", now)

	if got, want := c.Keys(), []string{"b", "d"}; !slices.Equal(got, want) {
		t.Errorf("after touch B, insert D: Keys() = %v, want %v", got, want)
	}
	if _, ok := c.Lookup("a"); ok {
		t.Error("a should have been evicted")
	}
	if _, ok := c.Lookup("c"); ok {
		t.Error("c should have been evicted")
	}
}

func TestBoundHolds(t *testing.T) {
	t.Parallel()

	const limit = 50
	c := New(limit)
	for i := range 200 {
		c.Insert(fmt.Sprintf("q%03d", i), "a", now)
		if c.Size() > limit {
			t.Fatalf("size %d exceeds limit %d after insert %d", c.Size(), limit, i)
		}
	}

	// Exactly the most recently inserted entries survive.
	keys := c.Keys()
	if len(keys) != limit {
		t.Fatalf("len(Keys()) = %d, want %d", len(keys), limit)
	}
	for i, key := range keys {
		want := fmt.Sprintf("q%03d", 200-limit+i)
		if key != want {
			t.Errorf("keys[%d] = %q, want %q", i, key, want)
		}
	}
}

func TestInsertOverwrite(t *testing.T) {
	t.Parallel()

	c := New(3)
	c.Insert("a", "old", now)
	c.Insert("b", "2", now)
	c.Insert("a", "new", now.Add(time.Minute))

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	entry, _ := c.Lookup("a")
	if entry.Answer != "new" {
		t.Errorf("Answer = %q, want %q", entry.Answer, "new")
	}
	if !entry.Timestamp.Equal(now.Add(time.Minute)) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, now.Add(time.Minute))
	}
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	c := New(10)
	c.Insert("a", "1", now)
	c.Insert("b", "2", now)
	c.Insert("c", "3", now)

	restored := New(10)
	restored.Restore(c.Snapshot())

	if got, want := restored.Keys(), []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("restored Keys() = %v, want %v", got, want)
	}
	for _, key := range []string{"a", "b", "c"} {
		orig, _ := c.Lookup(key)
		got, ok := restored.Lookup(key)
		if !ok || got.Answer != orig.Answer {
			t.Errorf("restored entry for %q = %+v, want %+v", key, got, orig)
		}
	}
}

func TestRestoreAppliesLimit(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Question: "a", Answer: "1", Timestamp: now},
		{Question: "b", Answer: "2", Timestamp: now},
		{Question: "c", Answer: "3", Timestamp: now},
	}

	c := New(2)
	c.Restore(entries)

	if got, want := c.Keys(), []string{"b", "c"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(32)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("q%d", (g*13+i)%64)
				c.Insert(key, "a", now)
				c.Lookup(key)
				c.Keys()
			}
		}()
	}
	wg.Wait()

	if c.Size() > 32 {
		t.Errorf("Size() = %d, want <= 32", c.Size())
	}
}
