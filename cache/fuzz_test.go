package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Remove semantics under arbitrary string inputs.
// Key/value lengths are capped to keep memory bounded during fuzzing.
func FuzzCache_SetGetRemove(f *testing.F) {
	f.Add("", "")
	f.Add("a", "1")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		c := New[string, string](Options[string, string]{CountLimit: 16, MaxCost: 1 << 16})
		t.Cleanup(func() { _ = c.Close() })

		c.Set(k, v, len(v))
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}
		if c.Cost() != int64(len(v)) {
			t.Fatalf("Cost = %d, want %d", c.Cost(), len(v))
		}
		if !c.Remove(k) {
			t.Fatalf("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatalf("key must be absent after Remove")
		}
	})
}
