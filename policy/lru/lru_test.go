package lru_test

import (
	"slices"
	"testing"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/policy"
	"github.com/IvanBrykalov/tiercache/policy/lru"
)

type entry struct {
	key string
	val []byte
}

func (e *entry) Key() string    { return e.key }
func (e *entry) Value() *[]byte { return &e.val }

// recorder logs every hook call as "op:key".
type recorder struct{ calls []string }

func (r *recorder) log(op string, n policy.Node[string, []byte]) {
	r.calls = append(r.calls, op+":"+n.Key())
}

func (r *recorder) MoveToFront(n policy.Node[string, []byte]) { r.log("move", n) }
func (r *recorder) PushFront(n policy.Node[string, []byte])   { r.log("push", n) }
func (r *recorder) Remove(n policy.Node[string, []byte])      { r.log("remove", n) }
func (r *recorder) Back() policy.Node[string, []byte]         { return nil }
func (r *recorder) Len() int                                  { return 0 }

func TestLRU_HookCalls(t *testing.T) {
	t.Parallel()

	thumb := &entry{key: "thumb.png"}
	feed := &entry{key: "feed.json"}

	cases := []struct {
		name string
		run  func(t *testing.T, p policy.ShardPolicy[string, []byte])
		want []string
	}{
		{
			name: "admission pushes to front and proposes no victim",
			run: func(t *testing.T, p policy.ShardPolicy[string, []byte]) {
				if ev := p.OnAdd(thumb); ev != nil {
					t.Errorf("OnAdd proposed %q", ev.Key())
				}
				p.OnAdd(feed)
			},
			want: []string{"push:thumb.png", "push:feed.json"},
		},
		{
			name: "read and overwrite both refresh recency",
			run: func(t *testing.T, p policy.ShardPolicy[string, []byte]) {
				p.OnGet(thumb)
				p.OnUpdate(feed)
			},
			want: []string{"move:thumb.png", "move:feed.json"},
		},
		{
			name: "removal leaves the list to the shard",
			run:  func(_ *testing.T, p policy.ShardPolicy[string, []byte]) { p.OnRemove(thumb) },
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &recorder{}
			tc.run(t, lru.New[string, []byte]().New(r))
			if !slices.Equal(r.calls, tc.want) {
				t.Fatalf("calls = %v, want %v", r.calls, tc.want)
			}
		})
	}
}

// A read between admissions saves an entry from count eviction.
func TestLRU_EvictsLeastRecentlyRead(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := cache.New(cache.Options[string, []byte]{
		CountLimit: 2,
		Shards:     1,
		Policy:     lru.New[string, []byte](),
		OnEvict: func(k string, _ []byte, reason cache.EvictReason) {
			if reason != cache.EvictCount {
				t.Errorf("evicted %q for %v, want count", k, reason)
			}
			evicted = append(evicted, k)
		},
	})

	c.Set("avatar", []byte("a"), 0)
	c.Set("banner", []byte("b"), 0)
	if _, ok := c.Get("avatar"); !ok {
		t.Fatal("avatar missing before limit was reached")
	}
	c.Set("cover", []byte("c"), 0)
	c.Set("banner", []byte("b2"), 0)

	if !slices.Equal(evicted, []string{"banner", "avatar"}) {
		t.Fatalf("evicted = %v, want [banner avatar]", evicted)
	}
	if _, ok := c.Peek("cover"); !ok {
		t.Fatal("cover should still be resident")
	}
}
