package util

import "runtime"

// ReasonableShardCount picks a default shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > 256 {
		n = 256
	}
	return n
}

// ShardCount normalises a requested shard count. Non-positive values pick
// ReasonableShardCount; anything else is rounded up to a power of two.
func ShardCount(requested int) int {
	if requested <= 0 {
		return ReasonableShardCount()
	}
	return int(NextPow2(uint64(requested)))
}

// ShardIndex maps a 64-bit hash to a shard index.
// Power-of-two shard counts take the mask path; others fall back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
