package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over a fixed set of entries.
type ring[V any] struct {
	points *treemap.Map

	// first is the value at the lowest point, used to wrap around without
	// paying for treemap.Map.Min() on every lookup.
	first V
}

// newRing places replicas points on the ring for each entry.
func newRing[V any](entries map[string]V, replicas uint) *ring[V] {
	points := treemap.NewWith(utils.Int64Comparator)
	for name, v := range entries {
		seed, _ := murmur3.Sum128([]byte(name))

		var buf [12]byte
		binary.LittleEndian.PutUint64(buf[:8], seed)
		for i := uint32(0); i < uint32(replicas); i++ {
			binary.LittleEndian.PutUint32(buf[8:], i)
			points.Put(hash(buf[:]), v)
		}
	}

	r := &ring[V]{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(V)
	}
	return r
}

// shard maps key to the entry owning the next point clockwise.
func (r *ring[V]) shard(key []byte) V {
	_, v := r.points.Ceiling(hash(key))
	if v == nil {
		return r.first
	}
	return v.(V)
}

func hash(b []byte) int64 {
	h, _ := murmur3.Sum128(b)
	return int64(h)
}
