package table

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// KeyIndex assigns dense ids to distinct key tuples in first-seen order.
// Tuples are bucketed by an xxh3 hash of their encoding and confirmed with
// Equal, so hash collisions never merge distinct keys. Two Nulls are the same
// key. Not safe for concurrent use.
type KeyIndex struct {
	buckets map[uint64][]int
	keys    [][]Value
	buf     []byte
}

func NewKeyIndex(sizeHint int) *KeyIndex {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &KeyIndex{
		buckets: make(map[uint64][]int, sizeHint),
		keys:    make([][]Value, 0, sizeHint),
	}
}

func (k *KeyIndex) Len() int { return len(k.keys) }

// Key returns the tuple stored under id.
func (k *KeyIndex) Key(id int) []Value { return k.keys[id] }

// Lookup returns the id of key if it has been inserted. Lookup does not
// modify the index, so concurrent lookups are safe once inserts are done.
func (k *KeyIndex) Lookup(key []Value) (int, bool) {
	var scratch [64]byte
	h, _ := hashKey(scratch[:0], key)
	for _, id := range k.buckets[h] {
		if tupleEqual(k.keys[id], key) {
			return id, true
		}
	}
	return -1, false
}

// Insert returns the id of key, adding it when new. The tuple is copied.
func (k *KeyIndex) Insert(key []Value) (id int, added bool) {
	var h uint64
	h, k.buf = hashKey(k.buf[:0], key)
	for _, id := range k.buckets[h] {
		if tupleEqual(k.keys[id], key) {
			return id, false
		}
	}
	stored := make([]Value, len(key))
	copy(stored, key)
	id = len(k.keys)
	k.keys = append(k.keys, stored)
	k.buckets[h] = append(k.buckets[h], id)
	return id, true
}

func hashKey(buf []byte, key []Value) (uint64, []byte) {
	for _, v := range key {
		buf = appendKey(buf, v)
	}
	return xxh3.Hash(buf), buf
}

// appendKey encodes v so that values which compare Equal encode identically.
// Integral floats are encoded as integers for that reason.
func appendKey(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, byte(KindNull))
	case KindInt:
		dst = append(dst, byte(KindInt))
		return binary.LittleEndian.AppendUint64(dst, uint64(v.i))
	case KindFloat:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
			dst = append(dst, byte(KindInt))
			return binary.LittleEndian.AppendUint64(dst, uint64(int64(v.f)))
		}
		dst = append(dst, byte(KindFloat))
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.f))
	case KindText:
		dst = append(dst, byte(KindText))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.s)))
		return append(dst, v.s...)
	case KindBool:
		return append(dst, byte(KindBool), byte(v.i))
	}
	return dst
}

func tupleEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ValueSet is an insertion-ordered set of non-null values. It is the
// materialized candidate list that one operator chain hands to a membership
// predicate in another.
type ValueSet struct {
	idx *KeyIndex
}

// NewValueSet builds a set from vals, skipping Nulls and duplicates.
func NewValueSet(vals ...Value) ValueSet {
	s := ValueSet{idx: NewKeyIndex(len(vals))}
	for _, v := range vals {
		s.add(v)
	}
	return s
}

func (s ValueSet) add(v Value) {
	if v.IsNull() {
		return
	}
	s.idx.Insert([]Value{v})
}

func (s ValueSet) Len() int {
	if s.idx == nil {
		return 0
	}
	return s.idx.Len()
}

// Contains reports membership. Null is never a member.
func (s ValueSet) Contains(v Value) bool {
	if s.idx == nil || v.IsNull() {
		return false
	}
	_, ok := s.idx.Lookup([]Value{v})
	return ok
}

// Values returns members in insertion order.
func (s ValueSet) Values() []Value {
	out := make([]Value, s.Len())
	for i := range out {
		out[i] = s.idx.Key(i)[0]
	}
	return out
}
