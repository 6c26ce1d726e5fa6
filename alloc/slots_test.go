package alloc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// testRecord is an 8-byte record: a key and a payload.
type testRecord struct {
	Key, Value uint32
}

func (testRecord) Stride() int { return 8 }

func (r testRecord) Marshal(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.Key)
	binary.LittleEndian.PutUint32(dst[4:8], r.Value)
}

type upload struct {
	offset  uint64
	data    []byte
	replace bool
}

// recordingSink keeps a CPU mirror of everything uploaded to it.
type recordingSink struct {
	mirror  []byte
	uploads []upload
	err     error
}

func (s *recordingSink) Upload(offset uint64, data []byte) error {
	if s.err != nil {
		return s.err
	}
	if int(offset)+len(data) > len(s.mirror) {
		return errors.New("upload out of range")
	}
	copy(s.mirror[offset:], data)
	s.uploads = append(s.uploads, upload{offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func (s *recordingSink) Replace(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mirror = append(s.mirror[:0], data...)
	s.uploads = append(s.uploads, upload{data: append([]byte(nil), data...), replace: true})
	return nil
}

func (s *recordingSink) reset() { s.uploads = nil }

func TestSlotAllocatorNew(t *testing.T) {
	a := NewSlotAllocator[testRecord](WithBlockSize(16))
	if a.Cap() != 16 {
		t.Errorf("Cap() = %d, want 16", a.Cap())
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
	if a.Generation() != firstGeneration {
		t.Errorf("Generation() = %d, want %d", a.Generation(), firstGeneration)
	}
	if a.Valid(BufferIndex{}) {
		t.Error("zero BufferIndex must not be valid")
	}
}

func TestSlotAllocatorSetAndGet(t *testing.T) {
	a := NewSlotAllocator[testRecord]()

	i0 := a.Set(testRecord{Key: 1, Value: 10}, BufferIndex{}, true)
	i1 := a.Set(testRecord{Key: 2, Value: 20}, BufferIndex{}, true)
	if i0 == i1 {
		t.Fatalf("two allocations share index %v", i0)
	}
	if i0.Index != 0 || i1.Index != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", i0.Index, i1.Index)
	}

	got, ok := a.Get(i1)
	if !ok || got.Value != 20 {
		t.Errorf("Get(%v) = %+v, %v", i1, got, ok)
	}

	// Changed rewrite keeps the slot.
	i1b := a.Set(testRecord{Key: 2, Value: 21}, i1, true)
	if i1b != i1 {
		t.Errorf("rewrite moved slot %v -> %v", i1, i1b)
	}
	if got, _ := a.Get(i1); got.Value != 21 {
		t.Errorf("rewrite not visible: %+v", got)
	}
}

func TestSlotAllocatorUnchangedSkipsWrite(t *testing.T) {
	a := NewSlotAllocator[testRecord]()
	sink := &recordingSink{}

	idx := a.Set(testRecord{Key: 1, Value: 1}, BufferIndex{}, true)
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	sink.reset()

	again := a.Set(testRecord{Key: 1, Value: 99}, idx, false)
	if again != idx {
		t.Errorf("unchanged Set returned %v, want %v", again, idx)
	}
	if got, _ := a.Get(idx); got.Value != 1 {
		t.Errorf("unchanged Set wrote the record: %+v", got)
	}
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 0 {
		t.Errorf("expected no upload, got %d", len(sink.uploads))
	}
}

func TestSlotAllocatorFreeReuse(t *testing.T) {
	a := NewSlotAllocator[testRecord]()
	idx := make([]BufferIndex, 4)
	for i := range idx {
		idx[i] = a.Set(testRecord{Key: uint32(i)}, BufferIndex{}, true)
	}

	a.Free(idx[1])
	a.Free(idx[3])
	a.Free(idx[1]) // double free is ignored
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	if a.Stats().Free != 2 {
		t.Fatalf("free list length = %d, want 2", a.Stats().Free)
	}

	// Oldest free slot is reused first.
	n1 := a.Set(testRecord{Key: 10}, BufferIndex{}, true)
	n2 := a.Set(testRecord{Key: 11}, BufferIndex{}, true)
	if n1.Index != 1 || n2.Index != 3 {
		t.Errorf("reused indices = %d, %d, want 1, 3", n1.Index, n2.Index)
	}
	n3 := a.Set(testRecord{Key: 12}, BufferIndex{}, true)
	if n3.Index != 4 {
		t.Errorf("next fresh index = %d, want 4", n3.Index)
	}
}

func TestSlotAllocatorSetAfterFree(t *testing.T) {
	for _, changed := range []bool{true, false} {
		t.Run(fmt.Sprintf("changed=%v", changed), func(t *testing.T) {
			a := NewSlotAllocator[testRecord]()
			x := a.Set(testRecord{Key: 1}, BufferIndex{}, true)
			a.Free(x)

			// A freed index is no better than a stale one.
			y := a.Set(testRecord{Key: 2}, x, changed)
			z := a.Set(testRecord{Key: 3}, BufferIndex{}, true)
			if y == z {
				t.Fatalf("live indices alias: y = %v, z = %v", y, z)
			}
			if a.Len() != 2 || a.Stats().Free != 0 {
				t.Errorf("Len() = %d, free = %d, want 2, 0", a.Len(), a.Stats().Free)
			}
			if r, ok := a.Get(y); !ok || r.Key != 2 {
				t.Errorf("Get(y) = %+v, %v, want Key 2", r, ok)
			}
			if r, ok := a.Get(z); !ok || r.Key != 3 {
				t.Errorf("Get(z) = %+v, %v, want Key 3", r, ok)
			}
		})
	}
}

func TestSlotAllocatorFreeIgnoresInvalid(t *testing.T) {
	a := NewSlotAllocator[testRecord]()
	a.Set(testRecord{}, BufferIndex{}, true)

	a.Free(BufferIndex{Index: 0, Generation: a.Generation() + 1})
	a.Free(BufferIndex{Index: 50, Generation: a.Generation()})
	a.Free(BufferIndex{})
	if a.Stats().Free != 0 {
		t.Errorf("free list length = %d, want 0", a.Stats().Free)
	}
}

func TestSlotAllocatorFlushDirtyRange(t *testing.T) {
	a := NewSlotAllocator[testRecord](WithBlockSize(8))
	sink := &recordingSink{}

	idx := make([]BufferIndex, 6)
	for i := range idx {
		idx[i] = a.Set(testRecord{Key: uint32(i)}, BufferIndex{}, true)
	}
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 || !sink.uploads[0].replace {
		t.Fatalf("first flush should replace, got %+v", sink.uploads)
	}
	if len(sink.mirror) != 8*8 {
		t.Errorf("replace size = %d, want %d", len(sink.mirror), 64)
	}
	sink.reset()

	a.Set(testRecord{Key: 2, Value: 7}, idx[2], true)
	a.Set(testRecord{Key: 4, Value: 9}, idx[4], true)
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 {
		t.Fatalf("expected one partial upload, got %d", len(sink.uploads))
	}
	up := sink.uploads[0]
	if up.replace || up.offset != 2*8 || len(up.data) != 3*8 {
		t.Errorf("partial upload = offset %d len %d replace %v, want offset 16 len 24", up.offset, len(up.data), up.replace)
	}
	if got := binary.LittleEndian.Uint32(sink.mirror[4*8+4:]); got != 9 {
		t.Errorf("mirror value = %d, want 9", got)
	}
}

func TestSlotAllocatorGrowthReplaces(t *testing.T) {
	a := NewSlotAllocator[testRecord](WithBlockSize(4))
	sink := &recordingSink{}
	for i := 0; i < 4; i++ {
		a.Set(testRecord{Key: uint32(i)}, BufferIndex{}, true)
	}
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	sink.reset()

	a.Set(testRecord{Key: 4}, BufferIndex{}, true)
	if a.Cap() != 8 {
		t.Errorf("Cap() = %d, want 8", a.Cap())
	}
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 || !sink.uploads[0].replace {
		t.Fatalf("growth should trigger a full replace, got %+v", sink.uploads)
	}
	if len(sink.mirror) != 8*8 {
		t.Errorf("mirror size = %d, want 64", len(sink.mirror))
	}
}

func TestSlotAllocatorFlushError(t *testing.T) {
	a := NewSlotAllocator[testRecord]()
	sinkErr := errors.New("device lost")
	err := a.Flush(&recordingSink{err: sinkErr})
	if !errors.Is(err, sinkErr) {
		t.Errorf("Flush error = %v, want wrapped %v", err, sinkErr)
	}
}

func TestSlotAllocatorDefragmentation(t *testing.T) {
	a := NewSlotAllocator[testRecord](WithBlockSize(64), WithDefragThreshold(10))
	sink := &recordingSink{}

	idx := make([]BufferIndex, 40)
	for i := range idx {
		idx[i] = a.Set(testRecord{Key: uint32(i)}, BufferIndex{}, true)
	}
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	for _, i := range idx[:33] {
		a.Free(i)
	}
	gen := a.Generation()
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if a.Generation() != gen+1 {
		t.Fatalf("Generation() = %d, want %d", a.Generation(), gen+1)
	}
	if a.Cap() != 64 || a.Len() != 0 {
		t.Errorf("after defrag Cap=%d Len=%d, want 64, 0", a.Cap(), a.Len())
	}

	// Every surviving index is stale and re-Set yields a fresh valid slot,
	// even when the caller claims nothing changed.
	for k, old := range idx[33:] {
		if a.Valid(old) {
			t.Fatalf("index %v survived defragmentation", old)
		}
		fresh := a.Set(testRecord{Key: old.Index}, old, false)
		if !a.Valid(fresh) || fresh.Generation != a.Generation() {
			t.Fatalf("re-Set returned invalid index %v", fresh)
		}
		if int(fresh.Index) != k {
			t.Errorf("re-Set index = %d, want %d", fresh.Index, k)
		}
	}
	sink.reset()
	if err := a.Flush(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 || !sink.uploads[0].replace {
		t.Errorf("first flush after defrag should replace, got %+v", sink.uploads)
	}
	if a.Stats().Defrags != 1 {
		t.Errorf("Defrags = %d, want 1", a.Stats().Defrags)
	}
}

func TestSlotAllocatorNoDefragBelowHalf(t *testing.T) {
	a := NewSlotAllocator[testRecord](WithBlockSize(64), WithDefragThreshold(10))
	idx := make([]BufferIndex, 60)
	for i := range idx {
		idx[i] = a.Set(testRecord{}, BufferIndex{}, true)
	}
	// 20 free: above the absolute threshold but below half of 64.
	for _, i := range idx[:20] {
		a.Free(i)
	}
	gen := a.Generation()
	if err := a.Flush(&recordingSink{}); err != nil {
		t.Fatal(err)
	}
	if a.Generation() != gen {
		t.Error("defragmented below the relative threshold")
	}
}

// TestSlotAllocatorRoundTrip drives random set/free sequences and checks that
// every live index reads back its latest record and no two live indices alias.
func TestSlotAllocatorRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewSlotAllocator[testRecord](WithBlockSize(32), WithDefragThreshold(8))
	sink := &recordingSink{}

	type entity struct {
		idx   BufferIndex
		value uint32
		live  bool
	}
	entities := make([]entity, 200)

	for frame := 0; frame < 50; frame++ {
		for key := range entities {
			e := &entities[key]
			switch r := rng.Intn(10); {
			case r < 2 && e.live:
				a.Free(e.idx)
				e.live = false
				e.idx = BufferIndex{}
			case r < 6:
				e.value = rng.Uint32()
				e.idx = a.Set(testRecord{Key: uint32(key), Value: e.value}, e.idx, true)
				e.live = true
			case e.live:
				e.idx = a.Set(testRecord{Key: uint32(key), Value: e.value}, e.idx, false)
			}
		}

		seen := make(map[uint32]int)
		for key, e := range entities {
			if !e.live {
				continue
			}
			if prev, dup := seen[e.idx.Index]; dup {
				t.Fatalf("frame %d: entities %d and %d alias slot %d", frame, prev, key, e.idx.Index)
			}
			seen[e.idx.Index] = key
			got, ok := a.Get(e.idx)
			if !ok || got.Key != uint32(key) || got.Value != e.value {
				t.Fatalf("frame %d: entity %d reads %+v (ok=%v), want value %d", frame, key, got, ok, e.value)
			}
		}

		if err := a.Flush(sink); err != nil {
			t.Fatal(err)
		}
		// The sink mirror must match the allocator's own encoding.
		if string(sink.mirror) != string(a.Bytes()) && a.Stats().Live > 0 {
			t.Fatalf("frame %d: sink mirror diverged from allocator contents", frame)
		}
	}
}
