package alloc

import (
	"encoding/binary"
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func square(x float32) []f32.Vec2 {
	return []f32.Vec2{{x, x}, {-x, x}, {-x, -x}, {x, -x}}
}

func TestVertexArenaAppend(t *testing.T) {
	a := NewVertexArena(WithBlockSize(16))

	i0 := a.Write(square(1), BufferIndex{}, true)
	i1 := a.Write(square(2), BufferIndex{}, true)
	if i0.Index != 0 || i1.Index != 4 {
		t.Errorf("run starts = %d, %d, want 0, 4", i0.Index, i1.Index)
	}
	if a.Len() != 8 {
		t.Errorf("Len() = %d, want 8", a.Len())
	}
	got := a.Vertices(i1, 4)
	if len(got) != 4 || got[2] != (f32.Vec2{-2, -2}) {
		t.Errorf("Vertices(%v) = %v", i1, got)
	}
}

func TestVertexArenaInPlaceRewrite(t *testing.T) {
	a := NewVertexArena()
	i0 := a.Write(square(1), BufferIndex{}, true)
	a.Write(square(2), BufferIndex{}, true)

	again := a.Write(square(3), i0, true)
	if again != i0 {
		t.Errorf("in-place rewrite moved run %v -> %v", i0, again)
	}
	if a.Len() != 8 {
		t.Errorf("rewrite grew the arena to %d", a.Len())
	}
	if v := a.Vertices(i0, 4)[0]; v != (f32.Vec2{3, 3}) {
		t.Errorf("rewritten vertex = %v, want (3, 3)", v)
	}
}

func TestVertexArenaOverrunPanics(t *testing.T) {
	a := NewVertexArena()
	i0 := a.Write(square(1), BufferIndex{}, true)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when a rewrite overruns the arena")
		}
	}()
	a.Write(append(square(1), f32.Vec2{0, 0}), i0, true)
}

func TestVertexArenaIdempotentUnchanged(t *testing.T) {
	a := NewVertexArena()
	sink := &recordingSink{}

	idx := a.Write(square(1), BufferIndex{}, true)
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	sink.reset()

	for range 2 {
		again := a.Write(square(1), idx, false)
		if again != idx {
			t.Fatalf("unchanged write returned %v, want %v", again, idx)
		}
	}
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 0 {
		t.Errorf("unchanged writes uploaded %d times", len(sink.uploads))
	}
}

func TestVertexArenaPassUploadsDirtyRange(t *testing.T) {
	a := NewVertexArena(WithBlockSize(32))
	sink := &recordingSink{}

	i0 := a.Write(square(1), BufferIndex{}, true)
	a.Write(square(2), BufferIndex{}, true)
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if !sink.uploads[0].replace || len(sink.mirror) != 32*VertexStride {
		t.Fatalf("first pass should replace the full block, got %+v", sink.uploads)
	}
	sink.reset()

	a.Write(square(5), i0, true)
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(sink.uploads))
	}
	up := sink.uploads[0]
	if up.replace || up.offset != 0 || len(up.data) != 4*VertexStride {
		t.Errorf("upload = offset %d len %d replace %v", up.offset, len(up.data), up.replace)
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(sink.mirror[0:4]))
	if x != 5 {
		t.Errorf("mirror x = %v, want 5", x)
	}
}

func TestVertexArenaFreeAndDefragment(t *testing.T) {
	a := NewVertexArena(WithBlockSize(16), WithDefragThreshold(4))
	sink := &recordingSink{}

	runs := make([]BufferIndex, 3)
	for i := range runs {
		runs[i] = a.Write(square(float32(i+1)), BufferIndex{}, true)
	}
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}

	// Stale generations are ignored.
	a.Free(4, a.Generation()+1)
	if a.EmptySlots() != 0 {
		t.Fatalf("stale free counted: %d", a.EmptySlots())
	}

	a.Free(4, runs[0].Generation)
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if a.Generation() != runs[0].Generation {
		t.Fatal("defragmented below thresholds")
	}
	// Space is never reused before a rebuild.
	next := a.Write(square(9), BufferIndex{}, true)
	if next.Index != 12 {
		t.Errorf("append after free at %d, want 12", next.Index)
	}

	a.Free(4, runs[1].Generation)
	a.Free(4, runs[2].Generation)
	gen := a.Generation()
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if a.Generation() != gen+1 {
		t.Fatalf("Generation() = %d, want %d", a.Generation(), gen+1)
	}
	if a.Len() != 0 || a.EmptySlots() != 0 || a.Cap() != 16 {
		t.Errorf("after rebuild Len=%d Empty=%d Cap=%d", a.Len(), a.EmptySlots(), a.Cap())
	}

	// A stale index appends instead of rewriting.
	fresh := a.Write(square(1), next, false)
	if fresh.Generation != a.Generation() || fresh.Index != 0 {
		t.Errorf("re-write after rebuild = %v", fresh)
	}
	if a.Stats().Defrags != 1 {
		t.Errorf("Defrags = %d, want 1", a.Stats().Defrags)
	}
}

func TestVertexArenaGrowth(t *testing.T) {
	a := NewVertexArena(WithBlockSize(8))
	sink := &recordingSink{}
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	sink.reset()

	a.Write(make([]f32.Vec2, 10), BufferIndex{}, true)
	if a.Cap() != 16 {
		t.Errorf("Cap() = %d, want 16", a.Cap())
	}
	if err := a.Pass(sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 1 || !sink.uploads[0].replace {
		t.Errorf("growth should replace, got %+v", sink.uploads)
	}
}
