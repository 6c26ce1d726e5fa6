// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"fmt"

	"github.com/gogpu/umbra/alloc"
	"github.com/gogpu/umbra/binning"
	"github.com/gogpu/umbra/geom"
	"github.com/gogpu/umbra/internal/gpu"
	"github.com/gogpu/umbra/internal/parallel"
	"github.com/gogpu/wgpu/hal"
	"github.com/google/uuid"
	"golang.org/x/image/math/f32"
)

// Buffer is a pipeline output bound by the shadow shaders.
type Buffer interface {
	// Handle returns the HAL buffer, or nil when the pipeline has no device.
	// The handle may change between frames when the buffer grows.
	Handle() hal.Buffer
	// Size returns the allocated size in bytes.
	Size() uint64
	// Label returns the debug name.
	Label() string
}

// Buffers are the shared arrays every light's bins point into.
type Buffers struct {
	Lights           Buffer
	RoundOccluders   Buffer
	PolygonOccluders Buffer
	Vertices         Buffer
}

// LightResult describes one light's output for a frame.
type LightResult struct {
	ID uuid.UUID
	// Slot is the light's index in the light array.
	Slot alloc.BufferIndex
	// Bins holds Layers × binning.NBins serialized bins.
	Bins Buffer
	// Counts holds the per-sector layer indexes.
	Counts   Buffer
	Layers   int
	Pointers int
}

// FrameResult is the output of Pipeline.Frame.
type FrameResult struct {
	Lights []LightResult

	LightStats   alloc.SlotStats
	RoundStats   alloc.SlotStats
	PolygonStats alloc.SlotStats
	VertexStats  alloc.ArenaStats
}

type occluderState struct {
	occ   Occluder
	kind  binning.Kind
	slot  alloc.BufferIndex
	world []geom.Point
	// vertices is the arena run holding world; zero for round occluders.
	vertices alloc.BufferIndex
	bounds   geom.Rect
	seen     uint64
}

type lightState struct {
	light  Light
	slot   alloc.BufferIndex
	index  *binning.Index
	bins   gpu.Buffer
	counts gpu.Buffer
	seen   uint64
}

// Pipeline turns per-frame lights and occluders into GPU buffers.
//
// Pipeline is not safe for concurrent use.
type Pipeline struct {
	config Config
	device *gpu.Device
	pool   *parallel.WorkerPool

	lights   *alloc.SlotAllocator[GPULight]
	rounds   *alloc.SlotAllocator[GPURoundOccluder]
	polygons *alloc.SlotAllocator[GPUPolygonOccluder]
	vertices *alloc.VertexArena

	lightBuf, roundBuf, polygonBuf, vertexBuf gpu.Buffer

	occluders   map[uuid.UUID]*occluderState
	lightStates map[uuid.UUID]*lightState

	frame  uint64
	closed bool
}

// NewPipeline creates a pipeline. Without WithDevice or WithDeviceProvider
// it runs headless with host-memory buffers.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	var dev *gpu.Device
	var err error
	switch {
	case o.device != nil || o.queue != nil:
		dev, err = gpu.NewDevice(o.device, o.queue)
	case o.provider != nil:
		dev, err = gpu.DeviceFromProvider(o.provider)
	}
	if err != nil {
		return nil, fmt.Errorf("umbra: resolve device: %w", err)
	}

	p := &Pipeline{
		config:      o.config,
		device:      dev,
		lights:      alloc.NewSlotAllocator[GPULight](o.config.slotOptions()...),
		rounds:      alloc.NewSlotAllocator[GPURoundOccluder](o.config.slotOptions()...),
		polygons:    alloc.NewSlotAllocator[GPUPolygonOccluder](o.config.slotOptions()...),
		vertices:    alloc.NewVertexArena(o.config.vertexOptions()...),
		lightBuf:    gpu.NewBuffer(dev, "umbra_lights"),
		roundBuf:    gpu.NewBuffer(dev, "umbra_round_occluders"),
		polygonBuf:  gpu.NewBuffer(dev, "umbra_polygon_occluders"),
		vertexBuf:   gpu.NewBuffer(dev, "umbra_vertices"),
		occluders:   make(map[uuid.UUID]*occluderState),
		lightStates: make(map[uuid.UUID]*lightState),
	}
	if o.config.Parallelism > 1 {
		p.pool = parallel.NewWorkerPool(o.config.Parallelism)
	}
	Logger().Debug("pipeline created",
		"headless", dev == nil, "parallelism", o.config.Parallelism)
	return p, nil
}

// MemoryStats reports the storage-buffer memory a pipeline holds on its
// device.
type MemoryStats = gpu.MemoryStats

// Memory returns the storage-buffer usage on the device. It is zero for a
// headless pipeline.
func (p *Pipeline) Memory() MemoryStats {
	if p.device == nil {
		return MemoryStats{}
	}
	return p.device.Memory()
}

// Buffers returns the shared slot-array and vertex buffers.
func (p *Pipeline) Buffers() Buffers {
	return Buffers{
		Lights:           p.lightBuf,
		RoundOccluders:   p.roundBuf,
		PolygonOccluders: p.polygonBuf,
		Vertices:         p.vertexBuf,
	}
}

// Frame submits the complete set of live entities for one frame, uploads
// every changed record and rebuilds each light's bins.
//
// Entities are matched across frames by ID. A frame holding an occluder
// with an invalid shape is rejected before anything is written.
func (p *Pipeline) Frame(f Frame) (*FrameResult, error) {
	if p.closed {
		return nil, ErrPipelineClosed
	}
	for i := range f.Occluders {
		if !validShape(f.Occluders[i].Shape) {
			return nil, fmt.Errorf("%w: occluder %s", ErrInvalidShape, f.Occluders[i].ID)
		}
	}
	p.frame++

	for i := range f.Occluders {
		p.setOccluder(&f.Occluders[i])
	}
	lights := make([]*lightState, 0, len(f.Lights))
	for i := range f.Lights {
		if ls, dup := p.setLight(&f.Lights[i]); !dup {
			lights = append(lights, ls)
		}
	}
	p.freeAbsent()

	if err := p.flush(); err != nil {
		return nil, err
	}

	visible := make([][]*occluderState, len(lights))
	for i, ls := range lights {
		visible[i] = p.visibleFrom(&ls.light, f.Occluders)
	}
	build := func(i int) {
		ls := lights[i]
		ls.index.Reset()
		for _, st := range visible[i] {
			binOccluder(ls.index, &ls.light, st)
		}
		ls.index.Sort()
	}
	if p.pool != nil {
		p.pool.ForEach(len(lights), build)
	} else {
		for i := range lights {
			build(i)
		}
	}

	res := &FrameResult{Lights: make([]LightResult, 0, len(lights))}
	for _, ls := range lights {
		if err := ls.index.Write(ls.bins, ls.counts); err != nil {
			return nil, fmt.Errorf("umbra: write bins for light %s: %w", ls.light.ID, err)
		}
		if ls.index.Layers() > 1 {
			Logger().Debug("bin layers overflowed", "light", ls.light.ID, "layers", ls.index.Layers())
		}
		res.Lights = append(res.Lights, LightResult{
			ID:       ls.light.ID,
			Slot:     ls.slot,
			Bins:     ls.bins,
			Counts:   ls.counts,
			Layers:   ls.index.Layers(),
			Pointers: countPointers(ls.index),
		})
	}
	res.LightStats = p.lights.Stats()
	res.RoundStats = p.rounds.Stats()
	res.PolygonStats = p.polygons.Stats()
	res.VertexStats = p.vertices.Stats()
	Logger().Debug("frame done",
		"frame", p.frame, "lights", res.LightStats.String(),
		"rounds", res.RoundStats.String(), "polygons", res.PolygonStats.String(),
		"vertices", res.VertexStats.String())
	return res, nil
}

func (p *Pipeline) setOccluder(o *Occluder) {
	st, ok := p.occluders[o.ID]
	if !ok {
		st = &occluderState{}
		p.occluders[o.ID] = st
	}
	kind := binning.KindPolygon
	if _, round := o.Shape.(Round); round {
		kind = binning.KindRound
	}
	world := outline(o.Shape, o.Position, o.Rotation)

	if ok && st.kind != kind {
		p.releaseOccluder(st)
		st.slot, st.vertices = alloc.BufferIndex{}, alloc.BufferIndex{}
	} else if ok && kind == binning.KindPolygon && len(world) != len(st.world) {
		p.vertices.Free(len(st.world), st.vertices.Generation)
		st.vertices = alloc.BufferIndex{}
	}

	st.occ = *o
	st.kind = kind
	st.world = world
	st.bounds = worldBounds(o.Shape, o.Position, o.Rotation)
	st.seen = p.frame

	if r, round := o.Shape.(Round); round {
		st.slot = p.rounds.Set(GPURoundOccluder{
			Position: o.Position.Vec2(),
			Rotation: float32(o.Rotation),
			Width:    float32(r.Width),
			Height:   float32(r.Height),
			Radius:   float32(r.Radius),
			Z:        o.Z,
			Opacity:  o.Opacity,
		}, st.slot, o.Changed)
		return
	}

	vs := make([]f32.Vec2, len(world))
	for i, v := range world {
		vs[i] = v.Vec2()
	}
	prev := st.vertices
	st.vertices = p.vertices.Write(vs, prev, o.Changed)
	var closed uint32
	if _, ok := o.Shape.(Polygon); ok {
		closed = 1
	}
	//nolint:gosec // G115: vertex counts are bounded by the pointer encoding
	st.slot = p.polygons.Set(GPUPolygonOccluder{
		VertexStart: st.vertices.Index,
		VertexCount: uint32(len(world)),
		Closed:      closed,
		Z:           o.Z,
		Opacity:     o.Opacity,
	}, st.slot, o.Changed || st.vertices != prev)
}

func (p *Pipeline) releaseOccluder(st *occluderState) {
	if st.kind == binning.KindRound {
		p.rounds.Free(st.slot)
		return
	}
	p.polygons.Free(st.slot)
	p.vertices.Free(len(st.world), st.vertices.Generation)
}

// setLight reports dup when the ID was already submitted this frame; the
// later entry wins.
func (p *Pipeline) setLight(l *Light) (ls *lightState, dup bool) {
	ls, ok := p.lightStates[l.ID]
	dup = ok && ls.seen == p.frame
	if !ok {
		ls = &lightState{
			index:  binning.NewIndex(),
			bins:   gpu.NewBuffer(p.device, "umbra_bins_"+l.ID.String()),
			counts: gpu.NewBuffer(p.device, "umbra_bin_counts_"+l.ID.String()),
		}
		p.lightStates[l.ID] = ls
	}
	ls.light = *l
	ls.slot = p.lights.Set(l.record(), ls.slot, l.Changed)
	ls.seen = p.frame
	return ls, dup
}

func (p *Pipeline) freeAbsent() {
	for id, st := range p.occluders {
		if st.seen != p.frame {
			p.releaseOccluder(st)
			delete(p.occluders, id)
		}
	}
	for id, ls := range p.lightStates {
		if ls.seen != p.frame {
			p.lights.Free(ls.slot)
			ls.bins.Destroy()
			ls.counts.Destroy()
			delete(p.lightStates, id)
		}
	}
}

func (p *Pipeline) flush() error {
	gens := [4]uint32{
		p.lights.Generation(), p.rounds.Generation(),
		p.polygons.Generation(), p.vertices.Generation(),
	}
	if err := p.lights.Flush(p.lightBuf); err != nil {
		return fmt.Errorf("umbra: flush lights: %w", err)
	}
	if err := p.rounds.Flush(p.roundBuf); err != nil {
		return fmt.Errorf("umbra: flush round occluders: %w", err)
	}
	if err := p.polygons.Flush(p.polygonBuf); err != nil {
		return fmt.Errorf("umbra: flush polygon occluders: %w", err)
	}
	if err := p.vertices.Pass(p.vertexBuf); err != nil {
		return fmt.Errorf("umbra: flush vertices: %w", err)
	}

	names := [4]string{"lights", "round occluders", "polygon occluders", "vertices"}
	now := [4]uint32{
		p.lights.Generation(), p.rounds.Generation(),
		p.polygons.Generation(), p.vertices.Generation(),
	}
	for i := range gens {
		if now[i] != gens[i] {
			Logger().Info("allocator defragmented", "allocator", names[i], "generation", now[i])
		}
	}
	return nil
}

// visibleFrom resolves the occluders a light considers, in a stable order.
// Unknown and repeated IDs in an explicit list are skipped.
func (p *Pipeline) visibleFrom(l *Light, all []Occluder) []*occluderState {
	var out []*occluderState
	if l.Occluders != nil {
		seen := make(map[uuid.UUID]bool, len(l.Occluders))
		for _, id := range l.Occluders {
			if seen[id] {
				continue
			}
			seen[id] = true
			if st, ok := p.occluders[id]; ok {
				out = append(out, st)
			}
		}
		return out
	}
	area := l.Bounds()
	seen := make(map[uuid.UUID]bool, len(all))
	for i := range all {
		id := all[i].ID
		if seen[id] {
			continue
		}
		seen[id] = true
		if st := p.occluders[id]; area.Intersects(st.bounds) {
			out = append(out, st)
		}
	}
	return out
}

func countPointers(idx *binning.Index) int {
	n := 0
	for l := range idx.Layers() {
		for s := range binning.NBins {
			n += int(idx.Bin(l, s).Count)
		}
	}
	return n
}

// Close destroys every buffer and stops the worker pool. The device
// itself is left to its owner.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.pool != nil {
		p.pool.Close()
	}
	for _, b := range []gpu.Buffer{p.lightBuf, p.roundBuf, p.polygonBuf, p.vertexBuf} {
		b.Destroy()
	}
	for id, ls := range p.lightStates {
		ls.bins.Destroy()
		ls.counts.Destroy()
		delete(p.lightStates, id)
	}
	clear(p.occluders)
}
