// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"encoding/binary"
	"math"
)

// Record strides in bytes.
const (
	LightStride           = 32
	RoundOccluderStride   = 32
	PolygonOccluderStride = 32
)

// GPULight is the light-array record.
//
// Layout (32 bytes):
//
//	vec2<f32> position   (offset  0)
//	f32       range      (offset  8)
//	f32       intensity  (offset 12)
//	vec3<f32> color      (offset 16)
//	f32       z          (offset 28)
type GPULight struct {
	Position  [2]float32
	Range     float32
	Intensity float32
	Color     [3]float32
	Z         float32
}

// Stride implements alloc.Record.
func (GPULight) Stride() int { return LightStride }

// Marshal implements alloc.Record.
func (l GPULight) Marshal(dst []byte) {
	putFloats(dst, l.Position[0], l.Position[1], l.Range, l.Intensity,
		l.Color[0], l.Color[1], l.Color[2], l.Z)
}

// GPURoundOccluder is the round-occluder record.
//
// Layout (32 bytes):
//
//	vec2<f32> position  (offset  0)
//	f32       rotation  (offset  8)
//	f32       width     (offset 12)
//	f32       height    (offset 16)
//	f32       radius    (offset 20)
//	f32       z         (offset 24)
//	f32       opacity   (offset 28)
type GPURoundOccluder struct {
	Position [2]float32
	Rotation float32
	Width    float32
	Height   float32
	Radius   float32
	Z        float32
	Opacity  float32
}

// Stride implements alloc.Record.
func (GPURoundOccluder) Stride() int { return RoundOccluderStride }

// Marshal implements alloc.Record.
func (o GPURoundOccluder) Marshal(dst []byte) {
	putFloats(dst, o.Position[0], o.Position[1], o.Rotation, o.Width, o.Height,
		o.Radius, o.Z, o.Opacity)
}

// GPUPolygonOccluder is the polygon-occluder record. Its vertices live in
// the vertex arena.
//
// Layout (32 bytes):
//
//	u32 vertex_start  (offset  0)
//	u32 vertex_count  (offset  4)
//	u32 closed        (offset  8)
//	f32 z             (offset 12)
//	f32 opacity       (offset 16)
//	u32 _pad[3]       (offset 20)
type GPUPolygonOccluder struct {
	VertexStart uint32
	VertexCount uint32
	Closed      uint32
	Z           float32
	Opacity     float32
}

// Stride implements alloc.Record.
func (GPUPolygonOccluder) Stride() int { return PolygonOccluderStride }

// Marshal implements alloc.Record.
func (o GPUPolygonOccluder) Marshal(dst []byte) {
	le := binary.LittleEndian
	le.PutUint32(dst[0:4], o.VertexStart)
	le.PutUint32(dst[4:8], o.VertexCount)
	le.PutUint32(dst[8:12], o.Closed)
	le.PutUint32(dst[12:16], math.Float32bits(o.Z))
	le.PutUint32(dst[16:20], math.Float32bits(o.Opacity))
	clear(dst[20:32])
}

func putFloats(dst []byte, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
