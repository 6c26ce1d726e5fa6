package silhouette

import (
	"math"
	"testing"

	"github.com/gogpu/umbra/geom"
)

// BenchmarkDecomposeStar splits a 64-point star, which yields many short
// chains, as seen from its centre and from outside.
func BenchmarkDecomposeStar(b *testing.B) {
	ring := make([]geom.Point, 65)
	for i := range 64 {
		r := 3.0
		if i%2 == 1 {
			r = 1.5
		}
		a := 2 * math.Pi * float64(i) / 64
		ring[i] = geom.Pt(r*math.Cos(a), r*math.Sin(a))
	}
	ring[64] = ring[0]

	for _, bc := range []struct {
		name  string
		light geom.Point
	}{
		{"inside", geom.Pt(0, 0)},
		{"outside", geom.Pt(10, 1)},
	} {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Decompose(bc.light, ring)
			}
		})
	}
}
