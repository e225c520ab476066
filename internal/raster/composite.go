package raster

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
)

// kappa is the cubic Bézier control-point factor for a quarter circle.
const kappa = 0.5522847498307936

// capsule appends the outline of a round-capped segment from a to b with the
// given radius. Overlapping capsules within one rasterizer union cleanly
// under the nonzero winding rule, which is what gives polylines their round
// joins.
func capsule(r *vector.Rasterizer, a, b geom.Point, radius float64) {
	if radius <= 0 {
		return
	}
	d := b.Sub(a)
	if d.X == 0 && d.Y == 0 {
		// A dot: the degenerate capsule is a full circle.
		circle(r, a, radius)
		return
	}
	length := a.Distance(b)
	dir := geom.Pt(d.X/length*radius, d.Y/length*radius)
	n := geom.Pt(-dir.Y, dir.X)

	moveTo(r, a.Add(n))
	lineTo(r, b.Add(n))
	quarterArc(r, b, n, dir)
	quarterArc(r, b, dir, n.Mul(-1))
	lineTo(r, a.Sub(n))
	quarterArc(r, a, n.Mul(-1), dir.Mul(-1))
	quarterArc(r, a, dir.Mul(-1), n)
	r.ClosePath()
}

// circle appends a full circle at c.
func circle(r *vector.Rasterizer, c geom.Point, radius float64) {
	vx := geom.Pt(radius, 0)
	vy := geom.Pt(0, radius)
	moveTo(r, c.Add(vx))
	quarterArc(r, c, vx, vy)
	quarterArc(r, c, vy, vx.Mul(-1))
	quarterArc(r, c, vx.Mul(-1), vy.Mul(-1))
	quarterArc(r, c, vy.Mul(-1), vx)
	r.ClosePath()
}

// quarterArc approximates the circular arc from c+v0 to c+v1 with one cubic,
// where v0 and v1 are orthogonal radius vectors of equal length.
func quarterArc(r *vector.Rasterizer, c, v0, v1 geom.Point) {
	p0 := c.Add(v0)
	p3 := c.Add(v1)
	p1 := p0.Add(v1.Mul(kappa))
	p2 := p3.Add(v0.Mul(kappa))
	r.CubeTo(float32(p1.X), float32(p1.Y), float32(p2.X), float32(p2.Y), float32(p3.X), float32(p3.Y))
}

func moveTo(r *vector.Rasterizer, p geom.Point) {
	r.MoveTo(float32(p.X), float32(p.Y))
}

func lineTo(r *vector.Rasterizer, p geom.Point) {
	r.LineTo(float32(p.X), float32(p.Y))
}

// rasterizeMask resolves accumulated coverage into an 8-bit alpha mask.
func rasterizeMask(r *vector.Rasterizer) *image.Alpha {
	mask := image.NewAlpha(r.Bounds())
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// blendOver composites a colored mask source-over onto dst, with the
// stroke's opacity applied uniformly across the mask.
func blendOver(dst *image.RGBA, mask *image.Alpha, col ink.Color, opacity float64) {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	colA := float64(col.A) / 255
	for i, m := range mask.Pix {
		if m == 0 {
			continue
		}
		alpha := float64(m) / 255 * opacity * colA
		j := i * 4
		dst.Pix[j+0] = blend(col.R, dst.Pix[j+0], alpha)
		dst.Pix[j+1] = blend(col.G, dst.Pix[j+1], alpha)
		dst.Pix[j+2] = blend(col.B, dst.Pix[j+2], alpha)
		dst.Pix[j+3] = blend(255, dst.Pix[j+3], alpha)
	}
}

// eraseThrough is the destination-out operator: coverage knocks alpha (and
// the premultiplied color channels) out of whatever was drawn before, and
// has no effect on strokes drawn after.
func eraseThrough(dst *image.RGBA, mask *image.Alpha) {
	for i, m := range mask.Pix {
		if m == 0 {
			continue
		}
		keep := 1 - float64(m)/255
		j := i * 4
		dst.Pix[j+0] = uint8(float64(dst.Pix[j+0])*keep + 0.5)
		dst.Pix[j+1] = uint8(float64(dst.Pix[j+1])*keep + 0.5)
		dst.Pix[j+2] = uint8(float64(dst.Pix[j+2])*keep + 0.5)
		dst.Pix[j+3] = uint8(float64(dst.Pix[j+3])*keep + 0.5)
	}
}

// blend computes one premultiplied source-over channel.
func blend(src, dst uint8, alpha float64) uint8 {
	v := float64(src)*alpha + float64(dst)*(1-alpha)
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}
