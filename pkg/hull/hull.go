// Package hull computes convex hull overlays for cluster highlighting: the
// hull of a cluster's rendered node positions, expanded outward so the
// outline encloses rather than touches its members, optionally smoothed
// through a closed spline for rendering.
package hull

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultPadding is the outward expansion distance applied by Overlay when
// the caller passes no explicit padding.
const DefaultPadding = 24.0

// Convex returns the convex hull of points in counter-clockwise order using
// the monotone chain algorithm. Duplicate points are collapsed first.
// Degenerate inputs return what they can: fewer than two distinct points
// yield a hull of that size, collinear point sets yield their two extremes.
func Convex(points []r2.Vec) []r2.Vec {
	pts := dedupe(points)
	if len(pts) < 3 {
		return pts
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Lower then upper chain; last point of each is the first of the other.
	var lower []r2.Vec
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []r2.Vec
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// Expand offsets a convex counter-clockwise polygon outward by padding,
// moving each vertex along the bisector of its adjacent edge normals. The
// result contains the input polygon whenever padding > 0.
func Expand(poly []r2.Vec, padding float64) []r2.Vec {
	n := len(poly)
	if n == 0 || padding == 0 {
		return append([]r2.Vec(nil), poly...)
	}
	if n == 1 {
		return squareAround(poly[0], padding)
	}
	if n == 2 {
		return capsule(poly[0], poly[1], padding)
	}

	out := make([]r2.Vec, 0, n)
	for i := 0; i < n; i++ {
		prev := poly[(i-1+n)%n]
		cur := poly[i]
		next := poly[(i+1)%n]

		n1 := outwardNormal(prev, cur)
		n2 := outwardNormal(cur, next)
		dir := unit(r2.Add(n1, n2))
		if dir == (r2.Vec{}) {
			dir = n2
		}
		out = append(out, r2.Add(cur, r2.Scale(padding, dir)))
	}
	return out
}

// Smooth resamples a closed polygon through a Catmull-Rom spline,
// samplesPerEdge points per segment. Inputs with fewer than three vertices
// are returned unchanged; smoothing them adds nothing.
func Smooth(poly []r2.Vec, samplesPerEdge int) []r2.Vec {
	n := len(poly)
	if n < 3 || samplesPerEdge < 1 {
		return append([]r2.Vec(nil), poly...)
	}

	out := make([]r2.Vec, 0, n*samplesPerEdge)
	for i := 0; i < n; i++ {
		p0 := poly[(i-1+n)%n]
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		p3 := poly[(i+2)%n]
		for s := 0; s < samplesPerEdge; s++ {
			t := float64(s) / float64(samplesPerEdge)
			out = append(out, catmullRom(p0, p1, p2, p3, t))
		}
	}
	return out
}

// Overlay is the full cluster-outline pipeline: convex hull, outward
// expansion, optional smoothing. Zero or one input points produce nil; two
// points produce a padded capsule rectangle.
func Overlay(points []r2.Vec, padding float64, smooth bool) []r2.Vec {
	if padding <= 0 {
		padding = DefaultPadding
	}
	h := Convex(points)
	if len(h) < 2 {
		return nil
	}
	expanded := Expand(h, padding)
	if !smooth {
		return expanded
	}
	return Smooth(expanded, 8)
}

// ContainsPoint reports whether p lies inside or on the boundary of a
// convex counter-clockwise polygon.
func ContainsPoint(poly []r2.Vec, p r2.Vec) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	const eps = 1e-9
	for i := 0; i < n; i++ {
		if cross(poly[i], poly[(i+1)%n], p) < -eps {
			return false
		}
	}
	return true
}

// cross returns the z component of (b-a) x (c-a); positive when c lies left
// of the directed line a->b.
func cross(a, b, c r2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// outwardNormal returns the unit normal pointing away from the interior of
// a counter-clockwise polygon for the edge a->b.
func outwardNormal(a, b r2.Vec) r2.Vec {
	return unit(r2.Vec{X: b.Y - a.Y, Y: a.X - b.X})
}

func unit(v r2.Vec) r2.Vec {
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/l, v)
}

func catmullRom(p0, p1, p2, p3 r2.Vec, t float64) r2.Vec {
	t2 := t * t
	t3 := t2 * t
	return r2.Vec{
		X: 0.5 * (2*p1.X + (p2.X-p0.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (3*p1.X-p0.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * (2*p1.Y + (p2.Y-p0.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (3*p1.Y-p0.Y-3*p2.Y+p3.Y)*t3),
	}
}

// capsule returns a padded rectangle around the segment a-b, used when a
// cluster has exactly two members.
func capsule(a, b r2.Vec, padding float64) []r2.Vec {
	d := unit(r2.Sub(b, a))
	if d == (r2.Vec{}) {
		return squareAround(a, padding)
	}
	nrm := r2.Vec{X: -d.Y, Y: d.X}
	pd := r2.Scale(padding, d)
	pn := r2.Scale(padding, nrm)
	return []r2.Vec{
		r2.Sub(r2.Sub(a, pd), pn),
		r2.Sub(r2.Add(b, pd), pn),
		r2.Add(r2.Add(b, pd), pn),
		r2.Add(r2.Sub(a, pd), pn),
	}
}

func squareAround(c r2.Vec, padding float64) []r2.Vec {
	return []r2.Vec{
		{X: c.X - padding, Y: c.Y - padding},
		{X: c.X + padding, Y: c.Y - padding},
		{X: c.X + padding, Y: c.Y + padding},
		{X: c.X - padding, Y: c.Y + padding},
	}
}

func dedupe(points []r2.Vec) []r2.Vec {
	seen := make(map[r2.Vec]bool, len(points))
	out := make([]r2.Vec, 0, len(points))
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
