package facet

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/surface"
)

// UV is a point in surface parameter space.
type UV struct{ U, V float64 }

func (a UV) sub(b UV) UV { return UV{a.U - b.U, a.V - b.V} }

func cross2(a, b UV) float64 { return a.U*b.V - a.V*b.U }

// unwrapStep maps a parameter difference into (-p/2, p/2].
func unwrapStep(d, p float64) float64 {
	d = math.Mod(d, p)
	if d > p/2 {
		d -= p
	} else if d <= -p/2 {
		d += p
	}
	return d
}

// parametrize projects a ring onto s. On a surface periodic in u the ring
// is unwrapped so that consecutive points never jump across the seam. The
// returned turn is the net u displacement around the closed ring.
func parametrize(s surface.Surface, ring []geom.Vec) (uvs []UV, turn float64) {
	uvs = make([]UV, len(ring))
	period, periodic := s.UPeriod()
	for i, p := range ring {
		u, v, _ := s.Project(p)
		if periodic && i > 0 {
			u = uvs[i-1].U + unwrapStep(u-uvs[i-1].U, period)
		}
		uvs[i] = UV{u, v}
	}
	if periodic && len(uvs) > 0 {
		last, first := uvs[len(uvs)-1].U, uvs[0].U
		u0, _, _ := s.Project(ring[0])
		turn = (last - first) + unwrapStep(u0-last, period)
	}
	return uvs, turn
}

// Turn returns the net u displacement of a closed ring on s. It is zero
// on surfaces that are not periodic.
func Turn(s surface.Surface, ring []geom.Vec) float64 {
	_, turn := parametrize(s, ring)
	return turn
}

// Wraps reports whether a ring with the given turn goes all the way around
// a surface of that period.
func Wraps(turn, period float64) bool { return math.Abs(turn) > period/2 }

// align shifts an inner ring by whole periods so that it sits on the same
// branch as the outer ring.
func align(inner []UV, ref float64, period float64) {
	if len(inner) == 0 {
		return
	}
	var mean float64
	for _, p := range inner {
		mean += p.U
	}
	mean /= float64(len(inner))
	shift := math.Round((ref-mean)/period) * period
	if shift == 0 {
		return
	}
	for i := range inner {
		inner[i].U += shift
	}
}

func signedArea(pts []UV) float64 {
	a := 0.0
	for i := range pts {
		a += cross2(pts[i], pts[(i+1)%len(pts)])
	}
	return a / 2
}

func pointInPolygon(p UV, poly []UV) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.V > p.V) != (b.V > p.V) {
			x := a.U + (p.V-a.V)*(b.U-a.U)/(b.V-a.V)
			if p.U < x {
				in = !in
			}
		}
	}
	return in
}
