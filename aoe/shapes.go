package aoe

import (
	"fmt"
	"math"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/common"
)

// Shape is a hazard area relative to an origin and a rotation.
//
// Containment is strict everywhere: a point on an outer radius, on an inner
// radius or on a wedge edge is outside the hazard.
type Shape interface {
	Check(pos, origin cp.Vector, rot common.Angle) bool
	// Outline returns closed polygons approximating the shape boundary.
	Outline(origin cp.Vector, rot common.Angle) [][]cp.Vector
	String() string
}

// outlineSegments is the number of segments used for a full circle.
const outlineSegments = 64

type Circle struct {
	Radius float64
}

func (s Circle) Check(pos, origin cp.Vector, _ common.Angle) bool {
	return pos.DistanceSq(origin) < s.Radius*s.Radius
}

func (s Circle) Outline(origin cp.Vector, _ common.Angle) [][]cp.Vector {
	return [][]cp.Vector{arc(origin, s.Radius, 0, math.Pi, true)}
}

func (s Circle) String() string { return fmt.Sprintf("Circle(%g)", s.Radius) }

// Donut is a disk of radius Outer with a hole of radius Inner.
type Donut struct {
	Inner float64
	Outer float64
}

func (s Donut) Check(pos, origin cp.Vector, _ common.Angle) bool {
	d2 := pos.DistanceSq(origin)
	return d2 > s.Inner*s.Inner && d2 < s.Outer*s.Outer
}

func (s Donut) Outline(origin cp.Vector, _ common.Angle) [][]cp.Vector {
	return [][]cp.Vector{
		arc(origin, s.Outer, 0, math.Pi, true),
		arc(origin, s.Inner, 0, math.Pi, true),
	}
}

func (s Donut) String() string { return fmt.Sprintf("Donut(%g, %g)", s.Inner, s.Outer) }

// Cone is a disk sector centered on the rotation, spanning HalfAngle to each side.
type Cone struct {
	Radius    float64
	HalfAngle common.Angle
}

func (s Cone) Check(pos, origin cp.Vector, rot common.Angle) bool {
	off := pos.Sub(origin)
	return off.LengthSq() < s.Radius*s.Radius && inWedge(off, rot, s.HalfAngle)
}

func (s Cone) Outline(origin cp.Vector, rot common.Angle) [][]cp.Vector {
	pts := []cp.Vector{origin}
	pts = append(pts, arc(origin, s.Radius, rot, s.HalfAngle.Rad(), false)...)
	return [][]cp.Vector{pts}
}

func (s Cone) String() string { return fmt.Sprintf("Cone(%g, %g°)", s.Radius, s.HalfAngle.Deg()) }

// DonutSector is a donut intersected with a wedge.
type DonutSector struct {
	Inner     float64
	Outer     float64
	HalfAngle common.Angle
}

func (s DonutSector) Check(pos, origin cp.Vector, rot common.Angle) bool {
	off := pos.Sub(origin)
	d2 := off.LengthSq()
	return d2 > s.Inner*s.Inner && d2 < s.Outer*s.Outer && inWedge(off, rot, s.HalfAngle)
}

func (s DonutSector) Outline(origin cp.Vector, rot common.Angle) [][]cp.Vector {
	outer := arc(origin, s.Outer, rot, s.HalfAngle.Rad(), false)
	inner := arc(origin, s.Inner, rot, s.HalfAngle.Rad(), false)
	pts := append([]cp.Vector{}, outer...)
	for i := len(inner) - 1; i >= 0; i-- {
		pts = append(pts, inner[i])
	}
	return [][]cp.Vector{pts}
}

func (s DonutSector) String() string {
	return fmt.Sprintf("DonutSector(%g, %g, %g°)", s.Inner, s.Outer, s.HalfAngle.Deg())
}

// Rect is an oriented rectangle extending LengthFront along the rotation,
// LengthBack behind the origin and HalfWidth to each side.
type Rect struct {
	LengthFront float64
	LengthBack  float64
	HalfWidth   float64
}

func (s Rect) Check(pos, origin cp.Vector, rot common.Angle) bool {
	dir := rot.Direction()
	off := pos.Sub(origin)
	along := off.Dot(dir)
	across := off.Dot(common.Ortho(dir))
	return along < s.LengthFront && along > -s.LengthBack && math.Abs(across) < s.HalfWidth
}

func (s Rect) Outline(origin cp.Vector, rot common.Angle) [][]cp.Vector {
	dir := rot.Direction()
	side := common.Ortho(dir).Mult(s.HalfWidth)
	front := origin.Add(dir.Mult(s.LengthFront))
	back := origin.Sub(dir.Mult(s.LengthBack))
	return [][]cp.Vector{{
		front.Add(side),
		front.Sub(side),
		back.Sub(side),
		back.Add(side),
	}}
}

func (s Rect) String() string {
	return fmt.Sprintf("Rect(%g, %g, %g)", s.LengthFront, s.LengthBack, s.HalfWidth)
}

// Centered builds a rectangle extending length both ways from its origin.
func Centered(length, halfWidth float64) Rect {
	return Rect{LengthFront: length, LengthBack: length, HalfWidth: halfWidth}
}

// Charge returns a rectangle from `from` to `to` with the given half width,
// along with the rotation it must be evaluated with.
func Charge(from, to cp.Vector, halfWidth float64) (Rect, common.Angle) {
	off := to.Sub(from)
	return Rect{LengthFront: off.Length(), HalfWidth: halfWidth}, common.AngleOf(off)
}

// inWedge reports whether off lies strictly within halfAngle of rot.
// The apex itself lies on both edges and is therefore outside.
func inWedge(off cp.Vector, rot, halfAngle common.Angle) bool {
	if halfAngle.Rad() >= math.Pi {
		return true
	}
	if off.X == 0 && off.Y == 0 {
		return false
	}
	delta := common.AngleBetween(rot, common.AngleOf(off))
	return delta.Abs() < halfAngle
}

// arc samples a circular arc of the given half span around rot. Closed arcs
// drop the duplicated end point.
func arc(center cp.Vector, radius float64, rot common.Angle, halfSpan float64, closed bool) []cp.Vector {
	n := int(math.Ceil(outlineSegments * halfSpan / math.Pi))
	if n < 2 {
		n = 2
	}
	count := n + 1
	if closed {
		count = n
	}
	pts := make([]cp.Vector, 0, count)
	for i := 0; i < count; i++ {
		a := rot.Rad() - halfSpan + 2*halfSpan*float64(i)/float64(n)
		pts = append(pts, center.Add(common.Radians(a).Direction().Mult(radius)))
	}
	return pts
}

// Instance is one hazard that resolves at Activation.
type Instance struct {
	Shape      Shape
	Origin     cp.Vector
	Rotation   common.Angle
	Activation time.Time
}

func (i Instance) Check(pos cp.Vector) bool {
	return i.Shape != nil && i.Shape.Check(pos, i.Origin, i.Rotation)
}

func (i Instance) Outline() [][]cp.Vector {
	if i.Shape == nil {
		return nil
	}
	return i.Shape.Outline(i.Origin, i.Rotation)
}

func (i Instance) String() string {
	return fmt.Sprintf("%v at (%.2f, %.2f) rot %.1f° @%s", i.Shape, i.Origin.X, i.Origin.Y, i.Rotation.Deg(), i.Activation.Format("15:04:05.000"))
}
