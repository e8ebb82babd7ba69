package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Angle is a rotation in radians. Zero faces +Y, increasing counter-clockwise
// towards +X, so Direction(a) = (sin a, cos a).
type Angle float64

func Radians(r float64) Angle { return Angle(r) }

func Degrees(d float64) Angle { return Angle(d * math.Pi / 180) }

func (a Angle) Rad() float64 { return float64(a) }

func (a Angle) Deg() float64 { return float64(a) * 180 / math.Pi }

// Normalized wraps the angle into (-pi, pi].
func (a Angle) Normalized() Angle {
	r := math.Mod(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return Angle(r)
}

func (a Angle) Add(b Angle) Angle { return a + b }

func (a Angle) Abs() Angle {
	if a < 0 {
		return -a
	}
	return a
}

// Direction returns the unit vector the angle faces.
func (a Angle) Direction() cp.Vector {
	s, c := math.Sincos(float64(a))
	return cp.Vector{X: s, Y: c}
}

// AngleOf is the inverse of Direction. The zero vector faces angle zero.
func AngleOf(v cp.Vector) Angle {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return Angle(math.Atan2(v.X, v.Y))
}

// AngleBetween returns the signed difference b-a wrapped into (-pi, pi].
func AngleBetween(a, b Angle) Angle {
	return (b - a).Normalized()
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ortho rotates v by 90 degrees counter-clockwise in the Direction convention,
// i.e. Direction(a).Ortho() == Direction(a + pi/2).
func Ortho(v cp.Vector) cp.Vector {
	return cp.Vector{X: v.Y, Y: -v.X}
}
