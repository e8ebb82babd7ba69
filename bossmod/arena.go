package bossmod

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/world"
)

// ArenaColor is a semantic color; the renderer picks the actual palette.
type ArenaColor uint8

const (
	ColorBackground ArenaColor = iota
	ColorBorder
	ColorAOE
	ColorSafeFromAOE
	ColorDanger
	ColorSafe
	ColorEnemy
	ColorObject
	ColorPC
	ColorPlayerGeneric
	ColorPlayerInteresting
	ColorVulnerable
)

// Arena receives draw calls from the module and its components. Positions are
// world coordinates.
type Arena interface {
	Bounds() Bounds
	Border()
	Zone(shape aoe.Shape, origin cp.Vector, rot common.Angle, c ArenaColor)
	Actor(a *world.Actor, c ArenaColor)
	Line(from, to cp.Vector, c ArenaColor)
	Text(pos cp.Vector, text string, c ArenaColor)
}

// Bounds is the arena area, either a circle or an axis-aligned square.
type Bounds struct {
	Center   cp.Vector
	HalfSize float64
	Square   bool
}

func (b Bounds) Contains(p cp.Vector) bool {
	if b.Square {
		return b.BB().ContainsVect(p)
	}
	return p.DistanceSq(b.Center) < b.HalfSize*b.HalfSize
}

// BB is the bounding box of the arena.
func (b Bounds) BB() cp.BB {
	return cp.NewBBForExtents(b.Center, b.HalfSize, b.HalfSize)
}

// Clamp moves p onto the arena edge if it lies outside.
func (b Bounds) Clamp(p cp.Vector) cp.Vector {
	if b.Square {
		return cp.Vector{
			X: common.Clamp(p.X, b.Center.X-b.HalfSize, b.Center.X+b.HalfSize),
			Y: common.Clamp(p.Y, b.Center.Y-b.HalfSize, b.Center.Y+b.HalfSize),
		}
	}
	off := p.Sub(b.Center)
	if off.LengthSq() <= b.HalfSize*b.HalfSize {
		return p
	}
	return b.Center.Add(off.Normalize().Mult(b.HalfSize))
}
