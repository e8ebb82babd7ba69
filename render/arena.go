package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/world"
	"golang.org/x/image/font/basicfont"
)

const (
	actorRadius = 0.8
	borderWidth = 2
	zoneWidth   = 1.5
)

// Palette turns semantic arena colors into screen colors.
type Palette interface {
	Lookup(c bossmod.ArenaColor) color.Color
}

// Arena draws a module's arena onto an ebiten image. Call Begin with the
// target before handing the arena to Module.Draw.
type Arena struct {
	Projection
	palette Palette
	bounds  bossmod.Bounds
	face    ebtext.Face
	screen  *ebiten.Image
}

func NewArena(bounds bossmod.Bounds, palette Palette, scale float64) *Arena {
	return &Arena{
		Projection: Projection{Center: bounds.Center, Scale: scale},
		palette:    palette,
		bounds:     bounds,
		face:       ebtext.NewGoXFace(basicfont.Face7x13),
	}
}

// Begin targets screen for the next frame and clears it.
func (a *Arena) Begin(screen *ebiten.Image) {
	a.screen = screen
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	a.Width, a.Height = w, h
	screen.Fill(a.palette.Lookup(bossmod.ColorBackground))
}

// SetBounds follows a module rebuilt with different arena bounds.
func (a *Arena) SetBounds(b bossmod.Bounds) {
	a.bounds = b
	a.Center = b.Center
}

func (a *Arena) Bounds() bossmod.Bounds { return a.bounds }

func (a *Arena) Border() {
	clr := a.palette.Lookup(bossmod.ColorBorder)
	if a.bounds.Square {
		bb := a.bounds.BB()
		x0, y0 := a.ToScreen(cp.Vector{X: bb.L, Y: bb.B})
		x1, y1 := a.ToScreen(cp.Vector{X: bb.R, Y: bb.T})
		vector.StrokeRect(a.screen, x0, y0, x1-x0, y1-y0, borderWidth, clr, true)
		return
	}
	cx, cy := a.ToScreen(a.bounds.Center)
	vector.StrokeCircle(a.screen, cx, cy, float32(a.bounds.HalfSize*a.Scale), borderWidth, clr, true)
}

// Zone outlines a hazard shape.
func (a *Arena) Zone(shape aoe.Shape, origin cp.Vector, rot common.Angle, c bossmod.ArenaColor) {
	if shape == nil {
		return
	}
	clr := a.palette.Lookup(c)
	for _, poly := range shape.Outline(origin, rot) {
		a.polyline(poly, clr, zoneWidth)
	}
}

func (a *Arena) Actor(actor *world.Actor, c bossmod.ArenaColor) {
	if actor == nil {
		return
	}
	clr := a.palette.Lookup(c)
	radius := actor.HitboxRadius
	if radius <= 0 {
		radius = actorRadius
	}
	x, y := a.ToScreen(actor.Position)
	r := float32(radius * a.Scale)
	if actor.IsDead {
		vector.StrokeCircle(a.screen, x, y, r, 1, clr, true)
		return
	}
	vector.FillCircle(a.screen, x, y, r, clr, true)
	fx, fy := a.ToScreen(actor.Position.Add(actor.Rotation.Direction().Mult(radius * 2)))
	vector.StrokeLine(a.screen, x, y, fx, fy, 2, clr, true)
}

func (a *Arena) Line(from, to cp.Vector, c bossmod.ArenaColor) {
	x0, y0 := a.ToScreen(from)
	x1, y1 := a.ToScreen(to)
	vector.StrokeLine(a.screen, x0, y0, x1, y1, 1, a.palette.Lookup(c), true)
}

func (a *Arena) Text(pos cp.Vector, s string, c bossmod.ArenaColor) {
	x, y := a.ToScreen(pos)
	a.ScreenText(float64(x), float64(y), s, a.palette.Lookup(c))
}

// ScreenText draws s at a screen position, used for overlays outside the
// arena.
func (a *Arena) ScreenText(x, y float64, s string, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = a.face.Metrics().HAscent + a.face.Metrics().HDescent
	ebtext.Draw(a.screen, s, a.face, op)
}

func (a *Arena) polyline(pts []cp.Vector, clr color.Color, width float32) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := a.ToScreen(pts[i-1])
		x1, y1 := a.ToScreen(pts[i])
		vector.StrokeLine(a.screen, x0, y0, x1, y1, width, clr, true)
	}
}

// Projection maps world coordinates onto a screen of Width x Height pixels,
// with Center in the middle and Scale pixels per world unit.
type Projection struct {
	Center        cp.Vector
	Scale         float64
	Width, Height int
}

func (p Projection) ToScreen(v cp.Vector) (float32, float32) {
	x := float64(p.Width)/2 + (v.X-p.Center.X)*p.Scale
	y := float64(p.Height)/2 + (v.Y-p.Center.Y)*p.Scale
	return float32(x), float32(y)
}

func (p Projection) ToWorld(x, y float64) cp.Vector {
	if p.Scale == 0 {
		return p.Center
	}
	return cp.Vector{
		X: p.Center.X + (x-float64(p.Width)/2)/p.Scale,
		Y: p.Center.Y + (y-float64(p.Height)/2)/p.Scale,
	}
}

// FitScale returns the largest scale showing the whole arena with margin
// pixels to spare on the shorter screen side.
func FitScale(b bossmod.Bounds, width, height int, margin float64) float64 {
	side := math.Min(float64(width), float64(height)) - 2*margin
	if side <= 0 || b.HalfSize <= 0 {
		return 1
	}
	return side / (2 * b.HalfSize)
}
