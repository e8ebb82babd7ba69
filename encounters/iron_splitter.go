package encounters

import (
	"iter"
	"slices"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/world"
)

// IronSplitter covers the arena in concentric rings centered on the arena.
// Which set of rings fires depends on the floor tile the caster stands on:
// a caster on the center, second or fourth ring tile gets the circle
// pattern, anywhere else the offset donut pattern.
type IronSplitter struct {
	bossmod.BaseComponent

	Name    string
	Actions []world.ActionID

	hazards []aoe.Instance
}

var (
	ironSplitterTiles = []aoe.Shape{
		aoe.Circle{Radius: 4},
		aoe.Donut{Inner: 8, Outer: 12},
		aoe.Donut{Inner: 16, Outer: 20},
	}
	ironSplitterSands = []aoe.Shape{
		aoe.Donut{Inner: 4, Outer: 8},
		aoe.Donut{Inner: 12, Outer: 16},
		aoe.Donut{Inner: 20, Outer: 25},
	}
)

func NewIronSplitter(name string, actions ...world.ActionID) *IronSplitter {
	return &IronSplitter{Name: name, Actions: actions}
}

func (c *IronSplitter) ComponentName() string { return c.Name }

func onTile(distance float64) bool {
	return distance < 3 || (distance > 9 && distance < 11) || (distance > 17 && distance < 19)
}

func (c *IronSplitter) OnCastStarted(m *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo == nil || !slices.Contains(c.Actions, caster.CastInfo.Action) {
		return
	}
	pattern := ironSplitterSands
	if onTile(caster.Position.Distance(m.Bounds.Center)) {
		pattern = ironSplitterTiles
	}
	for _, shape := range pattern {
		c.hazards = append(c.hazards, aoe.Instance{
			Shape:      shape,
			Origin:     m.Bounds.Center,
			Activation: caster.CastInfo.FinishAt,
		})
	}
}

func (c *IronSplitter) OnCastFinished(_ *bossmod.Module, _ *world.Actor, cast *world.CastInfo) {
	if slices.Contains(c.Actions, cast.Action) {
		c.hazards = nil
	}
}

func (c *IronSplitter) OnCastCancelled(_ *bossmod.Module, _ *world.Actor, cast *world.CastInfo) {
	if slices.Contains(c.Actions, cast.Action) {
		c.hazards = nil
	}
}

func (c *IronSplitter) ActiveHazards(*bossmod.Module, int, *world.Actor) iter.Seq[aoe.Instance] {
	return slices.Values(c.hazards)
}

func (c *IronSplitter) AddHints(m *bossmod.Module, slot int, actor *world.Actor, hints *bossmod.TextHints, _ *bossmod.MovementHints) {
	if components.InAny(c.ActiveHazards(m, slot, actor), actor) {
		hints.Add(components.DefaultRiskText, true)
	}
}

func (c *IronSplitter) DrawArenaBackground(_ *bossmod.Module, arena bossmod.Arena) {
	for _, h := range c.hazards {
		arena.Zone(h.Shape, h.Origin, h.Rotation, bossmod.ColorAOE)
	}
}
