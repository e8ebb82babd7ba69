package encounters

import (
	"iter"
	"slices"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/world"
)

var windingGaleShape = aoe.DonutSector{Inner: 9, Outer: 11, HalfAngle: common.Degrees(90)}

// WindingGale tracks spiral arms: a half donut placed one outer radius in
// front of each caster, facing the cast direction.
type WindingGale struct {
	bossmod.BaseComponent

	Name    string
	Actions []world.ActionID

	casters []*world.Actor
}

func NewWindingGale(name string, actions ...world.ActionID) *WindingGale {
	return &WindingGale{Name: name, Actions: actions}
}

func (c *WindingGale) ComponentName() string { return c.Name }

func (c *WindingGale) OnCastStarted(_ *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo != nil && slices.Contains(c.Actions, caster.CastInfo.Action) && !slices.Contains(c.casters, caster) {
		c.casters = append(c.casters, caster)
	}
}

func (c *WindingGale) OnCastFinished(_ *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	if slices.Contains(c.Actions, cast.Action) {
		c.drop(caster)
	}
}

func (c *WindingGale) OnCastCancelled(_ *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	if slices.Contains(c.Actions, cast.Action) {
		c.drop(caster)
	}
}

func (c *WindingGale) OnActorDestroyed(_ *bossmod.Module, a *world.Actor) {
	c.drop(a)
}

func (c *WindingGale) drop(a *world.Actor) {
	c.casters = slices.DeleteFunc(c.casters, func(x *world.Actor) bool { return x == a })
}

func (c *WindingGale) ActiveHazards(*bossmod.Module, int, *world.Actor) iter.Seq[aoe.Instance] {
	return func(yield func(aoe.Instance) bool) {
		for _, caster := range c.casters {
			if caster.CastInfo == nil {
				continue
			}
			h := aoe.Instance{
				Shape:      windingGaleShape,
				Origin:     caster.Position.Add(caster.Rotation.Direction().Mult(windingGaleShape.Outer)),
				Rotation:   caster.CastInfo.Rotation,
				Activation: caster.CastInfo.FinishAt,
			}
			if !yield(h) {
				return
			}
		}
	}
}

func (c *WindingGale) AddHints(m *bossmod.Module, slot int, actor *world.Actor, hints *bossmod.TextHints, _ *bossmod.MovementHints) {
	if components.InAny(c.ActiveHazards(m, slot, actor), actor) {
		hints.Add(components.DefaultRiskText, true)
	}
}

func (c *WindingGale) DrawArenaBackground(m *bossmod.Module, arena bossmod.Arena) {
	for h := range c.ActiveHazards(m, -1, nil) {
		arena.Zone(h.Shape, h.Origin, h.Rotation, bossmod.ColorAOE)
	}
}
