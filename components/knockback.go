package components

import (
	"slices"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/world"
)

// KnockbackFromCaster predicts where a watched knockback pushes each raid
// member and warns when that lands outside the arena.
type KnockbackFromCaster struct {
	bossmod.BaseComponent

	Name     string
	Actions  []world.ActionID
	Distance float64
	// MaxRange limits the knockback to members closer than this to the caster.
	// Zero means the whole arena is affected.
	MaxRange float64

	sources []*world.Actor
}

func NewKnockbackFromCaster(name string, distance float64, actions ...world.ActionID) *KnockbackFromCaster {
	return &KnockbackFromCaster{Name: name, Actions: actions, Distance: distance}
}

func (c *KnockbackFromCaster) ComponentName() string { return c.Name }

func (c *KnockbackFromCaster) OnCastStarted(_ *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo != nil && slices.Contains(c.Actions, caster.CastInfo.Action) && !slices.Contains(c.sources, caster) {
		c.sources = append(c.sources, caster)
	}
}

func (c *KnockbackFromCaster) OnCastFinished(_ *bossmod.Module, caster *world.Actor, _ *world.CastInfo) {
	c.drop(caster)
}

func (c *KnockbackFromCaster) OnCastCancelled(_ *bossmod.Module, caster *world.Actor, _ *world.CastInfo) {
	c.drop(caster)
}

func (c *KnockbackFromCaster) OnActorDestroyed(_ *bossmod.Module, a *world.Actor) {
	c.drop(a)
}

func (c *KnockbackFromCaster) drop(a *world.Actor) {
	c.sources = slices.DeleteFunc(c.sources, func(x *world.Actor) bool { return x == a })
}

func (c *KnockbackFromCaster) affects(src, actor *world.Actor) bool {
	if c.MaxRange <= 0 {
		return true
	}
	return aoe.Circle{Radius: c.MaxRange}.Check(actor.Position, src.Position, 0)
}

func (c *KnockbackFromCaster) AddHints(m *bossmod.Module, _ int, actor *world.Actor, hints *bossmod.TextHints, movement *bossmod.MovementHints) {
	for _, src := range c.sources {
		if !c.affects(src, actor) {
			continue
		}
		to := bossmod.AdjustPositionForKnockback(actor.Position, src.Position, c.Distance)
		wall := !m.Bounds.Contains(to)
		movement.Add(actor.Position, to, wall)
		if wall {
			hints.Add("About to be knocked into wall!", true)
		}
	}
}

func (c *KnockbackFromCaster) DrawArenaForeground(m *bossmod.Module, arena bossmod.Arena) {
	for _, member := range m.Raid().Members() {
		for _, src := range c.sources {
			if c.affects(src, member) {
				arena.Line(member.Position, bossmod.AdjustPositionForKnockback(member.Position, src.Position, c.Distance), bossmod.ColorDanger)
			}
		}
	}
}
