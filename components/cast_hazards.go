package components

import (
	"iter"
	"slices"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/world"
)

// DefaultRiskText is shown to raid members standing in an active hazard.
const DefaultRiskText = "GTFO from aoe!"

// Placement turns a cast into a hazard. Returning false skips the cast.
type Placement func(m *bossmod.Module, caster *world.Actor, shape aoe.Shape) (aoe.Instance, bool)

type trackedCast struct {
	casterID uint64
	hazard   aoe.Instance
}

// CastHazards remembers one hazard per caster of a watched action. A hazard
// lives from the cast start until that caster's cast finishes or is cancelled.
type CastHazards struct {
	bossmod.BaseComponent

	Name     string
	Actions  []world.ActionID
	Shape    aoe.Shape
	Place    Placement
	RiskText string

	casts     []trackedCast
	finished  int
	cancelled int
}

func (c *CastHazards) ComponentName() string { return c.Name }

func (c *CastHazards) watched(action world.ActionID) bool {
	return slices.Contains(c.Actions, action)
}

// SelfTargetedAOEs places the shape on the caster, facing the cast rotation.
func SelfTargetedAOEs(name string, shape aoe.Shape, actions ...world.ActionID) *CastHazards {
	return &CastHazards{Name: name, Actions: actions, Shape: shape, Place: AtCaster}
}

// LocationTargetedAOEs places the shape on the cast's target location.
func LocationTargetedAOEs(name string, shape aoe.Shape, actions ...world.ActionID) *CastHazards {
	return &CastHazards{Name: name, Actions: actions, Shape: shape, Place: AtLocation}
}

// ChargeAOEs covers the path from the caster to its target with a
// rectangle of the given half width.
func ChargeAOEs(name string, halfWidth float64, actions ...world.ActionID) *CastHazards {
	return &CastHazards{
		Name:    name,
		Actions: actions,
		Shape:   aoe.Rect{HalfWidth: halfWidth},
		Place:   chargePath(halfWidth),
	}
}

func AtCaster(_ *bossmod.Module, caster *world.Actor, shape aoe.Shape) (aoe.Instance, bool) {
	return aoe.Instance{
		Shape:      shape,
		Origin:     caster.Position,
		Rotation:   caster.CastInfo.Rotation,
		Activation: caster.CastInfo.FinishAt,
	}, true
}

func AtLocation(_ *bossmod.Module, caster *world.Actor, shape aoe.Shape) (aoe.Instance, bool) {
	return aoe.Instance{
		Shape:      shape,
		Origin:     caster.CastInfo.Location,
		Rotation:   caster.CastInfo.Rotation,
		Activation: caster.CastInfo.FinishAt,
	}, true
}

func chargePath(halfWidth float64) Placement {
	return func(m *bossmod.Module, caster *world.Actor, _ aoe.Shape) (aoe.Instance, bool) {
		dest := caster.CastInfo.Location
		if target, ok := m.World.Actor(caster.CastInfo.TargetID); ok && target != caster {
			dest = target.Position
		}
		rect, rot := aoe.Charge(caster.Position, dest, halfWidth)
		if rect.LengthFront <= 0 {
			return aoe.Instance{}, false
		}
		return aoe.Instance{
			Shape:      rect,
			Origin:     caster.Position,
			Rotation:   rot,
			Activation: caster.CastInfo.FinishAt,
		}, true
	}
}

func (c *CastHazards) OnCastStarted(m *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo == nil || !c.watched(caster.CastInfo.Action) {
		return
	}
	place := c.Place
	if place == nil {
		place = AtCaster
	}
	h, ok := place(m, caster, c.Shape)
	if !ok {
		return
	}
	if i := c.indexOf(caster.InstanceID); i >= 0 {
		c.casts[i].hazard = h
		return
	}
	c.casts = append(c.casts, trackedCast{casterID: caster.InstanceID, hazard: h})
}

func (c *CastHazards) OnCastFinished(_ *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	if c.watched(cast.Action) && c.remove(caster.InstanceID) {
		c.finished++
	}
}

func (c *CastHazards) OnCastCancelled(_ *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	if c.watched(cast.Action) && c.remove(caster.InstanceID) {
		c.cancelled++
	}
}

func (c *CastHazards) OnActorDestroyed(m *bossmod.Module, a *world.Actor) {
	if c.remove(a.InstanceID) {
		m.Logger().Printf("components: %s: caster %X destroyed mid-cast, dropping its hazard", c.Name, a.InstanceID)
	}
}

func (c *CastHazards) indexOf(id uint64) int {
	return slices.IndexFunc(c.casts, func(t trackedCast) bool { return t.casterID == id })
}

func (c *CastHazards) remove(id uint64) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.casts = slices.Delete(c.casts, i, i+1)
	return true
}

// Casters returns the ids of tracked casters in start order.
func (c *CastHazards) Casters() []uint64 {
	ids := make([]uint64, 0, len(c.casts))
	for _, t := range c.casts {
		ids = append(ids, t.casterID)
	}
	return ids
}

// Finished and Cancelled count resolved casts by outcome.
func (c *CastHazards) Finished() int { return c.finished }
func (c *CastHazards) Cancelled() int { return c.cancelled }

func (c *CastHazards) ActiveHazards(*bossmod.Module, int, *world.Actor) iter.Seq[aoe.Instance] {
	return func(yield func(aoe.Instance) bool) {
		for _, t := range c.casts {
			if !yield(t.hazard) {
				return
			}
		}
	}
}

func (c *CastHazards) AddHints(m *bossmod.Module, slot int, actor *world.Actor, hints *bossmod.TextHints, _ *bossmod.MovementHints) {
	if InAny(c.ActiveHazards(m, slot, actor), actor) {
		text := c.RiskText
		if text == "" {
			text = DefaultRiskText
		}
		hints.Add(text, true)
	}
}

func (c *CastHazards) DrawArenaBackground(_ *bossmod.Module, arena bossmod.Arena) {
	for _, t := range c.casts {
		arena.Zone(t.hazard.Shape, t.hazard.Origin, t.hazard.Rotation, bossmod.ColorAOE)
	}
}

// InAny reports whether actor stands in any of the hazards.
func InAny(hazards iter.Seq[aoe.Instance], actor *world.Actor) bool {
	for h := range hazards {
		if h.Check(actor.Position) {
			return true
		}
	}
	return false
}
