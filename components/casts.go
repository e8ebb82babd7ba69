package components

import (
	"slices"

	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/world"
)

// CastHint shows a plain hint to everyone while a watched cast is in progress.
type CastHint struct {
	bossmod.BaseComponent

	Name    string
	Actions []world.ActionID
	Text    string

	casters []uint64
}

func NewCastHint(name, text string, actions ...world.ActionID) *CastHint {
	return &CastHint{Name: name, Actions: actions, Text: text}
}

func (c *CastHint) ComponentName() string { return c.Name }

// Active reports whether any watched cast is in progress.
func (c *CastHint) Active() bool { return len(c.casters) > 0 }

func (c *CastHint) OnCastStarted(_ *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo != nil && slices.Contains(c.Actions, caster.CastInfo.Action) && !slices.Contains(c.casters, caster.InstanceID) {
		c.casters = append(c.casters, caster.InstanceID)
	}
}

func (c *CastHint) OnCastFinished(_ *bossmod.Module, caster *world.Actor, _ *world.CastInfo) {
	c.drop(caster.InstanceID)
}

func (c *CastHint) OnCastCancelled(_ *bossmod.Module, caster *world.Actor, _ *world.CastInfo) {
	c.drop(caster.InstanceID)
}

func (c *CastHint) OnActorDestroyed(_ *bossmod.Module, a *world.Actor) {
	c.drop(a.InstanceID)
}

func (c *CastHint) drop(id uint64) {
	c.casters = slices.DeleteFunc(c.casters, func(x uint64) bool { return x == id })
}

func (c *CastHint) AddHints(_ *bossmod.Module, _ int, _ *world.Actor, hints *bossmod.TextHints, _ *bossmod.MovementHints) {
	if c.Active() {
		hints.Add(c.Text, false)
	}
}

// CastCounter counts resolutions of watched actions reported as cast events.
type CastCounter struct {
	bossmod.BaseComponent

	Name    string
	Actions []world.ActionID

	count int
}

func NewCastCounter(name string, actions ...world.ActionID) *CastCounter {
	return &CastCounter{Name: name, Actions: actions}
}

func (c *CastCounter) ComponentName() string { return c.Name }

func (c *CastCounter) Count() int { return c.count }

func (c *CastCounter) OnEventCast(_ *bossmod.Module, result *world.CastResult) {
	if slices.Contains(c.Actions, result.Action) {
		c.count++
	}
}
