package components

import (
	"slices"

	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/world"
)

type tetherLink struct {
	source uint64
	target uint64
}

// TetherTracker flags raid members on either end of a watched tether.
type TetherTracker struct {
	bossmod.BaseComponent

	Name     string
	TetherID uint32
	Text     string

	links []tetherLink
}

func NewTetherTracker(name string, tetherID uint32, text string) *TetherTracker {
	return &TetherTracker{Name: name, TetherID: tetherID, Text: text}
}

func (c *TetherTracker) ComponentName() string { return c.Name }

func (c *TetherTracker) OnTethered(_ *bossmod.Module, source *world.Actor) {
	if source.Tether.ID != c.TetherID {
		return
	}
	c.drop(source.InstanceID)
	c.links = append(c.links, tetherLink{source: source.InstanceID, target: source.Tether.Target})
}

func (c *TetherTracker) OnUntethered(m *bossmod.Module, source *world.Actor) {
	if source.Tether.ID != c.TetherID {
		return
	}
	if !c.drop(source.InstanceID) {
		m.Logger().Printf("components: %s: untether from untracked source %X", c.Name, source.InstanceID)
	}
}

func (c *TetherTracker) OnActorDestroyed(_ *bossmod.Module, a *world.Actor) {
	c.drop(a.InstanceID)
}

func (c *TetherTracker) drop(source uint64) bool {
	n := len(c.links)
	c.links = slices.DeleteFunc(c.links, func(l tetherLink) bool { return l.source == source })
	return len(c.links) != n
}

// Tethered reports whether the actor is an end of a watched tether.
func (c *TetherTracker) Tethered(id uint64) bool {
	return slices.ContainsFunc(c.links, func(l tetherLink) bool { return l.source == id || l.target == id })
}

func (c *TetherTracker) AddHints(_ *bossmod.Module, _ int, actor *world.Actor, hints *bossmod.TextHints, _ *bossmod.MovementHints) {
	if c.Tethered(actor.InstanceID) {
		text := c.Text
		if text == "" {
			text = "Tethered!"
		}
		hints.Add(text, true)
	}
}

func (c *TetherTracker) DrawArenaForeground(m *bossmod.Module, arena bossmod.Arena) {
	for _, l := range c.links {
		src, ok1 := m.World.Actor(l.source)
		dst, ok2 := m.World.Actor(l.target)
		if ok1 && ok2 {
			arena.Line(src.Position, dst.Position, bossmod.ColorDanger)
		}
	}
}
