package bossmod

import (
	"slices"

	"github.com/milk9111/bossmod/world"
)

var _ world.Listener = (*Module)(nil)

func (m *Module) PlayerActorIDChanged(id uint64) {
	m.tracef("player id -> %X", id)
}

func (m *Module) PlayerInCombatChanged(inCombat bool) {
	m.tracef("in combat -> %t", inCombat)
	if inCombat {
		m.enterCombat()
	} else {
		m.exitCombat()
	}
}

func (m *Module) ActorCreated(a *world.Actor) {
	m.tracef("created %v", a)
	if a.Type == world.ActorTypePlayer {
		slot := m.raid.Add(a)
		if slot < 0 {
			m.logf("raid is full (%d slots), dropping %v", m.raid.Size(), a)
		} else if m.hooks.RaidMemberCreated != nil {
			m.hooks.RaidMemberCreated(m, slot, a)
		}
	} else {
		if list, ok := m.enemies[a.OID]; ok {
			m.enemies[a.OID] = append(list, a)
		}
		if m.hooks.NonPlayerCreated != nil {
			m.hooks.NonPlayerCreated(m, a)
		}
	}
	m.each(func(c Component) { c.OnActorCreated(m, a) })
}

func (m *Module) ActorDestroyed(a *world.Actor) {
	m.tracef("destroyed %v", a)
	m.each(func(c Component) { c.OnActorDestroyed(m, a) })
	if a.Type == world.ActorTypePlayer {
		slot := m.raid.SlotOf(a)
		if slot < 0 {
			m.logf("destroyed player %v is not in the raid", a)
			return
		}
		if m.hooks.RaidMemberDestroyed != nil {
			m.hooks.RaidMemberDestroyed(m, slot, a)
		}
		m.raid.Clear(slot)
		return
	}
	if m.hooks.NonPlayerDestroyed != nil {
		m.hooks.NonPlayerDestroyed(m, a)
	}
	if list, ok := m.enemies[a.OID]; ok {
		m.enemies[a.OID] = slices.DeleteFunc(slices.Clone(list), func(x *world.Actor) bool { return x == a })
	}
}

func (m *Module) ActorCastStarted(a *world.Actor) {
	m.tracef("cast started %v %v", a, a.CastInfo.Action)
	m.each(func(c Component) { c.OnCastStarted(m, a) })
}

func (m *Module) ActorCastFinished(a *world.Actor, cast *world.CastInfo) {
	m.tracef("cast finished %v %v", a, cast.Action)
	m.each(func(c Component) { c.OnCastFinished(m, a, cast) })
}

func (m *Module) ActorCastCancelled(a *world.Actor, cast *world.CastInfo) {
	m.tracef("cast cancelled %v %v", a, cast.Action)
	m.each(func(c Component) { c.OnCastCancelled(m, a, cast) })
}

func (m *Module) ActorTethered(a *world.Actor) {
	m.tracef("tethered %v -> %X (%d)", a, a.Tether.Target, a.Tether.ID)
	m.each(func(c Component) { c.OnTethered(m, a) })
}

func (m *Module) ActorUntethered(a *world.Actor) {
	m.tracef("untethered %v", a)
	m.each(func(c Component) { c.OnUntethered(m, a) })
}

func (m *Module) ActorStatusGain(a *world.Actor, index int) {
	m.tracef("status gain %v [%d] %d", a, index, a.Statuses[index].ID)
	m.each(func(c Component) { c.OnStatusGain(m, a, index) })
}

func (m *Module) ActorStatusLose(a *world.Actor, index int) {
	m.tracef("status lose %v [%d] %d", a, index, a.Statuses[index].ID)
	m.each(func(c Component) { c.OnStatusLose(m, a, index) })
}

func (m *Module) ActorStatusChange(a *world.Actor, index int) {
	m.tracef("status change %v [%d] %d", a, index, a.Statuses[index].ID)
	m.each(func(c Component) { c.OnStatusChange(m, a, index) })
}

func (m *Module) EventIcon(actorID uint64, iconID uint32) {
	if _, ok := m.World.Actor(actorID); !ok {
		m.logf("icon %d for unknown actor %X", iconID, actorID)
	}
	m.each(func(c Component) { c.OnEventIcon(m, actorID, iconID) })
}

func (m *Module) EventCast(result *world.CastResult) {
	m.tracef("event cast %X %v", result.CasterID, result.Action)
	m.each(func(c Component) { c.OnEventCast(m, result) })
}

func (m *Module) EventEnvControl(featureID uint32, index uint8, state uint32) {
	m.tracef("env control %X.%d = %X", featureID, index, state)
	m.each(func(c Component) { c.OnEventEnvControl(m, featureID, index, state) })
}
