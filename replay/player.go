package replay

import (
	"fmt"
	"time"

	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/world"
)

// Player feeds a Log into a world.State. Events are applied in log order and
// the world clock never runs ahead of the event being applied, so listeners
// observe the same sequence on every run.
type Player struct {
	log   *Log
	world *world.State
	next  int
}

// NewWorld returns an empty world whose clock starts at the log's start.
func (l *Log) NewWorld() *world.State {
	return world.NewState(l.Start)
}

func NewPlayer(w *world.State, l *Log) *Player {
	return &Player{log: l, world: w}
}

func (p *Player) World() *world.State { return p.world }

func (p *Player) Done() bool { return p.next >= len(p.log.Events) }

// End is the time of the last event.
func (p *Player) End() time.Time { return p.log.Start.Add(p.log.Duration()) }

// NextAt returns the time of the next pending event.
func (p *Player) NextAt() (time.Time, bool) {
	if p.Done() {
		return time.Time{}, false
	}
	return p.log.Start.Add(p.log.Events[p.next].Offset), true
}

// AdvanceTo applies every event due at or before t and then moves the world
// clock to t. It returns the number of events applied. On error the failing
// event is skipped so playback can continue.
func (p *Player) AdvanceTo(t time.Time) (int, error) {
	n := 0
	for !p.Done() {
		e := &p.log.Events[p.next]
		at := p.log.Start.Add(e.Offset)
		if at.After(t) {
			break
		}
		if at.After(p.world.Now()) {
			p.world.Advance(at)
		}
		p.next++
		n++
		if err := apply(p.world, e); err != nil {
			return n, fmt.Errorf("replay: event %d (%s at %v): %w", p.next-1, e.Kind(), e.Offset, err)
		}
	}
	if t.After(p.world.Now()) {
		p.world.Advance(t)
	}
	return n, nil
}

func apply(w *world.State, e *Event) error {
	switch {
	case e.Player != nil:
		w.SetPlayerActorID(*e.Player)
	case e.Combat != nil:
		w.SetInCombat(*e.Combat)
	case e.Create != nil:
		c := e.Create
		typ, err := world.ParseActorType(c.Type)
		if err != nil {
			return err
		}
		return w.CreateActor(&world.Actor{
			InstanceID:   c.ID,
			OID:          c.OID,
			Name:         c.Name,
			Type:         typ,
			Position:     c.Pos.Vector,
			Rotation:     common.Degrees(c.Rotation),
			HitboxRadius: c.Radius,
		})
	case e.Destroy != nil:
		return w.DestroyActor(*e.Destroy)
	case e.Move != nil:
		return w.MoveActor(e.Move.ID, e.Move.Pos.Vector, common.Degrees(e.Move.Rotation))
	case e.Kill != nil:
		return w.SetDead(*e.Kill, true)
	case e.Revive != nil:
		return w.SetDead(*e.Revive, false)
	case e.Target != nil:
		return w.SetTarget(e.Target.ID, e.Target.Target)
	case e.Cast != nil:
		return startCast(w, e.Cast)
	case e.Finish != nil:
		return w.FinishCast(*e.Finish)
	case e.Cancel != nil:
		return w.CancelCast(*e.Cancel)
	case e.Tether != nil:
		return w.SetTether(e.Tether.ID, world.Tether{ID: e.Tether.Tether, Target: e.Tether.Target})
	case e.Untether != nil:
		return w.ClearTether(*e.Untether)
	case e.Status != nil:
		s := e.Status
		return w.SetStatus(s.ID, s.Index, world.Status{
			ID:       s.Status,
			Extra:    s.Extra,
			ExpireAt: w.Now().Add(s.Duration),
			SourceID: s.Source,
		})
	case e.Expire != nil:
		return w.ClearStatus(e.Expire.ID, e.Expire.Index)
	case e.Icon != nil:
		w.Icon(e.Icon.ID, e.Icon.Icon)
	case e.Result != nil:
		r := e.Result
		targets := make([]world.CastTarget, 0, len(r.Targets))
		for _, id := range r.Targets {
			targets = append(targets, world.CastTarget{ID: id})
		}
		w.Cast(world.CastResult{
			CasterID:       r.Caster,
			Action:         world.MakeSpell(r.Action),
			MainTargetID:   r.Target,
			TargetLocation: r.Location.Vector,
			Rotation:       common.Degrees(r.Rotation),
			Targets:        targets,
		})
	case e.Env != nil:
		w.EnvControl(e.Env.Feature, e.Env.Index, e.Env.State)
	default:
		return fmt.Errorf("empty event")
	}
	return nil
}

func startCast(w *world.State, c *CastSpec) error {
	caster, ok := w.Actor(c.ID)
	if !ok {
		return fmt.Errorf("%w: %X", world.ErrUnknownActor, c.ID)
	}
	info := world.CastInfo{
		Action:    world.MakeSpell(c.Action),
		TargetID:  c.Target,
		Location:  caster.Position,
		Rotation:  caster.Rotation,
		FinishAt:  w.Now().Add(c.Duration),
		TotalTime: c.Duration,
	}
	if target, ok := w.Actor(c.Target); ok {
		info.Location = target.Position
	}
	if c.Location != nil {
		info.Location = c.Location.Vector
	}
	if c.Rotation != nil {
		info.Rotation = common.Degrees(*c.Rotation)
	}
	return w.StartCast(c.ID, info)
}
