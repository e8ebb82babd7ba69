package world

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/common"
)

var (
	ErrUnknownActor   = errors.New("world: unknown actor")
	ErrDuplicateActor = errors.New("world: duplicate actor")
	ErrNoCast         = errors.New("world: actor is not casting")
	ErrStatusIndex    = errors.New("world: status index out of range")
	// Instance id 0 means "no actor" in targets, tethers and the player id.
	ErrZeroInstanceID = errors.New("world: instance id 0 is reserved")
)

// Listener receives world change notifications in the order the setters
// were called. Notifications describing a removal (destroy, cast end,
// untether, status loss) are delivered while the actor still carries the
// outgoing state.
type Listener interface {
	PlayerActorIDChanged(id uint64)
	PlayerInCombatChanged(inCombat bool)
	ActorCreated(a *Actor)
	ActorDestroyed(a *Actor)
	ActorCastStarted(a *Actor)
	ActorCastFinished(a *Actor, cast *CastInfo)
	ActorCastCancelled(a *Actor, cast *CastInfo)
	ActorTethered(a *Actor)
	ActorUntethered(a *Actor)
	ActorStatusGain(a *Actor, index int)
	ActorStatusLose(a *Actor, index int)
	ActorStatusChange(a *Actor, index int)
	EventIcon(actorID uint64, iconID uint32)
	EventCast(result *CastResult)
	EventEnvControl(featureID uint32, index uint8, state uint32)
}

// NopListener implements Listener with no-ops. Embed it to observe a subset.
type NopListener struct{}

func (NopListener) PlayerActorIDChanged(uint64) {}
func (NopListener) PlayerInCombatChanged(bool) {}
func (NopListener) ActorCreated(*Actor) {}
func (NopListener) ActorDestroyed(*Actor) {}
func (NopListener) ActorCastStarted(*Actor) {}
func (NopListener) ActorCastFinished(*Actor, *CastInfo) {}
func (NopListener) ActorCastCancelled(*Actor, *CastInfo) {}
func (NopListener) ActorTethered(*Actor) {}
func (NopListener) ActorUntethered(*Actor) {}
func (NopListener) ActorStatusGain(*Actor, int) {}
func (NopListener) ActorStatusLose(*Actor, int) {}
func (NopListener) ActorStatusChange(*Actor, int) {}
func (NopListener) EventIcon(uint64, uint32) {}
func (NopListener) EventCast(*CastResult) {}
func (NopListener) EventEnvControl(uint32, uint8, uint32) {}

// State is the mutable picture of the world as reported by the event source.
type State struct {
	actors    map[uint64]*Actor
	order     []*Actor
	listeners []Listener

	now      time.Time
	playerID uint64
	inCombat bool
}

func NewState(start time.Time) *State {
	return &State{
		actors: make(map[uint64]*Actor),
		now:    start,
	}
}

func (s *State) Now() time.Time { return s.now }
func (s *State) PlayerID() uint64 { return s.playerID }
func (s *State) InCombat() bool { return s.inCombat }

// Advance moves the clock forward. Going backwards is ignored.
func (s *State) Advance(now time.Time) {
	if now.After(s.now) {
		s.now = now
	}
}

func (s *State) AddListener(l Listener) {
	if l == nil || slices.Contains(s.listeners, l) {
		return
	}
	s.listeners = append(s.listeners, l)
}

func (s *State) RemoveListener(l Listener) {
	s.listeners = slices.DeleteFunc(s.listeners, func(x Listener) bool { return x == l })
}

func (s *State) ListenerCount() int { return len(s.listeners) }

func (s *State) notify(fn func(l Listener)) {
	for _, l := range slices.Clone(s.listeners) {
		fn(l)
	}
}

// Actor looks up a live actor.
func (s *State) Actor(id uint64) (*Actor, bool) {
	a, ok := s.actors[id]
	return a, ok
}

// Actors yields live actors in creation order.
func (s *State) Actors() iter.Seq[*Actor] {
	return func(yield func(*Actor) bool) {
		for _, a := range s.order {
			if !yield(a) {
				return
			}
		}
	}
}

func (s *State) ActorCount() int { return len(s.order) }

// Player returns the actor controlled by the local player, if known.
func (s *State) Player() *Actor {
	return s.actors[s.playerID]
}

func (s *State) lookup(id uint64) (*Actor, error) {
	a, ok := s.actors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %X", ErrUnknownActor, id)
	}
	return a, nil
}

func (s *State) SetPlayerActorID(id uint64) {
	if s.playerID == id {
		return
	}
	s.playerID = id
	s.notify(func(l Listener) { l.PlayerActorIDChanged(id) })
}

func (s *State) SetInCombat(inCombat bool) {
	if s.inCombat == inCombat {
		return
	}
	s.inCombat = inCombat
	s.notify(func(l Listener) { l.PlayerInCombatChanged(inCombat) })
}

// CreateActor takes ownership of a and announces it.
func (s *State) CreateActor(a *Actor) error {
	if a == nil {
		return fmt.Errorf("world: create nil actor")
	}
	if a.InstanceID == 0 {
		return fmt.Errorf("%w: %s", ErrZeroInstanceID, a.Name)
	}
	if _, ok := s.actors[a.InstanceID]; ok {
		return fmt.Errorf("%w: %X", ErrDuplicateActor, a.InstanceID)
	}
	s.actors[a.InstanceID] = a
	s.order = append(s.order, a)
	s.notify(func(l Listener) { l.ActorCreated(a) })
	return nil
}

// DestroyActor announces the destruction and then forgets the actor.
func (s *State) DestroyActor(id uint64) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.notify(func(l Listener) { l.ActorDestroyed(a) })
	delete(s.actors, id)
	s.order = slices.DeleteFunc(s.order, func(x *Actor) bool { return x == a })
	return nil
}

// MoveActor updates position and facing. Movement is not announced.
func (s *State) MoveActor(id uint64, pos cp.Vector, rot common.Angle) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	a.Position = pos
	a.Rotation = rot
	return nil
}

func (s *State) SetDead(id uint64, dead bool) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	a.IsDead = dead
	return nil
}

func (s *State) SetTarget(id, target uint64) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	a.TargetID = target
	return nil
}

// StartCast begins a cast. An unresolved previous cast is cancelled first.
func (s *State) StartCast(id uint64, cast CastInfo) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	if a.CastInfo != nil {
		s.endCast(a, true)
	}
	c := cast
	a.CastInfo = &c
	s.notify(func(l Listener) { l.ActorCastStarted(a) })
	return nil
}

// FinishCast resolves the current cast successfully.
func (s *State) FinishCast(id uint64) error {
	return s.stopCast(id, false)
}

// CancelCast aborts the current cast.
func (s *State) CancelCast(id uint64) error {
	return s.stopCast(id, true)
}

func (s *State) stopCast(id uint64, cancelled bool) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	if a.CastInfo == nil {
		return fmt.Errorf("%w: %X", ErrNoCast, id)
	}
	s.endCast(a, cancelled)
	return nil
}

func (s *State) endCast(a *Actor, cancelled bool) {
	cast := a.CastInfo
	if cancelled {
		s.notify(func(l Listener) { l.ActorCastCancelled(a, cast) })
	} else {
		s.notify(func(l Listener) { l.ActorCastFinished(a, cast) })
	}
	if a.CastInfo == cast {
		a.CastInfo = nil
	}
}

// SetTether replaces the actor's tether. An existing tether is untethered first.
func (s *State) SetTether(id uint64, t Tether) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !a.Tether.IsEmpty() {
		s.notify(func(l Listener) { l.ActorUntethered(a) })
	}
	a.Tether = t
	if !t.IsEmpty() {
		s.notify(func(l Listener) { l.ActorTethered(a) })
	}
	return nil
}

func (s *State) ClearTether(id uint64) error {
	return s.SetTether(id, Tether{})
}

// SetStatus writes a status slot, announcing gain, loss or change as appropriate.
// Replacing one status id with another is reported as a loss followed by a gain.
func (s *State) SetStatus(id uint64, index int, st Status) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= NumStatusSlots {
		return fmt.Errorf("%w: %d", ErrStatusIndex, index)
	}
	prev := a.Statuses[index]
	switch {
	case prev.IsEmpty() && st.IsEmpty():
		return nil
	case prev.IsEmpty():
		a.Statuses[index] = st
		s.notify(func(l Listener) { l.ActorStatusGain(a, index) })
	case st.IsEmpty():
		s.notify(func(l Listener) { l.ActorStatusLose(a, index) })
		a.Statuses[index] = Status{}
	case prev.ID != st.ID:
		s.notify(func(l Listener) { l.ActorStatusLose(a, index) })
		a.Statuses[index] = st
		s.notify(func(l Listener) { l.ActorStatusGain(a, index) })
	case prev != st:
		a.Statuses[index] = st
		s.notify(func(l Listener) { l.ActorStatusChange(a, index) })
	}
	return nil
}

func (s *State) ClearStatus(id uint64, index int) error {
	return s.SetStatus(id, index, Status{})
}

func (s *State) Icon(actorID uint64, iconID uint32) {
	s.notify(func(l Listener) { l.EventIcon(actorID, iconID) })
}

func (s *State) Cast(result CastResult) {
	r := result
	s.notify(func(l Listener) { l.EventCast(&r) })
}

func (s *State) EnvControl(featureID uint32, index uint8, state uint32) {
	s.notify(func(l Listener) { l.EventEnvControl(featureID, index, state) })
}
