package world

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/common"
)

// NumStatusSlots is the fixed size of an actor's status array.
const NumStatusSlots = 30

type ActorType uint8

const (
	ActorTypeNone ActorType = iota
	ActorTypePlayer
	ActorTypeEnemy
	ActorTypeHelper
	ActorTypeEventObj
	ActorTypeArea
)

func (t ActorType) String() string {
	switch t {
	case ActorTypePlayer:
		return "player"
	case ActorTypeEnemy:
		return "enemy"
	case ActorTypeHelper:
		return "helper"
	case ActorTypeEventObj:
		return "eventobj"
	case ActorTypeArea:
		return "area"
	default:
		return "none"
	}
}

// ParseActorType accepts the names produced by ActorType.String.
func ParseActorType(s string) (ActorType, error) {
	for t := ActorTypeNone; t <= ActorTypeArea; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return ActorTypeNone, fmt.Errorf("world: unknown actor type %q", s)
}

type ActionType uint8

const (
	ActionTypeNone ActionType = iota
	ActionTypeSpell
	ActionTypeItem
	ActionTypeGeneral
)

// ActionID identifies an ability. Components watch for specific IDs.
type ActionID struct {
	Type ActionType
	ID   uint32
}

func MakeSpell(id uint32) ActionID { return ActionID{Type: ActionTypeSpell, ID: id} }

func (a ActionID) IsZero() bool { return a.Type == ActionTypeNone && a.ID == 0 }

func (a ActionID) String() string {
	switch a.Type {
	case ActionTypeSpell:
		return fmt.Sprintf("spell#%d", a.ID)
	case ActionTypeItem:
		return fmt.Sprintf("item#%d", a.ID)
	case ActionTypeGeneral:
		return fmt.Sprintf("general#%d", a.ID)
	default:
		return fmt.Sprintf("none#%d", a.ID)
	}
}

// CastInfo describes an in-progress cast.
type CastInfo struct {
	Action    ActionID
	TargetID  uint64
	Location  cp.Vector
	Rotation  common.Angle
	FinishAt  time.Time
	TotalTime time.Duration
}

// Remaining returns how long until the cast resolves, never negative.
func (c *CastInfo) Remaining(now time.Time) time.Duration {
	if c == nil || !now.Before(c.FinishAt) {
		return 0
	}
	return c.FinishAt.Sub(now)
}

type Status struct {
	ID       uint32
	Extra    uint32
	ExpireAt time.Time
	SourceID uint64
}

func (s Status) IsEmpty() bool { return s.ID == 0 }

type Tether struct {
	ID     uint32
	Target uint64
}

func (t Tether) IsEmpty() bool { return t.ID == 0 }

// CastTarget is one affected actor of a resolved cast.
type CastTarget struct {
	ID     uint64
	Damage int
}

// CastResult is an action resolution reported independently of the
// caster's cast bar, e.g. instant abilities or each hit of a multi-hit cast.
type CastResult struct {
	CasterID       uint64
	Action         ActionID
	MainTargetID   uint64
	TargetLocation cp.Vector
	Rotation       common.Angle
	Targets        []CastTarget
}

type Actor struct {
	InstanceID   uint64
	OID          uint32
	Name         string
	Type         ActorType
	Position     cp.Vector
	Rotation     common.Angle
	HitboxRadius float64
	IsDead       bool
	TargetID     uint64
	CastInfo     *CastInfo
	Tether       Tether
	Statuses     [NumStatusSlots]Status
}

func (a *Actor) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %X/%X %q", a.Type, a.InstanceID, a.OID, a.Name)
}

// FindStatus returns the slot index of the first status with the given id, or -1.
func (a *Actor) FindStatus(id uint32) int {
	for i, s := range a.Statuses {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (a *Actor) DistanceTo(o *Actor) float64 {
	return a.Position.Distance(o.Position)
}
