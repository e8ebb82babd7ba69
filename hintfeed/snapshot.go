package hintfeed

import (
	"time"

	"github.com/milk9111/bossmod/bossmod"
)

// Snapshot is what consumers receive every tick.
type Snapshot struct {
	Time        time.Time   `json:"time"`
	Encounter   string      `json:"encounter"`
	Phase       string      `json:"phase,omitempty"`
	TimeInPhase float64     `json:"time_in_phase"`
	Components  []string    `json:"components"`
	Slots       []SlotHints `json:"slots"`
}

// SlotHints holds the advice for one occupied raid slot.
type SlotHints struct {
	Slot     int                   `json:"slot"`
	ActorID  uint64                `json:"actor_id"`
	Name     string                `json:"name,omitempty"`
	Player   bool                  `json:"player,omitempty"`
	X        float64               `json:"x"`
	Y        float64               `json:"y"`
	Hints    bossmod.TextHints     `json:"hints"`
	Movement bossmod.MovementHints `json:"movement,omitempty"`
	Hazards  []Hazard              `json:"hazards,omitempty"`
}

type Hazard struct {
	Shape      string    `json:"shape"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Rotation   float64   `json:"rotation"`
	Activation time.Time `json:"activation"`
}

// Capture evaluates hints and hazards for every raid member of m.
func Capture(m *bossmod.Module) Snapshot {
	s := Snapshot{
		Time:       m.World.Now(),
		Encounter:  m.Name,
		Components: m.ComponentNames(),
		Slots:      []SlotHints{},
	}
	if active := m.StateMachine.Active(); active != nil {
		s.Phase = active.Name
		s.TimeInPhase = m.StateMachine.TimeInState(s.Time).Seconds()
	}
	playerID := m.World.PlayerID()
	for slot, a := range m.Raid().Members() {
		var movement bossmod.MovementHints
		hints := m.CalculateHints(slot, a, &movement)
		if hints == nil {
			hints = bossmod.TextHints{}
		}
		sh := SlotHints{
			Slot:     slot,
			ActorID:  a.InstanceID,
			Name:     a.Name,
			Player:   a.InstanceID == playerID,
			X:        a.Position.X,
			Y:        a.Position.Y,
			Hints:    hints,
			Movement: movement,
		}
		for h := range m.ActiveHazards(slot, a) {
			if h.Shape == nil {
				continue
			}
			sh.Hazards = append(sh.Hazards, Hazard{
				Shape:      h.Shape.String(),
				X:          h.Origin.X,
				Y:          h.Origin.Y,
				Rotation:   h.Rotation.Deg(),
				Activation: h.Activation,
			})
		}
		s.Slots = append(s.Slots, sh)
	}
	return s
}

// RiskCount is the number of risk hints across all slots.
func (s Snapshot) RiskCount() int {
	n := 0
	for _, sh := range s.Slots {
		for _, h := range sh.Hints {
			if h.Risk {
				n++
			}
		}
	}
	return n
}
