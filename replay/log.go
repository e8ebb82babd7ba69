package replay

import (
	"embed"
	"fmt"
	"os"
	"time"

	"github.com/milk9111/bossmod/aoe"
	"gopkg.in/yaml.v3"
)

//go:embed samples/*.yaml
var Samples embed.FS

// DefaultStart is the world clock used when a log does not set one.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Log is a recorded stream of world events. Offsets are relative to Start.
type Log struct {
	Encounter string    `yaml:"encounter"`
	Start     time.Time `yaml:"start"`
	Events    []Event   `yaml:"events"`
}

// Event is one world change. Exactly one of the change fields is set.
// An event without `at` happens at the same time as the one before it.
type Event struct {
	At     *time.Duration `yaml:"at"`
	Offset time.Duration  `yaml:"-"`

	Player   *uint64     `yaml:"player"`
	Combat   *bool       `yaml:"combat"`
	Create   *ActorSpec  `yaml:"create"`
	Destroy  *uint64     `yaml:"destroy"`
	Move     *MoveSpec   `yaml:"move"`
	Kill     *uint64     `yaml:"kill"`
	Revive   *uint64     `yaml:"revive"`
	Target   *TargetSpec `yaml:"target"`
	Cast     *CastSpec   `yaml:"cast"`
	Finish   *uint64     `yaml:"finish"`
	Cancel   *uint64     `yaml:"cancel"`
	Tether   *TetherSpec `yaml:"tether"`
	Untether *uint64     `yaml:"untether"`
	Status   *StatusSpec `yaml:"status"`
	Expire   *SlotSpec   `yaml:"expire"`
	Icon     *IconSpec   `yaml:"icon"`
	Result   *ResultSpec `yaml:"result"`
	Env      *EnvSpec    `yaml:"env"`
}

type ActorSpec struct {
	ID       uint64  `yaml:"id"`
	OID      uint32  `yaml:"oid"`
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Pos      aoe.Vec `yaml:"pos"`
	Rotation float64 `yaml:"rotation"`
	Radius   float64 `yaml:"radius"`
}

type MoveSpec struct {
	ID       uint64  `yaml:"id"`
	Pos      aoe.Vec `yaml:"pos"`
	Rotation float64 `yaml:"rotation"`
}

type TargetSpec struct {
	ID     uint64 `yaml:"id"`
	Target uint64 `yaml:"target"`
}

// CastSpec starts a cast. Location defaults to the target's position, or
// the caster's without a target; Rotation defaults to the caster's facing.
type CastSpec struct {
	ID       uint64        `yaml:"id"`
	Action   uint32        `yaml:"action"`
	Target   uint64        `yaml:"target"`
	Location *aoe.Vec      `yaml:"location"`
	Rotation *float64      `yaml:"rotation"`
	Duration time.Duration `yaml:"duration"`
}

type TetherSpec struct {
	ID     uint64 `yaml:"id"`
	Tether uint32 `yaml:"tether"`
	Target uint64 `yaml:"target"`
}

type StatusSpec struct {
	ID       uint64        `yaml:"id"`
	Index    int           `yaml:"index"`
	Status   uint32        `yaml:"status"`
	Extra    uint32        `yaml:"extra"`
	Duration time.Duration `yaml:"duration"`
	Source   uint64        `yaml:"source"`
}

type SlotSpec struct {
	ID    uint64 `yaml:"id"`
	Index int    `yaml:"index"`
}

type IconSpec struct {
	ID   uint64 `yaml:"id"`
	Icon uint32 `yaml:"icon"`
}

type ResultSpec struct {
	Caster   uint64   `yaml:"caster"`
	Action   uint32   `yaml:"action"`
	Target   uint64   `yaml:"target"`
	Location aoe.Vec  `yaml:"location"`
	Rotation float64  `yaml:"rotation"`
	Targets  []uint64 `yaml:"targets"`
}

type EnvSpec struct {
	Feature uint32 `yaml:"feature"`
	Index   uint8  `yaml:"index"`
	State   uint32 `yaml:"state"`
}

// Kind names the change an event carries, or "" when none or several are set.
func (e *Event) Kind() string {
	kinds := []struct {
		name string
		set  bool
	}{
		{"player", e.Player != nil},
		{"combat", e.Combat != nil},
		{"create", e.Create != nil},
		{"destroy", e.Destroy != nil},
		{"move", e.Move != nil},
		{"kill", e.Kill != nil},
		{"revive", e.Revive != nil},
		{"target", e.Target != nil},
		{"cast", e.Cast != nil},
		{"finish", e.Finish != nil},
		{"cancel", e.Cancel != nil},
		{"tether", e.Tether != nil},
		{"untether", e.Untether != nil},
		{"status", e.Status != nil},
		{"expire", e.Expire != nil},
		{"icon", e.Icon != nil},
		{"result", e.Result != nil},
		{"env", e.Env != nil},
	}
	name := ""
	for _, k := range kinds {
		if !k.set {
			continue
		}
		if name != "" {
			return ""
		}
		name = k.name
	}
	return name
}

// Parse decodes a log and resolves event offsets.
func Parse(data []byte) (*Log, error) {
	var l Log
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("replay: unmarshal: %w", err)
	}
	if l.Start.IsZero() {
		l.Start = DefaultStart
	}
	var offset time.Duration
	for i := range l.Events {
		e := &l.Events[i]
		if e.At != nil {
			if *e.At < offset {
				return nil, fmt.Errorf("replay: event %d at %v goes back in time from %v", i, *e.At, offset)
			}
			offset = *e.At
		}
		e.Offset = offset
		if e.Kind() == "" {
			return nil, fmt.Errorf("replay: event %d at %v needs exactly one change", i, offset)
		}
	}
	return &l, nil
}

func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: load %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("replay: %s: %w", path, err)
	}
	return l, nil
}

// LoadSample reads one of the embedded sample logs by name.
func LoadSample(name string) (*Log, error) {
	data, err := Samples.ReadFile("samples/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("replay: sample %s: %w", name, err)
	}
	return Parse(data)
}

// Duration is the offset of the last event.
func (l *Log) Duration() time.Duration {
	if len(l.Events) == 0 {
		return 0
	}
	return l.Events[len(l.Events)-1].Offset
}
