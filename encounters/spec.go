package encounters

import (
	"fmt"
	"time"

	"github.com/milk9111/bossmod/aoe"
	"gopkg.in/yaml.v3"
)

// Spec is the YAML definition of one encounter.
type Spec struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	RaidSize    int             `yaml:"raid_size"`
	BossOID     uint32          `yaml:"boss_oid"`
	Arena       ArenaSpec       `yaml:"arena"`
	Script      string          `yaml:"script"`
	Components  []ComponentSpec `yaml:"components"`
	Timeline    TimelineSpec    `yaml:"timeline"`
}

type ArenaSpec struct {
	Center   aoe.Vec `yaml:"center"`
	HalfSize float64 `yaml:"half_size"`
	Square   bool    `yaml:"square"`
}

// ComponentSpec configures one registered component. Which fields matter
// depends on Kind.
type ComponentSpec struct {
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	Order       int           `yaml:"order"`
	Description string        `yaml:"description"`
	Actions     []uint32      `yaml:"actions"`
	Shape       aoe.ShapeSpec `yaml:"shape"`
	HalfWidth   float64       `yaml:"half_width"`
	Text        string        `yaml:"text"`
	RiskText    string        `yaml:"risk_text"`
	Distance    float64       `yaml:"distance"`
	MaxRange    float64       `yaml:"max_range"`
	Tether      uint32        `yaml:"tether"`
	Script      string        `yaml:"script"`
}

type TimelineSpec struct {
	Initial string      `yaml:"initial"`
	States  []StateSpec `yaml:"states"`
}

// StateSpec is one timeline node. Without Next the following state in the
// list is used; End marks the last state explicitly.
type StateSpec struct {
	Name     string         `yaml:"name"`
	Duration time.Duration  `yaml:"duration"`
	Next     string         `yaml:"next"`
	End      bool           `yaml:"end"`
	Manual   bool           `yaml:"manual"`
	Until    *ConditionSpec `yaml:"until"`
	Enter    []ActionSpec   `yaml:"enter"`
	Exit     []ActionSpec   `yaml:"exit"`
}

// ConditionSpec holds exactly one advancement condition.
type ConditionSpec struct {
	// EnemyDead holds once the first enemy with this OID is dead or gone.
	EnemyDead uint32 `yaml:"enemy_dead"`
	// Casting holds while any actor casts this spell.
	Casting uint32 `yaml:"casting"`
	// Casts holds once the named cast counter reached Count.
	Casts *CastCountSpec `yaml:"casts"`
}

type CastCountSpec struct {
	Component string `yaml:"component"`
	Count     int    `yaml:"count"`
}

// ActionSpec holds exactly one timeline side effect.
type ActionSpec struct {
	Activate   string `yaml:"activate"`
	Deactivate string `yaml:"deactivate"`
	Run        string `yaml:"run"`
	Log        string `yaml:"log"`
}

// UnmarshalYAML also accepts the short form "activate: name" written as a
// single "verb name" string.
func (a *ActionSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var verb, arg string
		if _, err := fmt.Sscan(value.Value, &verb, &arg); err != nil {
			return fmt.Errorf("line %d: action %q: want \"<verb> <name>\"", value.Line, value.Value)
		}
		switch verb {
		case "activate":
			a.Activate = arg
		case "deactivate":
			a.Deactivate = arg
		case "run":
			a.Run = arg
		default:
			return fmt.Errorf("line %d: unknown action %q", value.Line, verb)
		}
		return nil
	}
	type plain ActionSpec
	return value.Decode((*plain)(a))
}

func (a ActionSpec) String() string {
	switch {
	case a.Activate != "":
		return "activate " + a.Activate
	case a.Deactivate != "":
		return "deactivate " + a.Deactivate
	case a.Run != "":
		return "run " + a.Run
	case a.Log != "":
		return "log"
	default:
		return "noop"
	}
}

func (a ActionSpec) count() int {
	n := 0
	for _, s := range []string{a.Activate, a.Deactivate, a.Run, a.Log} {
		if s != "" {
			n++
		}
	}
	return n
}

// LoadSpec reads and decodes the named encounter.
func (l Library) LoadSpec(name string) (*Spec, error) {
	data, err := l.Load(name)
	if err != nil {
		return nil, fmt.Errorf("encounters: load %s: %w", name, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("encounters: unmarshal %s: %w", name, err)
	}
	if spec.Name == "" {
		spec.Name = encounterName(name)
	}
	return &spec, nil
}
