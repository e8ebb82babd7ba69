package aoe

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/common"
	"gopkg.in/yaml.v3"
)

// ShapeSpec is the YAML form of a Shape. Angles are in degrees.
type ShapeSpec struct {
	Kind        string  `yaml:"kind"`
	Radius      float64 `yaml:"radius"`
	Inner       float64 `yaml:"inner"`
	Outer       float64 `yaml:"outer"`
	HalfAngle   float64 `yaml:"half_angle"`
	LengthFront float64 `yaml:"length_front"`
	LengthBack  float64 `yaml:"length_back"`
	HalfWidth   float64 `yaml:"half_width"`
}

// Build converts the spec into a Shape, validating its dimensions.
func (s ShapeSpec) Build() (Shape, error) {
	switch strings.ToLower(s.Kind) {
	case "circle":
		if s.Radius <= 0 {
			return nil, fmt.Errorf("aoe: circle radius must be positive, got %g", s.Radius)
		}
		return Circle{Radius: s.Radius}, nil
	case "donut":
		if err := checkRing(s.Inner, s.Outer); err != nil {
			return nil, err
		}
		return Donut{Inner: s.Inner, Outer: s.Outer}, nil
	case "cone":
		if s.Radius <= 0 || s.HalfAngle <= 0 {
			return nil, fmt.Errorf("aoe: cone needs positive radius and half_angle, got %g/%g", s.Radius, s.HalfAngle)
		}
		return Cone{Radius: s.Radius, HalfAngle: common.Degrees(s.HalfAngle)}, nil
	case "donut_sector":
		if err := checkRing(s.Inner, s.Outer); err != nil {
			return nil, err
		}
		if s.HalfAngle <= 0 {
			return nil, fmt.Errorf("aoe: donut_sector half_angle must be positive, got %g", s.HalfAngle)
		}
		return DonutSector{Inner: s.Inner, Outer: s.Outer, HalfAngle: common.Degrees(s.HalfAngle)}, nil
	case "rect":
		if s.HalfWidth <= 0 || s.LengthFront+s.LengthBack <= 0 {
			return nil, fmt.Errorf("aoe: rect needs positive half_width and length, got %g/%g", s.HalfWidth, s.LengthFront+s.LengthBack)
		}
		return Rect{LengthFront: s.LengthFront, LengthBack: s.LengthBack, HalfWidth: s.HalfWidth}, nil
	case "":
		return nil, fmt.Errorf("aoe: shape kind missing")
	default:
		return nil, fmt.Errorf("aoe: unknown shape kind %q", s.Kind)
	}
}

func checkRing(inner, outer float64) error {
	if inner < 0 || outer <= inner {
		return fmt.Errorf("aoe: ring needs 0 <= inner < outer, got %g/%g", inner, outer)
	}
	return nil
}

// Vec is a cp.Vector that decodes from either `[x, y]` or `{x: .., y: ..}`.
type Vec struct {
	cp.Vector
}

func (v *Vec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var xy []float64
		if err := value.Decode(&xy); err != nil {
			return err
		}
		if len(xy) != 2 {
			return fmt.Errorf("vector must have 2 components, got %d", len(xy))
		}
		v.Vector = cp.Vector{X: xy[0], Y: xy[1]}
		return nil
	case yaml.MappingNode:
		var xy struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
		}
		if err := value.Decode(&xy); err != nil {
			return err
		}
		v.Vector = cp.Vector{X: xy.X, Y: xy.Y}
		return nil
	default:
		return fmt.Errorf("vector must be a sequence or mapping")
	}
}

func (v Vec) MarshalYAML() (any, error) {
	return []float64{v.X, v.Y}, nil
}
