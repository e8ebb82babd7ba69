package bossmod

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrDuplicateRegistration = errors.New("bossmod: duplicate component registration")
	ErrUnknownComponent      = errors.New("bossmod: unknown component")
)

// Registration describes one component that encounters and scripts can
// activate by name.
type Registration struct {
	Name        string
	Order       int
	Parent      string
	Description string
	New         func() Component

	// Type and Key identify live instances created from this registration.
	Type reflect.Type
	Key  string
}

func (r *Registration) matches(c Component) bool {
	if reflect.TypeOf(c) != r.Type {
		return false
	}
	if r.Key == "" {
		return true
	}
	n, ok := c.(Named)
	return ok && n.ComponentName() == r.Key
}

// Registry is the table of named components for an encounter. It is filled
// once at startup and read afterwards.
type Registry struct {
	byName map[string]*Registration
	all    []*Registration
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Registration)}
}

// Register adds reg. Type and Key are taken from a sample instance when
// not set explicitly, so constructors must be cheap and side-effect free.
func (r *Registry) Register(reg Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("bossmod: registration without name")
	}
	if reg.New == nil {
		return fmt.Errorf("bossmod: registration %q has no constructor", reg.Name)
	}
	if _, ok := r.byName[reg.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, reg.Name)
	}
	if reg.Type == nil {
		sample := reg.New()
		if sample == nil {
			return fmt.Errorf("bossmod: registration %q constructor returned nil", reg.Name)
		}
		id := identityOf(sample)
		reg.Type, reg.Key = id.typ, id.name
	}
	entry := reg
	r.byName[reg.Name] = &entry
	r.all = append(r.all, &entry)
	return nil
}

// Register is a typed helper around Registry.Register.
func Register[T Component](r *Registry, name string, order int, description string, ctor func() T) error {
	return r.Register(Registration{
		Name:        name,
		Order:       order,
		Description: description,
		New:         func() Component { return ctor() },
	})
}

func (r *Registry) Lookup(name string) (*Registration, bool) {
	if r == nil {
		return nil, false
	}
	reg, ok := r.byName[name]
	return reg, ok
}

// Entries returns registrations sorted by order, then name.
func (r *Registry) Entries() []*Registration {
	if r == nil {
		return nil
	}
	out := append([]*Registration(nil), r.all...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// NameOf finds the registration name of a live component.
func (r *Registry) NameOf(c Component) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, reg := range r.all {
		if reg.matches(c) {
			return reg.Name, true
		}
	}
	return "", false
}
