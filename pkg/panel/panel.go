// Package panel binds live fields of scene objects to named controls.
//
// A control holds a pointer to the field it edits, never a copy, so a
// value read through the panel is always the value the renderer sees.
package panel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-animated-scenes/pkg/core"
)

var (
	// ErrUnknownControl is returned when no control has the given name
	ErrUnknownControl = errors.New("unknown control")
	// ErrTypeMismatch is returned when a value cannot be converted to the
	// control's type
	ErrTypeMismatch = errors.New("value type does not match control")
)

// Type identifies the kind of a control
type Type string

const (
	TypeRange  Type = "range"
	TypeColor  Type = "color"
	TypeToggle Type = "toggle"
)

// Descriptor is the serializable state of one control
type Descriptor struct {
	Name  string   `json:"name"`
	Type  Type     `json:"type"`
	Value any      `json:"value"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Step  *float64 `json:"step,omitempty"`
}

// Control is one named binding
type Control interface {
	Name() string
	Get() any
	Descriptor() Descriptor
	set(v any) error
}

// Panel is an ordered set of controls for one scene
type Panel struct {
	controls []Control
	index    map[string]int
	logger   *slog.Logger
}

// New creates an empty panel
func New(logger *slog.Logger) *Panel {
	return &Panel{index: make(map[string]int), logger: core.LoggerOrDefault(logger)}
}

func (p *Panel) add(c Control) {
	if _, dup := p.index[c.Name()]; dup {
		panic(fmt.Sprintf("panel: duplicate control %q", c.Name()))
	}
	p.index[c.Name()] = len(p.controls)
	p.controls = append(p.controls, c)
}

// Len returns the number of controls
func (p *Panel) Len() int { return len(p.controls) }

// Control returns the named control
func (p *Panel) Control(name string) (Control, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	return p.controls[i], nil
}

// Set writes v through the named binding. Out of range numbers are
// clamped, not rejected.
func (p *Panel) Set(name string, v any) error {
	c, err := p.Control(name)
	if err != nil {
		return err
	}
	if err := c.set(v); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	p.logger.Debug("panel edit", "control", name, "value", c.Get())
	return nil
}

// Get reads the live value of the named binding
func (p *Panel) Get(name string) (any, error) {
	c, err := p.Control(name)
	if err != nil {
		return nil, err
	}
	return c.Get(), nil
}

// Controls returns the descriptors of every control in panel order
func (p *Panel) Controls() []Descriptor {
	out := make([]Descriptor, len(p.controls))
	for i, c := range p.controls {
		out[i] = c.Descriptor()
	}
	return out
}

// Apply sets every named value, in panel order so that paired controls
// resolve the same way regardless of map order. Unknown names are
// reported after the known ones have been applied.
func (p *Panel) Apply(values map[string]any) error {
	var errs []error
	for _, c := range p.controls {
		v, ok := values[c.Name()]
		if !ok {
			continue
		}
		if err := p.Set(c.Name(), v); err != nil {
			errs = append(errs, err)
		}
	}
	for name := range values {
		if _, ok := p.index[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownControl, name))
		}
	}
	return errors.Join(errs...)
}
