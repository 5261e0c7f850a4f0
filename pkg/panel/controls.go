package panel

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Range binds a float field to [Min, Max], snapped to Step when Step > 0
type Range struct {
	name     string
	ptr      *float32
	min, max float64
	step     float64
	onChange []func(float32)
}

// AddRange binds ptr as a range control
func (p *Panel) AddRange(name string, ptr *float32, min, max, step float64) *Range {
	r := &Range{name: name, ptr: ptr, min: min, max: max, step: step}
	p.add(r)
	return r
}

// OnChange registers fn to run after every edit
func (r *Range) OnChange(fn func(float32)) *Range {
	r.onChange = append(r.onChange, fn)
	return r
}

func (r *Range) Name() string { return r.name }
func (r *Range) Get() any     { return float64(*r.ptr) }

func (r *Range) Descriptor() Descriptor {
	d := Descriptor{Name: r.name, Type: TypeRange, Value: r.Get(), Min: ptrTo(r.min), Max: ptrTo(r.max)}
	if r.step > 0 {
		d.Step = ptrTo(r.step)
	}
	return d
}

func (r *Range) set(v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	*r.ptr = float32(quantize(f, r.min, r.max, r.step))
	for _, fn := range r.onChange {
		fn(*r.ptr)
	}
	return nil
}

// MinMax binds two float fields that must stay ordered, such as a
// camera's near and far planes. Moving one side pushes the other so that
// hi - lo >= Gap.
type MinMax struct {
	lo, hi   *float32
	min, max float64
	step     float64
	gap      float64
	onChange []func()
}

// AddMinMax binds lo and hi as two range controls named loName and hiName
func (p *Panel) AddMinMax(loName, hiName string, lo, hi *float32, min, max, step, gap float64) *MinMax {
	m := &MinMax{lo: lo, hi: hi, min: min, max: max, step: step, gap: gap}
	p.add(&pairSide{name: loName, pair: m})
	p.add(&pairSide{name: hiName, pair: m, hi: true})
	return m
}

// OnChange registers fn to run after an edit of either side
func (m *MinMax) OnChange(fn func()) *MinMax {
	m.onChange = append(m.onChange, fn)
	return m
}

// SetLo moves the low side, raising the high side when needed
func (m *MinMax) SetLo(v float64) {
	lo := quantize(v, m.min, m.max, m.step)
	*m.lo = float32(lo)
	if float64(*m.hi) < lo+m.gap {
		*m.hi = float32(lo + m.gap)
	}
	m.changed()
}

// SetHi moves the high side, lowering the low side when needed. The low
// side never drops below the range minimum, so the high side is raised
// back if it was pushed under that.
func (m *MinMax) SetHi(v float64) {
	hi := quantize(v, m.min, m.max, m.step)
	*m.hi = float32(hi)
	if float64(*m.lo) > hi-m.gap {
		*m.lo = float32(math.Max(m.min, hi-m.gap))
	}
	if float64(*m.hi) < float64(*m.lo)+m.gap {
		*m.hi = float32(float64(*m.lo) + m.gap)
	}
	m.changed()
}

func (m *MinMax) changed() {
	for _, fn := range m.onChange {
		fn()
	}
}

type pairSide struct {
	name string
	pair *MinMax
	hi   bool
}

func (s *pairSide) Name() string { return s.name }

func (s *pairSide) Get() any {
	if s.hi {
		return float64(*s.pair.hi)
	}
	return float64(*s.pair.lo)
}

func (s *pairSide) Descriptor() Descriptor {
	m := s.pair
	d := Descriptor{Name: s.name, Type: TypeRange, Value: s.Get(), Min: ptrTo(m.min), Max: ptrTo(m.max)}
	if m.step > 0 {
		d.Step = ptrTo(m.step)
	}
	return d
}

func (s *pairSide) set(v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	if s.hi {
		s.pair.SetHi(f)
	} else {
		s.pair.SetLo(f)
	}
	return nil
}

// Color binds a color field, shown as "#rrggbb"
type Color struct {
	name     string
	ptr      *core.Color
	onChange []func(core.Color)
}

// AddColor binds ptr as a color control
func (p *Panel) AddColor(name string, ptr *core.Color) *Color {
	c := &Color{name: name, ptr: ptr}
	p.add(c)
	return c
}

// OnChange registers fn to run after every edit
func (c *Color) OnChange(fn func(core.Color)) *Color {
	c.onChange = append(c.onChange, fn)
	return c
}

func (c *Color) Name() string { return c.name }
func (c *Color) Get() any     { return c.ptr.String() }

func (c *Color) Descriptor() Descriptor {
	return Descriptor{Name: c.name, Type: TypeColor, Value: c.Get()}
}

func (c *Color) set(v any) error {
	var col core.Color
	switch x := v.(type) {
	case core.Color:
		col = x
	case string:
		parsed, err := core.ParseColor(x)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		col = parsed
	default:
		// Packed 0xRRGGBB numbers
		f, err := toFloat(v)
		if err != nil || f < 0 || f > 0xFFFFFF || f != math.Trunc(f) {
			return fmt.Errorf("%w: color from %T", ErrTypeMismatch, v)
		}
		col = core.ColorFromHex(uint32(f))
	}
	*c.ptr = col
	for _, fn := range c.onChange {
		fn(col)
	}
	return nil
}

// Toggle binds a bool field
type Toggle struct {
	name     string
	ptr      *bool
	onChange []func(bool)
}

// AddToggle binds ptr as a toggle control
func (p *Panel) AddToggle(name string, ptr *bool) *Toggle {
	t := &Toggle{name: name, ptr: ptr}
	p.add(t)
	return t
}

// OnChange registers fn to run after every edit
func (t *Toggle) OnChange(fn func(bool)) *Toggle {
	t.onChange = append(t.onChange, fn)
	return t
}

func (t *Toggle) Name() string { return t.name }
func (t *Toggle) Get() any     { return *t.ptr }

func (t *Toggle) Descriptor() Descriptor {
	return Descriptor{Name: t.name, Type: TypeToggle, Value: t.Get()}
}

func (t *Toggle) set(v any) error {
	var b bool
	switch x := v.(type) {
	case bool:
		b = x
	case string:
		parsed, err := strconv.ParseBool(x)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		b = parsed
	default:
		return fmt.Errorf("%w: toggle from %T", ErrTypeMismatch, v)
	}
	*t.ptr = b
	for _, fn := range t.onChange {
		fn(b)
	}
	return nil
}

// quantize snaps v to step and clamps it to [min, max]
func quantize(v, min, max, step float64) float64 {
	if math.IsNaN(v) {
		v = min
	}
	if step > 0 {
		v = math.Round(v/step) * step
		// Trim binary noise so 0.1 steps read back as 0.1, 0.2, ...
		digits := math.Min(15, math.Max(0, math.Ceil(-math.Log10(step)))+6)
		pow := math.Pow(10, digits)
		v = math.Round(v*pow) / pow
	}
	return math.Max(min, math.Min(max, v))
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: number from %T", ErrTypeMismatch, v)
	}
}

func ptrTo(f float64) *float64 { return &f }
