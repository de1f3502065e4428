package synth

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Param is a named scalar that can be read by the audio thread and written
// by control surfaces without locks.
type Param struct {
	Name     string
	Min, Max float64
	Step     float64
	Unit     string
	// Labels names each integer value for enumerated parameters.
	Labels []string

	bits atomic.Uint64
}

func (p *Param) Get() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Int returns the value rounded to the nearest integer.
func (p *Param) Int() int {
	return int(math.Round(p.Get()))
}

// Set stores v if it lies in [Min, Max].
func (p *Param) Set(v float64) error {
	if math.IsNaN(v) || v < p.Min || v > p.Max {
		return fault.New(
			fmt.Sprintf("param %s: %v not in range %v - %v", p.Name, v, p.Min, p.Max),
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("value out of range",
				fmt.Sprintf("%s must be between %s and %s", p.Name, p.format(p.Min), p.format(p.Max))),
		)
	}
	p.bits.Store(math.Float64bits(v))
	return nil
}

// Nudge moves the value by steps*Step, clamped to the range.
func (p *Param) Nudge(steps int) {
	v := p.Get() + float64(steps)*p.Step
	p.bits.Store(math.Float64bits(math.Max(p.Min, math.Min(p.Max, v))))
}

func (p *Param) String() string {
	return p.format(p.Get())
}

func (p *Param) format(v float64) string {
	if len(p.Labels) > 0 {
		i := int(math.Round(v))
		if i >= 0 && i < len(p.Labels) {
			return p.Labels[i]
		}
		return "?"
	}
	if p.Step >= 1 {
		return fmt.Sprintf("%d%s", int(math.Round(v)), p.Unit)
	}
	return fmt.Sprintf("%.2f%s", v, p.Unit)
}

// Params is an ordered set of parameters. All parameters must be registered
// before the set is shared with other goroutines.
type Params struct {
	order  []*Param
	byName map[string]*Param
}

func NewParams() *Params {
	return &Params{byName: make(map[string]*Param)}
}

// Register adds a parameter with an initial value.
func (ps *Params) Register(p *Param, init float64) (*Param, error) {
	if _, ok := ps.byName[p.Name]; ok {
		return nil, fault.New("param already registered: "+p.Name, ftag.With(ftag.AlreadyExists))
	}
	if err := p.Set(init); err != nil {
		return nil, err
	}
	ps.order = append(ps.order, p)
	ps.byName[p.Name] = p
	return p, nil
}

func (ps *Params) MustRegister(p *Param, init float64) *Param {
	if p, err := ps.Register(p, init); err != nil {
		panic(err)
	} else {
		return p
	}
}

func (ps *Params) Lookup(name string) (*Param, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// All returns the parameters in registration order.
func (ps *Params) All() []*Param {
	return ps.order
}

// Set updates the named parameter.
func (ps *Params) Set(name string, v float64) error {
	p, ok := ps.byName[name]
	if !ok {
		return fault.New("unknown param: "+name,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("unknown param", fmt.Sprintf("no parameter named %q", name)))
	}
	return p.Set(v)
}
