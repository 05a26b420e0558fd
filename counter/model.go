package counter

import (
	"github.com/db47h/hwtb"
	"github.com/pkg/errors"
)

// Model is a behavioral hwtb.Device implementation of the counter.
//
type Model struct {
	in          inputs
	prevClk     bool
	value       uint64
	evals       int
	finishAfter int
	final       bool
}

// An Option configures a Model.
//
type Option func(*Model)

// FinishAfter makes the model request the end of the simulation after n
// evaluations.
//
func FinishAfter(n int) Option {
	return func(m *Model) { m.finishAfter = n }
}

// NewModel returns a new counter model.
//
func NewModel(opts ...Option) *Model {
	m := new(Model)
	for _, o := range opts {
		o(m)
	}
	return m
}

// Signals implements hwtb.Device.
//
func (m *Model) Signals() []hwtb.Signal {
	return append([]hwtb.Signal(nil), signals...)
}

// Set implements hwtb.Device.
//
func (m *Model) Set(name string, v uint64) error {
	if m.final {
		return hwtb.ErrFinalized
	}
	return m.in.set(name, v)
}

// Get implements hwtb.Device.
//
func (m *Model) Get(name string) (uint64, error) {
	if m.final {
		return 0, hwtb.ErrFinalized
	}
	if name == Value {
		return m.value, nil
	}
	if v, ok := m.in.get(name); ok {
		return v, nil
	}
	return 0, errors.Errorf("unknown signal %q", name)
}

// Eval implements hwtb.Device.
//
func (m *Model) Eval() error {
	if m.final {
		return hwtb.ErrFinalized
	}
	if m.in.clock && !m.prevClk {
		switch {
		case m.in.reset, m.in.init:
			m.value = 0
		case m.in.incDec:
			m.value = (m.value + 1) & mask
		default:
			m.value = (m.value - 1) & mask
		}
	}
	m.prevClk = m.in.clock
	m.evals++
	return nil
}

// Evals returns the number of calls to Eval.
//
func (m *Model) Evals() int { return m.evals }

// Finished implements hwtb.Device.
//
func (m *Model) Finished() bool {
	return m.finishAfter > 0 && m.evals >= m.finishAfter
}

// Final implements hwtb.Device.
//
func (m *Model) Final() error {
	if m.final {
		return hwtb.ErrFinalized
	}
	m.final = true
	return nil
}
