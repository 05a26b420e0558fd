package counter

import (
	"github.com/db47h/hwtb"
	"github.com/db47h/hwtb/hwlib"
	"github.com/db47h/hwtb/hwsim"
	"github.com/pkg/errors"
)

// maxSettle bounds the number of steps of a single propagation.
const maxSettle = 64

// Gates is a hwtb.Device simulating the counter chip with hwsim.
//
type Gates struct {
	c *hwsim.Circuit
	// pending inputs set by the harness, applied inputs seen by the circuit.
	pending, applied inputs
	value            uint64
	steps            uint64
}

// NewGates builds the counter circuit. workers is passed to hwsim.NewCircuit.
//
func NewGates(workers int) (*Gates, error) {
	counter, err := Chip()
	if err != nil {
		return nil, errors.Wrap(err, "build counter chip")
	}
	g := new(Gates)
	value := busRange(Value)
	g.c, err = hwsim.NewCircuit(workers,
		hwlib.Input(func() bool { return g.applied.clock })(hwsim.W{"out": Clock}),
		hwlib.Input(func() bool { return g.applied.reset })(hwsim.W{"out": Reset}),
		hwlib.Input(func() bool { return g.applied.init })(hwsim.W{"out": Init}),
		hwlib.Input(func() bool { return g.applied.incDec })(hwsim.W{"out": IncDec}),
		counter(hwsim.W{Clock: Clock, Reset: Reset, Init: Init, IncDec: IncDec, value: value}),
		hwlib.OutputN(Width, func(v uint64) { g.value = v })(hwsim.W{busRange("in"): value}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "build counter circuit")
	}
	if err = g.settle(); err != nil {
		g.c.Dispose()
		return nil, err
	}
	return g, nil
}

// Signals implements hwtb.Device.
//
func (g *Gates) Signals() []hwtb.Signal {
	return append([]hwtb.Signal(nil), signals...)
}

// Set implements hwtb.Device.
//
func (g *Gates) Set(name string, v uint64) error {
	if g.c == nil {
		return hwtb.ErrFinalized
	}
	return g.pending.set(name, v)
}

// Get implements hwtb.Device. Inputs read back the last value set.
//
func (g *Gates) Get(name string) (uint64, error) {
	if g.c == nil {
		return 0, hwtb.ErrFinalized
	}
	if name == Value {
		return g.value, nil
	}
	if v, ok := g.pending.get(name); ok {
		return v, nil
	}
	return 0, errors.Errorf("unknown signal %q", name)
}

// Eval propagates the pending inputs. Data inputs settle before the clock is
// applied, so that a clock edge samples inputs set in the same time step.
//
func (g *Gates) Eval() error {
	if g.c == nil {
		return hwtb.ErrFinalized
	}
	clk := g.applied.clock
	g.applied = g.pending
	g.applied.clock = clk
	if err := g.settle(); err != nil {
		return err
	}
	g.applied.clock = g.pending.clock
	return g.settle()
}

func (g *Gates) settle() error {
	n, err := g.c.Settle(maxSettle)
	g.steps += uint64(n)
	return errors.Wrap(err, "counter")
}

// Steps returns the number of simulation steps run so far.
//
func (g *Gates) Steps() uint64 { return g.steps }

// Finished implements hwtb.Device. The gate-level counter never requests the
// end of the simulation.
//
func (g *Gates) Finished() bool { return false }

// Final implements hwtb.Device. It stops the circuit workers.
//
func (g *Gates) Final() error {
	if g.c == nil {
		return hwtb.ErrFinalized
	}
	g.c.Dispose()
	g.c = nil
	return nil
}
