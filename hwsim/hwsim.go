// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// A Component is a component in a circuit that can Get and Set states.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: In("in"),
//		Outputs: Out("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) }
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// Inputs is a list of input pin names.
//
type Inputs []string

// Outputs is a list of output pin names.
//
type Outputs []string

// In expands an input description like "a, b, bus[2]" into an Inputs list.
// It panics if the description is invalid.
//
func In(spec string) Inputs {
	pins, err := ParseIO(spec)
	if err != nil {
		panic(err)
	}
	return Inputs(pins)
}

// Out expands an output description into an Outputs list. See In.
//
func Out(spec string) Outputs {
	pins, err := ParseIO(spec)
	if err != nil {
		panic(err)
	}
	return Outputs(pins)
}

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec:
//
//	notSpec := &hwsim.PartSpec{
//		Name: "Not",
//		Inputs: hwsim.In("in"),
//		Outputs: hwsim.Out("out"),
//		Mount: func (s *hwsim.Socket) []hwsim.Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []hwsim.Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) }
//			}
//		}}
//
// Then get a NewPartFn for that PartSpec:
//
//	var notGate = notSpec.NewPart
//
// Which can the be used when building other chips:
//
//	c, _ := Chip("dummy", In("a, b"), Out("c, d"),
//		notGate(W{"in": "a", "out": "c"}),
//		notGate(W{"in": "b", "out": "d"}),
//	)
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use the In() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}
	Inputs Inputs
	// Output pin names. Must be distinct pin names.
	Outputs Outputs

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given wires into a Part.
// It panics if the wire map is invalid. Use Connect to get an error instead.
//
func (p *PartSpec) NewPart(w W) Part {
	part, err := p.Connect(w)
	if err != nil {
		panic(err)
	}
	return part
}

// Connect expands the bus ranges in w and returns a Part connecting p's pins
// to the wires of its container.
//
func (p *PartSpec) Connect(w W) (Part, error) {
	conns, err := w.expand()
	if err != nil {
		return Part{}, errors.Wrap(err, p.Name)
	}
	return Part{PartSpec: p, Conns: conns}, nil
}

// IsInput returns true if name is one of p's input pins.
//
func (p *PartSpec) IsInput(name string) bool {
	for _, n := range p.Inputs {
		if n == name {
			return true
		}
	}
	return false
}

// IsOutput returns true if name is one of p's output pins.
//
func (p *PartSpec) IsOutput(name string) bool {
	for _, n := range p.Outputs {
		if n == name {
			return true
		}
	}
	return false
}

// A NewPartFn is a function that takes a wire map and returns a new Part.
//
type NewPartFn func(w W) Part

// A Part wraps a part specification together with its connections within a host
// chip. Conns maps the part's pin names to one or more wire names in the host.
//
type Part struct {
	*PartSpec
	Conns map[string][]string
}

// Parts is a list of parts.
//
type Parts []Part

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	s0    []bool // wire states frame #0
	s1    []bool // wire states frame #1
	cs    []Component
	count int // wire count
	steps uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	// new circuit with room for constant value pins.
	cc := &Circuit{count: cstCount}
	wrap, err := Chip("CIRCUIT", nil, nil, parts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	ups := wrap(nil).Mount(newSocket(cc))
	ups = append(ups, checkConstants)
	cc.cs = ups
	cc.s0 = make([]bool, cc.count)
	cc.s1 = make([]bool, cc.count)
	// init constant pins
	cc.s0[cstTrue] = true
	cc.s1[cstTrue] = true

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func checkConstants(c *Circuit) {
	if c.s0[cstFalse] || !c.s0[cstTrue] {
		panic("true or false constants have been overwritten")
	}
	c.s1[cstFalse] = false
	c.s1[cstTrue] = true
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// allocPin allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint64 {
	return c.steps
}

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n]
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = s
}

// Toggle toggles the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Toggle(n int) {
	c.s1[n] = !c.s0[n]
}

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.steps++
	c.s0, c.s1 = c.s1, c.s0
}

// Settle steps the simulation until two consecutive frames are identical,
// that is until every wire has propagated. It returns the number of steps run.
// If the circuit did not stabilize after max steps, Settle returns an error.
//
func (c *Circuit) Settle(max int) (int, error) {
	for n := 1; n <= max; n++ {
		c.Step()
		if c.stable() {
			return n, nil
		}
	}
	return max, errors.Errorf("circuit unstable after %d steps", max)
}

func (c *Circuit) stable() bool {
	for i, s := range c.s0 {
		if c.s1[i] != s {
			return false
		}
	}
	return true
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }

// Wires returns the wire count in the circuit, including constant wires.
//
func (c *Circuit) Wires() int { return c.count }
