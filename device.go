// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtb

import (
	"github.com/pkg/errors"
)

// Dir is the direction of a device signal.
//
type Dir int

// Signal directions.
//
const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// A Signal describes one port of a device.
//
type Signal struct {
	Name  string
	Width int
	Dir   Dir
}

// Device is the capability interface of a simulated device under test.
//
// Set only changes input values; the new values are propagated by the next
// call to Eval. Get returns the current value of any signal. Eval is
// synchronous: once it returns, all outputs reflect the inputs.
//
// Finished reports whether the simulation engine requested the end of the
// simulation. Final releases the device; no other method may be called
// afterwards.
//
type Device interface {
	Signals() []Signal
	Set(name string, v uint64) error
	Get(name string) (uint64, error)
	Eval() error
	Finished() bool
	Final() error
}

// ErrFinalized is returned by devices used after a call to Final.
//
var ErrFinalized = errors.New("device finalized")

// LookupSignal returns the signal with the given name in dev.
//
func LookupSignal(dev Device, name string) (Signal, bool) {
	for _, s := range dev.Signals() {
		if s.Name == name {
			return s, true
		}
	}
	return Signal{}, false
}

// Ports names the counter ports driven and observed by the harness.
//
type Ports struct {
	Clock  string `yaml:"clock"`
	Reset  string `yaml:"reset"`
	Init   string `yaml:"init"`
	IncDec string `yaml:"inc_dec"`
	Value  string `yaml:"value"`
}

// DefaultPorts are the port names of the counter.
//
var DefaultPorts = Ports{
	Clock:  "clock",
	Reset:  "reset",
	Init:   "i_init",
	IncDec: "i_inc_dec",
	Value:  "o_value",
}

func (p Ports) check(dev Device) error {
	for _, n := range []string{p.Clock, p.Reset, p.Init, p.IncDec} {
		if err := expectSignal(dev, n, In); err != nil {
			return err
		}
	}
	return expectSignal(dev, p.Value, Out)
}

func expectSignal(dev Device, name string, dir Dir) error {
	s, ok := LookupSignal(dev, name)
	if !ok {
		return errors.Errorf("device has no signal %q", name)
	}
	if s.Dir != dir {
		return errors.Errorf("signal %q is an %s, expected an %s", name, s.Dir, dir)
	}
	return nil
}
