// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package counter implements the up/down counter under test, both as a
// gate-level hwsim chip and as a behavioral reference model.
//
// On each rising edge of clock:
//
//	o_value = reset ? 0 : i_init ? 0 : i_inc_dec ? o_value+1 : o_value-1
//
// o_value is Width bits wide and wraps around.
//
package counter

import (
	"strconv"

	"github.com/db47h/hwtb"
	"github.com/db47h/hwtb/hwlib"
	"github.com/db47h/hwtb/hwsim"
	"github.com/pkg/errors"
)

// Width is the bit width of o_value.
//
const Width = 8

const mask = 1<<Width - 1

// Port names.
//
const (
	Clock  = "clock"
	Reset  = "reset"
	Init   = "i_init"
	IncDec = "i_inc_dec"
	Value  = "o_value"
)

var signals = []hwtb.Signal{
	{Name: Clock, Width: 1, Dir: hwtb.In},
	{Name: Reset, Width: 1, Dir: hwtb.In},
	{Name: Init, Width: 1, Dir: hwtb.In},
	{Name: IncDec, Width: 1, Dir: hwtb.In},
	{Name: Value, Width: Width, Dir: hwtb.Out},
}

// inputs holds the input pin states.
type inputs struct {
	clock, reset, init, incDec bool
}

func (in *inputs) set(name string, v uint64) error {
	b := v&1 != 0
	switch name {
	case Clock:
		in.clock = b
	case Reset:
		in.reset = b
	case Init:
		in.init = b
	case IncDec:
		in.incDec = b
	case Value:
		return errors.Errorf("signal %q is not an input", name)
	default:
		return errors.Errorf("unknown signal %q", name)
	}
	return nil
}

func (in *inputs) get(name string) (uint64, bool) {
	var b bool
	switch name {
	case Clock:
		b = in.clock
	case Reset:
		b = in.reset
	case Init:
		b = in.init
	case IncDec:
		b = in.incDec
	default:
		return 0, false
	}
	if b {
		return 1, true
	}
	return 0, true
}

func busRange(name string) string {
	return name + "[0.." + strconv.Itoa(Width-1) + "]"
}

// Chip returns the gate-level counter chip.
//
//	Inputs: clock, reset, i_init, i_inc_dec
//	Outputs: o_value[Width]
//
func Chip() (hwsim.NewPartFn, error) {
	value := busRange(Value)
	inc, dec := busRange("inc"), busRange("dec")
	next, d := busRange("next"), busRange("d")
	a, b, out, in := busRange("a"), busRange("b"), busRange("out"), busRange("in")

	return hwsim.Chip("COUNTER",
		hwsim.In(Clock+", "+Reset+", "+Init+", "+IncDec),
		hwsim.Out(Value+"["+strconv.Itoa(Width)+"]"),
		hwlib.Or(hwsim.W{"a": Reset, "b": Init, "out": "clear"}),
		// value + 1
		hwlib.AdderN(Width)(hwsim.W{a: value, "b[0]": hwsim.True, out: inc}),
		// value - 1 == value + 0b11..1
		hwlib.AdderN(Width)(hwsim.W{a: value, b: hwsim.True, out: dec}),
		hwlib.MuxN(Width)(hwsim.W{a: dec, b: inc, "sel": IncDec, out: next}),
		hwlib.MuxN(Width)(hwsim.W{a: next, b: hwsim.False, "sel": "clear", out: d}),
		hwlib.DFFN(Width)(hwsim.W{in: d, "clk": Clock, out: value}),
	)
}
