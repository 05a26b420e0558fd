// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/hwtb/hwsim"
)

// DFF returns a data flip flop clocked on the rising edge of its clk pin.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w hwsim.W) hwsim.Part {
	return dff.NewPart(w)
}

var dff = &hwsim.PartSpec{
	Name:    "DFF",
	Inputs:  hwsim.Inputs{pIn, pClk},
	Outputs: hwsim.Outputs{pOut},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		in, clk, out := s.Pin(pIn), s.Pin(pClk), s.Pin(pOut)
		var curOut, prevClk bool
		return []hwsim.Component{
			func(c *hwsim.Circuit) {
				// rising edge?
				if v := c.Get(clk); v != prevClk {
					if v {
						curOut = c.Get(in)
					}
					prevClk = v
				}
				c.Set(out, curOut)
			}}
	}}

// DFFN returns a N-bits register built from data flip flops sharing the same
// clock.
//
//	Inputs: in[bits], clk
//	Outputs: out[bits]
//	Function: out(t) = in(t-1)
//
func DFFN(bits int) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "DFF" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pIn), pClk),
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			in, clk, out := s.Bus(pIn, bits), s.Pin(pClk), s.Bus(pOut, bits)
			cur := make([]bool, bits)
			var prevClk bool
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					if v := c.Get(clk); v != prevClk {
						if v {
							for i, pin := range in {
								cur[i] = c.Get(pin)
							}
						}
						prevClk = v
					}
					for i, pin := range out {
						c.Set(pin, cur[i])
					}
				}}
		}}).NewPart
}
