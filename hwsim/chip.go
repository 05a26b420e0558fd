package hwsim

import (
	"github.com/pkg/errors"
)

type chip struct {
	PartSpec        // PartSpec for this chip
	parts    []Part // sub parts
}

func (c *chip) mount(s *Socket) []Component {
	var cs []Component

	subs := make([]*Socket, len(c.parts))
	for i := range subs {
		subs[i] = newSocket(s.c)
	}

	// outputs first so that fan-out aliases are known before inputs
	// allocate wires.
	for i, p := range c.parts {
		for _, o := range p.Outputs {
			ws := p.Conns[o]
			if len(ws) == 0 {
				subs[i].m[o] = s.c.allocPin()
				continue
			}
			var n = -1
			var extra []int
			for _, w := range ws {
				if e, ok := s.m[w]; ok {
					if n < 0 {
						n = e
					} else {
						extra = append(extra, e)
					}
				}
			}
			if n < 0 {
				n = s.c.allocPin()
			}
			for _, w := range ws {
				if _, ok := s.m[w]; !ok {
					s.m[w] = n
				}
			}
			for _, e := range extra {
				src, dst := n, e
				cs = append(cs, func(c *Circuit) { c.Set(dst, c.Get(src)) })
			}
			subs[i].m[o] = n
		}
	}

	for i, p := range c.parts {
		for _, in := range p.Inputs {
			if ws := p.Conns[in]; len(ws) > 0 {
				subs[i].m[in] = s.PinOrNew(ws[0])
			} else {
				// unconnected inputs are tied to false.
				subs[i].m[in] = cstFalse
			}
		}
		cs = append(cs, p.Mount(subs[i])...)
	}
	return cs
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// An Xor gate could be created like this:
//
//	xor, err := Chip("XOR", In("a, b"), Out("out"),
//		hwlib.Nand(W{"a": "a", "b": "b", "out": "nandAB"}),
//		hwlib.Nand(W{"a": "a", "b": "nandAB", "out": "w0"}),
//		hwlib.Nand(W{"a": "b", "b": "nandAB", "out": "w1"}),
//		hwlib.Nand(W{"a": "w0", "b": "w1", "out": "out"}),
//	)
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	xnor, err := Chip("XNOR", In("a, b"), Out("out"),
//		xor(W{"a": "a", "b": "b", "out": "xorAB"}),
//		hwlib.Not(W{"in": "xorAB", "out": "out"}),
//	)
//
func Chip(name string, inputs Inputs, outputs Outputs, parts ...Part) (NewPartFn, error) {
	// drivers maps internal wire names to the part pin driving them.
	drivers := make(map[string]string)
	isInput := make(map[string]bool, len(inputs))
	for _, i := range inputs {
		isInput[i] = true
	}

	for _, p := range parts {
		for k, vs := range p.Conns {
			pn := p.Name + "." + k
			switch {
			case p.IsInput(k):
				if len(vs) > 1 {
					return nil, errors.New(pn + ": input pin connected to more than one wire")
				}
			case p.IsOutput(k):
				for _, v := range vs {
					switch {
					case v == True || v == False:
						return nil, errors.New(pn + ":" + v + ": output pin connected to constant " + v + " input")
					case isInput[v]:
						return nil, errors.New(pn + ":" + v + ": chip input pin used as output")
					case drivers[v] != "":
						return nil, errors.New(pn + ":" + v + ": output pin already used as output")
					}
					drivers[v] = pn
				}
			default:
				return nil, errors.New("invalid pin name " + k + " for part " + p.Name)
			}
		}
	}

	for _, p := range parts {
		for _, in := range p.Inputs {
			for _, v := range p.Conns[in] {
				if v == True || v == False || isInput[v] || drivers[v] != "" {
					continue
				}
				return nil, errors.New("pin " + v + " not connected to any output")
			}
		}
	}
	for _, o := range outputs {
		if drivers[o] == "" {
			return nil, errors.New("chip output pin " + o + " not connected to any output")
		}
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  inputs,
			Outputs: outputs,
		},
		parts,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}
