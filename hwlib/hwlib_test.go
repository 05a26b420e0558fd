package hwlib_test

import (
	"testing"
	"testing/quick"

	hw "github.com/db47h/hwtb/hwsim"
	hl "github.com/db47h/hwtb/hwlib"
)

const testSettle = 64

func same(pins []string) hw.W {
	w := make(hw.W)
	for _, p := range pins {
		w[p] = p
	}
	return w
}

func testGate(t *testing.T, gate hw.NewPartFn, result [][]bool) {
	t.Helper()
	part := gate(nil) // build dummy gate just to get to the partspec
	inputs := make([]bool, len(part.Inputs))
	outputs := make([]bool, len(part.Outputs))
	parts := make(hw.Parts, 0, len(part.Inputs)+len(part.Outputs)+1)
	for i, n := range part.Inputs {
		in := &inputs[i]
		parts = append(parts, hl.Input(func() bool { return *in })(hw.W{"out": n}))
	}
	for i, n := range part.Outputs {
		out := &outputs[i]
		parts = append(parts, hl.Output(func(v bool) { *out = v })(hw.W{"in": n}))
	}
	w := same(part.Inputs)
	for k, v := range same(part.Outputs) {
		w[k] = v
	}
	parts = append(parts, gate(w))
	c, err := hw.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	tot := 1 << uint(len(part.Inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = (i & (1 << uint(bit))) != 0
		}
		if _, err = c.Settle(testSettle); err != nil {
			t.Fatal(err)
		}
		for o, out := range outputs {
			exp := result[o][i]
			if exp != out {
				t.Errorf("%s %v = %v, got %v", part.Name, inputs, exp, out)
			}
		}
	}
}

func Test_gate_builtin(t *testing.T) {
	tr, err := hw.Chip("TRUE", hw.In("a"), hw.Out("out"),
		hl.And(hw.W{"a": hw.True, "b": hw.True, "out": "out"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	fa, err := hw.Chip("FALSE", hw.In("a"), hw.Out("out"),
		hl.Or(hw.W{"a": hw.False, "b": hw.False, "out": "out"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name   string
		gate   hw.NewPartFn
		result [][]bool // a=0 && b=0, a=0 && b=1, a=1 && b=0, a=1 && b=1
	}{
		{"NOT", hl.Not, [][]bool{{true, false}}},
		{"AND", hl.And, [][]bool{{false, false, false, true}}},
		{"NAND", hl.Nand, [][]bool{{true, true, true, false}}},
		{"OR", hl.Or, [][]bool{{false, true, true, true}}},
		{"NOR", hl.Nor, [][]bool{{true, false, false, false}}},
		{"XOR", hl.Xor, [][]bool{{false, true, true, false}}},
		{"XNOR", hl.Xnor, [][]bool{{true, false, false, true}}},
		{"TRUE", tr, [][]bool{{true, true}}},
		{"FALSE", fa, [][]bool{{false, false}}},
		{"MUX", hl.Mux, [][]bool{{false, false, false, true, true, false, true, true}}},
		{"DMUX", hl.DMux, [][]bool{{false, false, true, false}, {false, false, false, true}}},
		{"OR3Way", hl.OrNWay(3), [][]bool{{false, true, true, true, true, true, true, true}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.gate, d.result)
		})
	}
}

func TestInput16(t *testing.T) {
	var in, out uint64
	c, err := hw.NewCircuit(0,
		hl.InputN(16, func() uint64 { return in })(hw.W{"out[0..15]": "t[0..15]"}),
		hl.OutputN(16, func(n uint64) { out = n })(hw.W{"in[0..15]": "t[0..15]"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	in = 0x80a2
	if _, err = c.Settle(testSettle); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("Expected %x, got %x", in, out)
	}
}

func Test_gateN_builtin(t *testing.T) {
	td := []struct {
		name string
		gate hw.NewPartFn
		w    hw.W
		ctrl func(a, b uint8) uint8
	}{
		{"NOT8", hl.NotN(8), hw.W{"in[0..7]": "a[0..7]", "out[0..7]": "out[0..7]"},
			func(a, b uint8) uint8 { return ^a }},
		{"MUX8", hl.MuxN(8), hw.W{"a[0..7]": "a[0..7]", "b[0..7]": "b[0..7]", "sel": hw.True, "out[0..7]": "out[0..7]"},
			func(a, b uint8) uint8 { return b }},
		{"ADDER8", hl.AdderN(8), hw.W{"a[0..7]": "a[0..7]", "b[0..7]": "b[0..7]", "out[0..7]": "out[0..7]"},
			func(a, b uint8) uint8 { return a + b }},
	}

	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			var a, b, out uint8

			c, err := hw.NewCircuit(0,
				hl.InputN(8, func() uint64 { return uint64(a) })(hw.W{"out[0..7]": "a[0..7]"}),
				hl.InputN(8, func() uint64 { return uint64(b) })(hw.W{"out[0..7]": "b[0..7]"}),
				d.gate(d.w),
				hl.OutputN(8, func(v uint64) { out = uint8(v) })(hw.W{"in[0..7]": "out[0..7]"}),
			)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Dispose()

			f := func(x, y uint8) bool {
				a, b = x, y
				if _, err := c.Settle(testSettle); err != nil {
					t.Fatal(err)
				}
				return out == d.ctrl(x, y)
			}
			if err = quick.Check(f, nil); err != nil {
				t.Fatal(err)
			}
		})
	}
}
