package hwsim_test

import (
	"testing"

	hw "github.com/db47h/hwtb/hwsim"
	hl "github.com/db47h/hwtb/hwlib"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func TestChip_errors(t *testing.T) {
	unkChip, err := hw.Chip("TESTCHIP", hw.In("a, b"), hw.Out("out"),
		// chip input a is unused
		hl.Nand(hw.W{"a": "b", "b": "b", "out": "out"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	data := []struct {
		name  string
		parts func() hw.Parts
		err   string
	}{
		{"true_out", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "b", "out": hw.True}),
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "out"}),
			}
		}, "NAND.out:true: output pin connected to constant true input"},
		{"false_out", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "b", "out": hw.False}),
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "out"}),
			}
		}, "NAND.out:false: output pin connected to constant false input"},
		{"input_as_output", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "a"}),
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "out"}),
			}
		}, "NAND.out:a: chip input pin used as output"},
		{"multi_out", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "x"}),
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "x"}),
				hl.Not(hw.W{"in": "x", "out": "out"}),
			}
		}, "NAND.out:x: output pin already used as output"},
		{"no_output", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "wx", "out": "out"}),
			}
		}, "pin wx not connected to any output"},
		{"no_chip_output", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "b": "b", "out": "o"}),
			}
		}, "chip output pin out not connected to any output"},
		{"unknown_pin", func() hw.Parts {
			return hw.Parts{
				hl.Nand(hw.W{"a": "a", "typo": "b", "out": "out"}),
			}
		}, "invalid pin name typo for part NAND"},
		{"unknown_pin_chip", func() hw.Parts {
			return hw.Parts{
				unkChip(hw.W{"a": "a", "typo": "b", "out": "out"}),
			}
		}, "invalid pin name typo for part TESTCHIP"},
		{"unused_chip_input", func() hw.Parts {
			return hw.Parts{
				unkChip(hw.W{"a": "a", "b": "b", "out": "out"}),
			}
		}, ""},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := hw.Chip(d.name, hw.In("a, b"), hw.Out("out"), d.parts()...)
			if err == nil && d.err != "" || err != nil && err.Error() != d.err {
				t.Errorf("Got error %q, expected %q", err, d.err)
			}
		})
	}
}

func TestChip_input_fanin(t *testing.T) {
	_, err := hw.Chip("FANIN", hw.In("x[2]"), hw.Out("out"),
		hl.Not(hw.W{"in": "x[0..1]", "out": "out"}),
	)
	if err == nil || err.Error() != "NOT.in: input pin connected to more than one wire" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestChip_omitted_pins(t *testing.T) {
	var a, b, tr, f, o0, o1 int
	dummy := (&hw.PartSpec{
		Name:    "dummy",
		Inputs:  hw.In("a, b, t, f"),
		Outputs: hw.Out("o0, o1"),
		Mount: func(s *hw.Socket) []hw.Component {
			a, b, tr, f, o0, o1 = s.Pin("a"), s.Pin("b"), s.Pin("t"), s.Pin("f"), s.Pin("o0"), s.Pin("o1")
			return nil
		}}).NewPart
	// inspecting o0 and o1 shows that another dummy wire was allocated for dummy.o0:wo0
	wrapper, err := hw.Chip("wrapper", hw.In("wa, wb"), hw.Out("wo0"),
		dummy(hw.W{"a": "wa", "t": hw.True, "f": hw.False, "o0": "wo0"}),
	)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}

	c, err := hw.NewCircuit(1, wrapper(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if a != 0 || b != 0 || f != 0 { // 0 = false
		t.Errorf("a = %v, b = %v, f = %v, all must be 0", a, b, f)
	}
	if tr != 1 { // 1 = true
		t.Errorf("t = %v, must be 1", tr)
	}
	if o0 < 2 || o1 < 2 || o0 == o1 {
		t.Errorf("o0 = %v, o1 = %v, must be distinct and >= 2", o0, o1)
	}
	if c.Wires() != 4 {
		t.Errorf("got %d wires, expected 4", c.Wires())
	}
}

func TestChip_fanout_to_outputs(t *testing.T) {
	gate, err := hw.Chip("FANOUT", hw.In("in"), hw.Out("bus[4]"),
		hl.Or(hw.W{"a": "in", "b": "in", "out": "bus[0..3]"}),
	)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	wrapper, err := hw.Chip("FANOUT_Wrapper", hw.In("in"), hw.Out("o[8]"),
		gate(hw.W{"in": "in", "bus[0..3]": "o[0..3]"}),
		gate(hw.W{"in": "in", "bus[0..3]": "o[4..7]"}),
	)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	var out uint64
	c, err := hw.NewCircuit(0,
		wrapper(hw.W{"in": hw.True, "o[0..7]": "wrapOut[0..7]"}),
		hl.OutputN(8, func(v uint64) { out = v })(hw.W{"in[0..7]": "wrapOut[0..7]"}),
	)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	defer c.Dispose()
	if _, err = c.Settle(16); err != nil {
		t.Fatal(err)
	}
	if out != 255 {
		t.Fatalf("out = %d != 255", out)
	}
}

func TestSettle(t *testing.T) {
	var in, out bool
	w := func(i int) string { return hw.BusPinName("w", i) }
	parts := hw.Parts{hl.Input(func() bool { return in })(hw.W{"out": w(0)})}
	for i := 0; i < 16; i++ {
		parts = append(parts, hl.Not(hw.W{"in": w(i), "out": w(i + 1)}))
	}
	parts = append(parts, hl.Output(func(v bool) { out = v })(hw.W{"in": w(16)}))

	for _, workers := range []int{1, 3, 0} {
		c, err := hw.NewCircuit(workers, parts...)
		if err != nil {
			t.Fatal(err)
		}
		for _, v := range []bool{true, false, true} {
			in = v
			n, err := c.Settle(64)
			if err != nil {
				t.Fatal(err)
			}
			// an even number of inverters
			if out != v {
				t.Fatalf("workers=%d: out = %v, expected %v", workers, out, v)
			}
			if n < 17 {
				t.Errorf("workers=%d: settled in %d steps, propagation needs at least 17", workers, n)
			}
		}
		if c.Steps() == 0 {
			t.Error("step counter not updated")
		}
		c.Dispose()
	}
}

func TestSettle_unstable(t *testing.T) {
	c, err := hw.NewCircuit(1,
		hl.Not(hw.W{"in": "loop", "out": "loop"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	n, err := c.Settle(10)
	if err == nil {
		t.Fatal("expected an unstable circuit")
	}
	if n != 10 {
		t.Errorf("ran %d steps, expected 10", n)
	}
	if err.Error() != "circuit unstable after 10 steps" {
		t.Errorf("unexpected error %q", err)
	}
}

func TestNewCircuit_empty(t *testing.T) {
	if _, err := hw.NewCircuit(1); err == nil {
		t.Fatal("expected an error for an empty circuit")
	}
}
