package hwsim_test

import (
	"reflect"
	"testing"

	hw "github.com/db47h/hwtb/hwsim"
)

func TestParseIO(t *testing.T) {
	td := []struct {
		in  string
		out []string
		err bool
	}{
		{"a, b", []string{"a", "b"}, false},
		{"in[2], sel", []string{"in[0]", "in[1]", "sel"}, false},
		{" clock ,, o_value[3]", []string{"clock", "o_value[0]", "o_value[1]", "o_value[2]"}, false},
		{"", nil, false},
		{"9a", nil, true},
		{"bus[0]", nil, true},
		{"bus[x]", nil, true},
		{"bus[2", nil, true},
		{"[2]", nil, true},
	}
	for _, d := range td {
		got, err := hw.ParseIO(d.in)
		if (err != nil) != d.err {
			t.Errorf("ParseIO(%q): unexpected error status %v", d.in, err)
			continue
		}
		if !d.err && !reflect.DeepEqual(got, d.out) {
			t.Errorf("ParseIO(%q) = %v, expected %v", d.in, got, d.out)
		}
	}
}

var testSpec = &hw.PartSpec{
	Name:    "TEST",
	Inputs:  hw.In("a[4], b"),
	Outputs: hw.Out("out[4]"),
}

func TestConnect(t *testing.T) {
	td := []struct {
		name string
		w    hw.W
		want map[string][]string
	}{
		{"many_to_many", hw.W{"a[0..3]": "x[4..7]"},
			map[string][]string{"a[0]": {"x[4]"}, "a[1]": {"x[5]"}, "a[2]": {"x[6]"}, "a[3]": {"x[7]"}}},
		{"many_to_one", hw.W{"a[1..2]": hw.True},
			map[string][]string{"a[1]": {"true"}, "a[2]": {"true"}}},
		{"one_to_many", hw.W{"b": "in", "out[0]": "y[0..1]"},
			map[string][]string{"b": {"in"}, "out[0]": {"y[0]", "y[1]"}}},
		{"single_bit", hw.W{"a[3]": "z"},
			map[string][]string{"a[3]": {"z"}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			p, err := testSpec.Connect(d.w)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(p.Conns, d.want) {
				t.Errorf("got %v, expected %v", p.Conns, d.want)
			}
		})
	}
}

func TestConnect_errors(t *testing.T) {
	for _, w := range []hw.W{
		{"a[0..3]": "x[0..2]"},
		{"a[3..0]": "x"},
		{"a[0..x]": "x"},
		{"a[0..1": "x"},
		{"": "x"},
		{"b": ""},
	} {
		if _, err := testSpec.Connect(w); err == nil {
			t.Errorf("Connect(%v): expected an error", w)
		}
	}
	defer func() {
		if recover() == nil {
			t.Error("NewPart did not panic on invalid wires")
		}
	}()
	testSpec.NewPart(hw.W{"a[0..3]": "x[0..2]"})
}

func TestPartSpec_pins(t *testing.T) {
	if !testSpec.IsInput("a[3]") || testSpec.IsInput("out[0]") {
		t.Error("IsInput")
	}
	if !testSpec.IsOutput("out[0]") || testSpec.IsOutput("b") {
		t.Error("IsOutput")
	}
}
