// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits and devices.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/hwtb"
	"github.com/db47h/hwtb/hwlib"
	"github.com/db47h/hwtb/hwsim"
)

// maxSettle bounds the propagation of a single input vector.
const maxSettle = 1024

// wires connects each named pin to a wire of the same name.
func wires(pins ...[]string) hwsim.W {
	w := make(hwsim.W)
	for _, ps := range pins {
		for _, p := range ps {
			w[p] = p
		}
	}
	return w
}

func sameNames(t testing.TB, what string, a, b []string) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s count mismatch: %d != %d", what, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("%s[%d]: %q != %q", what, i, a[i], b[i])
		}
	}
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
// All inputs are first set to false, then to true, then to random values.
// Outputs are compared once the circuit has settled.
//
func ComparePart(t *testing.T, part1 hwsim.NewPartFn, part2 hwsim.NewPartFn) {
	t.Helper()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	spec1, spec2 := part1(nil), part2(nil)
	sameNames(t, "inputs", spec1.Inputs, spec2.Inputs)
	sameNames(t, "outputs", spec1.Outputs, spec2.Outputs)

	inputs := make([]bool, len(spec1.Inputs))
	outputs := make([][2]bool, len(spec1.Outputs))

	// build two wrappers with their own set of outputs
	wrap := func(name string, part hwsim.NewPartFn, side int) hwsim.NewPartFn {
		parts := hwsim.Parts{part(wires(spec1.Inputs, spec1.Outputs))}
		for i, o := range spec1.Outputs {
			n := i
			parts = append(parts, hwlib.Output(func(b bool) { outputs[n][side] = b })(hwsim.W{"in": o}))
		}
		w, err := hwsim.Chip(name, hwsim.Inputs(spec1.Inputs), nil, parts...)
		if err != nil {
			t.Fatal(err)
		}
		return w
	}
	w1, w2 := wrap("wrapper1", part1, 0), wrap("wrapper2", part2, 1)

	var parts hwsim.Parts
	for i, n := range spec1.Inputs {
		k := i
		parts = append(parts, hwlib.Input(func() bool { return inputs[k] })(hwsim.W{"out": n}))
	}
	in := wires(spec1.Inputs)
	parts = append(parts, w1(in), w2(in))

	c, err := hwsim.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, n := range spec1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", n, inputs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), oname, ex, got)
	}

	check := func() {
		t.Helper()
		if _, err := c.Settle(maxSettle); err != nil {
			t.Fatal(err)
		}
		for o, out := range outputs {
			if out[0] != out[1] {
				t.Fatal(errString(spec1.Outputs[o], out[0], out[1]))
			}
		}
	}

	iter := len(spec1.Inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	start := time.Now()

	// try all 0
	check()

	// try all 1
	for in := range inputs {
		inputs[in] = true
	}
	check()

	for i := 0; i < iter; i++ {
		for in := range inputs {
			inputs[in] = rnd.Int63()&1 != 0
		}
		check()
	}

	elapsed := time.Since(start)
	t.Logf("%d components, %d wires. %d steps in %v", c.Size(), c.Wires(), c.Steps(), elapsed)
}

// CompareDevices drives two devices with the same random input sequence for
// the given number of evaluations and fails t at the first output mismatch.
// Both devices must declare the same signals. They are not finalized.
//
func CompareDevices(t testing.TB, a, b hwtb.Device, evals int, seed int64) {
	t.Helper()

	sa, sb := a.Signals(), b.Signals()
	if len(sa) != len(sb) {
		t.Fatalf("signal count mismatch: %d != %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("signal %d: %+v != %+v", i, sa[i], sb[i])
		}
	}

	rnd := rand.New(rand.NewSource(seed))
	var trail []string
	for i := 0; i < evals; i++ {
		var step []string
		for _, s := range sa {
			if s.Dir != hwtb.In {
				continue
			}
			v := uint64(rnd.Int63())
			if s.Width < 64 {
				v &= 1<<uint(s.Width) - 1
			}
			for _, d := range []hwtb.Device{a, b} {
				if err := d.Set(s.Name, v); err != nil {
					t.Fatalf("eval %d: set %s: %v", i, s.Name, err)
				}
			}
			step = append(step, fmt.Sprintf("%s=%d", s.Name, v))
		}
		trail = append(trail, strings.Join(step, " "))
		if len(trail) > 4 {
			trail = trail[1:]
		}
		if err := a.Eval(); err != nil {
			t.Fatalf("eval %d: %v", i, err)
		}
		if err := b.Eval(); err != nil {
			t.Fatalf("eval %d: %v", i, err)
		}
		for _, s := range sa {
			if s.Dir != hwtb.Out {
				continue
			}
			va, err := a.Get(s.Name)
			if err != nil {
				t.Fatalf("eval %d: get %s: %v", i, s.Name, err)
			}
			vb, err := b.Get(s.Name)
			if err != nil {
				t.Fatalf("eval %d: get %s: %v", i, s.Name, err)
			}
			if va != vb {
				t.Fatalf("eval %d: %s = %d != %d\nlast inputs:\n\t%s", i, s.Name, va, vb, strings.Join(trail, "\n\t"))
			}
		}
	}
}
