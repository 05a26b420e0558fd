/*
Package hwtb is a testbench harness for a simulated up/down counter.

The harness drives a Device half period by half period: it toggles the clock,
releases reset at a fixed time, evaluates the device, records the full signal
state to a TraceSink and, on every rising clock sample, either checks the
counter output against an expectation Table or displays the observed state.

Devices are accessed through a narrow capability interface (Set, Get, Eval),
so the same harness runs the gate-level counter simulated by package hwsim,
the behavioral reference model, or any other implementation:

	dev, err := counter.NewGates(1)
	if err != nil {
		return err
	}
	sink, err := hwtb.OpenVCD("waveform.vcd", dev)
	if err != nil {
		dev.Final()
		return err
	}
	res, err := hwtb.New(dev, sink, hwtb.Config{}).Run()

Check mismatches are reported to the output and in the Result; they do not
stop the simulation.
*/
package hwtb
