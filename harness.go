// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtb

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/db47h/hwtb/internal/logging"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects what the harness does on sampled cycles.
//
type Mode int

// Harness modes.
//
const (
	// ModeCheck compares the device output against an expectation table.
	ModeCheck Mode = iota
	// ModeDisplay prints the observed state of every sampled cycle.
	ModeDisplay
)

func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeDisplay:
		return "display"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the mode with the given name.
//
func ParseMode(s string) (Mode, error) {
	switch s {
	case "check", "":
		return ModeCheck, nil
	case "display":
		return ModeDisplay, nil
	}
	return ModeCheck, errors.Errorf("unknown mode %q", s)
}

// Defaults.
//
const (
	DefaultMaxCycles    = 100
	DefaultResetRelease = 9
)

// Config configures a Harness. The zero value of each field selects its
// default.
//
type Config struct {
	Mode Mode
	// Expectation table used in ModeCheck. Defaults to DefaultTable(Ports).
	Table *Table
	// Cycle budget.
	MaxCycles uint64
	// Half period at which reset is released.
	ResetRelease uint64
	// Clock period in time units.
	Period uint64
	Ports  Ports
	// Verdicts and display lines are written to Out. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.MaxCycles == 0 {
		c.MaxCycles = DefaultMaxCycles
	}
	if c.ResetRelease == 0 {
		c.ResetRelease = DefaultResetRelease
	}
	if c.Period == 0 {
		c.Period = Period
	}
	if c.Ports == (Ports{}) {
		c.Ports = DefaultPorts
	}
	if c.Table == nil {
		c.Table = DefaultTable(c.Ports)
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
}

// A Verdict is the outcome of the checks of one phase. OK is cleared by the
// first mismatch and never set again.
//
type Verdict struct {
	Phase      string `yaml:"phase"`
	OK         bool   `yaml:"ok"`
	Checks     int    `yaml:"checks"`
	Mismatches int    `yaml:"mismatches"`
}

// Result summarizes a harness run.
//
type Result struct {
	Mode string `yaml:"mode"`
	// Cycles is the logical cycle reached when the loop ended.
	Cycles uint64 `yaml:"cycles"`
	// Steps is the number of trace records written.
	Steps uint64 `yaml:"steps"`
	// Finished is true if the device requested the end of the simulation.
	Finished bool      `yaml:"finished"`
	Verdicts []Verdict `yaml:"verdicts,omitempty"`
}

// Mismatches returns the total number of failed checks.
//
func (r *Result) Mismatches() int {
	var n int
	for _, v := range r.Verdicts {
		n += v.Mismatches
	}
	return n
}

// Passed returns true if no check failed.
//
func (r *Result) Passed() bool {
	for _, v := range r.Verdicts {
		if !v.OK {
			return false
		}
	}
	return true
}

// Harness drives a device with the counter stimulus, records a trace and
// checks the device output.
//
type Harness struct {
	dev      Device
	sink     TraceSink
	cfg      Config
	clk      Clock
	verdicts []Verdict
	phase    map[string]int
	title    cases.Caser
	log      *slog.Logger
}

// New returns a new Harness. The harness takes ownership of dev and sink:
// both are released by Run, whatever its outcome.
//
func New(dev Device, sink TraceSink, cfg Config) *Harness {
	cfg.setDefaults()
	return &Harness{
		dev:   dev,
		sink:  sink,
		cfg:   cfg,
		clk:   NewClock(cfg.Period),
		title: cases.Title(language.English),
		log:   cfg.Logger,
	}
}

// Clock returns the harness clock.
//
func (h *Harness) Clock() Clock { return h.clk }

// Label returns the display label of a phase.
//
func (h *Harness) Label(phase string) string {
	return h.title.String(phase)
}

func (h *Harness) validate() error {
	if err := h.cfg.Ports.check(h.dev); err != nil {
		return errors.Wrap(err, "invalid device")
	}
	if h.cfg.Mode != ModeCheck {
		return nil
	}
	for _, c := range h.cfg.Table.checks {
		for _, a := range c.Post {
			if err := expectSignal(h.dev, a.Signal, In); err != nil {
				return errors.Wrapf(err, "check at cycle %d", c.Cycle)
			}
		}
	}
	return nil
}

// Run runs the simulation until the device signals the end of the simulation
// or the cycle budget is exhausted. The device and trace sink are finalized on
// return. Check mismatches are reported to the output and in the returned
// Result, they are not errors.
//
func (h *Harness) Run() (res *Result, err error) {
	defer func() {
		if e := h.dev.Final(); e != nil && err == nil {
			err = errors.Wrap(e, "finalize device")
		}
		if e := h.sink.Close(); e != nil && err == nil {
			err = e
		}
	}()

	if err := h.validate(); err != nil {
		return nil, err
	}

	p := h.cfg.Ports
	res = &Result{Mode: h.cfg.Mode.String()}
	if h.cfg.Mode == ModeCheck {
		h.phase = make(map[string]int)
		for i, ph := range h.cfg.Table.Phases() {
			h.phase[ph] = i
			h.verdicts = append(h.verdicts, Verdict{Phase: ph, OK: true})
		}
	}

	for _, a := range []Assign{{p.Clock, 0}, {p.Reset, 1}, {p.Init, 0}, {p.IncDec, 1}} {
		if err := h.dev.Set(a.Signal, a.Value); err != nil {
			return res, errors.Wrap(err, "initialize inputs")
		}
	}
	h.log.Info("simulation start", "mode", h.cfg.Mode, "max_cycles", h.cfg.MaxCycles)

	for !h.dev.Finished() && h.clk.Cycle() < h.cfg.MaxCycles {
		clk, err := h.dev.Get(p.Clock)
		if err != nil {
			return res, err
		}
		clk ^= 1
		if err := h.dev.Set(p.Clock, clk); err != nil {
			return res, err
		}
		if h.clk.Half == h.cfg.ResetRelease {
			if err := h.dev.Set(p.Reset, 0); err != nil {
				return res, err
			}
			h.log.Debug("reset released", "half", h.clk.Half, "time", h.clk.Now)
		}
		h.clk.Advance()
		if err := h.dev.Eval(); err != nil {
			return res, errors.Wrapf(err, "eval at time %d", h.clk.Now)
		}
		if err := h.sink.Dump(h.clk.Half); err != nil {
			return res, err
		}
		res.Steps++
		if clk != 0 {
			if err := h.sample(); err != nil {
				return res, err
			}
		}
		h.clk.Next()
	}

	res.Cycles = h.clk.Cycle()
	res.Finished = h.dev.Finished()
	res.Verdicts = append([]Verdict(nil), h.verdicts...)
	h.log.Info("simulation done",
		"cycles", res.Cycles,
		"steps", res.Steps,
		"finished", res.Finished,
		"mismatches", res.Mismatches())
	return res, nil
}

func (h *Harness) get(names ...string) ([]uint64, error) {
	vs := make([]uint64, len(names))
	for i, n := range names {
		v, err := h.dev.Get(n)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (h *Harness) sample() error {
	p := h.cfg.Ports
	cycle := h.clk.Cycle()

	if h.cfg.Mode == ModeDisplay {
		vs, err := h.get(p.Clock, p.Reset, p.Init, p.IncDec, p.Value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(h.cfg.Out, "Cycle: %d, clk: %d, rst: %d, init: %d, inc_dec: %d, value: %d\n",
			cycle, vs[0], vs[1], vs[2], vs[3], vs[4])
		return err
	}

	c, ok := h.cfg.Table.Lookup(cycle)
	if !ok {
		return nil
	}
	got, err := h.dev.Get(p.Value)
	if err != nil {
		return err
	}
	v := &h.verdicts[h.phase[c.Phase]]
	v.Checks++
	label := h.Label(c.Phase)
	if got != c.Expect {
		v.OK = false
		v.Mismatches++
		h.log.Debug("check failed", "cycle", cycle, "phase", c.Phase, "expected", c.Expect, "received", got)
		if _, err := fmt.Fprintf(h.cfg.Out, "%s KO: Expected = %d, Received = %d\n", label, c.Expect, got); err != nil {
			return err
		}
	}
	if c.Final && v.OK {
		if _, err := fmt.Fprintf(h.cfg.Out, "%s OK\n", label); err != nil {
			return err
		}
	}
	for _, a := range c.Post {
		if err := h.dev.Set(a.Signal, a.Value); err != nil {
			return errors.Wrapf(err, "cycle %d", cycle)
		}
	}
	if c.Final {
		h.log.Debug("phase done", "phase", c.Phase, "ok", v.OK)
	}
	return nil
}
