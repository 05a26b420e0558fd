// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtb

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Phase names used by the default table.
//
const (
	PhaseReset     = "reset"
	PhaseIncrement = "increment"
	PhaseDecrement = "decrement"
	PhaseInit      = "initialization"
)

// Assign is an input assignment applied after a check.
//
type Assign struct {
	Signal string
	Value  uint64
}

// A Check is the expected output value at a given clock cycle.
//
// Final marks the last check of a phase, where the phase verdict is reported.
// Post assignments are applied after the check, whatever its outcome.
//
type Check struct {
	Cycle  uint64
	Expect uint64
	Phase  string
	Final  bool
	Post   []Assign
}

// Table is an immutable, ordered expectation table.
//
type Table struct {
	checks  []Check
	byCycle map[uint64]int
}

// NewTable returns a table built from the given checks. Cycles must be
// strictly increasing and every check must name its phase.
//
func NewTable(checks ...Check) (*Table, error) {
	t := &Table{
		checks:  make([]Check, len(checks)),
		byCycle: make(map[uint64]int, len(checks)),
	}
	for i, c := range checks {
		if c.Phase == "" {
			return nil, errors.Errorf("check at cycle %d: empty phase", c.Cycle)
		}
		if i > 0 && c.Cycle <= checks[i-1].Cycle {
			return nil, errors.Errorf("check at cycle %d: cycles must be strictly increasing", c.Cycle)
		}
		c.Post = append([]Assign(nil), c.Post...)
		t.checks[i] = c
		t.byCycle[c.Cycle] = i
	}
	return t, nil
}

// DefaultTable returns the counter expectation table for the given ports.
//
func DefaultTable(p Ports) *Table {
	t, err := NewTable(
		Check{Cycle: 4, Expect: 0, Phase: PhaseReset, Final: true},
		Check{Cycle: 5, Expect: 1, Phase: PhaseIncrement},
		Check{Cycle: 6, Expect: 2, Phase: PhaseIncrement},
		Check{Cycle: 7, Expect: 3, Phase: PhaseIncrement, Final: true,
			Post: []Assign{{p.IncDec, 0}}},
		Check{Cycle: 8, Expect: 2, Phase: PhaseDecrement},
		Check{Cycle: 9, Expect: 1, Phase: PhaseDecrement},
		Check{Cycle: 10, Expect: 0, Phase: PhaseDecrement, Final: true,
			Post: []Assign{{p.IncDec, 1}, {p.Init, 1}}},
		Check{Cycle: 13, Expect: 0, Phase: PhaseInit},
		Check{Cycle: 14, Expect: 0, Phase: PhaseInit},
		Check{Cycle: 15, Expect: 0, Phase: PhaseInit, Final: true,
			Post: []Assign{{p.Init, 0}}},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the check for the given cycle, if any.
//
func (t *Table) Lookup(cycle uint64) (Check, bool) {
	i, ok := t.byCycle[cycle]
	if !ok {
		return Check{}, false
	}
	return t.checks[i], true
}

// Checks returns a copy of the table's checks in cycle order.
//
func (t *Table) Checks() []Check {
	return append([]Check(nil), t.checks...)
}

// Len returns the number of checks in the table.
//
func (t *Table) Len() int { return len(t.checks) }

// Phases returns the phase names in order of first appearance.
//
func (t *Table) Phases() []string {
	var ps []string
	seen := make(map[string]bool)
	for _, c := range t.checks {
		if !seen[c.Phase] {
			seen[c.Phase] = true
			ps = append(ps, c.Phase)
		}
	}
	return ps
}

type checkYAML struct {
	Cycle  uint64            `yaml:"cycle"`
	Expect uint64            `yaml:"expect"`
	Phase  string            `yaml:"phase"`
	Final  bool              `yaml:"final,omitempty"`
	Post   map[string]uint64 `yaml:"post,omitempty"`
}

type tableYAML struct {
	Checks []checkYAML `yaml:"checks"`
}

// MarshalYAML implements yaml.Marshaler.
//
func (t *Table) MarshalYAML() (interface{}, error) {
	var ty tableYAML
	for _, c := range t.checks {
		cy := checkYAML{Cycle: c.Cycle, Expect: c.Expect, Phase: c.Phase, Final: c.Final}
		if len(c.Post) > 0 {
			cy.Post = make(map[string]uint64, len(c.Post))
			for _, a := range c.Post {
				cy.Post[a.Signal] = a.Value
			}
		}
		ty.Checks = append(ty.Checks, cy)
	}
	return ty, nil
}

// ReadTable decodes a YAML expectation table:
//
//	checks:
//	  - cycle: 7
//	    expect: 3
//	    phase: increment
//	    final: true
//	    post:
//	      i_inc_dec: 0
//
// Post assignments of a check are applied in signal name order.
//
func ReadTable(r io.Reader) (*Table, error) {
	var ty tableYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ty); err != nil {
		return nil, errors.Wrap(err, "decode table")
	}
	if len(ty.Checks) == 0 {
		return nil, errors.New("decode table: no checks")
	}
	checks := make([]Check, 0, len(ty.Checks))
	for _, cy := range ty.Checks {
		c := Check{Cycle: cy.Cycle, Expect: cy.Expect, Phase: cy.Phase, Final: cy.Final}
		names := make([]string, 0, len(cy.Post))
		for n := range cy.Post {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			c.Post = append(c.Post, Assign{n, cy.Post[n]})
		}
		checks = append(checks, c)
	}
	return NewTable(checks...)
}

// ReadTableFile reads a YAML expectation table from the named file.
//
func ReadTableFile(name string) (*Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open table")
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return t, nil
}
