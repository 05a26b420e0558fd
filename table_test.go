package hwtb_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/hwtb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultTable(t *testing.T) {
	tb := hwtb.DefaultTable(hwtb.DefaultPorts)
	assert.Equal(t, 10, tb.Len())
	assert.Equal(t, []string{"reset", "increment", "decrement", "initialization"}, tb.Phases())

	c, ok := tb.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, uint64(3), c.Expect)
	assert.True(t, c.Final)
	assert.Equal(t, []hwtb.Assign{{Signal: "i_inc_dec", Value: 0}}, c.Post)

	c, ok = tb.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, []hwtb.Assign{{Signal: "i_inc_dec", Value: 1}, {Signal: "i_init", Value: 1}}, c.Post)

	c, ok = tb.Lookup(15)
	require.True(t, ok)
	assert.True(t, c.Final)
	assert.Equal(t, []hwtb.Assign{{Signal: "i_init", Value: 0}}, c.Post)

	for _, cycle := range []uint64{0, 3, 11, 12, 16, 99} {
		_, ok := tb.Lookup(cycle)
		assert.False(t, ok, "cycle %d", cycle)
	}

	var finals []uint64
	for _, c := range tb.Checks() {
		if c.Final {
			finals = append(finals, c.Cycle)
		}
	}
	assert.Equal(t, []uint64{4, 7, 10, 15}, finals)
}

func TestNewTableErrors(t *testing.T) {
	_, err := hwtb.NewTable(hwtb.Check{Cycle: 1, Phase: ""})
	assert.ErrorContains(t, err, "empty phase")

	_, err = hwtb.NewTable(
		hwtb.Check{Cycle: 5, Phase: "a"},
		hwtb.Check{Cycle: 5, Phase: "a"},
	)
	assert.ErrorContains(t, err, "strictly increasing")
}

func TestTableImmutable(t *testing.T) {
	post := []hwtb.Assign{{Signal: "i_init", Value: 1}}
	tb, err := hwtb.NewTable(hwtb.Check{Cycle: 1, Phase: "p", Post: post})
	require.NoError(t, err)
	post[0].Value = 0
	cs := tb.Checks()
	cs[0].Expect = 42
	c, _ := tb.Lookup(1)
	assert.Equal(t, uint64(1), c.Post[0].Value)
	assert.Equal(t, uint64(0), c.Expect)
}

func TestReadTable(t *testing.T) {
	src := `checks:
  - cycle: 2
    expect: 0
    phase: reset
    final: true
    post:
      i_inc_dec: 0
      i_init: 1
  - cycle: 3
    expect: 255
    phase: wrap
`
	tb, err := hwtb.ReadTable(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())
	c, ok := tb.Lookup(2)
	require.True(t, ok)
	// post assignments are sorted by signal name
	assert.Equal(t, []hwtb.Assign{{Signal: "i_inc_dec", Value: 0}, {Signal: "i_init", Value: 1}}, c.Post)
	c, _ = tb.Lookup(3)
	assert.Equal(t, uint64(255), c.Expect)
	assert.False(t, c.Final)
}

func TestReadTableErrors(t *testing.T) {
	td := []struct {
		name, src, msg string
	}{
		{"empty", "checks: []\n", "no checks"},
		{"unknown field", "checks:\n  - cycle: 1\n    phase: a\n    expected: 2\n", "field expected not found"},
		{"order", "checks:\n  - {cycle: 4, phase: a}\n  - {cycle: 2, phase: a}\n", "strictly increasing"},
		{"no phase", "checks:\n  - {cycle: 4}\n", "empty phase"},
		{"syntax", "checks: [\n", "decode table"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := hwtb.ReadTable(strings.NewReader(d.src))
			assert.ErrorContains(t, err, d.msg)
		})
	}
}

func TestTableYAMLRoundTrip(t *testing.T) {
	want := hwtb.DefaultTable(hwtb.DefaultPorts)
	data, err := yaml.Marshal(want)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))
	got, err := hwtb.ReadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Checks(), got.Checks())
}

func TestReadTableFileMissing(t *testing.T) {
	_, err := hwtb.ReadTableFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "open table")
}
