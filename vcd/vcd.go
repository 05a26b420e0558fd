// Package vcd writes Value Change Dump waveform files.
//
// Only the subset needed for flat modules is supported: a single scope of
// wires, each one bit or a vector of up to 64 bits.
//
//	w := vcd.NewWriter(f, vcd.Header{Timescale: "1ps", Scope: "TOP"})
//	clk, _ := w.Declare("clock", 1)
//	val, _ := w.Declare("o_value", 8)
//	w.Dump(0, []uint64{1, 0})
//	w.Flush()
//
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Header holds the declaration section fields of a dump. Empty Version and
// Date are omitted.
//
type Header struct {
	Version   string
	Date      string
	Timescale string
	Scope     string
}

type variable struct {
	name  string
	width int
	id    string
	mask  uint64
}

// Writer writes a VCD stream. Variables are declared before the first call to
// Dump or Flush, which writes the declaration section.
//
type Writer struct {
	w       *bufio.Writer
	h       Header
	vars    []variable
	last    []uint64
	defined bool
	started bool
	t       uint64
	err     error
}

// NewWriter returns a Writer writing to w.
//
func NewWriter(w io.Writer, h Header) *Writer {
	if h.Timescale == "" {
		h.Timescale = "1ps"
	}
	if h.Scope == "" {
		h.Scope = "TOP"
	}
	return &Writer{w: bufio.NewWriter(w), h: h}
}

// Declare adds a wire of the given bit width and returns its index in the
// value slices passed to Dump.
//
func (w *Writer) Declare(name string, width int) (int, error) {
	if w.defined {
		return 0, errors.Errorf("declare %s: declarations already written", name)
	}
	if width < 1 || width > 64 {
		return 0, errors.Errorf("declare %s: unsupported width %d", name, width)
	}
	mask := ^uint64(0)
	if width < 64 {
		mask = 1<<uint(width) - 1
	}
	n := len(w.vars)
	w.vars = append(w.vars, variable{name: name, width: width, id: IDCode(n), mask: mask})
	return n, nil
}

// IDCode returns the short identifier code of the n-th variable. Codes are
// built from the printable ASCII characters '!' to '~'.
//
func IDCode(n int) string {
	var b []byte
	for {
		b = append(b, byte('!'+n%94))
		n /= 94
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}

func (w *Writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *Writer) header() {
	if w.defined {
		return
	}
	w.defined = true
	if w.h.Version != "" {
		w.printf("$version %s $end\n", w.h.Version)
	}
	if w.h.Date != "" {
		w.printf("$date %s $end\n", w.h.Date)
	}
	w.printf("$timescale %s $end\n", w.h.Timescale)
	w.printf("$scope module %s $end\n", w.h.Scope)
	for _, v := range w.vars {
		if v.width == 1 {
			w.printf("$var wire 1 %s %s $end\n", v.id, v.name)
		} else {
			w.printf("$var wire %d %s %s [%d:0] $end\n", v.width, v.id, v.name, v.width-1)
		}
	}
	w.printf("$upscope $end\n")
	w.printf("$enddefinitions $end\n")
}

func (w *Writer) value(v variable, x uint64) {
	if v.width == 1 {
		w.printf("%d%s\n", x, v.id)
		return
	}
	w.printf("b%s %s\n", strconv.FormatUint(x, 2), v.id)
}

// Dump records the values of all declared variables at time t. Only changed
// values are written, except for the first dump which records every value.
// Time must strictly increase between dumps.
//
func (w *Writer) Dump(t uint64, values []uint64) error {
	if w.err != nil {
		return w.err
	}
	if len(values) != len(w.vars) {
		return errors.Errorf("dump at %d: got %d values for %d variables", t, len(values), len(w.vars))
	}
	if !w.started {
		w.header()
		w.printf("#%d\n$dumpvars\n", t)
		w.last = make([]uint64, len(values))
		for i, v := range w.vars {
			x := values[i] & v.mask
			w.value(v, x)
			w.last[i] = x
		}
		w.printf("$end\n")
		w.started = true
		w.t = t
		return w.err
	}
	if t <= w.t {
		return errors.Errorf("dump at %d: time must be greater than %d", t, w.t)
	}
	w.t = t
	w.printf("#%d\n", t)
	for i, v := range w.vars {
		x := values[i] & v.mask
		if x != w.last[i] {
			w.value(v, x)
			w.last[i] = x
		}
	}
	return w.err
}

// Flush writes any buffered data to the underlying writer. The declaration
// section is written first if no value was dumped yet, so that a stream with
// no dumps is still a valid VCD file.
//
func (w *Writer) Flush() error {
	w.header()
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}
