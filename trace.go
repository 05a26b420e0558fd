package hwtb

import (
	"io"
	"os"
	"time"

	"github.com/db47h/hwtb/vcd"
	"github.com/pkg/errors"
)

// A TraceSink records the full signal state of a device once per time
// advance. Close must be called exactly once.
//
type TraceSink interface {
	Dump(t uint64) error
	Close() error
}

type discard struct{}

func (discard) Dump(uint64) error { return nil }
func (discard) Close() error      { return nil }

// Discard is a TraceSink that records nothing.
//
var Discard TraceSink = discard{}

type vcdTrace struct {
	w      *vcd.Writer
	c      io.Closer
	dev    Device
	names  []string
	values []uint64
	closed bool
}

// NewVCDTrace returns a TraceSink writing a VCD stream to w, declaring one
// wire per signal of dev. If w is an io.Closer, it is closed by Close.
//
func NewVCDTrace(w io.Writer, dev Device, h vcd.Header) (TraceSink, error) {
	vw := vcd.NewWriter(w, h)
	t := &vcdTrace{w: vw, dev: dev}
	if c, ok := w.(io.Closer); ok {
		t.c = c
	}
	for _, s := range dev.Signals() {
		if _, err := vw.Declare(s.Name, s.Width); err != nil {
			return nil, err
		}
		t.names = append(t.names, s.Name)
	}
	t.values = make([]uint64, len(t.names))
	return t, nil
}

// OpenVCD creates the named VCD file and returns a TraceSink bound to the
// signals of dev.
//
func OpenVCD(name string, dev Device) (TraceSink, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	t, err := NewVCDTrace(f, dev, vcd.Header{
		Version:   "hwtb",
		Date:      time.Now().Format(time.ANSIC),
		Timescale: "1ps",
		Scope:     "TOP",
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

func (t *vcdTrace) Dump(ts uint64) error {
	for i, n := range t.names {
		v, err := t.dev.Get(n)
		if err != nil {
			return errors.Wrapf(err, "trace %s", n)
		}
		t.values[i] = v
	}
	return errors.Wrap(t.w.Dump(ts, t.values), "trace")
}

func (t *vcdTrace) Close() error {
	if t.closed {
		return errors.New("trace already closed")
	}
	t.closed = true
	err := t.w.Flush()
	if t.c != nil {
		if cerr := t.c.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "close trace")
}
