package hwsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// W is a set of wires, connecting a part's I/O pins (the map key) to pins in its container.
//
// Keys and values may use bus ranges:
//
//	W{"a[0..7]": "q[0..7]", "b[0..7]": "true", "sel": "load"}
//
type W map[string]string

// expand builds a wire map by expanding bus ranges.
//
func (w W) expand() (map[string][]string, error) {
	r := make(map[string][]string)
	for k, v := range w {
		if k == "" || v == "" {
			return nil, errors.New("invalid pin mapping " + k + ":" + v)
		}
		ks, err := expandRange(k)
		if err != nil {
			return nil, errors.Wrap(err, "expand key "+k)
		}
		vs, err := expandRange(v)
		if err != nil {
			return nil, errors.Wrap(err, "expand value "+v)
		}
		switch {
		case len(ks) == len(vs):
			// many to many
			for i := range ks {
				r[ks[i]] = append(r[ks[i]], vs[i])
			}
		case len(ks) == 1:
			// one to many
			r[k] = append(r[k], vs...)
		case len(vs) == 1:
			// many to one
			for _, k := range ks {
				r[k] = append(r[k], vs[0])
			}
		default:
			return nil, errors.New("pin count mismatch in pin mapping: " + k + ":" + v)
		}
	}
	return r, nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	n := name[i+1:]
	i = strings.Index(n, "..")
	if i < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrap(err, "bus range start")
	}
	n = n[i+2:]
	i = strings.IndexRune(n, ']')
	if i < 0 {
		return nil, errors.New("no terminating ] in bus range")
	}
	end, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrap(err, "bus range end")
	}
	if end < start {
		return nil, errors.Errorf("invalid bus range %d..%d", start, end)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// BusPinName returns the pin name for the n-th bit of the given bus.
//
func BusPinName(bus string, n int) string {
	return bus + "[" + strconv.Itoa(n) + "]"
}

// ParseIO parses a pin specification string and returns individual pin
// names in a slice, also expanding bus declarations to individual pin names.
// For example:
//
//	ParseIO("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
func ParseIO(spec string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		i := strings.IndexRune(f, '[')
		if i < 0 {
			if !validName(f) {
				return nil, errors.Errorf("in %q: invalid pin name %q", spec, f)
			}
			out = append(out, f)
			continue
		}
		name := f[:i]
		if !validName(name) {
			return nil, errors.Errorf("in %q: invalid bus name %q", spec, name)
		}
		if !strings.HasSuffix(f, "]") {
			return nil, errors.Errorf("in %q: missing close bracket", spec)
		}
		size, err := strconv.Atoi(f[i+1 : len(f)-1])
		if err != nil || size <= 0 {
			return nil, errors.Errorf("in %q: invalid bus size for %q", spec, name)
		}
		for n := 0; n < size; n++ {
			out = append(out, BusPinName(name, n))
		}
	}
	return out, nil
}

func validName(n string) bool {
	if n == "" {
		return false
	}
	for i, r := range n {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}
