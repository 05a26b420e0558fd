package hwtb

// Period is the default clock period in simulation time units.
//
const Period = 10

// Clock tracks simulated time.
//
// Half counts elapsed half periods and is the time stamp used for trace
// records. Now is the simulation time in time units, advanced by HalfPeriod
// on each iteration. Both only increase.
//
type Clock struct {
	Half       uint64
	Now        uint64
	HalfPeriod uint64
}

// NewClock returns a clock at time 0 for the given clock period.
//
func NewClock(period uint64) Clock {
	if period < 2 {
		period = 2
	}
	return Clock{HalfPeriod: period / 2}
}

// Cycle returns the logical clock cycle: two half periods per cycle.
//
func (c *Clock) Cycle() uint64 { return c.Half / 2 }

// Advance moves simulation time forward by one half period.
//
func (c *Clock) Advance() { c.Now += c.HalfPeriod }

// Next moves to the next half period.
//
func (c *Clock) Next() { c.Half++ }
