package hwtb_test

import (
	"testing"

	"github.com/db47h/hwtb"
	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	c := hwtb.NewClock(hwtb.Period)
	assert.Equal(t, uint64(5), c.HalfPeriod)

	var prevNow uint64
	for i := uint64(0); i < 20; i++ {
		assert.Equal(t, i, c.Half)
		assert.Equal(t, i/2, c.Cycle())
		c.Advance()
		assert.Equal(t, (i+1)*5, c.Now)
		assert.Greater(t, c.Now, prevNow)
		prevNow = c.Now
		c.Next()
	}
}

func TestClockMinimumPeriod(t *testing.T) {
	c := hwtb.NewClock(0)
	assert.Equal(t, uint64(1), c.HalfPeriod)
}
