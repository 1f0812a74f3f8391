package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	local := time.Date(2025, 3, 14, 19, 0, 0, 0, time.FixedZone("CET", 3600))
	c := NewFixed(local)

	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(local))
	assert.Zero(t, Since(c, c.Now()))
}

func TestSystemIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NewSystem().Now().Location())
}

func TestStepping(t *testing.T) {
	start := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	c := NewStepping(start, 250*time.Millisecond)

	first := c.Now()
	assert.Equal(t, start, first)
	assert.Equal(t, 250*time.Millisecond, Since(c, first))
	assert.Equal(t, start.Add(500*time.Millisecond), c.Now())
}
