package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/draw"
)

func TestClock_Update(t *testing.T) {
	te := newTestEnv(t, nil)
	c := NewClock(te.Env)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, c.Update(now, false, false))
	assert.Contains(t, te.Draw.Content(draw.Clock), "12:00:00")
	assert.Empty(t, te.out.String(), "not flushed")

	assert.False(t, c.Update(now, false, false), "unchanged")
	assert.True(t, c.Update(now, true, false), "forced")
	assert.True(t, c.Update(now.Add(time.Second), false, false))

	c.Reset()
	assert.True(t, c.Update(now.Add(time.Second), false, false))
}

func TestClock_Flush(t *testing.T) {
	te := newTestEnv(t, nil)
	c := NewClock(te.Env)
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	te.SetMenuActive(true)
	assert.True(t, c.Update(now, false, true))
	assert.Empty(t, te.out.String(), "menus hold the clock back")

	te.SetMenuActive(false)
	assert.True(t, c.Update(now.Add(time.Second), false, true))
	assert.Contains(t, te.out.String(), "08:30:01")
}

func TestClock_Disabled(t *testing.T) {
	te := newTestEnv(t, func(c *config.Config) { c.DrawClock = "" })
	c := NewClock(te.Env)
	assert.False(t, c.Update(time.Now(), true, true))
	assert.False(t, te.Draw.Has(draw.Clock))
}
