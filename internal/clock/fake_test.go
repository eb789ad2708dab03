package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)
	var order []string

	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	c.AfterFunc(5*time.Second, func() { order = append(order, "c") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false

	timer := c.AfterFunc(time.Second, func() { fired = true })
	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeStopAfterFire(t *testing.T) {
	c := NewFake(epoch)
	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, timer.Stop())
}

func TestFakeCallbackArmsNewTimer(t *testing.T) {
	c := NewFake(epoch)
	var at []time.Time

	c.AfterFunc(time.Second, func() {
		at = append(at, c.Now())
		c.AfterFunc(time.Second, func() { at = append(at, c.Now()) })
	})

	c.Advance(5 * time.Second)
	require.Len(t, at, 2)
	assert.Equal(t, epoch.Add(time.Second), at[0])
	assert.Equal(t, epoch.Add(2*time.Second), at[1])
}
