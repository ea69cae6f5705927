package cooldown

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_CountsDownOverSixtySeconds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(WithClock(clock))

	assert.Equal(t, 0, timer.Remaining())
	assert.False(t, timer.Disabled())

	timer.Start()
	assert.Equal(t, 60, timer.Remaining())
	assert.True(t, timer.Disabled())

	for want := 59; want >= 0; want-- {
		clock.Advance(time.Second)
		require.Equal(t, want, timer.Remaining())
	}
	assert.False(t, timer.Disabled())

	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, timer.Remaining())
}

func TestTimer_PartialSecondRoundsUp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(WithClock(clock))
	timer.Start()

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 60, timer.Remaining())
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 59, timer.Remaining())
}

func TestTimer_Resume(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(WithClock(clock))

	timer.Resume(clock.Now().Add(-45 * time.Second))
	assert.Equal(t, 15, timer.Remaining())

	timer.Resume(clock.Now().Add(-2 * time.Minute))
	assert.Equal(t, 0, timer.Remaining())
	assert.False(t, timer.Disabled())
}

func TestTimer_BeginFinish(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(WithClock(clock))

	require.True(t, timer.Begin())
	assert.True(t, timer.Disabled())
	assert.False(t, timer.Begin(), "second request while in flight")

	timer.Finish(false)
	assert.False(t, timer.Disabled())
	assert.Equal(t, 0, timer.Remaining())

	require.True(t, timer.Begin())
	timer.Finish(true)
	assert.Equal(t, 60, timer.Remaining())
	assert.False(t, timer.Begin(), "cooldown running")
}

func TestTimer_TickHandler(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 1)
	timer := New(
		WithClock(clock),
		WithPeriod(3*time.Second),
		WithTickHandler(func(remaining int) { ticks <- remaining }),
	)
	defer timer.Stop()

	timer.Start()

	for _, want := range []int{2, 1, 0} {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
		select {
		case got := <-ticks:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("no tick for %d", want)
		}
	}
}

func TestTimer_StopCancelsTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	called := make(chan int, 10)
	timer := New(WithClock(clock), WithTickHandler(func(r int) { called <- r }))

	timer.Start()
	clock.BlockUntil(1)
	timer.Stop()

	clock.Advance(5 * time.Second)
	assert.Len(t, called, 0)
	assert.Equal(t, 55, timer.Remaining())

	timer.Stop()
}
