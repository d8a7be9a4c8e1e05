package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopUntilCancelled(started chan<- struct{}) func(*Token) RunResult {
	return func(tok *Token) RunResult {
		h, _ := newTestHarness(nil)
		h.Name = "loop"
		once := false
		return h.Run(func() error {
			if !once {
				once = true
				close(started)
			}
			time.Sleep(time.Millisecond)
			return nil
		}, Continuous(), tok)
	}
}

func TestRegistryStartStop(t *testing.T) {
	reg := NewRegistry()
	started := make(chan struct{})

	require.True(t, reg.Start("sql", loopUntilCancelled(started)))
	<-started

	assert.True(t, reg.Running("sql"))
	assert.False(t, reg.Start("sql", loopUntilCancelled(make(chan struct{}))), "second start is a no-op")

	assert.True(t, reg.Stop("sql"))
	assert.False(t, reg.Stop("sql"), "stop after stop is a no-op")

	res, ok := reg.Wait("sql")
	require.True(t, ok)
	assert.Equal(t, Cancelled, res.State)
	assert.Positive(t, res.TotalOperations)
	assert.False(t, reg.Running("sql"))

	last, ok := reg.Last("sql")
	require.True(t, ok)
	assert.Equal(t, res.RunID, last.RunID)
}

func TestRegistryStopIdle(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Stop("mongo"))

	_, ok := reg.Wait("mongo")
	assert.False(t, ok)
}

func TestRegistryRestartGetsFreshToken(t *testing.T) {
	reg := NewRegistry()

	require.True(t, reg.Start("mongo", func(tok *Token) RunResult {
		h, _ := newTestHarness(nil)
		return h.Run(succeed, Bounded(3), tok)
	}))
	first, _ := reg.Wait("mongo")
	assert.Equal(t, Completed, first.State)

	started := make(chan struct{})
	require.True(t, reg.Start("mongo", loopUntilCancelled(started)))
	<-started
	assert.True(t, reg.Running("mongo"))

	reg.StopAll()
	second, _ := reg.Wait("mongo")
	assert.Equal(t, Cancelled, second.State)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, []string{"mongo"}, reg.Ids())
}

func TestRegistryCancelAllReturnsImmediately(t *testing.T) {
	reg := NewRegistry()
	release := make(chan struct{})
	require.True(t, reg.Start("pg", func(tok *Token) RunResult {
		<-release
		return RunResult{SystemName: "pg", State: Cancelled}
	}))

	reg.CancelAll()
	assert.True(t, reg.Running("pg"), "the in-flight run is not awaited")

	close(release)
	res, ok := reg.Wait("pg")
	require.True(t, ok)
	assert.Equal(t, Cancelled, res.State)
}
