package chrono

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedTimeIsUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, time.March, 10, 18, 30, 0, 0, loc)

	now := FixedTime{At: at}.Now()
	require.Equal(t, time.UTC, now.Location())
	require.True(t, now.Equal(at))
}

func TestStandardTimeIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, NewStandardTime().Now().Location())
}

func TestStandardCron(t *testing.T) {
	cronner := NewStandardCron()

	require.Error(t, cronner.Cron("not a spec", func() {}))

	var calls atomic.Int64
	err := cronner.Cron("@every 1s", func() {
		calls.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	<-cronner.Stop().Done()
}

func TestSkipIfRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	job := SkipIfRunning(func() {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		job()
		close(done)
	}()
	<-started

	// overlaps the first call and is dropped
	job()
	require.Equal(t, int64(1), calls.Load())

	close(release)
	<-done

	job()
	require.Equal(t, int64(2), calls.Load())
}
