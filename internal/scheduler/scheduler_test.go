package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int64
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleAndStartStop(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, quietLogger())

	require.NoError(t, s.ScheduleRefresh("0 6 * * *"))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// stopping twice is a no-op
	assert.NoError(t, s.Stop())
}

func TestStartWithoutJobs(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, quietLogger())
	assert.Error(t, s.Start())
}

func TestScheduleWhileRunning(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, quietLogger())
	require.NoError(t, s.ScheduleRefresh("@daily"))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.ScheduleRefresh("@hourly"))
}

func TestScheduleInvalidExpression(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, quietLogger())
	assert.Error(t, s.ScheduleRefresh("not a cron expression"))
}

func TestRunRefreshInvokesRefresher(t *testing.T) {
	refresher := &fakeRefresher{}
	s := NewScheduler(refresher, quietLogger())

	s.runRefresh()
	assert.Equal(t, int64(1), refresher.calls.Load())

	// refresh errors are logged, not fatal
	refresher.err = errors.New("api down")
	s.runRefresh()
	assert.Equal(t, int64(2), refresher.calls.Load())
}
