package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	timescheduler "github.com/clubnft/clubd/internal/infrastructure/scheduler/gocron"
	"github.com/stretchr/testify/require"
)

type service struct {
	name      string
	scheduler ports.SchedulerService
}

func TestScheduleTask(t *testing.T) {
	t.Parallel()

	svcs := servicesToTest(t)

	for _, svc := range svcs {
		t.Run(svc.name, func(t *testing.T) {
			var calls atomic.Int32
			handlerFunc := func() {
				calls.Add(1)
			}

			err := svc.scheduler.ScheduleTaskOnce(svc.scheduler.AddNow(2), handlerFunc)
			require.NoError(t, err)

			time.Sleep(4 * time.Second)

			require.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestScheduleTaskInThePast(t *testing.T) {
	t.Parallel()

	for _, svc := range servicesToTest(t) {
		t.Run(svc.name, func(t *testing.T) {
			done := make(chan struct{})
			err := svc.scheduler.ScheduleTaskOnce(svc.scheduler.AddNow(-10), func() {
				close(done)
			})
			require.NoError(t, err)

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("task not executed")
			}
		})
	}
}

func TestAfterNow(t *testing.T) {
	for _, svc := range servicesToTest(t) {
		t.Run(svc.name, func(t *testing.T) {
			require.Equal(t, ports.UnixTime, svc.scheduler.Unit())
			require.True(t, svc.scheduler.AfterNow(svc.scheduler.AddNow(60)))
			require.False(t, svc.scheduler.AfterNow(svc.scheduler.AddNow(-60)))
		})
	}
}

func TestScheduleInvalidTask(t *testing.T) {
	for _, svc := range servicesToTest(t) {
		t.Run(svc.name, func(t *testing.T) {
			err := svc.scheduler.ScheduleTaskOnce(svc.scheduler.AddNow(1), nil)
			require.Error(t, err)
		})
	}
}

func servicesToTest(t *testing.T) []service {
	svcs := []service{
		{name: "gocron", scheduler: timescheduler.NewScheduler()},
	}

	for _, svc := range svcs {
		svc.scheduler.Start()
		t.Cleanup(func() { svc.scheduler.Stop() })
	}

	return svcs
}
