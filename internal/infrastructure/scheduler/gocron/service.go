package timescheduler

import (
	"fmt"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) Unit() ports.TimeUnit {
	return ports.UnixTime
}

func (s *service) AddNow(delta int64) int64 {
	return time.Now().Add(time.Duration(delta) * time.Second).Unix()
}

func (s *service) AfterNow(at int64) bool {
	return time.Unix(at, 0).After(time.Now())
}

func (s *service) ScheduleTaskOnce(at int64, task func()) error {
	if task == nil {
		return fmt.Errorf("missing task")
	}

	delay := time.Until(time.Unix(at, 0))
	if delay <= 0 {
		log.Debugf("task scheduled in the past (%d), running it now", at)
		go task()
		return nil
	}

	_, err := s.scheduler.Every(delay).WaitForSchedule().LimitRunsTo(1).Do(task)
	return err
}
