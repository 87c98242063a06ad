package status

import (
	"time"

	"github.com/robfig/cron"
)

// Scheduler runs job every interval until the returned stop function is
// called. Stop must not block on a running job.
type Scheduler interface {
	Schedule(interval time.Duration, job func()) (stop func())
}

// CronScheduler schedules jobs on a dedicated cron runner per schedule.
type CronScheduler struct{}

func (CronScheduler) Schedule(interval time.Duration, job func()) func() {
	c := cron.New()
	c.Schedule(fixedDelay(interval), cron.FuncJob(job))
	c.Start()
	return c.Stop
}

// fixedDelay fires exactly interval after the previous activation.
// cron.Every would truncate to whole seconds and align to second boundaries.
type fixedDelay time.Duration

func (d fixedDelay) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}
