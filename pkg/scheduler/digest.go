package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/logging"
	"github.com/robfig/cron/v3"
)

// runTimeout bounds one digest run
const runTimeout = 2 * time.Minute

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// DigestJob publishes the claims digest on a cron schedule
type DigestJob struct {
	cron     *cron.Cron
	schedule cron.Schedule
	digest   gacha.DigestServiceInterface
	window   time.Duration
	logger   logging.Logger
}

// NewDigestJob schedules digest.PublishAll(window) on spec, a six-field cron
// expression (seconds first) evaluated in loc
func NewDigestJob(digest gacha.DigestServiceInterface, spec string, window time.Duration, loc *time.Location, logger logging.Logger) (*DigestJob, error) {
	if loc == nil {
		loc = time.Local
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}

	cronLog := cronLogger{logger: logger}
	job := &DigestJob{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		schedule: schedule,
		digest:   digest,
		window:   window,
		logger:   logger,
	}
	job.cron.Schedule(schedule, cron.FuncJob(job.Run))
	return job, nil
}

// Start runs the scheduler in its own goroutine
func (j *DigestJob) Start() {
	j.cron.Start()
	j.logger.Info("Digest scheduler started", map[string]interface{}{
		"next_run": j.Next(time.Now()).Format(time.RFC3339),
	})
}

// Stop halts the scheduler and waits for a running digest to finish
func (j *DigestJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Digest scheduler stopped", nil)
}

// Next returns the first scheduled run after t
func (j *DigestJob) Next(t time.Time) time.Time {
	return j.schedule.Next(t)
}

// Run publishes one digest
func (j *DigestJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	sent, err := j.digest.PublishAll(ctx, j.window)
	if err != nil {
		j.logger.Error("Digest run failed", err, map[string]interface{}{"sent": sent})
		return
	}
	j.logger.Info("Digest run completed", map[string]interface{}{"sent": sent})
}

// cronLogger routes cron's own messages to the engine logger
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, err, pairs(keysAndValues))
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
