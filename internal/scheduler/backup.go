package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/guidekeeper/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Config describes the automatic backup job.
type Config struct {
	Enabled  bool
	Schedule string // 5-field cron expression
	Dir      string
	Keep     int
}

// Dispatch hands one backup task to whatever runs it.
type Dispatch func(task tasks.CreateBackupTask) error

// QueueDispatch enqueues backups on the task queue.
func QueueDispatch(client *tasks.Client) Dispatch {
	return func(task tasks.CreateBackupTask) error {
		_, err := client.Add(task).Save()
		return err
	}
}

// InlineDispatch runs backups on the cron goroutine.
func InlineDispatch(creator tasks.BackupCreator) Dispatch {
	return func(task tasks.CreateBackupTask) error {
		return tasks.RunCreateBackup(creator, task)
	}
}

// BackupScheduler triggers backups on a cron schedule.
type BackupScheduler struct {
	config   Config
	dispatch Dispatch

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewBackupScheduler(cfg Config, dispatch Dispatch) *BackupScheduler {
	return &BackupScheduler{
		config:   cfg,
		dispatch: dispatch,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts cron. It is a no-op when backups are
// disabled or the scheduler already runs. Cancelling ctx stops it.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		log.Info().Msg("Backup scheduler disabled")
		return nil
	}
	if s.config.Dir == "" {
		return fmt.Errorf("backup directory not configured")
	}
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.config.Schedule, time.Now())
	log.Info().
		Str("schedule", s.config.Schedule).
		Str("dir", s.config.Dir).
		Int("keep", s.config.Keep).
		Time("next_run", next).
		Msg("Backup scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish and stops cron.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Info().Msg("Backup scheduler stopped")
}

// RunNow triggers one backup outside the schedule and waits for it to be
// dispatched.
func (s *BackupScheduler) RunNow() error {
	return s.dispatch(s.task())
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when not running.
func (s *BackupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *BackupScheduler) task() tasks.CreateBackupTask {
	return tasks.CreateBackupTask{Dir: s.config.Dir, Keep: s.config.Keep}
}

func (s *BackupScheduler) run() {
	if err := s.dispatch(s.task()); err != nil {
		log.Error().Err(err).Str("dir", s.config.Dir).Msg("Scheduled backup failed")
	}
}

// ValidateSchedule checks a 5-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
