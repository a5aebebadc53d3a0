package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/tasks"
)

// cronParser accepts the standard 5-field cron format.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks that a schedule string is a valid 5-field
// cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Scheduler enqueues periodic maintenance tasks on cron schedules. The work
// itself runs on the task queue so retries and timeouts follow the queue
// configuration rather than the cron tick.
type Scheduler struct {
	client *tasks.Client
	loans  config.Loans
	audit  config.Audit

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// New creates a scheduler backed by the given task queue client.
func New(client *tasks.Client, loansCfg config.Loans, auditCfg config.Audit) *Scheduler {
	return &Scheduler{
		client: client,
		loans:  loansCfg,
		audit:  auditCfg,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the configured jobs and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	var jobs int

	if s.audit.RetentionDays > 0 && s.audit.CleanupSchedule != "" {
		if err := ValidateCronSchedule(s.audit.CleanupSchedule); err != nil {
			return fmt.Errorf("invalid audit cleanup schedule '%s': %w", s.audit.CleanupSchedule, err)
		}
		retentionDays := s.audit.RetentionDays
		_, err := s.cron.AddFunc(s.audit.CleanupSchedule, func() {
			s.enqueue(tasks.CleanupAuditEventsTask{RetentionDays: retentionDays})
		})
		if err != nil {
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
		log.Printf("Scheduler: audit cleanup scheduled '%s' (retention %d days)",
			s.audit.CleanupSchedule, retentionDays)
		jobs++
	} else {
		log.Printf("Scheduler: audit cleanup disabled")
	}

	if s.loans.RemindersEnabled && s.loans.ReminderSchedule != "" {
		if err := ValidateCronSchedule(s.loans.ReminderSchedule); err != nil {
			return fmt.Errorf("invalid reminder schedule '%s': %w", s.loans.ReminderSchedule, err)
		}
		_, err := s.cron.AddFunc(s.loans.ReminderSchedule, func() {
			s.enqueue(tasks.OverdueRemindersTask{})
		})
		if err != nil {
			return fmt.Errorf("failed to schedule overdue reminders: %w", err)
		}
		log.Printf("Scheduler: overdue reminders scheduled '%s'", s.loans.ReminderSchedule)
		jobs++
	} else {
		log.Printf("Scheduler: overdue reminders disabled")
	}

	if jobs == 0 {
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTimes returns the next firing time of each registered job.
func (s *Scheduler) NextRunTimes() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	times := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		times = append(times, entry.Next)
	}
	return times
}

func (s *Scheduler) enqueue(task backlite.Task) {
	if _, err := s.client.Add(task).Save(); err != nil {
		log.Printf("Scheduler: failed to enqueue task: %v", err)
	}
}
