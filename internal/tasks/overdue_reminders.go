package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/loans"
)

// OverdueLoanLister provides the overdue loans to remind about.
type OverdueLoanLister interface {
	ListOverdueLoans(now time.Time) ([]entities.Loan, error)
}

// ReminderStore records reminder warnings and deduplicates them.
type ReminderStore interface {
	AddWarning(warning *entities.Warning) (int64, error)
	HasWarningForLoanSince(loanID uint, since time.Time) (bool, error)
}

// OverdueRemindersTask scans for overdue loans and issues a warning to each
// borrower. At most one reminder per loan per day is created; the loan itself
// is never modified.
type OverdueRemindersTask struct{}

// Config returns the queue configuration for overdue reminder tasks.
func (t OverdueRemindersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_reminders",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueRemindersProcessor creates a processor function for OverdueRemindersTask.
func OverdueRemindersProcessor(lister OverdueLoanLister, store ReminderStore) backlite.QueueProcessor[OverdueRemindersTask] {
	return func(ctx context.Context, task OverdueRemindersTask) error {
		if lister == nil || store == nil {
			return fmt.Errorf("overdue reminder dependencies not configured")
		}

		now := time.Now()
		overdue, err := lister.ListOverdueLoans(now)
		if err != nil {
			return fmt.Errorf("list overdue loans: %w", err)
		}

		var created int
		for _, loan := range overdue {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			since := now.Add(-24 * time.Hour)
			reminded, err := store.HasWarningForLoanSince(loan.ID, since)
			if err != nil {
				return fmt.Errorf("check reminder for loan %d: %w", loan.ID, err)
			}
			if reminded {
				continue
			}

			days := loans.OverdueDays(&loan, now)
			title := loan.Book.Title
			if title == "" {
				title = fmt.Sprintf("book %d", loan.BookID)
			}
			loanID := loan.ID
			warning := &entities.Warning{
				UserID:  loan.UserID,
				LoanID:  &loanID,
				Message: fmt.Sprintf("Your loan of %q is %d day(s) overdue. Please return it as soon as possible.", title, days),
			}
			if _, err := store.AddWarning(warning); err != nil {
				return fmt.Errorf("create reminder for loan %d: %w", loan.ID, err)
			}
			created++
		}

		log.Printf("[TASK] Overdue reminders: %d loans overdue, %d reminders created", len(overdue), created)
		return nil
	}
}

// NewOverdueRemindersQueue creates a backlite queue for overdue reminder tasks.
func NewOverdueRemindersQueue(lister OverdueLoanLister, store ReminderStore) backlite.Queue {
	return backlite.NewQueue(OverdueRemindersProcessor(lister, store))
}
