package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

type fakeOverdueLister struct {
	loans []entities.Loan
}

func (f *fakeOverdueLister) ListOverdueLoans(now time.Time) ([]entities.Loan, error) {
	return f.loans, nil
}

type fakeReminderStore struct {
	warnings []entities.Warning
	reminded map[uint]bool
}

func (f *fakeReminderStore) AddWarning(w *entities.Warning) (int64, error) {
	f.warnings = append(f.warnings, *w)
	return int64(len(f.warnings)), nil
}

func (f *fakeReminderStore) HasWarningForLoanSince(loanID uint, since time.Time) (bool, error) {
	return f.reminded[loanID], nil
}

func TestOverdueRemindersProcessor(t *testing.T) {
	now := time.Now()
	lister := &fakeOverdueLister{
		loans: []entities.Loan{
			{
				ID:     1,
				BookID: 10,
				UserID: 5,
				DueAt:  now.Add(-48 * time.Hour),
				Book:   entities.Book{ID: 10, Title: "Dune"},
			},
			{
				ID:     2,
				BookID: 11,
				UserID: 6,
				DueAt:  now.Add(-24 * time.Hour),
				Book:   entities.Book{ID: 11, Title: "Foundation"},
			},
		},
	}
	store := &fakeReminderStore{
		// Loan 2 was already reminded within the window
		reminded: map[uint]bool{2: true},
	}

	proc := OverdueRemindersProcessor(lister, store)
	err := proc(context.Background(), OverdueRemindersTask{})
	require.NoError(t, err)

	require.Len(t, store.warnings, 1)
	w := store.warnings[0]
	assert.Equal(t, uint(5), w.UserID)
	require.NotNil(t, w.LoanID)
	assert.Equal(t, uint(1), *w.LoanID)
	assert.Contains(t, w.Message, "Dune")
	assert.Contains(t, w.Message, "overdue")
}

func TestOverdueRemindersProcessor_NoOverdueLoans(t *testing.T) {
	lister := &fakeOverdueLister{}
	store := &fakeReminderStore{reminded: map[uint]bool{}}

	proc := OverdueRemindersProcessor(lister, store)
	err := proc(context.Background(), OverdueRemindersTask{})
	require.NoError(t, err)
	assert.Empty(t, store.warnings)
}

func TestOverdueRemindersProcessor_MissingDeps(t *testing.T) {
	proc := OverdueRemindersProcessor(nil, nil)
	err := proc(context.Background(), OverdueRemindersTask{})
	assert.Error(t, err)
}
