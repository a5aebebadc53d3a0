package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/tasks"
)

func newTestClient(t *testing.T) *tasks.Client {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	cfg := tasks.DefaultConfig()
	cfg.Workers = 1

	client, err := tasks.NewClient(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 8 * * *", true},
		{"30 3 * * *", true},
		{"*/15 * * * *", true},
		{"invalid", false},
		{"", false},
		{"0 8 * *", false}, // 4 fields
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestScheduler_StartWithJobs(t *testing.T) {
	client := newTestClient(t)

	s := New(client,
		config.Loans{RemindersEnabled: true, ReminderSchedule: "0 8 * * *"},
		config.Audit{RetentionDays: 30, CleanupSchedule: "30 3 * * *"},
	)

	err := s.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.NextRunTimes(), 2)

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestScheduler_AllJobsDisabled(t *testing.T) {
	client := newTestClient(t)

	s := New(client, config.Loans{}, config.Audit{})

	err := s.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, s.IsRunning(), "scheduler should not start with no jobs")
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	client := newTestClient(t)

	s := New(client,
		config.Loans{RemindersEnabled: true, ReminderSchedule: "not-a-schedule"},
		config.Audit{},
	)

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestScheduler_StopIdempotent(t *testing.T) {
	client := newTestClient(t)

	s := New(client, config.Loans{}, config.Audit{})
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}
