package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

type fakePurger struct {
	cutoff time.Time
	purged int64
	err    error
}

func (f *fakePurger) PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.purged, f.err
}

func TestSessionSweepUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	purger := &fakePurger{purged: 4}
	jobIface, err := NewSessionSweepJob(SessionSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Sessions:  purger,
		Retention: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewSessionSweepJob: %v", err)
	}
	job := jobIface.(*sessionSweepJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-48 * time.Hour)
	if !purger.cutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, purger.cutoff)
	}
}

func TestSessionSweepPropagatesError(t *testing.T) {
	jobIface, err := NewSessionSweepJob(SessionSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Sessions: &fakePurger{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewSessionSweepJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
