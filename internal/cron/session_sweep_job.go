package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

const defaultSessionRetention = 30 * 24 * time.Hour

type sessionPurger interface {
	PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionSweepJobParams configure the resolved session sweeper.
type SessionSweepJobParams struct {
	Logger    *logger.Logger
	Sessions  sessionPurger
	Retention time.Duration
}

// NewSessionSweepJob builds the job that deletes resolved payment sessions
// past the retention window. Orders and audit rows keep the durable history.
func NewSessionSweepJob(params SessionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session purger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultSessionRetention
	}
	return &sessionSweepJob{
		logg:      params.Logger,
		sessions:  params.Sessions,
		retention: retention,
		now:       time.Now,
	}, nil
}

type sessionSweepJob struct {
	logg      *logger.Logger
	sessions  sessionPurger
	retention time.Duration
	now       func() time.Time
}

func (j *sessionSweepJob) Name() string { return "session-sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	purged, err := j.sessions.PurgeResolved(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge resolved sessions: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "purged", purged)
	j.logg.Info(logCtx, "session sweep complete")
	return nil
}
