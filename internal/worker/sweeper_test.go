package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	testhelpers "github.com/suravi/checkout/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewDraftSweeperDefaults(t *testing.T) {
	sweeper := NewDraftSweeper(&testhelpers.SweepFacadeStub{}, 0, time.Hour, time.Hour, discardLogger())
	if sweeper.sweepInterval != time.Minute {
		t.Fatalf("expected interval default to a minute, got %v", sweeper.sweepInterval)
	}
}

func TestDraftSweeperSweeps(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{}
	sweeper := NewDraftSweeper(facade, 10*time.Millisecond, 30*time.Minute, 24*time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for facade.StaleCount() == 0 || facade.PurgeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for sweep")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sweeper.Stop()

	if got := facade.StaleRuns[0].OlderThan; got != 30*time.Minute {
		t.Fatalf("unexpected stale age %v", got)
	}
	if got := facade.PurgeRuns[0].OlderThan; got != 24*time.Hour {
		t.Fatalf("unexpected purge age %v", got)
	}
}

func TestDraftSweeperContinuesAfterError(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{
		StaleFn: func(context.Context, time.Duration) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	sweeper := NewDraftSweeper(facade, 10*time.Millisecond, time.Hour, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for facade.PurgeCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for repeated sweeps")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sweeper.Stop()
}

func TestDraftSweeperStopIsIdempotent(t *testing.T) {
	sweeper := NewDraftSweeper(&testhelpers.SweepFacadeStub{}, time.Hour, time.Hour, time.Hour, discardLogger())
	sweeper.Start(context.Background())
	sweeper.Stop()
	sweeper.Stop()
}
