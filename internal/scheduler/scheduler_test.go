package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	searchCutoff  time.Time
	historyCutoff time.Time
	searchErr     error
}

func (p *fakePruner) PruneSearchQueries(ctx context.Context, before time.Time) (int64, error) {
	p.searchCutoff = before
	return 3, p.searchErr
}

func (p *fakePruner) PrunePriceHistory(ctx context.Context, before time.Time) (int64, error) {
	p.historyCutoff = before
	return 7, nil
}

type fakeSnapshots struct {
	cutoff time.Time
}

func (s *fakeSnapshots) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return 1, nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunRetentionUsesHorizons(t *testing.T) {
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	store := &fakePruner{}
	snaps := &fakeSnapshots{}

	s := New("@daily", store, snaps, Retention{
		SearchQueries: 90 * 24 * time.Hour,
		PriceHistory:  365 * 24 * time.Hour,
		Snapshots:     24 * time.Hour,
	}, quietLogger())
	s.now = func() time.Time { return now }

	s.RunRetention(context.Background())

	assert.Equal(t, now.AddDate(0, 0, -90), store.searchCutoff)
	assert.Equal(t, now.AddDate(0, 0, -365), store.historyCutoff)
	assert.Equal(t, now.Add(-24*time.Hour), snaps.cutoff)
}

func TestRunRetentionContinuesAfterFailure(t *testing.T) {
	store := &fakePruner{searchErr: errors.New("db down")}

	s := New("@daily", store, nil, Retention{
		SearchQueries: time.Hour,
		PriceHistory:  time.Hour,
	}, quietLogger())

	s.RunRetention(context.Background())

	assert.False(t, store.historyCutoff.IsZero())
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New("not a cron spec", &fakePruner{}, nil, Retention{}, quietLogger())
	require.Error(t, s.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := New("@every 1h", &fakePruner{}, nil, Retention{}, quietLogger())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
