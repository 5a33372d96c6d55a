package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstepro/the-compound-sub000/internal/model"
)

func newTestLog(t *testing.T) *SQLiteLog {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteLog_CreateAndGetRun(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doc-1", true)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusQueued, run.Status)
	assert.True(t, run.FullRefresh)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Nil(t, got.Stats)
	assert.Empty(t, got.Error)
}

func TestSQLiteLog_StatusTransitions(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doc-1", false)
	require.NoError(t, err)

	for _, status := range []RunStatus{StatusSegmenting, StatusExtracting, StatusEnriching, StatusTagging, StatusPersisting} {
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, status))
		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
}

func TestSQLiteLog_CompleteRunStoresStats(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doc-1", false)
	require.NoError(t, err)

	stats := model.EnrichmentStats{EnrichedPlaces: 7, SkippedPlaces: 3, FailedPlaces: 1}
	require.NoError(t, s.CompleteRun(ctx, run.ID, stats))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, stats, *got.Stats)
}

func TestSQLiteLog_FailRun(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doc-1", false)
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, run.ID, "extraction failed: no places"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "extraction failed: no places", got.Error)
}

func TestSQLiteLog_UpdateMissingRun(t *testing.T) {
	s := newTestLog(t)
	err := s.UpdateRunStatus(context.Background(), "no-such-id", StatusComplete)
	assert.Error(t, err)
}

func TestSQLiteLog_ListRunsFilters(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "doc-a", false)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "doc-b", false)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, a.ID, "boom"))

	failed, err := s.ListRuns(ctx, Filter{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	byDoc, err := s.ListRuns(ctx, Filter{DocumentID: "doc-b"})
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, "doc-b", byDoc[0].DocumentID)

	limited, err := s.ListRuns(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteLog_Events(t *testing.T) {
	s := newTestLog(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doc-1", false)
	require.NoError(t, err)

	require.NoError(t, s.AddEvent(ctx, run.ID, "extracting", "extracting places"))
	require.NoError(t, s.AddEvent(ctx, run.ID, "enriching", "enriching places"))

	events, err := s.ListEvents(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "extracting", events[0].Phase)
	assert.Equal(t, "enriching", events[1].Phase)

	none, err := s.ListEvents(ctx, "other-run")
	require.NoError(t, err)
	assert.Empty(t, none)
}
