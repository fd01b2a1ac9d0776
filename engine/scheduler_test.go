package engine

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, times []string) *Scheduler {
	t.Helper()
	s, err := NewScheduler(slog.Default(), nil, times, time.UTC)
	require.NoError(t, err)
	return s
}

func TestNewScheduler_RejectsMalformedTime(t *testing.T) {
	_, err := NewScheduler(slog.Default(), nil, []string{"10:00", "25:99"}, time.UTC)
	assert.Error(t, err)
}

func TestScheduler_NextRunPicksFirstFutureSlot(t *testing.T) {
	s := newTestScheduler(t, []string{"10:00", "14:00", "18:00"})
	now := time.Date(2026, 8, 31, 11, 30, 0, 0, time.UTC)

	runAt, cycle := s.nextRun(now)

	assert.Equal(t, time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC), runAt)
	assert.Equal(t, 1, cycle)
}

func TestScheduler_NextRunRollsOverToTomorrow(t *testing.T) {
	s := newTestScheduler(t, []string{"10:00", "14:00", "18:00"})
	now := time.Date(2026, 8, 31, 19, 0, 0, 0, time.UTC)

	runAt, cycle := s.nextRun(now)

	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), runAt)
	assert.Equal(t, 0, cycle)
}

func TestScheduler_SortsTimesSoCycleIndexMatchesOrder(t *testing.T) {
	s := newTestScheduler(t, []string{"18:00", "10:00", "14:00"})
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	runAt, cycle := s.nextRun(now)

	assert.Equal(t, 10, runAt.Hour())
	assert.Equal(t, 0, cycle)
}

func TestScheduler_ExactSlotTimeMovesToNext(t *testing.T) {
	s := newTestScheduler(t, []string{"10:00", "14:00"})
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	_, cycle := s.nextRun(now)

	assert.Equal(t, 1, cycle, "a slot equal to now is already spent")
}
