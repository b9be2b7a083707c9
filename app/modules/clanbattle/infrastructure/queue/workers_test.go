package clanbattlequeue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmitter struct {
	channels []string
	err      error
}

func (f *fakeEmitter) EmitDailyStatus(ctx context.Context, channelID string) error {
	f.channels = append(f.channels, channelID)
	return f.err
}

func TestDailyStatusWorker_Work(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	job := &river.Job[DailyStatusJob]{
		JobRow: &rivertype.JobRow{ID: 42},
		Args:   DailyStatusJob{ChannelID: "daily-1"},
	}

	t.Run("emits for the job channel", func(t *testing.T) {
		e := &fakeEmitter{}
		require.NoError(t, NewDailyStatusWorker(logger, e).Work(context.Background(), job))
		assert.Equal(t, []string{"daily-1"}, e.channels)
	})

	t.Run("failure is returned for retry", func(t *testing.T) {
		e := &fakeEmitter{err: clanbattledomain.ErrTransport}
		err := NewDailyStatusWorker(logger, e).Work(context.Background(), job)
		assert.True(t, errors.Is(err, clanbattledomain.ErrTransport))
	})
}

func TestBoundarySchedule_Next(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	s := boundarySchedule{clock: clanbattledomain.NewClock(9, 5, nil)}

	tests := []struct {
		name    string
		current time.Time
		want    time.Time
	}{
		{
			name:    "before the boundary fires the same morning",
			current: time.Date(2024, 11, 10, 4, 59, 0, 0, jst),
			want:    time.Date(2024, 11, 10, 5, 0, 0, 0, jst),
		},
		{
			name:    "exactly at the boundary waits a day",
			current: time.Date(2024, 11, 10, 5, 0, 0, 0, jst),
			want:    time.Date(2024, 11, 11, 5, 0, 0, 0, jst),
		},
		{
			name:    "afternoon fires next morning",
			current: time.Date(2024, 11, 30, 15, 0, 0, 0, jst),
			want:    time.Date(2024, 12, 1, 5, 0, 0, 0, jst),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(s.Next(tt.current)), "got %s", s.Next(tt.current))
		})
	}
}

func TestPeriodicJobs(t *testing.T) {
	jobs := periodicJobs(Options{Clock: clanbattledomain.DefaultClock(), DailyChannels: []string{"a", "b"}})
	assert.Len(t, jobs, 2)
	assert.Empty(t, periodicJobs(Options{Clock: clanbattledomain.DefaultClock()}))
}

func TestDailyStatusJob_Kind(t *testing.T) {
	assert.Equal(t, "clanbattle_daily_status", DailyStatusJob{}.Kind())
}
