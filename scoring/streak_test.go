package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/gridpredict/models"
)

type fakeHistory struct {
	predictions []models.UserPrediction
	results     map[int64]models.WeekendResults
	err         error
}

func (f *fakeHistory) RecentPredictions(_ context.Context, _ int64, limit int) ([]models.UserPrediction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.predictions[:min(limit, len(f.predictions))], nil
}

func (f *fakeHistory) WeekendResults(_ context.Context, id int64) (models.WeekendResults, error) {
	return f.results[id], nil
}

// streakHistory returns n predictions on distinct weekends, each won from
// pole by driver 4 with driver 81 setting the fastest lap.
func streakHistory(n int) *fakeHistory {
	h := &fakeHistory{results: map[int64]models.WeekendResults{}}
	for i := range n {
		weekend := int64(i + 1)
		race := raceOf(4, 81, 16)
		race[1].FastestLap = true
		h.results[weekend] = models.WeekendResults{
			Race:       race,
			Qualifying: []models.QualifyingResult{{Position: 1, DriverNumber: 4}},
		}
		h.predictions = append(h.predictions, models.UserPrediction{
			ID:               int64(i + 1),
			UserID:           7,
			RaceWeekendID:    weekend,
			Top10Prediction:  models.FormatTop10(grid[:10]),
			PolePosition:     4,
			FastestLapDriver: 81,
		})
	}
	return h
}

func TestStreakBonus(t *testing.T) {
	ctx := context.Background()

	t.Run("FewerThanThree", func(t *testing.T) {
		for n := range 3 {
			bonus, err := NewEngine(streakHistory(n)).StreakBonus(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, 0, bonus)
		}
	})

	t.Run("BothStreaks", func(t *testing.T) {
		bonus, err := NewEngine(streakHistory(3)).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 10, bonus)
	})

	t.Run("PoleOnly", func(t *testing.T) {
		h := streakHistory(3)
		h.predictions[2].FastestLapDriver = 16
		bonus, err := NewEngine(h).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 5, bonus)
	})

	t.Run("FastestLapOnly", func(t *testing.T) {
		h := streakHistory(3)
		h.predictions[0].PolePosition = 16
		bonus, err := NewEngine(h).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 5, bonus)
	})

	t.Run("MissingResultsGivesNothing", func(t *testing.T) {
		h := streakHistory(3)
		delete(h.results, 2)
		bonus, err := NewEngine(h).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 0, bonus)
	})

	t.Run("MissingQualifyingGivesNothing", func(t *testing.T) {
		h := streakHistory(3)
		r := h.results[3]
		r.Qualifying = nil
		h.results[3] = r
		bonus, err := NewEngine(h).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 0, bonus)
	})

	t.Run("OnlyLastThreeCount", func(t *testing.T) {
		h := streakHistory(4)
		h.predictions[3].PolePosition = 16
		h.predictions[3].FastestLapDriver = 16
		bonus, err := NewEngine(h).StreakBonus(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 10, bonus)
	})

	t.Run("HistoryError", func(t *testing.T) {
		_, err := NewEngine(&fakeHistory{err: errors.New("db down")}).StreakBonus(ctx, 7)
		assert.Error(t, err)
	})
}

func TestEngineScore_AddsStreak(t *testing.T) {
	h := streakHistory(3)
	p := h.predictions[0]
	s, err := NewEngine(h).Score(context.Background(), &p, h.results[1])
	require.NoError(t, err)
	assert.Equal(t, 10, s.StreakBonus)
	assert.Equal(t, 5, s.PolePositionScore)
	assert.Equal(t, 10, s.FastestLapScore)
	assert.Equal(t, s.Sum(), s.TotalScore)
}
