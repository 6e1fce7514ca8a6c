package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
)

func TestRaceService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.weekend(t, 1, testNow)

	valid := func() *models.RaceWeekend {
		return &models.RaceWeekend{Year: 2024, RoundNumber: 2, Country: "Saudi Arabia", Location: "Jeddah", CircuitName: "Jeddah Corniche Circuit", SessionDate: testNow}
	}
	tests := []struct {
		name string
		fn   func(w *models.RaceWeekend)
		kind error
	}{
		{"DuplicateRound", func(w *models.RaceWeekend) { w.RoundNumber = 1 }, apperr.ErrConflict},
		{"AncientYear", func(w *models.RaceWeekend) { w.Year = 1900 }, apperr.ErrValidation},
		{"NoRound", func(w *models.RaceWeekend) { w.RoundNumber = 0 }, apperr.ErrValidation},
		{"NoCircuit", func(w *models.RaceWeekend) { w.CircuitName = " " }, apperr.ErrValidation},
		{"NoSession", func(w *models.RaceWeekend) { w.SessionDate = time.Time{} }, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid()
			tt.fn(w)
			assert.ErrorIs(t, f.races.Create(ctx, w), tt.kind)
		})
	}

	require.NoError(t, f.races.Create(ctx, valid()))
	list, err := f.races.List(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].RoundNumber)

	none, err := f.races.List(ctx, 2023)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRaceService_ResultsRescore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	w := f.weekend(t, 1, testNow.Add(time.Hour))
	p, err := f.predictions.Create(ctx, alice.ID, predictionFor(w.ID))
	require.NoError(t, err)

	_, err = f.races.ReplaceResults(ctx, w.ID, raceResults(1, 1))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	n, err := f.races.ReplaceResults(ctx, w.ID, raceResults(1, 11, 16, 55, 4, 81, 44, 63, 14, 18))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	before, err := f.store.ScoreByPrediction(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, before.PerfectTop10Bonus)

	detail, err := f.races.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, detail.Results.Race, 10)

	// swap the winner out of the top ten
	winner := detail.Results.Race[0]
	_, err = f.races.CorrectResult(ctx, winner.ID, ResultCorrection{Position: 11, DriverNumber: winner.DriverNumber})
	require.NoError(t, err)
	after, err := f.store.ScoreByPrediction(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, after.PerfectTop10Bonus)
	assert.Less(t, after.TotalScore, before.TotalScore)

	_, err = f.races.CorrectResult(ctx, winner.ID, ResultCorrection{Position: 0, DriverNumber: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.races.CorrectResult(ctx, 999, ResultCorrection{Position: 1, DriverNumber: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRaceService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	w := f.weekend(t, 1, testNow.Add(time.Hour))
	p, err := f.predictions.Create(ctx, alice.ID, predictionFor(w.ID))
	require.NoError(t, err)
	_, err = f.races.ReplaceResults(ctx, w.ID, raceResults(1, 11))
	require.NoError(t, err)

	require.NoError(t, f.races.Delete(ctx, w.ID))
	_, err = f.store.PredictionByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.store.ScoreByPrediction(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.races.Delete(ctx, w.ID), apperr.ErrNotFound)
}

func TestRaceService_ClearingResultsDropsScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	l, err := f.leagues.Create(ctx, alice, NewLeague{Name: "Parc Ferme"})
	require.NoError(t, err)
	w := f.weekend(t, 1, testNow.Add(time.Hour))
	p, err := f.predictions.Create(ctx, alice.ID, predictionFor(w.ID))
	require.NoError(t, err)

	_, err = f.races.ReplaceResults(ctx, w.ID, raceResults(1, 11, 16, 55, 4, 81, 44, 63, 14, 18))
	require.NoError(t, err)
	st, err := f.leagues.Standings(ctx, l.ID)
	require.NoError(t, err)
	require.Positive(t, st.Standings[0].TotalPoints)

	n, err := f.races.ReplaceResults(ctx, w.ID, models.WeekendResults{})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.store.ScoreByPrediction(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	st, err = f.leagues.Standings(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, st.Standings, 1)
	assert.Zero(t, st.Standings[0].TotalPoints)
	assert.Zero(t, st.Standings[0].PredictionsMade)
}

func TestRaceService_CorrectResultRejectsTakenSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.weekend(t, 1, testNow.Add(time.Hour))
	_, err := f.races.ReplaceResults(ctx, w.ID, raceResults(1, 11, 16))
	require.NoError(t, err)
	detail, err := f.races.Get(ctx, w.ID)
	require.NoError(t, err)
	second := detail.Results.Race[1]

	tests := []struct {
		name string
		in   ResultCorrection
	}{
		{"DriverTaken", ResultCorrection{Position: 2, DriverNumber: 1}},
		{"PositionTaken", ResultCorrection{Position: 1, DriverNumber: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.races.CorrectResult(ctx, second.ID, tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	res, err := f.store.WeekendResults(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 11, 16}, []int{res.Race[0].DriverNumber, res.Race[1].DriverNumber, res.Race[2].DriverNumber})

	// a row may keep its own driver and position
	_, err = f.races.CorrectResult(ctx, second.ID, ResultCorrection{Position: 2, DriverNumber: 11})
	assert.NoError(t, err)
}
