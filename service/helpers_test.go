package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/events"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/store"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ScoresUpdated
}

func (r *recordingPublisher) PublishScoresUpdated(_ context.Context, ev events.ScoresUpdated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type fixture struct {
	store       *store.Memory
	pub         *recordingPublisher
	users       *UserService
	leagues     *LeagueService
	predictions *PredictionService
	races       *RaceService
	admin       *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	pub := &recordingPublisher{}
	log := zap.NewNop()

	f := &fixture{
		store:       st,
		pub:         pub,
		users:       NewUserService(st, log),
		leagues:     NewLeagueService(st, log),
		predictions: NewPredictionService(st, pub, nil, log),
		admin:       NewAdminService(st, log),
	}
	f.predictions.now = func() time.Time { return testNow }
	f.leagues.now = func() time.Time { return testNow }
	f.admin.now = func() time.Time { return testNow }
	f.races = NewRaceService(st, f.predictions, log)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, Password: "x", IsActive: true}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) weekend(t *testing.T, round int, session time.Time) *models.RaceWeekend {
	t.Helper()
	w := &models.RaceWeekend{
		Year:        2024,
		RoundNumber: round,
		Country:     "Bahrain",
		Location:    "Sakhir",
		CircuitName: "Bahrain International Circuit",
		SessionDate: session,
	}
	require.NoError(t, f.races.Create(context.Background(), w))
	return w
}

func predictionFor(weekendID int64) NewPrediction {
	return NewPrediction{
		RaceWeekendID:       weekendID,
		Top10Prediction:     "1,11,16,55,4,81,44,63,14,18",
		PolePosition:        1,
		MostPitStopsDriver:  11,
		FastestLapDriver:    16,
		MostPositionsGained: 81,
	}
}

// raceResults classifies drivers in order with no grid changes.
func raceResults(drivers ...int) models.WeekendResults {
	res := models.WeekendResults{}
	for i, d := range drivers {
		res.Race = append(res.Race, models.RaceResult{
			Position:     i + 1,
			DriverNumber: d,
			GridPosition: i + 1,
			Status:       "Finished",
		})
	}
	return res
}
