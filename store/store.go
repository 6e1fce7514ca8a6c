// Package store persists users, leagues, race weekends, predictions and
// scores. Store has a PostgreSQL implementation on bun and an in-process
// implementation for tests and single-node runs.
package store

import (
	"context"
	"time"

	"github.com/padraicbc/gridpredict/models"
)

// Store is the persistence surface used by the services. Lookups of a
// missing row return an apperr NotFound error and unique violations an
// apperr Conflict error.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	// SaveUser inserts u or, when the username exists, updates its
	// password and roles.
	SaveUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, error)
	UpdateUserRoles(ctx context.Context, id int64, isAdmin, isSuperadmin bool) error
	// DeleteUser removes the user with their predictions, scores and
	// memberships. Each league they own passes to its longest-standing
	// other member, or is deleted when there is none.
	DeleteUser(ctx context.Context, id int64) error

	// CreateLeague inserts l and its owner membership atomically.
	CreateLeague(ctx context.Context, l *models.League) error
	LeagueByID(ctx context.Context, id int64) (*models.League, error)
	ListLeagues(ctx context.Context, offset, limit int) ([]models.League, error)
	LeaguesForUser(ctx context.Context, userID int64) ([]models.League, error)
	DeleteLeague(ctx context.Context, id int64) error
	SetLeagueOwner(ctx context.Context, leagueID, userID int64) error
	// Members returns the league's members in joining order.
	Members(ctx context.Context, leagueID int64) ([]models.Member, error)
	IsMember(ctx context.Context, leagueID, userID int64) (bool, error)
	// AddMember is a no-op for an existing member.
	AddMember(ctx context.Context, leagueID, userID int64) error
	RemoveMember(ctx context.Context, leagueID, userID int64) error
	// MemberTotals aggregates scored predictions per member, in joining
	// order.
	MemberTotals(ctx context.Context, leagueID int64) ([]models.MemberTotal, error)

	CreateRaceWeekend(ctx context.Context, w *models.RaceWeekend) error
	RaceWeekendByID(ctx context.Context, id int64) (*models.RaceWeekend, error)
	// ListRaceWeekends returns weekends by round; year 0 lists all years.
	ListRaceWeekends(ctx context.Context, year int) ([]models.RaceWeekend, error)
	DeleteRaceWeekend(ctx context.Context, id int64) error
	// WeekendResults returns result rows ordered by position then id.
	WeekendResults(ctx context.Context, weekendID int64) (models.WeekendResults, error)
	// ReplaceResults swaps every result row of the weekend atomically.
	ReplaceResults(ctx context.Context, weekendID int64, res models.WeekendResults) error
	RaceResultByID(ctx context.Context, id int64) (*models.RaceResult, error)
	UpdateRaceResult(ctx context.Context, r *models.RaceResult) error

	CreatePrediction(ctx context.Context, p *models.UserPrediction) error
	PredictionByID(ctx context.Context, id int64) (*models.UserPrediction, error)
	// RecentPredictions returns up to limit predictions, newest first.
	// A limit <= 0 returns all of them.
	RecentPredictions(ctx context.Context, userID int64, limit int) ([]models.UserPrediction, error)
	PredictionsForWeekend(ctx context.Context, weekendID int64) ([]models.UserPrediction, error)
	// UnscoredPredictions returns predictions without a score whose
	// weekend has race results.
	UnscoredPredictions(ctx context.Context) ([]models.UserPrediction, error)
	ScoreByPrediction(ctx context.Context, predictionID int64) (*models.PredictionScore, error)
	// ReplaceScore deletes any score of s.PredictionID and inserts s.
	ReplaceScore(ctx context.Context, s *models.PredictionScore) error
	// DeleteScoresForWeekend removes the scores of every prediction for
	// the weekend and returns how many were removed.
	DeleteScoresForWeekend(ctx context.Context, weekendID int64) (int, error)

	Stats(ctx context.Context, since time.Time) (Stats, error)
}

// Stats are system-wide counts for the admin dashboard.
type Stats struct {
	Users          int `json:"userCount"`
	Leagues        int `json:"leagueCount"`
	Predictions    int `json:"predictionCount"`
	RaceWeekends   int `json:"raceWeekendCount"`
	NewUsers       int `json:"newUsersLastWeek"`
	NewPredictions int `json:"newPredictionsLastWeek"`
}
