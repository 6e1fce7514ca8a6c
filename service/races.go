package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/store"
)

// RaceService serves the race calendar and administers results.
type RaceService struct {
	store       store.Store
	predictions *PredictionService
	log         *zap.Logger
}

func NewRaceService(st store.Store, predictions *PredictionService, log *zap.Logger) *RaceService {
	return &RaceService{store: st, predictions: predictions, log: log}
}

// RaceWeekendDetail is a weekend with its results.
type RaceWeekendDetail struct {
	models.RaceWeekend
	Results models.WeekendResults `json:"results"`
}

// List returns the weekends of year in round order; 0 lists every year.
func (s *RaceService) List(ctx context.Context, year int) ([]models.RaceWeekend, error) {
	if year < 0 {
		return nil, apperr.Validation("year must be positive")
	}
	return s.store.ListRaceWeekends(ctx, year)
}

func (s *RaceService) Get(ctx context.Context, id int64) (*RaceWeekendDetail, error) {
	w, err := s.store.RaceWeekendByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.store.WeekendResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RaceWeekendDetail{RaceWeekend: *w, Results: res}, nil
}

// Create adds a weekend to the calendar.
func (s *RaceService) Create(ctx context.Context, w *models.RaceWeekend) error {
	w.ID = 0
	w.Country = strings.TrimSpace(w.Country)
	w.Location = strings.TrimSpace(w.Location)
	w.CircuitName = strings.TrimSpace(w.CircuitName)
	switch {
	case w.Year < 1950:
		return apperr.Validation("year must be 1950 or later")
	case w.RoundNumber <= 0:
		return apperr.Validation("roundNumber must be positive")
	case w.Country == "" || w.Location == "" || w.CircuitName == "":
		return apperr.Validation("country, location and circuitName are required")
	case w.SessionDate.IsZero():
		return apperr.Validation("sessionDate is required")
	}
	if err := s.store.CreateRaceWeekend(ctx, w); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return apperr.Conflict("round %d of %d already exists", w.RoundNumber, w.Year)
		}
		return err
	}
	s.log.Info("race weekend created", zap.Int64("race_weekend_id", w.ID), zap.Int("year", w.Year), zap.Int("round", w.RoundNumber))
	return nil
}

// Delete removes a weekend with its results, predictions and scores.
func (s *RaceService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRaceWeekend(ctx, id); err != nil {
		return err
	}
	s.log.Info("race weekend deleted", zap.Int64("race_weekend_id", id))
	return nil
}

// ReplaceResults swaps the weekend's results and rescores its predictions.
// It returns the number of scores written.
func (s *RaceService) ReplaceResults(ctx context.Context, id int64, res models.WeekendResults) (int, error) {
	seen := make(map[int]struct{}, len(res.Race))
	for _, r := range res.Race {
		if r.DriverNumber <= 0 {
			return 0, apperr.Validation("race result driverNumber must be positive")
		}
		if _, dup := seen[r.DriverNumber]; dup {
			return 0, apperr.Validation("driver %d appears twice in race results", r.DriverNumber)
		}
		seen[r.DriverNumber] = struct{}{}
	}
	if err := s.store.ReplaceResults(ctx, id, res); err != nil {
		return 0, err
	}
	s.log.Info("race results replaced",
		zap.Int64("race_weekend_id", id),
		zap.Int("race", len(res.Race)),
		zap.Int("qualifying", len(res.Qualifying)),
		zap.Int("sprint", len(res.Sprint)),
	)
	return s.predictions.RecomputeWeekend(ctx, id)
}

// ResultCorrection fixes the classification of one race result row.
type ResultCorrection struct {
	Position     int `json:"position" validate:"required,gt=0"`
	DriverNumber int `json:"driverNumber" validate:"required,gt=0"`
}

// CorrectResult updates one race result and rescores its weekend.
func (s *RaceService) CorrectResult(ctx context.Context, resultID int64, c ResultCorrection) (*models.RaceResult, error) {
	if err := validate.Struct(c); err != nil {
		return nil, invalid(err, "correction")
	}
	r, err := s.store.RaceResultByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	res, err := s.store.WeekendResults(ctx, r.RaceWeekendID)
	if err != nil {
		return nil, err
	}
	for _, other := range res.Race {
		if other.ID == r.ID {
			continue
		}
		if other.DriverNumber == c.DriverNumber {
			return nil, apperr.Validation("driver %d already classified in this race", c.DriverNumber)
		}
		if other.Position == c.Position {
			return nil, apperr.Validation("position %d already taken by driver %d", c.Position, other.DriverNumber)
		}
	}
	r.Position, r.DriverNumber = c.Position, c.DriverNumber
	if err := s.store.UpdateRaceResult(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("race result corrected",
		zap.Int64("race_result_id", resultID),
		zap.Int("position", c.Position),
		zap.Int("driver_number", c.DriverNumber),
	)
	if _, err := s.predictions.RecomputeWeekend(ctx, r.RaceWeekendID); err != nil {
		return nil, err
	}
	return r, nil
}
