package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/events"
	"github.com/padraicbc/gridpredict/metrics"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/scoring"
	"github.com/padraicbc/gridpredict/store"
)

// PredictionService accepts predictions and keeps their scores current.
type PredictionService struct {
	store   store.Store
	engine  *scoring.Engine
	events  events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewPredictionService wires the scoring engine to st. pub and m may be
// nil.
func NewPredictionService(st store.Store, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *PredictionService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &PredictionService{
		store:   st,
		engine:  scoring.NewEngine(st),
		events:  pub,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// NewPrediction is the prediction payload.
type NewPrediction struct {
	RaceWeekendID       int64  `json:"raceWeekendId" validate:"required,gt=0"`
	Top10Prediction     string `json:"top10Prediction" validate:"required,top10"`
	PolePosition        int    `json:"polePosition" validate:"required,gt=0"`
	SprintWinner        *int   `json:"sprintWinner,omitempty" validate:"omitempty,gt=0"`
	MostPitStopsDriver  int    `json:"mostPitStopsDriver" validate:"required,gt=0"`
	FastestLapDriver    int    `json:"fastestLapDriver" validate:"required,gt=0"`
	MostPositionsGained int    `json:"mostPositionsGained" validate:"required,gt=0"`
}

// Create stores userID's prediction for a weekend that has not started.
func (s *PredictionService) Create(ctx context.Context, userID int64, in NewPrediction) (*models.UserPrediction, error) {
	top10, err := models.ParseTop10(in.Top10Prediction)
	if err != nil {
		return nil, apperr.Validation("top10Prediction: %v", err)
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err, "prediction")
	}

	w, err := s.store.RaceWeekendByID(ctx, in.RaceWeekendID)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(w.SessionDate) {
		return nil, apperr.Validation("predictions closed")
	}

	p := &models.UserPrediction{
		UserID:              userID,
		RaceWeekendID:       w.ID,
		CreatedAt:           s.now(),
		Top10Prediction:     models.FormatTop10(top10),
		PolePosition:        in.PolePosition,
		SprintWinner:        in.SprintWinner,
		MostPitStopsDriver:  in.MostPitStopsDriver,
		FastestLapDriver:    in.FastestLapDriver,
		MostPositionsGained: in.MostPositionsGained,
	}
	if err := s.store.CreatePrediction(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("prediction already submitted for this race weekend")
		}
		return nil, err
	}
	s.log.Info("prediction created",
		zap.Int64("prediction_id", p.ID),
		zap.Int64("user_id", userID),
		zap.Int64("race_weekend_id", w.ID),
	)
	return p, nil
}

// Get returns a prediction visible to actor: their own, or any for admins.
func (s *PredictionService) Get(ctx context.Context, actor *models.User, id int64) (*models.UserPrediction, error) {
	p, err := s.store.PredictionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.ID && !actor.IsAdmin {
		return nil, apperr.Forbidden("not your prediction")
	}
	return p, nil
}

// ListMine returns userID's predictions, newest first.
func (s *PredictionService) ListMine(ctx context.Context, userID int64) ([]models.UserPrediction, error) {
	return s.store.RecentPredictions(ctx, userID, 0)
}

// Score returns the stored score of a prediction visible to actor.
func (s *PredictionService) Score(ctx context.Context, actor *models.User, id int64) (*models.PredictionScore, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	ps, err := s.store.ScoreByPrediction(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("prediction %d has not been scored yet", id)
	}
	return ps, err
}

// ScorePrediction computes and replaces the score of one prediction.
func (s *PredictionService) ScorePrediction(ctx context.Context, id int64) (*models.PredictionScore, error) {
	p, err := s.store.PredictionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.store.WeekendResults(ctx, p.RaceWeekendID)
	if err != nil {
		return nil, err
	}
	if len(res.Race) == 0 {
		return nil, apperr.Conflict("results pending for race weekend %d", p.RaceWeekendID)
	}
	ps, err := s.score(ctx, p, res)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p.RaceWeekendID, []int64{p.ID})
	return ps, nil
}

// RecomputeWeekend replaces the score of every prediction for the weekend
// and returns how many were written. Without race results the weekend's
// scores are removed and nothing is written.
func (s *PredictionService) RecomputeWeekend(ctx context.Context, weekendID int64) (int, error) {
	res, err := s.store.WeekendResults(ctx, weekendID)
	if err != nil {
		return 0, err
	}
	if len(res.Race) == 0 {
		n, err := s.store.DeleteScoresForWeekend(ctx, weekendID)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			s.log.Info("race weekend scores cleared", zap.Int64("race_weekend_id", weekendID), zap.Int("scores", n))
		}
		return 0, nil
	}
	preds, err := s.store.PredictionsForWeekend(ctx, weekendID)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(preds))
	for i := range preds {
		if _, err := s.score(ctx, &preds[i], res); err != nil {
			return len(ids), err
		}
		ids = append(ids, preds[i].ID)
	}
	s.log.Info("race weekend rescored", zap.Int64("race_weekend_id", weekendID), zap.Int("predictions", len(ids)))
	if len(ids) > 0 {
		s.publish(ctx, weekendID, ids)
	}
	return len(ids), nil
}

// ScorePending scores every prediction that has no score yet but whose
// weekend now has race results. A prediction that fails to score is
// logged and skipped.
func (s *PredictionService) ScorePending(ctx context.Context) (int, error) {
	preds, err := s.store.UnscoredPredictions(ctx)
	if err != nil {
		return 0, err
	}

	results := map[int64]models.WeekendResults{}
	scored := map[int64][]int64{}
	var order []int64
	for i := range preds {
		p := &preds[i]
		res, ok := results[p.RaceWeekendID]
		if !ok {
			if res, err = s.store.WeekendResults(ctx, p.RaceWeekendID); err != nil {
				return countAll(scored), err
			}
			results[p.RaceWeekendID] = res
			order = append(order, p.RaceWeekendID)
		}
		if _, err := s.score(ctx, p, res); err != nil {
			if ctx.Err() != nil {
				return countAll(scored), ctx.Err()
			}
			s.log.Warn("score prediction failed", zap.Int64("prediction_id", p.ID), zap.Error(err))
			continue
		}
		scored[p.RaceWeekendID] = append(scored[p.RaceWeekendID], p.ID)
	}

	for _, weekendID := range order {
		if ids := scored[weekendID]; len(ids) > 0 {
			s.publish(ctx, weekendID, ids)
		}
	}
	return countAll(scored), nil
}

func countAll(m map[int64][]int64) int {
	n := 0
	for _, ids := range m {
		n += len(ids)
	}
	return n
}

func (s *PredictionService) score(ctx context.Context, p *models.UserPrediction, res models.WeekendResults) (*models.PredictionScore, error) {
	ps, err := s.engine.Score(ctx, p, res)
	if err != nil {
		return nil, err
	}
	ps.CalculatedAt = s.now()
	if err := s.store.ReplaceScore(ctx, &ps); err != nil {
		return nil, err
	}
	s.metrics.ScoreRecorded(ps.TotalScore)
	s.log.Debug("prediction scored", zap.Int64("prediction_id", p.ID), zap.Int("total", ps.TotalScore))
	return &ps, nil
}

// publish is best effort; stored scores are the source of truth.
func (s *PredictionService) publish(ctx context.Context, weekendID int64, ids []int64) {
	ev := events.ScoresUpdated{RaceWeekendID: weekendID, PredictionIDs: ids, At: s.now().UTC()}
	if err := s.events.PublishScoresUpdated(ctx, ev); err != nil {
		s.log.Warn("publish scores updated failed", zap.Int64("race_weekend_id", weekendID), zap.Error(err))
	}
}
