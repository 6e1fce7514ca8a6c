package scoring

import (
	"context"
	"fmt"

	"github.com/padraicbc/gridpredict/models"
)

// StreakLength is how many recent predictions a streak spans.
const StreakLength = 3

// History is the stored state the streak bonus consults.
type History interface {
	// RecentPredictions returns a user's predictions, newest first.
	RecentPredictions(ctx context.Context, userID int64, limit int) ([]models.UserPrediction, error)
	WeekendResults(ctx context.Context, weekendID int64) (models.WeekendResults, error)
}

// Engine adds the history-dependent streak bonus on top of Compute.
type Engine struct {
	history History
}

// NewEngine returns an Engine reading streak history from h.
func NewEngine(h History) *Engine {
	return &Engine{history: h}
}

// Score computes the full score for p, streak bonus included.
func (e *Engine) Score(ctx context.Context, p *models.UserPrediction, res models.WeekendResults) (models.PredictionScore, error) {
	s, err := Compute(p, res)
	if err != nil {
		return s, err
	}
	streak, err := e.StreakBonus(ctx, p.UserID)
	if err != nil {
		return s, err
	}
	s.StreakBonus = streak
	s.TotalScore = s.Sum()
	return s, nil
}

// StreakBonus awards 5 points each for a correct pole pick and a correct
// fastest-lap pick across all of the user's last three predictions. Any
// of those weekends lacking qualifying or race results yields 0.
func (e *Engine) StreakBonus(ctx context.Context, userID int64) (int, error) {
	recent, err := e.history.RecentPredictions(ctx, userID, StreakLength)
	if err != nil {
		return 0, fmt.Errorf("recent predictions for user %d: %w", userID, err)
	}
	if len(recent) < StreakLength {
		return 0, nil
	}

	poleStreak, lapStreak := true, true
	for _, p := range recent[:StreakLength] {
		res, err := e.history.WeekendResults(ctx, p.RaceWeekendID)
		if err != nil {
			return 0, fmt.Errorf("results for weekend %d: %w", p.RaceWeekendID, err)
		}
		if len(res.Qualifying) == 0 || len(res.Race) == 0 {
			return 0, nil
		}
		if d, ok := PoleDriver(res.Qualifying); !ok || d != p.PolePosition {
			poleStreak = false
		}
		if d, ok := FastestLapDriver(res.Race); !ok || d != p.FastestLapDriver {
			lapStreak = false
		}
	}

	bonus := 0
	if poleStreak {
		bonus += streakPoints
	}
	if lapStreak {
		bonus += streakPoints
	}
	return bonus, nil
}
