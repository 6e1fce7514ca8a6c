// Package scoring computes PredictionScore rows from a prediction and the
// materialized results of its race weekend.
//
// Compute is a pure function of its inputs. The streak bonus is the only
// component that depends on stored history and is added by Engine.Score.
package scoring

import (
	"fmt"
	"slices"

	"github.com/padraicbc/gridpredict/models"
)

// Points per component.
const (
	top5Exact        = 2
	top5Partial      = 1
	midfieldExact    = 3
	midfieldPartial  = 2
	partialPosition  = 1
	perfectTop10     = 20
	polePoints       = 5
	sprintPoints     = 5
	pitStopPoints    = 10
	fastestLapPoints = 10
	gainedPoints     = 10
	underdogPoints   = 10
	streakPoints     = 5
)

// eliteDrivers never earn the underdog bonus.
var eliteDrivers = map[int]struct{}{1: {}, 11: {}, 44: {}, 63: {}, 55: {}}

// IsElite reports whether driver is in the fixed elite set.
func IsElite(driver int) bool {
	_, ok := eliteDrivers[driver]
	return ok
}

// Compute scores every component except the streak bonus. The only error
// is a malformed top-10 string; missing result data scores zero.
func Compute(p *models.UserPrediction, res models.WeekendResults) (models.PredictionScore, error) {
	predicted, err := p.Top10()
	if err != nil {
		return models.PredictionScore{}, fmt.Errorf("prediction %d: %w", p.ID, err)
	}
	actual := ActualTop10(res.Race)

	s := models.PredictionScore{
		PredictionID:         p.ID,
		Top5Score:            top5Score(predicted, actual),
		Position6To10Score:   midfieldScore(predicted, actual),
		PartialPositionScore: partialPositionScore(predicted, actual),
		PerfectTop10Bonus:    perfectBonus(predicted, actual),
		UnderdogBonus:        underdogBonus(predicted, actual),
	}

	if d, ok := PoleDriver(res.Qualifying); ok && d == p.PolePosition {
		s.PolePositionScore = polePoints
	}
	if res.HasSprint && p.SprintWinner != nil {
		if d, ok := SprintWinner(res.Sprint); ok && d == *p.SprintWinner {
			s.SprintWinnerScore = sprintPoints
		}
	}
	if d, ok := MostPitStopsDriver(res.Race); ok && d == p.MostPitStopsDriver {
		s.MostPitStopsScore = pitStopPoints
	}
	if d, ok := FastestLapDriver(res.Race); ok && d == p.FastestLapDriver {
		s.FastestLapScore = fastestLapPoints
	}
	if d, ok := MostPositionsGainedDriver(res.Race); ok && d == p.MostPositionsGained {
		s.MostPositionsGainedScore = gainedPoints
	}

	s.TotalScore = s.Sum()
	return s, nil
}

// ActualTop10 returns the driver numbers of the first ten classified
// finishers. Rows with unknown driver or position are dropped.
func ActualTop10(results []models.RaceResult) []int {
	known := make([]models.RaceResult, 0, len(results))
	for _, r := range results {
		if r.DriverNumber > 0 && r.Position > 0 {
			known = append(known, r)
		}
	}
	slices.SortStableFunc(known, func(a, b models.RaceResult) int { return a.Position - b.Position })

	n := min(len(known), models.Top10Size)
	out := make([]int, n)
	for i := range n {
		out[i] = known[i].DriverNumber
	}
	return out
}

func window(s []int, lo, hi int) []int {
	if lo >= len(s) {
		return nil
	}
	return s[lo:min(hi, len(s))]
}

func exactAt(predicted, actual []int, i int) bool {
	return i < len(predicted) && i < len(actual) && predicted[i] == actual[i]
}

// tierScore scores prediction slots lo..hi-1 against actual[lo:hi]:
// exact slot earns exact, right tier wrong slot earns partial.
func tierScore(predicted, actual []int, lo, hi, exact, partial int) int {
	tier := window(actual, lo, hi)
	score := 0
	for i := lo; i < hi && i < len(predicted); i++ {
		switch {
		case exactAt(predicted, actual, i):
			score += exact
		case slices.Contains(tier, predicted[i]):
			score += partial
		}
	}
	return score
}

func top5Score(predicted, actual []int) int {
	return tierScore(predicted, actual, 0, 5, top5Exact, top5Partial)
}

func midfieldScore(predicted, actual []int) int {
	return tierScore(predicted, actual, 5, 10, midfieldExact, midfieldPartial)
}

func partialPositionScore(predicted, actual []int) int {
	score := 0
	for i := range models.Top10Size {
		if exactAt(predicted, actual, i) {
			score += partialPosition
		}
	}
	return score
}

func perfectBonus(predicted, actual []int) int {
	if len(predicted) < models.Top10Size || len(actual) < models.Top10Size {
		return 0
	}
	if slices.Equal(predicted[:models.Top10Size], actual[:models.Top10Size]) {
		return perfectTop10
	}
	return 0
}

func underdogBonus(predicted, actual []int) int {
	bonus := 0
	for i := range 3 {
		if exactAt(predicted, actual, i) && !IsElite(predicted[i]) {
			bonus += underdogPoints
		}
	}
	return bonus
}
