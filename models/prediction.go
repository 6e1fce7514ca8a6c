package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Top10Size is the number of drivers in a top-10 prediction.
const Top10Size = 10

// UserPrediction is a user's pick set for one race weekend. It is never
// updated after creation.
type UserPrediction struct {
	bun.BaseModel `bun:"table:user_predictions,alias:up"`

	ID                  int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID              int64     `bun:"user_id,notnull,unique:user_predictions_no_dupes" json:"userId"`
	RaceWeekendID       int64     `bun:"race_weekend_id,notnull,unique:user_predictions_no_dupes" json:"raceWeekendId"`
	CreatedAt           time.Time `bun:"created_at,notnull,nullzero,default:current_timestamp" json:"createdAt"`
	Top10Prediction     string    `bun:"top_10_prediction,notnull" json:"top10Prediction"`
	PolePosition        int       `bun:"pole_position,notnull" json:"polePosition"`
	SprintWinner        *int      `bun:"sprint_winner" json:"sprintWinner,omitempty"`
	MostPitStopsDriver  int       `bun:"most_pit_stops_driver,notnull" json:"mostPitStopsDriver"`
	FastestLapDriver    int       `bun:"fastest_lap_driver,notnull" json:"fastestLapDriver"`
	MostPositionsGained int       `bun:"most_positions_gained,notnull" json:"mostPositionsGained"`
}

// Top10 parses the stored top-10 pick.
func (p *UserPrediction) Top10() ([]int, error) {
	return ParseTop10(p.Top10Prediction)
}

// ParseTop10 parses a string of exactly ten comma-separated, distinct,
// positive driver numbers.
func ParseTop10(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != Top10Size {
		return nil, fmt.Errorf("must provide exactly %d driver numbers, got %d", Top10Size, len(parts))
	}

	out := make([]int, 0, Top10Size)
	seen := make(map[int]struct{}, Top10Size)
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("driver number %q is not an integer", p)
		}
		if n <= 0 {
			return nil, fmt.Errorf("driver number %d must be positive", n)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("driver number %d appears more than once", n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// FormatTop10 is the inverse of ParseTop10.
func FormatTop10(drivers []int) string {
	parts := make([]string, len(drivers))
	for i, d := range drivers {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// PredictionScore is the scored breakdown of one prediction. Rows are
// replaced, not updated, when results change.
type PredictionScore struct {
	bun.BaseModel `bun:"table:prediction_scores,alias:ps"`

	ID                       int64     `bun:"id,pk,autoincrement" json:"id"`
	PredictionID             int64     `bun:"prediction_id,notnull,unique" json:"predictionId"`
	CalculatedAt             time.Time `bun:"calculated_at,notnull,nullzero,default:current_timestamp" json:"calculatedAt"`
	Top5Score                int       `bun:"top_5_score,notnull,default:0" json:"top5Score"`
	Position6To10Score       int       `bun:"position_6_to_10_score,notnull,default:0" json:"position6To10Score"`
	PerfectTop10Bonus        int       `bun:"perfect_top_10_bonus,notnull,default:0" json:"perfectTop10Bonus"`
	PartialPositionScore     int       `bun:"partial_position_score,notnull,default:0" json:"partialPositionScore"`
	PolePositionScore        int       `bun:"pole_position_score,notnull,default:0" json:"polePositionScore"`
	SprintWinnerScore        int       `bun:"sprint_winner_score,notnull,default:0" json:"sprintWinnerScore"`
	MostPitStopsScore        int       `bun:"most_pit_stops_score,notnull,default:0" json:"mostPitStopsScore"`
	FastestLapScore          int       `bun:"fastest_lap_score,notnull,default:0" json:"fastestLapScore"`
	MostPositionsGainedScore int       `bun:"most_positions_gained_score,notnull,default:0" json:"mostPositionsGainedScore"`
	StreakBonus              int       `bun:"streak_bonus,notnull,default:0" json:"streakBonus"`
	UnderdogBonus            int       `bun:"underdog_bonus,notnull,default:0" json:"underdogBonus"`
	TotalScore               int       `bun:"total_score,notnull,default:0" json:"totalScore"`
}

// Sum adds up every component.
func (s *PredictionScore) Sum() int {
	return s.Top5Score + s.Position6To10Score + s.PerfectTop10Bonus + s.PartialPositionScore +
		s.PolePositionScore + s.SprintWinnerScore + s.MostPitStopsScore + s.FastestLapScore +
		s.MostPositionsGainedScore + s.StreakBonus + s.UnderdogBonus
}
