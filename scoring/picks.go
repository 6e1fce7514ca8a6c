package scoring

import (
	"slices"

	"github.com/padraicbc/gridpredict/models"
)

// Tie rule for every pick below: the first row in result order wins.

// PoleDriver returns the driver qualifying in position 1.
func PoleDriver(quali []models.QualifyingResult) (int, bool) {
	for _, q := range quali {
		if q.Position == 1 && q.DriverNumber > 0 {
			return q.DriverNumber, true
		}
	}
	return 0, false
}

// SprintWinner returns the driver classified first in the sprint.
func SprintWinner(sprint []models.SprintResult) (int, bool) {
	for _, s := range sprint {
		if s.Position == 1 && s.DriverNumber > 0 {
			return s.DriverNumber, true
		}
	}
	return 0, false
}

// MostPitStopsDriver returns the driver with the highest pit-stop count.
func MostPitStopsDriver(results []models.RaceResult) (int, bool) {
	known := make([]models.RaceResult, 0, len(results))
	for _, r := range results {
		if r.DriverNumber > 0 {
			known = append(known, r)
		}
	}
	if len(known) == 0 {
		return 0, false
	}
	slices.SortStableFunc(known, func(a, b models.RaceResult) int { return b.PitStopsCount - a.PitStopsCount })
	return known[0].DriverNumber, true
}

// FastestLapDriver returns the first driver flagged with the fastest lap.
func FastestLapDriver(results []models.RaceResult) (int, bool) {
	for _, r := range results {
		if r.FastestLap && r.DriverNumber > 0 {
			return r.DriverNumber, true
		}
	}
	return 0, false
}

// MostPositionsGainedDriver returns the driver maximizing grid minus
// finishing position.
func MostPositionsGainedDriver(results []models.RaceResult) (int, bool) {
	best, found := 0, false
	var bestGain int
	for _, r := range results {
		if r.DriverNumber <= 0 || r.Position <= 0 {
			continue
		}
		gain := r.GridPosition - r.Position
		if !found || gain > bestGain {
			best, bestGain, found = r.DriverNumber, gain, true
		}
	}
	return best, found
}
