package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RaceWeekend is one Grand Prix event. SessionDate is the prediction cutoff.
type RaceWeekend struct {
	bun.BaseModel `bun:"table:race_weekends,alias:rw"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Year        int       `bun:"year,notnull,unique:race_weekends_year_round" json:"year"`
	RoundNumber int       `bun:"round_number,notnull,unique:race_weekends_year_round" json:"roundNumber"`
	Country     string    `bun:"country,notnull" json:"country"`
	Location    string    `bun:"location,notnull" json:"location"`
	CircuitName string    `bun:"circuit_name,notnull" json:"circuitName"`
	SessionDate time.Time `bun:"session_date,notnull" json:"sessionDate"`
	HasSprint   bool      `bun:"has_sprint,notnull,default:false" json:"hasSprint"`
}

// RaceResult is one driver's race classification. A Position or
// DriverNumber <= 0 is treated as unknown.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:rr"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	RaceWeekendID  int64           `bun:"race_weekend_id,notnull,unique:race_results_no_dupes" json:"raceWeekendId"`
	Position       int             `bun:"position,notnull" json:"position"`
	DriverNumber   int             `bun:"driver_number,notnull,unique:race_results_no_dupes" json:"driverNumber"`
	DriverName     string          `bun:"driver_name,notnull" json:"driverName"`
	Team           string          `bun:"team,notnull" json:"team"`
	GridPosition   int             `bun:"grid_position,notnull" json:"gridPosition"`
	Status         string          `bun:"status,notnull" json:"status"`
	Points         decimal.Decimal `bun:"points,type:numeric,notnull" json:"points"`
	FastestLap     bool            `bun:"fastest_lap,notnull,default:false" json:"fastestLap"`
	FastestLapTime *string         `bun:"fastest_lap_time" json:"fastestLapTime,omitempty"`
	PitStopsCount  int             `bun:"pit_stops_count,notnull,default:0" json:"pitStopsCount"`
}

// QualifyingResult is one driver's qualifying classification.
type QualifyingResult struct {
	bun.BaseModel `bun:"table:qualifying_results,alias:qr"`

	ID            int64   `bun:"id,pk,autoincrement" json:"id"`
	RaceWeekendID int64   `bun:"race_weekend_id,notnull,unique:qualifying_results_no_dupes" json:"raceWeekendId"`
	Position      int     `bun:"position,notnull" json:"position"`
	DriverNumber  int     `bun:"driver_number,notnull,unique:qualifying_results_no_dupes" json:"driverNumber"`
	DriverName    string  `bun:"driver_name,notnull" json:"driverName"`
	Team          string  `bun:"team,notnull" json:"team"`
	Q1Time        *string `bun:"q1_time" json:"q1Time,omitempty"`
	Q2Time        *string `bun:"q2_time" json:"q2Time,omitempty"`
	Q3Time        *string `bun:"q3_time" json:"q3Time,omitempty"`
}

// SprintResult is one driver's sprint classification.
type SprintResult struct {
	bun.BaseModel `bun:"table:sprint_results,alias:sr"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	RaceWeekendID int64           `bun:"race_weekend_id,notnull,unique:sprint_results_no_dupes" json:"raceWeekendId"`
	Position      int             `bun:"position,notnull" json:"position"`
	DriverNumber  int             `bun:"driver_number,notnull,unique:sprint_results_no_dupes" json:"driverNumber"`
	DriverName    string          `bun:"driver_name,notnull" json:"driverName"`
	Team          string          `bun:"team,notnull" json:"team"`
	GridPosition  int             `bun:"grid_position,notnull" json:"gridPosition"`
	Status        string          `bun:"status,notnull" json:"status"`
	Points        decimal.Decimal `bun:"points,type:numeric,notnull" json:"points"`
}

// WeekendResults is the materialized result set of one race weekend.
type WeekendResults struct {
	HasSprint  bool               `json:"hasSprint"`
	Race       []RaceResult       `json:"raceResults"`
	Qualifying []QualifyingResult `json:"qualifyingResults"`
	Sprint     []SprintResult     `json:"sprintResults"`
}
