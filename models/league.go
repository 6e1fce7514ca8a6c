package models

import (
	"time"

	"github.com/uptrace/bun"
)

// League is a named group of users competing on prediction scores.
type League struct {
	bun.BaseModel `bun:"table:leagues,alias:l"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	Icon      []byte    `bun:"icon,type:bytea" json:"icon,omitempty"`
	OwnerID   int64     `bun:"owner_id,notnull" json:"ownerId"`
	CreatedAt time.Time `bun:"created_at,notnull,nullzero,default:current_timestamp" json:"createdAt"`
}

// LeagueMember is one row of the league membership set.
type LeagueMember struct {
	bun.BaseModel `bun:"table:league_members,alias:lm"`

	LeagueID int64     `bun:"league_id,pk" json:"leagueId"`
	UserID   int64     `bun:"user_id,pk" json:"userId"`
	JoinedAt time.Time `bun:"joined_at,notnull,nullzero,default:current_timestamp" json:"joinedAt"`
}

// Member is a league member joined with their account name.
type Member struct {
	UserID   int64     `bun:"user_id" json:"userId"`
	Username string    `bun:"username" json:"username"`
	JoinedAt time.Time `bun:"joined_at" json:"joinedAt"`
	IsOwner  bool      `bun:"-" json:"isOwner"`
}

// MemberTotal is the per-member score aggregate behind league standings.
type MemberTotal struct {
	UserID             int64  `bun:"user_id" json:"userId"`
	Username           string `bun:"username" json:"username"`
	TotalPoints        int    `bun:"total_points" json:"totalPoints"`
	PredictionsMade    int    `bun:"predictions_made" json:"predictionsMade"`
	PerfectPredictions int    `bun:"perfect_predictions" json:"perfectPredictions"`
}
