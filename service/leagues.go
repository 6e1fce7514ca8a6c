package service

import (
	"context"
	"encoding/base64"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/store"
)

// LeagueService manages leagues, their membership and standings.
type LeagueService struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewLeagueService(st store.Store, log *zap.Logger) *LeagueService {
	return &LeagueService{store: st, log: log, now: time.Now}
}

// NewLeague is the league creation payload. Icon is base64 encoded.
type NewLeague struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
	Icon string `json:"icon,omitempty" validate:"omitempty,base64"`
}

// Standing is one ranked row of a league table.
type Standing struct {
	Position int `json:"position"`
	models.MemberTotal
}

// LeagueStandings is the full table of a league.
type LeagueStandings struct {
	LeagueID    int64      `json:"leagueId"`
	LeagueName  string     `json:"leagueName"`
	Standings   []Standing `json:"standings"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Create makes a league owned by owner, who becomes its first member.
func (s *LeagueService) Create(ctx context.Context, owner *models.User, in NewLeague) (*models.League, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err, "league")
	}
	var icon []byte
	if in.Icon != "" {
		b, err := base64.StdEncoding.DecodeString(in.Icon)
		if err != nil {
			return nil, apperr.Validation("icon must be base64 encoded")
		}
		icon = b
	}

	l := &models.League{Name: in.Name, Icon: icon, OwnerID: owner.ID}
	if err := s.store.CreateLeague(ctx, l); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("league name %q already taken", in.Name)
		}
		return nil, err
	}
	s.log.Info("league created", zap.Int64("league_id", l.ID), zap.Int64("owner_id", owner.ID))
	return l, nil
}

func (s *LeagueService) Get(ctx context.Context, id int64) (*models.League, error) {
	return s.store.LeagueByID(ctx, id)
}

// ListForUser returns the leagues userID belongs to.
func (s *LeagueService) ListForUser(ctx context.Context, userID int64) ([]models.League, error) {
	return s.store.LeaguesForUser(ctx, userID)
}

// Search ranks every league name against q, best match first. An empty
// query lists all leagues.
func (s *LeagueService) Search(ctx context.Context, q string) ([]models.League, error) {
	leagues, err := s.store.ListLeagues(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return leagues, nil
	}

	names := make([]string, len(leagues))
	for i, l := range leagues {
		names[i] = l.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(q, names)
	sort.Stable(ranks)

	out := make([]models.League, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, leagues[r.OriginalIndex])
	}
	return out, nil
}

// Members lists the league's members in joining order, flagging the owner.
func (s *LeagueService) Members(ctx context.Context, leagueID int64) ([]models.Member, error) {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.Members(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].IsOwner = members[i].UserID == l.OwnerID
	}
	return members, nil
}

// AddMember adds userID to the league. Any member may invite; adding an
// existing member is a no-op.
func (s *LeagueService) AddMember(ctx context.Context, actor *models.User, leagueID, userID int64) error {
	if _, err := s.store.LeagueByID(ctx, leagueID); err != nil {
		return err
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return err
	}
	if !actor.IsSuperadmin {
		ok, err := s.store.IsMember(ctx, leagueID, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Forbidden("only league members can invite")
		}
	}
	return s.store.AddMember(ctx, leagueID, userID)
}

// RemoveMember removes userID. The owner can never be removed.
func (s *LeagueService) RemoveMember(ctx context.Context, actor *models.User, leagueID, userID int64) error {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return err
	}
	if userID == l.OwnerID {
		return apperr.Conflict("cannot remove the league owner")
	}
	if !canManage(actor, l) {
		return apperr.Forbidden("only the league owner can remove members")
	}
	if err := s.store.RemoveMember(ctx, leagueID, userID); err != nil {
		return err
	}
	s.log.Info("league member removed", zap.Int64("league_id", leagueID), zap.Int64("user_id", userID))
	return nil
}

// Leave removes actor from the league. The owner must transfer first.
func (s *LeagueService) Leave(ctx context.Context, actor *models.User, leagueID int64) error {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return err
	}
	if actor.ID == l.OwnerID {
		return apperr.Conflict("the league owner cannot leave; transfer ownership first")
	}
	return s.store.RemoveMember(ctx, leagueID, actor.ID)
}

// TransferOwnership hands the league to newOwner, who must be a member.
func (s *LeagueService) TransferOwnership(ctx context.Context, actor *models.User, leagueID, newOwner int64) error {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return err
	}
	if !canManage(actor, l) {
		return apperr.Forbidden("only the league owner can transfer ownership")
	}
	ok, err := s.store.IsMember(ctx, leagueID, newOwner)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("new owner must be a league member")
	}
	if err := s.store.SetLeagueOwner(ctx, leagueID, newOwner); err != nil {
		return err
	}
	s.log.Info("league ownership transferred",
		zap.Int64("league_id", leagueID),
		zap.Int64("from", l.OwnerID),
		zap.Int64("to", newOwner),
	)
	return nil
}

// Delete removes the league with its membership.
func (s *LeagueService) Delete(ctx context.Context, actor *models.User, leagueID int64) error {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return err
	}
	if !canManage(actor, l) {
		return apperr.Forbidden("only the league owner can delete the league")
	}
	if err := s.store.DeleteLeague(ctx, leagueID); err != nil {
		return err
	}
	s.log.Info("league deleted", zap.Int64("league_id", leagueID), zap.Int64("by", actor.ID))
	return nil
}

// Standings ranks the league's members by total score.
func (s *LeagueService) Standings(ctx context.Context, leagueID int64) (*LeagueStandings, error) {
	l, err := s.store.LeagueByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.MemberTotals(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return &LeagueStandings{
		LeagueID:    l.ID,
		LeagueName:  l.Name,
		Standings:   RankStandings(totals),
		LastUpdated: s.now(),
	}, nil
}

// RankStandings sorts totals by points, highest first, keeping input order
// between equal totals, and numbers them 1..n without shared ranks.
func RankStandings(totals []models.MemberTotal) []Standing {
	sorted := slices.Clone(totals)
	slices.SortStableFunc(sorted, func(a, b models.MemberTotal) int { return b.TotalPoints - a.TotalPoints })

	out := make([]Standing, len(sorted))
	for i, t := range sorted {
		out[i] = Standing{Position: i + 1, MemberTotal: t}
	}
	return out
}
