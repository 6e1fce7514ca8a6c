package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
)

// Bun is the PostgreSQL Store.
type Bun struct {
	db *bun.DB
}

var _ Store = (*Bun)(nil)

// NewBun returns a Store backed by db.
func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db}
}

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index clash.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("%s not found", what)
	case isUniqueViolation(err):
		return apperr.Conflict("%s already exists", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// affected turns a zero-row write into NotFound.
func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return apperr.NotFound("%s not found", what)
	}
	return nil
}

func (s *Bun) inTx(ctx context.Context, fn func(tx bun.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Bun) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Bun) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.NewInsert().Model(u).Exec(ctx)
	return translate(err, "user")
}

func (s *Bun) SaveUser(ctx context.Context, u *models.User) error {
	_, err := s.db.NewInsert().Model(u).
		On("CONFLICT (username) DO UPDATE").
		Set("hashed_password = EXCLUDED.hashed_password").
		Set("is_admin = EXCLUDED.is_admin").
		Set("is_superadmin = EXCLUDED.is_superadmin").
		Exec(ctx)
	return translate(err, "user")
}

func (s *Bun) userWhere(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	if err := s.db.NewSelect().Model(u).Where(query, arg).Scan(ctx); err != nil {
		return nil, translate(err, "user")
	}
	return u, nil
}

func (s *Bun) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userWhere(ctx, "u.id = ?", id)
}

func (s *Bun) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, "lower(u.email) = lower(?)", email)
}

func (s *Bun) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userWhere(ctx, "u.username = ?", username)
}

func (s *Bun) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.NewSelect().Model(&users).Order("u.id").Offset(offset).Limit(limit).Scan(ctx)
	return users, translate(err, "users")
}

func (s *Bun) UpdateUserRoles(ctx context.Context, id int64, isAdmin, isSuperadmin bool) error {
	res, err := s.db.NewUpdate().Model((*models.User)(nil)).
		Set("is_admin = ?", isAdmin).
		Set("is_superadmin = ?", isSuperadmin).
		Where("id = ?", id).
		Exec(ctx)
	return affected(res, err, "user")
}

func (s *Bun) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.UserByID(ctx, id); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx bun.Tx) error {
		var owned []models.League
		if err := tx.NewSelect().Model(&owned).Where("l.owner_id = ?", id).Scan(ctx); err != nil {
			return fmt.Errorf("owned leagues: %w", err)
		}
		for _, l := range owned {
			var heirs []int64
			err := tx.NewSelect().Model((*models.LeagueMember)(nil)).
				Column("user_id").
				Where("league_id = ? AND user_id <> ?", l.ID, id).
				Order("joined_at", "user_id").
				Limit(1).
				Scan(ctx, &heirs)
			if err != nil {
				return fmt.Errorf("league %d heir: %w", l.ID, err)
			}
			if len(heirs) > 0 {
				_, err = tx.NewUpdate().Model((*models.League)(nil)).
					Set("owner_id = ?", heirs[0]).
					Where("id = ?", l.ID).
					Exec(ctx)
			} else {
				err = deleteLeague(ctx, tx, l.ID)
			}
			if err != nil {
				return fmt.Errorf("league %d: %w", l.ID, err)
			}
		}

		userPredictions := tx.NewSelect().Model((*models.UserPrediction)(nil)).Column("id").Where("user_id = ?", id)
		if _, err := tx.NewDelete().Model((*models.PredictionScore)(nil)).
			Where("prediction_id IN (?)", userPredictions).Exec(ctx); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.UserPrediction)(nil)).
			Where("user_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete predictions: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.LeagueMember)(nil)).
			Where("user_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		res, err := tx.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
		return affected(res, err, "user")
	})
}

func (s *Bun) CreateLeague(ctx context.Context, l *models.League) error {
	return s.inTx(ctx, func(tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(l).Exec(ctx); err != nil {
			return translate(err, "league")
		}
		m := &models.LeagueMember{LeagueID: l.ID, UserID: l.OwnerID}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return translate(err, "league member")
		}
		return nil
	})
}

func (s *Bun) LeagueByID(ctx context.Context, id int64) (*models.League, error) {
	l := &models.League{}
	if err := s.db.NewSelect().Model(l).Where("l.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err, "league")
	}
	return l, nil
}

func (s *Bun) ListLeagues(ctx context.Context, offset, limit int) ([]models.League, error) {
	var leagues []models.League
	q := s.db.NewSelect().Model(&leagues).Order("l.id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx)
	return leagues, translate(err, "leagues")
}

func (s *Bun) LeaguesForUser(ctx context.Context, userID int64) ([]models.League, error) {
	var leagues []models.League
	err := s.db.NewSelect().Model(&leagues).
		Join("JOIN league_members AS lm ON lm.league_id = l.id").
		Where("lm.user_id = ?", userID).
		Order("l.id").
		Scan(ctx)
	return leagues, translate(err, "leagues")
}

func deleteLeague(ctx context.Context, tx bun.Tx, id int64) error {
	if _, err := tx.NewDelete().Model((*models.LeagueMember)(nil)).
		Where("league_id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	res, err := tx.NewDelete().Model((*models.League)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, "league")
}

func (s *Bun) DeleteLeague(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx bun.Tx) error {
		return deleteLeague(ctx, tx, id)
	})
}

func (s *Bun) SetLeagueOwner(ctx context.Context, leagueID, userID int64) error {
	res, err := s.db.NewUpdate().Model((*models.League)(nil)).
		Set("owner_id = ?", userID).
		Where("id = ?", leagueID).
		Exec(ctx)
	return affected(res, err, "league")
}

func (s *Bun) Members(ctx context.Context, leagueID int64) ([]models.Member, error) {
	var members []models.Member
	err := s.db.NewSelect().
		TableExpr("league_members AS lm").
		ColumnExpr("lm.user_id, u.username, lm.joined_at").
		Join("JOIN users AS u ON u.id = lm.user_id").
		Where("lm.league_id = ?", leagueID).
		OrderExpr("lm.joined_at, lm.user_id").
		Scan(ctx, &members)
	return members, translate(err, "league members")
}

func (s *Bun) IsMember(ctx context.Context, leagueID, userID int64) (bool, error) {
	ok, err := s.db.NewSelect().Model((*models.LeagueMember)(nil)).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		Exists(ctx)
	return ok, translate(err, "league member")
}

func (s *Bun) AddMember(ctx context.Context, leagueID, userID int64) error {
	m := &models.LeagueMember{LeagueID: leagueID, UserID: userID}
	_, err := s.db.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx)
	return translate(err, "league member")
}

func (s *Bun) RemoveMember(ctx context.Context, leagueID, userID int64) error {
	res, err := s.db.NewDelete().Model((*models.LeagueMember)(nil)).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		Exec(ctx)
	return affected(res, err, "league member")
}

func (s *Bun) MemberTotals(ctx context.Context, leagueID int64) ([]models.MemberTotal, error) {
	var totals []models.MemberTotal
	err := s.db.NewSelect().
		TableExpr("league_members AS lm").
		ColumnExpr("lm.user_id, u.username").
		ColumnExpr("COALESCE(SUM(ps.total_score), 0) AS total_points").
		ColumnExpr("COUNT(ps.id) AS predictions_made").
		ColumnExpr("COUNT(ps.id) FILTER (WHERE ps.perfect_top_10_bonus > 0) AS perfect_predictions").
		Join("JOIN users AS u ON u.id = lm.user_id").
		Join("LEFT JOIN user_predictions AS up ON up.user_id = lm.user_id").
		Join("LEFT JOIN prediction_scores AS ps ON ps.prediction_id = up.id").
		Where("lm.league_id = ?", leagueID).
		GroupExpr("lm.user_id, u.username, lm.joined_at").
		OrderExpr("lm.joined_at, lm.user_id").
		Scan(ctx, &totals)
	return totals, translate(err, "member totals")
}

func (s *Bun) CreateRaceWeekend(ctx context.Context, w *models.RaceWeekend) error {
	_, err := s.db.NewInsert().Model(w).Exec(ctx)
	return translate(err, "race weekend")
}

func (s *Bun) RaceWeekendByID(ctx context.Context, id int64) (*models.RaceWeekend, error) {
	w := &models.RaceWeekend{}
	if err := s.db.NewSelect().Model(w).Where("rw.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err, "race weekend")
	}
	return w, nil
}

func (s *Bun) ListRaceWeekends(ctx context.Context, year int) ([]models.RaceWeekend, error) {
	var weekends []models.RaceWeekend
	q := s.db.NewSelect().Model(&weekends).Order("rw.year", "rw.round_number")
	if year > 0 {
		q = q.Where("rw.year = ?", year)
	}
	err := q.Scan(ctx)
	return weekends, translate(err, "race weekends")
}

func (s *Bun) DeleteRaceWeekend(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx bun.Tx) error {
		weekendPredictions := tx.NewSelect().Model((*models.UserPrediction)(nil)).Column("id").Where("race_weekend_id = ?", id)
		if _, err := tx.NewDelete().Model((*models.PredictionScore)(nil)).
			Where("prediction_id IN (?)", weekendPredictions).Exec(ctx); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}
		for _, model := range []any{
			(*models.UserPrediction)(nil),
			(*models.RaceResult)(nil),
			(*models.QualifyingResult)(nil),
			(*models.SprintResult)(nil),
		} {
			if _, err := tx.NewDelete().Model(model).Where("race_weekend_id = ?", id).Exec(ctx); err != nil {
				return fmt.Errorf("delete %T: %w", model, err)
			}
		}
		res, err := tx.NewDelete().Model((*models.RaceWeekend)(nil)).Where("id = ?", id).Exec(ctx)
		return affected(res, err, "race weekend")
	})
}

func (s *Bun) WeekendResults(ctx context.Context, weekendID int64) (models.WeekendResults, error) {
	w, err := s.RaceWeekendByID(ctx, weekendID)
	if err != nil {
		return models.WeekendResults{}, err
	}
	res := models.WeekendResults{HasSprint: w.HasSprint}
	if err := s.db.NewSelect().Model(&res.Race).
		Where("rr.race_weekend_id = ?", weekendID).
		Order("rr.position", "rr.id").Scan(ctx); err != nil {
		return res, translate(err, "race results")
	}
	if err := s.db.NewSelect().Model(&res.Qualifying).
		Where("qr.race_weekend_id = ?", weekendID).
		Order("qr.position", "qr.id").Scan(ctx); err != nil {
		return res, translate(err, "qualifying results")
	}
	if err := s.db.NewSelect().Model(&res.Sprint).
		Where("sr.race_weekend_id = ?", weekendID).
		Order("sr.position", "sr.id").Scan(ctx); err != nil {
		return res, translate(err, "sprint results")
	}
	return res, nil
}

func (s *Bun) ReplaceResults(ctx context.Context, weekendID int64, res models.WeekendResults) error {
	if _, err := s.RaceWeekendByID(ctx, weekendID); err != nil {
		return err
	}
	race := append([]models.RaceResult(nil), res.Race...)
	for i := range race {
		race[i].ID, race[i].RaceWeekendID = 0, weekendID
	}
	quali := append([]models.QualifyingResult(nil), res.Qualifying...)
	for i := range quali {
		quali[i].ID, quali[i].RaceWeekendID = 0, weekendID
	}
	sprint := append([]models.SprintResult(nil), res.Sprint...)
	for i := range sprint {
		sprint[i].ID, sprint[i].RaceWeekendID = 0, weekendID
	}

	return s.inTx(ctx, func(tx bun.Tx) error {
		for _, model := range []any{
			(*models.RaceResult)(nil),
			(*models.QualifyingResult)(nil),
			(*models.SprintResult)(nil),
		} {
			if _, err := tx.NewDelete().Model(model).Where("race_weekend_id = ?", weekendID).Exec(ctx); err != nil {
				return fmt.Errorf("delete %T: %w", model, err)
			}
		}
		// bun rejects bulk inserts of empty slices
		if len(race) > 0 {
			if _, err := tx.NewInsert().Model(&race).Exec(ctx); err != nil {
				return translate(err, "race result")
			}
		}
		if len(quali) > 0 {
			if _, err := tx.NewInsert().Model(&quali).Exec(ctx); err != nil {
				return translate(err, "qualifying result")
			}
		}
		if len(sprint) > 0 {
			if _, err := tx.NewInsert().Model(&sprint).Exec(ctx); err != nil {
				return translate(err, "sprint result")
			}
		}
		return nil
	})
}

func (s *Bun) RaceResultByID(ctx context.Context, id int64) (*models.RaceResult, error) {
	r := &models.RaceResult{}
	if err := s.db.NewSelect().Model(r).Where("rr.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err, "race result")
	}
	return r, nil
}

func (s *Bun) UpdateRaceResult(ctx context.Context, r *models.RaceResult) error {
	res, err := s.db.NewUpdate().Model(r).Column("position", "driver_number").WherePK().Exec(ctx)
	return affected(res, err, "race result")
}

func (s *Bun) CreatePrediction(ctx context.Context, p *models.UserPrediction) error {
	_, err := s.db.NewInsert().Model(p).Exec(ctx)
	return translate(err, "prediction")
}

func (s *Bun) PredictionByID(ctx context.Context, id int64) (*models.UserPrediction, error) {
	p := &models.UserPrediction{}
	if err := s.db.NewSelect().Model(p).Where("up.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err, "prediction")
	}
	return p, nil
}

func (s *Bun) RecentPredictions(ctx context.Context, userID int64, limit int) ([]models.UserPrediction, error) {
	var preds []models.UserPrediction
	q := s.db.NewSelect().Model(&preds).
		Where("up.user_id = ?", userID).
		Order("up.created_at DESC", "up.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx)
	return preds, translate(err, "predictions")
}

func (s *Bun) PredictionsForWeekend(ctx context.Context, weekendID int64) ([]models.UserPrediction, error) {
	var preds []models.UserPrediction
	err := s.db.NewSelect().Model(&preds).
		Where("up.race_weekend_id = ?", weekendID).
		Order("up.id").
		Scan(ctx)
	return preds, translate(err, "predictions")
}

func (s *Bun) UnscoredPredictions(ctx context.Context) ([]models.UserPrediction, error) {
	var preds []models.UserPrediction
	err := s.db.NewSelect().Model(&preds).
		Where("NOT EXISTS (SELECT 1 FROM prediction_scores AS ps WHERE ps.prediction_id = up.id)").
		Where("EXISTS (SELECT 1 FROM race_results AS rr WHERE rr.race_weekend_id = up.race_weekend_id)").
		Order("up.id").
		Scan(ctx)
	return preds, translate(err, "predictions")
}

func (s *Bun) ScoreByPrediction(ctx context.Context, predictionID int64) (*models.PredictionScore, error) {
	ps := &models.PredictionScore{}
	if err := s.db.NewSelect().Model(ps).Where("ps.prediction_id = ?", predictionID).Scan(ctx); err != nil {
		return nil, translate(err, "score")
	}
	return ps, nil
}

func (s *Bun) ReplaceScore(ctx context.Context, ps *models.PredictionScore) error {
	return s.inTx(ctx, func(tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.PredictionScore)(nil)).
			Where("prediction_id = ?", ps.PredictionID).Exec(ctx); err != nil {
			return fmt.Errorf("delete score: %w", err)
		}
		ps.ID = 0
		if _, err := tx.NewInsert().Model(ps).Exec(ctx); err != nil {
			return translate(err, "score")
		}
		return nil
	})
}

func (s *Bun) DeleteScoresForWeekend(ctx context.Context, weekendID int64) (int, error) {
	weekendPredictions := s.db.NewSelect().Model((*models.UserPrediction)(nil)).
		Column("id").Where("race_weekend_id = ?", weekendID)
	res, err := s.db.NewDelete().Model((*models.PredictionScore)(nil)).
		Where("prediction_id IN (?)", weekendPredictions).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete scores: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete scores: %w", err)
	}
	return int(n), nil
}

func (s *Bun) Stats(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	counts := []struct {
		dst *int
		q   *bun.SelectQuery
	}{
		{&st.Users, s.db.NewSelect().Model((*models.User)(nil))},
		{&st.Leagues, s.db.NewSelect().Model((*models.League)(nil))},
		{&st.Predictions, s.db.NewSelect().Model((*models.UserPrediction)(nil))},
		{&st.RaceWeekends, s.db.NewSelect().Model((*models.RaceWeekend)(nil))},
		{&st.NewUsers, s.db.NewSelect().Model((*models.User)(nil)).Where("created_at >= ?", since)},
		{&st.NewPredictions, s.db.NewSelect().Model((*models.UserPrediction)(nil)).Where("created_at >= ?", since)},
	}
	for _, c := range counts {
		n, err := c.q.Count(ctx)
		if err != nil {
			return st, translate(err, "stats")
		}
		*c.dst = n
	}
	return st, nil
}
