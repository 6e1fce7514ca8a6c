package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// AdminService backs the administration endpoints. Callers have already
// checked that the actor is an admin.
type AdminService struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewAdminService(st store.Store, log *zap.Logger) *AdminService {
	return &AdminService{store: st, log: log, now: time.Now}
}

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	store.Stats
	Timestamp time.Time `json:"timestamp"`
}

func pageBounds(offset, limit int) (int, int, error) {
	if offset < 0 {
		return 0, 0, apperr.Validation("skip must not be negative")
	}
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit < 0 || limit > maxPageSize:
		return 0, 0, apperr.Validation("limit must be between 1 and %d", maxPageSize)
	}
	return offset, limit, nil
}

func (s *AdminService) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	offset, limit, err := pageBounds(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, offset, limit)
}

// UpdateRole sets the role flags of user id. Only a superadmin may grant
// or revoke superadmin.
func (s *AdminService) UpdateRole(ctx context.Context, actor *models.User, id int64, isAdmin, isSuperadmin bool) (*models.User, error) {
	target, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if (isSuperadmin || target.IsSuperadmin) && !actor.IsSuperadmin {
		return nil, apperr.Forbidden("only superadmins can change superadmin status")
	}
	if isSuperadmin {
		isAdmin = true
	}
	if err := s.store.UpdateUserRoles(ctx, id, isAdmin, isSuperadmin); err != nil {
		return nil, err
	}
	target.IsAdmin, target.IsSuperadmin = isAdmin, isSuperadmin
	s.log.Info("user role updated",
		zap.Int64("user_id", id),
		zap.Bool("is_admin", isAdmin),
		zap.Bool("is_superadmin", isSuperadmin),
		zap.Int64("by", actor.ID),
	)
	return target, nil
}

// DeleteUser removes an account and everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, actor *models.User, id int64) error {
	if id == actor.ID {
		return apperr.Validation("cannot delete your own account")
	}
	target, err := s.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin && !actor.IsSuperadmin {
		return apperr.Forbidden("only superadmins can delete admins")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("user_id", id), zap.Int64("by", actor.ID))
	return nil
}

func (s *AdminService) ListLeagues(ctx context.Context, offset, limit int) ([]models.League, error) {
	offset, limit, err := pageBounds(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.store.ListLeagues(ctx, offset, limit)
}

// DeleteLeague removes any league regardless of owner.
func (s *AdminService) DeleteLeague(ctx context.Context, actor *models.User, id int64) error {
	if err := s.store.DeleteLeague(ctx, id); err != nil {
		return err
	}
	s.log.Info("league deleted by admin", zap.Int64("league_id", id), zap.Int64("by", actor.ID))
	return nil
}

// Stats counts rows overall and over the last seven days.
func (s *AdminService) Stats(ctx context.Context) (*SystemStats, error) {
	now := s.now()
	st, err := s.store.Stats(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &SystemStats{Stats: st, Timestamp: now}, nil
}
