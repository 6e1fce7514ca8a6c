package handlers

import (
	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/service"
	"github.com/padraicbc/gridpredict/store"
)

// Services are the domain services behind the routes.
type Services struct {
	Users       *service.UserService
	Leagues     *service.LeagueService
	Predictions *service.PredictionService
	Races       *service.RaceService
	Admin       *service.AdminService
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store       store.Store
	users       *service.UserService
	leagues     *service.LeagueService
	predictions *service.PredictionService
	races       *service.RaceService
	admin       *service.AdminService
	log         *zap.Logger
}

// New creates a Handler. st is only used for readiness checks.
func New(st store.Store, s Services, log *zap.Logger) *Handler {
	return &Handler{
		store:       st,
		users:       s.Users,
		leagues:     s.Leagues,
		predictions: s.Predictions,
		races:       s.Races,
		admin:       s.Admin,
		log:         log,
	}
}
