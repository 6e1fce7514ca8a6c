package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/config"
	"github.com/padraicbc/gridpredict/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// tables in dependency order.
var tables = []any{
	(*models.User)(nil),
	(*models.League)(nil),
	(*models.LeagueMember)(nil),
	(*models.RaceWeekend)(nil),
	(*models.RaceResult)(nil),
	(*models.QualifyingResult)(nil),
	(*models.SprintResult)(nil),
	(*models.UserPrediction)(nil),
	(*models.PredictionScore)(nil),
}

func foreignKey(table, name, column, ref, onDelete string) string {
	return fmt.Sprintf(
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[2]s') THEN ALTER TABLE %[1]s ADD CONSTRAINT %[2]s FOREIGN KEY (%[3]s) REFERENCES %[4]s ON DELETE %[5]s; END IF; END $$`,
		table, name, column, ref, onDelete,
	)
}

// League ownership is moved, not cascaded, when an owner is deleted.
var constraints = []string{
	foreignKey("leagues", "leagues_owner_fk", "owner_id", "users (id)", "RESTRICT"),
	foreignKey("league_members", "league_members_league_fk", "league_id", "leagues (id)", "CASCADE"),
	foreignKey("league_members", "league_members_user_fk", "user_id", "users (id)", "CASCADE"),
	foreignKey("race_results", "race_results_weekend_fk", "race_weekend_id", "race_weekends (id)", "CASCADE"),
	foreignKey("qualifying_results", "qualifying_results_weekend_fk", "race_weekend_id", "race_weekends (id)", "CASCADE"),
	foreignKey("sprint_results", "sprint_results_weekend_fk", "race_weekend_id", "race_weekends (id)", "CASCADE"),
	foreignKey("user_predictions", "user_predictions_user_fk", "user_id", "users (id)", "CASCADE"),
	foreignKey("user_predictions", "user_predictions_weekend_fk", "race_weekend_id", "race_weekends (id)", "CASCADE"),
	foreignKey("prediction_scores", "prediction_scores_prediction_fk", "prediction_id", "user_predictions (id)", "CASCADE"),
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS user_predictions_recent_idx ON user_predictions (user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS league_members_user_idx ON league_members (user_id)`,
	`CREATE INDEX IF NOT EXISTS race_weekends_session_idx ON race_weekends (session_date)`,
}

// CreateTables creates all tables, foreign keys and indexes that do not
// exist yet. A failed constraint is logged and skipped; table and index
// failures are returned.
func CreateTables(ctx context.Context, db bun.IDB, log *zap.Logger) error {
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Warn("add constraint failed", zap.String("statement", stmt), zap.Error(err))
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	return nil
}
