package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ScheduleConfigRepository persists named weekly grid configurations as JSONB.
type ScheduleConfigRepository struct {
	db *sqlx.DB
}

// NewScheduleConfigRepository constructs the repository.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

// Get fetches and decodes the configuration stored under name. It returns
// nil without error when no configuration has been saved.
func (r *ScheduleConfigRepository) Get(ctx context.Context, name string) (*models.ScheduleConfig, error) {
	const query = `SELECT name, config, updated_at FROM schedule_configs WHERE name = $1`
	var record models.ScheduleConfigRecord
	if err := r.db.GetContext(ctx, &record, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule config %s: %w", name, err)
	}

	var cfg models.ScheduleConfig
	if err := record.Config.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode schedule config %s: %w", name, err)
	}
	return &cfg, nil
}

// Upsert stores cfg under name.
func (r *ScheduleConfigRepository) Upsert(ctx context.Context, name string, cfg models.ScheduleConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode schedule config %s: %w", name, err)
	}
	record := models.ScheduleConfigRecord{Name: name, Config: types.JSONText(payload), UpdatedAt: time.Now().UTC()}

	const query = `INSERT INTO schedule_configs (name, config, updated_at)
VALUES (:name, :config, :updated_at)
ON CONFLICT (name)
DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, &record); err != nil {
		return fmt.Errorf("upsert schedule config %s: %w", name, err)
	}
	return nil
}
