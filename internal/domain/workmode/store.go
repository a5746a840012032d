package workmode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"worktime/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const configColumns = `
    company_id, work_start_time, work_end_time, break_start_time, break_end_time,
    current_mode, COALESCE(active_break_reason, ''), version, epoch_date, updated_at
`

func scanConfig(row pgx.Row) (CompanyWorkConfig, error) {
	var cfg CompanyWorkConfig
	err := row.Scan(
		&cfg.CompanyID, &cfg.WorkStartTime, &cfg.WorkEndTime, &cfg.BreakStartTime, &cfg.BreakEndTime,
		&cfg.CurrentMode, &cfg.ActiveBreakReason, &cfg.Version, &cfg.EpochDate, &cfg.UpdatedAt,
	)
	return cfg, err
}

func (s *Store) GetConfig(ctx context.Context, companyID string) (CompanyWorkConfig, error) {
	cfg, err := scanConfig(s.DB.QueryRow(ctx,
		"SELECT"+configColumns+"FROM company_work_configs WHERE company_id = $1", companyID))
	if err != nil {
		return CompanyWorkConfig{}, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	return cfg, nil
}

// SetMode writes the new global mode as a single guarded update. The role
// permission is part of the WHERE clause, so a write that affects zero rows is
// the denial signal and is surfaced as ErrPermissionDenied, never swallowed.
// Concurrent privileged writers race last-write-wins; the store serializes
// writes but imposes no further ordering.
func (s *Store) SetMode(ctx context.Context, companyID, roleID, actorUserID string, mode Mode, reason string) (CompanyWorkConfig, error) {
	cfg, err := scanConfig(s.DB.QueryRow(ctx, `
    UPDATE company_work_configs
    SET current_mode = $3,
        active_break_reason = NULLIF($4, ''),
        version = version + 1,
        updated_at = now()
    WHERE company_id = $1
      AND EXISTS (
        SELECT 1
        FROM role_permissions rp
        JOIN permissions p ON rp.permission_id = p.id
        WHERE rp.role_id = $2 AND p.key = $5
      )
    RETURNING`+configColumns, companyID, roleID, mode, reason, auth.PermWorkModeControl))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyWorkConfig{}, ErrPermissionDenied
		}
		return CompanyWorkConfig{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    INSERT INTO work_mode_events (company_id, mode, reason, version, actor_user_id)
    VALUES ($1,$2,$3,$4,$5)
  `, companyID, mode, reason, cfg.Version, nullable(actorUserID)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UpdateSchedule merges the non-nil patch fields. Same zero-rows-means-denied
// semantics as SetMode.
func (s *Store) UpdateSchedule(ctx context.Context, companyID, roleID string, patch SchedulePatch) (CompanyWorkConfig, error) {
	cfg, err := scanConfig(s.DB.QueryRow(ctx, `
    UPDATE company_work_configs
    SET work_start_time = COALESCE($3, work_start_time),
        work_end_time = COALESCE($4, work_end_time),
        break_start_time = COALESCE($5, break_start_time),
        break_end_time = COALESCE($6, break_end_time),
        version = version + 1,
        updated_at = now()
    WHERE company_id = $1
      AND EXISTS (
        SELECT 1
        FROM role_permissions rp
        JOIN permissions p ON rp.permission_id = p.id
        WHERE rp.role_id = $2 AND p.key = $7
      )
    RETURNING`+configColumns,
		companyID, roleID, patch.WorkStartTime, patch.WorkEndTime, patch.BreakStartTime, patch.BreakEndTime,
		auth.PermWorkModeControl))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyWorkConfig{}, ErrPermissionDenied
		}
		return CompanyWorkConfig{}, err
	}
	return cfg, nil
}

// StartNewEpoch reopens an ended config for a new work day. Returns false when
// the config was not eligible (not ended, or already rolled today).
func (s *Store) StartNewEpoch(ctx context.Context, companyID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE company_work_configs
    SET current_mode = 'idle',
        active_break_reason = NULL,
        version = version + 1,
        epoch_date = CURRENT_DATE,
        updated_at = now()
    WHERE company_id = $1 AND current_mode = 'ended' AND epoch_date < CURRENT_DATE
  `, companyID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RolloverCandidates(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT company_id
    FROM company_work_configs
    WHERE current_mode = 'ended' AND epoch_date < CURRENT_DATE
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
