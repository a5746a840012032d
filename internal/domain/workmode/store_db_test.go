package workmode

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktime/internal/domain/auth"
	"worktime/internal/platform/db"
)

// Exercises the EXISTS guard directly: a role without workmode.control must
// hit the zero-rows path and leave the config untouched.
func TestSetModeDeniedWithoutCapability(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var companyID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO companies (name) VALUES ('guard-' || gen_random_uuid()::text) RETURNING id",
	).Scan(&companyID); err != nil {
		t.Fatalf("create company: %v", err)
	}
	var viewerRoleID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO roles (company_id, name) VALUES ($1, 'viewer') RETURNING id", companyID,
	).Scan(&viewerRoleID); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"INSERT INTO company_work_configs (company_id) VALUES ($1)", companyID,
	); err != nil {
		t.Fatalf("create work config: %v", err)
	}

	store := NewStore(pool)
	before, err := store.GetConfig(ctx, companyID)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := store.SetMode(ctx, companyID, viewerRoleID, "", ModeWorking, ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied from SetMode, got %v", err)
	}
	start := "08:30"
	if _, err := store.UpdateSchedule(ctx, companyID, viewerRoleID, SchedulePatch{WorkStartTime: &start}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied from UpdateSchedule, got %v", err)
	}

	after, err := store.GetConfig(ctx, companyID)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if after.Version != before.Version || after.CurrentMode != before.CurrentMode || after.WorkStartTime != before.WorkStartTime {
		t.Fatalf("denied write mutated state: before %+v after %+v", before, after)
	}

	// Granting the capability flips the same statement from denial to write.
	var permID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO permissions (key) VALUES ($1)
    ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
    RETURNING id
  `, auth.PermWorkModeControl).Scan(&permID); err != nil {
		t.Fatalf("ensure permission: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		viewerRoleID, permID,
	); err != nil {
		t.Fatalf("grant permission: %v", err)
	}

	granted, err := store.SetMode(ctx, companyID, viewerRoleID, "", ModeWorking, "")
	if err != nil {
		t.Fatalf("expected write after grant, got %v", err)
	}
	if granted.CurrentMode != ModeWorking || granted.Version != before.Version+1 {
		t.Fatalf("unexpected config after grant: %+v", granted)
	}
}
