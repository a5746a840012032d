package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type ModeEvent struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Reason    string    `json:"reason,omitempty"`
	Version   int64     `json:"version"`
	ActorID   string    `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Timeline returns the company's mode transitions for one calendar day.
func (s *Service) Timeline(ctx context.Context, companyID string, day time.Time) ([]ModeEvent, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := s.DB.Query(ctx, `
    SELECT id, mode, reason, version, COALESCE(actor_user_id::text, ''), created_at
    FROM work_mode_events
    WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
    ORDER BY created_at
  `, companyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModeEvent
	for rows.Next() {
		var e ModeEvent
		if err := rows.Scan(&e.ID, &e.Mode, &e.Reason, &e.Version, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
