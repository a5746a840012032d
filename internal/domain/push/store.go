package push

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Subscription struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Save(ctx context.Context, companyID, userID string, sub Subscription) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO push_subscriptions (company_id, user_id, endpoint, p256dh, auth_key)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth_key = EXCLUDED.auth_key
  `, companyID, userID, sub.Endpoint, sub.P256dh, sub.Auth)
	return err
}

func (s *Store) DeleteEndpoint(ctx context.Context, userID, endpoint string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2", userID, endpoint)
	return err
}

func (s *Store) Prune(ctx context.Context, endpoint string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM push_subscriptions WHERE endpoint = $1", endpoint)
	return err
}

func (s *Store) ListByCompany(ctx context.Context, companyID string) ([]Subscription, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, endpoint, p256dh, auth_key
    FROM push_subscriptions
    WHERE company_id = $1
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
