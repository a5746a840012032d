package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, companyID, userID, ntype, title, body string) error
	ListUserLocales(ctx context.Context, companyID string) ([]UserLocale, error)
	ListNotifications(ctx context.Context, companyID, userID string, limit, offset int) ([]map[string]any, error)
	CountUnread(ctx context.Context, companyID, userID string) (int, error)
	MarkRead(ctx context.Context, companyID, userID, notificationID string) error
	UserEmail(ctx context.Context, companyID, userID string) (string, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}
