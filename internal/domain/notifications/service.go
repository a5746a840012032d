package notifications

import (
	"context"
	"log/slog"

	"worktime/internal/platform/i18n"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, defaultFrom string) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: defaultFrom}
}

// Create persists one notification and best-effort mails the user. Email
// failures are logged, never propagated: the notification row is the record.
func (s *Service) Create(ctx context.Context, companyID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, companyID, userID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}
	email, err := s.store.UserEmail(ctx, companyID, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

// Broadcast creates the notification for every active user of the company,
// rendered in each user's locale.
func (s *Service) Broadcast(ctx context.Context, companyID, ntype, messageKey string, data map[string]any) error {
	users, err := s.store.ListUserLocales(ctx, companyID)
	if err != nil {
		return err
	}
	for _, u := range users {
		title := i18n.T(u.Locale, messageKey+".title", data)
		body := i18n.T(u.Locale, messageKey+".body", data)
		if err := s.store.CreateNotification(ctx, companyID, u.UserID, ntype, title, body); err != nil {
			slog.Warn("broadcast notification failed", "userId", u.UserID, "err", err)
		}
	}
	return nil
}

// Notify renders and creates a single-user notification in the user's locale.
func (s *Service) Notify(ctx context.Context, companyID, userID, locale, ntype, messageKey string, data map[string]any) error {
	title := i18n.T(locale, messageKey+".title", data)
	body := i18n.T(locale, messageKey+".body", data)
	return s.Create(ctx, companyID, userID, ntype, title, body)
}

func (s *Service) List(ctx context.Context, companyID, userID string, limit, offset int) ([]map[string]any, error) {
	return s.store.ListNotifications(ctx, companyID, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, companyID, userID string) (int, error) {
	return s.store.CountUnread(ctx, companyID, userID)
}

func (s *Service) MarkRead(ctx context.Context, companyID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, companyID, userID, notificationID)
}
